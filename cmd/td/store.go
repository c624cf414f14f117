package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adi-analytics/ticketdesk/internal/config"
	"github.com/adi-analytics/ticketdesk/internal/intake"
	"github.com/adi-analytics/ticketdesk/internal/routing"
	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/storage/factory"
	"github.com/adi-analytics/ticketdesk/internal/telemetry"
)

// storeOptions maps the db.* config keys onto factory options.
func storeOptions() factory.Options {
	return factory.Options{
		Path:           config.GetString(config.KeyDBPath),
		Database:       config.GetString(config.KeyDBName),
		ServerHost:     config.GetString(config.KeyDBHost),
		ServerPort:     config.GetInt(config.KeyDBPort),
		ServerUser:     config.GetString(config.KeyDBUser),
		ServerPassword: config.GetString(config.KeyDBPassword),
		ServerTLS:      config.GetBool(config.KeyDBTLS),
	}
}

func openStore(ctx context.Context) (storage.Storage, error) {
	backend := config.GetString(config.KeyDBBackend)
	s, err := factory.New(ctx, backend, storeOptions())
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", backend, err)
	}
	slog.Debug("storage opened", "backend", backend)
	return telemetry.WrapStorage(s), nil
}

// loadRouter builds the router from routing.file, or the built-in rules.
func loadRouter() (*routing.Router, string, error) {
	path := config.GetString(config.KeyRoutingFile)
	if path == "" {
		return routing.NewRouter(nil), "", nil
	}
	rules, err := routing.LoadRules(path)
	if err != nil {
		return nil, path, err
	}
	return routing.NewRouter(rules), path, nil
}

func intakeOptions() intake.Options {
	return intake.Options{
		MaxUploadBytes:    config.GetInt64(config.KeyIntakeMaxUpload),
		AllowedExtensions: config.GetStringSlice(config.KeyIntakeExtensions),
	}
}

func newIntakeService(router *routing.Router) *intake.Service {
	return intake.NewService(store, router, intakeOptions(), logger)
}
