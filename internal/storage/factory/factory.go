// Package factory provides functions for creating storage backends based on configuration.
package factory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/storage/dolt"
	"github.com/adi-analytics/ticketdesk/internal/storage/memory"
)

// Backend names accepted by db.backend.
const (
	BackendDoltServer   = "dolt-server"
	BackendDoltEmbedded = "dolt-embedded"
	BackendMemory       = "memory"
)

// BackendFactory is a function that creates a storage backend
type BackendFactory func(ctx context.Context, opts Options) (storage.Storage, error)

// backendRegistry holds registered backend factories
var backendRegistry = map[string]BackendFactory{
	BackendDoltServer: func(ctx context.Context, opts Options) (storage.Storage, error) {
		return dolt.New(ctx, &dolt.Config{
			Database:       opts.Database,
			ReadOnly:       opts.ReadOnly,
			ServerMode:     true,
			ServerHost:     opts.ServerHost,
			ServerPort:     opts.ServerPort,
			ServerUser:     opts.ServerUser,
			ServerPassword: opts.ServerPassword,
			ServerTLS:      opts.ServerTLS,
		})
	},
	BackendDoltEmbedded: func(ctx context.Context, opts Options) (storage.Storage, error) {
		return dolt.New(ctx, &dolt.Config{
			Path:     opts.Path,
			Database: opts.Database,
			ReadOnly: opts.ReadOnly,
		})
	},
	BackendMemory: func(context.Context, Options) (storage.Storage, error) {
		return memory.New(), nil
	},
}

// RegisterBackend registers a storage backend factory
func RegisterBackend(name string, factory BackendFactory) {
	backendRegistry[name] = factory
}

// Options configures how the storage backend is opened
type Options struct {
	ReadOnly bool
	Path     string // Embedded database directory
	Database string // Database name (default: ticketdesk)

	ServerHost     string // Server host (default: 127.0.0.1)
	ServerPort     int    // Server port (default: 3307)
	ServerUser     string // MySQL user (default: root)
	ServerPassword string
	ServerTLS      bool
}

// New creates a storage backend by name. An empty name selects dolt-server.
func New(ctx context.Context, backend string, opts Options) (storage.Storage, error) {
	if backend == "" {
		backend = BackendDoltServer
	}
	factory, ok := backendRegistry[backend]
	if !ok {
		return nil, fmt.Errorf("unknown storage backend: %s (supported: %s)", backend, strings.Join(Backends(), ", "))
	}
	return factory(ctx, opts)
}

// Backends lists the registered backend names.
func Backends() []string {
	names := make([]string, 0, len(backendRegistry))
	for name := range backendRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
