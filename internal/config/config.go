// Package config holds ticketdesk's viper-backed configuration.
//
// Precedence is flags > TD_* environment variables > config file > defaults.
// The config file is the first .ticketdesk/config.yaml found walking up from
// the working directory, else ~/.config/ticketdesk/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable ticketdesk reads.
const EnvPrefix = "TD"

// ProjectDir is the per-project configuration directory name.
const ProjectDir = ".ticketdesk"

var v *viper.Viper

// Initialize sets up the viper configuration singleton.
// Should be called once at application startup.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	for _, k := range Keys {
		if k.Default != nil {
			v.SetDefault(k.Key, k.Default)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path, err := findConfigFile()
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return nil
}

// ResetForTesting clears the singleton so the next Initialize starts fresh.
func ResetForTesting() {
	v = nil
}

// findConfigFile returns the config file to load, or "" if there is none.
func findConfigFile() (string, error) {
	if p, err := FindProjectConfig(); err == nil {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	p := filepath.Join(home, ".config", "ticketdesk", "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", nil
}

// FindProjectConfig walks up from the working directory looking for
// .ticketdesk/config.yaml.
func FindProjectConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		p := filepath.Join(dir, ProjectDir, "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		if dir == filepath.Dir(dir) {
			break
		}
	}
	return "", fmt.Errorf("no %s/config.yaml found", ProjectDir)
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// BindPFlag lets an explicitly set command-line flag override key.
func BindPFlag(key string, flag *pflag.Flag) error {
	if v == nil || flag == nil {
		return nil
	}
	return v.BindPFlag(key, flag)
}

// GetString retrieves a string configuration value.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value.
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetInt64 retrieves an int64 configuration value.
func GetInt64(key string) int64 {
	if v == nil {
		return 0
	}
	return v.GetInt64(key)
}

// GetDuration retrieves a duration configuration value.
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// GetStringSlice retrieves a list value. A comma-separated string
// (the usual shape of an env var) is split.
func GetStringSlice(key string) []string {
	if v == nil {
		return nil
	}
	raw := v.Get(key)
	if s, ok := raw.(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return v.GetStringSlice(key)
}

// Set overrides a value for the rest of the process.
func Set(key string, value any) {
	if v != nil {
		v.Set(key, value)
	}
}

// Source reports where the effective value of key comes from.
func Source(key string) string {
	if v == nil {
		return "unset"
	}
	envName := EnvPrefix + "_" + strings.NewReplacer(".", "_", "-", "_").Replace(strings.ToUpper(key))
	if _, ok := os.LookupEnv(envName); ok {
		return "env " + envName
	}
	if v.InConfig(key) {
		return "file " + v.ConfigFileUsed()
	}
	if v.IsSet(key) {
		return "default"
	}
	return "unset"
}
