package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key describes one configuration key.
type Key struct {
	Key         string
	Description string
	Default     any
	Secret      bool // value is never printed
	Validate    func(string) error
}

// Key names.
const (
	KeyActor            = "actor"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyDBBackend        = "db.backend"
	KeyDBHost           = "db.host"
	KeyDBPort           = "db.port"
	KeyDBUser           = "db.user"
	KeyDBPassword       = "db.password"
	KeyDBName           = "db.name"
	KeyDBPath           = "db.path"
	KeyDBTLS            = "db.tls"
	KeyUIListen         = "ui.listen"
	KeyUIAllowRemote    = "ui.allow-remote"
	KeyUIAuthToken      = "ui.auth-token"
	KeyUITLSCert        = "ui.tls-cert"
	KeyUITLSKey         = "ui.tls-key"
	KeyRoutingFile      = "routing.file"
	KeyIntakeMaxUpload  = "intake.max-upload-bytes"
	KeyIntakeExtensions = "intake.allowed-extensions"
)

// Keys lists every recognized configuration key.
var Keys = []Key{
	{Key: KeyActor, Description: "Name recorded on ticket events"},
	{Key: KeyLogLevel, Description: "Log level", Default: "info", Validate: validateLogLevel},
	{Key: KeyLogFormat, Description: "Log format (json or text)", Default: "json", Validate: validateLogFormat},

	// Database
	{Key: KeyDBBackend, Description: "Storage backend (dolt-server, dolt-embedded, memory)", Default: "dolt-server", Validate: validateBackend},
	{Key: KeyDBHost, Description: "Dolt server hostname", Default: "127.0.0.1"},
	{Key: KeyDBPort, Description: "Dolt server port", Default: 3307, Validate: validatePort},
	{Key: KeyDBUser, Description: "Dolt server user", Default: "root"},
	{Key: KeyDBPassword, Description: "Dolt server password", Secret: true},
	{Key: KeyDBName, Description: "Database name", Default: "ticketdesk"},
	{Key: KeyDBPath, Description: "Embedded database directory", Default: ".ticketdesk/dolt"},
	{Key: KeyDBTLS, Description: "Use TLS for the server connection", Default: false, Validate: validateBool},

	// Web UI
	{Key: KeyUIListen, Description: "HTTP listen address", Default: "127.0.0.1:8080"},
	{Key: KeyUIAllowRemote, Description: "Accept non-loopback clients (requires auth token)", Default: false, Validate: validateBool},
	{Key: KeyUIAuthToken, Description: "Bearer token required from remote clients", Secret: true},
	{Key: KeyUITLSCert, Description: "TLS certificate file"},
	{Key: KeyUITLSKey, Description: "TLS key file"},

	// Routing and intake
	{Key: KeyRoutingFile, Description: "Routing rules file (YAML or TOML); built-in rules when empty"},
	{Key: KeyIntakeMaxUpload, Description: "Largest accepted upload in bytes", Default: 1_000_000, Validate: validatePositive},
	{Key: KeyIntakeExtensions, Description: "Accepted upload extensions", Default: []string{"xlsx", "xls"}},
}

var keyMap map[string]*Key

func init() {
	keyMap = make(map[string]*Key, len(Keys))
	for i := range Keys {
		keyMap[Keys[i].Key] = &Keys[i]
	}
}

// LookupKey returns the definition of key, or nil if it is unknown.
func LookupKey(key string) *Key {
	return keyMap[key]
}

// KeyNames returns all key names, sorted.
func KeyNames() []string {
	names := make([]string, 0, len(Keys))
	for _, k := range Keys {
		names = append(names, k.Key)
	}
	sort.Strings(names)
	return names
}

// ValidateKey checks that key is known and value acceptable for it.
func ValidateKey(key, value string) error {
	k := keyMap[key]
	if k == nil {
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(KeyNames(), ", "))
	}
	if k.Validate != nil {
		if err := k.Validate(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}

// Validation helpers

func validatePort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be a number, got %q", value)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validatePositive(value string) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number, got %q", value)
	}
	return nil
}

func validateLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("must be one of: debug, info, warn, error; got %q", value)
	}
}

func validateLogFormat(value string) error {
	switch strings.ToLower(value) {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("must be json or text, got %q", value)
	}
}

func validateBackend(value string) error {
	switch value {
	case "dolt-server", "dolt-embedded", "memory":
		return nil
	default:
		return fmt.Errorf("must be one of: dolt-server, dolt-embedded, memory; got %q", value)
	}
}

func validateBool(value string) error {
	switch strings.ToLower(value) {
	case "true", "false", "1", "0", "yes", "no":
		return nil
	default:
		return fmt.Errorf("must be true or false, got %q", value)
	}
}
