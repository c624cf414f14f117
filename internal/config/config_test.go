package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitialize(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if v == nil {
		t.Fatal("viper instance is nil after Initialize()")
	}
}

func TestDefaults(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}

	tests := []struct {
		key      string
		expected any
		getter   func(string) any
	}{
		{KeyDBBackend, "dolt-server", func(k string) any { return GetString(k) }},
		{KeyDBPort, 3307, func(k string) any { return GetInt(k) }},
		{KeyDBName, "ticketdesk", func(k string) any { return GetString(k) }},
		{KeyDBTLS, false, func(k string) any { return GetBool(k) }},
		{KeyUIListen, "127.0.0.1:8080", func(k string) any { return GetString(k) }},
		{KeyIntakeMaxUpload, int64(1_000_000), func(k string) any { return GetInt64(k) }},
		{KeyActor, "", func(k string) any { return GetString(k) }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := tt.getter(tt.key); got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}

	exts := GetStringSlice(KeyIntakeExtensions)
	if strings.Join(exts, ",") != "xlsx,xls" {
		t.Errorf("allowed extensions = %v", exts)
	}
}

func TestEnvironmentBinding(t *testing.T) {
	t.Setenv("TD_DB_PORT", "4000")
	t.Setenv("TD_UI_ALLOW_REMOTE", "true")
	t.Setenv("TD_INTAKE_ALLOWED_EXTENSIONS", "xlsx, csv")

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetInt(KeyDBPort); got != 4000 {
		t.Errorf("db.port = %d, want 4000", got)
	}
	if !GetBool(KeyUIAllowRemote) {
		t.Error("ui.allow-remote should be true from env")
	}
	if got := GetStringSlice(KeyIntakeExtensions); len(got) != 2 || got[1] != "csv" {
		t.Errorf("allowed extensions = %v", got)
	}
	if src := Source(KeyDBPort); src != "env TD_DB_PORT" {
		t.Errorf("Source(db.port) = %q", src)
	}
}

func TestProjectConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ProjectDir), 0o750); err != nil {
		t.Fatal(err)
	}
	cfg := "db:\n  backend: memory\nactor: pm-team\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ProjectDir, "config.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(tmpDir, "nested", "dir")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}
	t.Chdir(sub)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetString(KeyDBBackend); got != "memory" {
		t.Errorf("db.backend = %q, want memory", got)
	}
	if got := GetString(KeyActor); got != "pm-team" {
		t.Errorf("actor = %q, want pm-team", got)
	}
	if !strings.HasSuffix(ConfigFileUsed(), filepath.Join(ProjectDir, "config.yaml")) {
		t.Errorf("ConfigFileUsed() = %q", ConfigFileUsed())
	}
}

func TestNilViperGetters(t *testing.T) {
	ResetForTesting()
	if GetString(KeyActor) != "" || GetBool(KeyDBTLS) || GetInt(KeyDBPort) != 0 {
		t.Error("getters should return zero values before Initialize")
	}
	Set(KeyActor, "ignored")
	if Source(KeyActor) != "unset" {
		t.Error("Source should be unset before Initialize")
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{KeyDBPort, "3306", false},
		{KeyDBPort, "99999", true},
		{KeyDBBackend, "memory", false},
		{KeyDBBackend, "sqlite", true},
		{KeyLogLevel, "DEBUG", false},
		{KeyLogFormat, "xml", true},
		{KeyUIAllowRemote, "yes", false},
		{KeyIntakeMaxUpload, "0", true},
		{"no.such.key", "x", true},
	}
	for _, tt := range tests {
		err := ValidateKey(tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateKey(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
		}
	}
	if LookupKey(KeyDBPassword) == nil || !LookupKey(KeyDBPassword).Secret {
		t.Error("db.password should be a secret key")
	}
}
