package factory

import (
	"context"
	"strings"
	"testing"

	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/storage/memory"
)

func TestNewMemoryBackend(t *testing.T) {
	store, err := New(context.Background(), BackendMemory, Options{})
	if err != nil {
		t.Fatalf("New(memory): %v", err)
	}
	defer store.Close()
	if _, ok := store.(*memory.MemoryStorage); !ok {
		t.Fatalf("got %T, want *memory.MemoryStorage", store)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), "sqlite", Options{})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "dolt-server") {
		t.Errorf("error should list supported backends: %v", err)
	}
}

func TestRegisterBackend(t *testing.T) {
	called := false
	RegisterBackend("fake", func(ctx context.Context, opts Options) (storage.Storage, error) {
		called = true
		return memory.New(), nil
	})
	t.Cleanup(func() { delete(backendRegistry, "fake") })

	if _, err := New(context.Background(), "fake", Options{}); err != nil {
		t.Fatalf("New(fake): %v", err)
	}
	if !called {
		t.Error("registered factory not used")
	}
}

func TestServerBackendUnreachable(t *testing.T) {
	// Port 1 is never a dolt server; the fail-fast dial should report it.
	_, err := New(context.Background(), BackendDoltServer, Options{ServerHost: "127.0.0.1", ServerPort: 1})
	if err == nil {
		t.Fatal("expected unreachable server error")
	}
	if !strings.Contains(err.Error(), "unreachable") {
		t.Errorf("unexpected error: %v", err)
	}
}
