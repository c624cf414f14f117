// Package dolt implements the storage interface using Dolt (versioned MySQL-compatible database).
//
// Connection modes:
//   - Server: connect to a running dolt sql-server (or any MySQL server) via
//     github.com/go-sql-driver/mysql. Pure Go, available in every build.
//   - Embedded: no server required, database/sql interface via dolthub/driver.
//     Requires CGO.
package dolt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	// Import MySQL driver for server mode connections
	_ "github.com/go-sql-driver/mysql"
)

// DefaultSQLPort is the default port of dolt sql-server.
const DefaultSQLPort = 3307

// DefaultDatabase is the database name used when none is configured.
const DefaultDatabase = "ticketdesk"

// DoltStore implements the Storage interface using Dolt
type DoltStore struct {
	db         *sql.DB
	dbPath     string       // Path to Dolt database directory (embedded mode)
	closed     atomic.Bool  // Tracks whether Close() has been called
	mu         sync.RWMutex // Protects concurrent access
	readOnly   bool         // True if opened in read-only mode
	serverMode bool         // True if connected to dolt sql-server (vs embedded)

	// closeEmbedded is non-nil only in embedded mode. It releases the
	// filesystem locks held by the embedded engine.
	closeEmbedded func() error
}

// Config holds Dolt database configuration
type Config struct {
	Path     string // Path to Dolt database directory (embedded mode)
	Database string // Database name (default: "ticketdesk")
	ReadOnly bool   // Open in read-only mode (skip schema init)

	CommitterName  string // Embedded mode commit author
	CommitterEmail string

	// Server mode options
	ServerMode     bool   // Connect to dolt sql-server instead of embedded
	ServerHost     string // Server host (default: 127.0.0.1)
	ServerPort     int    // Server port (default: 3307)
	ServerUser     string // MySQL user (default: root)
	ServerPassword string // MySQL password (default: empty, can be set via TD_DB_PASSWORD)
	ServerTLS      bool   // Enable TLS for server connections
}

// Server mode retry configuration.
// go-sql-driver/mysql has no built-in retry, so transient connection errors
// (stale pool connections, brief network issues, server restarts) are retried here.
const serverRetryMaxElapsed = 30 * time.Second

func newServerRetryBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = serverRetryMaxElapsed
	return bo
}

var retryableFragments = []string{
	"driver: bad connection",
	"invalid connection",
	"broken pipe",
	"connection reset",
	"connection refused",
	"database is read only",
	"lost connection", // MySQL 2013
	"gone away",       // MySQL 2006
	"i/o timeout",
}

// isRetryableError returns true if the error is a transient connection error
// that should be retried in server mode.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, frag := range retryableFragments {
		if strings.Contains(errStr, frag) {
			return true
		}
	}
	return false
}

// withRetry executes an operation with retry for transient errors.
// Only active in server mode; embedded mode has driver-level retry.
func (s *DoltStore) withRetry(ctx context.Context, op func() error) error {
	if !s.serverMode {
		return op()
	}

	bo := newServerRetryBackoff()
	return backoff.Retry(func() error {
		err := op()
		if err != nil && isRetryableError(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}

// execContext wraps s.db.ExecContext with server-mode retry for transient errors.
func (s *DoltStore) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := s.withRetry(ctx, func() error {
		var execErr error
		result, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	return result, err
}

// queryContext wraps s.db.QueryContext with server-mode retry for transient errors.
func (s *DoltStore) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := s.withRetry(ctx, func() error {
		var queryErr error
		rows, queryErr = s.db.QueryContext(ctx, query, args...)
		return queryErr
	})
	return rows, err
}

// queryRowContext wraps s.db.QueryRowContext with server-mode retry for transient errors.
// The scan function receives the *sql.Row and should call .Scan() on it.
func (s *DoltStore) queryRowContext(ctx context.Context, scan func(*sql.Row) error, query string, args ...any) error {
	return s.withRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, query, args...)
		return scan(row)
	})
}

// New creates a new Dolt storage backend
func New(ctx context.Context, cfg *Config) (*DoltStore, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if err := validateDatabaseName(cfg.Database); err != nil {
		return nil, fmt.Errorf("invalid database name %q: %w", cfg.Database, err)
	}
	if cfg.CommitterName == "" {
		cfg.CommitterName = "ticketdesk"
	}
	if cfg.CommitterEmail == "" {
		cfg.CommitterEmail = "ticketdesk@local"
	}

	if !cfg.ServerMode {
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path is required")
		}
		return newEmbeddedMode(ctx, cfg)
	}

	if cfg.ServerHost == "" {
		cfg.ServerHost = "127.0.0.1"
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = DefaultSQLPort
	}
	if cfg.ServerUser == "" {
		cfg.ServerUser = "root"
	}
	if cfg.ServerPassword == "" {
		cfg.ServerPassword = os.Getenv("TD_DB_PASSWORD")
	}

	// Fail-fast TCP check before MySQL protocol initialization.
	addr := net.JoinHostPort(cfg.ServerHost, fmt.Sprintf("%d", cfg.ServerPort))
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("Dolt server unreachable at %s: %w\n\nThe Dolt server may not be running. Try:\n  dolt sql-server  # in the database directory", addr, err)
	}
	_ = conn.Close()

	db, err := openServerConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping Dolt database: %w", err)
	}

	store := &DoltStore{
		db:         db,
		readOnly:   cfg.ReadOnly,
		serverMode: true,
	}
	if !cfg.ReadOnly {
		if err := store.initSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return store, nil
}

// buildServerDSN constructs a MySQL DSN for connecting to a Dolt server.
// If database is empty, connects without selecting a database (for init operations).
func buildServerDSN(cfg *Config, database string) string {
	var userPart string
	if cfg.ServerPassword != "" {
		userPart = fmt.Sprintf("%s:%s", cfg.ServerUser, cfg.ServerPassword)
	} else {
		userPart = cfg.ServerUser
	}

	dbPart := "/" + database

	params := "parseTime=true"
	if cfg.ServerTLS {
		params += "&tls=true"
	}

	return fmt.Sprintf("%s@tcp(%s:%d)%s?%s",
		userPart, cfg.ServerHost, cfg.ServerPort, dbPart, params)
}

// openServerConnection opens a connection to a dolt sql-server via MySQL protocol
// and makes sure the configured database exists.
func openServerConnection(ctx context.Context, cfg *Config) (*sql.DB, error) {
	initDB, err := sql.Open("mysql", buildServerDSN(cfg, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to open init connection: %w", err)
	}
	defer func() { _ = initDB.Close() }()

	_, err = initDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Database)) //nolint:gosec // G201: cfg.Database validated by validateDatabaseName
	if err != nil {
		// Dolt may return error 1007 even with IF NOT EXISTS
		errLower := strings.ToLower(err.Error())
		if !strings.Contains(errLower, "database exists") && !strings.Contains(errLower, "1007") {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	db, err := sql.Open("mysql", buildServerDSN(cfg, cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open Dolt server connection: %w", err)
	}

	// Server mode supports multi-writer, configure reasonable pool size
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

var databaseNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// validateDatabaseName rejects names that could escape the backtick quoting
// used in CREATE DATABASE.
func validateDatabaseName(name string) error {
	if len(name) > 64 {
		return fmt.Errorf("database name longer than 64 characters")
	}
	if !databaseNamePattern.MatchString(name) {
		return fmt.Errorf("database name may only contain letters, digits, '_' and '-'")
	}
	return nil
}

// Close closes the database connection
func (s *DoltStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = errors.Join(err, cerr)
		}
	}
	if s.closeEmbedded != nil {
		if cerr := s.closeEmbedded(); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = errors.Join(err, cerr)
		}
		s.closeEmbedded = nil
	}
	s.db = nil
	return err
}

// Path returns the database directory path (empty in server mode).
func (s *DoltStore) Path() string {
	return s.dbPath
}

// UnderlyingDB returns the underlying *sql.DB connection.
func (s *DoltStore) UnderlyingDB() *sql.DB {
	return s.db
}

// IsServerMode reports whether the store talks to a dolt sql-server.
func (s *DoltStore) IsServerMode() bool {
	return s.serverMode
}

func (s *DoltStore) checkWritable() error {
	if s.closed.Load() {
		return fmt.Errorf("store is closed")
	}
	if s.readOnly {
		return fmt.Errorf("store is read-only")
	}
	return nil
}
