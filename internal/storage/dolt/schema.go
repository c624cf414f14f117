package dolt

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// currentSchemaVersion is bumped whenever schema or indexMigrations change.
const currentSchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS tickets (
    id BIGINT NOT NULL AUTO_INCREMENT,
    date_created DATETIME NOT NULL,
    function_name VARCHAR(255) NOT NULL,
    requestor_email VARCHAR(320) NOT NULL,
    request_type VARCHAR(64) NOT NULL,
    request_title VARCHAR(500) NOT NULL,
    request_name TEXT NOT NULL,
    data_manager VARCHAR(500) NOT NULL DEFAULT '',
    upload LONGTEXT,
    region VARCHAR(16) NOT NULL DEFAULT 'NA',
    business_segment VARCHAR(64) NOT NULL DEFAULT 'Business Support Group',
    download VARCHAR(8),
    assigned CHAR(1) NOT NULL DEFAULT 'N',
    assigned_name VARCHAR(255),
    project_status VARCHAR(32) NOT NULL DEFAULT 'Not Assigned',
    date_completed DATE,
    etc DATE,
    comments TEXT,
    PRIMARY KEY (id),
    INDEX idx_tickets_status (project_status),
    INDEX idx_tickets_region_segment (region, business_segment)
);

CREATE TABLE IF NOT EXISTS ticket_events (
    id BIGINT NOT NULL AUTO_INCREMENT,
    ticket_id BIGINT NOT NULL,
    event_type VARCHAR(32) NOT NULL,
    column_name VARCHAR(64) NOT NULL DEFAULT '',
    actor VARCHAR(255) NOT NULL,
    old_value TEXT,
    new_value TEXT,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (id),
    INDEX idx_ticket_events_ticket (ticket_id),
    CONSTRAINT fk_ticket_events_ticket FOREIGN KEY (ticket_id) REFERENCES tickets(id)
);

CREATE TABLE IF NOT EXISTS config (
    ` + "`key`" + ` VARCHAR(255) PRIMARY KEY,
    ` + "`value`" + ` TEXT NOT NULL
);
`

// Indexes added after the first release. CREATE TABLE IF NOT EXISTS does not
// add them to existing tables.
var indexMigrations = []string{
	"CREATE INDEX idx_tickets_function ON tickets(function_name)",
}

// initSchemaOnDB creates all tables if they don't exist.
func initSchemaOnDB(ctx context.Context, db *sql.DB) error {
	// Fast path: schema already at current version.
	var version int
	err := db.QueryRowContext(ctx, "SELECT `value` FROM config WHERE `key` = 'schema_version'").Scan(&version)
	if err == nil && version >= currentSchemaVersion {
		return nil
	}

	// MySQL/Dolt doesn't support multiple statements in one Exec
	for _, stmt := range splitStatements(schema) {
		if isOnlyComments(stmt) {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w\nStatement: %s", err, truncateForError(stmt))
		}
	}

	for _, migration := range indexMigrations {
		_, err := db.ExecContext(ctx, migration)
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "duplicate") &&
			!strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return fmt.Errorf("failed to apply index migration: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx,
		"INSERT INTO config (`key`, `value`) VALUES ('schema_version', ?) "+
			"ON DUPLICATE KEY UPDATE `value` = ?",
		currentSchemaVersion, currentSchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

func (s *DoltStore) initSchema(ctx context.Context) error {
	return initSchemaOnDB(ctx, s.db)
}

// splitStatements splits a SQL script into individual statements
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(script); i++ {
		c := script[i]

		if inString {
			current.WriteByte(c)
			if c == stringChar && (i == 0 || script[i-1] != '\\') {
				inString = false
			}
			continue
		}

		if c == '\'' || c == '"' || c == '`' {
			inString = true
			stringChar = c
			current.WriteByte(c)
			continue
		}

		if c == ';' {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(c)
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}

// truncateForError truncates a string for use in error messages
func truncateForError(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}

// isOnlyComments returns true if the statement contains only SQL comments
func isOnlyComments(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		return false
	}
	return true
}
