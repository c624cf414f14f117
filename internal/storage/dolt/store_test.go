package dolt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"driver bad connection", errors.New("driver: bad connection"), true},
		{"case insensitive", errors.New("Driver: Bad Connection"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"server restart", errors.New("dial tcp 127.0.0.1:3307: connect: connection refused"), true},
		{"gone away", errors.New("Error 2006: MySQL server has gone away"), true},
		{"syntax error", errors.New("Error 1064: You have an error in your SQL syntax"), false},
		{"missing table", errors.New("Error 1146: Table 'ticketdesk.foo' doesn't exist"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryableError(tt.err))
		})
	}
}

func TestBuildServerDSN(t *testing.T) {
	cfg := &Config{ServerHost: "db.internal", ServerPort: 3307, ServerUser: "td"}
	assert.Equal(t, "td@tcp(db.internal:3307)/ticketdesk?parseTime=true", buildServerDSN(cfg, "ticketdesk"))

	cfg.ServerPassword = "s3cret"
	cfg.ServerTLS = true
	assert.Equal(t, "td:s3cret@tcp(db.internal:3307)/?parseTime=true&tls=true", buildServerDSN(cfg, ""))
}

func TestValidateDatabaseName(t *testing.T) {
	for _, ok := range []string{"ticketdesk", "td_prod", "td-2"} {
		assert.NoError(t, validateDatabaseName(ok), ok)
	}
	for _, bad := range []string{"", "td`; DROP", "a b", "-lead"} {
		assert.Error(t, validateDatabaseName(bad), bad)
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (x TEXT DEFAULT ';');\n-- note\n;SELECT 1")
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE a (x TEXT DEFAULT ';')", stmts[0])
	assert.True(t, isOnlyComments(stmts[1]))
	assert.Equal(t, "SELECT 1", stmts[2])

	// The embedded schema must split into its three tables.
	var tables int
	for _, s := range splitStatements(schema) {
		if !isOnlyComments(s) {
			tables++
		}
	}
	assert.Equal(t, 3, tables)
}

func TestCellArg(t *testing.T) {
	assert.Nil(t, cellArg(types.ColComments, nil))
	assert.Equal(t, "", cellArg(types.ColFunctionName, nil))
	assert.Nil(t, cellArg(types.ColETC, types.StringPtr("  ")))
	assert.Equal(t, "2026-01-31", cellArg(types.ColETC, types.StringPtr("2026-01-31")))
	assert.Equal(t, "Pat", cellArg(types.ColAssignedName, types.StringPtr("Pat")))
}
