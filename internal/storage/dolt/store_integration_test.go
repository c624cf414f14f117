//go:build integration

package dolt

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	doltcontainer "github.com/testcontainers/testcontainers-go/modules/dolt"

	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

const doltImage = "dolthub/dolt-sql-server:1.43.0"

// setupServerStore starts a dolt sql-server container and opens a store on it.
func setupServerStore(t *testing.T) *DoltStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := doltcontainer.Run(ctx, doltImage,
		doltcontainer.WithDatabase("ticketdesk"),
		doltcontainer.WithUsername("td"),
		doltcontainer.WithPassword("td-test"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(parsed.Addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	store, err := New(ctx, &Config{
		ServerMode:     true,
		ServerHost:     host,
		ServerPort:     port,
		ServerUser:     "td",
		ServerPassword: "td-test",
		Database:       "ticketdesk",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTicket(fn string) *types.Ticket {
	return &types.Ticket{
		FunctionName:    fn,
		RequestorEmail:  "jane.doe@example.com",
		RequestType:     types.RequestReport,
		RequestTitle:    "Open orders",
		RequestName:     "Weekly open orders by branch",
		Region:          types.RegionNA,
		BusinessSegment: types.SegmentBusinessSupport,
	}
}

func TestServerStoreLifecycle(t *testing.T) {
	store := setupServerStore(t)
	ctx := context.Background()

	withFile := newTicket("Credit")
	withFile.Upload = "UEsDBA=="
	withFile.Download = types.StringPtr(types.DownloadGlyph)
	require.NoError(t, store.CreateTicket(ctx, withFile, "tester"))
	require.NotZero(t, withFile.ID)

	plain := newTicket("Snap Sales")
	plain.Region = types.RegionNA
	plain.BusinessSegment = types.SegmentSnapOne
	require.NoError(t, store.CreateTicket(ctx, plain, "tester"))
	assert.Greater(t, plain.ID, withFile.ID)

	got, err := store.GetTicket(ctx, withFile.ID)
	require.NoError(t, err)
	assert.Equal(t, "UEsDBA==", got.Upload)
	assert.Equal(t, types.StatusNotAssigned, got.ProjectStatus)
	assert.Equal(t, "N", got.Assigned)

	all, err := store.ListTickets(ctx, types.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Empty(t, all[0].Upload, "list must not carry uploads")

	snap, err := store.ListTickets(ctx, types.TicketFilter{BusinessSegment: "Snap One", Region: "All"})
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, plain.ID, snap[0].ID)

	require.NoError(t, store.UpdateCell(ctx, plain.ID, types.ColETC, types.StringPtr("2026-03-01"), "pm"))
	require.NoError(t, store.UpdateCell(ctx, plain.ID, types.ColAssignedName, types.StringPtr("Pat"), "pm"))
	require.NoError(t, store.UpdateCell(ctx, plain.ID, types.ColComments, nil, "pm"))

	got, err = store.GetTicket(ctx, plain.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ETC)
	assert.Equal(t, "2026-03-01", *got.ETC)
	assert.Nil(t, got.Comments)

	events, err := store.GetEvents(ctx, plain.ID, 0)
	require.NoError(t, err)
	assert.Len(t, events, 4) // created + three cell writes

	err = store.UpdateCell(ctx, plain.ID, types.ColRequestTitle, types.StringPtr("x"), "pm")
	assert.ErrorIs(t, err, storage.ErrInvalidColumn)

	_, err = store.GetTicket(ctx, 999999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	att, err := store.GetAttachment(ctx, plain.ID)
	require.NoError(t, err)
	assert.Empty(t, att)

	stats, err := store.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTickets)
	assert.Equal(t, 1, stats.WithAttachments)
}
