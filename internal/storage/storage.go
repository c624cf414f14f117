// Package storage provides shared types for ticket storage.
//
// Concrete implementations live in the dolt and memory sub-packages.
// This package holds the interface and sentinel errors referenced by both
// the implementations and their consumers (cmd/td, internal/ui/api, etc.).
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

// ErrNotFound is returned when a requested ticket does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrInvalidColumn is returned when a cell write targets a column that is
// not updatable.
var ErrInvalidColumn = errors.New("invalid column")

// Storage is the interface satisfied by *dolt.DoltStore and *memory.MemoryStore.
// Consumers depend on this interface rather than on a concrete type so that
// alternative implementations (test doubles, the telemetry wrapper) can be
// substituted.
type Storage interface {
	// Ticket CRUD
	CreateTicket(ctx context.Context, ticket *types.Ticket, actor string) error
	GetTicket(ctx context.Context, id int64) (*types.Ticket, error)
	ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.Ticket, error)
	GetAttachment(ctx context.Context, id int64) (string, error)

	// UpdateCell overwrites a single column. A nil value writes NULL.
	UpdateCell(ctx context.Context, id int64, column types.Column, value *string, actor string) error

	// Events
	GetEvents(ctx context.Context, ticketID int64, limit int) ([]*types.Event, error)

	// Statistics
	GetStatistics(ctx context.Context) (*types.Statistics, error)

	// Lifecycle
	Close() error
}

// CheckUpdatable returns ErrInvalidColumn (wrapped) when column may not be
// written through UpdateCell.
func CheckUpdatable(column types.Column) error {
	if !column.IsUpdatable() {
		return fmt.Errorf("%w: %s", ErrInvalidColumn, column)
	}
	return nil
}
