// Package memory implements the storage interface with in-process maps.
// It backs unit tests and the `--backend memory` demo mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

// MemoryStorage implements storage.Storage. Safe for concurrent use.
type MemoryStorage struct {
	mu      sync.RWMutex
	tickets map[int64]*types.Ticket
	events  map[int64][]*types.Event
	nextID  int64
	eventID int64
	closed  bool

	// now is swapped in tests for deterministic timestamps.
	now func() time.Time
}

var _ storage.Storage = (*MemoryStorage)(nil)

// New creates an empty in-memory store.
func New() *MemoryStorage {
	return &MemoryStorage{
		tickets: make(map[int64]*types.Ticket),
		events:  make(map[int64][]*types.Event),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateTicket stores a copy of ticket and assigns its ID and creation time.
func (m *MemoryStorage) CreateTicket(ctx context.Context, ticket *types.Ticket, actor string) error {
	ticket.SetDefaults()
	if err := ticket.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("store is closed")
	}

	m.nextID++
	ticket.ID = m.nextID
	if ticket.DateCreated.IsZero() {
		ticket.DateCreated = m.now().Truncate(time.Second)
	}
	m.tickets[ticket.ID] = ticket.Clone()
	m.recordEvent(ticket.ID, types.EventCreated, "", actor, nil, types.StringPtr(ticket.RequestTitle))
	return nil
}

// GetTicket returns a copy of the ticket, including its upload.
func (m *MemoryStorage) GetTicket(ctx context.Context, id int64) (*types.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %d: %w", id, storage.ErrNotFound)
	}
	return t.Clone(), nil
}

// ListTickets returns copies of matching tickets ordered by ID, without uploads.
func (m *MemoryStorage) ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Ticket
	for _, t := range m.tickets {
		if !filter.Matches(t) {
			continue
		}
		c := t.Clone()
		c.Upload = ""
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetAttachment returns the stored base64 upload, or "".
func (m *MemoryStorage) GetAttachment(ctx context.Context, id int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return "", fmt.Errorf("ticket %d: %w", id, storage.ErrNotFound)
	}
	return t.Upload, nil
}

// UpdateCell overwrites one column and records the change.
func (m *MemoryStorage) UpdateCell(ctx context.Context, id int64, column types.Column, value *string, actor string) error {
	if err := storage.CheckUpdatable(column); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("store is closed")
	}
	t, ok := m.tickets[id]
	if !ok {
		return fmt.Errorf("ticket %d: %w", id, storage.ErrNotFound)
	}
	if column.IsDate() && value != nil && *value == "" {
		value = nil
	}

	old := t.Cell(column)
	if err := t.SetCell(column, value); err != nil {
		return err
	}
	m.recordEvent(id, types.EventCellUpdated, column, actor, old, value)
	return nil
}

// GetEvents returns events for a ticket, newest first.
func (m *MemoryStorage) GetEvents(ctx context.Context, ticketID int64, limit int) ([]*types.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.events[ticketID]
	out := make([]*types.Event, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		e := *src[i]
		out = append(out, &e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// GetStatistics counts tickets by status.
func (m *MemoryStorage) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &types.Statistics{ByStatus: make(map[types.ProjectStatus]int)}
	for _, t := range m.tickets {
		stats.TotalTickets++
		stats.ByStatus[t.ProjectStatus]++
		if t.HasAttachment() {
			stats.WithAttachments++
		}
	}
	return stats, nil
}

// Close marks the store closed. Reads keep working.
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// caller must hold m.mu
func (m *MemoryStorage) recordEvent(id int64, eventType types.EventType, column types.Column, actor string, oldValue, newValue *string) {
	m.eventID++
	m.events[id] = append(m.events[id], &types.Event{
		ID:        m.eventID,
		TicketID:  id,
		EventType: eventType,
		Column:    column,
		Actor:     actor,
		OldValue:  copyString(oldValue),
		NewValue:  copyString(newValue),
		CreatedAt: m.now(),
	})
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
