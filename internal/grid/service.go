package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

// Service runs the grid's read and write-back cycle against a store.
type Service struct {
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a grid service.
func NewService(store storage.Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Load returns the filtered grid rows.
func (s *Service) Load(ctx context.Context, f types.TicketFilter) ([]*types.Ticket, error) {
	return s.store.ListTickets(ctx, f)
}

// EditResult is the outcome of ApplyEdits: the per-cell results plus the
// reloaded rows.
type EditResult struct {
	*ApplyResult
	// Rows is the table reloaded after writing; it is the next baseline.
	Rows []*types.Ticket `json:"rows"`
}

// ApplyEdits writes the edits made on the view selected by f.
//
// The posted baseline is narrowed to f and shape-checked against edited;
// ErrShapeMismatch is returned before anything is written. The cells the user
// changed are then folded into the current table, so cells changed by someone
// else since the baseline was loaded are left alone, and the view's rows are
// planned against their current values. The returned rows are the view
// reloaded after writing.
func (s *Service) ApplyEdits(ctx context.Context, baseline, edited []*types.Ticket, f types.TicketFilter, actor string) (*EditResult, error) {
	view := ApplyFilters(baseline, f)
	if err := CheckShape(view, edited); err != nil {
		return nil, err
	}

	full, err := s.store.ListTickets(ctx, types.TicketFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading tickets: %w", err)
	}
	merged := MergeFilteredEdits(full, view, edited)

	ids := indexByID(view)
	now := s.now()
	updates, err := Plan(selectIDs(full, ids), selectIDs(merged, ids), now)
	if err != nil {
		return nil, err
	}

	res, err := Apply(ctx, s.store, updates, actor, now)
	if err != nil {
		return nil, err
	}
	s.logger.Info("grid edits applied",
		"actor", actor,
		"rows", len(edited),
		"applied", len(res.Applied),
		"skipped", len(res.Skipped),
		"failed", len(res.Failed),
	)
	for _, msg := range res.Errors() {
		s.logger.Warn("grid cell update failed", "message", msg)
	}

	rows, err := s.store.ListTickets(ctx, types.TicketFilter{})
	if err != nil {
		return nil, fmt.Errorf("reloading grid: %w", err)
	}
	return &EditResult{ApplyResult: res, Rows: ApplyFilters(rows, f)}, nil
}

// UpdateTicket edits cells of a single ticket through the same plan/apply
// path as the grid, so the derived columns stay consistent.
func (s *Service) UpdateTicket(ctx context.Context, id int64, cells map[types.Column]*string, actor string) (*ApplyResult, error) {
	current, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	edited := current.Clone()
	for col, v := range cells {
		if !col.IsEditable() {
			return nil, fmt.Errorf("%w: %s is not editable", storage.ErrInvalidColumn, col)
		}
		if err := edited.SetCell(col, v); err != nil {
			return nil, err
		}
	}

	now := s.now()
	updates, err := Plan([]*types.Ticket{current}, []*types.Ticket{edited}, now)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, s.store, updates, actor, now)
}

func selectIDs(rows []*types.Ticket, ids map[int64]*types.Ticket) []*types.Ticket {
	out := make([]*types.Ticket, 0, len(ids))
	for _, r := range rows {
		if _, ok := ids[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// IsShapeMismatch reports whether err came from a shape check.
func IsShapeMismatch(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}
