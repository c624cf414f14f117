package grid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adi-analytics/ticketdesk/internal/timeparsing"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

// CellWriter is the storage capability Apply needs.
type CellWriter interface {
	UpdateCell(ctx context.Context, id int64, column types.Column, value *string, actor string) error
}

// Outcome pairs a cell update with the message explaining why it was not applied.
type Outcome struct {
	Update  CellUpdate `json:"update"`
	Message string     `json:"message"`
}

// ApplyResult reports what happened to every planned cell.
type ApplyResult struct {
	Applied []CellUpdate `json:"applied"`
	Skipped []Outcome    `json:"skipped,omitempty"`
	Failed  []Outcome    `json:"failed,omitempty"`
}

// OK reports whether no cell failed. Skipped cells are warnings.
func (r *ApplyResult) OK() bool {
	return len(r.Failed) == 0
}

// Warnings returns the skip messages.
func (r *ApplyResult) Warnings() []string {
	out := make([]string, 0, len(r.Skipped))
	for _, o := range r.Skipped {
		out = append(out, o.Message)
	}
	return out
}

// Errors returns the failure messages.
func (r *ApplyResult) Errors() []string {
	out := make([]string, 0, len(r.Failed))
	for _, o := range r.Failed {
		out = append(out, o.Message)
	}
	return out
}

// Apply runs updates in order, one write per cell. Date cells are coerced
// first; an unparsable date skips that cell with a warning. A failing write
// is recorded and the remaining cells still run. Only context cancellation
// stops Apply early.
func Apply(ctx context.Context, w CellWriter, updates []CellUpdate, actor string, now time.Time) (*ApplyResult, error) {
	res := &ApplyResult{}
	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		value, warn := coerce(u, now)
		if warn != "" {
			res.Skipped = append(res.Skipped, Outcome{Update: u, Message: warn})
			continue
		}
		u.Value = value

		if err := w.UpdateCell(ctx, u.TicketID, u.Column, u.Value, actor); err != nil {
			res.Failed = append(res.Failed, Outcome{
				Update:  u,
				Message: fmt.Sprintf("Error updating row ID=%d, col=%s: %v", u.TicketID, u.Column.Header(), err),
			})
			continue
		}
		res.Applied = append(res.Applied, u)
	}
	return res, nil
}

// coerce normalizes the value written for u. Blank dates become NULL. A
// non-empty warning means the cell must be skipped.
func coerce(u CellUpdate, now time.Time) (*string, string) {
	if !u.Column.IsDate() {
		return u.Value, ""
	}
	if u.Value == nil || strings.TrimSpace(*u.Value) == "" {
		return nil, ""
	}
	d, err := timeparsing.FormatDate(*u.Value, now)
	if err != nil {
		return nil, fmt.Sprintf("Invalid date '%s' for %s. Skipping update.", *u.Value, u.Column.Header())
	}
	return &d, ""
}
