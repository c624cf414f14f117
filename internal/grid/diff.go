package grid

import (
	"fmt"
	"time"

	"github.com/adi-analytics/ticketdesk/internal/timeparsing"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

// CellUpdate is one column write for one ticket. A nil Value writes NULL.
type CellUpdate struct {
	TicketID int64        `json:"id"`
	Column   types.Column `json:"column"`
	Value    *string      `json:"value"`
	Derived  bool         `json:"derived,omitempty"`
}

func (u CellUpdate) String() string {
	v := "NULL"
	if u.Value != nil {
		v = fmt.Sprintf("%q", *u.Value)
	}
	return fmt.Sprintf("ID=%d %s=%s", u.TicketID, u.Column.Header(), v)
}

// Plan diffs edited against baseline and returns the cell updates to run,
// in ticket ID order.
//
// Both sides must hold the same tickets; otherwise ErrShapeMismatch is
// returned and nothing should be written. For each row every editable cell
// that changed is emitted, followed by the derived assigned and
// date_completed cells, which are always emitted.
func Plan(baseline, edited []*types.Ticket, today time.Time) ([]CellUpdate, error) {
	if err := CheckShape(baseline, edited); err != nil {
		return nil, err
	}
	oldRows := sortedByID(baseline)
	newRows := sortedByID(edited)

	todayStr := today.Format(timeparsing.DateLayout)
	var updates []CellUpdate
	for i := range newRows {
		o, n := oldRows[i], newRows[i]

		for _, col := range types.EditableColumns {
			nv := n.Cell(col)
			if types.CellEqual(o.Cell(col), nv) {
				continue
			}
			updates = append(updates, CellUpdate{TicketID: n.ID, Column: col, Value: nv})
		}

		updates = append(updates,
			CellUpdate{
				TicketID: n.ID,
				Column:   types.ColAssigned,
				Value:    types.StringPtr(types.AssignedFlag(n.AssignedName)),
				Derived:  true,
			},
			CellUpdate{
				TicketID: n.ID,
				Column:   types.ColDateCompleted,
				Value:    completionDate(n, todayStr),
				Derived:  true,
			},
		)
	}
	return updates, nil
}

// CheckShape returns ErrShapeMismatch unless baseline and edited hold the
// same tickets.
func CheckShape(baseline, edited []*types.Ticket) error {
	if len(baseline) != len(edited) {
		return fmt.Errorf("%w: %d baseline rows, %d edited rows", ErrShapeMismatch, len(baseline), len(edited))
	}
	oldRows := sortedByID(baseline)
	newRows := sortedByID(edited)
	for i := range newRows {
		if oldRows[i].ID != newRows[i].ID {
			return fmt.Errorf("%w: row %d has ID %d in baseline, %d in edits", ErrShapeMismatch, i, oldRows[i].ID, newRows[i].ID)
		}
	}
	return nil
}

// completionDate is today for a Completed ticket and NULL otherwise. The
// date is rewritten on every apply, so a Completed row carries the date of
// the last apply that touched it.
func completionDate(n *types.Ticket, today string) *string {
	if n.ProjectStatus != types.StatusCompleted {
		return nil
	}
	return types.StringPtr(today)
}
