// Package grid implements the project-manager grid: filtering, folding
// filtered edits back into the full table, diffing edits against a baseline
// into per-cell updates and applying those updates one cell at a time.
package grid

import (
	"errors"
	"sort"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

// ErrShapeMismatch is returned by Plan when the edited rows are not the
// baseline rows.
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeMismatchMessage is shown to the user when ErrShapeMismatch occurs.
const ShapeMismatchMessage = "Shape mismatch. Possibly filters changed row counts, so no updates applied."

// AppliedMessage is shown after a successful apply.
const AppliedMessage = "All changes applied. Data reloaded from the database."

// ApplyFilters returns the rows passing every active selector of f.
// The input slice is not modified.
func ApplyFilters(rows []*types.Ticket, f types.TicketFilter) []*types.Ticket {
	out := make([]*types.Ticket, 0, len(rows))
	for _, r := range rows {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// MergeFilteredEdits folds edits made on a filtered view back into the full
// table. For every row of filteredNew, each updatable cell that differs from
// the same row in filteredOld is copied into the matching row of full.
// Rows are matched by ID; full is not modified, a merged copy is returned.
func MergeFilteredEdits(full, filteredOld, filteredNew []*types.Ticket) []*types.Ticket {
	merged := make([]*types.Ticket, len(full))
	byID := make(map[int64]*types.Ticket, len(full))
	for i, t := range full {
		merged[i] = t.Clone()
		byID[t.ID] = merged[i]
	}
	oldByID := indexByID(filteredOld)

	for _, n := range filteredNew {
		o, ok := oldByID[n.ID]
		if !ok {
			continue
		}
		target, ok := byID[n.ID]
		if !ok {
			continue
		}
		for _, col := range types.EditableColumns {
			nv := n.Cell(col)
			if types.CellEqual(o.Cell(col), nv) {
				continue
			}
			_ = target.SetCell(col, nv) // editable columns are always settable
		}
	}
	return merged
}

func indexByID(rows []*types.Ticket) map[int64]*types.Ticket {
	m := make(map[int64]*types.Ticket, len(rows))
	for _, r := range rows {
		m[r.ID] = r
	}
	return m
}

func sortedByID(rows []*types.Ticket) []*types.Ticket {
	out := append([]*types.Ticket(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
