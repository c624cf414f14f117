package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adi-analytics/ticketdesk/internal/grid"
	"github.com/adi-analytics/ticketdesk/internal/types"
	"github.com/adi-analytics/ticketdesk/internal/ui/templates"
)

// maxApplyBody bounds the JSON posted by the grid.
const maxApplyBody = 16 << 20

// NewGridPageHandler renders the editable grid for the filter in the query.
func NewGridPageHandler(d Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.Tickets == nil {
			WriteServiceUnavailable(w, "grid unavailable", "")
			return
		}
		filter := filterFromQuery(r.URL.Query())
		rows, err := d.Tickets.ListTickets(r.Context(), filter)
		if err != nil {
			http.Error(w, fmt.Sprintf("load tickets: %v", err), http.StatusInternalServerError)
			return
		}
		page, err := templates.RenderGrid(templates.GridPageData{
			Filter:  filter,
			Options: types.DefaultFilterOptions(),
			Rows:    rows,
		})
		if err != nil {
			http.Error(w, fmt.Sprintf("render grid: %v", err), http.StatusInternalServerError)
			return
		}
		writeHTML(w, http.StatusOK, page)
	})
}

type applyRequest struct {
	Filter   types.TicketFilter `json:"filter"`
	Baseline []*types.Ticket    `json:"baseline"`
	Edited   []*types.Ticket    `json:"edited"`
}

type applyResponse struct {
	Message  string          `json:"message,omitempty"`
	Applied  int             `json:"applied"`
	Warnings []string        `json:"warnings"`
	Errors   []string        `json:"errors"`
	Rows     []*types.Ticket `json:"rows"`
}

// NewApplyHandler diffs the posted edits against the posted baseline and
// writes the changed cells. A row-set mismatch is a 409 and writes nothing.
func NewApplyHandler(d Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.Grid == nil {
			WriteServiceUnavailable(w, "grid updates unavailable", "")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxApplyBody)
		defer r.Body.Close() // nolint:errcheck

		var req applyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteJSONError(w, http.StatusBadRequest, "decode payload", err.Error())
			return
		}

		res, err := d.Grid.ApplyEdits(r.Context(), req.Baseline, req.Edited, req.Filter.Normalized(), d.actor(r))
		if grid.IsShapeMismatch(err) {
			WriteJSONError(w, http.StatusConflict, grid.ShapeMismatchMessage, err.Error())
			return
		}
		if err != nil {
			d.logger().Error("grid apply failed", "error", err)
			WriteJSONError(w, http.StatusInternalServerError, "apply changes failed", err.Error())
			return
		}

		resp := applyResponse{
			Applied:  len(res.Applied),
			Warnings: res.Warnings(),
			Errors:   res.Errors(),
			Rows:     res.Rows,
		}
		if resp.Warnings == nil {
			resp.Warnings = []string{}
		}
		if resp.Errors == nil {
			resp.Errors = []string{}
		}
		if res.OK() {
			resp.Message = grid.AppliedMessage
		}
		writeJSON(w, http.StatusOK, resp)
	})
}
