// Package api implements the HTTP handlers behind the intake form and the
// project-manager grid.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adi-analytics/ticketdesk/internal/grid"
	"github.com/adi-analytics/ticketdesk/internal/intake"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

// ActorHeader lets a fronting proxy name the user behind a request.
const ActorHeader = "X-Actor"

// TicketReader is the read side of storage the handlers need.
type TicketReader interface {
	GetTicket(ctx context.Context, id int64) (*types.Ticket, error)
	ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.Ticket, error)
	GetAttachment(ctx context.Context, id int64) (string, error)
}

// Submitter creates tickets from intake submissions.
type Submitter interface {
	Submit(ctx context.Context, sub intake.Submission, actor string) (*types.Ticket, error)
	Options() intake.Options
}

// GridApplier writes grid edits back.
type GridApplier interface {
	ApplyEdits(ctx context.Context, baseline, edited []*types.Ticket, f types.TicketFilter, actor string) (*grid.EditResult, error)
}

// Deps are the services the routes are built on.
type Deps struct {
	Tickets TicketReader
	Intake  Submitter
	Grid    GridApplier
	// Actor is recorded on events when the request names none.
	Actor  string
	Logger *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get(ActorHeader)); a != "" && len(a) <= 128 {
		return a
	}
	if d.Actor != "" {
		return d.Actor
	}
	return "web"
}

// Register mounts every page and API route on mux.
func Register(mux *http.ServeMux, d Deps) {
	mux.Handle("GET /{$}", NewIntakePageHandler(d))
	mux.Handle("POST /submit", NewSubmitFormHandler(d))
	mux.Handle("GET /grid", NewGridPageHandler(d))

	mux.Handle("GET /api/options", NewOptionsHandler(d))
	mux.Handle("GET /api/tickets", NewListHandler(d))
	mux.Handle("POST /api/tickets", NewCreateHandler(d))
	mux.Handle("GET /api/tickets/{id}", NewDetailHandler(d))
	mux.Handle("GET /api/tickets/{id}/attachment", NewAttachmentHandler(d))
	mux.Handle("POST /api/grid/apply", NewApplyHandler(d))
}
