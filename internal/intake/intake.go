package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adi-analytics/ticketdesk/internal/attachment"
	"github.com/adi-analytics/ticketdesk/internal/routing"
	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

// Service turns validated submissions into stored tickets.
type Service struct {
	store  storage.Storage
	router *routing.Router
	opts   Options
	logger *slog.Logger
}

// NewService creates an intake service. A nil router uses the built-in rules.
func NewService(store storage.Storage, router *routing.Router, opts Options, logger *slog.Logger) *Service {
	if router == nil {
		router = routing.NewRouter(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, router: router, opts: opts.withDefaults(), logger: logger}
}

// Options returns the effective upload limits.
func (s *Service) Options() Options {
	return s.opts
}

// Submit validates sub, derives the routed fields and inserts one ticket.
// Validation failures are returned as *ValidationError.
func (s *Service) Submit(ctx context.Context, sub Submission, actor string) (*types.Ticket, error) {
	if err := Validate(sub, s.opts); err != nil {
		return nil, err
	}
	ticket := BuildTicket(sub, s.router.Route(sub.Function))
	if err := s.store.CreateTicket(ctx, ticket, actor); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	s.logger.Info("ticket submitted",
		"id", ticket.ID,
		"function", ticket.FunctionName,
		"region", ticket.Region,
		"segment", ticket.BusinessSegment,
		"attachment", ticket.HasAttachment(),
	)
	return ticket, nil
}

// BuildTicket assembles a new ticket from a valid submission and its routing.
func BuildTicket(sub Submission, d routing.Decision) *types.Ticket {
	t := &types.Ticket{
		FunctionName:    sub.Function,
		RequestorEmail:  sub.Email,
		RequestType:     types.RequestType(sub.RequestType),
		RequestTitle:    strings.TrimSpace(sub.RequestTitle),
		RequestName:     sub.RequestName,
		DataManager:     d.DataManager,
		Region:          d.Region,
		BusinessSegment: d.Segment,
		ProjectStatus:   types.StatusNotAssigned,
		Assigned:        "N",
	}
	if sub.File != nil && len(sub.File.Data) > 0 {
		t.Upload = attachment.Encode(sub.File.Data)
		t.Download = types.StringPtr(types.DownloadGlyph)
	}
	return t
}
