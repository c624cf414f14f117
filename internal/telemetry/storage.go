package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

const storageScopeName = "github.com/adi-analytics/ticketdesk/storage"

// InstrumentedStorage wraps storage.Storage with OTel tracing and metrics.
// Every method gets a span and is counted in td.storage.* metrics.
// Use WrapStorage to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStorage struct {
	inner       storage.Storage
	tracer      trace.Tracer
	ops         metric.Int64Counter
	dur         metric.Float64Histogram
	errs        metric.Int64Counter
	ticketGauge metric.Int64Gauge
}

var _ storage.Storage = (*InstrumentedStorage)(nil)

// WrapStorage returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is.
func WrapStorage(s storage.Storage) storage.Storage {
	if !Enabled() {
		return s
	}
	return newInstrumented(s, Meter(storageScopeName), Tracer(storageScopeName))
}

func newInstrumented(s storage.Storage, m metric.Meter, tr trace.Tracer) *InstrumentedStorage {
	ops, _ := m.Int64Counter("td.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("td.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("td.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	ticketGauge, _ := m.Int64Gauge("td.ticket.count",
		metric.WithDescription("Current number of tickets by project status (snapshot from GetStatistics)"),
	)
	return &InstrumentedStorage{
		inner:       s,
		tracer:      tr,
		ops:         ops,
		dur:         dur,
		errs:        errs,
		ticketGauge: ticketGauge,
	}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStorage) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStorage) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// ── Ticket CRUD ─────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) CreateTicket(ctx context.Context, ticket *types.Ticket, actor string) error {
	attrs := []attribute.KeyValue{
		attribute.String("td.actor", actor),
		attribute.String("td.ticket.request_type", string(ticket.RequestType)),
		attribute.Bool("td.ticket.has_attachment", ticket.Upload != ""),
	}
	ctx, span, t := s.op(ctx, "CreateTicket", attrs...)
	err := s.inner.CreateTicket(ctx, ticket, actor)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) GetTicket(ctx context.Context, id int64) (*types.Ticket, error) {
	attrs := []attribute.KeyValue{attribute.Int64("td.ticket.id", id)}
	ctx, span, t := s.op(ctx, "GetTicket", attrs...)
	v, err := s.inner.GetTicket(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.Ticket, error) {
	attrs := []attribute.KeyValue{attribute.Bool("td.filter.empty", filter.IsEmpty())}
	ctx, span, t := s.op(ctx, "ListTickets", attrs...)
	v, err := s.inner.ListTickets(ctx, filter)
	span.SetAttributes(attribute.Int("td.ticket.count", len(v)))
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) GetAttachment(ctx context.Context, id int64) (string, error) {
	attrs := []attribute.KeyValue{attribute.Int64("td.ticket.id", id)}
	ctx, span, t := s.op(ctx, "GetAttachment", attrs...)
	v, err := s.inner.GetAttachment(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) UpdateCell(ctx context.Context, id int64, column types.Column, value *string, actor string) error {
	attrs := []attribute.KeyValue{
		attribute.Int64("td.ticket.id", id),
		attribute.String("td.column", string(column)),
		attribute.String("td.actor", actor),
	}
	ctx, span, t := s.op(ctx, "UpdateCell", attrs...)
	err := s.inner.UpdateCell(ctx, id, column, value, actor)
	s.done(ctx, span, t, err, attrs...)
	return err
}

// ── Events ───────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) GetEvents(ctx context.Context, ticketID int64, limit int) ([]*types.Event, error) {
	attrs := []attribute.KeyValue{attribute.Int64("td.ticket.id", ticketID)}
	ctx, span, t := s.op(ctx, "GetEvents", attrs...)
	v, err := s.inner.GetEvents(ctx, ticketID, limit)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Statistics ───────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	ctx, span, t := s.op(ctx, "GetStatistics")
	v, err := s.inner.GetStatistics(ctx)
	s.done(ctx, span, t, err)
	if err == nil && v != nil {
		// Record current ticket counts as gauge snapshots, broken down by status.
		for _, status := range types.ProjectStatuses {
			s.ticketGauge.Record(ctx, int64(v.ByStatus[status]),
				metric.WithAttributes(attribute.String("status", string(status))))
		}
	}
	return v, err
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
