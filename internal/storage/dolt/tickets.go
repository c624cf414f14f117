package dolt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/types"
)

const dateLayout = "2006-01-02"

// listColumns is every ticket column except upload.
const listColumns = `id, date_created, function_name, requestor_email, request_type,
	request_title, request_name, data_manager, region, business_segment, download,
	assigned, assigned_name, project_status, date_completed, etc, comments`

// CreateTicket inserts a new ticket and assigns its ID and creation time.
func (s *DoltStore) CreateTicket(ctx context.Context, ticket *types.Ticket, actor string) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	ticket.SetDefaults()
	if err := ticket.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if ticket.DateCreated.IsZero() {
		ticket.DateCreated = time.Now().UTC().Truncate(time.Second)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO tickets (
			date_created, function_name, requestor_email, request_type, request_title,
			request_name, data_manager, upload, region, business_segment, download,
			assigned, assigned_name, project_status, date_completed, etc, comments
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ticket.DateCreated, ticket.FunctionName, ticket.RequestorEmail, string(ticket.RequestType),
		ticket.RequestTitle, ticket.RequestName, ticket.DataManager, nullIfEmpty(ticket.Upload),
		string(ticket.Region), string(ticket.BusinessSegment), nullString(ticket.Download),
		ticket.Assigned, nullString(ticket.AssignedName), string(ticket.ProjectStatus),
		nullString(ticket.DateCompleted), nullString(ticket.ETC), nullString(ticket.Comments),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read ticket id: %w", err)
	}
	if err := recordEvent(ctx, tx, id, types.EventCreated, "", actor, nil, types.StringPtr(ticket.RequestTitle)); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ticket: %w", err)
	}
	ticket.ID = id
	return nil
}

// GetTicket retrieves a ticket, including its upload, by ID.
func (s *DoltStore) GetTicket(ctx context.Context, id int64) (*types.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ticket *types.Ticket
	var upload sql.NullString
	err := s.queryRowContext(ctx, func(row *sql.Row) error {
		var scanErr error
		ticket, scanErr = scanTicket(row, &upload)
		return scanErr
	}, "SELECT "+listColumns+", upload FROM tickets WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %d: %w", id, err)
	}
	ticket.Upload = upload.String
	return ticket, nil
}

// ListTickets returns tickets matching the filter ordered by ID, without uploads.
func (s *DoltStore) ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := filter.Normalized()
	var where []string
	var args []any
	add := func(col types.Column, v string) {
		if v != "" {
			where = append(where, fmt.Sprintf("`%s` = ?", col))
			args = append(args, v)
		}
	}
	add(types.ColRegion, f.Region)
	add(types.ColBusinessSegment, f.BusinessSegment)
	add(types.ColFunctionName, f.FunctionName)
	add(types.ColRequestType, f.RequestType)
	add(types.ColProjectStatus, f.ProjectStatus)

	query := "SELECT " + listColumns + " FROM tickets"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.queryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*types.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// GetAttachment returns the base64 upload of a ticket, or "" when it has none.
func (s *DoltStore) GetAttachment(ctx context.Context, id int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var upload sql.NullString
	err := s.queryRowContext(ctx, func(row *sql.Row) error {
		return row.Scan(&upload)
	}, "SELECT upload FROM tickets WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("ticket %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get attachment for ticket %d: %w", id, err)
	}
	return upload.String, nil
}

// UpdateCell overwrites one column of one ticket and records the change.
func (s *DoltStore) UpdateCell(ctx context.Context, id int64, column types.Column, value *string, actor string) error {
	if err := storage.CheckUpdatable(column); err != nil {
		return err
	}
	if err := s.checkWritable(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var old sql.NullString
		// column is whitelisted by CheckUpdatable above
		err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT CAST(`%s` AS CHAR) FROM tickets WHERE id = ?", column), id).Scan(&old) //nolint:gosec
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("ticket %d: %w", id, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", column, err)
		}

		arg := cellArg(column, value)
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE tickets SET `%s` = ? WHERE id = ?", column), arg, id); err != nil { //nolint:gosec
			return fmt.Errorf("failed to update %s: %w", column, err)
		}

		var oldPtr *string
		if old.Valid {
			oldPtr = &old.String
		}
		if err := recordEvent(ctx, tx, id, types.EventCellUpdated, column, actor, oldPtr, value); err != nil {
			return fmt.Errorf("failed to record event: %w", err)
		}
		return tx.Commit()
	})
}

// GetEvents returns the most recent events for a ticket, newest first.
func (s *DoltStore) GetEvents(ctx context.Context, ticketID int64, limit int) ([]*types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, ticket_id, event_type, column_name, actor, old_value, new_value, created_at
		FROM ticket_events WHERE ticket_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{ticketID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.queryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*types.Event
	for rows.Next() {
		var e types.Event
		var eventType, column string
		var oldValue, newValue sql.NullString
		if err := rows.Scan(&e.ID, &e.TicketID, &eventType, &column, &e.Actor, &oldValue, &newValue, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.EventType = types.EventType(eventType)
		e.Column = types.Column(column)
		if oldValue.Valid {
			e.OldValue = &oldValue.String
		}
		if newValue.Valid {
			e.NewValue = &newValue.String
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// GetStatistics counts tickets by status.
func (s *DoltStore) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &types.Statistics{ByStatus: make(map[types.ProjectStatus]int)}
	rows, err := s.queryContext(ctx, `
		SELECT project_status, COUNT(*), SUM(CASE WHEN download IS NOT NULL THEN 1 ELSE 0 END)
		FROM tickets GROUP BY project_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count, withFiles int
		if err := rows.Scan(&status, &count, &withFiles); err != nil {
			return nil, fmt.Errorf("failed to scan statistics: %w", err)
		}
		stats.ByStatus[types.ProjectStatus(status)] = count
		stats.TotalTickets += count
		stats.WithAttachments += withFiles
	}
	return stats, rows.Err()
}

func recordEvent(ctx context.Context, tx *sql.Tx, ticketID int64, eventType types.EventType, column types.Column, actor string, oldValue, newValue *string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ticket_events (ticket_id, event_type, column_name, actor, old_value, new_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ticketID, string(eventType), string(column), actor, nullString(oldValue), nullString(newValue), time.Now().UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTicket scans listColumns followed by any extra destinations.
func scanTicket(row rowScanner, extra ...any) (*types.Ticket, error) {
	var t types.Ticket
	var requestType, region, segment, status string
	var download, assignedName, comments sql.NullString
	var dateCompleted, etc sql.NullTime

	dest := []any{
		&t.ID, &t.DateCreated, &t.FunctionName, &t.RequestorEmail, &requestType,
		&t.RequestTitle, &t.RequestName, &t.DataManager, &region, &segment, &download,
		&t.Assigned, &assignedName, &status, &dateCompleted, &etc, &comments,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	t.RequestType = types.RequestType(requestType)
	t.Region = types.Region(region)
	t.BusinessSegment = types.BusinessSegment(segment)
	t.ProjectStatus = types.ProjectStatus(status)
	t.Download = fromNullString(download)
	t.AssignedName = fromNullString(assignedName)
	t.Comments = fromNullString(comments)
	t.DateCompleted = fromNullTime(dateCompleted)
	t.ETC = fromNullTime(etc)
	t.DateCreated = t.DateCreated.UTC()
	return &t, nil
}

// cellArg converts a cell value to a bound parameter. NOT NULL columns
// receive "" for a nil value.
func cellArg(column types.Column, value *string) any {
	if value == nil {
		if column.IsNullable() {
			return nil
		}
		return ""
	}
	if column.IsDate() && strings.TrimSpace(*value) == "" {
		return nil
	}
	return *value
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func fromNullTime(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.Format(dateLayout)
	return &v
}
