package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/stats"
)

// DB is the subset of *pgxpool.Pool used by the gateway.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TicketGateway is the only component that talks to the ticket store. Every
// method returns a usable value alongside its error: an empty slice, nil or
// zero statistics.
type TicketGateway interface {
	ListTickets(ctx context.Context) ([]domain.Ticket, error)
	CreateTicket(ctx context.Context, input domain.NewTicketInput, author string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error
	UpdatePriority(ctx context.Context, id string, priority domain.TicketPriority) error
	Assign(ctx context.Context, id string, technician *string) error
	AddNote(ctx context.Context, ticketID, content, author string, isInternal bool) (*domain.Note, error)
	ComputeStatistics(ctx context.Context) (domain.TicketStatistics, error)
}

type ticketGateway struct {
	db      DB
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// GatewayOption customises the gateway.
type GatewayOption func(*ticketGateway)

// WithClock overrides the clock used for the resolved-today boundary.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *ticketGateway) { g.now = now }
}

// WithMetrics records failures by operation and kind.
func WithMetrics(m *observability.Metrics) GatewayOption {
	return func(g *ticketGateway) { g.metrics = m }
}

// NewTicketGateway builds the gateway. A nil db yields a gateway whose every
// call fails with a connectivity error.
func NewTicketGateway(db DB, logger *zap.Logger, opts ...GatewayOption) TicketGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &ticketGateway{db: db, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

const ticketColumns = `id, title, description, status, priority, assigned_to, created_by, created_at, updated_at,
               department, location, resolution_method, is_ai_generated, sla_deadline, attachments`

func (g *ticketGateway) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	const op = "list_tickets"
	if g.db == nil {
		return []domain.Ticket{}, g.fail(op, ErrStoreUnavailable, false)
	}

	rows, err := g.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY created_at DESC`)
	if err != nil {
		return []domain.Ticket{}, g.fail(op, errors.Wrap(err, "query tickets"), false)
	}
	ticketRows, err := scanTicketRows(rows)
	if err != nil {
		return []domain.Ticket{}, g.failKind(op, FailureMalformed, errors.Wrap(err, "scan tickets"))
	}
	if len(ticketRows) == 0 {
		g.logger.Info("ticket store returned no rows", zap.String("op", op), zap.String("kind", string(FailureEmpty)))
		g.metrics.RecordGatewayFailure(op, string(FailureEmpty))
		return []domain.Ticket{}, nil
	}

	ids := make([]string, 0, len(ticketRows))
	for _, row := range ticketRows {
		ids = append(ids, row.ID)
	}
	notesByTicket, err := g.listNotes(ctx, ids)
	if err != nil {
		return []domain.Ticket{}, err
	}

	tickets := make([]domain.Ticket, 0, len(ticketRows))
	for _, row := range ticketRows {
		ticket, normalized, err := ticketFromRow(row, notesByTicket[row.ID])
		if err != nil {
			return []domain.Ticket{}, g.failKind(op, FailureMalformed, errors.WithStack(err))
		}
		if normalized {
			g.logger.Warn("resolution method inconsistent with status; derived from status",
				zap.String("ticket_id", row.ID),
				zap.String("status", row.Status),
				zap.String("resolution_method", row.ResolutionMethod))
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func (g *ticketGateway) listNotes(ctx context.Context, ticketIDs []string) (map[string][]noteRow, error) {
	const op = "list_notes"
	const query = `
        SELECT id, ticket_id, content, author, timestamp, is_internal, is_ai_generated
        FROM ticket_notes WHERE ticket_id = ANY($1) ORDER BY seq ASC`
	rows, err := g.db.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, g.fail(op, errors.Wrap(err, "query notes"), false)
	}
	defer rows.Close()

	result := make(map[string][]noteRow, len(ticketIDs))
	for rows.Next() {
		var n noteRow
		if err := rows.Scan(&n.ID, &n.TicketID, &n.Content, &n.Author, &n.Timestamp, &n.IsInternal, &n.IsAIGenerated); err != nil {
			return nil, g.failKind(op, FailureMalformed, errors.Wrap(err, "scan note"))
		}
		result[n.TicketID] = append(result[n.TicketID], n)
	}
	if err := rows.Err(); err != nil {
		return nil, g.fail(op, errors.WithStack(err), false)
	}
	return result, nil
}

func scanTicketRows(rows pgx.Rows) ([]ticketRow, error) {
	defer rows.Close()
	var result []ticketRow
	for rows.Next() {
		var row ticketRow
		if err := rows.Scan(
			&row.ID,
			&row.Title,
			&row.Description,
			&row.Status,
			&row.Priority,
			&row.AssignedTo,
			&row.CreatedBy,
			&row.CreatedAt,
			&row.UpdatedAt,
			&row.Department,
			&row.Location,
			&row.ResolutionMethod,
			&row.IsAIGenerated,
			&row.SLADeadline,
			&row.Attachments,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (g *ticketGateway) CreateTicket(ctx context.Context, input domain.NewTicketInput, author string) (*domain.Ticket, error) {
	const op = "create_ticket"
	if g.db == nil {
		return nil, g.fail(op, ErrStoreUnavailable, true)
	}

	if input.Priority != "" && !input.Priority.Valid() {
		return nil, g.failKind(op, FailureMalformed, errors.Errorf("unknown priority %q", input.Priority))
	}
	row := rowFromInput(input, author)
	const query = `
        INSERT INTO tickets (title, description, status, priority, assigned_to, created_by, department,
            location, resolution_method, is_ai_generated, sla_deadline, attachments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	if err := g.db.QueryRow(ctx, query,
		row.Title,
		row.Description,
		row.Status,
		row.Priority,
		row.AssignedTo,
		row.CreatedBy,
		row.Department,
		row.Location,
		row.ResolutionMethod,
		row.IsAIGenerated,
		row.SLADeadline,
		row.Attachments,
	).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt); err != nil {
		return nil, g.fail(op, errors.Wrap(err, "insert ticket"), true)
	}

	ticket, _, err := ticketFromRow(row, nil)
	if err != nil {
		return nil, g.failKind(op, FailureMalformed, errors.WithStack(err))
	}
	return &ticket, nil
}

func (g *ticketGateway) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	const op = "update_status"
	lifecycle, err := domain.LifecycleFor(status)
	if err != nil {
		return g.failKind(op, FailureMalformed, errors.WithStack(err))
	}
	const query = `UPDATE tickets SET status=$1, resolution_method=$2, updated_at=NOW() WHERE id=$3`
	return g.exec(ctx, op, query, string(lifecycle.Status()), string(lifecycle.ResolutionMethod()), id)
}

func (g *ticketGateway) UpdatePriority(ctx context.Context, id string, priority domain.TicketPriority) error {
	const op = "update_priority"
	if !priority.Valid() {
		return g.failKind(op, FailureMalformed, errors.Errorf("unknown priority %q", priority))
	}
	const query = `UPDATE tickets SET priority=$1, updated_at=NOW() WHERE id=$2`
	return g.exec(ctx, op, query, string(priority), id)
}

func (g *ticketGateway) Assign(ctx context.Context, id string, technician *string) error {
	const query = `UPDATE tickets SET assigned_to=$1, updated_at=NOW() WHERE id=$2`
	return g.exec(ctx, "assign", query, technician, id)
}

func (g *ticketGateway) exec(ctx context.Context, op, query string, args ...any) error {
	if g.db == nil {
		return g.fail(op, ErrStoreUnavailable, true)
	}
	tag, err := g.db.Exec(ctx, query, args...)
	if err != nil {
		return g.fail(op, errors.Wrap(err, op), true)
	}
	if tag.RowsAffected() == 0 {
		return g.fail(op, errors.WithStack(pgx.ErrNoRows), true)
	}
	return nil
}

// AddNote inserts the note, then bumps the parent's updated_at. A failed bump
// is logged and the note still counts as committed.
func (g *ticketGateway) AddNote(ctx context.Context, ticketID, content, author string, isInternal bool) (*domain.Note, error) {
	const op = "add_note"
	if g.db == nil {
		return nil, g.fail(op, ErrStoreUnavailable, true)
	}

	falseVal := false
	row := noteRow{
		ID:            uuid.NewString(),
		TicketID:      ticketID,
		Content:       content,
		Author:        author,
		IsInternal:    isInternal,
		IsAIGenerated: &falseVal,
	}
	const insert = `
        INSERT INTO ticket_notes (id, ticket_id, content, author, is_internal, is_ai_generated)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING timestamp`
	if err := g.db.QueryRow(ctx, insert,
		row.ID,
		row.TicketID,
		row.Content,
		row.Author,
		row.IsInternal,
		false,
	).Scan(&row.Timestamp); err != nil {
		return nil, g.fail(op, errors.Wrap(err, "insert note"), true)
	}

	const bump = `UPDATE tickets SET updated_at=NOW() WHERE id=$1`
	if _, err := g.db.Exec(ctx, bump, ticketID); err != nil {
		g.logger.Warn("note committed but parent updated_at bump failed",
			zap.String("ticket_id", ticketID),
			zap.String("note_id", row.ID),
			zap.Error(err))
		g.metrics.RecordGatewayFailure("bump_updated_at", string(FailureWrite))
	}

	note := noteFromRow(row)
	return &note, nil
}

func (g *ticketGateway) ComputeStatistics(ctx context.Context) (domain.TicketStatistics, error) {
	tickets, err := g.ListTickets(ctx)
	if err != nil {
		return domain.ZeroStatistics(), err
	}
	return stats.Compute(tickets, g.now()), nil
}

func (g *ticketGateway) fail(op string, err error, writeOp bool) error {
	return g.failKind(op, classify(err, writeOp), err)
}

func (g *ticketGateway) failKind(op string, kind FailureKind, err error) error {
	g.logger.Warn("ticket store failure",
		zap.String("op", op),
		zap.String("kind", string(kind)),
		zap.Error(err))
	g.metrics.RecordGatewayFailure(op, string(kind))
	return &GatewayError{Op: op, Kind: kind, Err: err}
}
