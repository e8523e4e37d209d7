package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/fallback"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/stats"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// TicketController owns the in-memory ticket collection, the active filter
// and the selection. Every mutation writes through the gateway first and
// touches local state only when that write succeeded.
type TicketController struct {
	gateway     repository.TicketGateway
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
	author      string
	allowReopen bool

	mu            sync.RWMutex
	tickets       []domain.Ticket
	filter        domain.TicketFilter
	selected      *domain.Ticket
	statistics    domain.TicketStatistics
	trend         domain.Trend
	usingFallback bool
	refreshSeq    uint64
}

// ControllerDependencies bundles collaborators for the controller.
type ControllerDependencies struct {
	Gateway     repository.TicketGateway
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
	NoteAuthor  string
	AllowReopen bool
}

// NewTicketController constructs the controller with an empty collection.
func NewTicketController(deps ControllerDependencies) *TicketController {
	c := &TicketController{
		gateway:     deps.Gateway,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		now:         deps.Clock,
		author:      deps.NoteAuthor,
		allowReopen: deps.AllowReopen,
		filter:      domain.DefaultTicketFilter(),
		statistics:  domain.ZeroStatistics(),
		trend:       domain.TrendStable,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.author == "" {
		c.author = "Current User"
	}
	return c
}

// Tickets returns a copy of the full collection.
func (c *TicketController) Tickets() []domain.Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTickets(c.tickets)
}

// FilteredTickets derives the view from the collection and active filter.
func (c *TicketController) FilteredTickets() []domain.Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter.Apply(c.tickets)
}

// Ticket returns a copy of one ticket.
func (c *TicketController) Ticket(id string) (domain.Ticket, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Ticket{}, false
	}
	return c.tickets[idx].Clone(), true
}

// Filter returns the active filter.
func (c *TicketController) Filter() domain.TicketFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// ApplyFilter replaces the active filter.
func (c *TicketController) ApplyFilter(filter domain.TicketFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = filter
}

// Statistics returns the statistics computed at the last refresh or mutation.
func (c *TicketController) Statistics() domain.TicketStatistics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statistics
}

// SetEscalationTrend records the advisory trend reported alongside statistics.
func (c *TicketController) SetEscalationTrend(trend domain.Trend) error {
	if !trend.Valid() {
		return apperrors.NewValidationError("unknown trend", map[string]any{"trend": trend})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trend = trend
	c.statistics.EscalationTrend = trend
	return nil
}

// UsingFallback reports whether the collection currently holds fallback data.
func (c *TicketController) UsingFallback() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.usingFallback
}

// SelectTicket selects a ticket and opens its detail view.
func (c *TicketController) SelectTicket(id string) (domain.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	selected := c.tickets[idx].Clone()
	c.selected = &selected
	return selected.Clone(), nil
}

// Selected returns the selected ticket; ok is false when the detail view is closed.
func (c *TicketController) Selected() (ticket domain.Ticket, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return domain.Ticket{}, false
	}
	return c.selected.Clone(), true
}

// CloseDetail clears the selection. The ticket itself is untouched.
func (c *TicketController) CloseDetail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
}

// ChangeStatus moves a ticket to a new status; the resolution method follows
// from the status.
func (c *TicketController) ChangeStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	lifecycle, err := domain.LifecycleFor(status)
	if err != nil {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}
	current, known := c.Ticket(id)
	if known && !domain.CanTransition(current.Status(), status, c.allowReopen) {
		return apperrors.NewConflict("invalid status transition", map[string]any{
			"ticket_id": id,
			"from":      current.Status(),
			"to":        status,
		})
	}

	if err := c.gateway.UpdateStatus(ctx, id, status); err != nil {
		return writeFailure("status change", id, err)
	}
	c.applyLocal(id, func(t *domain.Ticket) {
		t.Lifecycle = lifecycle
	})
	c.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:        current.Status(),
			NewStatus:        status,
			ResolutionMethod: lifecycle.ResolutionMethod(),
		},
	})
	return nil
}

// ChangePriority updates a ticket's priority.
func (c *TicketController) ChangePriority(ctx context.Context, id string, priority domain.TicketPriority) error {
	if !priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	current, _ := c.Ticket(id)
	if err := c.gateway.UpdatePriority(ctx, id, priority); err != nil {
		return writeFailure("priority change", id, err)
	}
	c.applyLocal(id, func(t *domain.Ticket) {
		t.Priority = priority
	})
	c.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: id,
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: current.Priority,
			NewPriority: priority,
		},
	})
	return nil
}

// Assign sets or clears the technician label. A nil or blank technician unassigns.
func (c *TicketController) Assign(ctx context.Context, id string, technician *string) error {
	if technician != nil && strings.TrimSpace(*technician) == "" {
		technician = nil
	}
	current, _ := c.Ticket(id)
	if err := c.gateway.Assign(ctx, id, technician); err != nil {
		return writeFailure("assignment", id, err)
	}
	c.applyLocal(id, func(t *domain.Ticket) {
		if technician == nil {
			t.AssignedTo = nil
			return
		}
		name := *technician
		t.AssignedTo = &name
	})
	c.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: id,
		Payload: events.TicketAssignedPayload{
			Previous:   current.AssignedTo,
			AssignedTo: technician,
		},
	})
	return nil
}

// AddNote appends a note authored by the configured author.
func (c *TicketController) AddNote(ctx context.Context, id, content string, isInternal bool) (*domain.Note, error) {
	note, err := c.gateway.AddNote(ctx, id, content, c.author, isInternal)
	if err != nil {
		return nil, writeFailure("note addition", id, err)
	}
	c.applyLocal(id, func(t *domain.Ticket) {
		t.Notes = append(t.Notes, *note)
	})
	c.publishEvent(ctx, events.Event{
		Type:     events.EventTicketNoteAdded,
		TicketID: id,
		Actor:    note.Author,
		Payload: events.TicketNoteAddedPayload{
			NoteID:      note.ID,
			Author:      note.Author,
			IsInternal:  note.IsInternal,
			BodyPreview: stringPreview(note.Content, 120),
		},
	})
	return note, nil
}

// SubmitNewTicket forwards a submission to the store and prepends the result.
// Field validation is the caller's concern.
func (c *TicketController) SubmitNewTicket(ctx context.Context, input domain.NewTicketInput) (*domain.Ticket, error) {
	ticket, err := c.gateway.CreateTicket(ctx, input, c.author)
	if err != nil {
		return nil, writeFailure("ticket creation", "", err)
	}

	c.mu.Lock()
	c.tickets = append([]domain.Ticket{ticket.Clone()}, c.tickets...)
	c.recomputeLocked()
	c.mu.Unlock()

	c.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    ticket.CreatedBy,
		Payload: events.TicketCreatedPayload{
			Title:      ticket.Title,
			Priority:   ticket.Priority,
			Department: ticket.Department,
		},
	})
	return ticket, nil
}

// Refresh reloads the collection from the store. An empty or failed read,
// or forceFallback, loads the fallback set instead; forceFallback skips the
// store entirely so it cannot stall. The store error, if any, is returned
// after the fallback has been applied. A refresh overtaken by a later call
// never loads fallback data; its real rows apply only over fallback data.
func (c *TicketController) Refresh(ctx context.Context, forceFallback bool) error {
	c.mu.Lock()
	c.refreshSeq++
	seq := c.refreshSeq
	c.mu.Unlock()

	var (
		tickets  []domain.Ticket
		fetchErr error
	)
	if !forceFallback {
		tickets, fetchErr = c.gateway.ListTickets(ctx)
		if fetchErr != nil {
			c.logger.Warn("ticket refresh failed", zap.Uint64("seq", seq), zap.Error(fetchErr))
		}
	}
	usingFallback := len(tickets) == 0

	c.mu.Lock()
	if seq != c.refreshSeq {
		// a newer refresh started after this one; only real rows may
		// replace fallback data, never the other way round
		if usingFallback || !c.usingFallback {
			c.mu.Unlock()
			c.logger.Info("stale ticket refresh discarded",
				zap.Uint64("seq", seq),
				zap.Bool("fallback", usingFallback))
			return fetchErr
		}
	}
	if usingFallback {
		tickets = fallback.GenerateFallbackTickets()
	}
	c.tickets = tickets
	c.usingFallback = usingFallback
	if c.selected != nil {
		if idx := c.indexOf(c.selected.ID); idx >= 0 {
			selected := c.tickets[idx].Clone()
			c.selected = &selected
		} else {
			c.selected = nil
		}
	}
	c.recomputeLocked()
	c.mu.Unlock()

	c.logger.Info("tickets refreshed",
		zap.Uint64("seq", seq),
		zap.Int("count", len(tickets)),
		zap.Bool("fallback", usingFallback),
		zap.Bool("forced", forceFallback))
	return fetchErr
}

// applyLocal mutates exactly the ticket with the given id, bumps its
// updated-at and keeps the selection in step.
func (c *TicketController) applyLocal(id string, mutate func(*domain.Ticket)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	updated := c.tickets[idx].Clone()
	mutate(&updated)
	updated.UpdatedAt = nextUpdatedAt(updated.UpdatedAt, c.now())
	c.tickets[idx] = updated
	if c.selected != nil && c.selected.ID == id {
		selected := updated.Clone()
		c.selected = &selected
	}
	c.recomputeLocked()
}

func (c *TicketController) recomputeLocked() {
	c.statistics = stats.Compute(c.tickets, c.now())
	c.statistics.EscalationTrend = c.trend
}

func (c *TicketController) indexOf(id string) int {
	for i := range c.tickets {
		if c.tickets[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *TicketController) publishEvent(ctx context.Context, event events.Event) {
	if c.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	if event.Actor == "" {
		event.Actor = c.author
	}
	if err := c.dispatcher.Publish(ctx, event); err != nil {
		c.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// nextUpdatedAt never returns a time at or before prev, so updated-at
// strictly increases even when clocks collide.
func nextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

func writeFailure(operation, id string, err error) error {
	details := map[string]any{}
	if id != "" {
		details["ticket_id"] = id
	}
	if repository.KindOf(err) == repository.FailureNotFound {
		return apperrors.NewNotFound("ticket", details)
	}
	details["kind"] = string(repository.KindOf(err))
	return apperrors.NewWriteFailed(operation, details, err)
}

func cloneTickets(tickets []domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, len(tickets))
	for i := range tickets {
		out[i] = tickets[i].Clone()
	}
	return out
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
