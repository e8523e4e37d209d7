package events

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketNoteAdded       EventType = "ticket_note_added"
	EventSuggestionApplied     EventType = "suggestion_applied"
	EventLoadStateChanged      EventType = "load_state_changed"
)

// AllEventTypes lists every type the service publishes.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketPriorityChanged,
	EventTicketAssigned,
	EventTicketNoteAdded,
	EventSuggestionApplied,
	EventLoadStateChanged,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title      string                `json:"title"`
	Priority   domain.TicketPriority `json:"priority"`
	Department string                `json:"department,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus        domain.TicketStatus     `json:"old_status,omitempty"`
	NewStatus        domain.TicketStatus     `json:"new_status"`
	ResolutionMethod domain.ResolutionMethod `json:"resolution_method"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority,omitempty"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Previous   *string `json:"previous,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

// TicketNoteAddedPayload payload.
type TicketNoteAddedPayload struct {
	NoteID      string `json:"note_id"`
	Author      string `json:"author"`
	IsInternal  bool   `json:"is_internal"`
	BodyPreview string `json:"body_preview"`
}

// SuggestionAppliedPayload payload.
type SuggestionAppliedPayload struct {
	SuggestionID   string                `json:"suggestion_id"`
	Type           domain.SuggestionType `json:"type"`
	Action         string                `json:"action,omitempty"`
	RelatedTickets []string              `json:"related_tickets"`
	Mutated        []string              `json:"mutated,omitempty"`
	Failed         []string              `json:"failed,omitempty"`
}

// LoadStateChangedPayload payload.
type LoadStateChangedPayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Attempt   uint64 `json:"attempt"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Message   string `json:"message,omitempty"`
}
