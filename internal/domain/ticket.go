package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusInProgress      TicketStatus = "in-progress"
	TicketStatusPendingCustomer TicketStatus = "pending-customer"
	TicketStatusEscalated       TicketStatus = "escalated"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusAIResolved      TicketStatus = "ai-resolved"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingCustomer,
		TicketStatusEscalated, TicketStatusResolved, TicketStatusAIResolved:
		return true
	}
	return false
}

// Terminal reports whether s ends the active lifecycle of a ticket.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusAIResolved
}

// TicketPriority enumerates triage urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// ResolutionMethod records how a ticket reached its current state.
type ResolutionMethod string

const (
	ResolutionPending    ResolutionMethod = "pending"
	ResolutionManual     ResolutionMethod = "manual"
	ResolutionAIResolved ResolutionMethod = "ai-resolved"
	ResolutionEscalated  ResolutionMethod = "escalated"
)

// Lifecycle pairs a status with its resolution method. The only way to
// build one is through LifecycleFor or NewLifecycle, so a Ticket can never
// carry an inconsistent combination.
type Lifecycle struct {
	status TicketStatus
	method ResolutionMethod
}

// LifecycleFor derives the resolution method written alongside a status change.
func LifecycleFor(status TicketStatus) (Lifecycle, error) {
	if !status.Valid() {
		return Lifecycle{}, fmt.Errorf("unknown status %q", status)
	}
	return Lifecycle{status: status, method: derivedMethod(status)}, nil
}

// MustLifecycle is LifecycleFor for statuses known at compile time.
func MustLifecycle(status TicketStatus) Lifecycle {
	l, err := LifecycleFor(status)
	if err != nil {
		panic(err)
	}
	return l
}

// NewLifecycle validates a stored (status, method) pair.
func NewLifecycle(status TicketStatus, method ResolutionMethod) (Lifecycle, error) {
	if !status.Valid() {
		return Lifecycle{}, fmt.Errorf("unknown status %q", status)
	}
	for _, allowed := range allowedMethods[status] {
		if allowed == method {
			return Lifecycle{status: status, method: method}, nil
		}
	}
	return Lifecycle{}, fmt.Errorf("resolution method %q inconsistent with status %q", method, status)
}

// Status returns the lifecycle status.
func (l Lifecycle) Status() TicketStatus { return l.status }

// ResolutionMethod returns the provenance tag paired with the status.
func (l Lifecycle) ResolutionMethod() ResolutionMethod { return l.method }

// IsZero reports whether the lifecycle was never initialised.
func (l Lifecycle) IsZero() bool { return l.status == "" }

func derivedMethod(status TicketStatus) ResolutionMethod {
	switch status {
	case TicketStatusResolved:
		return ResolutionManual
	case TicketStatusAIResolved:
		return ResolutionAIResolved
	case TicketStatusEscalated:
		return ResolutionEscalated
	default:
		return ResolutionPending
	}
}

// An active ticket may keep the escalated tag after leaving the escalated
// status so the escalation stays visible in statistics.
var allowedMethods = map[TicketStatus][]ResolutionMethod{
	TicketStatusOpen:            {ResolutionPending, ResolutionEscalated},
	TicketStatusInProgress:      {ResolutionPending, ResolutionEscalated},
	TicketStatusPendingCustomer: {ResolutionPending, ResolutionEscalated},
	TicketStatusEscalated:       {ResolutionEscalated},
	TicketStatusResolved:        {ResolutionManual, ResolutionAIResolved},
	TicketStatusAIResolved:      {ResolutionAIResolved},
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:            {TicketStatusInProgress, TicketStatusEscalated, TicketStatusResolved, TicketStatusAIResolved, TicketStatusPendingCustomer},
	TicketStatusInProgress:      {TicketStatusEscalated, TicketStatusResolved, TicketStatusAIResolved, TicketStatusPendingCustomer, TicketStatusOpen},
	TicketStatusPendingCustomer: {TicketStatusInProgress, TicketStatusResolved, TicketStatusEscalated},
	TicketStatusEscalated:       {TicketStatusInProgress, TicketStatusResolved},
}

// CanTransition reports whether a status change is permitted. Leaving a
// terminal status is a reopen and only allowed when allowReopen is set.
func CanTransition(current, next TicketStatus, allowReopen bool) bool {
	if !next.Valid() {
		return false
	}
	if current == next {
		return true
	}
	if current.Terminal() {
		return allowReopen
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Ticket is the aggregate tracked through the triage lifecycle.
type Ticket struct {
	ID            string
	Title         string
	Description   string
	Department    string
	Location      string
	Priority      TicketPriority
	Lifecycle     Lifecycle
	IsAIGenerated bool
	SLADeadline   *time.Time
	AssignedTo    *string
	CreatedBy     string
	Notes         []Note
	Attachments   []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Status is shorthand for t.Lifecycle.Status().
func (t Ticket) Status() TicketStatus { return t.Lifecycle.Status() }

// ResolutionMethod is shorthand for t.Lifecycle.ResolutionMethod().
func (t Ticket) ResolutionMethod() ResolutionMethod { return t.Lifecycle.ResolutionMethod() }

// Assigned reports whether a technician label is set.
func (t Ticket) Assigned() bool { return t.AssignedTo != nil && *t.AssignedTo != "" }

// Clone returns a deep copy so callers can never alias the controller's collection.
func (t Ticket) Clone() Ticket {
	out := t
	if t.SLADeadline != nil {
		deadline := *t.SLADeadline
		out.SLADeadline = &deadline
	}
	if t.AssignedTo != nil {
		assignee := *t.AssignedTo
		out.AssignedTo = &assignee
	}
	if t.Notes != nil {
		out.Notes = make([]Note, len(t.Notes))
		copy(out.Notes, t.Notes)
	}
	if t.Attachments != nil {
		out.Attachments = make([]string, len(t.Attachments))
		copy(out.Attachments, t.Attachments)
	}
	return out
}

// VisibleNotes returns the notes shown to customer-facing views.
func (t Ticket) VisibleNotes(includeInternal bool) []Note {
	if includeInternal {
		return t.Notes
	}
	visible := make([]Note, 0, len(t.Notes))
	for _, note := range t.Notes {
		if note.IsInternal {
			continue
		}
		visible = append(visible, note)
	}
	return visible
}

// NewTicketInput describes a ticket submission. Status and resolution
// method are not part of the input; new tickets always start open/pending.
type NewTicketInput struct {
	Title         string
	Description   string
	Priority      TicketPriority
	Department    string
	Location      string
	AssignedTo    *string
	IsAIGenerated bool
	SLADeadline   *time.Time
	Attachments   []string
}
