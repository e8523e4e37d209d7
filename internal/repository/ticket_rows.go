package repository

import (
	"fmt"
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// ticketRow mirrors a row of the tickets table. It is never handed to
// callers; ticketFromRow is the only way out.
type ticketRow struct {
	ID               string
	Title            string
	Description      string
	Status           string
	Priority         string
	AssignedTo       *string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Department       *string
	Location         *string
	ResolutionMethod string
	IsAIGenerated    bool
	SLADeadline      *time.Time
	Attachments      []string
}

// noteRow mirrors a row of the ticket_notes table.
type noteRow struct {
	ID            string
	TicketID      string
	Content       string
	Author        string
	Timestamp     time.Time
	IsInternal    bool
	IsAIGenerated *bool
}

// ticketFromRow maps a stored ticket and its notes onto the domain model.
// An unknown status or priority is malformed. A known status paired with an
// inconsistent resolution method is repaired from the status and reported
// through the normalized flag.
func ticketFromRow(row ticketRow, notes []noteRow) (ticket domain.Ticket, normalized bool, err error) {
	status := domain.TicketStatus(row.Status)
	if !status.Valid() {
		return domain.Ticket{}, false, fmt.Errorf("ticket %s: unknown status %q", row.ID, row.Status)
	}
	priority := domain.TicketPriority(row.Priority)
	if !priority.Valid() {
		return domain.Ticket{}, false, fmt.Errorf("ticket %s: unknown priority %q", row.ID, row.Priority)
	}
	lifecycle, err := domain.NewLifecycle(status, domain.ResolutionMethod(row.ResolutionMethod))
	if err != nil {
		lifecycle = domain.MustLifecycle(status)
		normalized = true
	}

	ticket = domain.Ticket{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		Department:    derefString(row.Department),
		Location:      derefString(row.Location),
		Priority:      priority,
		Lifecycle:     lifecycle,
		IsAIGenerated: row.IsAIGenerated,
		SLADeadline:   row.SLADeadline,
		AssignedTo:    row.AssignedTo,
		CreatedBy:     row.CreatedBy,
		Notes:         make([]domain.Note, 0, len(notes)),
		Attachments:   row.Attachments,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if ticket.Attachments == nil {
		ticket.Attachments = []string{}
	}
	for _, n := range notes {
		ticket.Notes = append(ticket.Notes, noteFromRow(n))
	}
	return ticket, normalized, nil
}

func noteFromRow(row noteRow) domain.Note {
	return domain.Note{
		ID:            row.ID,
		TicketID:      row.TicketID,
		Content:       row.Content,
		Author:        row.Author,
		Timestamp:     row.Timestamp,
		IsInternal:    row.IsInternal,
		IsAIGenerated: row.IsAIGenerated != nil && *row.IsAIGenerated,
	}
}

// rowFromInput builds the insert row for a new ticket; status and
// resolution method are always open/pending.
func rowFromInput(input domain.NewTicketInput, author string) ticketRow {
	lifecycle := domain.MustLifecycle(domain.TicketStatusOpen)
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return ticketRow{
		Title:            input.Title,
		Description:      input.Description,
		Status:           string(lifecycle.Status()),
		Priority:         string(priority),
		AssignedTo:       input.AssignedTo,
		CreatedBy:        author,
		Department:       optionalString(input.Department),
		Location:         optionalString(input.Location),
		ResolutionMethod: string(lifecycle.ResolutionMethod()),
		IsAIGenerated:    input.IsAIGenerated,
		SLADeadline:      input.SLADeadline,
		Attachments:      attachments,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
