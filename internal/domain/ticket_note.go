package domain

import "time"

// Note is an append-only audit trail entry on a ticket.
type Note struct {
	ID            string
	TicketID      string
	Content       string
	Author        string
	Timestamp     time.Time
	IsInternal    bool
	IsAIGenerated bool
}
