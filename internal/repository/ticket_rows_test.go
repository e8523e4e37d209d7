package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/triage-service/internal/domain"
)

func TestTicketFromRowRejectsUnknownPriority(t *testing.T) {
	_, _, err := ticketFromRow(ticketRow{ID: "TK-1", Status: "open", Priority: "urgent", ResolutionMethod: "pending"}, nil)
	assert.Error(t, err)
}

func TestTicketFromRowKeepsHistoricalEscalation(t *testing.T) {
	ticket, normalized, err := ticketFromRow(ticketRow{
		ID: "TK-1", Status: "in-progress", Priority: "high", ResolutionMethod: "escalated",
	}, nil)
	require.NoError(t, err)
	assert.False(t, normalized)
	assert.Equal(t, domain.ResolutionEscalated, ticket.ResolutionMethod())
}

func TestRowFromInputDefaults(t *testing.T) {
	row := rowFromInput(domain.NewTicketInput{Title: "x", Location: "DC-2"}, "bob")
	assert.Equal(t, "open", row.Status)
	assert.Equal(t, "pending", row.ResolutionMethod)
	assert.Equal(t, "medium", row.Priority)
	assert.Nil(t, row.Department)
	require.NotNil(t, row.Location)
	assert.Equal(t, "DC-2", *row.Location)
	assert.Equal(t, []string{}, row.Attachments)
	assert.Equal(t, "bob", row.CreatedBy)
}

func TestNoteFromRow(t *testing.T) {
	ai := true
	ts := time.Now()
	note := noteFromRow(noteRow{ID: "n", TicketID: "TK-1", Content: "c", Author: "AI", Timestamp: ts, IsAIGenerated: &ai})
	assert.True(t, note.IsAIGenerated)
	assert.Equal(t, ts, note.Timestamp)
}
