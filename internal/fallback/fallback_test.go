package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/triage-service/internal/domain"
)

func TestGenerateFallbackTicketsIsDeterministic(t *testing.T) {
	first := GenerateFallbackTickets()
	second := GenerateFallbackTickets()
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestGenerateFallbackTicketsReturnsFreshCopies(t *testing.T) {
	first := GenerateFallbackTickets()
	*first[1].AssignedTo = "someone else"
	first[1].Notes[0].Content = "edited"

	second := GenerateFallbackTickets()
	assert.Equal(t, "Sarah Chen", *second[1].AssignedTo)
	assert.NotEqual(t, "edited", second[1].Notes[0].Content)
}

func TestGenerateFallbackTicketsCoverage(t *testing.T) {
	priorities := map[domain.TicketPriority]bool{}
	withNotes := 0
	for _, ticket := range GenerateFallbackTickets() {
		priorities[ticket.Priority] = true
		if len(ticket.Notes) > 0 {
			withNotes++
		}
		assert.False(t, ticket.UpdatedAt.Before(ticket.CreatedAt), ticket.ID)
		assert.False(t, ticket.Lifecycle.IsZero(), ticket.ID)
	}
	assert.Len(t, priorities, 3)
	assert.GreaterOrEqual(t, withNotes, 1)
}
