package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleForDerivesMethod(t *testing.T) {
	cases := map[TicketStatus]ResolutionMethod{
		TicketStatusOpen:            ResolutionPending,
		TicketStatusInProgress:      ResolutionPending,
		TicketStatusPendingCustomer: ResolutionPending,
		TicketStatusEscalated:       ResolutionEscalated,
		TicketStatusResolved:        ResolutionManual,
		TicketStatusAIResolved:      ResolutionAIResolved,
	}
	for status, want := range cases {
		l, err := LifecycleFor(status)
		require.NoError(t, err, status)
		assert.Equal(t, status, l.Status())
		assert.Equal(t, want, l.ResolutionMethod(), status)
	}

	_, err := LifecycleFor("closed")
	assert.Error(t, err)
	assert.Panics(t, func() { MustLifecycle("closed") })
}

func TestNewLifecycleRejectsInconsistentPairs(t *testing.T) {
	_, err := NewLifecycle(TicketStatusAIResolved, ResolutionManual)
	assert.Error(t, err)
	_, err = NewLifecycle(TicketStatusOpen, ResolutionManual)
	assert.Error(t, err)

	l, err := NewLifecycle(TicketStatusInProgress, ResolutionEscalated)
	require.NoError(t, err)
	assert.Equal(t, ResolutionEscalated, l.ResolutionMethod())

	assert.True(t, Lifecycle{}.IsZero())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(TicketStatusOpen, TicketStatusInProgress, false))
	assert.True(t, CanTransition(TicketStatusInProgress, TicketStatusEscalated, false))
	assert.True(t, CanTransition(TicketStatusEscalated, TicketStatusResolved, false))
	assert.True(t, CanTransition(TicketStatusEscalated, TicketStatusEscalated, false))
	assert.False(t, CanTransition(TicketStatusEscalated, TicketStatusPendingCustomer, false))
	assert.False(t, CanTransition(TicketStatusOpen, "closed", true))

	assert.False(t, CanTransition(TicketStatusResolved, TicketStatusOpen, false))
	assert.True(t, CanTransition(TicketStatusResolved, TicketStatusOpen, true))
	assert.True(t, CanTransition(TicketStatusAIResolved, TicketStatusAIResolved, false))
}

func TestCloneIsDeep(t *testing.T) {
	assignee := "Sarah Chen"
	deadline := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
	original := Ticket{
		ID:          "TK-1",
		Lifecycle:   MustLifecycle(TicketStatusOpen),
		AssignedTo:  &assignee,
		SLADeadline: &deadline,
		Notes:       []Note{{ID: "n1", Content: "first"}},
		Attachments: []string{"log.txt"},
	}

	clone := original.Clone()
	*clone.AssignedTo = "Mike"
	*clone.SLADeadline = deadline.Add(time.Hour)
	clone.Notes[0].Content = "changed"
	clone.Attachments[0] = "other.txt"

	assert.Equal(t, "Sarah Chen", *original.AssignedTo)
	assert.Equal(t, deadline, *original.SLADeadline)
	assert.Equal(t, "first", original.Notes[0].Content)
	assert.Equal(t, "log.txt", original.Attachments[0])
}

func TestVisibleNotesHidesInternal(t *testing.T) {
	ticket := Ticket{Notes: []Note{
		{ID: "n1", IsInternal: true},
		{ID: "n2"},
		{ID: "n3", IsInternal: true},
	}}
	assert.Len(t, ticket.VisibleNotes(true), 3)
	visible := ticket.VisibleNotes(false)
	require.Len(t, visible, 1)
	assert.Equal(t, "n2", visible[0].ID)
}

func TestAssigned(t *testing.T) {
	empty := ""
	name := "Sarah"
	assert.False(t, Ticket{}.Assigned())
	assert.False(t, Ticket{AssignedTo: &empty}.Assigned())
	assert.True(t, Ticket{AssignedTo: &name}.Assigned())
}
