// Package stats derives dashboard metrics from the full ticket set.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// Compute aggregates statistics over every ticket, never the filtered view.
// Resolved-today uses the calendar day of now in now's location.
func Compute(tickets []domain.Ticket, now time.Time) domain.TicketStatistics {
	result := domain.ZeroStatistics()
	if len(tickets) == 0 {
		return result
	}

	var (
		escalated     int
		resolvedCount int
		resolvedTotal time.Duration
	)
	for _, t := range tickets {
		status := t.Status()
		method := t.ResolutionMethod()

		switch status {
		case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusEscalated:
			result.OpenTickets++
		}
		if status.Terminal() {
			if sameDay(t.UpdatedAt, now) {
				result.ResolvedToday++
			}
			resolvedCount++
			resolvedTotal += t.UpdatedAt.Sub(t.CreatedAt)
		}
		if status == domain.TicketStatusAIResolved || method == domain.ResolutionAIResolved {
			result.AIResolved++
		}
		if status == domain.TicketStatusPendingCustomer || !t.Assigned() {
			result.AwaitingAction++
		}
		if status == domain.TicketStatusEscalated || method == domain.ResolutionEscalated {
			escalated++
		}
	}

	result.EscalationRate = int(math.Round(100 * float64(escalated) / float64(len(tickets))))
	if resolvedCount > 0 {
		avg := resolvedTotal / time.Duration(resolvedCount)
		result.AvgResolutionTime = fmt.Sprintf("%dh", int(math.Round(avg.Hours())))
	}
	return result
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
