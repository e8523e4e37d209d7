// Package fallback provides the local ticket set served when the store is
// unreachable or empty.
package fallback

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// epoch anchors every fallback timestamp so repeated calls are identical.
var epoch = time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)

// GenerateFallbackTickets returns a fresh copy of the fixed fallback set.
func GenerateFallbackTickets() []domain.Ticket {
	sarah := "Sarah Chen"
	assistant := "AI Assistant"
	sla := epoch.Add(4 * time.Hour)

	return []domain.Ticket{
		{
			ID:          "TK-1001",
			Title:       "Email server not responding",
			Description: "Users in Building A cannot send or receive mail since 08:30.",
			Department:  "IT Infrastructure",
			Location:    "HQ Building A",
			Priority:    domain.TicketPriorityHigh,
			Lifecycle:   domain.MustLifecycle(domain.TicketStatusOpen),
			SLADeadline: &sla,
			CreatedBy:   "John Smith",
			Notes:       []domain.Note{},
			Attachments: []string{},
			CreatedAt:   epoch.Add(2 * time.Hour),
			UpdatedAt:   epoch.Add(2 * time.Hour),
		},
		{
			ID:          "TK-1002",
			Title:       "VPN connection drops intermittently",
			Description: "Remote staff report the VPN tunnel drops every 20-30 minutes.",
			Department:  "Network Operations",
			Location:    "Remote",
			Priority:    domain.TicketPriorityMedium,
			Lifecycle:   domain.MustLifecycle(domain.TicketStatusInProgress),
			AssignedTo:  &sarah,
			CreatedBy:   "Emily Davis",
			Notes: []domain.Note{
				{
					ID:         "NT-2001",
					TicketID:   "TK-1002",
					Content:    "Collected client logs; keepalive timeouts on the concentrator.",
					Author:     sarah,
					Timestamp:  epoch.Add(time.Hour),
					IsInternal: true,
				},
				{
					ID:        "NT-2002",
					TicketID:  "TK-1002",
					Content:   "We are investigating and will update you within the hour.",
					Author:    sarah,
					Timestamp: epoch.Add(90 * time.Minute),
				},
			},
			Attachments: []string{"https://files.example.internal/vpn-client.log"},
			CreatedAt:   epoch,
			UpdatedAt:   epoch.Add(90 * time.Minute),
		},
		{
			ID:            "TK-1003",
			Title:         "Password reset for shared mailbox",
			Description:   "Finance shared mailbox password expired.",
			Department:    "Finance",
			Location:      "HQ Building B",
			Priority:      domain.TicketPriorityLow,
			Lifecycle:     domain.MustLifecycle(domain.TicketStatusAIResolved),
			IsAIGenerated: true,
			AssignedTo:    &assistant,
			CreatedBy:     "AI Assistant",
			Notes: []domain.Note{
				{
					ID:            "NT-2003",
					TicketID:      "TK-1003",
					Content:       "Password reset automatically and new credentials sent to the mailbox owner.",
					Author:        assistant,
					Timestamp:     epoch.Add(-22 * time.Hour),
					IsAIGenerated: true,
				},
			},
			Attachments: []string{},
			CreatedAt:   epoch.Add(-24 * time.Hour),
			UpdatedAt:   epoch.Add(-22 * time.Hour),
		},
	}
}
