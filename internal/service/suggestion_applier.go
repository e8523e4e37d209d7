package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// StatusChanger is the controller operation the applier fans out over.
type StatusChanger interface {
	ChangeStatus(ctx context.Context, id string, status domain.TicketStatus) error
}

// ApplyResult reports what a suggestion did. Only escalate mutates tickets;
// the other types are notifications.
type ApplyResult struct {
	SuggestionID string
	Type         domain.SuggestionType
	Mutated      []string
	Failed       []string
}

// SuggestionApplier turns an AI suggestion into lifecycle operations.
type SuggestionApplier struct {
	tickets    StatusChanger
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ApplierDependencies bundles collaborators for the applier.
type ApplierDependencies struct {
	Tickets    StatusChanger
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewSuggestionApplier constructs the applier.
func NewSuggestionApplier(deps ApplierDependencies) *SuggestionApplier {
	a := &SuggestionApplier{
		tickets:    deps.Tickets,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Apply dispatches on the suggestion type. Escalation is best effort: every
// related ticket is attempted in order and failures are collected.
func (a *SuggestionApplier) Apply(ctx context.Context, suggestion domain.AITicketSuggestion) (ApplyResult, error) {
	result := ApplyResult{SuggestionID: suggestion.ID, Type: suggestion.Type}

	switch suggestion.Type {
	case domain.SuggestionEscalate:
		for _, id := range suggestion.RelatedTickets {
			if err := a.tickets.ChangeStatus(ctx, id, domain.TicketStatusEscalated); err != nil {
				a.logger.Warn("escalation failed; continuing batch",
					zap.String("suggestion_id", suggestion.ID),
					zap.String("ticket_id", id),
					zap.Error(err))
				result.Failed = append(result.Failed, id)
				continue
			}
			result.Mutated = append(result.Mutated, id)
		}
	case domain.SuggestionApplyFix, domain.SuggestionFollowUp, domain.SuggestionBulkResolution:
		// Advisory only: the fix, the customer message and the consolidating
		// ticket all live outside this service.
	default:
		return result, apperrors.NewValidationError("unknown suggestion type", map[string]any{"type": suggestion.Type})
	}

	a.logger.Info("suggestion applied",
		zap.String("suggestion_id", suggestion.ID),
		zap.String("type", string(suggestion.Type)),
		zap.Int("mutated", len(result.Mutated)),
		zap.Int("failed", len(result.Failed)))
	a.notify(ctx, suggestion, result)
	return result, nil
}

func (a *SuggestionApplier) notify(ctx context.Context, suggestion domain.AITicketSuggestion, result ApplyResult) {
	if a.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSuggestionApplied,
		Timestamp: a.now(),
		Payload: events.SuggestionAppliedPayload{
			SuggestionID:   suggestion.ID,
			Type:           suggestion.Type,
			Action:         suggestion.SuggestedAction,
			RelatedTickets: suggestion.RelatedTickets,
			Mutated:        result.Mutated,
			Failed:         result.Failed,
		},
	}
	if err := a.dispatcher.Publish(ctx, event); err != nil {
		a.logger.Warn("suggestion notification failed", zap.Error(err))
	}
}
