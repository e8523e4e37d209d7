package domain

// SuggestionType enumerates the actions an AI suggestion can request.
type SuggestionType string

const (
	SuggestionApplyFix       SuggestionType = "apply-fix"
	SuggestionEscalate       SuggestionType = "escalate"
	SuggestionFollowUp       SuggestionType = "follow-up"
	SuggestionBulkResolution SuggestionType = "bulk-resolution"
)

// AITicketSuggestion is a pre-computed recommendation supplied from outside.
type AITicketSuggestion struct {
	ID              string
	Type            SuggestionType
	Description     string
	RelatedTickets  []string
	SuggestedAction string
}
