package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Priority      domain.TicketPriority `json:"priority"`
	Department    string                `json:"department"`
	Location      string                `json:"location"`
	AssignedTo    *string               `json:"assigned_to"`
	IsAIGenerated bool                  `json:"is_ai_generated"`
	SLADeadline   *time.Time            `json:"sla_deadline"`
	Attachments   []string              `json:"attachments"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignRequest payload. A null or blank assignee unassigns.
type AssignRequest struct {
	AssignedTo *string `json:"assigned_to"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}

// TicketFilterPayload is the wire form of the dashboard filter.
type TicketFilterPayload struct {
	Search          string `json:"search"`
	Status          string `json:"status"`
	Priority        string `json:"priority"`
	AssignedTo      string `json:"assigned_to"`
	Department      string `json:"department"`
	Location        string `json:"location"`
	ShowAIResolved  *bool  `json:"show_ai_resolved"`
	AIGeneratedOnly bool   `json:"ai_generated_only"`
}

// ApplySuggestionRequest payload.
type ApplySuggestionRequest struct {
	ID              string                `json:"id"`
	Type            domain.SuggestionType `json:"type"`
	Description     string                `json:"description"`
	RelatedTickets  []string              `json:"related_tickets"`
	SuggestedAction string                `json:"suggested_action"`
}

// TicketSummary response.
type TicketSummary struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	Status           domain.TicketStatus     `json:"status"`
	Priority         domain.TicketPriority   `json:"priority"`
	ResolutionMethod domain.ResolutionMethod `json:"resolution_method"`
	AssignedTo       *string                 `json:"assigned_to"`
	Department       string                  `json:"department,omitempty"`
	Location         string                  `json:"location,omitempty"`
	IsAIGenerated    bool                    `json:"is_ai_generated"`
	NoteCount        int                     `json:"note_count"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	Status           domain.TicketStatus     `json:"status"`
	Priority         domain.TicketPriority   `json:"priority"`
	ResolutionMethod domain.ResolutionMethod `json:"resolution_method"`
	AssignedTo       *string                 `json:"assigned_to"`
	CreatedBy        string                  `json:"created_by"`
	Department       string                  `json:"department,omitempty"`
	Location         string                  `json:"location,omitempty"`
	IsAIGenerated    bool                    `json:"is_ai_generated"`
	SLADeadline      *time.Time              `json:"sla_deadline,omitempty"`
	Attachments      []string                `json:"attachments"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Notes            []NoteResponse          `json:"notes"`
}

// NoteResponse represents one audit-trail entry.
type NoteResponse struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Author        string    `json:"author"`
	Timestamp     time.Time `json:"timestamp"`
	IsInternal    bool      `json:"is_internal"`
	IsAIGenerated bool      `json:"is_ai_generated"`
}

// StatisticsResponse mirrors the dashboard counters.
type StatisticsResponse struct {
	OpenTickets       int          `json:"open_tickets"`
	ResolvedToday     int          `json:"resolved_today"`
	AIResolved        int          `json:"ai_resolved"`
	AwaitingAction    int          `json:"awaiting_action"`
	AvgResolutionTime string       `json:"avg_resolution_time"`
	EscalationRate    int          `json:"escalation_rate"`
	EscalationTrend   domain.Trend `json:"escalation_trend"`
	UsingFallback     bool         `json:"using_fallback"`
}

// TrendRequest payload.
type TrendRequest struct {
	Trend domain.Trend `json:"trend"`
}

// LoadStatusResponse reports the supervised refresh.
type LoadStatusResponse struct {
	State           string `json:"state"`
	Loading         bool   `json:"loading"`
	FallbackPending bool   `json:"fallback_pending"`
	InitialLoad     bool   `json:"initial_load"`
	Attempts        uint64 `json:"attempts"`
	ElapsedMs       int64  `json:"elapsed_ms"`
	Message         string `json:"message,omitempty"`
	LastError       string `json:"last_error,omitempty"`
}

// ApplySuggestionResponse reports which tickets a suggestion touched.
type ApplySuggestionResponse struct {
	SuggestionID string                `json:"suggestion_id"`
	Type         domain.SuggestionType `json:"type"`
	Mutated      []string              `json:"mutated"`
	Failed       []string              `json:"failed"`
}
