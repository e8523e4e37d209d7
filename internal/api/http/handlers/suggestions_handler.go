package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// SuggestionsHandler applies externally produced suggestions.
type SuggestionsHandler struct {
	applier *service.SuggestionApplier
}

// NewSuggestionsHandler constructs handler.
func NewSuggestionsHandler(applier *service.SuggestionApplier) *SuggestionsHandler {
	return &SuggestionsHandler{applier: applier}
}

// Apply POST /suggestions/apply.
func (h *SuggestionsHandler) Apply(c *fiber.Ctx) error {
	var req dto.ApplySuggestionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ID) == "" {
		return apperrors.NewValidationError("id required", nil)
	}
	result, err := h.applier.Apply(c.UserContext(), domain.AITicketSuggestion{
		ID:              req.ID,
		Type:            req.Type,
		Description:     req.Description,
		RelatedTickets:  req.RelatedTickets,
		SuggestedAction: req.SuggestedAction,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ApplySuggestionResponse{
		SuggestionID: result.SuggestionID,
		Type:         result.Type,
		Mutated:      nonNil(result.Mutated),
		Failed:       nonNil(result.Failed),
	}})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
