package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket controller.
type TicketsHandler struct {
	controller *service.TicketController
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(controller *service.TicketController) *TicketsHandler {
	return &TicketsHandler{controller: controller}
}

// ListTickets GET /tickets. Query parameters narrow the active filter for
// this request only.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseFilterQuery(c, h.controller.Filter())
	tickets := filter.Apply(h.controller.Tickets())
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items, "using_fallback": h.controller.UsingFallback()})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("title and description required", nil)
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": req.Priority})
	}

	ticket, err := h.controller.SubmitNewTicket(c.UserContext(), domain.NewTicketInput{
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Priority:      req.Priority,
		Department:    req.Department,
		Location:      req.Location,
		AssignedTo:    req.AssignedTo,
		IsAIGenerated: req.IsAIGenerated,
		SLADeadline:   req.SLADeadline,
		Attachments:   req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket, true)})
}

// GetTicket GET /tickets/:id. view=external hides internal notes.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, ok := h.controller.Ticket(c.Params("id"))
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": c.Params("id")})
	}
	includeInternal := c.Query("view") != "external"
	return c.JSON(fiber.Map{"data": ticketDetail(&ticket, includeInternal)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.controller.ChangeStatus(c.UserContext(), c.Params("id"), req.Status); err != nil {
		return err
	}
	return h.respondWithTicket(c)
}

// UpdatePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.controller.ChangePriority(c.UserContext(), c.Params("id"), req.Priority); err != nil {
		return err
	}
	return h.respondWithTicket(c)
}

// Assign PATCH /tickets/:id/assignee.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.controller.Assign(c.UserContext(), c.Params("id"), req.AssignedTo); err != nil {
		return err
	}
	return h.respondWithTicket(c)
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("content required", nil)
	}
	note, err := h.controller.AddNote(c.UserContext(), c.Params("id"), req.Content, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// Statistics GET /tickets/stats.
func (h *TicketsHandler) Statistics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.statistics()})
}

// SetTrend PUT /tickets/stats/trend.
func (h *TicketsHandler) SetTrend(c *fiber.Ctx) error {
	var req dto.TrendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.controller.SetEscalationTrend(req.Trend); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.statistics()})
}

// GetFilter GET /tickets/filter.
func (h *TicketsHandler) GetFilter(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": filterPayload(h.controller.Filter())})
}

// PutFilter PUT /tickets/filter replaces the active filter.
func (h *TicketsHandler) PutFilter(c *fiber.Ctx) error {
	var req dto.TicketFilterPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	filter := filterFromPayload(req)
	h.controller.ApplyFilter(filter)
	return c.JSON(fiber.Map{"data": filterPayload(filter)})
}

// Select POST /tickets/:id/select.
func (h *TicketsHandler) Select(c *fiber.Ctx) error {
	ticket, err := h.controller.SelectTicket(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(&ticket, true)})
}

// Selection GET /selection.
func (h *TicketsHandler) Selection(c *fiber.Ctx) error {
	ticket, ok := h.controller.Selected()
	if !ok {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": ticketDetail(&ticket, true)})
}

// CloseDetail DELETE /selection.
func (h *TicketsHandler) CloseDetail(c *fiber.Ctx) error {
	h.controller.CloseDetail()
	return c.SendStatus(http.StatusNoContent)
}

func (h *TicketsHandler) respondWithTicket(c *fiber.Ctx) error {
	ticket, ok := h.controller.Ticket(c.Params("id"))
	if !ok {
		// the store accepted the write for a ticket this process has not loaded
		return c.SendStatus(http.StatusNoContent)
	}
	return c.JSON(fiber.Map{"data": ticketDetail(&ticket, true)})
}

func (h *TicketsHandler) statistics() dto.StatisticsResponse {
	s := h.controller.Statistics()
	return dto.StatisticsResponse{
		OpenTickets:       s.OpenTickets,
		ResolvedToday:     s.ResolvedToday,
		AIResolved:        s.AIResolved,
		AwaitingAction:    s.AwaitingAction,
		AvgResolutionTime: s.AvgResolutionTime,
		EscalationRate:    s.EscalationRate,
		EscalationTrend:   s.EscalationTrend,
		UsingFallback:     h.controller.UsingFallback(),
	}
}

func parseFilterQuery(c *fiber.Ctx, filter domain.TicketFilter) domain.TicketFilter {
	if v := c.Query("search"); v != "" {
		filter.Search = v
	}
	if v := c.Query("status"); v != "" {
		filter.Status = v
	}
	if v := c.Query("priority"); v != "" {
		filter.Priority = v
	}
	if v := c.Query("assignee"); v != "" {
		filter.AssignedTo = v
	}
	if v := c.Query("department"); v != "" {
		filter.Department = v
	}
	if v := c.Query("location"); v != "" {
		filter.Location = v
	}
	filter.ShowAIResolved = parseBool(c.Query("showAIResolved"), filter.ShowAIResolved)
	filter.AIGeneratedOnly = parseBool(c.Query("aiGeneratedOnly"), filter.AIGeneratedOnly)
	return filter
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return parsed
}

func filterFromPayload(p dto.TicketFilterPayload) domain.TicketFilter {
	filter := domain.TicketFilter{
		Search:          p.Search,
		Status:          orAll(p.Status),
		Priority:        orAll(p.Priority),
		AssignedTo:      orAll(p.AssignedTo),
		Department:      orAll(p.Department),
		Location:        orAll(p.Location),
		ShowAIResolved:  true,
		AIGeneratedOnly: p.AIGeneratedOnly,
	}
	if p.ShowAIResolved != nil {
		filter.ShowAIResolved = *p.ShowAIResolved
	}
	return filter
}

func orAll(v string) string {
	if strings.TrimSpace(v) == "" {
		return domain.FilterAll
	}
	return v
}

func filterPayload(f domain.TicketFilter) dto.TicketFilterPayload {
	show := f.ShowAIResolved
	return dto.TicketFilterPayload{
		Search:          f.Search,
		Status:          f.Status,
		Priority:        f.Priority,
		AssignedTo:      f.AssignedTo,
		Department:      f.Department,
		Location:        f.Location,
		ShowAIResolved:  &show,
		AIGeneratedOnly: f.AIGeneratedOnly,
	}
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:               ticket.ID,
		Title:            ticket.Title,
		Status:           ticket.Status(),
		Priority:         ticket.Priority,
		ResolutionMethod: ticket.ResolutionMethod(),
		AssignedTo:       ticket.AssignedTo,
		Department:       ticket.Department,
		Location:         ticket.Location,
		IsAIGenerated:    ticket.IsAIGenerated,
		NoteCount:        len(ticket.Notes),
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, includeInternal bool) dto.TicketDetailResponse {
	visible := ticket.VisibleNotes(includeInternal)
	notes := make([]dto.NoteResponse, 0, len(visible))
	for i := range visible {
		notes = append(notes, noteResponse(&visible[i]))
	}
	attachments := ticket.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return dto.TicketDetailResponse{
		ID:               ticket.ID,
		Title:            ticket.Title,
		Description:      ticket.Description,
		Status:           ticket.Status(),
		Priority:         ticket.Priority,
		ResolutionMethod: ticket.ResolutionMethod(),
		AssignedTo:       ticket.AssignedTo,
		CreatedBy:        ticket.CreatedBy,
		Department:       ticket.Department,
		Location:         ticket.Location,
		IsAIGenerated:    ticket.IsAIGenerated,
		SLADeadline:      ticket.SLADeadline,
		Attachments:      attachments,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
		Notes:            notes,
	}
}

func noteResponse(note *domain.Note) dto.NoteResponse {
	return dto.NoteResponse{
		ID:            note.ID,
		Content:       note.Content,
		Author:        note.Author,
		Timestamp:     note.Timestamp,
		IsInternal:    note.IsInternal,
		IsAIGenerated: note.IsAIGenerated,
	}
}
