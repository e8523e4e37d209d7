package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/supervisor"
)

// LoadSupervisor is the supervised refresh surface.
type LoadSupervisor interface {
	Refresh(ctx context.Context) (supervisor.Status, error)
	Cancel(ctx context.Context) supervisor.Status
	Snapshot() supervisor.Status
}

// LoadHandler drives supervised ticket refreshes.
type LoadHandler struct {
	supervisor LoadSupervisor
}

// NewLoadHandler constructs handler.
func NewLoadHandler(s LoadSupervisor) *LoadHandler {
	return &LoadHandler{supervisor: s}
}

// Refresh POST /load/refresh waits for the attempt to come to rest. The
// response is bounded by the refresh timeout, not the store.
func (h *LoadHandler) Refresh(c *fiber.Ctx) error {
	status, err := h.supervisor.Refresh(c.UserContext())
	if err != nil {
		// request deadline hit first; report progress so far
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": loadStatus(status)})
	}
	return c.JSON(fiber.Map{"data": loadStatus(status)})
}

// Cancel POST /load/cancel.
func (h *LoadHandler) Cancel(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": loadStatus(h.supervisor.Cancel(c.UserContext()))})
}

// Status GET /load.
func (h *LoadHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": loadStatus(h.supervisor.Snapshot())})
}

func loadStatus(s supervisor.Status) dto.LoadStatusResponse {
	return dto.LoadStatusResponse{
		State:           string(s.State),
		Loading:         s.Loading,
		FallbackPending: s.FallbackPending,
		InitialLoad:     s.InitialLoad,
		Attempts:        s.Attempts,
		ElapsedMs:       s.Elapsed.Milliseconds(),
		Message:         s.Message,
		LastError:       s.LastError,
	}
}
