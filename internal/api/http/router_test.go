package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
	"github.com/spec-kit/triage-service/internal/supervisor"
)

// offlineGateway behaves like an unreachable store for reads and accepts writes.
type offlineGateway struct {
	failWrites bool
}

func (g *offlineGateway) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	return []domain.Ticket{}, &repository.GatewayError{Op: "list_tickets", Kind: repository.FailureConnectivity, Err: repository.ErrStoreUnavailable}
}

func (g *offlineGateway) CreateTicket(ctx context.Context, input domain.NewTicketInput, author string) (*domain.Ticket, error) {
	now := time.Now()
	return &domain.Ticket{
		ID:        "TK-3000",
		Title:     input.Title,
		Priority:  domain.TicketPriorityMedium,
		Lifecycle: domain.MustLifecycle(domain.TicketStatusOpen),
		CreatedBy: author,
		Notes:     []domain.Note{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (g *offlineGateway) write() error {
	if g.failWrites {
		return &repository.GatewayError{Op: "write", Kind: repository.FailureWrite, Err: errors.New("down")}
	}
	return nil
}

func (g *offlineGateway) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	return g.write()
}

func (g *offlineGateway) UpdatePriority(ctx context.Context, id string, priority domain.TicketPriority) error {
	return g.write()
}

func (g *offlineGateway) Assign(ctx context.Context, id string, technician *string) error {
	return g.write()
}

func (g *offlineGateway) AddNote(ctx context.Context, ticketID, content, author string, isInternal bool) (*domain.Note, error) {
	if err := g.write(); err != nil {
		return nil, err
	}
	return &domain.Note{ID: "note-1", TicketID: ticketID, Content: content, Author: author, Timestamp: time.Now(), IsInternal: isInternal}, nil
}

func (g *offlineGateway) ComputeStatistics(ctx context.Context) (domain.TicketStatistics, error) {
	return domain.ZeroStatistics(), nil
}

type testEnv struct {
	app        *fiber.App
	controller *service.TicketController
	metrics    *observability.Metrics
}

func newTestEnv(t *testing.T, gw repository.TicketGateway) testEnv {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	controller := service.NewTicketController(service.ControllerDependencies{Gateway: gw, Logger: logger})
	require.NoError(t, controller.Refresh(context.Background(), true))

	sup := supervisor.New(supervisor.Dependencies{Refresher: controller, Timeout: time.Second, Logger: logger, Metrics: metrics})
	t.Cleanup(sup.Close)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:      handlers.NewHealthHandler("triage-service", "test", metrics, nil),
		Tickets:     handlers.NewTicketsHandler(controller),
		Load:        handlers.NewLoadHandler(sup),
		Suggestions: handlers.NewSuggestionsHandler(service.NewSuggestionApplier(service.ApplierDependencies{Tickets: controller, Logger: logger})),
	})
	return testEnv{app: app, controller: controller, metrics: metrics}
}

func (e testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestListTicketsWithQueryFilter(t *testing.T) {
	env := newTestEnv(t, &offlineGateway{})

	status, body := env.do(t, "GET", "/tickets", nil)
	require.Equal(t, 200, status)
	assert.Len(t, body["data"], 3)
	assert.Equal(t, true, body["using_fallback"])

	_, body = env.do(t, "GET", "/tickets?priority=high", nil)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "TK-1001", items[0].(map[string]any)["id"])

	// query parameters do not replace the stored filter
	assert.Equal(t, domain.FilterAll, env.controller.Filter().Priority)
}

func TestStatusChangeAndStats(t *testing.T) {
	env := newTestEnv(t, &offlineGateway{})

	status, body := env.do(t, "PATCH", "/tickets/TK-1001/status", map[string]string{"status": "resolved"})
	require.Equal(t, 200, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "resolved", data["status"])
	assert.Equal(t, "manual", data["resolution_method"])

	_, body = env.do(t, "GET", "/tickets/stats", nil)
	stats := body["data"].(map[string]any)
	assert.Equal(t, float64(1), stats["open_tickets"])
}

func TestWriteFailureRendersDomainError(t *testing.T) {
	env := newTestEnv(t, &offlineGateway{failWrites: true})

	status, body := env.do(t, "PATCH", "/tickets/TK-1001/priority", map[string]string{"priority": "critical"})
	assert.Equal(t, 502, status)
	assert.Equal(t, "WRITE_FAILED", body["error"].(map[string]any)["code"])

	ticket, _ := env.controller.Ticket("TK-1001")
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	assert.Equal(t, int64(1), env.metrics.Snapshot().Errors["/tickets/TK-1001/priority|PATCH|WRITE_FAILED"])
}

func TestExternalViewHidesInternalNotes(t *testing.T) {
	env := newTestEnv(t, &offlineGateway{})

	_, body := env.do(t, "GET", "/tickets/TK-1002", nil)
	assert.Len(t, body["data"].(map[string]any)["notes"], 2)

	_, body = env.do(t, "GET", "/tickets/TK-1002?view=external", nil)
	notes := body["data"].(map[string]any)["notes"].([]any)
	require.Len(t, notes, 1)
	assert.Equal(t, false, notes[0].(map[string]any)["is_internal"])

	status, _ := env.do(t, "GET", "/tickets/TK-9999", nil)
	assert.Equal(t, 404, status)
}

func TestCreateTicketValidation(t *testing.T) {
	env := newTestEnv(t, &offlineGateway{})

	status, _ := env.do(t, "POST", "/tickets", map[string]string{"title": "No description"})
	assert.Equal(t, 400, status)

	status, body := env.do(t, "POST", "/tickets", map[string]string{"title": "Laptop", "description": "Screen flickers"})
	require.Equal(t, 201, status)
	assert.Equal(t, "TK-3000", body["data"].(map[string]any)["id"])
	assert.Equal(t, "TK-3000", env.controller.Tickets()[0].ID)
}

func TestFilterAndSelectionRoutes(t *testing.T) {
	env := newTestEnv(t, &offlineGateway{})

	status, _ := env.do(t, "PUT", "/tickets/filter", map[string]any{"status": "in-progress"})
	require.Equal(t, 200, status)
	_, body := env.do(t, "GET", "/tickets", nil)
	assert.Len(t, body["data"], 1)
	_, body = env.do(t, "GET", "/tickets/filter", nil)
	assert.Equal(t, "in-progress", body["data"].(map[string]any)["status"])
	assert.Equal(t, "all", body["data"].(map[string]any)["priority"])

	status, _ = env.do(t, "POST", "/tickets/TK-1002/select", nil)
	require.Equal(t, 200, status)
	env.do(t, "POST", "/tickets/TK-1002/notes", map[string]any{"content": "called back", "is_internal": false})
	_, body = env.do(t, "GET", "/selection", nil)
	assert.Len(t, body["data"].(map[string]any)["notes"], 3)

	status, _ = env.do(t, "DELETE", "/selection", nil)
	assert.Equal(t, 204, status)
	_, body = env.do(t, "GET", "/selection", nil)
	assert.Nil(t, body["data"])
}

func TestSupervisedRefreshRoute(t *testing.T) {
	env := newTestEnv(t, &offlineGateway{})

	status, body := env.do(t, "POST", "/load/refresh", nil)
	require.Equal(t, 200, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "failed", data["state"])
	assert.Equal(t, false, data["loading"])

	_, body = env.do(t, "GET", "/load", nil)
	assert.Equal(t, float64(1), body["data"].(map[string]any)["attempts"])
	assert.Len(t, env.controller.Tickets(), 3)
}

func TestApplySuggestionRoute(t *testing.T) {
	env := newTestEnv(t, &offlineGateway{})

	status, body := env.do(t, "POST", "/suggestions/apply", map[string]any{
		"id":              "sg-1",
		"type":            "escalate",
		"related_tickets": []string{"TK-1002"},
	})
	require.Equal(t, 200, status)
	assert.Equal(t, []any{"TK-1002"}, body["data"].(map[string]any)["mutated"])

	status, _ = env.do(t, "POST", "/suggestions/apply", map[string]any{"id": "sg-2", "type": "reboot"})
	assert.Equal(t, 400, status)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, &offlineGateway{})

	status, body := env.do(t, "GET", "/health/ready", nil)
	assert.Equal(t, 200, status)
	assert.Equal(t, "ready", body["status"])

	env.do(t, "GET", "/tickets", nil)
	status, body = env.do(t, "GET", "/metrics", nil)
	assert.Equal(t, 200, status)
	assert.NotEmpty(t, body["requests"])
}

func TestUnknownRouteRendersErrorBody(t *testing.T) {
	env := newTestEnv(t, &offlineGateway{})

	status, body := env.do(t, "GET", "/nope", nil)
	assert.Equal(t, 404, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errBody["code"])
	assert.NotEmpty(t, errBody["request_id"])
}
