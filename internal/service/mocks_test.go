package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
)

type mockGateway struct {
	listFn           func(ctx context.Context) ([]domain.Ticket, error)
	createFn         func(ctx context.Context, input domain.NewTicketInput, author string) (*domain.Ticket, error)
	updateStatusFn   func(ctx context.Context, id string, status domain.TicketStatus) error
	updatePriorityFn func(ctx context.Context, id string, priority domain.TicketPriority) error
	assignFn         func(ctx context.Context, id string, technician *string) error
	addNoteFn        func(ctx context.Context, ticketID, content, author string, isInternal bool) (*domain.Note, error)

	mu          sync.Mutex
	statusCalls []string
	noteSeq     int
}

func (m *mockGateway) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []domain.Ticket{}, nil
}

func (m *mockGateway) CreateTicket(ctx context.Context, input domain.NewTicketInput, author string) (*domain.Ticket, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input, author)
	}
	now := time.Now()
	return &domain.Ticket{
		ID:        "TK-2000",
		Title:     input.Title,
		Priority:  input.Priority,
		Lifecycle: domain.MustLifecycle(domain.TicketStatusOpen),
		CreatedBy: author,
		Notes:     []domain.Note{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (m *mockGateway) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	m.mu.Lock()
	m.statusCalls = append(m.statusCalls, id)
	m.mu.Unlock()
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockGateway) UpdatePriority(ctx context.Context, id string, priority domain.TicketPriority) error {
	if m.updatePriorityFn != nil {
		return m.updatePriorityFn(ctx, id, priority)
	}
	return nil
}

func (m *mockGateway) Assign(ctx context.Context, id string, technician *string) error {
	if m.assignFn != nil {
		return m.assignFn(ctx, id, technician)
	}
	return nil
}

func (m *mockGateway) AddNote(ctx context.Context, ticketID, content, author string, isInternal bool) (*domain.Note, error) {
	if m.addNoteFn != nil {
		return m.addNoteFn(ctx, ticketID, content, author, isInternal)
	}
	m.mu.Lock()
	m.noteSeq++
	seq := m.noteSeq
	m.mu.Unlock()
	return &domain.Note{
		ID:         "note-" + string(rune('a'+seq-1)),
		TicketID:   ticketID,
		Content:    content,
		Author:     author,
		Timestamp:  time.Now(),
		IsInternal: isInternal,
	}, nil
}

func (m *mockGateway) ComputeStatistics(ctx context.Context) (domain.TicketStatistics, error) {
	return domain.ZeroStatistics(), nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) types() []events.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func (s *recordingSink) recorded() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.events...)
}
