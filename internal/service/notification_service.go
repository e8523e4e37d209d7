package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/events"
)

// NotificationService logs domain events and forwards them to external sinks.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sinks      []events.Sink
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sinks ...events.Sink) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		sinks:      sinks,
	}
}

// RegisterHandlers subscribes to every published event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

// Close releases sink resources.
func (n *NotificationService) Close() {
	for _, sink := range n.sinks {
		if err := sink.Close(); err != nil {
			n.logger.Warn("close sink", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
}

// handle never returns an error: a broken sink must not disturb ticket flow.
func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor", event.Actor),
		zap.Any("payload", event.Payload))
	for _, sink := range n.sinks {
		if err := sink.Send(ctx, event); err != nil {
			n.logger.Warn("forward event",
				zap.String("sink", sink.Name()),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}
	return nil
}
