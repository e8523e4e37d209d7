package worker

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/persistence"
	"github.com/spec-kit/triage-service/internal/service"
)

const eventStreamMaxLen = 10000

// StartNotificationWorker builds the configured event sinks and subscribes a
// notification service to every event type. Sinks with no configuration are
// skipped; the service then only logs.
func StartNotificationWorker(cfg config.Config, redis *persistence.Redis, dispatcher events.Dispatcher, logger *zap.Logger) (*service.NotificationService, error) {
	var sinks []events.Sink

	if cfg.RabbitMQ.URL != "" {
		rabbit, err := events.NewRabbitSink(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return nil, errors.Wrap(err, "start rabbitmq sink")
		}
		sinks = append(sinks, rabbit)
	}

	if cfg.Redis.EventStream != "" && redis != nil && redis.Client != nil {
		sinks = append(sinks, events.NewRedisStreamSink(redis.Client, cfg.Redis.EventStream, eventStreamMaxLen))
	}

	notifications := service.NewNotificationService(dispatcher, logger, sinks...)
	notifications.RegisterHandlers()

	names := make([]string, 0, len(sinks))
	for _, sink := range sinks {
		names = append(names, sink.Name())
	}
	if logger != nil {
		logger.Info("notification worker started", zap.Strings("sinks", names))
	}
	return notifications, nil
}
