package events

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/pkg/errors"
)

// RabbitSink publishes JSON events to a topic exchange, routed as ticket.<type>.
type RabbitSink struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewRabbitSink dials RabbitMQ and declares the exchange.
func NewRabbitSink(url, exchange string) (*RabbitSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}
	return &RabbitSink{conn: conn, channel: ch, exchange: exchange}, nil
}

// Name identifies the sink in logs.
func (s *RabbitSink) Name() string { return "rabbitmq" }

// Send serializes the event and publishes it.
func (s *RabbitSink) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	return s.channel.PublishWithContext(ctx, s.exchange, RoutingKey(event.Type), false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   event.ID,
		Timestamp:   event.Timestamp,
		Type:        string(event.Type),
		Body:        body,
	})
}

// Close terminates the channel and connection.
func (s *RabbitSink) Close() error {
	if s == nil {
		return nil
	}
	if err := s.channel.Close(); err != nil {
		_ = s.conn.Close()
		return err
	}
	return s.conn.Close()
}

// RoutingKey maps an event type to its topic routing key.
func RoutingKey(eventType EventType) string {
	return "ticket." + string(eventType)
}
