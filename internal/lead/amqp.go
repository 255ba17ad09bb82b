package lead

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/evcraddock/biens/internal/logging"
)

const publishTimeout = 10 * time.Second

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes leads as JSON events to a topic exchange, with
// routing key "lead.<kind>".
type AMQPNotifier struct {
	exchange string
	conn     *amqp.Connection
	ch       amqpChannel
}

// NewAMQPNotifier connects to the broker at url and declares exchange as
// a durable topic exchange.
func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	if exchange == "" {
		return nil, fmt.Errorf("amqp exchange name is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	return &AMQPNotifier{exchange: exchange, conn: conn, ch: ch}, nil
}

// Name implements Notifier.
func (a *AMQPNotifier) Name() string { return "amqp" }

// RoutingKey returns the routing key leads of kind are published with.
func RoutingKey(kind Kind) string {
	return "lead." + string(kind)
}

// Notify implements Notifier.
func (a *AMQPNotifier) Notify(ctx context.Context, l *Lead) error {
	body, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encoding lead: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    l.ReceivedAt,
		Type:         string(l.Kind),
		Body:         body,
		Headers:      amqp.Table{},
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Headers["x-request-id"] = id
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := a.ch.PublishWithContext(ctx, a.exchange, RoutingKey(l.Kind), false, false, msg); err != nil {
		return fmt.Errorf("publishing %s lead: %w", l.Kind, err)
	}
	return nil
}

// Close closes the channel and the broker connection.
func (a *AMQPNotifier) Close() error {
	var first error
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			first = fmt.Errorf("closing amqp channel: %w", err)
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil && first == nil {
			first = fmt.Errorf("closing amqp connection: %w", err)
		}
	}
	return first
}
