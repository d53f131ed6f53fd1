// Package notification hands verification messages to a delivery channel.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
)

var _ model.Notifier = (*AMQPNotifier)(nil)

// publisher is the part of *amqp.Channel the notifier uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Envelope is the JSON body published for every message. Email and SMS
// workers consume it from the queue.
type Envelope struct {
	Kind             model.MessageKind  `json:"kind"`
	Channel          model.IdentityKind `json:"channel"`
	Recipient        string             `json:"recipient"`
	Subject          string             `json:"subject,omitempty"`
	Body             string             `json:"body"`
	ExpiresInSeconds int64              `json:"expires_in_seconds,omitempty"`
	SentAt           time.Time          `json:"sent_at"`
}

// AMQPNotifier publishes messages to a durable RabbitMQ queue.
type AMQPNotifier struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     publisher
	queue  string
	logger *logger.Logger
	now    func() time.Time
}

// DialAMQP connects to url and declares queue.
func DialAMQP(url, queue string, logger *logger.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	n := NewAMQPNotifier(ch, queue, logger)
	n.conn = conn
	return n, nil
}

// NewAMQPNotifier publishes through an already open channel.
func NewAMQPNotifier(ch publisher, queue string, logger *logger.Logger) *AMQPNotifier {
	return &AMQPNotifier{
		ch:     ch,
		queue:  queue,
		logger: logger,
		now:    time.Now,
	}
}

func (n *AMQPNotifier) Send(ctx context.Context, identity model.Identity, message model.Message) error {
	body, err := json.Marshal(Envelope{
		Kind:             message.Kind,
		Channel:          identity.Kind,
		Recipient:        identity.Key,
		Subject:          message.Subject,
		Body:             message.Body,
		ExpiresInSeconds: int64(message.ExpiresIn / time.Second),
		SentAt:           n.now().UTC(),
	})
	if err != nil {
		return model.ErrDelivery.Wrap(fmt.Errorf("failed to encode message: %w", err))
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    n.now().UTC(),
		Type:         string(message.Kind),
		Body:         body,
	}

	n.mu.Lock()
	err = n.ch.PublishWithContext(ctx, "", n.queue, false, false, pub)
	n.mu.Unlock()
	if err != nil {
		n.logger.Error("Notifier: failed to publish message", "queue", n.queue, "kind", message.Kind, "error", err.Error())
		return model.ErrDelivery.Wrap(fmt.Errorf("failed to publish message: %w", err))
	}

	n.logger.Debug("Notifier: message published", "queue", n.queue, "kind", message.Kind, "message_id", pub.MessageId)
	return nil
}

// Close closes the channel and, when dialed, the connection.
func (n *AMQPNotifier) Close() error {
	if err := n.ch.Close(); err != nil {
		return fmt.Errorf("failed to close amqp channel: %w", err)
	}
	if n.conn != nil {
		if err := n.conn.Close(); err != nil {
			return fmt.Errorf("failed to close amqp connection: %w", err)
		}
	}
	return nil
}
