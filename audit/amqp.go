package audit

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"healthadmin-backend/database"
	"healthadmin-backend/ledger"
)

// Publisher sends one message body to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg amqp.Publishing) error
	Close() error
}

// AMQPClient owns a RabbitMQ connection and channel.
type AMQPClient struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

// DialAMQP connects and declares the durable audit queue.
func DialAMQP(url, queue string) (*AMQPClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := chn.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = chn.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &AMQPClient{conn: conn, chn: chn}, nil
}

func (c *AMQPClient) Publish(ctx context.Context, queue string, msg amqp.Publishing) error {
	return c.chn.PublishWithContext(ctx, "", queue, false, false, msg)
}

func (c *AMQPClient) Close() error {
	if err := c.chn.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}

// AMQPSink publishes persistent JSON events to a queue on the default exchange.
type AMQPSink struct {
	pub   Publisher
	queue string
}

func NewAMQPSink(pub Publisher, queue string) *AMQPSink {
	return &AMQPSink{pub: pub, queue: queue}
}

func (s *AMQPSink) Record(ctx context.Context, ev ledger.AuditEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.pub.Publish(ctx, s.queue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Action,
		Timestamp:    ev.OccurredAt,
		Headers:      amqp.Table{"tenant": database.SchemaFromContext(ctx)},
		Body:         body,
	})
}

func (s *AMQPSink) Close() error {
	return s.pub.Close()
}
