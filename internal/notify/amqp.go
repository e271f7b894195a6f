package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPNotifier публикует события жизненного цикла в topic-exchange.
type AMQPNotifier struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notify: dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("notify: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("notify: declare exchange: %w", err)
	}
	return &AMQPNotifier{conn: conn, ch: ch, exchange: exchange}, nil
}

func (n *AMQPNotifier) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}
	return n.ch.PublishWithContext(ctx, n.exchange, ev.Route, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
}

func (n *AMQPNotifier) Close() error {
	if err := n.ch.Close(); err != nil {
		_ = n.conn.Close()
		return err
	}
	return n.conn.Close()
}
