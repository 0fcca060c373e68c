package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func (p *Publisher) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	msg.ContentType = "application/json"
	msg.Timestamp = time.Now().UTC()
	if err := p.channel.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

type StatusPublisher struct {
	pub *Publisher
}

func NewStatusPublisher(pub *Publisher) *StatusPublisher {
	return &StatusPublisher{pub: pub}
}

func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	return sp.pub.publish(ctx, sp.pub.exchange, RoutingKeyStatus, amqp.Publishing{
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
}

// ProgressPublisher sends transient scan progress updates.
type ProgressPublisher struct {
	pub *Publisher
}

func NewProgressPublisher(pub *Publisher) *ProgressPublisher {
	return &ProgressPublisher{pub: pub}
}

func (pp *ProgressPublisher) PublishProgress(ctx context.Context, msg []byte) error {
	return pp.pub.publish(ctx, pp.pub.exchange, RoutingKeyProgress, amqp.Publishing{
		Body:         msg,
		DeliveryMode: amqp.Transient,
		Expiration:   "60000",
	})
}

type DLQPublisher struct {
	pub   *Publisher
	queue string
}

func NewDLQPublisher(pub *Publisher, dlqQueue string) *DLQPublisher {
	return &DLQPublisher{pub: pub, queue: dlqQueue}
}

func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	return dp.pub.publish(ctx, "", dp.queue, amqp.Publishing{
		Body:         msg,
		DeliveryMode: amqp.Persistent,
		Headers: amqp.Table{
			"x-dlq-reason": reason,
		},
	})
}
