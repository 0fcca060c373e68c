package rabbitmq

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	RoutingKeyKeyframes = "video.keyframes"
	RoutingKeyStatus    = "video.status"
	RoutingKeyProgress  = "video.progress"

	maxBackoff = 60 * time.Second
)

type MessageHandler func(ctx context.Context, body []byte) error

// Consumer runs a pool of workers over the keyframe request queue.
// A handler error requeues the delivery after an exponential backoff.
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	workerCount int
	baseDelay   time.Duration
	handler     MessageHandler
	logger      *zap.Logger
	wg          sync.WaitGroup
}

type ConsumerConfig struct {
	URL           string
	Queue         string
	Exchange      string
	DLQ           string
	StatusQueue   string
	ProgressQueue string
	Prefetch      int
	WorkerCount   int
	BaseDelayMs   int
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	return &Consumer{
		conn:        conn,
		channel:     ch,
		queue:       cfg.Queue,
		workerCount: workers,
		baseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		handler:     handler,
		logger:      logger,
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg ConsumerConfig) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{cfg.Queue, cfg.DLQ, cfg.StatusQueue, cfg.ProgressQueue} {
		if q == "" {
			continue
		}
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	bindings := map[string]string{
		cfg.Queue:         RoutingKeyKeyframes,
		cfg.StatusQueue:   RoutingKeyStatus,
		cfg.ProgressQueue: RoutingKeyProgress,
	}
	for queue, key := range bindings {
		if queue == "" {
			continue
		}
		if err := ch.QueueBind(queue, key, cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(
		ctx,
		c.queue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("starting worker pool",
		zap.Int("workers", c.workerCount),
		zap.String("queue", c.queue),
	)

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, deliveries)
	}

	<-ctx.Done()
	c.logger.Info("context cancelled, waiting for workers to finish")
	c.wg.Wait()
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.Int("worker_id", id))
	log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			c.processDelivery(ctx, d, log)
		}
	}
}

func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	if err := c.handler(ctx, d.Body); err != nil {
		attempt := attemptFromHeaders(d.Headers)
		delay := backoff(c.baseDelay, attempt)
		log.Warn("keyframe job failed, requeueing after backoff",
			zap.Error(err),
			zap.Uint64("delivery_tag", d.DeliveryTag),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			_ = d.Nack(false, true)
			return
		}
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func attemptFromHeaders(headers amqp.Table) int {
	if headers == nil {
		return 1
	}
	if deaths, ok := headers["x-death"].([]interface{}); ok && len(deaths) > 0 {
		return len(deaths)
	}
	return 1
}

func backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > maxBackoff || delay < 0 {
		delay = maxBackoff
	}
	return delay
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
