package events

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type ConsumerConfig struct {
	URL      string
	Exchange string
	Queue    string
	Bindings []string
	Prefetch int
	// DLX receives deliveries that were rejected without requeue.
	DLX      string
	DLXQueue string
	Tag      string
}

type Consumer struct {
	cfg      ConsumerConfig
	notifier Notifier
	log      logrus.FieldLogger

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(cfg ConsumerConfig, n Notifier, log logrus.FieldLogger) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 8
	}
	return &Consumer{cfg: cfg, notifier: n, log: log}
}

// Connect declares the exchange, the queue and its bindings, and the
// dead-letter pair when configured.
func (c *Consumer) Connect() error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("rabbit dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel failed: %w", err)
	}
	fail := func(err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	args := amqp.Table{}
	if c.cfg.DLX != "" {
		if err := ch.ExchangeDeclare(c.cfg.DLX, "topic", true, false, false, false, nil); err != nil {
			return fail(fmt.Errorf("declare dlx failed: %w", err))
		}
		if _, err := ch.QueueDeclare(c.cfg.DLXQueue, true, false, false, false, nil); err != nil {
			return fail(fmt.Errorf("declare dlq failed: %w", err))
		}
		if err := ch.QueueBind(c.cfg.DLXQueue, "#", c.cfg.DLX, false, nil); err != nil {
			return fail(fmt.Errorf("bind dlq failed: %w", err))
		}
		args["x-dead-letter-exchange"] = c.cfg.DLX
	}

	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("declare exchange %s failed: %w", c.cfg.Exchange, err))
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, args)
	if err != nil {
		return fail(fmt.Errorf("declare queue failed: %w", err))
	}
	for _, key := range c.cfg.Bindings {
		if err := ch.QueueBind(q.Name, key, c.cfg.Exchange, false, nil); err != nil {
			return fail(fmt.Errorf("bind key=%s failed: %w", key, err))
		}
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fail(fmt.Errorf("set qos failed: %w", err))
	}

	c.conn, c.ch = conn, ch
	return nil
}

func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Run consumes until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.cfg.Queue, c.cfg.Tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.settle(d, c.Handle(d.RoutingKey, d.Body))
		}
	}
}

// settle acks on success, dead-letters malformed payloads and requeues
// everything else.
func (c *Consumer) settle(d amqp.Delivery, err error) {
	entry := c.log.WithField("routing_key", d.RoutingKey)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrMalformed):
		entry.WithError(err).Warn("dead-lettering delivery")
		_ = d.Nack(false, false)
	default:
		entry.WithError(err).Error("handle failed, requeueing")
		_ = d.Nack(false, true)
	}
}

// Handle formats one delivery and passes it to the notifier. Unknown keys
// are accepted and skipped.
func (c *Consumer) Handle(key string, body []byte) error {
	subject, message, ok, err := Format(key, body)
	if err != nil {
		return err
	}
	if !ok {
		c.log.WithField("routing_key", key).Debug("skip unknown key")
		return nil
	}
	return c.notifier.Notify(subject, message)
}
