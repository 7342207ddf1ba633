package queue

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/concertify/internal/log"
	"github.com/iliyamo/concertify/internal/notify"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
	prefetch   = 50
)

// Consumer reads jobs from the notifications queue and hands them to a
// notify.Handler.
type Consumer struct {
	url     string
	handler notify.Handler
}

func NewConsumer(url string, h notify.Handler) *Consumer {
	return &Consumer{url: url, handler: h}
}

// Run keeps a consumer attached to the broker, reconnecting with
// exponential backoff, until ctx is cancelled.  It returns nil on
// cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	logger := log.FromContext(ctx).WithField("component", "queue")
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := dial(c.url)
		if err != nil {
			logger.WithError(err).Warnf("notification consumer: broker unavailable; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minBackoff

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		logger.WithError(err).Warn("notification consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		log.FromContext(ctx).WithError(err).Warn("notification consumer: set QoS failed")
	}
	if err := declare(ch); err != nil {
		return err
	}
	msgs, err := ch.Consume(NotificationQueue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "queue consume")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.process(ctx, d)
		}
	}
}

// process acks handled jobs and rejects failures without requeueing so a
// poisoned message cannot spin the consumer.
func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	logger := log.FromContext(ctx).WithField("component", "queue").WithField("message_id", d.MessageId)

	job, err := decodeJob(d.Body)
	if err == nil {
		err = c.handler.Handle(ctx, job)
	}
	if err != nil {
		logger.WithError(err).Error("notification consumer: handle message failed")
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
