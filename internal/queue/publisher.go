package queue

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/concertify/internal/log"
	"github.com/iliyamo/concertify/internal/notify"
)

// Publisher implements notify.Dispatcher by publishing jobs to the
// notifications queue.  Each publish opens its own connection; notification
// volume is a handful of messages per reservation.
type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// Dispatch publishes job as a persistent JSON message on the default
// exchange.
func (p *Publisher) Dispatch(ctx context.Context, job notify.Job) error {
	logger := log.FromContext(ctx).WithField("component", "queue").WithField("job_id", job.ID)

	msg, err := encodeJob(job)
	if err != nil {
		return err
	}
	conn, err := dial(p.url)
	if err != nil {
		logger.WithError(err).Error("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.WithError(err).Error("rabbitmq: channel open failed")
		return errors.Wrap(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		logger.WithError(err).Error("rabbitmq: queue declare failed")
		return err
	}
	if err := ch.PublishWithContext(ctx, "", NotificationQueue, false, false, msg); err != nil {
		logger.WithError(err).Error("rabbitmq: publish failed")
		return errors.Wrap(err, "publish job")
	}
	logger.WithField("kind", job.Kind).Debug("notification job published")
	return nil
}
