// Package queue moves notification jobs through RabbitMQ so that request
// handlers never wait on outbound messaging.
package queue

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/concertify/internal/notify"
)

// NotificationQueue is the durable queue carrying notify.Job messages.
const NotificationQueue = "notifications"

const dialTimeout = 5 * time.Second

func dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, errors.Wrap(err, "dial broker")
	}
	return conn, nil
}

// declare makes sure the queue exists.  Durable so jobs survive broker
// restarts.
func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil)
	return errors.Wrap(err, "queue declare")
}

func encodeJob(job notify.Job) (amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, errors.Wrap(err, "marshal job")
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Type:         string(job.Kind),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}

func decodeJob(body []byte) (notify.Job, error) {
	var job notify.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return job, errors.Wrap(err, "unmarshal job")
	}
	if job.Kind == "" {
		return job, errors.New("job has no kind")
	}
	return job, nil
}
