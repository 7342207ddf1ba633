package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/concertify/internal/chat"
	"github.com/iliyamo/concertify/internal/log"
)

// Sender delivers a NotificationAPI request.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, req Request) error
}

// Announcer posts an operator-facing chat message.
type Announcer interface {
	Enabled() bool
	Send(ctx context.Context, msg chat.Message) error
}

// Processor turns jobs into outbound messages.
type Processor struct {
	sender Sender
	chat   Announcer
}

func NewProcessor(sender Sender, announcer Announcer) *Processor {
	return &Processor{sender: sender, chat: announcer}
}

// Handle delivers job.  Jobs that cannot be delivered because messaging is
// unconfigured or the job has no email are skipped with a warning and
// reported as handled.  Delivery errors are returned so a broker consumer
// can reject the message.
func (p *Processor) Handle(ctx context.Context, job Job) error {
	logger := log.FromContext(ctx).WithField("component", "notify").
		WithField("job_id", job.ID).WithField("kind", job.Kind)

	var req Request
	switch job.Kind {
	case KindPaymentConfirmation:
		req = PaymentConfirmation(job)
	case KindReservationApproved:
		req = ReservationApproval(job)
	case KindReservationRejected:
		req = ReservationRejection(job)
	default:
		return errors.Newf("unknown notification kind %q", job.Kind)
	}

	if job.Kind != KindPaymentConfirmation {
		p.announce(ctx, job)
	}

	if p.sender == nil || !p.sender.Configured() {
		logger.Warn("skipping notification: NotificationAPI not configured")
		return nil
	}
	if job.UserEmail == "" {
		logger.Warn("skipping notification: no email provided")
		return nil
	}
	if err := p.sender.Send(ctx, req); err != nil {
		return errors.Wrapf(err, "deliver %s", job.Kind)
	}
	logger.WithField("email", job.UserEmail).Info("notification sent")
	return nil
}

func (p *Processor) announce(ctx context.Context, job Job) {
	if p.chat == nil || !p.chat.Enabled() {
		return
	}
	verb := "approved"
	if job.Kind == KindReservationRejected {
		verb = "rejected"
	}
	msg := chat.Message{
		Content: fmt.Sprintf("Reservation #%d %s", job.ReservationID, verb),
		Embeds: []chat.Embed{{
			Title:       "Reservation " + verb,
			Description: orDefault(job.EventName, "N/A"),
			Fields: []chat.Field{
				{Name: "Customer", Value: orDefault(job.UserEmail, "unknown"), Inline: true},
				{Name: "Seats", Value: orDefault(joinSeats(job.Seats), "-"), Inline: true},
			},
			Timestamp: job.CreatedAt.Format(time.RFC3339),
		}},
	}
	if err := p.chat.Send(ctx, msg); err != nil {
		log.FromContext(ctx).WithField("component", "chat").WithError(err).Warn("reservation announcement failed")
	}
}
