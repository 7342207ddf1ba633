// Package service holds request-independent workflows shared by handlers.
package service

import (
	"context"
	"net/http"
	"time"

	"github.com/iliyamo/concertify/internal/chat"
	"github.com/iliyamo/concertify/internal/log"
	"github.com/iliyamo/concertify/internal/notify"
	"github.com/iliyamo/concertify/internal/paypal"
)

// Verifier confirms a webhook delivery is authentic.
type Verifier interface {
	Verify(ctx context.Context, h http.Header, body []byte) error
}

// PaymentStatusUpdater records a capture outcome against stored payments.
type PaymentStatusUpdater interface {
	UpdateStatusByExternalID(ctx context.Context, externalID, status string) (int64, error)
}

// Webhook verifies PayPal deliveries and fans verified events out to the
// operators' chat channel and the payments table.
type Webhook struct {
	verifier Verifier
	chat     notify.Announcer
	payments PaymentStatusUpdater
	now      func() time.Time
}

func NewWebhook(v Verifier, announcer notify.Announcer, payments PaymentStatusUpdater) *Webhook {
	return &Webhook{verifier: v, chat: announcer, payments: payments, now: time.Now}
}

// Process verifies the delivery and, once verified, forwards it.  Only the
// verification error is returned; forwarding is best-effort.
func (w *Webhook) Process(ctx context.Context, h http.Header, body []byte, event paypal.Event) error {
	logger := log.FromContext(ctx).WithField("component", "paypal_webhook").
		WithField("event_id", event.ID).WithField("event_type", event.Type())

	if err := w.verifier.Verify(ctx, h, body); err != nil {
		logger.WithError(err).Warn("verification failed")
		return err
	}

	if w.chat != nil && w.chat.Enabled() {
		if err := w.chat.Send(ctx, EventMessage(event, w.now())); err != nil {
			logger.WithError(err).Warn("discord forward failed")
		}
	}

	if event.IsCapture() && w.payments != nil {
		if id := event.PaymentExternalID(); id != "" {
			n, err := w.payments.UpdateStatusByExternalID(ctx, id, event.CaptureStatus())
			if err != nil {
				logger.WithError(err).Warn("payment status update failed")
			} else {
				logger.WithField("external_id", id).WithField("rows", n).Info("payment status updated")
			}
		}
	}
	return nil
}

// EventMessage renders event as a Discord message.  now stamps events that
// carry no create_time.
func EventMessage(event paypal.Event, now time.Time) chat.Message {
	var fields []chat.Field
	if value, currency := event.Amount(); value != "" {
		fields = append(fields, chat.Field{Name: "Amount", Value: value + " " + currency, Inline: true})
	}
	fields = append(fields,
		chat.Field{Name: "Payer", Value: event.Payer(), Inline: true},
		chat.Field{Name: "ID", Value: orNA(event.ID)},
	)

	title := event.EventType
	if title == "" {
		title = "PayPal Webhook"
	}
	ts := event.CreateTime
	if ts == "" {
		ts = now.UTC().Format(time.RFC3339)
	}
	return chat.Message{
		Content: "PayPal event: " + event.Type(),
		Embeds: []chat.Embed{{
			Title:       title,
			Description: event.Summary,
			Fields:      fields,
			Timestamp:   ts,
		}},
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
