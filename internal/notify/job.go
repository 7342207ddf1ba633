package notify

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind selects the message a Job produces.
type Kind string

const (
	KindPaymentConfirmation Kind = "payment_confirmation"
	KindReservationApproved Kind = "reservation_approved"
	KindReservationRejected Kind = "reservation_rejected"
)

// Job is one pending customer notification.  It is serialized as JSON when
// it travels through the broker.
type Job struct {
	ID            string              `json:"id"`
	Kind          Kind                `json:"kind"`
	UserEmail     string              `json:"user_email"`
	UserPhone     string              `json:"user_phone,omitempty"`
	EventName     string              `json:"event_name,omitempty"`
	Amount        decimal.NullDecimal `json:"amount"`
	Currency      string              `json:"currency,omitempty"`
	PaymentID     string              `json:"payment_id,omitempty"`
	ReservationID uint64              `json:"reservation_id,omitempty"`
	Seats         []string            `json:"seats,omitempty"`
	Total         decimal.NullDecimal `json:"total"`
	CreatedAt     time.Time           `json:"created_at"`
}

// NewJob returns a job of kind with a fresh id.
func NewJob(kind Kind) Job {
	return Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Currency:  "USD",
		CreatedAt: time.Now().UTC(),
	}
}

// DecisionKind maps a reservation status onto its notification kind.
func DecisionKind(status string) (Kind, bool) {
	switch normalize(status) {
	case "approved":
		return KindReservationApproved, true
	case "rejected":
		return KindReservationRejected, true
	}
	return "", false
}
