package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Reservation statuses used by the admin workflow.  The column is free
// text, so other values are stored as given.
const (
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

// Reservation is a customer's claim on a set of event seats.  JSON field
// names follow the reservations table so list responses mirror the rows.
//
// PaymentID links to payments.external_id by convention only; nothing in
// the schema enforces it.
type Reservation struct {
	ID           uint64              `json:"id"`
	EventID      *string             `json:"event_id"`
	EventName    *string             `json:"event_name"`
	UserEmail    *string             `json:"user_email"`
	Seats        []string            `json:"seats_json"`
	PricePerSeat decimal.NullDecimal `json:"price_per_seat"`
	Total        decimal.NullDecimal `json:"total"`
	Status       string              `json:"status"`
	PaymentID    *string             `json:"payment_id"`
	CreatedAt    time.Time           `json:"created_at"`
}

// IsDecision reports whether status is one of the terminal admin decisions
// that trigger a customer notification.
func IsDecision(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	return s == StatusApproved || s == StatusRejected
}

// StatusChanged compares two statuses case-insensitively.
func StatusChanged(prev, next string) bool {
	return !strings.EqualFold(strings.TrimSpace(prev), strings.TrimSpace(next))
}
