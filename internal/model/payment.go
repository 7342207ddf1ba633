package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Payment records funds captured through a payment provider.  Raw keeps the
// provider payload exactly as submitted.
type Payment struct {
	ID         uint64              `json:"id"`
	Provider   *string             `json:"provider"`
	ExternalID *string             `json:"external_id"`
	Status     *string             `json:"status"`
	Amount     decimal.NullDecimal `json:"amount"`
	Currency   string              `json:"currency"`
	Raw        json.RawMessage     `json:"raw_json"`
	CreatedAt  time.Time           `json:"created_at"`
}

var successStatuses = map[string]bool{
	"completed": true,
	"success":   true,
	"succeeded": true,
	"paid":      true,
	"captured":  true,
}

// IsSuccessfulPaymentStatus reports whether a provider status means the
// funds were captured.
func IsSuccessfulPaymentStatus(status string) bool {
	return successStatuses[strings.ToLower(strings.TrimSpace(status))]
}
