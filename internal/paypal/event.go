package paypal

import (
	"encoding/json"
	"strings"
)

// Event is the webhook envelope.  Resource is kept raw because its shape
// depends on the event type; accessors decode it leniently.
type Event struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	Summary      string          `json:"summary"`
	CreateTime   string          `json:"create_time"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

// ParseEvent decodes a webhook body.  Any JSON object is accepted.
func ParseEvent(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}

type money struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

type resource struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount *money `json:"amount"`

	SellerReceivableBreakdown *struct {
		GrossAmount *money `json:"gross_amount"`
	} `json:"seller_receivable_breakdown"`

	Payer *struct {
		EmailAddress string `json:"email_address"`
		PayerInfo    *struct {
			Email string `json:"email"`
		} `json:"payer_info"`
	} `json:"payer"`

	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

func (e Event) resource() resource {
	var r resource
	if len(e.Resource) == 0 {
		return r
	}
	if err := json.Unmarshal(e.Resource, &r); err != nil {
		// Unknown shapes still yield whatever fields decoded cleanly.
		var partial map[string]json.RawMessage
		if json.Unmarshal(e.Resource, &partial) == nil {
			_ = json.Unmarshal(partial["id"], &r.ID)
			_ = json.Unmarshal(partial["status"], &r.Status)
		}
	}
	return r
}

// Type returns the event type, or UNKNOWN when absent.
func (e Event) Type() string {
	if e.EventType == "" {
		return "UNKNOWN"
	}
	return e.EventType
}

// Amount returns the value and currency from resource.amount, falling back
// to the gross amount of the seller breakdown.  Both are empty when absent.
func (e Event) Amount() (value, currency string) {
	r := e.resource()
	if r.Amount != nil && r.Amount.Value != "" {
		return r.Amount.Value, r.Amount.CurrencyCode
	}
	if b := r.SellerReceivableBreakdown; b != nil && b.GrossAmount != nil {
		return b.GrossAmount.Value, b.GrossAmount.CurrencyCode
	}
	return "", ""
}

// Payer returns the payer email, or "unknown".
func (e Event) Payer() string {
	r := e.resource()
	if r.Payer != nil {
		if r.Payer.EmailAddress != "" {
			return r.Payer.EmailAddress
		}
		if r.Payer.PayerInfo != nil && r.Payer.PayerInfo.Email != "" {
			return r.Payer.PayerInfo.Email
		}
	}
	return "unknown"
}

const capturePrefix = "PAYMENT.CAPTURE."

// IsCapture reports whether the event concerns a payment capture.
func (e Event) IsCapture() bool {
	return strings.HasPrefix(strings.ToUpper(e.EventType), capturePrefix)
}

// CaptureStatus returns the capture's status, derived from the event type
// when the resource carries none.
func (e Event) CaptureStatus() string {
	if s := e.resource().Status; s != "" {
		return s
	}
	return strings.TrimPrefix(strings.ToUpper(e.EventType), capturePrefix)
}

// PaymentExternalID returns the id payments are stored under: the related
// order id when present, else the resource id.
func (e Event) PaymentExternalID() string {
	r := e.resource()
	if id := r.SupplementaryData.RelatedIDs.OrderID; id != "" {
		return id
	}
	return r.ID
}
