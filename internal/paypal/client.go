// Package paypal verifies webhook deliveries against the PayPal REST API
// and decodes the event envelope.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	// ErrUpstream marks failures talking to PayPal: token exchange, network
	// errors and unreadable responses.
	ErrUpstream = errors.New("paypal unavailable")
	// ErrNotVerified means PayPal answered but did not confirm the
	// signature.
	ErrNotVerified = errors.New("webhook signature not verified")
)

// Options configures a Client.  HTTPClient bounds both the token exchange
// and the verification call.
type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	WebhookID    string
	SkipVerify   bool
	HTTPClient   *http.Client
}

type Client struct {
	baseURL    string
	webhookID  string
	skipVerify bool
	configured bool
	http       *http.Client
}

// NewClient builds a client whose requests carry a cached client-credentials
// bearer token.
func NewClient(opts Options) *Client {
	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := cc.Client(tokenCtx)
	hc.Timeout = base.Timeout

	return &Client{
		baseURL:    baseURL,
		webhookID:  opts.WebhookID,
		skipVerify: opts.SkipVerify,
		configured: opts.ClientID != "" && opts.ClientSecret != "",
		http:       hc,
	}
}

// Headers PayPal attaches to every webhook delivery.
const (
	HeaderTransmissionID   = "Paypal-Transmission-Id"
	HeaderTransmissionTime = "Paypal-Transmission-Time"
	HeaderCertURL          = "Paypal-Cert-Url"
	HeaderAuthAlgo         = "Paypal-Auth-Algo"
	HeaderTransmissionSig  = "Paypal-Transmission-Sig"
)

type verifyRequest struct {
	TransmissionID   string          `json:"transmission_id"`
	TransmissionTime string          `json:"transmission_time"`
	CertURL          string          `json:"cert_url"`
	AuthAlgo         string          `json:"auth_algo"`
	TransmissionSig  string          `json:"transmission_sig"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// Verify asks PayPal whether the delivery described by h and body is
// authentic.  body must be the raw JSON event.  With SkipVerify set it
// returns nil without any network call.
func (c *Client) Verify(ctx context.Context, h http.Header, body []byte) error {
	if c.skipVerify {
		return nil
	}
	if !c.configured {
		return errors.Mark(errors.New("paypal credentials not configured"), ErrUpstream)
	}

	payload, err := json.Marshal(verifyRequest{
		TransmissionID:   h.Get(HeaderTransmissionID),
		TransmissionTime: h.Get(HeaderTransmissionTime),
		CertURL:          h.Get(HeaderCertURL),
		AuthAlgo:         h.Get(HeaderAuthAlgo),
		TransmissionSig:  h.Get(HeaderTransmissionSig),
		WebhookID:        c.webhookID,
		WebhookEvent:     json.RawMessage(body),
	})
	if err != nil {
		return errors.Wrap(err, "encode verify request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/notifications/verify-webhook-signature", bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build verify request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "verify webhook signature"), ErrUpstream)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Mark(errors.Wrap(err, "read verify response"), ErrUpstream)
	}
	var out verifyResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Mark(errors.Newf("verify returned status %d: %s", resp.StatusCode, truncate(raw, 256)), ErrNotVerified)
	}
	if out.VerificationStatus != "SUCCESS" {
		return errors.Mark(errors.Newf("verification_status %q", out.VerificationStatus), ErrNotVerified)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
