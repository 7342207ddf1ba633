// Package notify delivers customer email and SMS notifications through
// NotificationAPI and decides how notification jobs are run.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

type Recipient struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Number string `json:"number,omitempty"`
}

type EmailContent struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type SMSContent struct {
	Message string `json:"message"`
}

// Request is the body of a NotificationAPI send call.
type Request struct {
	Type  string        `json:"type"`
	To    Recipient     `json:"to"`
	Email *EmailContent `json:"email,omitempty"`
	SMS   *SMSContent   `json:"sms,omitempty"`
}

// ClientOptions configures a Client.  Type is the NotificationAPI
// notification id messages are sent under.
type ClientOptions struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Type         string
	HTTPClient   *http.Client
}

type Client struct {
	opts ClientOptions
}

func NewClient(opts ClientOptions) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{opts: opts}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.opts.ClientID != "" && c.opts.ClientSecret != ""
}

// Send posts req to {base}/{clientId}/sender.  An empty req.Type is
// replaced by the configured one.
func (c *Client) Send(ctx context.Context, req Request) error {
	if !c.Configured() {
		return errors.New("notificationapi credentials not configured")
	}
	if req.Type == "" {
		req.Type = c.opts.Type
	}
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "encode notification")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.opts.BaseURL+"/"+c.opts.ClientID+"/sender", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build notification request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.opts.ClientID, c.opts.ClientSecret)

	resp, err := c.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "send notification")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("notificationapi returned status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
