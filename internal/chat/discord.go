// Package chat posts messages to a Discord channel webhook.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
)

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// Message is the Discord execute-webhook payload.
type Message struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Client sends to a single webhook URL.  A Client with an empty URL is
// disabled and Send is a no-op.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(webhookURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{url: webhookURL, http: hc}
}

func (c *Client) Enabled() bool { return c != nil && c.url != "" }

// Send posts msg.  Discord answers 204 on success; any non-2xx status is an
// error.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.Enabled() {
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode discord message")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build discord request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "post discord webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("discord returned status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
