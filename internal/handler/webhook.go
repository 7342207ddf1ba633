package handler

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concertify/internal/log"
	"github.com/iliyamo/concertify/internal/paypal"
)

// maxWebhookBody caps how much of a delivery is read.
const maxWebhookBody = 1 << 20

// WebhookProcessor verifies and forwards one delivery.
type WebhookProcessor interface {
	Process(ctx context.Context, h http.Header, body []byte, event paypal.Event) error
}

// WebhookHandler receives PayPal deliveries.  In sync mode the response
// reflects the verification outcome; in async mode every delivery is
// acknowledged immediately and verified in the background.
type WebhookHandler struct {
	svc     WebhookProcessor
	async   bool
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewWebhookHandler(svc WebhookProcessor, async bool, timeout time.Duration) *WebhookHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookHandler{svc: svc, async: async, timeout: timeout}
}

func (h *WebhookHandler) PayPal(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	ctx := c.Request().Context()
	logger := log.FromContext(ctx).WithField("component", "paypal_webhook")

	event, parseErr := paypal.ParseEvent(body)
	if h.async {
		if parseErr != nil {
			logger.WithError(parseErr).Warn("ignoring malformed delivery")
			return c.JSON(http.StatusOK, echo.Map{"ok": true})
		}
		headers := c.Request().Header.Clone()
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
			defer cancel()
			// Process logs its own failures.
			_ = h.svc.Process(bgCtx, headers, body, event)
		}()
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}

	if parseErr != nil {
		logger.WithError(parseErr).Warn("malformed delivery")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON"})
	}
	err = h.svc.Process(ctx, c.Request().Header, body, event)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	case errors.Is(err, paypal.ErrNotVerified):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "webhook verification failed"})
	case errors.Is(err, paypal.ErrUpstream):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "webhook verification unavailable"})
	}
	return err
}

// Wait blocks until background verifications finish or ctx ends.
func (h *WebhookHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
