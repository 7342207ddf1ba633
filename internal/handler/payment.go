package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/concertify/internal/log"
	"github.com/iliyamo/concertify/internal/model"
	"github.com/iliyamo/concertify/internal/notify"
	"github.com/iliyamo/concertify/internal/repository"
)

type PaymentStore interface {
	List(ctx context.Context) ([]model.Payment, error)
	Create(ctx context.Context, in repository.NewPayment) (uint64, error)
}

type PaymentHandler struct {
	store      PaymentStore
	dispatcher notify.Dispatcher
}

func NewPaymentHandler(store PaymentStore, d notify.Dispatcher) *PaymentHandler {
	return &PaymentHandler{store: store, dispatcher: d}
}

type createPaymentReq struct {
	Provider   flexString          `json:"provider"`
	ExternalID flexString          `json:"externalId"`
	Status     flexString          `json:"status"`
	Amount     decimal.NullDecimal `json:"amount"`
	Currency   string              `json:"currency"`
	Raw        json.RawMessage     `json:"raw"`
	UserEmail  string              `json:"userEmail"`
	UserPhone  string              `json:"userPhone"`
	EventName  string              `json:"eventName"`
}

// rawOrder is the part of a PayPal order payload used to fill in missing
// contact details.
type rawOrder struct {
	Payer struct {
		Email string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Description string `json:"description"`
	} `json:"purchase_units"`
}

func (h *PaymentHandler) List(c echo.Context) error {
	rows, err := h.store.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// Create records a payment.  A successful status also queues a payment
// confirmation for the payer.
func (h *PaymentHandler) Create(c echo.Context) error {
	var req createPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	raw := req.Raw
	if len(raw) == 0 || string(raw) == "null" {
		raw = nil
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = "USD"
	}

	ctx := c.Request().Context()
	id, err := h.store.Create(ctx, repository.NewPayment{
		Provider:   req.Provider.ptr(),
		ExternalID: req.ExternalID.ptr(),
		Status:     req.Status.ptr(),
		Amount:     req.Amount,
		Currency:   currency,
		Raw:        raw,
	})
	if err != nil {
		log.FromContext(ctx).WithError(err).WithFields(logrus.Fields{
			"provider":    req.Provider.Value,
			"external_id": req.ExternalID.Value,
			"status":      req.Status.Value,
		}).Error("[payments] insert failed")
		return err
	}

	if model.IsSuccessfulPaymentStatus(req.Status.Value) {
		h.confirm(ctx, req, currency, raw)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

func (h *PaymentHandler) confirm(ctx context.Context, req createPaymentReq, currency string, raw json.RawMessage) {
	if h.dispatcher == nil {
		return
	}
	var order rawOrder
	if len(raw) > 0 {
		// Raw payloads from other providers simply leave order empty.
		_ = json.Unmarshal(raw, &order)
	}

	job := notify.NewJob(notify.KindPaymentConfirmation)
	job.UserEmail = firstNonEmpty(req.UserEmail, order.Payer.Email)
	job.UserPhone = strings.TrimSpace(req.UserPhone)
	job.EventName = req.EventName
	if strings.TrimSpace(job.EventName) == "" && len(order.PurchaseUnits) > 0 {
		job.EventName = order.PurchaseUnits[0].Description
	}
	job.Amount = req.Amount
	job.Currency = currency
	job.PaymentID = req.ExternalID.Value

	if err := h.dispatcher.Dispatch(ctx, job); err != nil {
		log.FromContext(ctx).WithError(err).WithField("external_id", job.PaymentID).
			Error("[payments] confirmation dispatch failed")
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
