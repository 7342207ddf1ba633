package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/concertify/internal/log"
	"github.com/iliyamo/concertify/internal/middleware"
	"github.com/iliyamo/concertify/internal/model"
	"github.com/iliyamo/concertify/internal/notify"
	"github.com/iliyamo/concertify/internal/repository"
)

// ReservationStore is the persistence the reservation endpoints need.
type ReservationStore interface {
	List(ctx context.Context) ([]model.Reservation, error)
	ListByEmail(ctx context.Context, email string) ([]model.Reservation, error)
	Create(ctx context.Context, in repository.NewReservation) (uint64, error)
	UpdateStatus(ctx context.Context, id uint64, status string) (model.Reservation, error)
}

type ReservationHandler struct {
	store      ReservationStore
	dispatcher notify.Dispatcher
}

func NewReservationHandler(store ReservationStore, d notify.Dispatcher) *ReservationHandler {
	return &ReservationHandler{store: store, dispatcher: d}
}

type createReservationReq struct {
	EventID      flexString          `json:"eventId"`
	EventName    flexString          `json:"eventName"`
	UserEmail    flexString          `json:"userEmail"`
	Seats        []string            `json:"seats"`
	PricePerSeat decimal.NullDecimal `json:"pricePerSeat"`
	Total        decimal.NullDecimal `json:"total"`
	Status       string              `json:"status"`
	PaymentID    flexString          `json:"paymentId"`
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// List returns all reservations, newest first.
func (h *ReservationHandler) List(c echo.Context) error {
	rows, err := h.store.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// Mine returns the reservations booked under the caller's email.
func (h *ReservationHandler) Mine(c echo.Context) error {
	email := middleware.UserEmail(c)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rows, err := h.store.ListByEmail(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// Create stores a reservation.  eventName and total are required.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventName.ptr() == nil || !req.Total.Valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "eventName and total are required"})
	}

	ctx := c.Request().Context()
	id, err := h.store.Create(ctx, repository.NewReservation{
		EventID:      req.EventID.ptr(),
		EventName:    req.EventName.ptr(),
		UserEmail:    req.UserEmail.ptr(),
		Seats:        req.Seats,
		PricePerSeat: req.PricePerSeat,
		Total:        req.Total,
		Status:       strings.TrimSpace(req.Status),
		PaymentID:    req.PaymentID.ptr(),
	})
	if err != nil {
		log.FromContext(ctx).WithError(err).WithFields(logrus.Fields{
			"event_id":   req.EventID.Value,
			"event_name": req.EventName.Value,
			"user_email": req.UserEmail.Value,
			"seat_count": len(req.Seats),
			"total":      req.Total.Decimal.String(),
			"payment_id": req.PaymentID.Value,
		}).Error("[reservations] insert failed")
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// UpdateStatus changes a reservation's status.  Moving into approved or
// rejected from any other status queues exactly one customer notification.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	ctx := c.Request().Context()
	prev, err := h.store.UpdateStatus(ctx, id, status)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}
	if err != nil {
		return err
	}

	if kind, ok := notify.DecisionKind(status); ok && model.StatusChanged(prev.Status, status) {
		h.queueDecision(ctx, kind, prev)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (h *ReservationHandler) queueDecision(ctx context.Context, kind notify.Kind, r model.Reservation) {
	if h.dispatcher == nil {
		return
	}
	job := notify.NewJob(kind)
	job.ReservationID = r.ID
	job.Seats = r.Seats
	job.Total = r.Total
	if r.UserEmail != nil {
		job.UserEmail = *r.UserEmail
	}
	if r.EventName != nil {
		job.EventName = *r.EventName
	}
	if r.PaymentID != nil {
		job.PaymentID = *r.PaymentID
	}
	if err := h.dispatcher.Dispatch(ctx, job); err != nil {
		log.FromContext(ctx).WithError(err).WithField("reservation_id", r.ID).
			Error("[reservations] notification dispatch failed")
	}
}
