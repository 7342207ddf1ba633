package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concertify/internal/catalog"
	"github.com/iliyamo/concertify/internal/log"
	"github.com/iliyamo/concertify/internal/model"
	"github.com/iliyamo/concertify/internal/repository"
	"github.com/iliyamo/concertify/internal/seatmap"
)

// Catalog is the upstream concert listing.
type Catalog interface {
	Configured() bool
	Search(ctx context.Context, p catalog.SearchParams) (model.EventPage, error)
	Event(ctx context.Context, id string) (model.Event, error)
}

// SeatLedger reports seats already claimed for an event.
type SeatLedger interface {
	ReservedSeats(ctx context.Context, eventID string) ([]string, error)
}

type EventHandler struct {
	catalog Catalog
	seats   SeatLedger
}

func NewEventHandler(c Catalog, seats SeatLedger) *EventHandler {
	return &EventHandler{catalog: c, seats: seats}
}

// List searches concerts.  page is zero based.
func (h *EventHandler) List(c echo.Context) error {
	if !h.catalog.Configured() {
		return catalogUnavailable(c)
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	ctx := c.Request().Context()
	res, err := h.catalog.Search(ctx, catalog.SearchParams{
		Keyword: c.QueryParam("keyword"),
		Page:    page,
		Size:    size,
	})
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *EventHandler) Get(c echo.Context) error {
	if !h.catalog.Configured() {
		return catalogUnavailable(c)
	}
	ev, err := h.catalog.Event(c.Request().Context(), c.Param("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// Seats returns the seat grid for an event.  The catalog only supplies the
// price, so the grid is still served when it is down or unconfigured.
func (h *EventHandler) Seats(c echo.Context) error {
	ctx := c.Request().Context()
	eventID := c.Param("id")
	logger := log.FromContext(ctx).WithField("event_id", eventID)

	price := seatmap.DefaultPrice
	if h.catalog != nil && h.catalog.Configured() {
		ev, err := h.catalog.Event(ctx, eventID)
		switch {
		case err != nil:
			logger.WithError(err).Debug("seat price falls back to default")
		case ev.PriceMin.Valid:
			price = ev.PriceMin.Decimal
		}
	}

	var reserved []string
	if h.seats != nil {
		var err error
		reserved, err = h.seats.ReservedSeats(ctx, eventID)
		if errors.Is(err, repository.ErrNotConfigured) {
			logger.Warn("database disabled; reserved seats not marked")
		} else if err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, seatmap.Generate(eventID, reserved, price))
}

func catalogUnavailable(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "event catalog not configured"})
}

func upstreamError(c echo.Context, err error) error {
	log.FromContext(c.Request().Context()).WithError(err).Warn("[events] catalog request failed")
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "event catalog unavailable"})
}
