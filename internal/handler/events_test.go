package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concertify/internal/catalog"
	"github.com/iliyamo/concertify/internal/model"
	"github.com/iliyamo/concertify/internal/repository"
)

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) Configured() bool { return m.Called().Bool(0) }

func (m *mockCatalog) Search(ctx context.Context, p catalog.SearchParams) (model.EventPage, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.EventPage), args.Error(1)
}

func (m *mockCatalog) Event(ctx context.Context, id string) (model.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Event), args.Error(1)
}

type fakeLedger struct {
	seats []string
	err   error
}

func (f fakeLedger) ReservedSeats(context.Context, string) ([]string, error) { return f.seats, f.err }

func TestListEvents(t *testing.T) {
	cat := new(mockCatalog)
	cat.On("Configured").Return(true)
	cat.On("Search", mock.Anything, catalog.SearchParams{Keyword: "jazz", Page: 2, Size: 5}).Return(model.EventPage{
		Events: []model.Event{{ID: "E1", Name: "Jazz Night", Date: "2026-11-01", Venue: "Hall"}},
		Page:   model.PageInfo{Number: 2, Size: 5, TotalPages: 3, TotalElements: 11},
	}, nil).Once()

	e := newEcho()
	e.GET("/api/events", NewEventHandler(cat, nil).List)
	rec := do(e, http.MethodGet, "/api/events?keyword=jazz&page=2&size=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page model.EventPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Events, 1)
	assert.Equal(t, "Jazz Night", page.Events[0].Name)
	assert.Equal(t, 11, page.Page.TotalElements)
	cat.AssertExpectations(t)
}

func TestEventsUnconfiguredAndUpstreamErrors(t *testing.T) {
	off := new(mockCatalog)
	off.On("Configured").Return(false)
	down := new(mockCatalog)
	down.On("Configured").Return(true)
	down.On("Search", mock.Anything, mock.Anything).Return(model.EventPage{}, errors.New("timeout"))
	down.On("Event", mock.Anything, "missing").Return(model.Event{}, catalog.ErrNotFound)
	down.On("Event", mock.Anything, "E1").Return(model.Event{}, errors.New("timeout"))

	e := newEcho()
	e.GET("/off", NewEventHandler(off, nil).List)
	e.GET("/off/:id", NewEventHandler(off, nil).Get)
	e.GET("/down", NewEventHandler(down, nil).List)
	e.GET("/down/:id", NewEventHandler(down, nil).Get)

	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/off", "", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/off/E1", "", nil).Code)
	assert.Equal(t, http.StatusBadGateway, do(e, http.MethodGet, "/down", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/down/missing", "", nil).Code)
	assert.Equal(t, http.StatusBadGateway, do(e, http.MethodGet, "/down/E1", "", nil).Code)
}

func TestSeatsUseCatalogPriceAndReservations(t *testing.T) {
	cat := new(mockCatalog)
	cat.On("Configured").Return(true)
	cat.On("Event", mock.Anything, "E1").Return(model.Event{
		ID:       "E1",
		PriceMin: decimal.NewNullDecimal(decimal.RequireFromString("72.5")),
	}, nil)

	e := newEcho()
	e.GET("/api/events/:id/seats", NewEventHandler(cat, fakeLedger{seats: []string{"J14"}}).Seats)
	rec := do(e, http.MethodGet, "/api/events/E1/seats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sm model.SeatMap
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sm))
	assert.Equal(t, "E1", sm.EventID)
	assert.True(t, sm.PricePerSeat.Equal(decimal.RequireFromString("72.5")))
	assert.Equal(t, 6, sm.MaxSelectable)
	require.Len(t, sm.Seats, 140)
	last := sm.Seats[len(sm.Seats)-1]
	assert.Equal(t, "J14", last.ID)
	assert.True(t, last.Reserved)
}

func TestSeatsDegradeWithoutCatalogOrDatabase(t *testing.T) {
	cat := new(mockCatalog)
	cat.On("Configured").Return(false)

	e := newEcho()
	e.GET("/a/:id", NewEventHandler(cat, fakeLedger{err: repository.ErrNotConfigured}).Seats)
	e.GET("/b/:id", NewEventHandler(cat, fakeLedger{err: errors.New("deadlock")}).Seats)

	rec := do(e, http.MethodGet, "/a/42", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sm model.SeatMap
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sm))
	assert.True(t, sm.PricePerSeat.Equal(decimal.NewFromInt(50)))
	for _, s := range sm.Seats {
		assert.False(t, s.Reserved)
	}

	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodGet, "/b/42", "", nil).Code)
}
