package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
  "_embedded": {"events": [
    {"id": "vv1", "name": "Arena Tour", "url": "https://tm/e/vv1",
     "images": [{"url": "https://img/1.jpg"}],
     "dates": {"start": {"localDate": "2025-11-02", "localTime": "19:30:00"}},
     "priceRanges": [{"min": 45.5, "max": 120, "currency": "USD"}],
     "_embedded": {"venues": [{"name": "Big Arena"}]}},
    {"id": "vv2", "name": "Club Night"}
  ]},
  "page": {"size": 12, "totalElements": 2, "totalPages": 1, "number": 0}
}`

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("apikey"))
		assert.Equal(t, "jazz", q.Get("keyword"))
		assert.Equal(t, "concert", q.Get("classificationName"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "12", q.Get("size"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL, "key", srv.Client()).Search(context.Background(), SearchParams{Keyword: " jazz ", Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)

	first := page.Events[0]
	assert.Equal(t, "Arena Tour", first.Name)
	assert.Equal(t, "2025-11-02", first.Date)
	assert.Equal(t, "19:30:00", first.Time)
	assert.Equal(t, "Big Arena", first.Venue)
	assert.Equal(t, "https://img/1.jpg", first.Image)
	assert.True(t, first.PriceMin.Decimal.Equal(decimal.RequireFromString("45.5")))
	assert.Equal(t, "USD", first.Currency)

	second := page.Events[1]
	assert.Equal(t, "TBA", second.Date)
	assert.Equal(t, "Unknown venue", second.Venue)
	assert.False(t, second.PriceMin.Valid)

	assert.Equal(t, 2, page.Page.TotalElements)
}

func TestSearchClampsSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("size"))
		assert.Equal(t, "concert", r.URL.Query().Get("keyword"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL, "key", srv.Client()).Search(context.Background(), SearchParams{Size: 500, Page: -3})
	require.NoError(t, err)
	assert.NotNil(t, page.Events)
	assert.Empty(t, page.Events)
}

func TestEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/vv1.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"id":"vv1","name":"Arena Tour","priceRanges":[{"min":30}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "key", srv.Client())
	e, err := c.Event(context.Background(), "vv1")
	require.NoError(t, err)
	assert.Equal(t, "vv1", e.ID)
	assert.True(t, e.PriceMin.Decimal.Equal(decimal.NewFromInt(30)))

	_, err = c.Event(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnconfigured(t *testing.T) {
	c := NewClient("http://unused", "", nil)
	assert.False(t, c.Configured())
	_, err := c.Search(context.Background(), SearchParams{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key", srv.Client()).Event(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
