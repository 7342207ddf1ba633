// Package catalog reads concert listings from the Ticketmaster Discovery
// API and flattens them into model.Event values.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/concertify/internal/model"
)

var (
	ErrNotConfigured = errors.New("catalog api key not configured")
	ErrNotFound      = errors.New("event not found")
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: hc}
}

func (c *Client) Configured() bool { return c != nil && c.apiKey != "" }

// SearchParams selects a page of concerts.  Page is zero based.
type SearchParams struct {
	Keyword string
	Page    int
	Size    int
}

type tmImage struct {
	URL string `json:"url"`
}

type tmEvent struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	URL    string    `json:"url"`
	Images []tmImage `json:"images"`
	Dates  struct {
		Start struct {
			LocalDate string `json:"localDate"`
			LocalTime string `json:"localTime"`
		} `json:"start"`
	} `json:"dates"`
	PriceRanges []struct {
		Min      *float64 `json:"min"`
		Currency string   `json:"currency"`
	} `json:"priceRanges"`
	Embedded struct {
		Venues []struct {
			Name string `json:"name"`
		} `json:"venues"`
	} `json:"_embedded"`
}

type tmSearch struct {
	Embedded struct {
		Events []tmEvent `json:"events"`
	} `json:"_embedded"`
	Page struct {
		Size          int `json:"size"`
		TotalElements int `json:"totalElements"`
		TotalPages    int `json:"totalPages"`
		Number        int `json:"number"`
	} `json:"page"`
}

func (e tmEvent) toModel() model.Event {
	out := model.Event{
		ID:    e.ID,
		Name:  e.Name,
		URL:   e.URL,
		Date:  e.Dates.Start.LocalDate,
		Time:  e.Dates.Start.LocalTime,
		Venue: "Unknown venue",
	}
	if out.Date == "" {
		out.Date = "TBA"
	}
	if len(e.Embedded.Venues) > 0 && e.Embedded.Venues[0].Name != "" {
		out.Venue = e.Embedded.Venues[0].Name
	}
	if len(e.Images) > 0 {
		out.Image = e.Images[0].URL
	}
	if len(e.PriceRanges) > 0 {
		if lo := e.PriceRanges[0].Min; lo != nil {
			out.PriceMin = decimal.NewNullDecimal(decimal.NewFromFloat(*lo))
		}
		out.Currency = e.PriceRanges[0].Currency
	}
	return out
}

// Search lists concerts matching p.Keyword, or all concerts when empty.
func (c *Client) Search(ctx context.Context, p SearchParams) (model.EventPage, error) {
	size := p.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	page := p.Page
	if page < 0 {
		page = 0
	}
	keyword := strings.TrimSpace(p.Keyword)
	if keyword == "" {
		keyword = "concert"
	}

	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("classificationName", "concert")
	q.Set("locale", "en-us")
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var res tmSearch
	if err := c.get(ctx, "/events.json", q, &res); err != nil {
		return model.EventPage{}, err
	}
	out := model.EventPage{
		Events: make([]model.Event, 0, len(res.Embedded.Events)),
		Page: model.PageInfo{
			Number:        res.Page.Number,
			Size:          res.Page.Size,
			TotalPages:    res.Page.TotalPages,
			TotalElements: res.Page.TotalElements,
		},
	}
	for _, e := range res.Embedded.Events {
		out.Events = append(out.Events, e.toModel())
	}
	return out, nil
}

// Event fetches a single event by id.
func (c *Client) Event(ctx context.Context, id string) (model.Event, error) {
	var e tmEvent
	if err := c.get(ctx, "/events/"+url.PathEscape(id)+".json", url.Values{}, &e); err != nil {
		return model.Event{}, err
	}
	return e.toModel(), nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	q.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "catalog request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return errors.Newf("catalog returned status %d: %s", resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode catalog response")
	}
	return nil
}
