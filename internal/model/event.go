package model

import "github.com/shopspring/decimal"

// Event is the flattened catalog entry returned to clients.
type Event struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Date     string              `json:"date"`
	Time     string              `json:"time,omitempty"`
	Venue    string              `json:"venue"`
	Image    string              `json:"image,omitempty"`
	URL      string              `json:"url,omitempty"`
	PriceMin decimal.NullDecimal `json:"priceMin"`
	Currency string              `json:"currency,omitempty"`
}

// EventPage is one page of catalog search results.
type EventPage struct {
	Events []Event  `json:"events"`
	Page   PageInfo `json:"page"`
}

type PageInfo struct {
	Number        int `json:"number"`
	Size          int `json:"size"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
}
