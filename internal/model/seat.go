package model

import "github.com/shopspring/decimal"

// Seat is one cell of an event seat map.  Unavailable seats are taken by the
// generated layout; Reserved seats are claimed by stored reservations.
type Seat struct {
	ID          string `json:"id"`
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	Unavailable bool   `json:"unavailable"`
	Reserved    bool   `json:"reserved"`
}

// SeatMap is the seat grid for a single event.
type SeatMap struct {
	EventID       string          `json:"eventId"`
	Rows          int             `json:"rows"`
	Cols          int             `json:"cols"`
	PricePerSeat  decimal.Decimal `json:"pricePerSeat"`
	MaxSelectable int             `json:"maxSelectable"`
	Seats         []Seat          `json:"seats"`
}
