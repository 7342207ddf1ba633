// Package seatmap generates the seat grid shown for an event.  Layouts are
// derived from the event id so every client sees the same unavailable
// seats without anything being stored.
package seatmap

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/concertify/internal/model"
)

const (
	Rows          = 10
	Cols          = 14
	MaxSelectable = 6

	lcgMul = 9301
	lcgInc = 49297
	lcgMod = 233280

	unavailableRatio = 0.15
)

// DefaultPrice applies when the catalog has no price for the event.
var DefaultPrice = decimal.NewFromInt(50)

// Seed returns the digits of eventID read as a number, or 1 when there are
// none.
func Seed(eventID string) float64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, eventID)
	seed, err := strconv.ParseFloat(digits, 64)
	if err != nil || seed == 0 {
		return 1
	}
	return seed
}

// Label names the seat at row r, column c (both zero based): A1 ... J14.
func Label(r, c int) string {
	return string(rune('A'+r)) + strconv.Itoa(c+1)
}

// Generate builds the seat map for eventID.  Seats listed in reserved are
// flagged as reserved.  A zero price falls back to DefaultPrice.
func Generate(eventID string, reserved []string, price decimal.Decimal) model.SeatMap {
	taken := make(map[string]bool, len(reserved))
	for _, s := range reserved {
		taken[strings.ToUpper(strings.TrimSpace(s))] = true
	}
	if !price.IsPositive() {
		price = DefaultPrice
	}

	s := Seed(eventID)
	seats := make([]model.Seat, 0, Rows*Cols)
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			s = math.Mod(s*lcgMul+lcgInc, lcgMod)
			id := Label(r, c)
			seats = append(seats, model.Seat{
				ID:          id,
				Row:         r,
				Col:         c,
				Unavailable: s/lcgMod < unavailableRatio,
				Reserved:    taken[id],
			})
		}
	}
	return model.SeatMap{
		EventID:       eventID,
		Rows:          Rows,
		Cols:          Cols,
		PricePerSeat:  price,
		MaxSelectable: MaxSelectable,
		Seats:         seats,
	}
}
