package seatmap

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	assert.Equal(t, float64(19), Seed("vvG1IZ9KBmHqPp"))
	assert.Equal(t, float64(1), Seed("abc"))
	assert.Equal(t, float64(1), Seed("000"))
	assert.Equal(t, float64(1), Seed(""))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "A1", Label(0, 0))
	assert.Equal(t, "J14", Label(9, 13))
}

func TestGenerateLayout(t *testing.T) {
	m := Generate("no-digits", nil, decimal.Zero)
	require.Len(t, m.Seats, Rows*Cols)
	assert.Equal(t, "A1", m.Seats[0].ID)
	assert.Equal(t, "J14", m.Seats[len(m.Seats)-1].ID)
	assert.True(t, m.PricePerSeat.Equal(DefaultPrice))
	assert.Equal(t, MaxSelectable, m.MaxSelectable)

	var taken []string
	for _, s := range m.Seats {
		if s.Unavailable {
			taken = append(taken, s.ID)
		}
	}
	assert.Len(t, taken, 19)
	assert.Equal(t, []string{"A6", "B3", "B4", "B11", "C4"}, taken[:5])
}

func TestGenerateIsStablePerEvent(t *testing.T) {
	a := Generate("vvG1IZ9KBmHqPp", nil, decimal.NewFromInt(30))
	b := Generate("vvG1IZ9KBmHqPp", nil, decimal.NewFromInt(30))
	assert.Equal(t, a, b)

	var taken []string
	for _, s := range a.Seats {
		if s.Unavailable {
			taken = append(taken, s.ID)
		}
	}
	assert.Len(t, taken, 21)
	assert.Equal(t, []string{"B7", "B10", "B11", "C2", "D12"}, taken[:5])
}

func TestGenerateMarksReserved(t *testing.T) {
	m := Generate("1", []string{"a1", " C3 "}, decimal.NewFromInt(20))
	reserved := map[string]bool{}
	for _, s := range m.Seats {
		if s.Reserved {
			reserved[s.ID] = true
		}
	}
	assert.Equal(t, map[string]bool{"A1": true, "C3": true}, reserved)
	assert.True(t, m.PricePerSeat.Equal(decimal.NewFromInt(20)))
}
