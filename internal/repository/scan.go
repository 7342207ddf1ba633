package repository

import (
	"database/sql"
	"encoding/json"
)

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// decodeSeats reads a seats_json column.  NULL and malformed values yield an
// empty list so responses always carry an array.
func decodeSeats(raw []byte) []string {
	seats := []string{}
	if len(raw) == 0 {
		return seats
	}
	if err := json.Unmarshal(raw, &seats); err != nil || seats == nil {
		return []string{}
	}
	return seats
}

func encodeSeats(seats []string) (string, error) {
	if seats == nil {
		seats = []string{}
	}
	b, err := json.Marshal(seats)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
