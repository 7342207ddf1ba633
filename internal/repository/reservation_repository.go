package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/concertify/internal/database"
	"github.com/iliyamo/concertify/internal/model"
)

const reservationColumns = `id, event_id, event_name, user_email, seats_json, price_per_seat, total, status, payment_id, created_at`

// ReservationRepo reads and writes the reservations table.
type ReservationRepo struct {
	db *database.DB
}

func NewReservationRepo(db *database.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// NewReservation carries the insertable columns.  Nil pointers are stored
// as NULL.
type NewReservation struct {
	EventID      *string
	EventName    *string
	UserEmail    *string
	Seats        []string
	PricePerSeat decimal.NullDecimal
	Total        decimal.NullDecimal
	Status       string
	PaymentID    *string
}

func scanReservation(row database.Row) (model.Reservation, error) {
	var (
		res                                  model.Reservation
		eventID, eventName, email, paymentID sql.NullString
		status                               sql.NullString
		seats                                []byte
	)
	err := row.Scan(&res.ID, &eventID, &eventName, &email, &seats,
		&res.PricePerSeat, &res.Total, &status, &paymentID, &res.CreatedAt)
	if err != nil {
		return res, err
	}
	res.EventID = stringPtr(eventID)
	res.EventName = stringPtr(eventName)
	res.UserEmail = stringPtr(email)
	res.PaymentID = stringPtr(paymentID)
	res.Status = status.String
	res.Seats = decodeSeats(seats)
	return res, nil
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan reservation")
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// List returns every reservation, newest first.
func (r *ReservationRepo) List(ctx context.Context) ([]model.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY created_at DESC`)
}

// ListByEmail returns the reservations booked under email, newest first.
func (r *ReservationRepo) ListByEmail(ctx context.Context, email string) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE LOWER(user_email) = ? ORDER BY created_at DESC`,
		strings.ToLower(strings.TrimSpace(email)))
}

// Create inserts a reservation and returns its id.
func (r *ReservationRepo) Create(ctx context.Context, in NewReservation) (uint64, error) {
	seats, err := encodeSeats(in.Seats)
	if err != nil {
		return 0, errors.Wrap(err, "encode seats")
	}
	status := in.Status
	if status == "" {
		status = model.StatusPendingApproval
	}
	res, err := r.db.Exec(ctx,
		`INSERT INTO reservations (event_id, event_name, user_email, seats_json, price_per_seat, total, status, payment_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullString(in.EventID), nullString(in.EventName), nullString(in.UserEmail), seats,
		in.PricePerSeat, in.Total, status, nullString(in.PaymentID))
	if err != nil {
		return 0, errors.Wrap(err, "insert reservation")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "reservation id")
	}
	return uint64(id), nil
}

// UpdateStatus sets the status of reservation id and returns the row as it
// was before the update.  The read and the write share one transaction with
// the row locked, so concurrent updates observe each other's results.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Reservation, error) {
	var prev model.Reservation
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id)
		var err error
		prev, err = scanReservation(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "lock reservation")
		}
		if _, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, status, id); err != nil {
			return errors.Wrap(err, "update reservation status")
		}
		return nil
	})
	return prev, err
}

// ReservedSeats returns every seat label held by a non-rejected reservation
// for eventID.
func (r *ReservationRepo) ReservedSeats(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT seats_json FROM reservations
		 WHERE event_id = ? AND (status IS NULL OR LOWER(status) <> ?)`,
		eventID, model.StatusRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "scan reserved seats")
		}
		out = append(out, decodeSeats(raw)...)
	}
	return out, rows.Err()
}
