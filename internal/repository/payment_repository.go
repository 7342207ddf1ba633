package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/concertify/internal/database"
	"github.com/iliyamo/concertify/internal/model"
)

// PaymentRepo reads and writes the payments table.
type PaymentRepo struct {
	db *database.DB
}

func NewPaymentRepo(db *database.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// NewPayment carries the insertable columns.  Raw must be valid JSON; an
// empty Raw is stored as {}.
type NewPayment struct {
	Provider   *string
	ExternalID *string
	Status     *string
	Amount     decimal.NullDecimal
	Currency   string
	Raw        json.RawMessage
}

// List returns every payment, newest first.
func (r *PaymentRepo) List(ctx context.Context) ([]model.Payment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, provider, external_id, status, amount, currency, raw_json, created_at
		 FROM payments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Payment{}
	for rows.Next() {
		var (
			p                       model.Payment
			provider, extID, status sql.NullString
			currency                sql.NullString
			raw                     []byte
		)
		if err := rows.Scan(&p.ID, &provider, &extID, &status, &p.Amount, &currency, &raw, &p.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan payment")
		}
		p.Provider = stringPtr(provider)
		p.ExternalID = stringPtr(extID)
		p.Status = stringPtr(status)
		p.Currency = currency.String
		if len(raw) > 0 {
			p.Raw = json.RawMessage(raw)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a payment and returns its id.
func (r *PaymentRepo) Create(ctx context.Context, in NewPayment) (uint64, error) {
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	raw := string(in.Raw)
	if len(in.Raw) == 0 {
		raw = "{}"
	}
	res, err := r.db.Exec(ctx,
		`INSERT INTO payments (provider, external_id, status, amount, currency, raw_json) VALUES (?, ?, ?, ?, ?, ?)`,
		nullString(in.Provider), nullString(in.ExternalID), nullString(in.Status), in.Amount, currency, raw)
	if err != nil {
		return 0, errors.Wrap(err, "insert payment")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "payment id")
	}
	return uint64(id), nil
}

// UpdateStatusByExternalID sets the status of every payment recorded under
// externalID and reports how many rows changed.
func (r *PaymentRepo) UpdateStatusByExternalID(ctx context.Context, externalID, status string) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE payments SET status = ? WHERE external_id = ?`, status, externalID)
	if err != nil {
		return 0, errors.Wrap(err, "update payment status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}
