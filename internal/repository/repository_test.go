package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/concertify/internal/database"
	"github.com/iliyamo/concertify/internal/model"
)

func newMock(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		pool.Close()
	})
	return database.New(pool), mock
}

var reservationCols = []string{"id", "event_id", "event_name", "user_email", "seats_json",
	"price_per_seat", "total", "status", "payment_id", "created_at"}

func strp(s string) *string { return &s }

func TestReservationListDecodesRows(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM reservations ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(2, "evt-9", "Night Show", "fan@example.com", []byte(`["A1","A2"]`), "25.00", "50.00", "approved", "PAY-1", created).
			AddRow(1, nil, "Matinee", nil, nil, nil, "10.00", "pending_approval", nil, created))

	got, err := NewReservationRepo(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, uint64(2), got[0].ID)
	assert.Equal(t, "evt-9", *got[0].EventID)
	assert.Equal(t, []string{"A1", "A2"}, got[0].Seats)
	assert.True(t, got[0].PricePerSeat.Decimal.Equal(decimal.RequireFromString("25")))
	assert.Equal(t, "PAY-1", *got[0].PaymentID)

	assert.Nil(t, got[1].EventID)
	assert.Nil(t, got[1].UserEmail)
	assert.Equal(t, []string{}, got[1].Seats)
	assert.False(t, got[1].PricePerSeat.Valid)
	assert.Equal(t, created, got[1].CreatedAt)
}

func TestReservationListEmptyIsNotNil(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM reservations").WillReturnRows(sqlmock.NewRows(reservationCols))

	got, err := NewReservationRepo(db).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReservationListWithoutDatabase(t *testing.T) {
	_, err := NewReservationRepo(database.New(nil)).List(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestReservationCreateAppliesDefaults(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(nil, "Night Show", "fan@example.com", `[]`, nil, "40", model.StatusPendingApproval, nil).
		WillReturnResult(sqlmock.NewResult(17, 1))

	id, err := NewReservationRepo(db).Create(context.Background(), NewReservation{
		EventName: strp("Night Show"),
		UserEmail: strp("fan@example.com"),
		Total:     decimal.NewNullDecimal(decimal.NewFromInt(40)),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(17), id)
}

func TestReservationCreateStoresSeats(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO reservations").
		WithArgs("evt-1", "Show", nil, `["B3","B4"]`, "12.5", "25", "approved", "PAY-9").
		WillReturnResult(sqlmock.NewResult(3, 1))

	_, err := NewReservationRepo(db).Create(context.Background(), NewReservation{
		EventID:      strp("evt-1"),
		EventName:    strp("Show"),
		Seats:        []string{"B3", "B4"},
		PricePerSeat: decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
		Total:        decimal.NewNullDecimal(decimal.NewFromInt(25)),
		Status:       "approved",
		PaymentID:    strp("PAY-9"),
	})
	require.NoError(t, err)
}

func TestReservationUpdateStatusReturnsPrevious(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM reservations WHERE id = \\? FOR UPDATE").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(7, "evt", "Show", "fan@example.com", []byte(`["C1"]`), "30.00", "30.00", "pending_approval", nil, time.Now()))
	mock.ExpectExec("UPDATE reservations SET status = \\? WHERE id = \\?").
		WithArgs("approved", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	prev, err := NewReservationRepo(db).UpdateStatus(context.Background(), 7, "approved")
	require.NoError(t, err)
	assert.Equal(t, "pending_approval", prev.Status)
	assert.Equal(t, []string{"C1"}, prev.Seats)
}

func TestReservationUpdateStatusUnknownID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(99).WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectRollback()

	_, err := NewReservationRepo(db).UpdateStatus(context.Background(), 99, "approved")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReservedSeatsFlattens(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT seats_json FROM reservations").
		WithArgs("evt-1", model.StatusRejected).
		WillReturnRows(sqlmock.NewRows([]string{"seats_json"}).
			AddRow([]byte(`["A1","A2"]`)).
			AddRow(nil).
			AddRow([]byte(`["J14"]`)))

	seats, err := NewReservationRepo(db).ReservedSeats(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "J14"}, seats)
}

func TestReservationListByEmailNormalizes(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("WHERE LOWER\\(user_email\\) = \\?").
		WithArgs("fan@example.com").
		WillReturnRows(sqlmock.NewRows(reservationCols))

	_, err := NewReservationRepo(db).ListByEmail(context.Background(), "  Fan@Example.com ")
	require.NoError(t, err)
}

func TestPaymentList(t *testing.T) {
	db, mock := newMock(t)
	cols := []string{"id", "provider", "external_id", "status", "amount", "currency", "raw_json", "created_at"}
	mock.ExpectQuery("FROM payments ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(5, "paypal", "ORDER-1", "COMPLETED", "99.90", "EUR", []byte(`{"id":"ORDER-1"}`), time.Now()).
			AddRow(4, nil, nil, nil, nil, nil, nil, time.Now()))

	got, err := NewPaymentRepo(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "paypal", *got[0].Provider)
	assert.Equal(t, "EUR", got[0].Currency)
	assert.JSONEq(t, `{"id":"ORDER-1"}`, string(got[0].Raw))
	assert.True(t, got[0].Amount.Decimal.Equal(decimal.RequireFromString("99.9")))
	assert.Nil(t, got[1].Provider)
	assert.Nil(t, got[1].Raw)
}

func TestPaymentCreateDefaults(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO payments").
		WithArgs("paypal", "ORDER-1", "COMPLETED", "10", "USD", "{}").
		WillReturnResult(sqlmock.NewResult(8, 1))

	id, err := NewPaymentRepo(db).Create(context.Background(), NewPayment{
		Provider:   strp("paypal"),
		ExternalID: strp("ORDER-1"),
		Status:     strp("COMPLETED"),
		Amount:     decimal.NewNullDecimal(decimal.NewFromInt(10)),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(8), id)
}

func TestPaymentCreateKeepsRaw(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(nil, nil, nil, nil, "GBP", `{"a":1}`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := NewPaymentRepo(db).Create(context.Background(), NewPayment{
		Currency: "GBP",
		Raw:      json.RawMessage(`{"a":1}`),
	})
	require.NoError(t, err)
}

func TestPaymentUpdateStatusByExternalID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE payments SET status = \\? WHERE external_id = \\?").
		WithArgs("REFUNDED", "ORDER-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := NewPaymentRepo(db).UpdateStatusByExternalID(context.Background(), "ORDER-1", "REFUNDED")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("fan@example.com", "Fan", sqlmock.AnyArg(), model.RoleUser).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := NewUserRepo(db).Create(context.Background(), " FAN@example.com", "Fan", "password1", model.RoleUser, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	cols := []string{"id", "email", "name", "password_hash", "role", "created_at"}
	mock.ExpectQuery("FROM users WHERE email=\\?").
		WithArgs("fan@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(3, "fan@example.com", nil, "hash", "admin", time.Now()))

	u, err := NewUserRepo(db).GetByEmail(context.Background(), "Fan@Example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.ID)
	assert.Equal(t, "admin", u.Role)
	assert.Empty(t, u.Name)
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM users WHERE id=\\?").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewUserRepo(db).GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenValidateRefresh(t *testing.T) {
	cols := []string{"user_id", "expires_at", "revoked_at"}
	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		wantID  uint64
		wantErr error
	}{
		{
			name:   "active",
			rows:   sqlmock.NewRows(cols).AddRow(9, time.Now().Add(time.Hour), nil),
			wantID: 9,
		},
		{
			name:    "revoked",
			rows:    sqlmock.NewRows(cols).AddRow(9, time.Now().Add(time.Hour), time.Now()),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "expired",
			rows:    sqlmock.NewRows(cols).AddRow(9, time.Now().Add(-time.Hour), nil),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "unknown",
			rows:    sqlmock.NewRows(cols),
			wantErr: ErrInvalidToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectQuery("FROM refresh_tokens WHERE token_hash=\\?").WithArgs("h").WillReturnRows(tt.rows)

			id, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestTokenRevoke(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP\\(\\) WHERE token_hash=\\?").
		WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("WHERE user_id=\\?").
		WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewTokenRepo(db)
	require.NoError(t, repo.RevokeByHash(context.Background(), "h"))
	require.NoError(t, repo.RevokeAllForUser(context.Background(), 4))
}
