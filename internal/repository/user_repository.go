package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/concertify/internal/database"
	"github.com/iliyamo/concertify/internal/model"
	"github.com/iliyamo/concertify/internal/utils"
)

type UserRepo struct{ db *database.DB }

func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{db: db} }

// Create hashes password and inserts the user, returning its id.
func (r *UserRepo) Create(ctx context.Context, email, name, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, errors.Wrap(err, "hash password")
	}
	res, err := r.db.Exec(ctx,
		"INSERT INTO users (email, name, password_hash, role) VALUES (?,?,?,?)",
		email, strings.TrimSpace(name), hash, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, errors.Wrap(err, "insert user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "user id")
	}
	return uint64(id), nil
}

const userColumns = "id,email,name,password_hash,role,created_at"

func scanUser(row database.Row) (model.User, error) {
	var (
		u    model.User
		name sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &name, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, errors.Wrap(err, "scan user")
	}
	u.Name = name.String
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}
