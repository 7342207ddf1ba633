package database

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
)

// ErrNotConfigured is returned by every query when no pool is available.
// Handlers surface it as a generic 500, /healthz reports "disabled".
var ErrNotConfigured = errors.New("database not configured")

// Settings describes how to reach MySQL.  URL takes precedence over the
// discrete fields.
type Settings struct {
	URL          string
	Host         string
	User         string
	Password     string
	Name         string
	Port         int
	MaxOpenConns int
}

// DSN converts Settings into a go-sql-driver DSN.  URL hosts use verified TLS
// unless they are Railway private-network hosts.
func (s Settings) DSN() (string, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	if s.URL != "" {
		u, err := url.Parse(s.URL)
		if err != nil {
			return "", errors.Wrap(err, "parse database url")
		}
		if u.Hostname() == "" {
			return "", errors.New("database url has no host")
		}
		port := u.Port()
		if port == "" {
			port = "3306"
		}
		cfg.Addr = net.JoinHostPort(u.Hostname(), port)
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		if !strings.Contains(u.Hostname(), "railway.internal") {
			cfg.TLSConfig = "true"
		}
		return cfg.FormatDSN(), nil
	}

	port := s.Port
	if port == 0 {
		port = 3306
	}
	cfg.Addr = net.JoinHostPort(s.Host, strconv.Itoa(port))
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.DBName = s.Name
	return cfg.FormatDSN(), nil
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, s Settings) (*sql.DB, error) {
	dsn, err := s.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}

	maxOpen := s.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}
	return db, nil
}

// Row is the subset of *sql.Row used by repositories.
type Row interface {
	Scan(dest ...any) error
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// DB is the shared query handle.  A nil pool is valid and makes every call
// fail with ErrNotConfigured, which lets the process start without a
// database.
type DB struct {
	pool *sql.DB
}

func New(pool *sql.DB) *DB { return &DB{pool: pool} }

// Enabled reports whether a pool is attached.
func (d *DB) Enabled() bool { return d != nil && d.pool != nil }

func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if !d.Enabled() {
		return nil, ErrNotConfigured
	}
	return d.pool.QueryContext(ctx, query, args...)
}

func (d *DB) QueryRow(ctx context.Context, query string, args ...any) Row {
	if !d.Enabled() {
		return errRow{err: ErrNotConfigured}
	}
	return d.pool.QueryRowContext(ctx, query, args...)
}

func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if !d.Enabled() {
		return nil, ErrNotConfigured
	}
	return d.pool.ExecContext(ctx, query, args...)
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if !d.Enabled() {
		return ErrNotConfigured
	}
	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	committed = true
	return nil
}

func (d *DB) Close() error {
	if !d.Enabled() {
		return nil
	}
	return d.pool.Close()
}
