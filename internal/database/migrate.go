package database

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/concertify/internal/log"
)

// schema lists the bootstrap statements in dependency order.  Every
// statement is idempotent so Migrate can run on every start.
var schema = []struct {
	name string
	ddl  string
}{
	{"reservations", `CREATE TABLE IF NOT EXISTS reservations (
  id INT AUTO_INCREMENT PRIMARY KEY,
  event_id VARCHAR(128),
  event_name VARCHAR(512),
  user_email VARCHAR(256),
  seats_json JSON,
  price_per_seat DECIMAL(10,2),
  total DECIMAL(10,2),
  status VARCHAR(64) DEFAULT 'pending_approval',
  payment_id VARCHAR(128),
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"payments", `CREATE TABLE IF NOT EXISTS payments (
  id INT AUTO_INCREMENT PRIMARY KEY,
  provider VARCHAR(64),
  external_id VARCHAR(128),
  status VARCHAR(64),
  amount DECIMAL(10,2),
  currency VARCHAR(16) DEFAULT 'USD',
  raw_json JSON,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  INDEX idx_external_id (external_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"users", `CREATE TABLE IF NOT EXISTS users (
  id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
  email VARCHAR(256) NOT NULL,
  name VARCHAR(256),
  password_hash VARCHAR(255) NOT NULL,
  role VARCHAR(16) NOT NULL DEFAULT 'user',
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"refresh_tokens", `CREATE TABLE IF NOT EXISTS refresh_tokens (
  id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
  user_id BIGINT UNSIGNED NOT NULL,
  token_hash CHAR(64) NOT NULL,
  expires_at DATETIME NOT NULL,
  revoked_at DATETIME NULL,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  UNIQUE KEY uq_refresh_hash (token_hash),
  INDEX idx_refresh_user (user_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// Migrate ensures all tables exist.  Without a pool it logs and returns nil
// so the server can still come up in a degraded mode.
func Migrate(ctx context.Context, db *DB) error {
	if !db.Enabled() {
		log.FromContext(ctx).Warn("[migrate] database not configured; skipping migrations")
		return nil
	}
	for _, s := range schema {
		if _, err := db.Exec(ctx, s.ddl); err != nil {
			return errors.Wrapf(err, "create table %s", s.name)
		}
	}
	log.FromContext(ctx).Info("[migrate] migrations ensured")
	return nil
}
