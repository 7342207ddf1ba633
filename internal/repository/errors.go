// Package repository holds the SQL repositories.  Sentinel errors let
// handlers map storage outcomes onto HTTP statuses without inspecting
// driver errors.
package repository

import (
	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/concertify/internal/database"
)

// ErrNotFound is returned when a lookup by key matches no row.  Handlers
// translate it into a 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by UserRepo.Create on a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidToken is returned when a refresh token is unknown, revoked or
// expired.
var ErrInvalidToken = errors.New("invalid refresh token")

// ErrNotConfigured is re-exported so handlers need not import database.
var ErrNotConfigured = database.ErrNotConfigured

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
