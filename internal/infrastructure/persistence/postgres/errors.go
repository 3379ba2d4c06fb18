package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

// The database.DB abstraction surfaces pgx errors directly; the stdlib
// sentinel shows up when a store runs through database/sql instead.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}
