package store

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when an id does not resolve to a live record.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates the live normalized-name
// uniqueness constraint. Callers may retry the merge path once.
var ErrConflict = errors.New("conflict")

// Queryer is the subset of database/sql shared by *sql.DB and *sql.Tx,
// letting the same store run standalone or inside a transaction.
type Queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// InTx runs fn inside a transaction and commits it, rolling back on error.
// All mutating operations are all-or-nothing: a failure mid-batch leaves no
// partial effect.
func InTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// wrapConflict maps a sqlite uniqueness violation onto ErrConflict so
// callers can detect the dedup race without knowing the driver.
func wrapConflict(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}
