// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without looking at driver internals.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique
// index: a second user with the same email, or a second live
// reservation for the same table, date and time slot.
var ErrDuplicate = errors.New("duplicate entry")

// ErrForeignKey is returned when a write references a parent row that
// does not exist (an unknown table or user id).
var ErrForeignKey = errors.New("referenced row does not exist")

const (
	mysqlDuplicateEntry   = 1062
	mysqlNoReferencedRow  = 1452
	mysqlNoReferencedRow2 = 1216
)

// translate maps driver errors onto the sentinels above and leaves every
// other error untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %s", ErrDuplicate, me.Message)
		case mysqlNoReferencedRow, mysqlNoReferencedRow2:
			return fmt.Errorf("%w: %s", ErrForeignKey, me.Message)
		}
	}
	return err
}
