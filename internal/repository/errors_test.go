package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(sql.ErrNoRows), ErrNotFound)

	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3-2024-06-01-19:00:00-1' for key 'uq_reservations_active_slot'"}
	assert.ErrorIs(t, translate(dup), ErrDuplicate)
	assert.ErrorIs(t, translate(fmt.Errorf("insert: %w", dup)), ErrDuplicate)

	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
	assert.ErrorIs(t, translate(fk), ErrForeignKey)

	other := &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
	err := translate(other)
	assert.False(t, errors.Is(err, ErrDuplicate))
	assert.Same(t, other, err)
}
