package service

import (
	"errors"
	"fmt"
)

// ErrValidation marks bad client input. It is always wrapped with a
// message naming what to fix.
var ErrValidation = errors.New("validation failed")

// ErrSlotReserved is the pre-check conflict: the table is already booked
// at that date and time.
var ErrSlotReserved = errors.New("this table is already reserved for the selected date and time")

// ErrSlotJustReserved is the in-transaction conflict: another guest booked
// the slot while this request was being processed. Clients should refresh
// availability.
var ErrSlotJustReserved = errors.New("this table was just reserved by another guest; please refresh availability and choose again")

// ErrUnknownTable is returned when a booking names a table that does not exist.
var ErrUnknownTable = errors.New("table not found")

// ErrEmailExists is returned by signup when the email is already registered.
var ErrEmailExists = errors.New("a user with this email already exists")

// ErrInvalidCredentials is returned by Authenticate for any mismatch.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnknownMenuItem is returned when an order names a dish that does not
// exist.
var ErrUnknownMenuItem = errors.New("menu item not found")

// ErrOutOfStock is returned when a dish has fewer portions left than were
// ordered. It is always wrapped with the dish name.
var ErrOutOfStock = errors.New("not enough stock")

// ErrUnknownReference is returned when a write names a user, reservation or
// dish that does not exist.
var ErrUnknownReference = errors.New("referenced user, reservation or menu item not found")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
