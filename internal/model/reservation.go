package model

import (
	"errors"
	"time"

	"github.com/ashroots/table-reservation/internal/calendar"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusPending   Status = "pending"
)

// ErrUnknownStatus is returned by ParseStatus for values outside the set.
var ErrUnknownStatus = errors.New("status must be one of: confirmed, cancelled, pending")

// ParseStatus accepts exactly the three lifecycle states, lower case and
// untrimmed. Any state may move to any other, including itself, so set
// membership is the only guard.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusConfirmed, StatusCancelled, StatusPending:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// Blocks reports whether a reservation in this state occupies its slot.
// Only cancelled reservations free the slot.
func (s Status) Blocks() bool { return s != StatusCancelled }

// Reservation records one table booked for one date and time slot.
// For a given (TableID, Date, TimeSlot) at most one reservation whose
// status blocks may exist.
type Reservation struct {
	ID              uint64             `json:"reservation_id"`
	UserID          uint64             `json:"user_id"`
	TableID         uint64             `json:"table_id"`
	Date            calendar.Date      `json:"reservation_date"`
	TimeSlot        calendar.TimeOfDay `json:"time_slot"`
	Status          Status             `json:"status"`
	SpecialRequests string             `json:"special_requests,omitempty"`
}

// ReservationView is a reservation joined with its customer and table for
// listings.
type ReservationView struct {
	Reservation
	CustomerName  string `json:"customer_name,omitempty"`
	Email         string `json:"email,omitempty"`
	TableCapacity int    `json:"table_capacity,omitempty"`
}

// BookingRequest carries the raw create-reservation form.
type BookingRequest struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	TableID         uint64 `json:"table_id" form:"table_id"`
	Date            string `json:"reservation_date" form:"reservation_date"`
	TimeSlot        string `json:"time_slot" form:"time_slot"`
	SpecialRequests string `json:"special_requests" form:"special_requests"`
}

// Confirmation is what the notification side needs to tell a guest their
// table is booked.
type Confirmation struct {
	ReservationID   uint64
	Name            string
	Email           string
	TableID         uint64
	TableCapacity   int
	Date            calendar.Date
	TimeSlot        calendar.TimeOfDay
	SpecialRequests string
	ConfirmedAt     time.Time
}
