// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/ashroots/table-reservation/internal/calendar"
	"github.com/ashroots/table-reservation/internal/model"
)

// ReservationConfirmedEvent is published when a reservation commits. It
// carries everything the mail consumer needs so delivery never has to
// query the primary database.
type ReservationConfirmedEvent struct {
	ReservationID   uint64             `json:"reservation_id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	TableID         uint64             `json:"table_id"`
	TableCapacity   int                `json:"table_capacity,omitempty"`
	Date            calendar.Date      `json:"reservation_date"`
	TimeSlot        calendar.TimeOfDay `json:"time_slot"`
	SpecialRequests string             `json:"special_requests,omitempty"`
	ConfirmedAt     string             `json:"confirmed_at"`
}

// NewReservationConfirmedEvent builds the wire form of c.
func NewReservationConfirmedEvent(c model.Confirmation) ReservationConfirmedEvent {
	return ReservationConfirmedEvent{
		ReservationID:   c.ReservationID,
		Name:            c.Name,
		Email:           c.Email,
		TableID:         c.TableID,
		TableCapacity:   c.TableCapacity,
		Date:            c.Date,
		TimeSlot:        c.TimeSlot,
		SpecialRequests: c.SpecialRequests,
		ConfirmedAt:     c.ConfirmedAt.UTC().Format(time.RFC3339),
	}
}

// Confirmation converts the event back. An unparsable ConfirmedAt is left
// zero.
func (ev ReservationConfirmedEvent) Confirmation() model.Confirmation {
	at, _ := time.Parse(time.RFC3339, ev.ConfirmedAt)
	return model.Confirmation{
		ReservationID:   ev.ReservationID,
		Name:            ev.Name,
		Email:           ev.Email,
		TableID:         ev.TableID,
		TableCapacity:   ev.TableCapacity,
		Date:            ev.Date,
		TimeSlot:        ev.TimeSlot,
		SpecialRequests: ev.SpecialRequests,
		ConfirmedAt:     at,
	}
}
