package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashroots/table-reservation/internal/calendar"
	"github.com/ashroots/table-reservation/internal/metrics"
	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/repository"
)

// BookingService owns the reservation lifecycle: creation under the
// pre-check / transaction / re-check protocol, status transitions and
// deletion.
//
// No in-process lock is taken anywhere. Two bookings for the same slot are
// serialized only by the database: the re-check inside the transaction
// catches rows committed after the pre-check, and the unique index on live
// slots rejects whatever slips past both checks.
type BookingService struct {
	tx            TxBeginner
	identity      *IdentityResolver
	tables        TableStore
	reservations  ReservationStore
	notifier      Notifier
	log           zerolog.Logger
	stepTimeout   time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
	inflight      sync.WaitGroup
}

// BookingDeps groups BookingService collaborators.
type BookingDeps struct {
	Tx            TxBeginner
	Identity      *IdentityResolver
	Tables        TableStore
	Reservations  ReservationStore
	Notifier      Notifier // optional
	Log           zerolog.Logger
	StepTimeout   time.Duration
	NotifyTimeout time.Duration
}

func NewBookingService(d BookingDeps) *BookingService {
	if d.Tx == nil || d.Identity == nil || d.Tables == nil || d.Reservations == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if d.StepTimeout <= 0 {
		d.StepTimeout = 5 * time.Second
	}
	if d.NotifyTimeout <= 0 {
		d.NotifyTimeout = 5 * time.Second
	}
	return &BookingService{
		tx:            d.Tx,
		identity:      d.Identity,
		tables:        d.Tables,
		reservations:  d.Reservations,
		notifier:      d.Notifier,
		log:           d.Log,
		stepTimeout:   d.StepTimeout,
		notifyTimeout: d.NotifyTimeout,
		now:           time.Now,
	}
}

func (s *BookingService) step(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.stepTimeout)
}

// CreateBooking books req.TableID for the requested date and time slot on
// behalf of the guest identified by req.Email, creating the guest's
// account on first use.
//
// Validation and pre-check failures happen before any transaction is
// opened. Everything from user resolution to commit runs in one
// transaction that is rolled back on any failure, so a failed booking
// leaves neither a reservation nor a freshly created user behind. The
// confirmation is sent in the background after commit; CreateBooking
// never waits for it and its failure is only logged.
func (s *BookingService) CreateBooking(ctx context.Context, req model.BookingRequest) (model.Reservation, error) {
	start := s.now()
	res, outcome, err := s.createBooking(ctx, req)
	metrics.ObserveBooking(outcome, s.now().Sub(start))
	if err != nil {
		return model.Reservation{}, err
	}

	if s.notifier != nil {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.notify(ctx, res)
		}()
	}
	return res.Reservation, nil
}

// Drain waits for confirmations still being sent, or for ctx to end.
// Call it on shutdown after the HTTP server has stopped accepting
// bookings.
func (s *BookingService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type booked struct {
	model.Reservation
	name     string
	email    string
	capacity int
}

func (s *BookingService) createBooking(ctx context.Context, req model.BookingRequest) (booked, string, error) {
	// 1. presence
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.TableID == 0 || strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.TimeSlot) == "" {
		return booked{}, metrics.OutcomeInvalid,
			invalid("please provide name, email, table_id, reservation_date and time_slot")
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		return booked{}, metrics.OutcomeInvalid, invalid("reservation_date: %v", err)
	}
	// 2. canonical HH:MM:SS
	slot, err := calendar.ParseTimeOfDay(req.TimeSlot)
	if err != nil {
		return booked{}, metrics.OutcomeInvalid, invalid("time_slot: %v", err)
	}

	log := s.log.With().Uint64("table_id", req.TableID).Str("date", date.String()).Str("time_slot", slot.String()).Logger()

	// 3. pre-check, outside any transaction
	sctx, cancel := s.step(ctx)
	taken, err := s.reservations.SlotTaken(sctx, req.TableID, date, slot)
	cancel()
	if err != nil {
		return booked{}, metrics.OutcomeError, fmt.Errorf("pre-check availability: %w", err)
	}
	if taken {
		log.Info().Msg("booking rejected at pre-check")
		return booked{}, metrics.OutcomeConflictPreCheck, ErrSlotReserved
	}

	// 4. transaction
	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return booked{}, metrics.OutcomeError, err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Warn().Err(rbErr).Msg("rollback failed")
			}
		}
	}()

	// 5. user
	sctx, cancel = s.step(ctx)
	user, err := s.identity.ResolveOrCreate(sctx, tx, name, email, req.Password, model.RoleCustomer)
	cancel()
	if err != nil {
		return booked{}, metrics.OutcomeError, fmt.Errorf("resolve user: %w", err)
	}

	// 6. re-check inside the transaction
	sctx, cancel = s.step(ctx)
	taken, err = s.reservations.SlotTakenTx(sctx, tx, req.TableID, date, slot)
	cancel()
	if err != nil {
		return booked{}, metrics.OutcomeError, fmt.Errorf("re-check availability: %w", err)
	}
	if taken {
		log.Info().Uint64("user_id", user.ID).Msg("booking rejected at re-check")
		return booked{}, metrics.OutcomeConflictReCheck, ErrSlotJustReserved
	}

	// 7. insert
	res := model.Reservation{
		UserID:          user.ID,
		TableID:         req.TableID,
		Date:            date,
		TimeSlot:        slot,
		Status:          model.StatusConfirmed,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
	}
	sctx, cancel = s.step(ctx)
	err = s.reservations.CreateTx(sctx, tx, &res)
	cancel()
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		log.Info().Uint64("user_id", user.ID).Msg("booking rejected by slot index")
		return booked{}, metrics.OutcomeConflictInsert, ErrSlotJustReserved
	case errors.Is(err, repository.ErrForeignKey):
		return booked{}, metrics.OutcomeInvalid, ErrUnknownTable
	case err != nil:
		return booked{}, metrics.OutcomeError, fmt.Errorf("insert reservation: %w", err)
	}

	// 8. capacity for the confirmation, best effort
	capacity := 0
	sctx, cancel = s.step(ctx)
	tbl, err := s.tables.GetByIDTx(sctx, tx, req.TableID)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("table capacity lookup failed; confirmation will omit it")
	} else {
		capacity = tbl.Capacity
	}

	// 9. commit
	if err := tx.Commit(); err != nil {
		return booked{}, metrics.OutcomeError, fmt.Errorf("commit reservation: %w", err)
	}
	committed = true
	log.Info().Uint64("reservation_id", res.ID).Uint64("user_id", user.ID).Msg("reservation confirmed")

	return booked{Reservation: res, name: name, email: user.Email, capacity: capacity}, metrics.OutcomeCreated, nil
}

// notify is step 10: after commit and outside the transaction. It is
// detached from the request, which has usually finished by now, and bounded
// by notifyTimeout.
func (s *BookingService) notify(ctx context.Context, b booked) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	err := s.notifier.Send(ctx, model.Confirmation{
		ReservationID:   b.ID,
		Name:            b.name,
		Email:           b.email,
		TableID:         b.TableID,
		TableCapacity:   b.capacity,
		Date:            b.Date,
		TimeSlot:        b.TimeSlot,
		SpecialRequests: b.SpecialRequests,
		ConfirmedAt:     s.now().UTC(),
	})
	if err != nil {
		metrics.IncNotification("publish", "error")
		s.log.Warn().Err(err).Uint64("reservation_id", b.ID).Msg("confirmation not sent")
		return
	}
	metrics.IncNotification("publish", "ok")
}

// UpdateStatus moves a reservation to status. Every state may move to
// every other. Reviving a cancelled reservation whose slot has since been
// rebooked fails with ErrSlotReserved.
func (s *BookingService) UpdateStatus(ctx context.Context, id uint64, status string) error {
	if id == 0 {
		return invalid("invalid reservation id")
	}
	st, err := model.ParseStatus(status)
	if err != nil {
		return invalid("%v", err)
	}
	ctx, cancel := s.step(ctx)
	defer cancel()
	switch err := s.reservations.UpdateStatus(ctx, id, st); {
	case errors.Is(err, repository.ErrDuplicate):
		return ErrSlotReserved
	case err != nil:
		return err
	}
	metrics.IncStatusChange(string(st))
	s.log.Info().Uint64("reservation_id", id).Str("status", string(st)).Msg("reservation status updated")
	return nil
}

// Delete removes a reservation unconditionally.
func (s *BookingService) Delete(ctx context.Context, id uint64) error {
	if id == 0 {
		return invalid("invalid reservation id")
	}
	ctx, cancel := s.step(ctx)
	defer cancel()
	if err := s.reservations.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	s.log.Info().Uint64("reservation_id", id).Msg("reservation deleted")
	return nil
}

// ListAll returns every reservation, newest slot first.
func (s *BookingService) ListAll(ctx context.Context) ([]model.ReservationView, error) {
	ctx, cancel := s.step(ctx)
	defer cancel()
	return s.reservations.ListAll(ctx)
}

// ListByEmail returns one guest's reservation history.
func (s *BookingService) ListByEmail(ctx context.Context, email string) ([]model.ReservationView, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalid("email is required")
	}
	ctx, cancel := s.step(ctx)
	defer cancel()
	return s.reservations.ListByEmail(ctx, email)
}

// Get returns one reservation.
func (s *BookingService) Get(ctx context.Context, id uint64) (model.ReservationView, error) {
	ctx, cancel := s.step(ctx)
	defer cancel()
	return s.reservations.GetByID(ctx, id)
}
