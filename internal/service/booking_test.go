package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashroots/table-reservation/internal/calendar"
	"github.com/ashroots/table-reservation/internal/model"
	"github.com/ashroots/table-reservation/internal/repository"
	"github.com/ashroots/table-reservation/internal/testutil/memstore"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Confirmation
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, c model.Confirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, c)
	return n.err
}

func (n *recordingNotifier) all() []model.Confirmation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Confirmation(nil), n.sent...)
}

type fixture struct {
	store    *memstore.Store
	notifier *recordingNotifier
	booking  *BookingService
	avail    *AvailabilityService
}

func newFixture(t *testing.T, capacities ...int) *fixture {
	t.Helper()
	st := memstore.New(capacities...)
	n := &recordingNotifier{}
	log := zerolog.Nop()
	return &fixture{
		store:    st,
		notifier: n,
		booking: NewBookingService(BookingDeps{
			Tx:           st,
			Identity:     NewIdentityResolver(st, bcrypt.MinCost, log),
			Tables:       st.Tables(),
			Reservations: st.Reservations(),
			Notifier:     n,
			Log:          log,
		}),
		avail: NewAvailabilityService(st.Tables(), st.Reservations(), 0),
	}
}

// sent waits for background confirmations and returns what was sent.
func (f *fixture) sent(t *testing.T) []model.Confirmation {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.booking.Drain(ctx))
	return f.notifier.all()
}

func request(email string, tableID uint64) model.BookingRequest {
	return model.BookingRequest{
		Name:     "Guest " + email,
		Email:    email,
		TableID:  tableID,
		Date:     "2026-03-15",
		TimeSlot: "19:00",
	}
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t, 2, 4, 6)
	ctx := context.Background()

	req := request("ann@example.com", 3)
	req.SpecialRequests = "  window seat "
	res, err := f.booking.CreateBooking(ctx, req)
	require.NoError(t, err)

	assert.NotZero(t, res.ID)
	assert.NotZero(t, res.UserID)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	assert.Equal(t, "2026-03-15", res.Date.String())
	assert.Equal(t, "19:00:00", res.TimeSlot.String())
	assert.Equal(t, "window seat", res.SpecialRequests)
	assert.Equal(t, 1, f.store.Commits())
	assert.Zero(t, f.store.Rollbacks())

	sent := f.sent(t)
	require.Len(t, sent, 1)
	assert.Equal(t, res.ID, sent[0].ReservationID)
	assert.Equal(t, "ann@example.com", sent[0].Email)
	assert.Equal(t, 6, sent[0].TableCapacity)
	assert.Equal(t, "19:00:00", sent[0].TimeSlot.String())

	u, err := f.store.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.UserID)
	assert.Equal(t, model.RoleCustomer, u.Role)
	assert.Empty(t, u.PasswordHash)
}

func TestCreateBookingReusesExistingUser(t *testing.T) {
	f := newFixture(t, 4, 4)
	ctx := context.Background()

	first, err := f.booking.CreateBooking(ctx, request("bob@example.com", 1))
	require.NoError(t, err)

	req := request("bob@example.com", 2)
	req.Name = "Someone Else"
	second, err := f.booking.CreateBooking(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)

	users, err := f.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Guest bob@example.com", users[0].Name)
}

func TestCreateBookingHashesPassword(t *testing.T) {
	f := newFixture(t, 4)
	req := request("pw@example.com", 1)
	req.Password = "s3cret!"
	_, err := f.booking.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	u, err := f.store.GetByEmail(context.Background(), "pw@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret!")))
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t, 4)
	cases := map[string]func(*model.BookingRequest){
		"missing name":  func(r *model.BookingRequest) { r.Name = " " },
		"missing email": func(r *model.BookingRequest) { r.Email = "" },
		"missing table": func(r *model.BookingRequest) { r.TableID = 0 },
		"missing date":  func(r *model.BookingRequest) { r.Date = "" },
		"missing time":  func(r *model.BookingRequest) { r.TimeSlot = "" },
		"bad date":      func(r *model.BookingRequest) { r.Date = "15/03/2026" },
		"bad time":      func(r *model.BookingRequest) { r.TimeSlot = "25:00" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := request("v@example.com", 1)
			mutate(&req)
			_, err := f.booking.CreateBooking(context.Background(), req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Zero(t, f.store.Commits())
	assert.Zero(t, f.store.Rollbacks())
	assert.Empty(t, f.sent(t))
}

func TestCreateBookingPreCheckConflict(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	_, err := f.booking.CreateBooking(ctx, request("a@example.com", 1))
	require.NoError(t, err)

	// same slot written differently
	req := request("b@example.com", 1)
	req.TimeSlot = "19:00:00"
	_, err = f.booking.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrSlotReserved)

	// rejected before a transaction was opened
	assert.Equal(t, 1, f.store.Commits())
	assert.Zero(t, f.store.Rollbacks())
	_, err = f.store.GetByEmail(ctx, "b@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateBookingReCheckConflictRollsBackUser(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	fired := false
	f.store.OnSlotCheckTx = func() {
		if fired {
			return
		}
		fired = true
		// a competing booking commits between the pre-check and the re-check
		_, err := f.booking.CreateBooking(ctx, request("fast@example.com", 1))
		require.NoError(t, err)
	}

	_, err := f.booking.CreateBooking(ctx, request("slow@example.com", 1))
	assert.ErrorIs(t, err, ErrSlotJustReserved)

	_, err = f.store.GetByEmail(ctx, "slow@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound, "user created in the failed transaction must not persist")
	all, err := f.store.Reservations().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "fast@example.com", all[0].Email)
	assert.Equal(t, 1, f.store.Rollbacks())
}

func TestCreateBookingInsertFailureRollsBack(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	boom := errors.New("disk full")
	f.store.FailCreateReservation = boom

	_, err := f.booking.CreateBooking(ctx, request("c@example.com", 1))
	require.ErrorIs(t, err, boom)

	_, err = f.store.GetByEmail(ctx, "c@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	all, err := f.store.Reservations().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 1, f.store.Rollbacks())
	assert.Zero(t, f.store.Commits())
	assert.Empty(t, f.sent(t))
}

func TestCreateBookingUnknownTable(t *testing.T) {
	f := newFixture(t, 4)
	_, err := f.booking.CreateBooking(context.Background(), request("d@example.com", 99))
	assert.ErrorIs(t, err, ErrUnknownTable)
	assert.Equal(t, 1, f.store.Rollbacks())
}

func TestCreateBookingCapacityLookupIsBestEffort(t *testing.T) {
	f := newFixture(t, 4)
	f.store.FailTableLookup = errors.New("lookup timed out")

	res, err := f.booking.CreateBooking(context.Background(), request("e@example.com", 1))
	require.NoError(t, err)
	assert.NotZero(t, res.ID)

	sent := f.sent(t)
	require.Len(t, sent, 1)
	assert.Zero(t, sent[0].TableCapacity)
}

func TestCreateBookingNotificationFailureKeepsBooking(t *testing.T) {
	f := newFixture(t, 4)
	f.notifier.err = errors.New("broker down")

	res, err := f.booking.CreateBooking(context.Background(), request("f@example.com", 1))
	require.NoError(t, err)

	got, err := f.booking.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
}

func TestConcurrentBookingsSameSlot(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	const n = 25

	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.booking.CreateBooking(ctx, request(fmt.Sprintf("g%d@example.com", i), 1))
		}(i)
	}
	close(start)
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, ErrSlotReserved) || errors.Is(err, ErrSlotJustReserved), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)

	all, err := f.store.Reservations().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	users, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1, "losing bookings must not leave users behind")
}

func TestConcurrentBookingsSameNewEmail(t *testing.T) {
	const n = 10
	caps := make([]int, n)
	for i := range caps {
		caps[i] = 4
	}
	f := newFixture(t, caps...)
	ctx := context.Background()

	var wg sync.WaitGroup
	userIDs := make([]uint64, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.booking.CreateBooking(ctx, request("same@example.com", uint64(i+1)))
			userIDs[i], errs[i] = res.UserID, err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "booking %d", i)
		assert.Equal(t, userIDs[0], userIDs[i])
	}
	users, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	first, err := f.booking.CreateBooking(ctx, request("h@example.com", 1))
	require.NoError(t, err)
	require.NoError(t, f.booking.UpdateStatus(ctx, first.ID, "cancelled"))

	ok, err := f.avail.CheckTable(ctx, 1, "2026-03-15", "19:00:00")
	require.NoError(t, err)
	assert.True(t, ok)

	second, err := f.booking.CreateBooking(ctx, request("i@example.com", 1))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// reviving the cancelled booking would double-book the slot
	err = f.booking.UpdateStatus(ctx, first.ID, "confirmed")
	assert.ErrorIs(t, err, ErrSlotReserved)
	err = f.booking.UpdateStatus(ctx, first.ID, "pending")
	assert.ErrorIs(t, err, ErrSlotReserved)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	res, err := f.booking.CreateBooking(ctx, request("j@example.com", 1))
	require.NoError(t, err)

	for _, st := range []string{"pending", "pending", "confirmed", "cancelled", "confirmed"} {
		require.NoError(t, f.booking.UpdateStatus(ctx, res.ID, st), st)
		got, err := f.booking.Get(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Status(st), got.Status)
	}

	assert.ErrorIs(t, f.booking.UpdateStatus(ctx, res.ID, "completed"), ErrValidation)
	assert.ErrorIs(t, f.booking.UpdateStatus(ctx, 0, "pending"), ErrValidation)
	assert.ErrorIs(t, f.booking.UpdateStatus(ctx, 4242, "pending"), repository.ErrNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	res, err := f.booking.CreateBooking(ctx, request("k@example.com", 1))
	require.NoError(t, err)

	require.NoError(t, f.booking.Delete(ctx, res.ID))
	_, err = f.booking.Get(ctx, res.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, f.booking.Delete(ctx, res.ID), "deleting twice is not an error")
	assert.ErrorIs(t, f.booking.Delete(ctx, 0), ErrValidation)

	_, err = f.booking.CreateBooking(ctx, request("l@example.com", 1))
	assert.NoError(t, err)
}

func TestDateRoundTrip(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	for _, in := range []string{"2024-03-15", "2024-03-15T00:00:00.000Z", "2024-03-15T23:30:00-08:00"} {
		f := newFixture(t, 4)
		req := request("m@example.com", 1)
		req.Date = in
		_, err := f.booking.CreateBooking(ctx, req)
		require.NoError(t, err, in)

		hist, err := f.booking.ListByEmail(ctx, "m@example.com")
		require.NoError(t, err)
		require.Len(t, hist, 1)
		assert.Equal(t, "2024-03-15", hist[0].Date.String(), in)
		assert.Equal(t, calendar.Date{Year: 2024, Month: 3, Day: 15}, hist[0].Date)
	}

	_, err := f.booking.ListByEmail(ctx, " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListByEmailNewestFirst(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	for _, d := range []string{"2026-01-10", "2026-02-01", "2025-12-24"} {
		req := request("n@example.com", 1)
		req.Date = d
		_, err := f.booking.CreateBooking(ctx, req)
		require.NoError(t, err)
	}
	_, err := f.booking.CreateBooking(ctx, request("other@example.com", 1))
	require.NoError(t, err)

	hist, err := f.booking.ListByEmail(ctx, "n@example.com")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "2026-02-01", hist[0].Date.String())
	assert.Equal(t, "2025-12-24", hist[2].Date.String())
	assert.Equal(t, 4, hist[0].TableCapacity)

	all, err := f.booking.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

// blockingNotifier holds every Send until its context ends or release is
// closed.
type blockingNotifier struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	errs    []error
}

func newBlockingNotifier() *blockingNotifier {
	return &blockingNotifier{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (n *blockingNotifier) Send(ctx context.Context, _ model.Confirmation) error {
	n.started <- struct{}{}
	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-n.release:
	}
	n.mu.Lock()
	n.errs = append(n.errs, err)
	n.mu.Unlock()
	return err
}

func newBlockedBooking(t *testing.T, n Notifier, notifyTimeout time.Duration) (*memstore.Store, *BookingService) {
	t.Helper()
	st := memstore.New(4)
	log := zerolog.Nop()
	return st, NewBookingService(BookingDeps{
		Tx:            st,
		Identity:      NewIdentityResolver(st, bcrypt.MinCost, log),
		Tables:        st.Tables(),
		Reservations:  st.Reservations(),
		Notifier:      n,
		Log:           log,
		NotifyTimeout: notifyTimeout,
	})
}

func TestCreateBookingDoesNotWaitForConfirmation(t *testing.T) {
	n := newBlockingNotifier()
	t.Cleanup(func() { close(n.release) })
	st, b := newBlockedBooking(t, n, time.Minute)

	done := make(chan error, 1)
	go func() {
		_, err := b.CreateBooking(context.Background(), request("slow@example.com", 1))
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("CreateBooking blocked on a stalled notifier")
	}
	<-n.started
	assert.Equal(t, 1, st.Commits())

	// still stalled: Drain gives up when its own context ends
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Drain(ctx), context.DeadlineExceeded)
}

func TestConfirmationIsBoundedByNotifyTimeout(t *testing.T) {
	n := newBlockingNotifier()
	t.Cleanup(func() { close(n.release) })
	_, b := newBlockedBooking(t, n, 100*time.Millisecond)

	reqCtx, cancelReq := context.WithCancel(context.Background())
	_, err := b.CreateBooking(reqCtx, request("bounded@example.com", 1))
	require.NoError(t, err)
	// the request ending must not cut the confirmation short
	cancelReq()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, b.Drain(ctx))

	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.errs, 1)
	assert.ErrorIs(t, n.errs[0], context.DeadlineExceeded)
}
