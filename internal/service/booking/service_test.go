package booking

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/booking"
	"venue-backend/internal/domain/purchaser"
	"venue-backend/internal/domain/users"
	"venue-backend/internal/service/announce"
)

var (
	t0    = time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)
	admin = users.Actor{UserID: 99, Role: users.RoleAdmin}
)

func newTestService(repo Repository) (*Service, *announce.Recorder) {
	a, rec := announce.NewRecording()
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewService(repo, a, log)
	s.now = func() time.Time { return t0.Add(-24 * time.Hour) }
	return s, rec
}

func input(p purchaser.Purchaser, sessionID uint) CreateInput {
	return CreateInput{Purchaser: p, SessionID: sessionID, StartTime: t0, EndTime: t0.Add(time.Hour)}
}

func TestCapacityScenarioA(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 2, MachineType: "HTC Vive"})
	svc, rec := newTestService(repo)
	ctx := context.Background()

	b1, err := svc.CreateBooking(ctx, input(purchaser.User(1), 1))
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentPending, b1.PaymentStatus)
	assert.Equal(t, "HTC Vive", b1.MachineType)
	assert.Equal(t, booking.SessionPending, b1.SessionStatus)

	_, err = svc.CreateBooking(ctx, input(purchaser.User(2), 1))
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, input(purchaser.User(3), 1))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), ReasonFull)

	assert.Len(t, repo.bookings, 2)
	assert.Len(t, rec.Users, 2)
	assert.Len(t, rec.Admins, 2)
	assert.Equal(t, []string{"bookings:booking-created", "bookings:booking-created"}, rec.Broadcasts)
}

func TestCapacityScenarioBCancelledDoesNotCount(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 1})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	b1, err := svc.CreateBooking(ctx, input(purchaser.User(1), 1))
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, b1.ID, users.Actor{UserID: 1, Role: users.RoleUser})
	require.NoError(t, err)

	capacity, err := svc.CheckCapacity(ctx, 1, nil)
	require.NoError(t, err)
	assert.True(t, capacity.Allowed)
	assert.Equal(t, int64(0), capacity.Count)

	_, err = svc.CreateBooking(ctx, input(purchaser.User(2), 1))
	assert.NoError(t, err)
}

func TestCapacityScenarioCDuplicateRejected(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 5})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, input(purchaser.User(7), 1))
	require.NoError(t, err)

	uid := uint(7)
	capacity, err := svc.CheckCapacity(ctx, 1, &uid)
	require.NoError(t, err)
	assert.False(t, capacity.Allowed)
	assert.Equal(t, ReasonDuplicate, capacity.Reason)

	_, err = svc.CreateBooking(ctx, input(purchaser.User(7), 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ReasonDuplicate)
	assert.Len(t, repo.bookings, 1)
}

func TestPaidBookingStillHoldsSeat(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 1})
	svc, _ := newTestService(repo)

	b := input(purchaser.User(1), 1)
	b.PaymentStatus = booking.PaymentPaid
	_, err := svc.CreateBooking(context.Background(), b)
	require.NoError(t, err)

	capacity, err := svc.CheckCapacity(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.False(t, capacity.Allowed)
	assert.Equal(t, ReasonFull, capacity.Reason)
}

func TestCheckCapacityMissingSessionIsNotFound(t *testing.T) {
	svc, _ := newTestService(newMemRepo())

	_, err := svc.CheckCapacity(context.Background(), 404, nil)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 3})
	svc, _ := newTestService(repo)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, full := 0, 0
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(uid uint) {
			defer wg.Done()
			_, err := svc.CreateBooking(context.Background(), input(purchaser.User(uid), 1))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if apperr.Is(err, apperr.KindConflict) {
				full++
			}
		}(uint(i))
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 17, full)
	assert.Len(t, repo.bookings, 3)
}

func TestGuestBookingGetsReference(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 2})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, input(purchaser.Guest("Ana", "ana@example.com", "+351"), 1))
	require.NoError(t, err)
	require.NotNil(t, b.BookingReference)

	found, err := svc.GetBookingByReference(ctx, *b.BookingReference, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)

	_, err = svc.GetBookingByReference(ctx, *b.BookingReference, "someone@else.com")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _ := newTestService(newMemRepo(booking.Session{ID: 1, MaxPlayers: 2}))

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"no purchaser", CreateInput{SessionID: 1, StartTime: t0, EndTime: t0.Add(time.Hour)}},
		{"no session", input(purchaser.User(1), 0)},
		{"end before start", CreateInput{Purchaser: purchaser.User(1), SessionID: 1, StartTime: t0, EndTime: t0}},
		{"bad status", CreateInput{Purchaser: purchaser.User(1), SessionID: 1, StartTime: t0, EndTime: t0.Add(time.Hour), PaymentStatus: "refunded"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBooking(context.Background(), tt.in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestCreateBookingStorageFailureIsTransactionError(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 2})
	repo.failOn = errors.New("connection reset")
	svc, rec := newTestService(repo)

	_, err := svc.CreateBooking(context.Background(), input(purchaser.User(1), 1))

	assert.Equal(t, apperr.KindTransaction, apperr.KindOf(err))
	assert.Empty(t, repo.bookings)
	assert.Empty(t, rec.Broadcasts, "nothing is announced for a rolled back booking")
}

func TestReadPathsRecomputeSessionStatus(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 2})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, input(purchaser.User(1), 1))
	require.NoError(t, err)

	svc.now = func() time.Time { return t0.Add(30 * time.Minute) }
	got, err := svc.GetBooking(ctx, b.ID, users.Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, booking.SessionStarted, got.SessionStatus)

	svc.now = func() time.Time { return t0.Add(2 * time.Hour) }
	list, err := svc.ListBookings(ctx, users.Actor{UserID: 1}, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, booking.SessionCompleted, list[0].SessionStatus)
}

func TestListBookingsScopesToCaller(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 5})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	for _, uid := range []uint{1, 2} {
		_, err := svc.CreateBooking(ctx, input(purchaser.User(uid), 1))
		require.NoError(t, err)
	}

	own, err := svc.ListBookings(ctx, users.Actor{UserID: 2}, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, own, 1)

	all, err := svc.ListBookings(ctx, admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetBookingForbidsOtherUsers(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 2})
	svc, _ := newTestService(repo)
	b, err := svc.CreateBooking(context.Background(), input(purchaser.User(1), 1))
	require.NoError(t, err)

	_, err = svc.GetBooking(context.Background(), b.ID, users.Actor{UserID: 2})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.GetBooking(context.Background(), b.ID, admin)
	assert.NoError(t, err)
}

func TestUpdateBooking(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 2})
	svc, rec := newTestService(repo)
	ctx := context.Background()
	owner := users.Actor{UserID: 1}

	b, err := svc.CreateBooking(ctx, input(purchaser.User(1), 1))
	require.NoError(t, err)

	machine := "Valve Index"
	later := t0.Add(3 * time.Hour)
	updated, err := svc.UpdateBooking(ctx, b.ID, owner, UpdateInput{MachineType: &machine, EndTime: &later})
	require.NoError(t, err)
	assert.Equal(t, "Valve Index", updated.MachineType)
	assert.True(t, later.Equal(updated.EndTime))
	assert.Contains(t, rec.Broadcasts, "bookings:booking-updated")

	paid := booking.PaymentPaid
	_, err = svc.UpdateBooking(ctx, b.ID, owner, UpdateInput{PaymentStatus: &paid})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	updated, err = svc.UpdateBooking(ctx, b.ID, admin, UpdateInput{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentPaid, updated.PaymentStatus)

	early := t0.Add(-2 * time.Hour)
	_, err = svc.UpdateBooking(ctx, b.ID, owner, UpdateInput{EndTime: &early})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.UpdateBooking(ctx, b.ID, owner, UpdateInput{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCancelBookingIsIdempotent(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 2})
	svc, rec := newTestService(repo)
	ctx := context.Background()
	owner := users.Actor{UserID: 1}

	b, err := svc.CreateBooking(ctx, input(purchaser.User(1), 1))
	require.NoError(t, err)

	first, err := svc.CancelBooking(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentCancelled, first.PaymentStatus)
	notified := len(rec.Users)

	second, err := svc.CancelBooking(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentCancelled, second.PaymentStatus)
	assert.Len(t, rec.Users, notified)
}

func TestDeleteBooking(t *testing.T) {
	repo := newMemRepo(booking.Session{ID: 1, MaxPlayers: 2})
	svc, _ := newTestService(repo)
	b, err := svc.CreateBooking(context.Background(), input(purchaser.User(1), 1))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBooking(context.Background(), b.ID))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.DeleteBooking(context.Background(), b.ID)))
}
