package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/booking"
	"venue-backend/internal/domain/purchaser"
	"venue-backend/internal/domain/users"
	"venue-backend/internal/infra/notify"
	"venue-backend/internal/infra/realtime"
	"venue-backend/internal/patch"
	"venue-backend/internal/service/announce"
)

const (
	ReasonDuplicate = "you already have an active booking for this session"
	ReasonFull      = "session is fully booked"
)

// SeatReader counts what holds a seat. Inside LockSession the answers are
// stable until the transaction ends.
type SeatReader interface {
	CountActive(sessionID uint) (int64, error)
	HasActiveBooking(userID, sessionID uint) (bool, error)
}

type SeatTx interface {
	SeatReader
	Create(b *booking.Booking) error
}

type ListFilter struct {
	UserID        *uint
	SessionID     *uint
	PaymentStatus booking.PaymentStatus
}

type Repository interface {
	SessionByID(ctx context.Context, id uint) (*booking.Session, error)
	Seats(ctx context.Context) SeatReader
	// LockSession runs fn in a transaction holding a row lock on the session.
	LockSession(ctx context.Context, sessionID uint, fn func(session *booking.Session, tx SeatTx) error) error
	List(ctx context.Context, f ListFilter) ([]booking.Booking, error)
	ByID(ctx context.Context, id uint) (*booking.Booking, error)
	ByReference(ctx context.Context, ref string) (*booking.Booking, error)
	Update(ctx context.Context, id uint, p *patch.Patch) (*booking.Booking, error)
	Delete(ctx context.Context, id uint) error
}

type Service struct {
	repo     Repository
	announce *announce.Announcer
	log      *logrus.Logger
	now      func() time.Time
}

func NewService(repo Repository, a *announce.Announcer, log *logrus.Logger) *Service {
	return &Service{repo: repo, announce: a, log: log, now: time.Now}
}

type Capacity struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Count   int64  `json:"count"`
	Max     int    `json:"max"`
}

// CheckCapacity reports whether userID (nil for guests) could book the
// session right now. It has no side effects.
func (s *Service) CheckCapacity(ctx context.Context, sessionID uint, userID *uint) (*Capacity, error) {
	session, err := s.repo.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return evaluate(session, s.repo.Seats(ctx), userID)
}

func evaluate(session *booking.Session, seats SeatReader, userID *uint) (*Capacity, error) {
	c := &Capacity{Max: session.MaxPlayers}

	if userID != nil {
		dup, err := seats.HasActiveBooking(*userID, session.ID)
		if err != nil {
			return nil, fmt.Errorf("check existing booking: %w", err)
		}
		if dup {
			c.Reason = ReasonDuplicate
			return c, nil
		}
	}

	count, err := seats.CountActive(session.ID)
	if err != nil {
		return nil, fmt.Errorf("count active bookings: %w", err)
	}
	c.Count = count
	if count >= int64(session.MaxPlayers) {
		c.Reason = ReasonFull
		return c, nil
	}
	c.Allowed = true
	return c, nil
}

type CreateInput struct {
	Purchaser   purchaser.Purchaser
	SessionID   uint
	MachineType string
	StartTime   time.Time
	EndTime     time.Time
	// Empty means pending. Only staff flows set it.
	PaymentStatus booking.PaymentStatus
}

func (in CreateInput) validate() error {
	if err := in.Purchaser.Validate(); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	if in.SessionID == 0 {
		return apperr.Validation("session_id is required")
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return apperr.Validation("start_time and end_time are required")
	}
	if !in.EndTime.After(in.StartTime) {
		return apperr.Validation("end_time must be after start_time")
	}
	if in.PaymentStatus != "" && !in.PaymentStatus.Valid() {
		return apperr.Validation("invalid payment_status %q", in.PaymentStatus)
	}
	return nil
}

// CreateBooking checks capacity and inserts the booking under the session
// lock, so concurrent requests cannot oversell or double book.
func (s *Service) CreateBooking(ctx context.Context, in CreateInput) (*booking.Booking, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var created *booking.Booking
	err := s.repo.LockSession(ctx, in.SessionID, func(session *booking.Session, tx SeatTx) error {
		capacity, err := evaluate(session, tx, in.Purchaser.UserID)
		if err != nil {
			return err
		}
		if !capacity.Allowed {
			return apperr.Conflict("%s", capacity.Reason)
		}

		b := &booking.Booking{
			Purchaser:     in.Purchaser,
			SessionID:     session.ID,
			MachineType:   strings.TrimSpace(in.MachineType),
			StartTime:     in.StartTime,
			EndTime:       in.EndTime,
			PaymentStatus: booking.PaymentPending,
		}
		if b.MachineType == "" {
			b.MachineType = session.MachineType
		}
		if in.PaymentStatus != "" {
			b.PaymentStatus = in.PaymentStatus
		}
		if in.Purchaser.IsGuest() {
			ref := purchaser.NewReference("BK")
			b.BookingReference = &ref
		}
		b.RefreshSessionStatus(s.now())

		if err := tx.Create(b); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Transaction(err, "create booking")
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": created.ID,
		"session_id": created.SessionID,
		"guest":      created.IsGuest(),
	}).Info("booking created")

	s.announce.User(ctx, created.Purchaser, notify.Message{
		Subject: "Booking received",
		Body:    fmt.Sprintf("Your booking #%d for %s is confirmed pending payment.", created.ID, created.StartTime.Format(time.RFC1123)),
	})
	s.announce.Admin(ctx, notify.Message{
		Subject: "New booking",
		Body:    fmt.Sprintf("Booking #%d for session %d.", created.ID, created.SessionID),
	})
	s.announce.Broadcast(ctx, realtime.ChannelBookings, realtime.EventBookingCreated, created)

	return created, nil
}

func (s *Service) ListBookings(ctx context.Context, actor users.Actor, f ListFilter) ([]booking.Booking, error) {
	if !actor.IsAdmin() {
		uid := actor.UserID
		f.UserID = &uid
	}
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range list {
		list[i].RefreshSessionStatus(now)
	}
	return list, nil
}

func (s *Service) GetBooking(ctx context.Context, id uint, actor users.Actor) (*booking.Booking, error) {
	b, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b.UserID) {
		return nil, apperr.Forbidden("booking %d belongs to someone else", id)
	}
	b.RefreshSessionStatus(s.now())
	return b, nil
}

// GetBookingByReference is the guest lookup. The email must match the one
// given at booking time.
func (s *Service) GetBookingByReference(ctx context.Context, ref, email string) (*booking.Booking, error) {
	b, err := s.repo.ByReference(ctx, strings.ToUpper(strings.TrimSpace(ref)))
	if err != nil {
		return nil, err
	}
	if b.Email() == "" || b.Email() != strings.ToLower(strings.TrimSpace(email)) {
		return nil, apperr.NotFound("booking %s not found", ref)
	}
	b.RefreshSessionStatus(s.now())
	return b, nil
}

type UpdateInput struct {
	MachineType   *string
	StartTime     *time.Time
	EndTime       *time.Time
	PaymentStatus *booking.PaymentStatus
}

var updatableColumns = []string{"machine_type", "start_time", "end_time", "session_status", "payment_status"}

func (s *Service) UpdateBooking(ctx context.Context, id uint, actor users.Actor, in UpdateInput) (*booking.Booking, error) {
	current, err := s.GetBooking(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if in.PaymentStatus != nil {
		if !actor.IsAdmin() {
			return nil, apperr.Forbidden("only staff can change payment_status")
		}
		if !in.PaymentStatus.Valid() {
			return nil, apperr.Validation("invalid payment_status %q", *in.PaymentStatus)
		}
	}

	start, end := current.StartTime, current.EndTime
	if in.StartTime != nil {
		start = *in.StartTime
	}
	if in.EndTime != nil {
		end = *in.EndTime
	}
	if !end.After(start) {
		return nil, apperr.Validation("end_time must be after start_time")
	}

	p := patch.New()
	patch.SetIf(p, "machine_type", in.MachineType)
	patch.SetIf(p, "start_time", in.StartTime)
	patch.SetIf(p, "end_time", in.EndTime)
	patch.SetIf(p, "payment_status", in.PaymentStatus)
	if p.Empty() {
		return nil, apperr.Validation("nothing to update")
	}
	if in.StartTime != nil || in.EndTime != nil {
		p.Set("session_status", booking.DeriveSessionStatus(s.now(), start, end))
	}
	if err := p.Restrict(updatableColumns...); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	updated, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	updated.RefreshSessionStatus(s.now())

	s.log.WithFields(logrus.Fields{"booking_id": id, "columns": p.Columns()}).Info("booking updated")
	s.announce.Broadcast(ctx, realtime.ChannelBookings, realtime.EventBookingUpdated, updated)
	return updated, nil
}

// CancelBooking releases the seat. Cancelling twice is a no-op.
func (s *Service) CancelBooking(ctx context.Context, id uint, actor users.Actor) (*booking.Booking, error) {
	current, err := s.GetBooking(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus == booking.PaymentCancelled {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, patch.New().Set("payment_status", booking.PaymentCancelled))
	if err != nil {
		return nil, err
	}
	updated.RefreshSessionStatus(s.now())

	s.log.WithField("booking_id", id).Info("booking cancelled")
	s.announce.User(ctx, updated.Purchaser, notify.Message{
		Subject: "Booking cancelled",
		Body:    fmt.Sprintf("Your booking #%d has been cancelled.", id),
	})
	s.announce.Broadcast(ctx, realtime.ChannelBookings, realtime.EventBookingUpdated, updated)
	return updated, nil
}

func (s *Service) DeleteBooking(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("booking_id", id).Info("booking deleted")
	return nil
}
