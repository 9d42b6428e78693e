package booking

import (
	"context"
	"sync"
	"time"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/booking"
	"venue-backend/internal/patch"
)

// memRepo keeps bookings in memory. LockSession serialises callers with a
// mutex and commits staged inserts only when fn succeeds, like a row lock
// inside a transaction.
type memRepo struct {
	mu       sync.Mutex
	sessions map[uint]*booking.Session
	bookings []booking.Booking
	nextID   uint
	failOn   error
}

func newMemRepo(sessions ...booking.Session) *memRepo {
	r := &memRepo{sessions: map[uint]*booking.Session{}}
	for i := range sessions {
		s := sessions[i]
		r.sessions[s.ID] = &s
	}
	return r
}

type memSeats struct {
	bookings []booking.Booking
	staged   []booking.Booking
	repo     *memRepo
}

func isActive(b booking.Booking) bool {
	return b.PaymentStatus == booking.PaymentPending || b.PaymentStatus == booking.PaymentPaid
}

func (s *memSeats) all() []booking.Booking {
	return append(append([]booking.Booking{}, s.bookings...), s.staged...)
}

func (s *memSeats) CountActive(sessionID uint) (int64, error) {
	var n int64
	for _, b := range s.all() {
		if b.SessionID == sessionID && isActive(b) {
			n++
		}
	}
	return n, nil
}

func (s *memSeats) HasActiveBooking(userID, sessionID uint) (bool, error) {
	for _, b := range s.all() {
		if b.SessionID == sessionID && isActive(b) && b.OwnedBy(userID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memSeats) Create(b *booking.Booking) error {
	if s.repo.failOn != nil {
		return s.repo.failOn
	}
	s.repo.nextID++
	b.ID = s.repo.nextID
	s.staged = append(s.staged, *b)
	return nil
}

func (r *memRepo) SessionByID(_ context.Context, id uint) (*booking.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, apperr.NotFound("session %d not found", id)
	}
	cp := *s
	return &cp, nil
}

func (r *memRepo) Seats(context.Context) SeatReader {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &memSeats{bookings: append([]booking.Booking{}, r.bookings...), repo: r}
}

func (r *memRepo) LockSession(_ context.Context, sessionID uint, fn func(*booking.Session, SeatTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return apperr.NotFound("session %d not found", sessionID)
	}
	tx := &memSeats{bookings: r.bookings, repo: r}
	cp := *s
	if err := fn(&cp, tx); err != nil {
		return err
	}
	r.bookings = append(r.bookings, tx.staged...)
	return nil
}

func (r *memRepo) List(_ context.Context, f ListFilter) ([]booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Booking
	for _, b := range r.bookings {
		if f.UserID != nil && !b.OwnedBy(*f.UserID) {
			continue
		}
		if f.SessionID != nil && b.SessionID != *f.SessionID {
			continue
		}
		if f.PaymentStatus != "" && b.PaymentStatus != f.PaymentStatus {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *memRepo) find(id uint) (int, error) {
	for i, b := range r.bookings {
		if b.ID == id {
			return i, nil
		}
	}
	return -1, apperr.NotFound("booking %d not found", id)
}

func (r *memRepo) ByID(_ context.Context, id uint) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.find(id)
	if err != nil {
		return nil, err
	}
	cp := r.bookings[i]
	return &cp, nil
}

func (r *memRepo) ByReference(_ context.Context, ref string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.BookingReference != nil && *b.BookingReference == ref {
			cp := b
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("booking %s not found", ref)
}

func (r *memRepo) Update(_ context.Context, id uint, p *patch.Patch) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.find(id)
	if err != nil {
		return nil, err
	}
	b := &r.bookings[i]
	for col, v := range p.Map() {
		switch col {
		case "machine_type":
			b.MachineType = v.(string)
		case "start_time":
			b.StartTime = v.(time.Time)
		case "end_time":
			b.EndTime = v.(time.Time)
		case "payment_status":
			b.PaymentStatus = v.(booking.PaymentStatus)
		case "session_status":
			b.SessionStatus = v.(booking.SessionStatus)
		}
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.find(id)
	if err != nil {
		return err
	}
	r.bookings = append(r.bookings[:i], r.bookings[i+1:]...)
	return nil
}
