package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/booking"
	"venue-backend/internal/patch"
	bookingsvc "venue-backend/internal/service/booking"
)

var _ bookingsvc.Repository = (*BookingRepo)(nil)

type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

type seats struct{ tx *gorm.DB }

func (s seats) CountActive(sessionID uint) (int64, error) {
	var n int64
	err := s.tx.Model(&booking.Booking{}).
		Where("session_id = ? AND payment_status IN ?", sessionID, booking.ActivePaymentStatuses).
		Count(&n).Error
	return n, err
}

func (s seats) HasActiveBooking(userID, sessionID uint) (bool, error) {
	var n int64
	err := s.tx.Model(&booking.Booking{}).
		Where("user_id = ? AND session_id = ? AND payment_status IN ?", userID, sessionID, booking.ActivePaymentStatuses).
		Count(&n).Error
	return n > 0, err
}

func (s seats) Create(b *booking.Booking) error {
	return s.tx.Omit(clause.Associations).Create(b).Error
}

func (r *BookingRepo) SessionByID(ctx context.Context, id uint) (*booking.Session, error) {
	var s booking.Session
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, notFound(err, "session", id)
	}
	return &s, nil
}

func (r *BookingRepo) Seats(ctx context.Context) bookingsvc.SeatReader {
	return seats{tx: r.db.WithContext(ctx)}
}

// LockSession takes SELECT ... FOR UPDATE on the session row, so concurrent
// bookings for the same session queue up behind each other.
func (r *BookingRepo) LockSession(ctx context.Context, sessionID uint, fn func(*booking.Session, bookingsvc.SeatTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s booking.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, sessionID).Error; err != nil {
			return notFound(err, "session", sessionID)
		}
		return fn(&s, seats{tx: tx})
	})
}

func (r *BookingRepo) List(ctx context.Context, f bookingsvc.ListFilter) ([]booking.Booking, error) {
	q := r.db.WithContext(ctx).Model(&booking.Booking{}).Preload("Session")
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.SessionID != nil {
		q = q.Where("session_id = ?", *f.SessionID)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	var out []booking.Booking
	if err := q.Order("start_time ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingRepo) ByID(ctx context.Context, id uint) (*booking.Booking, error) {
	var b booking.Booking
	if err := r.db.WithContext(ctx).Preload("Session").First(&b, id).Error; err != nil {
		return nil, notFound(err, "booking", id)
	}
	return &b, nil
}

func (r *BookingRepo) ByReference(ctx context.Context, ref string) (*booking.Booking, error) {
	var b booking.Booking
	if err := r.db.WithContext(ctx).Preload("Session").Where("booking_reference = ?", ref).First(&b).Error; err != nil {
		return nil, notFound(err, "booking", ref)
	}
	return &b, nil
}

func (r *BookingRepo) Update(ctx context.Context, id uint, p *patch.Patch) (*booking.Booking, error) {
	res := r.db.WithContext(ctx).Model(&booking.Booking{}).Where("id = ?", id).Updates(p.Map())
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("booking %d not found", id)
	}
	return r.ByID(ctx, id)
}

func (r *BookingRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&booking.Booking{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("booking %d not found", id)
	}
	return nil
}
