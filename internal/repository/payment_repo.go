package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"venue-backend/internal/domain/billing"
	"venue-backend/internal/domain/booking"
	"venue-backend/internal/domain/giftcards"
	"venue-backend/internal/domain/orders"
	"venue-backend/internal/domain/registrations"
	"venue-backend/internal/service/entities"
	"venue-backend/internal/service/payments"
)

var (
	_ payments.Repository = (*PaymentRepo)(nil)
	_ entities.Reader     = (*EntityReader)(nil)
)

type PaymentRepo struct{ db *gorm.DB }

func NewPaymentRepo(db *gorm.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Create(ctx context.Context, p *billing.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint) ([]billing.Payment, error) {
	var out []billing.Payment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *PaymentRepo) ListAll(ctx context.Context) ([]billing.Payment, error) {
	var out []billing.Payment
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// EntityReader reads what a payable entity costs.
type EntityReader struct{ db *gorm.DB }

func NewEntityReader(db *gorm.DB) *EntityReader {
	return &EntityReader{db: db}
}

func (r *EntityReader) OrderTotal(ctx context.Context, orderID uint) (int64, bool, error) {
	return pluckAmount(r.db.WithContext(ctx).Model(&orders.Order{}).Where("id = ?", orderID), "total_amount_cents")
}

func (r *EntityReader) BookingPrice(ctx context.Context, bookingID uint) (int64, bool, error) {
	q := r.db.WithContext(ctx).Model(&booking.Booking{}).
		Joins("JOIN sessions ON sessions.id = bookings.session_id").
		Where("bookings.id = ?", bookingID)
	return pluckAmount(q, "sessions.price_cents")
}

func (r *EntityReader) EntryFee(ctx context.Context, kind registrations.Kind, registrationID uint) (int64, bool, error) {
	regs, targets, fk := kind.Tables()
	q := r.db.WithContext(ctx).Table(regs).
		Joins(fmt.Sprintf("JOIN %s ON %s.id = %s.%s", targets, targets, regs, fk)).
		Where(regs+".id = ?", registrationID)
	return pluckAmount(q, targets+".entry_fee_cents")
}

func (r *EntityReader) GiftCardAmount(ctx context.Context, giftCardID uint) (int64, bool, error) {
	return pluckAmount(r.db.WithContext(ctx).Model(&giftcards.GiftCard{}).Where("id = ?", giftCardID), "amount_cents")
}

func pluckAmount(q *gorm.DB, column string) (int64, bool, error) {
	var amounts []int64
	if err := q.Limit(1).Pluck(column, &amounts).Error; err != nil {
		return 0, false, err
	}
	if len(amounts) == 0 {
		return 0, false, nil
	}
	return amounts[0], true, nil
}
