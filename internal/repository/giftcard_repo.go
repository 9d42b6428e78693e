package repository

import (
	"context"

	"gorm.io/gorm"

	"venue-backend/internal/domain/giftcards"
	giftsvc "venue-backend/internal/service/giftcards"
)

var _ giftsvc.Repository = (*GiftCardRepo)(nil)

type GiftCardRepo struct{ db *gorm.DB }

func NewGiftCardRepo(db *gorm.DB) *GiftCardRepo {
	return &GiftCardRepo{db: db}
}

type giftCardTx struct{ tx *gorm.DB }

// Debit is a single conditional UPDATE; the WHERE clause is what prevents
// two concurrent redemptions from overdrawing.
func (t giftCardTx) Debit(userID, holdingID uint, amount int64) (bool, error) {
	res := t.tx.Model(&giftcards.UserGiftCard{}).
		Where("id = ? AND user_id = ? AND remaining_balance_cents >= ?", holdingID, userID, amount).
		Update("remaining_balance_cents", gorm.Expr("remaining_balance_cents - ?", amount))
	return res.RowsAffected == 1, res.Error
}

func (t giftCardTx) Holding(userID, holdingID uint) (*giftcards.UserGiftCard, error) {
	var h giftcards.UserGiftCard
	err := t.tx.Preload("GiftCard").Where("id = ? AND user_id = ?", holdingID, userID).First(&h).Error
	if err != nil {
		return nil, notFound(err, "gift card", holdingID)
	}
	return &h, nil
}

func (t giftCardTx) MarkRedeemed(giftCardID uint) error {
	return t.tx.Model(&giftcards.GiftCard{}).Where("id = ?", giftCardID).Update("status", giftcards.StatusRedeemed).Error
}

func (r *GiftCardRepo) InTx(ctx context.Context, fn func(giftsvc.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(giftCardTx{tx: tx})
	})
}

func (r *GiftCardRepo) ListByUser(ctx context.Context, userID uint) ([]giftcards.UserGiftCard, error) {
	var out []giftcards.UserGiftCard
	err := r.db.WithContext(ctx).Preload("GiftCard").Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}
