package giftcards

import (
	"errors"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusRedeemed Status = "redeemed"
	StatusDisabled Status = "disabled"
)

var ErrInsufficientBalance = errors.New("insufficient gift card balance")

type GiftCard struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"not null;uniqueIndex" json:"code"`
	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Status      Status `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserGiftCard is a user's holding of a gift card. The balance never drops
// below zero; the check constraint backs the conditional debit.
type UserGiftCard struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	UserID                uint      `gorm:"not null;uniqueIndex:ux_user_gift_card,priority:1" json:"user_id"`
	GiftCardID            uint      `gorm:"not null;uniqueIndex:ux_user_gift_card,priority:2" json:"gift_card_id"`
	GiftCard              *GiftCard `json:"gift_card,omitempty"`
	OriginalAmountCents   int64     `gorm:"not null" json:"original_amount_cents"`
	RemainingBalanceCents int64     `gorm:"not null;check:remaining_balance_cents >= 0" json:"remaining_balance_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Debit applies amount to the holding, refusing to overdraw. It reports
// whether the balance is now exhausted.
func (u *UserGiftCard) Debit(amount int64) (bool, error) {
	if amount > u.RemainingBalanceCents {
		return false, ErrInsufficientBalance
	}
	u.RemainingBalanceCents -= amount
	return u.RemainingBalanceCents == 0, nil
}
