package giftcards

import (
	"context"

	"github.com/sirupsen/logrus"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/giftcards"
)

type Tx interface {
	// Debit subtracts amount only if the balance covers it. ok is false when
	// no row qualified.
	Debit(userID, holdingID uint, amount int64) (ok bool, err error)
	Holding(userID, holdingID uint) (*giftcards.UserGiftCard, error)
	MarkRedeemed(giftCardID uint) error
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	ListByUser(ctx context.Context, userID uint) ([]giftcards.UserGiftCard, error)
}

type Service struct {
	repo Repository
	log  *logrus.Logger
}

func NewService(repo Repository, log *logrus.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Redeem spends amount from the user's gift card. Overdrawing fails without
// changing anything; spending the last cent marks the card redeemed.
func (s *Service) Redeem(ctx context.Context, userID, holdingID uint, amount int64) (*giftcards.UserGiftCard, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be greater than zero")
	}

	var result *giftcards.UserGiftCard
	err := s.repo.InTx(ctx, func(tx Tx) error {
		ok, err := tx.Debit(userID, holdingID, amount)
		if err != nil {
			return err
		}
		if !ok {
			// Either the card is not theirs or the balance is short.
			if _, err := tx.Holding(userID, holdingID); err != nil {
				return err
			}
			return apperr.Conflict("%s", giftcards.ErrInsufficientBalance.Error())
		}

		h, err := tx.Holding(userID, holdingID)
		if err != nil {
			return err
		}
		if h.RemainingBalanceCents == 0 {
			if err := tx.MarkRedeemed(h.GiftCardID); err != nil {
				return err
			}
			if h.GiftCard != nil {
				h.GiftCard.Status = giftcards.StatusRedeemed
			}
		}
		result = h
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Transaction(err, "redeem gift card")
	}

	s.log.WithFields(logrus.Fields{
		"user_id":         userID,
		"user_gift_card":  holdingID,
		"amount_cents":    amount,
		"remaining_cents": result.RemainingBalanceCents,
	}).Info("gift card redeemed")
	return result, nil
}

func (s *Service) ListUserGiftCards(ctx context.Context, userID uint) ([]giftcards.UserGiftCard, error) {
	return s.repo.ListByUser(ctx, userID)
}
