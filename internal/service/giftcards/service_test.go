package giftcards

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/giftcards"
)

type memRepo struct {
	holdings map[uint]giftcards.UserGiftCard
	cards    map[uint]giftcards.Status
}

type memTx struct {
	holdings map[uint]giftcards.UserGiftCard
	cards    map[uint]giftcards.Status
}

func (t *memTx) Debit(userID, id uint, amount int64) (bool, error) {
	h, ok := t.holdings[id]
	if !ok || h.UserID != userID {
		return false, nil
	}
	if _, err := h.Debit(amount); err != nil {
		return false, nil
	}
	t.holdings[id] = h
	return true, nil
}

func (t *memTx) Holding(userID, id uint) (*giftcards.UserGiftCard, error) {
	h, ok := t.holdings[id]
	if !ok || h.UserID != userID {
		return nil, apperr.NotFound("gift card %d not found", id)
	}
	return &h, nil
}

func (t *memTx) MarkRedeemed(cardID uint) error {
	t.cards[cardID] = giftcards.StatusRedeemed
	return nil
}

func (m *memRepo) InTx(_ context.Context, fn func(Tx) error) error {
	tx := &memTx{holdings: map[uint]giftcards.UserGiftCard{}, cards: map[uint]giftcards.Status{}}
	for k, v := range m.holdings {
		tx.holdings[k] = v
	}
	for k, v := range m.cards {
		tx.cards[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.holdings, m.cards = tx.holdings, tx.cards
	return nil
}

func (m *memRepo) ListByUser(_ context.Context, userID uint) ([]giftcards.UserGiftCard, error) {
	var out []giftcards.UserGiftCard
	for _, h := range m.holdings {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func newTestService() (*Service, *memRepo) {
	repo := &memRepo{
		holdings: map[uint]giftcards.UserGiftCard{
			1: {ID: 1, UserID: 7, GiftCardID: 30, OriginalAmountCents: 5000, RemainingBalanceCents: 5000},
		},
		cards: map[uint]giftcards.Status{30: giftcards.StatusActive},
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(repo, log), repo
}

func TestRedeemRejectsOverdraw(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Redeem(context.Background(), 7, 1, 5001)

	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "insufficient")
	assert.Equal(t, int64(5000), repo.holdings[1].RemainingBalanceCents)
	assert.Equal(t, giftcards.StatusActive, repo.cards[30])
}

func TestRedeemExactBalanceMarksCardRedeemed(t *testing.T) {
	svc, repo := newTestService()

	h, err := svc.Redeem(context.Background(), 7, 1, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), h.RemainingBalanceCents)
	assert.Equal(t, giftcards.StatusActive, repo.cards[30])

	h, err = svc.Redeem(context.Background(), 7, 1, 3000)
	require.NoError(t, err)
	assert.Zero(t, h.RemainingBalanceCents)
	assert.Zero(t, repo.holdings[1].RemainingBalanceCents)
	assert.Equal(t, giftcards.StatusRedeemed, repo.cards[30])

	_, err = svc.Redeem(context.Background(), 7, 1, 1)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRedeemSomeoneElsesCardIsNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Redeem(context.Background(), 8, 1, 100)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRedeemRequiresPositiveAmount(t *testing.T) {
	svc, _ := newTestService()

	for _, amount := range []int64{0, -100} {
		_, err := svc.Redeem(context.Background(), 7, 1, amount)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}

func TestListUserGiftCards(t *testing.T) {
	svc, _ := newTestService()

	own, err := svc.ListUserGiftCards(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	none, err := svc.ListUserGiftCards(context.Background(), 8)
	require.NoError(t, err)
	assert.Empty(t, none)
}
