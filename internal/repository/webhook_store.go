package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"venue-backend/internal/domain/billing"
	"venue-backend/internal/domain/booking"
	"venue-backend/internal/domain/giftcards"
	"venue-backend/internal/domain/orders"
	"venue-backend/internal/domain/registrations"
	"venue-backend/internal/service/reconcile"
)

var _ reconcile.Store = (*WebhookStore)(nil)

type WebhookStore struct{ db *gorm.DB }

func NewWebhookStore(db *gorm.DB) *WebhookStore {
	return &WebhookStore{db: db}
}

// Apply inserts the event row first. A concurrent delivery of the same event
// blocks on the unique index and then finds nothing to insert.
func (s *WebhookStore) Apply(ctx context.Context, provider, eventID, eventType string, fn func(reconcile.Tx) error) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := billing.WebhookEvent{
			Provider:        provider,
			ProviderEventID: eventID,
			EventType:       eventType,
			ProcessedAt:     time.Now().UTC(),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
			DoNothing: true,
		}).Create(&rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return fn(reconcileTx{tx: tx})
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

type reconcileTx struct{ tx *gorm.DB }

func (t reconcileTx) TransitionPending(loc billing.Locator, status billing.PaymentStatus, eventID string) ([]billing.Payment, error) {
	candidates, err := t.lockByProviderID(loc)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		if candidates, err = t.lockPendingByReference(loc.Reference); err != nil {
			return nil, err
		}
	}

	var rows []billing.Payment
	for _, p := range candidates {
		if p.Status.CanSettleTo(status) {
			rows = append(rows, p)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	updates := map[string]any{
		"status":            status,
		"provider_event_id": eventID,
	}
	if recordIntent(loc, candidates, rows) {
		updates["payment_intent_id"] = loc.PaymentIntentID
		rows[0].PaymentIntentID = &loc.PaymentIntentID
	}
	ids := make([]uint, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
		rows[i].Status = status
		rows[i].ProviderEventID = &eventID
	}
	err = t.tx.Model(&billing.Payment{}).Where("id IN ?", ids).Updates(updates).Error
	return rows, err
}

func (t reconcileTx) lockByProviderID(loc billing.Locator) ([]billing.Payment, error) {
	if !loc.HasProviderID() {
		return nil, nil
	}
	var (
		conds []string
		args  []any
	)
	if loc.CheckoutSessionID != "" {
		conds = append(conds, "checkout_session_id = ?")
		args = append(args, loc.CheckoutSessionID)
	}
	if loc.PaymentIntentID != "" {
		conds = append(conds, "payment_intent_id = ?")
		args = append(args, loc.PaymentIntentID)
	}

	var rows []billing.Payment
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("entity_type = ? AND entity_id = ?", loc.EntityType, loc.EntityID).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Order("id ASC").Find(&rows).Error
	return rows, err
}

func (t reconcileTx) lockPendingByReference(ref billing.Reference) ([]billing.Payment, error) {
	q := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("entity_type = ? AND entity_id = ? AND status = ?", ref.EntityType, ref.EntityID, billing.StatusPending)
	if ref.UserID != nil {
		q = q.Where("user_id = ?", *ref.UserID)
	} else {
		q = q.Where("user_id IS NULL")
	}

	var rows []billing.Payment
	err := q.Order("id ASC").Find(&rows).Error
	return rows, err
}

// recordIntent reports whether the single settling row should learn loc's
// payment intent id. The id is unique, so it is skipped when any candidate
// already holds it.
func recordIntent(loc billing.Locator, candidates, rows []billing.Payment) bool {
	if loc.PaymentIntentID == "" || len(rows) != 1 || rows[0].PaymentIntentID != nil {
		return false
	}
	for _, p := range candidates {
		if p.PaymentIntentID != nil && *p.PaymentIntentID == loc.PaymentIntentID {
			return false
		}
	}
	return true
}

func (t reconcileTx) SetOrderPayment(orderID uint, payment orders.PaymentStatus) (bool, error) {
	res := t.tx.Model(&orders.Order{}).
		Where("id = ? AND status <> ?", orderID, orders.StatusCancelled).
		Update("payment_status", payment)
	return res.RowsAffected > 0, res.Error
}

func (t reconcileTx) AdvanceOrder(orderID uint, from, to orders.Status) error {
	return t.tx.Model(&orders.Order{}).Where("id = ? AND status = ?", orderID, from).Update("status", to).Error
}

func (t reconcileTx) SetBookingPayment(bookingID uint, payment booking.PaymentStatus) (bool, error) {
	res := t.tx.Model(&booking.Booking{}).
		Where("id = ? AND payment_status <> ?", bookingID, booking.PaymentCancelled).
		Update("payment_status", payment)
	return res.RowsAffected > 0, res.Error
}

func (t reconcileTx) SetRegistrationPayment(kind registrations.Kind, id uint, payment registrations.PaymentStatus, status registrations.Status) (bool, error) {
	table, _, _ := kind.Tables()
	updates := map[string]any{"payment_status": payment, "updated_at": time.Now()}
	if status != "" {
		updates["status"] = status
	}
	res := t.tx.Table(table).Where("id = ? AND status <> ?", id, registrations.StatusCancelled).Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// CreditGiftCard upserts the holding so a repeat purchase tops it up.
func (t reconcileTx) CreditGiftCard(userID, giftCardID uint, amountCents int64) error {
	h := giftcards.UserGiftCard{
		UserID:                userID,
		GiftCardID:            giftCardID,
		OriginalAmountCents:   amountCents,
		RemainingBalanceCents: amountCents,
	}
	err := t.tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "gift_card_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "original_amount_cents"}, Value: gorm.Expr("user_gift_cards.original_amount_cents + ?", amountCents)},
			{Column: clause.Column{Name: "remaining_balance_cents"}, Value: gorm.Expr("user_gift_cards.remaining_balance_cents + ?", amountCents)},
			{Column: clause.Column{Name: "updated_at"}, Value: time.Now()},
		},
	}).Create(&h).Error
	if err != nil {
		return err
	}
	return t.tx.Model(&giftcards.GiftCard{}).
		Where("id = ? AND status = ?", giftCardID, giftcards.StatusRedeemed).
		Update("status", giftcards.StatusActive).Error
}

func (t reconcileTx) ClearCart(userID uint) error {
	return t.tx.Where("user_id = ?", userID).Delete(&orders.CartItem{}).Error
}
