package billing

import "time"

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusSucceeded PaymentStatus = "succeeded"
	StatusFailed    PaymentStatus = "failed"
	StatusExpired   PaymentStatus = "expired"
)

func (s PaymentStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusExpired
}

// CanSettleTo reports whether a provider event may move a payment from s to
// next. A declined attempt can still be paid on retry, so failed may become
// succeeded; every other terminal status is final.
func (s PaymentStatus) CanSettleTo(next PaymentStatus) bool {
	switch s {
	case StatusPending:
		return next.Terminal()
	case StatusFailed:
		return next == StatusSucceeded
	}
	return false
}

// Payment tracks one gateway attempt against a domain entity. Intent payments
// carry PaymentIntentID from the start. Session payments carry
// CheckoutSessionID and learn their PaymentIntentID from the first event that
// names it.
type Payment struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     *uint      `gorm:"index:idx_payments_entity,priority:3" json:"user_id,omitempty"`
	EntityType EntityType `gorm:"type:varchar(20);not null;index:idx_payments_entity,priority:1" json:"entity_type"`
	EntityID   uint       `gorm:"not null;index:idx_payments_entity,priority:2" json:"entity_id"`

	PaymentIntentID   *string `gorm:"uniqueIndex" json:"payment_intent_id,omitempty"`
	CheckoutSessionID *string `gorm:"uniqueIndex" json:"checkout_session_id,omitempty"`

	AmountCents        int64         `gorm:"not null" json:"amount_cents"`
	PlatformFeeCents   int64         `gorm:"not null;default:0" json:"platform_fee_cents"`
	Currency           string        `gorm:"type:varchar(3);not null" json:"currency"`
	Status             PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ConnectedAccountID *string       `json:"connected_account_id,omitempty"`
	// Event that moved the payment out of pending.
	ProviderEventID *string `json:"provider_event_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
