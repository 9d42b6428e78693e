package booking

import (
	"time"

	"venue-backend/internal/domain/purchaser"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentCancelled:
		return true
	}
	return false
}

// ActivePaymentStatuses are the statuses that hold a seat.
var ActivePaymentStatuses = []PaymentStatus{PaymentPending, PaymentPaid}

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionStarted   SessionStatus = "started"
	SessionCompleted SessionStatus = "completed"
)

// Session is a bookable VR slot type. MaxPlayers caps concurrent active bookings.
type Session struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	MachineType string `gorm:"type:varchar(50)" json:"machine_type"`
	MaxPlayers  int    `gorm:"not null;default:1" json:"max_players"`
	PriceCents  int64  `gorm:"not null;default:0" json:"price_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`
	purchaser.Purchaser

	SessionID   uint      `gorm:"not null;index" json:"session_id"`
	Session     *Session  `json:"session,omitempty"`
	MachineType string    `gorm:"type:varchar(50)" json:"machine_type"`
	StartTime   time.Time `gorm:"not null" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	// Stored for listing convenience only; RefreshSessionStatus recomputes it.
	SessionStatus SessionStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"session_status"`

	BookingReference *string `gorm:"uniqueIndex" json:"booking_reference,omitempty"`
	PaymentReference *string `json:"payment_reference,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
