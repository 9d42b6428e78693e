package registrations

import (
	"fmt"
	"time"

	"venue-backend/internal/domain/purchaser"
)

type Kind string

const (
	KindTournament Kind = "tournament"
	KindEvent      Kind = "event"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindTournament, KindEvent:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown registration kind %q", s)
}

type Status string

const (
	StatusRegistered Status = "registered"
	StatusConfirmed  Status = "confirmed"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type PaymentOption string

const (
	PayOnline  PaymentOption = "online"
	PayAtEvent PaymentOption = "at_event"
)

func (o PaymentOption) Valid() bool {
	return o == PayOnline || o == PayAtEvent
}

type Tournament struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	EntryFeeCents int64     `gorm:"not null;default:0" json:"entry_fee_cents"`
	StartsAt      time.Time `json:"starts_at"`
	// Zero means unlimited.
	Capacity int `gorm:"not null;default:0" json:"capacity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Event struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	EntryFeeCents int64     `gorm:"not null;default:0" json:"entry_fee_cents"`
	StartsAt      time.Time `json:"starts_at"`
	Capacity      int       `gorm:"not null;default:0" json:"capacity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Target is the part of a tournament or event registration logic cares about.
type Target struct {
	Kind          Kind   `json:"kind"`
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	EntryFeeCents int64  `json:"entry_fee_cents"`
	Capacity      int    `json:"capacity"`
}

// Registration holds the columns shared by both registration tables.
type Registration struct {
	ID uint `gorm:"primaryKey" json:"id"`
	purchaser.Purchaser

	Status                Status        `gorm:"type:varchar(20);not null;default:'registered';index" json:"status"`
	PaymentStatus         PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentOption         PaymentOption `gorm:"type:varchar(20);not null" json:"payment_option"`
	RegistrationReference *string       `gorm:"uniqueIndex" json:"registration_reference,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TournamentRegistration struct {
	Registration
	TournamentID uint `gorm:"not null;index" json:"tournament_id"`
}

type EventRegistration struct {
	Registration
	EventID uint `gorm:"not null;index" json:"event_id"`
}

// Tables returns the registration table, the target table and the foreign key
// column for kind.
func (k Kind) Tables() (registrations, targets, fk string) {
	if k == KindEvent {
		return "event_registrations", "events", "event_id"
	}
	return "tournament_registrations", "tournaments", "tournament_id"
}
