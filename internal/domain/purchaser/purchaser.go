package purchaser

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrMissing      = errors.New("a signed-in user or guest contact details are required")
	ErrBothPresent  = errors.New("purchaser cannot be both a user and a guest")
	ErrGuestContact = errors.New("guest name and a valid email are required")
)

// Purchaser identifies who pays for a booking, order or registration: either a
// signed-in user or a guest reachable through contact details, never both.
// Embedded in models, so the columns land on the owning table.
type Purchaser struct {
	UserID     *uint   `gorm:"index" json:"user_id,omitempty"`
	GuestName  *string `gorm:"column:guest_name;type:varchar(120)" json:"guest_name,omitempty"`
	GuestEmail *string `gorm:"column:guest_email;type:varchar(255)" json:"guest_email,omitempty"`
	GuestPhone *string `gorm:"column:guest_phone;type:varchar(40)" json:"guest_phone,omitempty"`
}

func User(id uint) Purchaser {
	return Purchaser{UserID: &id}
}

func Guest(name, email, phone string) Purchaser {
	p := Purchaser{
		GuestName:  trimmed(name),
		GuestEmail: trimmed(strings.ToLower(email)),
	}
	p.GuestPhone = trimmed(phone)
	return p
}

func (p Purchaser) IsGuest() bool {
	return p.UserID == nil
}

func (p Purchaser) Validate() error {
	hasGuest := p.GuestName != nil || p.GuestEmail != nil
	if p.UserID != nil {
		if *p.UserID == 0 {
			return ErrMissing
		}
		if hasGuest {
			return ErrBothPresent
		}
		return nil
	}
	if !hasGuest {
		return ErrMissing
	}
	if p.GuestName == nil || p.GuestEmail == nil {
		return ErrGuestContact
	}
	if _, err := mail.ParseAddress(*p.GuestEmail); err != nil {
		return ErrGuestContact
	}
	return nil
}

// OwnedBy reports whether the signed-in user userID is this purchaser.
func (p Purchaser) OwnedBy(userID uint) bool {
	return p.UserID != nil && *p.UserID == userID
}

func (p Purchaser) Email() string {
	if p.GuestEmail == nil {
		return ""
	}
	return *p.GuestEmail
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
