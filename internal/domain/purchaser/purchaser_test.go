package purchaser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	zero := uint(0)
	name := "Ana"

	tests := []struct {
		name string
		p    Purchaser
		want error
	}{
		{"user", User(7), nil},
		{"guest", Guest("Ana", "ana@example.com", ""), nil},
		{"empty", Purchaser{}, ErrMissing},
		{"zero user id", Purchaser{UserID: &zero}, ErrMissing},
		{"both", Purchaser{UserID: func() *uint { v := uint(1); return &v }(), GuestName: &name}, ErrBothPresent},
		{"guest without email", Guest("Ana", "", ""), ErrGuestContact},
		{"guest with bad email", Guest("Ana", "not-an-email", ""), ErrGuestContact},
		{"whitespace only", Guest("  ", "  ", " "), ErrMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Validate())
		})
	}
}

func TestGuestNormalizesContact(t *testing.T) {
	p := Guest(" Ana ", " Ana@Example.COM ", "")

	assert.True(t, p.IsGuest())
	assert.Equal(t, "Ana", *p.GuestName)
	assert.Equal(t, "ana@example.com", p.Email())
	assert.Nil(t, p.GuestPhone)
}

func TestOwnedBy(t *testing.T) {
	assert.True(t, User(3).OwnedBy(3))
	assert.False(t, User(3).OwnedBy(4))
	assert.False(t, Guest("Ana", "ana@example.com", "").OwnedBy(3))
}

func TestNewReference(t *testing.T) {
	a := NewReference("BK")
	b := NewReference("BK")

	assert.Regexp(t, `^BK-[0-9A-F]{10}$`, a)
	assert.NotEqual(t, a, b)
}
