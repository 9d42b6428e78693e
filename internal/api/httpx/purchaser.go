package httpx

import (
	"github.com/gin-gonic/gin"

	"venue-backend/internal/domain/purchaser"
)

// GuestContact is the contact block guest routes accept.
type GuestContact struct {
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	GuestPhone string `json:"guest_phone"`
}

// Purchaser picks the signed in user when there is one, otherwise the guest
// contact from the body. Validation happens in the services.
func (g GuestContact) Purchaser(c *gin.Context) purchaser.Purchaser {
	if id := UserID(c); id != nil {
		return purchaser.User(*id)
	}
	return purchaser.Guest(g.GuestName, g.GuestEmail, g.GuestPhone)
}
