package notify

import (
	"context"
	"time"

	"venue-backend/internal/domain/purchaser"
)

type Audience string

const (
	AudienceUser  Audience = "user"
	AudienceAdmin Audience = "admin"
)

type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notification is the envelope carried on the notifications topic.
type Notification struct {
	Audience   Audience  `json:"audience"`
	UserID     *uint     `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   uint      `json:"entity_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Dispatcher delivers user and admin notifications. Delivery is best effort;
// callers log errors and move on.
type Dispatcher interface {
	NotifyUser(ctx context.Context, to purchaser.Purchaser, msg Message) error
	NotifyAdmin(ctx context.Context, msg Message) error
}

func forUser(to purchaser.Purchaser, msg Message, now time.Time) Notification {
	return Notification{
		Audience:  AudienceUser,
		UserID:    to.UserID,
		Email:     to.Email(),
		Subject:   msg.Subject,
		Body:      msg.Body,
		CreatedAt: now,
	}
}

func forAdmin(msg Message, now time.Time) Notification {
	return Notification{
		Audience:  AudienceAdmin,
		Subject:   msg.Subject,
		Body:      msg.Body,
		CreatedAt: now,
	}
}
