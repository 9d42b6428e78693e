package billing

import "time"

const ProviderStripe = "stripe"

// WebhookEvent records every provider event that was applied, so a redelivery
// is recognised before anything cascades.
type WebhookEvent struct {
	ID              uint      `gorm:"primaryKey"`
	Provider        string    `gorm:"type:varchar(20);not null;uniqueIndex:ux_webhook_events_provider_event,priority:1"`
	ProviderEventID string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_webhook_events_provider_event,priority:2"`
	EventType       string    `gorm:"type:varchar(80);not null"`
	ProcessedAt     time.Time `gorm:"not null"`
	CreatedAt       time.Time
}
