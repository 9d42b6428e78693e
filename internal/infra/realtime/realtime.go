package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ChannelBookings = "bookings"
	ChannelOrders   = "orders"
	ChannelPayments = "payments"

	EventBookingCreated   = "booking-created"
	EventBookingUpdated   = "booking-updated"
	EventOrderCreated     = "order-created"
	EventOrderUpdated     = "order-updated"
	EventPaymentUpdated   = "payment-updated"
	EventRegistrationMade = "registration-created"
)

// Broadcaster pushes channel events to connected clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, channel, event string, data any) error
}

// Envelope is what subscribers of a channel receive.
type Envelope struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	SentAt time.Time       `json:"sent_at"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisBroadcaster publishes on Redis pub/sub; the websocket edge subscribes
// to the prefixed channels and fans out to browsers.
type RedisBroadcaster struct {
	client publisher
	prefix string
	now    func() time.Time
}

func NewRedisBroadcaster(client *redis.Client, prefix string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, prefix: prefix, now: time.Now}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, channel, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	payload, err := json.Marshal(Envelope{Event: event, Data: raw, SentAt: b.now()})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.prefix+channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s on %s: %w", event, channel, err)
	}
	return nil
}

// Nop drops every event. Used when Redis is not configured.
type Nop struct{}

func (Nop) Broadcast(context.Context, string, string, any) error { return nil }
