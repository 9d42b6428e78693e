package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"venue-backend/internal/domain/purchaser"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher publishes notifications for cmd/notifier to deliver.
type KafkaDispatcher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		topic: topic,
		now:   time.Now,
	}
}

func (d *KafkaDispatcher) NotifyUser(ctx context.Context, to purchaser.Purchaser, msg Message) error {
	return d.publish(ctx, forUser(to, msg, d.now()))
}

func (d *KafkaDispatcher) NotifyAdmin(ctx context.Context, msg Message) error {
	return d.publish(ctx, forAdmin(msg, d.now()))
}

func (d *KafkaDispatcher) publish(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := d.writer.WriteMessages(ctx, kafka.Message{Key: partitionKey(n), Value: data, Time: n.CreatedAt}); err != nil {
		return fmt.Errorf("write notification to %s: %w", d.topic, err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

// Notifications for one recipient share a key so they keep their order.
func partitionKey(n Notification) []byte {
	switch {
	case n.Audience == AudienceAdmin:
		return []byte("admin")
	case n.UserID != nil:
		return []byte("user:" + strconv.FormatUint(uint64(*n.UserID), 10))
	default:
		return []byte("guest:" + n.Email)
	}
}
