package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume feeds every message to handler until ctx is cancelled or the
// handler fails.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
}

type Sender interface {
	Send(to, subject, body string) error
}

// UserDirectory resolves the mailbox of a registered user.
type UserDirectory interface {
	EmailForUser(ctx context.Context, userID uint) (string, error)
}

// Deliverer turns notifications read from the topic into mail.
type Deliverer struct {
	mail       Sender
	users      UserDirectory
	adminEmail string
	log        *logrus.Logger
}

func NewDeliverer(mail Sender, users UserDirectory, adminEmail string, log *logrus.Logger) *Deliverer {
	return &Deliverer{mail: mail, users: users, adminEmail: adminEmail, log: log}
}

// Handle never fails the consumer: a message that cannot be delivered is
// logged and skipped so one bad address does not stall the partition.
func (d *Deliverer) Handle(ctx context.Context, msg kafka.Message) error {
	var n Notification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		d.log.WithError(err).WithField("offset", msg.Offset).Warn("undecodable notification")
		return nil
	}

	entry := d.log.WithFields(logrus.Fields{"audience": n.Audience, "subject": n.Subject})

	to, err := d.recipient(ctx, n)
	if err != nil {
		entry.WithError(err).Warn("notification has no recipient")
		return nil
	}
	if err := d.mail.Send(to, n.Subject, n.Body); err != nil {
		entry.WithError(err).Error("notification delivery failed")
		return nil
	}
	entry.Info("notification delivered")
	return nil
}

func (d *Deliverer) recipient(ctx context.Context, n Notification) (string, error) {
	switch {
	case n.Audience == AudienceAdmin:
		if d.adminEmail == "" {
			return "", errors.New("ADMIN_EMAIL not configured")
		}
		return d.adminEmail, nil
	case n.Email != "":
		return n.Email, nil
	case n.UserID != nil:
		return d.users.EmailForUser(ctx, *n.UserID)
	default:
		return "", errors.New("user notification without user id or email")
	}
}
