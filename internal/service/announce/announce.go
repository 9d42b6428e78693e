package announce

import (
	"context"

	"github.com/sirupsen/logrus"

	"venue-backend/internal/domain/purchaser"
	"venue-backend/internal/infra/notify"
	"venue-backend/internal/infra/realtime"
)

// Announcer fans a committed change out to notifications and the real-time
// channel. Every method swallows delivery errors after logging them: once the
// database has committed, the request succeeded.
type Announcer struct {
	notifier notify.Dispatcher
	bus      realtime.Broadcaster
	log      *logrus.Logger
}

func New(notifier notify.Dispatcher, bus realtime.Broadcaster, log *logrus.Logger) *Announcer {
	return &Announcer{notifier: notifier, bus: bus, log: log}
}

func (a *Announcer) User(ctx context.Context, to purchaser.Purchaser, msg notify.Message) {
	if err := a.notifier.NotifyUser(ctx, to, msg); err != nil {
		a.log.WithError(err).WithField("subject", msg.Subject).Warn("user notification failed")
	}
}

func (a *Announcer) Admin(ctx context.Context, msg notify.Message) {
	if err := a.notifier.NotifyAdmin(ctx, msg); err != nil {
		a.log.WithError(err).WithField("subject", msg.Subject).Warn("admin notification failed")
	}
}

func (a *Announcer) Broadcast(ctx context.Context, channel, event string, data any) {
	if err := a.bus.Broadcast(ctx, channel, event, data); err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{"channel": channel, "event": event}).Warn("broadcast failed")
	}
}
