package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"venue-backend/internal/domain/purchaser"
)

// LogDispatcher only logs. Used when no broker is configured.
type LogDispatcher struct {
	Log *logrus.Logger
}

func (d LogDispatcher) NotifyUser(_ context.Context, to purchaser.Purchaser, msg Message) error {
	fields := logrus.Fields{"audience": AudienceUser, "subject": msg.Subject}
	if to.UserID != nil {
		fields["user_id"] = *to.UserID
	} else {
		fields["email"] = to.Email()
	}
	d.Log.WithFields(fields).Info("notification")
	return nil
}

func (d LogDispatcher) NotifyAdmin(_ context.Context, msg Message) error {
	d.Log.WithFields(logrus.Fields{"audience": AudienceAdmin, "subject": msg.Subject}).Info("notification")
	return nil
}
