package announce

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"venue-backend/internal/domain/purchaser"
	"venue-backend/internal/infra/notify"
)

// Recorder captures everything announced. Service tests use it in place of
// real transports.
type Recorder struct {
	mu         sync.Mutex
	Users      []notify.Message
	Admins     []notify.Message
	Broadcasts []string
}

func (r *Recorder) NotifyUser(_ context.Context, _ purchaser.Purchaser, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Users = append(r.Users, msg)
	return nil
}

func (r *Recorder) NotifyAdmin(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Admins = append(r.Admins, msg)
	return nil
}

func (r *Recorder) Broadcast(_ context.Context, channel, event string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Broadcasts = append(r.Broadcasts, channel+":"+event)
	return nil
}

// NewRecording returns an Announcer wired to a fresh Recorder and a silent logger.
func NewRecording() (*Announcer, *Recorder) {
	rec := &Recorder{}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(rec, rec, log), rec
}
