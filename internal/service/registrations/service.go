package registrations

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/purchaser"
	"venue-backend/internal/domain/registrations"
	"venue-backend/internal/domain/users"
	"venue-backend/internal/infra/notify"
	"venue-backend/internal/infra/realtime"
	"venue-backend/internal/service/announce"
)

// Tx is scoped to one locked tournament or event.
type Tx interface {
	HasActive(userID uint) (bool, error)
	CountActive() (int64, error)
	Create(r *registrations.Registration) error
}

type Repository interface {
	// LockTarget runs fn in a transaction holding a row lock on the target.
	LockTarget(ctx context.Context, kind registrations.Kind, targetID uint, fn func(target registrations.Target, tx Tx) error) error
	ByID(ctx context.Context, kind registrations.Kind, id uint) (*registrations.Registration, error)
	SetStatus(ctx context.Context, kind registrations.Kind, id uint, status registrations.Status) error
}

type Service struct {
	repo     Repository
	announce *announce.Announcer
	log      *logrus.Logger
}

func NewService(repo Repository, a *announce.Announcer, log *logrus.Logger) *Service {
	return &Service{repo: repo, announce: a, log: log}
}

type RegisterInput struct {
	Kind          registrations.Kind
	TargetID      uint
	Purchaser     purchaser.Purchaser
	PaymentOption registrations.PaymentOption
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*registrations.Registration, error) {
	if err := in.Purchaser.Validate(); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if in.PaymentOption == "" {
		in.PaymentOption = registrations.PayOnline
	}
	if !in.PaymentOption.Valid() {
		return nil, apperr.Validation("payment_option must be online or at_event")
	}

	var created *registrations.Registration
	var target registrations.Target
	err := s.repo.LockTarget(ctx, in.Kind, in.TargetID, func(t registrations.Target, tx Tx) error {
		target = t
		if in.Purchaser.UserID != nil {
			dup, err := tx.HasActive(*in.Purchaser.UserID)
			if err != nil {
				return err
			}
			if dup {
				return apperr.Conflict("you are already registered for this %s", in.Kind)
			}
		}
		if t.Capacity > 0 {
			n, err := tx.CountActive()
			if err != nil {
				return err
			}
			if n >= int64(t.Capacity) {
				return apperr.Conflict("%s %q is full", in.Kind, t.Name)
			}
		}

		r := &registrations.Registration{
			Purchaser:     in.Purchaser,
			Status:        registrations.StatusRegistered,
			PaymentStatus: registrations.PaymentPending,
			PaymentOption: in.PaymentOption,
		}
		if t.EntryFeeCents == 0 {
			r.Status = registrations.StatusConfirmed
			r.PaymentStatus = registrations.PaymentPaid
		}
		ref := purchaser.NewReference("RG")
		r.RegistrationReference = &ref

		if err := tx.Create(r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Transaction(err, "register")
	}

	s.log.WithFields(logrus.Fields{
		"kind":            in.Kind,
		"target_id":       in.TargetID,
		"registration_id": created.ID,
		"payment_option":  created.PaymentOption,
	}).Info("registration created")

	s.announce.User(ctx, created.Purchaser, notify.Message{
		Subject: fmt.Sprintf("Registered for %s", target.Name),
		Body:    fmt.Sprintf("Your registration reference is %s.", *created.RegistrationReference),
	})
	s.announce.Admin(ctx, notify.Message{
		Subject: fmt.Sprintf("New %s registration", in.Kind),
		Body:    fmt.Sprintf("Registration #%d for %s.", created.ID, target.Name),
	})
	s.announce.Broadcast(ctx, realtime.ChannelBookings, realtime.EventRegistrationMade, map[string]any{
		"kind":      in.Kind,
		"target_id": in.TargetID,
		"id":        created.ID,
	})
	return created, nil
}

// CancelRegistration frees the place. Cancelling twice is a no-op.
func (s *Service) CancelRegistration(ctx context.Context, kind registrations.Kind, id uint, actor users.Actor) (*registrations.Registration, error) {
	r, err := s.repo.ByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(r.UserID) {
		return nil, apperr.Forbidden("registration %d belongs to someone else", id)
	}
	if r.Status == registrations.StatusCancelled {
		return r, nil
	}
	if err := s.repo.SetStatus(ctx, kind, id, registrations.StatusCancelled); err != nil {
		return nil, err
	}
	r.Status = registrations.StatusCancelled

	s.log.WithFields(logrus.Fields{"kind": kind, "registration_id": id}).Info("registration cancelled")
	return r, nil
}
