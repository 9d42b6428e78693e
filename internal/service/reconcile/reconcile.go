package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/billing"
	"venue-backend/internal/domain/purchaser"
	"venue-backend/internal/infra/notify"
	"venue-backend/internal/infra/realtime"
	"venue-backend/internal/infra/stripeclient"
	"venue-backend/internal/service/announce"
	"venue-backend/internal/service/entities"
)

// Tx is the reconciliation transaction: payment transitions plus every
// entity cascade.
type Tx interface {
	entities.Tx
	// TransitionPending locks the payments loc names and moves those that
	// billing.PaymentStatus.CanSettleTo allows to status, returning them.
	// Payments recorded with one of loc's gateway ids are the only
	// candidates when any exist. Otherwise every pending payment for loc's
	// reference is. When loc carries a payment intent id and exactly one
	// payment moves, that payment records the id. None moved is not an error.
	TransitionPending(loc billing.Locator, status billing.PaymentStatus, eventID string) ([]billing.Payment, error)
}

type Store interface {
	// Apply records the provider event and runs fn in the same transaction.
	// It reports false without calling fn when the event was seen before.
	Apply(ctx context.Context, provider, eventID, eventType string, fn func(tx Tx) error) (bool, error)
}

type Reconciler struct {
	store    Store
	secret   string
	announce *announce.Announcer
	log      *logrus.Logger
}

func New(store Store, webhookSecret string, a *announce.Announcer, log *logrus.Logger) *Reconciler {
	return &Reconciler{store: store, secret: webhookSecret, announce: a, log: log}
}

type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeNoPending Outcome = "no_pending_payment"
	OutcomeIgnored   Outcome = "ignored"
)

type Result struct {
	EventID   string
	EventType string
	Outcome   Outcome
	Status    billing.PaymentStatus
	Payments  int
}

// HandleEvent verifies and applies one webhook delivery. A nil error means
// the delivery can be acknowledged, including duplicates and ignored types.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, signature string) (*Result, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, r.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, apperr.Signature(err)
	}

	eventType := string(event.Type)
	res := &Result{EventID: event.ID, EventType: eventType, Outcome: OutcomeIgnored}
	entry := r.log.WithFields(logrus.Fields{"event_id": event.ID, "event_type": eventType})

	status, ok := stripeclient.OutcomeForEvent(eventType)
	if !ok {
		entry.Debug("webhook event ignored")
		return res, nil
	}
	res.Status = status

	obj, err := decodeObject(eventType, event.Data.Raw)
	if err != nil {
		return nil, apperr.Validation("decode %s payload: %v", eventType, err)
	}
	if !obj.paid {
		// Completed but still unpaid: an async method will report later.
		entry.Info("checkout completed without payment, waiting for async result")
		return res, nil
	}

	ref, err := billing.ParseReference(obj.metadata)
	if err != nil {
		// Not one of ours, or created before metadata existed. Retrying will
		// not change that.
		entry.WithError(err).Warn("webhook event without usable metadata")
		return res, nil
	}
	loc := billing.Locator{Reference: ref, CheckoutSessionID: obj.sessionID, PaymentIntentID: obj.intentID}
	entry = entry.WithFields(logrus.Fields{
		"entity_type":         ref.EntityType,
		"entity_id":           ref.EntityID,
		"checkout_session_id": loc.CheckoutSessionID,
		"payment_intent_id":   loc.PaymentIntentID,
	})

	handler, err := entities.Lookup(ref.EntityType)
	if err != nil {
		entry.WithError(err).Warn("webhook event for unknown entity")
		return res, nil
	}

	var settled []billing.Payment
	applied, err := r.store.Apply(ctx, billing.ProviderStripe, event.ID, eventType, func(tx Tx) error {
		payments, err := tx.TransitionPending(loc, status, event.ID)
		if err != nil {
			return fmt.Errorf("transition payments: %w", err)
		}
		if len(payments) == 0 {
			return nil
		}
		settled = payments

		// Duplicated pending rows all settle, the entity changes once.
		err = handler.Cascade(tx, payments[0], status)
		switch {
		case errors.Is(err, entities.ErrNoOwner):
			entry.WithError(err).Warn("payment settled without cascade")
			return nil
		case errors.Is(err, entities.ErrEntityCancelled):
			entry.WithFields(logrus.Fields{
				"payment_id":   payments[0].ID,
				"amount_cents": payments[0].AmountCents,
			}).Error("payment succeeded for a cancelled entity, refund needed")
			return nil
		case err != nil:
			return fmt.Errorf("cascade %s: %w", ref.EntityType, err)
		}

		// Whichever event settles an order first empties the cart.
		if ref.EntityType == billing.EntityOrder && status == billing.StatusSucceeded && ref.UserID != nil {
			if err := tx.ClearCart(*ref.UserID); err != nil {
				return fmt.Errorf("clear cart: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		entry.WithError(err).Error("webhook reconciliation failed")
		return nil, apperr.Transaction(err, "reconcile webhook event")
	}

	switch {
	case !applied:
		res.Outcome = OutcomeDuplicate
		entry.Info("duplicate webhook event")
		return res, nil
	case len(settled) == 0:
		res.Outcome = OutcomeNoPending
		entry.Info("no pending payment for webhook event")
		return res, nil
	}

	res.Outcome = OutcomeApplied
	res.Payments = len(settled)
	entry.WithFields(logrus.Fields{"status": status, "payments": len(settled)}).Info("payment reconciled")

	r.announceSettled(ctx, handler, ref, settled[0], status)
	return res, nil
}

func (r *Reconciler) announceSettled(ctx context.Context, h entities.Handler, ref billing.Reference, p billing.Payment, status billing.PaymentStatus) {
	subject := fmt.Sprintf("%s payment %s", h.Label, status)
	body := fmt.Sprintf("Payment for %s #%d: %s.", h.Label, ref.EntityID, status)

	if ref.UserID != nil {
		r.announce.User(ctx, purchaser.User(*ref.UserID), notify.Message{Subject: subject, Body: body})
	}
	r.announce.Admin(ctx, notify.Message{Subject: subject, Body: body})
	r.announce.Broadcast(ctx, realtime.ChannelPayments, realtime.EventPaymentUpdated, map[string]any{
		"payment_id":  p.ID,
		"entity_type": ref.EntityType,
		"entity_id":   ref.EntityID,
		"status":      status,
	})
}

type eventObject struct {
	metadata  map[string]string
	sessionID string
	intentID  string
	// paid is false only for a completed checkout whose payment is still
	// outstanding.
	paid bool
}

// decodeObject reads routing metadata and gateway ids from the event object.
func decodeObject(eventType string, raw json.RawMessage) (eventObject, error) {
	if stripeclient.IsCheckoutEvent(eventType) {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(raw, &cs); err != nil {
			return eventObject{}, err
		}
		obj := eventObject{metadata: cs.Metadata, sessionID: cs.ID, paid: true}
		if cs.PaymentIntent != nil {
			obj.intentID = cs.PaymentIntent.ID
		}
		if eventType == stripeclient.EventCheckoutCompleted && cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			obj.paid = false
		}
		return obj, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(raw, &pi); err != nil {
		return eventObject{}, err
	}
	return eventObject{metadata: pi.Metadata, intentID: pi.ID, paid: true}, nil
}
