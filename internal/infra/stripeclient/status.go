package stripeclient

import (
	"strings"

	"venue-backend/internal/domain/billing"
)

const (
	EventCheckoutCompleted           = "checkout.session.completed"
	EventCheckoutAsyncPaymentSuccess = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncPaymentFailed  = "checkout.session.async_payment_failed"
	EventCheckoutExpired             = "checkout.session.expired"
	EventPaymentIntentSucceeded      = "payment_intent.succeeded"
	EventPaymentIntentFailed         = "payment_intent.payment_failed"
)

// OutcomeForEvent maps a webhook event type to the terminal payment status it
// reports. ok is false for event types the reconciler does not act on.
func OutcomeForEvent(eventType string) (status billing.PaymentStatus, ok bool) {
	switch strings.TrimSpace(eventType) {
	case EventCheckoutCompleted, EventCheckoutAsyncPaymentSuccess, EventPaymentIntentSucceeded:
		return billing.StatusSucceeded, true
	case EventCheckoutAsyncPaymentFailed, EventPaymentIntentFailed:
		return billing.StatusFailed, true
	case EventCheckoutExpired:
		return billing.StatusExpired, true
	default:
		return "", false
	}
}

// IsCheckoutEvent reports whether the event payload is a checkout session
// rather than a payment intent.
func IsCheckoutEvent(eventType string) bool {
	return strings.HasPrefix(eventType, "checkout.session.")
}
