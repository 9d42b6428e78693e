package entities

import (
	"context"
	"errors"
	"fmt"

	"venue-backend/internal/domain/billing"
	"venue-backend/internal/domain/booking"
	"venue-backend/internal/domain/orders"
	"venue-backend/internal/domain/registrations"
)

// ErrNoOwner is returned by cascades that need a signed-in purchaser when the
// payment has none. Retrying cannot fix it.
var ErrNoOwner = errors.New("payment has no owning user")

// ErrEntityCancelled is returned by cascades when a successful payment lands
// on an entity that was cancelled first. The money has to go back by hand.
var ErrEntityCancelled = errors.New("entity cancelled before payment settled")

// Tx is the write surface cascades run against. Implementations execute
// inside the reconciliation transaction.
//
// The Set methods leave cancelled entities alone and report false for them,
// so a late payment can never revive a released seat or order.
type Tx interface {
	SetOrderPayment(orderID uint, payment orders.PaymentStatus) (bool, error)
	// AdvanceOrder moves the order to `to` only while it is still in `from`.
	AdvanceOrder(orderID uint, from, to orders.Status) error
	SetBookingPayment(bookingID uint, payment booking.PaymentStatus) (bool, error)
	// SetRegistrationPayment updates the payment status and, when status is
	// non empty, the registration status.
	SetRegistrationPayment(kind registrations.Kind, id uint, payment registrations.PaymentStatus, status registrations.Status) (bool, error)
	// CreditGiftCard creates the user's holding of the card or tops it up.
	CreditGiftCard(userID, giftCardID uint, amountCents int64) error
	ClearCart(userID uint) error
}

// Reader looks up what an entity costs. found is false when the row does not
// exist.
type Reader interface {
	OrderTotal(ctx context.Context, orderID uint) (amountCents int64, found bool, err error)
	// BookingPrice is the price of the session the booking holds a seat in.
	BookingPrice(ctx context.Context, bookingID uint) (amountCents int64, found bool, err error)
	// EntryFee is the fee of the tournament or event a registration is for.
	EntryFee(ctx context.Context, kind registrations.Kind, registrationID uint) (amountCents int64, found bool, err error)
	GiftCardAmount(ctx context.Context, giftCardID uint) (amountCents int64, found bool, err error)
}

// PriceFunc reads the amount due for one entity.
type PriceFunc func(ctx context.Context, r Reader, id uint) (amountCents int64, found bool, err error)

// Handler is everything payment code needs to know about one entity type.
type Handler struct {
	Type  billing.EntityType
	Label string
	// Price is nil for types that accept no new checkouts.
	Price PriceFunc
	// Purchasable is false for types that can still settle old payments but
	// accept no new checkouts.
	Purchasable  bool
	RequiresUser bool
	Cascade      func(tx Tx, p billing.Payment, outcome billing.PaymentStatus) error
}

var handlers = map[billing.EntityType]Handler{
	billing.EntityOrder: {
		Type:        billing.EntityOrder,
		Label:       "Order",
		Price:       func(ctx context.Context, r Reader, id uint) (int64, bool, error) { return r.OrderTotal(ctx, id) },
		Purchasable: true,
		Cascade:     cascadeOrder,
	},
	billing.EntityBooking: {
		Type:        billing.EntityBooking,
		Label:       "Booking",
		Price:       func(ctx context.Context, r Reader, id uint) (int64, bool, error) { return r.BookingPrice(ctx, id) },
		Purchasable: true,
		Cascade:     cascadeBooking,
	},
	billing.EntityTournament: {
		Type:        billing.EntityTournament,
		Label:       "Tournament registration",
		Price:       entryFee(registrations.KindTournament),
		Purchasable: true,
		Cascade:     cascadeRegistration(registrations.KindTournament),
	},
	billing.EntityEvent: {
		Type:        billing.EntityEvent,
		Label:       "Event registration",
		Price:       entryFee(registrations.KindEvent),
		Purchasable: true,
		Cascade:     cascadeRegistration(registrations.KindEvent),
	},
	billing.EntityGiftCard: {
		Type:         billing.EntityGiftCard,
		Label:        "Gift card",
		Price:        func(ctx context.Context, r Reader, id uint) (int64, bool, error) { return r.GiftCardAmount(ctx, id) },
		Purchasable:  true,
		RequiresUser: true,
		Cascade:      cascadeGiftCard,
	},
	billing.EntityTicket: {
		Type:    billing.EntityTicket,
		Label:   "Ticket",
		Cascade: func(Tx, billing.Payment, billing.PaymentStatus) error { return nil },
	},
}

func Lookup(t billing.EntityType) (Handler, error) {
	h, ok := handlers[t]
	if !ok {
		return Handler{}, fmt.Errorf("%w: %q", billing.ErrUnknownEntityType, t)
	}
	return h, nil
}

func entryFee(kind registrations.Kind) PriceFunc {
	return func(ctx context.Context, r Reader, id uint) (int64, bool, error) {
		return r.EntryFee(ctx, kind, id)
	}
}

// paidOrCancelled turns a skipped update into ErrEntityCancelled.
func paidOrCancelled(applied bool, err error) error {
	if err != nil {
		return err
	}
	if !applied {
		return ErrEntityCancelled
	}
	return nil
}

func cascadeOrder(tx Tx, p billing.Payment, outcome billing.PaymentStatus) error {
	switch outcome {
	case billing.StatusSucceeded:
		if err := paidOrCancelled(tx.SetOrderPayment(p.EntityID, orders.PaymentPaid)); err != nil {
			return err
		}
		return tx.AdvanceOrder(p.EntityID, orders.StatusPending, orders.StatusProcessing)
	case billing.StatusFailed:
		_, err := tx.SetOrderPayment(p.EntityID, orders.PaymentFailed)
		return err
	}
	return nil
}

func cascadeBooking(tx Tx, p billing.Payment, outcome billing.PaymentStatus) error {
	if outcome != billing.StatusSucceeded {
		// The seat stays held as pending; cancelling is the customer's call.
		return nil
	}
	return paidOrCancelled(tx.SetBookingPayment(p.EntityID, booking.PaymentPaid))
}

func cascadeRegistration(kind registrations.Kind) func(Tx, billing.Payment, billing.PaymentStatus) error {
	return func(tx Tx, p billing.Payment, outcome billing.PaymentStatus) error {
		switch outcome {
		case billing.StatusSucceeded:
			return paidOrCancelled(tx.SetRegistrationPayment(kind, p.EntityID, registrations.PaymentPaid, registrations.StatusConfirmed))
		case billing.StatusFailed:
			_, err := tx.SetRegistrationPayment(kind, p.EntityID, registrations.PaymentFailed, "")
			return err
		}
		return nil
	}
}

func cascadeGiftCard(tx Tx, p billing.Payment, outcome billing.PaymentStatus) error {
	if outcome != billing.StatusSucceeded {
		return nil
	}
	if p.UserID == nil {
		return ErrNoOwner
	}
	return tx.CreditGiftCard(*p.UserID, p.EntityID, p.AmountCents)
}
