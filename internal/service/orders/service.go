package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/orders"
	"venue-backend/internal/domain/purchaser"
	"venue-backend/internal/domain/users"
	"venue-backend/internal/infra/notify"
	"venue-backend/internal/infra/realtime"
	"venue-backend/internal/service/announce"
)

// Tx writes one order graph. Every call runs in the same transaction.
type Tx interface {
	CreateShippingAddress(a *orders.ShippingAddress) error
	CreateOrder(o *orders.Order) error
	CreateItem(i *orders.OrderItem) error
	ItemExists(t orders.ItemType, id uint) (bool, error)
}

type ListFilter struct {
	UserID *uint
	Status orders.Status
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	ClearCart(ctx context.Context, userID uint) error
	List(ctx context.Context, f ListFilter) ([]orders.Order, error)
	// ByID loads the order with its items and shipping address.
	ByID(ctx context.Context, id uint) (*orders.Order, error)
	// UpdateStatus changes the status only if it still equals from.
	UpdateStatus(ctx context.Context, id uint, from, to orders.Status) error
	// Delete removes the order, its items and its address together.
	Delete(ctx context.Context, id uint) error
}

type Service struct {
	repo     Repository
	announce *announce.Announcer
	log      *logrus.Logger
}

func NewService(repo Repository, a *announce.Announcer, log *logrus.Logger) *Service {
	return &Service{repo: repo, announce: a, log: log}
}

type ItemInput struct {
	ItemType   orders.ItemType
	ItemID     uint
	Quantity   int
	PriceCents int64
}

type CreateInput struct {
	Purchaser         purchaser.Purchaser
	Items             []ItemInput
	ShippingAddress   orders.ShippingAddress
	ShippingCostCents int64
	TotalAmountCents  int64
	PaymentMethod     orders.PaymentMethod
}

func (in CreateInput) items() []orders.OrderItem {
	out := make([]orders.OrderItem, len(in.Items))
	for i, it := range in.Items {
		out[i] = orders.OrderItem{ItemType: it.ItemType, ItemID: it.ItemID, Quantity: it.Quantity, PriceCents: it.PriceCents}
	}
	return out
}

func (in CreateInput) validate() error {
	if err := in.Purchaser.Validate(); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	if len(in.Items) == 0 {
		return apperr.Validation("order must contain at least one item")
	}
	if missing := in.ShippingAddress.MissingFields(); len(missing) > 0 {
		return apperr.Validation("shipping address is missing %v", missing)
	}
	if !in.PaymentMethod.Valid() {
		return apperr.Validation("payment_method must be cod or online")
	}
	if in.ShippingCostCents < 0 {
		return apperr.Validation("shipping cost cannot be negative")
	}
	if err := orders.VerifyTotal(in.items(), in.ShippingCostCents, in.TotalAmountCents); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	return nil
}

// CreateOrder writes the address, the order and every item in one
// transaction. Any failing item rolls the whole order back.
func (s *Service) CreateOrder(ctx context.Context, in CreateInput) (*orders.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var created *orders.Order
	err := s.repo.InTx(ctx, func(tx Tx) error {
		addr := in.ShippingAddress
		addr.ID = 0
		if err := tx.CreateShippingAddress(&addr); err != nil {
			return err
		}

		o := &orders.Order{
			Purchaser:         in.Purchaser,
			TotalAmountCents:  orders.ComputeTotal(in.items(), in.ShippingCostCents),
			ShippingCostCents: in.ShippingCostCents,
			Status:            orders.StatusPending,
			PaymentMethod:     in.PaymentMethod,
			PaymentStatus:     orders.PaymentPending,
			ShippingAddressID: addr.ID,
		}
		ref := purchaser.NewReference("OR")
		o.OrderReference = &ref
		if err := tx.CreateOrder(o); err != nil {
			return err
		}

		for i, it := range in.items() {
			if err := checkItem(tx, i, it); err != nil {
				return err
			}
			it.OrderID = o.ID
			if err := tx.CreateItem(&it); err != nil {
				return err
			}
			o.Items = append(o.Items, it)
		}

		o.ShippingAddress = &addr
		created = o
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Transaction(err, "create order")
	}

	s.log.WithFields(logrus.Fields{
		"order_id":       created.ID,
		"items":          len(created.Items),
		"total_cents":    created.TotalAmountCents,
		"payment_method": created.PaymentMethod,
	}).Info("order created")

	// Online orders keep the cart until the payment is confirmed.
	if created.PaymentMethod == orders.PaymentCOD && created.UserID != nil {
		if err := s.repo.ClearCart(ctx, *created.UserID); err != nil {
			s.log.WithError(err).WithField("order_id", created.ID).Warn("clear cart after cod order")
		}
	}

	s.announce.User(ctx, created.Purchaser, notify.Message{
		Subject: "Order received",
		Body:    fmt.Sprintf("Your order %s has been received.", *created.OrderReference),
	})
	s.announce.Admin(ctx, notify.Message{
		Subject: "New order",
		Body:    fmt.Sprintf("Order #%d (%s) totalling %d cents.", created.ID, created.PaymentMethod, created.TotalAmountCents),
	})
	s.announce.Broadcast(ctx, realtime.ChannelOrders, realtime.EventOrderCreated, created)

	return created, nil
}

func checkItem(tx Tx, i int, it orders.OrderItem) error {
	if !it.ItemType.Valid() {
		return apperr.Validation("item %d: unknown item_type %q", i+1, it.ItemType)
	}
	if it.Quantity <= 0 {
		return apperr.Validation("item %d: quantity must be greater than zero", i+1)
	}
	if it.PriceCents < 0 {
		return apperr.Validation("item %d: price cannot be negative", i+1)
	}
	ok, err := tx.ItemExists(it.ItemType, it.ItemID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("item %d: %s %d does not exist", i+1, it.ItemType, it.ItemID)
	}
	return nil
}

func (s *Service) ListOrders(ctx context.Context, actor users.Actor, f ListFilter) ([]orders.Order, error) {
	if !actor.IsAdmin() {
		uid := actor.UserID
		f.UserID = &uid
	}
	return s.repo.List(ctx, f)
}

func (s *Service) GetOrder(ctx context.Context, id uint, actor users.Actor) (*orders.Order, error) {
	o, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(o.UserID) {
		return nil, apperr.Forbidden("order %d belongs to someone else", id)
	}
	return o, nil
}

// ErrStaleStatus is returned by Repository.UpdateStatus when the row moved on.
var ErrStaleStatus = errors.New("order status changed concurrently")

// UpdateOrderStatus only moves orders forward along the fulfilment path.
func (s *Service) UpdateOrderStatus(ctx context.Context, id uint, next orders.Status) (*orders.Order, error) {
	if !next.Valid() {
		return nil, apperr.Validation("invalid status %q", next)
	}
	o, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, apperr.Conflict("order %d cannot move from %s to %s", id, o.Status, next)
	}

	if err := s.repo.UpdateStatus(ctx, id, o.Status, next); err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return nil, apperr.Conflict("order %d was updated by someone else, reload and retry", id)
		}
		return nil, err
	}
	o.Status = next

	s.log.WithFields(logrus.Fields{"order_id": id, "status": next}).Info("order status updated")
	s.announce.User(ctx, o.Purchaser, notify.Message{
		Subject: "Order update",
		Body:    fmt.Sprintf("Your order #%d is now %s.", id, next),
	})
	s.announce.Broadcast(ctx, realtime.ChannelOrders, realtime.EventOrderUpdated, o)
	return o, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("order_id", id).Info("order deleted")
	return nil
}
