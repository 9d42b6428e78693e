package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/orders"
	"venue-backend/internal/domain/registrations"
	ordersvc "venue-backend/internal/service/orders"
)

var _ ordersvc.Repository = (*OrderRepo)(nil)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

type orderTx struct{ tx *gorm.DB }

func (t orderTx) CreateShippingAddress(a *orders.ShippingAddress) error {
	return t.tx.Create(a).Error
}

func (t orderTx) CreateOrder(o *orders.Order) error {
	return t.tx.Omit(clause.Associations).Create(o).Error
}

func (t orderTx) CreateItem(i *orders.OrderItem) error {
	return t.tx.Create(i).Error
}

func (t orderTx) ItemExists(it orders.ItemType, id uint) (bool, error) {
	var model any
	switch it {
	case orders.ItemProduct:
		model = &orders.Product{}
	case orders.ItemTournament:
		model = &registrations.Tournament{}
	case orders.ItemEvent:
		model = &registrations.Event{}
	default:
		return false, nil
	}
	var n int64
	err := t.tx.Model(model).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *OrderRepo) InTx(ctx context.Context, fn func(ordersvc.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(orderTx{tx: tx})
	})
}

func (r *OrderRepo) ClearCart(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&orders.CartItem{}).Error
}

func (r *OrderRepo) List(ctx context.Context, f ordersvc.ListFilter) ([]orders.Order, error) {
	q := r.db.WithContext(ctx).Model(&orders.Order{}).Preload("Items")
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []orders.Order
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OrderRepo) ByID(ctx context.Context, id uint) (*orders.Order, error) {
	var o orders.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("ShippingAddress").First(&o, id).Error
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &o, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, from, to orders.Status) error {
	res := r.db.WithContext(ctx).Model(&orders.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.ByID(ctx, id); err != nil {
			return err
		}
		return ordersvc.ErrStaleStatus
	}
	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o orders.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order %d not found", id)
			}
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&orders.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&orders.Order{}, id).Error; err != nil {
			return err
		}
		return tx.Delete(&orders.ShippingAddress{}, o.ShippingAddressID).Error
	})
}
