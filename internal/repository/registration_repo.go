package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/registrations"
	regsvc "venue-backend/internal/service/registrations"
)

var _ regsvc.Repository = (*RegistrationRepo)(nil)

type RegistrationRepo struct{ db *gorm.DB }

func NewRegistrationRepo(db *gorm.DB) *RegistrationRepo {
	return &RegistrationRepo{db: db}
}

type targetRow struct {
	ID            uint
	Name          string
	EntryFeeCents int64
	Capacity      int
}

type registrationTx struct {
	tx     *gorm.DB
	kind   registrations.Kind
	target uint
}

func (t registrationTx) active() *gorm.DB {
	table, _, fk := t.kind.Tables()
	return t.tx.Table(table).Where(fk+" = ? AND status <> ?", t.target, registrations.StatusCancelled)
}

func (t registrationTx) HasActive(userID uint) (bool, error) {
	var n int64
	err := t.active().Where("user_id = ?", userID).Count(&n).Error
	return n > 0, err
}

func (t registrationTx) CountActive() (int64, error) {
	var n int64
	err := t.active().Count(&n).Error
	return n, err
}

func (t registrationTx) Create(r *registrations.Registration) error {
	if t.kind == registrations.KindEvent {
		row := registrations.EventRegistration{Registration: *r, EventID: t.target}
		if err := t.tx.Create(&row).Error; err != nil {
			return err
		}
		*r = row.Registration
		return nil
	}
	row := registrations.TournamentRegistration{Registration: *r, TournamentID: t.target}
	if err := t.tx.Create(&row).Error; err != nil {
		return err
	}
	*r = row.Registration
	return nil
}

func (r *RegistrationRepo) LockTarget(ctx context.Context, kind registrations.Kind, targetID uint, fn func(registrations.Target, regsvc.Tx) error) error {
	_, targets, _ := kind.Tables()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row targetRow
		err := tx.Table(targets).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", targetID).Take(&row).Error
		if err != nil {
			return notFound(err, string(kind), targetID)
		}
		target := registrations.Target{
			Kind:          kind,
			ID:            row.ID,
			Name:          row.Name,
			EntryFeeCents: row.EntryFeeCents,
			Capacity:      row.Capacity,
		}
		return fn(target, registrationTx{tx: tx, kind: kind, target: targetID})
	})
}

func (r *RegistrationRepo) ByID(ctx context.Context, kind registrations.Kind, id uint) (*registrations.Registration, error) {
	db := r.db.WithContext(ctx)
	if kind == registrations.KindEvent {
		var row registrations.EventRegistration
		if err := db.First(&row, id).Error; err != nil {
			return nil, notFound(err, "registration", id)
		}
		return &row.Registration, nil
	}
	var row registrations.TournamentRegistration
	if err := db.First(&row, id).Error; err != nil {
		return nil, notFound(err, "registration", id)
	}
	return &row.Registration, nil
}

func (r *RegistrationRepo) SetStatus(ctx context.Context, kind registrations.Kind, id uint, status registrations.Status) error {
	table, _, _ := kind.Tables()
	res := r.db.WithContext(ctx).Table(table).Where("id = ?", id).Updates(map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("registration %d not found", id)
	}
	return nil
}
