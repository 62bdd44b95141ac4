package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/schema"
	"github.com/finvault/finance-tracker/internal/validation"
	"github.com/finvault/finance-tracker/internal/writelock"
)

// NewGormStore serves both database-backed modes. transactional wraps
// cascade plans in a native transaction; the hosted mode enables it, the
// local sqlite mode runs plans operation by operation like the demo mode
// (atomic cascades are only promised where the backend natively supports
// them).
func NewGormStore(db *gorm.DB, svc *validation.Service, locker writelock.Locker, transactional bool) *Store {
	return &Store{
		svc:      svc,
		locker:   locker,
		provider: provider.NewGorm(db),
		backend:  &gormBackend{db: db, transactional: transactional},
	}
}

type gormBackend struct {
	db            *gorm.DB
	transactional bool
}

func (b *gormBackend) insert(ctx context.Context, rec model.Record) error {
	if err := b.db.WithContext(ctx).Create(rec).Error; err != nil {
		return errors.Wrapf(err, "insert %s", rec.Entity())
	}
	return nil
}

// update writes only rows the calling tenant already owns. A bare Save
// would upsert by primary key and ignore the tenant column.
func (b *gormBackend) update(ctx context.Context, rec model.Record) error {
	res := b.db.WithContext(ctx).
		Model(rec).
		Where("tenantid = ?", rec.Tenant()).
		Select("*").
		Updates(rec)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update %s %s", rec.Entity(), rec.RecordID())
	}
	return nil
}

func (b *gormBackend) softDelete(ctx context.Context, entity schema.Entity, id, tenantID string) error {
	res := b.db.WithContext(ctx).
		Table(string(entity)).
		Where("id = ? AND tenantid = ?", id, tenantID).
		Update("isdeleted", true)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "soft delete %s %s", entity, id)
	}
	return nil
}

func (b *gormBackend) applyPlan(ctx context.Context, ops []validation.DeleteOp, tenantID string) error {
	apply := func(db *gorm.DB) error {
		for _, op := range ops {
			res := db.WithContext(ctx).
				Table(string(op.Entity)).
				Where("id = ? AND tenantid = ?", op.ID, tenantID).
				Update("isdeleted", true)
			if res.Error != nil {
				return errors.Wrapf(res.Error, "soft delete %s %s", op.Entity, op.ID)
			}
		}
		return nil
	}

	if b.transactional {
		return b.db.WithContext(ctx).Transaction(apply)
	}
	return apply(b.db)
}
