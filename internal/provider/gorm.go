package provider

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/schema"
)

// Gorm adapts a *gorm.DB to the DataProvider contract. The same type
// serves the hosted (postgres) and local (sqlite) modes; only the dialect
// behind the handle differs.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (p *Gorm) ListLive(ctx context.Context, entity schema.Entity, tenantID string) ([]model.Record, error) {
	q := p.db.WithContext(ctx).Where("tenantid = ? AND isdeleted = ?", tenantID, false)

	switch entity {
	case schema.AccountCategories:
		return listLive[model.AccountCategory](q, entity)
	case schema.Accounts:
		return listLive[model.Account](q, entity)
	case schema.TransactionGroups:
		return listLive[model.TransactionGroup](q, entity)
	case schema.TransactionCategories:
		return listLive[model.TransactionCategory](q, entity)
	case schema.Transactions:
		return listLive[model.Transaction](q, entity)
	case schema.Recurrings:
		return listLive[model.Recurring](q, entity)
	case schema.Configurations:
		return listLive[model.Configuration](q, entity)
	default:
		return nil, errors.Wrap(ErrUnknownEntity, string(entity))
	}
}

func (p *Gorm) GetByID(ctx context.Context, entity schema.Entity, id string) (model.Record, error) {
	q := p.db.WithContext(ctx).Where("id = ?", id)

	switch entity {
	case schema.AccountCategories:
		return getByID[model.AccountCategory](q, entity, id)
	case schema.Accounts:
		return getByID[model.Account](q, entity, id)
	case schema.TransactionGroups:
		return getByID[model.TransactionGroup](q, entity, id)
	case schema.TransactionCategories:
		return getByID[model.TransactionCategory](q, entity, id)
	case schema.Transactions:
		return getByID[model.Transaction](q, entity, id)
	case schema.Recurrings:
		return getByID[model.Recurring](q, entity, id)
	case schema.Configurations:
		return getByID[model.Configuration](q, entity, id)
	default:
		return nil, errors.Wrap(ErrUnknownEntity, string(entity))
	}
}

func listLive[T any, PT interface {
	*T
	model.Record
}](q *gorm.DB, entity schema.Entity) ([]model.Record, error) {
	var rows []PT
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "list %s", entity)
	}
	out := make([]model.Record, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out, nil
}

func getByID[T any, PT interface {
	*T
	model.Record
}](q *gorm.DB, entity schema.Entity, id string) (model.Record, error) {
	var row T
	err := q.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s %s", entity, id)
	}
	return PT(&row), nil
}
