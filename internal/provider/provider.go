package provider

import (
	"context"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/schema"
)

// DataProvider is the read-only view the validation core has of a storage
// backend. Implementations never expose writes; every mutation stays with
// the store that owns the backend.
//
// ListLive applies the row-visibility rule (not soft-deleted, tenant
// matches) so no caller re-implements it. GetByID returns the raw row,
// soft-deleted included, so liveness can be checked explicitly; absence
// is a nil record, not an error.
type DataProvider interface {
	ListLive(ctx context.Context, entity schema.Entity, tenantID string) ([]model.Record, error)
	GetByID(ctx context.Context, entity schema.Entity, id string) (model.Record, error)
}
