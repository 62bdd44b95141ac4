package model

import "github.com/finvault/finance-tracker/internal/schema"

// Record is the field-level view the validation core needs of any row,
// regardless of which backend produced it. Every entity struct in this
// package implements it.
type Record interface {
	Entity() schema.Entity
	RecordID() string
	Tenant() string
	IsDeleted() bool

	// Label is a short human-readable name used in delete previews.
	Label() string

	// FieldValue resolves a schema field name ("categoryid", "name", ...)
	// to its current value. A nil value with ok=true means the field is an
	// unset nullable reference. ok=false means the entity has no such field.
	FieldValue(field string) (value any, ok bool)
}

// Live reports whether a record is visible under the given tenant:
// not soft-deleted and owned by that tenant.
func Live(r Record, tenantID string) bool {
	return r != nil && !r.IsDeleted() && r.Tenant() == tenantID
}

func deref(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
