package validation

import (
	"context"
	"reflect"
	"strings"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/schema"
)

// Fields is a partial record: a key that is absent was not touched by the
// caller and is never checked, a key holding nil is an explicit null.
// This mirrors partial-update semantics, where only the fields being set
// are validated.
type Fields map[string]any

// Validator answers foreign-key, uniqueness and delete-safety questions
// for one record at a time. It is bound to one DataProvider and holds no
// other state; every call is independent.
type Validator struct {
	provider provider.DataProvider
}

func NewValidator(p provider.DataProvider) *Validator {
	return &Validator{provider: p}
}

// ValidateCreate runs the checks a new record must pass: all referenced
// records live and tenant-matched, no unique-scope collision.
func (v *Validator) ValidateCreate(ctx context.Context, entity schema.Entity, fields Fields, tenantID string) error {
	if err := v.ValidateForeignKeys(ctx, entity, fields, tenantID); err != nil {
		return err
	}
	return v.ValidateUniqueConstraints(ctx, entity, fields, tenantID, "")
}

// ValidateUpdate runs the create checks with the record's own id excluded
// from uniqueness, so re-submitting unchanged values never collides with
// itself.
func (v *Validator) ValidateUpdate(ctx context.Context, entity schema.Entity, fields Fields, recordID, tenantID string) error {
	if err := v.ValidateForeignKeys(ctx, entity, fields, tenantID); err != nil {
		return err
	}
	return v.ValidateUniqueConstraints(ctx, entity, fields, tenantID, recordID)
}

// ValidateDelete checks that a non-cascading soft delete is safe.
func (v *Validator) ValidateDelete(ctx context.Context, entity schema.Entity, recordID, tenantID string) error {
	return v.ValidateCascadeDelete(ctx, entity, recordID, tenantID)
}

// ValidateForeignKeys checks every FK field present in the input. An
// explicit null on a nullable field is valid and does not hit the
// backend; on a non-nullable field it fails without a lookup either.
func (v *Validator) ValidateForeignKeys(ctx context.Context, entity schema.Entity, fields Fields, tenantID string) error {
	for _, fk := range schema.ForeignKeys(entity) {
		value, present := fields[fk.Field]
		if !present {
			continue
		}
		if value == nil || value == "" {
			if fk.Nullable {
				continue
			}
			return &ReferentialIntegrityError{
				Entity:           entity,
				Field:            fk.Field,
				Value:            value,
				ReferencedEntity: fk.References,
			}
		}

		id, ok := value.(string)
		if !ok {
			return &ReferentialIntegrityError{
				Entity:           entity,
				Field:            fk.Field,
				Value:            value,
				ReferencedEntity: fk.References,
			}
		}

		target, err := v.provider.GetByID(ctx, fk.References, id)
		if err != nil {
			return err
		}
		if !model.Live(target, tenantID) {
			return &ReferentialIntegrityError{
				Entity:           entity,
				Field:            fk.Field,
				Value:            id,
				ReferencedEntity: fk.References,
			}
		}
	}
	return nil
}

// ValidateUniqueConstraints checks every unique scope whose fields are
// all present in the input against the live records of the tenant.
// excludeID keeps a record from colliding with its own stored values on
// update; pass "" for creates.
func (v *Validator) ValidateUniqueConstraints(ctx context.Context, entity schema.Entity, fields Fields, tenantID, excludeID string) error {
	uniques := schema.Uniques(entity)
	if len(uniques) == 0 {
		return nil
	}

	var existing []model.Record // fetched once, shared by all scopes
	for _, u := range uniques {
		if !allPresent(fields, u.Fields) {
			continue
		}
		if existing == nil {
			rows, err := v.provider.ListLive(ctx, entity, tenantID)
			if err != nil {
				return err
			}
			existing = rows
		}
		for _, rec := range existing {
			if rec.RecordID() == excludeID {
				continue
			}
			if matchesScope(rec, fields, u.Fields) {
				return &ConstraintViolationError{
					Entity:     entity,
					Constraint: u.Name,
					Message:    collisionMessage(entity, u.Fields),
				}
			}
		}
	}
	return nil
}

// ValidateCascadeDelete fails when any live record still references the
// target. The target itself must be live; deleting a missing, already
// deleted or foreign-tenant record fails fast.
func (v *Validator) ValidateCascadeDelete(ctx context.Context, entity schema.Entity, recordID, tenantID string) error {
	target, err := v.provider.GetByID(ctx, entity, recordID)
	if err != nil {
		return err
	}
	if !model.Live(target, tenantID) {
		return &ReferentialIntegrityError{
			Entity:           entity,
			Field:            "id",
			Value:            recordID,
			ReferencedEntity: entity,
		}
	}

	for _, dep := range schema.Dependents(entity) {
		rows, err := v.provider.ListLive(ctx, dep.Entity, tenantID)
		if err != nil {
			return err
		}
		count := 0
		for _, rec := range rows {
			if rec.RecordID() == recordID {
				continue // a transfer row never blocks its own delete
			}
			if fv, ok := rec.FieldValue(dep.Field); ok && fv == recordID {
				count++
			}
		}
		if count > 0 {
			return &CascadeDeleteError{
				Entity:          entity,
				ID:              recordID,
				DependentEntity: dep.Entity,
				DependentCount:  count,
			}
		}
	}
	return nil
}

func allPresent(fields Fields, names []string) bool {
	for _, n := range names {
		if _, ok := fields[n]; !ok {
			return false
		}
	}
	return true
}

func matchesScope(rec model.Record, fields Fields, names []string) bool {
	for _, n := range names {
		rv, ok := rec.FieldValue(n)
		if !ok || !equalValues(fields[n], rv) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	return reflect.DeepEqual(a, b)
}

func collisionMessage(entity schema.Entity, fieldNames []string) string {
	return "A " + entityNoun(entity) + " with this " + strings.Join(fieldNames, " and ") + " already exists."
}
