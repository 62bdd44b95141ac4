package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/schema"
	"github.com/finvault/finance-tracker/internal/validation"
	"github.com/finvault/finance-tracker/internal/writelock"
)

// backend is the raw write surface of one storage mode. Validation and
// locking happen above it, in Store.
type backend interface {
	insert(ctx context.Context, rec model.Record) error
	update(ctx context.Context, rec model.Record) error
	softDelete(ctx context.Context, entity schema.Entity, id, tenantID string) error
	applyPlan(ctx context.Context, ops []validation.DeleteOp, tenantID string) error
}

// Store is the CRUD collaborator for one backend: every mutation first
// passes the validation facade, and the validate-then-write pair runs
// under the tenant write lock so concurrent writers cannot both pass a
// check-then-act validation.
type Store struct {
	svc      *validation.Service
	locker   writelock.Locker
	provider provider.DataProvider
	backend  backend
}

// Create validates and inserts a record, assigning an id when the caller
// left it empty. A caller-supplied id must not name any existing row;
// ids are never recycled, so even a soft-deleted row keeps its id taken.
func (s *Store) Create(ctx context.Context, rec model.Record, tenantID string) error {
	release, err := s.locker.Acquire(ctx, tenantID)
	if err != nil {
		return err
	}
	defer release()

	if id := rec.RecordID(); id != "" {
		existing, err := s.provider.GetByID(ctx, rec.Entity(), id)
		if err != nil {
			return err
		}
		if existing != nil {
			return &validation.ConstraintViolationError{
				Entity:     rec.Entity(),
				Constraint: "primary_key",
				Message:    "A record with this id already exists.",
			}
		}
	}

	ensureID(rec)
	if err := s.svc.ValidateCreate(ctx, rec.Entity(), fieldsOf(rec), tenantID); err != nil {
		return err
	}
	return s.backend.insert(ctx, rec)
}

// Update validates and persists a changed record. The target row must be
// live and owned by the calling tenant; without this check an update is
// an upsert by primary key and one tenant could take over another's row.
// The record's own id is excluded from uniqueness so unchanged values
// never collide with themselves.
func (s *Store) Update(ctx context.Context, rec model.Record, tenantID string) error {
	release, err := s.locker.Acquire(ctx, tenantID)
	if err != nil {
		return err
	}
	defer release()

	existing, err := s.provider.GetByID(ctx, rec.Entity(), rec.RecordID())
	if err != nil {
		return err
	}
	if !model.Live(existing, tenantID) {
		return &validation.ReferentialIntegrityError{
			Entity:           rec.Entity(),
			Field:            "id",
			Value:            rec.RecordID(),
			ReferencedEntity: rec.Entity(),
		}
	}

	if err := s.svc.ValidateUpdate(ctx, rec.Entity(), fieldsOf(rec), rec.RecordID(), tenantID); err != nil {
		return err
	}
	return s.backend.update(ctx, rec)
}

// Delete soft-deletes one record. Without opts.Cascade it fails typed
// while live dependents exist; with it the cascade plan is executed,
// deepest dependents first.
func (s *Store) Delete(ctx context.Context, entity schema.Entity, id, tenantID string, opts validation.Options) (*validation.Result, error) {
	release, err := s.locker.Acquire(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer release()

	if !opts.Cascade {
		if err := s.svc.ValidateDelete(ctx, entity, id, tenantID); err != nil {
			return nil, err
		}
		if err := s.backend.softDelete(ctx, entity, id, tenantID); err != nil {
			return nil, err
		}
		return &validation.Result{
			Success:    true,
			Operations: []validation.DeleteOp{{Entity: entity, ID: id}},
		}, nil
	}

	res, err := s.svc.CascadeDelete(ctx, entity, id, tenantID, opts)
	if err != nil {
		return nil, err
	}
	if err := s.backend.applyPlan(ctx, res.Operations, tenantID); err != nil {
		return nil, err
	}
	return res, nil
}

// DeletePreview exposes the facade's preview so callers can confirm with
// the user before committing to a cascade.
func (s *Store) DeletePreview(ctx context.Context, entity schema.Entity, id, tenantID string, opts validation.Options) ([]validation.PreviewItem, error) {
	return s.svc.CascadeDeletePreview(ctx, entity, id, tenantID, opts)
}

// CanDeleteSafely reports whether a plain delete would go through.
func (s *Store) CanDeleteSafely(ctx context.Context, entity schema.Entity, id, tenantID string) (*validation.SafetyReport, error) {
	return s.svc.CanDeleteSafely(ctx, entity, id, tenantID)
}

// fieldsOf projects the schema-relevant fields of a record into the
// partial-record shape the validator consumes.
func fieldsOf(rec model.Record) validation.Fields {
	f := validation.Fields{}
	for _, fk := range schema.ForeignKeys(rec.Entity()) {
		if v, ok := rec.FieldValue(fk.Field); ok {
			f[fk.Field] = v
		}
	}
	for _, u := range schema.Uniques(rec.Entity()) {
		for _, n := range u.Fields {
			if v, ok := rec.FieldValue(n); ok {
				f[n] = v
			}
		}
	}
	return f
}

func ensureID(rec model.Record) {
	if rec.RecordID() != "" {
		return
	}
	id := uuid.NewString()
	switch v := rec.(type) {
	case *model.AccountCategory:
		v.ID = id
	case *model.Account:
		v.ID = id
	case *model.TransactionGroup:
		v.ID = id
	case *model.TransactionCategory:
		v.ID = id
	case *model.Transaction:
		v.ID = id
	case *model.Recurring:
		v.ID = id
	case *model.Configuration:
		v.ID = id
	}
}
