package validation

import (
	"context"
	"sync"

	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/schema"
	"github.com/finvault/finance-tracker/pkg/prom"
)

// Service is the facade every CRUD call site talks to. It lazily builds
// one Validator and one CascadeManager against whatever provider the
// factory currently resolves, so callers never know which backend is
// active. It is handed to stores at construction time; a process that
// switches storage mode calls ResetValidator (and Factory.Reset) and the
// next call re-resolves.
type Service struct {
	factory *provider.Factory

	mu        sync.Mutex
	validator *Validator
	cascade   *CascadeManager
}

func NewService(factory *provider.Factory) *Service {
	return &Service{factory: factory}
}

// ResetValidator drops the lazily built components. Must be called when
// the active storage mode changes.
func (s *Service) ResetValidator() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validator = nil
	s.cascade = nil
}

func (s *Service) components() (*Validator, *CascadeManager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.validator == nil {
		p, err := s.factory.Provider()
		if err != nil {
			return nil, nil, err
		}
		s.validator = NewValidator(p)
		s.cascade = NewCascadeManager(p)
	}
	return s.validator, s.cascade, nil
}

func (s *Service) ValidateCreate(ctx context.Context, entity schema.Entity, fields Fields, tenantID string) error {
	v, _, err := s.components()
	if err != nil {
		return err
	}
	return observe(v.ValidateCreate(ctx, entity, fields, tenantID))
}

func (s *Service) ValidateUpdate(ctx context.Context, entity schema.Entity, fields Fields, recordID, tenantID string) error {
	v, _, err := s.components()
	if err != nil {
		return err
	}
	return observe(v.ValidateUpdate(ctx, entity, fields, recordID, tenantID))
}

func (s *Service) ValidateDelete(ctx context.Context, entity schema.Entity, recordID, tenantID string) error {
	v, _, err := s.components()
	if err != nil {
		return err
	}
	return observe(v.ValidateDelete(ctx, entity, recordID, tenantID))
}

func (s *Service) ValidateForeignKeys(ctx context.Context, entity schema.Entity, fields Fields, tenantID string) error {
	v, _, err := s.components()
	if err != nil {
		return err
	}
	return observe(v.ValidateForeignKeys(ctx, entity, fields, tenantID))
}

func (s *Service) ValidateUniqueConstraints(ctx context.Context, entity schema.Entity, fields Fields, tenantID, excludeID string) error {
	v, _, err := s.components()
	if err != nil {
		return err
	}
	return observe(v.ValidateUniqueConstraints(ctx, entity, fields, tenantID, excludeID))
}

func (s *Service) DependentRecords(ctx context.Context, entity schema.Entity, recordID, tenantID string) ([]DependentGroup, error) {
	_, c, err := s.components()
	if err != nil {
		return nil, err
	}
	return c.DependentRecords(ctx, entity, recordID, tenantID)
}

func (s *Service) CanDeleteSafely(ctx context.Context, entity schema.Entity, recordID, tenantID string) (*SafetyReport, error) {
	_, c, err := s.components()
	if err != nil {
		return nil, err
	}
	return c.CanDeleteSafely(ctx, entity, recordID, tenantID)
}

func (s *Service) CascadeDeletePreview(ctx context.Context, entity schema.Entity, recordID, tenantID string, opts Options) ([]PreviewItem, error) {
	_, c, err := s.components()
	if err != nil {
		return nil, err
	}
	return c.CascadeDeletePreview(ctx, entity, recordID, tenantID, opts)
}

func (s *Service) CascadeDelete(ctx context.Context, entity schema.Entity, recordID, tenantID string, opts Options) (*Result, error) {
	_, c, err := s.components()
	if err != nil {
		return nil, err
	}
	res, err := c.CascadeDelete(ctx, entity, recordID, tenantID, opts)
	if err != nil {
		observe(err)
		return nil, err
	}
	prom.AddCascadePlanSize(float64(len(res.Operations)), string(entity))
	return res, nil
}

// BatchResult pairs one input index with its validation outcome, nil for
// success. Batch helpers never abort on the first failure.
type BatchResult struct {
	Index int   `json:"index"`
	Err   error `json:"-"`
}

func (s *Service) ValidateCreateBatch(ctx context.Context, entity schema.Entity, records []Fields, tenantID string) []BatchResult {
	out := make([]BatchResult, len(records))
	for i, fields := range records {
		out[i] = BatchResult{Index: i, Err: s.ValidateCreate(ctx, entity, fields, tenantID)}
	}
	return out
}

func (s *Service) ValidateDeleteBatch(ctx context.Context, entity schema.Entity, ids []string, tenantID string) []BatchResult {
	out := make([]BatchResult, len(ids))
	for i, id := range ids {
		out[i] = BatchResult{Index: i, Err: s.ValidateDelete(ctx, entity, id, tenantID)}
	}
	return out
}

// observe counts validation failures by kind; backend errors pass through
// uncounted so driver outages do not pollute the violation metrics.
func observe(err error) error {
	switch {
	case err == nil:
	case IsReferentialIntegrityError(err):
		prom.IncValidationFailure("referential_integrity")
	case IsConstraintViolationError(err):
		prom.IncValidationFailure("constraint_violation")
	case IsCascadeDeleteError(err):
		prom.IncValidationFailure("cascade_delete")
	}
	return err
}
