package provider

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/schema"
)

var ErrUnknownEntity = errors.New("unknown entity")

// Memory is the demo-mode backend: plain maps per entity, guarded by one
// RWMutex. It implements DataProvider and additionally carries the write
// operations the demo store needs, so provider and store share one state.
type Memory struct {
	mu   sync.RWMutex
	rows map[schema.Entity]map[string]model.Record
}

func NewMemory() *Memory {
	m := &Memory{rows: make(map[schema.Entity]map[string]model.Record, len(schema.All))}
	for _, e := range schema.All {
		m.rows[e] = make(map[string]model.Record)
	}
	return m
}

func (m *Memory) ListLive(_ context.Context, entity schema.Entity, tenantID string) ([]model.Record, error) {
	if !entity.Valid() {
		return nil, errors.Wrap(ErrUnknownEntity, string(entity))
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Record
	for _, r := range m.rows[entity] {
		if model.Live(r, tenantID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) GetByID(_ context.Context, entity schema.Entity, id string) (model.Record, error) {
	if !entity.Valid() {
		return nil, errors.Wrap(ErrUnknownEntity, string(entity))
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rows[entity][id]
	if !ok {
		return nil, nil
	}
	return r, nil
}

// Put inserts or replaces a record. Callers hand over ownership; mutating
// a record after Put without a follow-up Put is a caller bug.
func (m *Memory) Put(rec model.Record) error {
	e := rec.Entity()
	if !e.Valid() {
		return errors.Wrap(ErrUnknownEntity, string(e))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e][rec.RecordID()] = rec
	return nil
}

// SoftDelete flips the deleted flag on one row. Missing rows are a no-op
// so replaying a cascade plan stays idempotent.
func (m *Memory) SoftDelete(entity schema.Entity, id string) error {
	if !entity.Valid() {
		return errors.Wrap(ErrUnknownEntity, string(entity))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[entity][id]
	if !ok {
		return nil
	}
	markDeleted(r)
	return nil
}

func markDeleted(r model.Record) {
	switch v := r.(type) {
	case *model.AccountCategory:
		v.Deleted = true
	case *model.Account:
		v.Deleted = true
	case *model.TransactionGroup:
		v.Deleted = true
	case *model.TransactionCategory:
		v.Deleted = true
	case *model.Transaction:
		v.Deleted = true
	case *model.Recurring:
		v.Deleted = true
	case *model.Configuration:
		v.Deleted = true
	}
}
