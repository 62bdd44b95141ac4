package store

import (
	"context"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/schema"
	"github.com/finvault/finance-tracker/internal/validation"
	"github.com/finvault/finance-tracker/internal/writelock"
)

// NewMemoryStore builds the demo-mode store on the same tables the demo
// provider reads, so validation always sees what the store wrote.
func NewMemoryStore(mem *provider.Memory, svc *validation.Service, locker writelock.Locker) *Store {
	return &Store{
		svc:      svc,
		locker:   locker,
		provider: mem,
		backend:  &memoryBackend{mem: mem},
	}
}

type memoryBackend struct {
	mem *provider.Memory
}

func (b *memoryBackend) insert(_ context.Context, rec model.Record) error {
	return b.mem.Put(rec)
}

func (b *memoryBackend) update(_ context.Context, rec model.Record) error {
	return b.mem.Put(rec)
}

func (b *memoryBackend) softDelete(_ context.Context, entity schema.Entity, id, _ string) error {
	return b.mem.SoftDelete(entity, id)
}

// applyPlan runs the operations in order with no rollback: the demo mode
// makes no atomicity promise.
func (b *memoryBackend) applyPlan(_ context.Context, ops []validation.DeleteOp, _ string) error {
	for _, op := range ops {
		if err := b.mem.SoftDelete(op.Entity, op.ID); err != nil {
			return err
		}
	}
	return nil
}
