package validation

import (
	"context"
	"fmt"

	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/schema"
)

// DefaultMaxDepth bounds the cascade walk. Five levels covers the whole
// schema (group -> category -> transaction -> transfer twin) with room to
// spare.
const DefaultMaxDepth = 5

// Options steer a cascade operation. SoftDelete is informational: every
// delete in this system is soft, the flag only records the caller's
// intent on the result.
type Options struct {
	SoftDelete bool
	Cascade    bool
	MaxDepth   int
	UserID     string
}

func (o Options) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

// DependentGroup lists the ids of one entity that directly reference a
// record.
type DependentGroup struct {
	Entity schema.Entity `json:"entity"`
	IDs    []string      `json:"ids"`
}

// PreviewItem is one record a cascading delete would remove.
type PreviewItem struct {
	Entity schema.Entity `json:"entity"`
	ID     string        `json:"id"`
	Name   string        `json:"name,omitempty"`
}

// DeleteOp is one soft delete for the owning store to execute. The
// manager never writes; it only plans.
type DeleteOp struct {
	Entity schema.Entity `json:"entity"`
	ID     string        `json:"id"`
}

// Result is a cascade plan: operations ordered deepest dependent first,
// root last, plus any non-fatal traversal errors.
type Result struct {
	Success    bool       `json:"success"`
	Operations []DeleteOp `json:"operations"`
	Errors     []string   `json:"errors,omitempty"`
}

// Blocker summarizes one entity blocking a non-cascading delete.
type Blocker struct {
	Entity schema.Entity `json:"entity"`
	Count  int           `json:"count"`
}

// SafetyReport is the answer to "can this be deleted without cascade".
type SafetyReport struct {
	CanDelete bool      `json:"can_delete"`
	Blockers  []Blocker `json:"blockers,omitempty"`
}

// CascadeManager walks the reverse-dependency graph through one
// DataProvider. Like the Validator it is stateless between calls.
type CascadeManager struct {
	provider provider.DataProvider
}

func NewCascadeManager(p provider.DataProvider) *CascadeManager {
	return &CascadeManager{provider: p}
}

// DependentRecords returns one level of live dependents, grouped by
// entity. Groups with no hits are omitted.
func (m *CascadeManager) DependentRecords(ctx context.Context, entity schema.Entity, recordID, tenantID string) ([]DependentGroup, error) {
	var out []DependentGroup
	for _, dep := range schema.Dependents(entity) {
		rows, err := m.provider.ListLive(ctx, dep.Entity, tenantID)
		if err != nil {
			return nil, err
		}
		var ids []string
		for _, rec := range rows {
			if rec.RecordID() == recordID {
				continue
			}
			if fv, ok := rec.FieldValue(dep.Field); ok && fv == recordID {
				ids = append(ids, rec.RecordID())
			}
		}
		if len(ids) > 0 {
			out = append(out, DependentGroup{Entity: dep.Entity, IDs: ids})
		}
	}
	return out, nil
}

// CanDeleteSafely reports whether a non-cascading delete would succeed
// and, when it would not, which entities block it.
func (m *CascadeManager) CanDeleteSafely(ctx context.Context, entity schema.Entity, recordID, tenantID string) (*SafetyReport, error) {
	groups, err := m.DependentRecords(ctx, entity, recordID, tenantID)
	if err != nil {
		return nil, err
	}
	report := &SafetyReport{CanDelete: len(groups) == 0}
	for _, g := range groups {
		report.Blockers = append(report.Blockers, Blocker{Entity: g.Entity, Count: len(g.IDs)})
	}
	return report, nil
}

// CascadeDeletePreview expands dependents breadth-first into the flat
// list of records a cascading delete would remove, root first. Every
// (entity, id) pair appears at most once even when two paths reach it.
func (m *CascadeManager) CascadeDeletePreview(ctx context.Context, entity schema.Entity, recordID, tenantID string, opts Options) ([]PreviewItem, error) {
	items, _, err := m.walk(ctx, entity, recordID, tenantID, opts.maxDepth())
	return items, err
}

// CascadeDelete plans the cascading soft delete. The returned operations
// run deepest dependent first so no live record ever references a deleted
// one mid-plan; the root is last. With Cascade unset the plan degrades to
// the single root operation and fails typed when dependents exist.
func (m *CascadeManager) CascadeDelete(ctx context.Context, entity schema.Entity, recordID, tenantID string, opts Options) (*Result, error) {
	if !opts.Cascade {
		groups, err := m.DependentRecords(ctx, entity, recordID, tenantID)
		if err != nil {
			return nil, err
		}
		if len(groups) > 0 {
			return nil, &CascadeDeleteError{
				Entity:          entity,
				ID:              recordID,
				DependentEntity: groups[0].Entity,
				DependentCount:  len(groups[0].IDs),
			}
		}
		return &Result{
			Success:    true,
			Operations: []DeleteOp{{Entity: entity, ID: recordID}},
		}, nil
	}

	items, walkErrs, err := m.walk(ctx, entity, recordID, tenantID, opts.maxDepth())
	if err != nil {
		return nil, err
	}

	// Reverse of discovery order: dependents are discovered after the
	// records they reference, so reversing yields deepest-first.
	ops := make([]DeleteOp, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		ops = append(ops, DeleteOp{Entity: items[i].Entity, ID: items[i].ID})
	}
	return &Result{
		Success:    len(walkErrs) == 0,
		Operations: ops,
		Errors:     walkErrs,
	}, nil
}

type walkNode struct {
	entity schema.Entity
	id     string
	depth  int
}

// walk is the shared breadth-first traversal. The visited set is keyed
// entity:id, which keeps the transfer pair (two transactions referencing
// each other) from expanding forever. Depth overruns are reported as
// strings, not failures, so the partial plan stays inspectable.
func (m *CascadeManager) walk(ctx context.Context, entity schema.Entity, recordID, tenantID string, maxDepth int) ([]PreviewItem, []string, error) {
	visited := map[string]bool{visitKey(entity, recordID): true}
	queue := []walkNode{{entity: entity, id: recordID, depth: 0}}

	var items []PreviewItem
	var walkErrs []string

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		items = append(items, PreviewItem{
			Entity: node.entity,
			ID:     node.id,
			Name:   m.labelFor(ctx, node.entity, node.id),
		})

		if node.depth >= maxDepth {
			walkErrs = append(walkErrs, fmt.Sprintf(
				"max depth %d reached at %s; dependents of %s:%s were not expanded",
				maxDepth, visitKey(node.entity, node.id), node.entity, node.id))
			continue
		}

		for _, dep := range schema.Dependents(node.entity) {
			rows, err := m.provider.ListLive(ctx, dep.Entity, tenantID)
			if err != nil {
				return nil, nil, err
			}
			for _, rec := range rows {
				fv, ok := rec.FieldValue(dep.Field)
				if !ok || fv != node.id {
					continue
				}
				key := visitKey(dep.Entity, rec.RecordID())
				if visited[key] {
					continue
				}
				visited[key] = true
				queue = append(queue, walkNode{entity: dep.Entity, id: rec.RecordID(), depth: node.depth + 1})
			}
		}
	}
	return items, walkErrs, nil
}

func (m *CascadeManager) labelFor(ctx context.Context, entity schema.Entity, id string) string {
	rec, err := m.provider.GetByID(ctx, entity, id)
	if err != nil || rec == nil {
		return ""
	}
	return rec.Label()
}

func visitKey(entity schema.Entity, id string) string {
	return string(entity) + ":" + id
}
