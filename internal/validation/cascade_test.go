package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/schema"
)

// seedGraph extends seedBase with a second account, ledger rows and a
// transfer pair, giving the walker a graph with shared nodes and the
// self-referential transferid edge.
func seedGraph(t *testing.T) *provider.Memory {
	t.Helper()
	mem := seedBase(t)

	t1, t2 := "txn-t1", "txn-t2"
	savings := "acc-savings"
	records := []model.Record{
		&model.Account{ID: savings, TenantID: testTenant, Name: "Savings", CategoryID: "cat-cash"},
		&model.Transaction{ID: "txn-1", TenantID: testTenant, AccountID: "acc-checking", CategoryID: "txc-groceries", Amount: -1250},
		&model.Transaction{ID: "txn-2", TenantID: testTenant, AccountID: "acc-checking", CategoryID: "txc-groceries", Amount: -800},
		&model.Recurring{ID: "rec-rent", TenantID: testTenant, Name: "Rent", SourceAccountID: "acc-checking", Amount: -90000, Rule: "FREQ=MONTHLY"},
		&model.Transaction{
			ID: t1, TenantID: testTenant, AccountID: "acc-checking", CategoryID: "txc-groceries",
			Amount: -5000, TransferAccountID: &savings, TransferID: &t2,
		},
		&model.Transaction{
			ID: t2, TenantID: testTenant, AccountID: savings, CategoryID: "txc-groceries",
			Amount: 5000, TransferID: &t1,
		},
	}
	for _, r := range records {
		require.NoError(t, mem.Put(r))
	}
	return mem
}

func opIndex(t *testing.T, ops []DeleteOp, entity schema.Entity, id string) int {
	t.Helper()
	for i, op := range ops {
		if op.Entity == entity && op.ID == id {
			return i
		}
	}
	t.Fatalf("operation %s:%s not in plan", entity, id)
	return -1
}

func TestCascadeManager_DependentRecords(t *testing.T) {
	ctx := context.Background()
	m := NewCascadeManager(seedGraph(t))

	t.Run("groups one level of dependents by entity and field", func(t *testing.T) {
		groups, err := m.DependentRecords(ctx, schema.Accounts, "acc-checking", testTenant)
		require.NoError(t, err)
		require.Len(t, groups, 2)

		// Transactions referencing through accountid come first, then the
		// recurring template. txn-t2 references acc-checking only through
		// transferaccountid, which is not set on any row here pointing at
		// acc-checking, so no second transactions group appears.
		assert.Equal(t, schema.Transactions, groups[0].Entity)
		assert.ElementsMatch(t, []string{"txn-1", "txn-2", "txn-t1"}, groups[0].IDs)

		assert.Equal(t, schema.Recurrings, groups[1].Entity)
		assert.Equal(t, []string{"rec-rent"}, groups[1].IDs)
	})

	t.Run("transfer target appears through transferaccountid", func(t *testing.T) {
		groups, err := m.DependentRecords(ctx, schema.Accounts, "acc-savings", testTenant)
		require.NoError(t, err)

		var ids []string
		for _, g := range groups {
			require.Equal(t, schema.Transactions, g.Entity)
			ids = append(ids, g.IDs...)
		}
		assert.ElementsMatch(t, []string{"txn-t2", "txn-t1"}, ids,
			"txn-t2 books on savings, txn-t1 names it as transfer target")
	})

	t.Run("no dependents yields no groups", func(t *testing.T) {
		groups, err := m.DependentRecords(ctx, schema.Configurations, "anything", testTenant)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})
}

func TestCascadeManager_CanDeleteSafely(t *testing.T) {
	ctx := context.Background()
	m := NewCascadeManager(seedGraph(t))

	t.Run("blocked account reports blockers", func(t *testing.T) {
		report, err := m.CanDeleteSafely(ctx, schema.Accounts, "acc-checking", testTenant)
		require.NoError(t, err)
		assert.False(t, report.CanDelete)
		require.Len(t, report.Blockers, 2)
		assert.Equal(t, Blocker{Entity: schema.Transactions, Count: 3}, report.Blockers[0])
		assert.Equal(t, Blocker{Entity: schema.Recurrings, Count: 1}, report.Blockers[1])
	})

	t.Run("unreferenced group is safe", func(t *testing.T) {
		mem := seedGraph(t)
		require.NoError(t, mem.Put(&model.TransactionGroup{
			ID: "grp-idle", TenantID: testTenant, Name: "Idle", Type: model.GroupTypeIncome,
		}))
		report, err := NewCascadeManager(mem).CanDeleteSafely(ctx, schema.TransactionGroups, "grp-idle", testTenant)
		require.NoError(t, err)
		assert.True(t, report.CanDelete)
		assert.Empty(t, report.Blockers)
	})
}

func TestCascadeManager_CascadeDeletePreview(t *testing.T) {
	ctx := context.Background()
	m := NewCascadeManager(seedGraph(t))

	t.Run("root comes first and carries its label", func(t *testing.T) {
		items, err := m.CascadeDeletePreview(ctx, schema.Accounts, "acc-checking", testTenant, Options{})
		require.NoError(t, err)
		require.NotEmpty(t, items)

		assert.Equal(t, schema.Accounts, items[0].Entity)
		assert.Equal(t, "acc-checking", items[0].ID)
		assert.Equal(t, "Checking", items[0].Name)
	})

	t.Run("each record appears exactly once", func(t *testing.T) {
		// txn-t2 is reachable both through txn-t1's transferid and, for a
		// savings delete, through its own accountid; the visited set must
		// collapse every such diamond.
		items, err := m.CascadeDeletePreview(ctx, schema.AccountCategories, "cat-cash", testTenant, Options{})
		require.NoError(t, err)

		seen := map[string]int{}
		for _, it := range items {
			seen[string(it.Entity)+":"+it.ID]++
		}
		for key, n := range seen {
			assert.Equal(t, 1, n, "duplicate %s", key)
		}
		assert.Len(t, items, 8, "category, two accounts, four transactions, one recurring")
	})

	t.Run("transfer pair does not loop", func(t *testing.T) {
		items, err := m.CascadeDeletePreview(ctx, schema.Transactions, "txn-t1", testTenant, Options{})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "txn-t1", items[0].ID)
		assert.Equal(t, "txn-t2", items[1].ID)
	})
}

func TestCascadeManager_CascadeDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("without cascade dependents fail typed", func(t *testing.T) {
		m := NewCascadeManager(seedGraph(t))
		_, err := m.CascadeDelete(ctx, schema.Accounts, "acc-checking", testTenant, Options{SoftDelete: true})

		var cd *CascadeDeleteError
		require.ErrorAs(t, err, &cd)
		assert.Equal(t, schema.Transactions, cd.DependentEntity)
		assert.Equal(t, 3, cd.DependentCount)
	})

	t.Run("without cascade a free record plans one operation", func(t *testing.T) {
		mem := seedGraph(t)
		require.NoError(t, mem.Put(&model.TransactionGroup{
			ID: "grp-idle", TenantID: testTenant, Name: "Idle", Type: model.GroupTypeIncome,
		}))
		res, err := NewCascadeManager(mem).CascadeDelete(ctx, schema.TransactionGroups, "grp-idle", testTenant, Options{SoftDelete: true})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, []DeleteOp{{Entity: schema.TransactionGroups, ID: "grp-idle"}}, res.Operations)
	})

	t.Run("operations run deepest first, root last", func(t *testing.T) {
		m := NewCascadeManager(seedGraph(t))
		res, err := m.CascadeDelete(ctx, schema.AccountCategories, "cat-cash", testTenant,
			Options{SoftDelete: true, Cascade: true})
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Len(t, res.Operations, 8)

		root := opIndex(t, res.Operations, schema.AccountCategories, "cat-cash")
		assert.Equal(t, len(res.Operations)-1, root)

		checking := opIndex(t, res.Operations, schema.Accounts, "acc-checking")
		assert.Less(t, checking, root)
		assert.Less(t, opIndex(t, res.Operations, schema.Transactions, "txn-1"), checking)
		assert.Less(t, opIndex(t, res.Operations, schema.Recurrings, "rec-rent"), checking)
	})

	t.Run("transfer pair cascades as exactly two operations", func(t *testing.T) {
		m := NewCascadeManager(seedGraph(t))
		res, err := m.CascadeDelete(ctx, schema.Transactions, "txn-t1", testTenant,
			Options{SoftDelete: true, Cascade: true})
		require.NoError(t, err)
		assert.True(t, res.Success)
		require.Len(t, res.Operations, 2)
		assert.Equal(t, "txn-t2", res.Operations[0].ID)
		assert.Equal(t, "txn-t1", res.Operations[1].ID)
	})

	t.Run("depth overrun degrades to a partial unsuccessful plan", func(t *testing.T) {
		m := NewCascadeManager(seedGraph(t))
		res, err := m.CascadeDelete(ctx, schema.AccountCategories, "cat-cash", testTenant,
			Options{SoftDelete: true, Cascade: true, MaxDepth: 1})
		require.NoError(t, err, "depth overruns are reported, not raised")

		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Errors)
		// The accounts at depth 1 are planned but never expanded.
		assert.Len(t, res.Operations, 3)
		for _, op := range res.Operations {
			assert.NotEqual(t, schema.Transactions, op.Entity)
		}
	})

	t.Run("zero MaxDepth falls back to the default", func(t *testing.T) {
		assert.Equal(t, DefaultMaxDepth, Options{}.maxDepth())
		assert.Equal(t, 2, Options{MaxDepth: 2}.maxDepth())
	})
}
