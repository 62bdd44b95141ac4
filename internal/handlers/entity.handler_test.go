package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/schema"
	"github.com/finvault/finance-tracker/internal/store"
	"github.com/finvault/finance-tracker/internal/validation"
	"github.com/finvault/finance-tracker/internal/writelock"
	xhttp "github.com/finvault/finance-tracker/pkg/http"
)

const testTenant = "tenant-1"

func newTestHandler(t *testing.T) (*provider.Memory, *EntityHandler) {
	t.Helper()
	mem := provider.NewMemory()
	factory := provider.NewFactory(
		func() provider.Mode { return provider.ModeDemo },
		provider.Builders{Demo: func() (provider.DataProvider, error) { return mem, nil }},
	)
	svc := validation.NewService(factory)
	return mem, NewEntityHandler(store.NewMemoryStore(mem, svc, writelock.NewLocal()), mem)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	req.Header.Set(tenantHeader, testTenant)
	if body != nil {
		req.SetBody(body)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func seedHandlerData(t *testing.T, mem *provider.Memory) {
	t.Helper()
	require.NoError(t, mem.Put(&model.AccountCategory{
		ID: "cat-cash", TenantID: testTenant, Name: "Cash", Type: model.CategoryTypeAsset,
	}))
	require.NoError(t, mem.Put(&model.Account{
		ID: "acc-1", TenantID: testTenant, Name: "Checking", CategoryID: "cat-cash",
	}))
}

func TestEntityHandler_Create(t *testing.T) {
	t.Run("valid account is created", func(t *testing.T) {
		mem, h := newTestHandler(t)
		seedHandlerData(t, mem)

		body, _ := json.Marshal(map[string]any{"name": "Savings", "categoryid": "cat-cash"})
		ctx := setupTestContext("POST", "/api/v1/accounts", body)
		ctx.SetUserValue("entity", "accounts")

		h.Create(ctx)
		assert.Equal(t, 201, ctx.Response.StatusCode())

		var created model.Account
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, testTenant, created.TenantID, "tenant comes from the header, not the body")
	})

	t.Run("invalid JSON is a 400", func(t *testing.T) {
		_, h := newTestHandler(t)
		ctx := setupTestContext("POST", "/api/v1/accounts", []byte("not json"))
		ctx.SetUserValue("entity", "accounts")

		h.Create(ctx)
		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("broken reference is a 422", func(t *testing.T) {
		_, h := newTestHandler(t)
		body, _ := json.Marshal(map[string]any{"name": "Orphan", "categoryid": "no-such-category"})
		ctx := setupTestContext("POST", "/api/v1/accounts", body)
		ctx.SetUserValue("entity", "accounts")

		h.Create(ctx)
		assert.Equal(t, 422, ctx.Response.StatusCode())

		var resp map[string]string
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Contains(t, resp["error"], "no longer exists")
	})

	t.Run("duplicate name is a 409", func(t *testing.T) {
		mem, h := newTestHandler(t)
		seedHandlerData(t, mem)

		body, _ := json.Marshal(map[string]any{"name": "Checking", "categoryid": "cat-cash"})
		ctx := setupTestContext("POST", "/api/v1/accounts", body)
		ctx.SetUserValue("entity", "accounts")

		h.Create(ctx)
		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("unknown entity is a 404", func(t *testing.T) {
		_, h := newTestHandler(t)
		ctx := setupTestContext("POST", "/api/v1/users", []byte("{}"))
		ctx.SetUserValue("entity", "users")

		h.Create(ctx)
		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("missing tenant header is a 400", func(t *testing.T) {
		_, h := newTestHandler(t)
		ctx := setupTestContext("POST", "/api/v1/accounts", []byte("{}"))
		ctx.Request.Header.Del(tenantHeader)
		ctx.SetUserValue("entity", "accounts")

		h.Create(ctx)
		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestEntityHandler_List(t *testing.T) {
	mem, h := newTestHandler(t)
	seedHandlerData(t, mem)
	require.NoError(t, mem.Put(&model.Account{
		ID: "acc-foreign", TenantID: "tenant-2", Name: "Foreign", CategoryID: "cat-cash",
	}))

	ctx := setupTestContext("GET", "/api/v1/accounts", nil)
	ctx.SetUserValue("entity", "accounts")

	h.List(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	var resp struct {
		Items []model.Account `json:"items"`
		Total int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, 1, resp.Total, "other tenants are invisible")
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "acc-1", resp.Items[0].ID)
}

func TestEntityHandler_Get(t *testing.T) {
	mem, h := newTestHandler(t)
	seedHandlerData(t, mem)
	require.NoError(t, mem.Put(&model.Account{
		ID: "acc-gone", TenantID: testTenant, Name: "Old", CategoryID: "cat-cash", Deleted: true,
	}))

	t.Run("live record", func(t *testing.T) {
		ctx := setupTestContext("GET", "/api/v1/accounts/acc-1", nil)
		ctx.SetUserValue("entity", "accounts")
		ctx.SetUserValue("id", "acc-1")

		h.Get(ctx)
		assert.Equal(t, 200, ctx.Response.StatusCode())
	})

	t.Run("deleted record is a 404", func(t *testing.T) {
		ctx := setupTestContext("GET", "/api/v1/accounts/acc-gone", nil)
		ctx.SetUserValue("entity", "accounts")
		ctx.SetUserValue("id", "acc-gone")

		h.Get(ctx)
		assert.Equal(t, 404, ctx.Response.StatusCode())
	})
}

func TestEntityHandler_Delete(t *testing.T) {
	t.Run("blocked delete is a 409", func(t *testing.T) {
		mem, h := newTestHandler(t)
		seedHandlerData(t, mem)

		ctx := setupTestContext("DELETE", "/api/v1/accountcategories/cat-cash", nil)
		ctx.SetUserValue("entity", "accountcategories")
		ctx.SetUserValue("id", "cat-cash")

		h.Delete(ctx)
		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("cascade flag deletes the subtree", func(t *testing.T) {
		mem, h := newTestHandler(t)
		seedHandlerData(t, mem)

		ctx := setupTestContext("DELETE", "/api/v1/accountcategories/cat-cash?cascade=true", nil)
		ctx.SetUserValue("entity", "accountcategories")
		ctx.SetUserValue("id", "cat-cash")

		h.Delete(ctx)
		assert.Equal(t, 200, ctx.Response.StatusCode())

		var res validation.Result
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &res))
		assert.True(t, res.Success)
		assert.Len(t, res.Operations, 2)

		rows, err := mem.ListLive(ctx, schema.Accounts, testTenant)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestEntityHandler_DeletePreview(t *testing.T) {
	mem, h := newTestHandler(t)
	seedHandlerData(t, mem)

	ctx := setupTestContext("GET", "/api/v1/accountcategories/cat-cash/delete-preview", nil)
	ctx.SetUserValue("entity", "accountcategories")
	ctx.SetUserValue("id", "cat-cash")

	h.DeletePreview(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	var resp struct {
		Items []validation.PreviewItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "cat-cash", resp.Items[0].ID)

	rows, err := mem.ListLive(ctx, schema.Accounts, testTenant)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "preview never writes")
}

func TestEntityHandler_CanDelete(t *testing.T) {
	mem, h := newTestHandler(t)
	seedHandlerData(t, mem)

	ctx := setupTestContext("GET", "/api/v1/accountcategories/cat-cash/can-delete", nil)
	ctx.SetUserValue("entity", "accountcategories")
	ctx.SetUserValue("id", "cat-cash")

	h.CanDelete(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	var report validation.SafetyReport
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &report))
	assert.False(t, report.CanDelete)
}
