package handlers

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/fasthttp/router"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/schema"
	"github.com/finvault/finance-tracker/internal/validation"
	xhttp "github.com/finvault/finance-tracker/pkg/http"
)

const tenantHeader = "X-Tenant-ID"

// EntityStore is what the handler needs from a CRUD store; satisfied by
// every backend's *store.Store.
type EntityStore interface {
	Create(ctx context.Context, rec model.Record, tenantID string) error
	Update(ctx context.Context, rec model.Record, tenantID string) error
	Delete(ctx context.Context, entity schema.Entity, id, tenantID string, opts validation.Options) (*validation.Result, error)
	DeletePreview(ctx context.Context, entity schema.Entity, id, tenantID string, opts validation.Options) ([]validation.PreviewItem, error)
	CanDeleteSafely(ctx context.Context, entity schema.Entity, id, tenantID string) (*validation.SafetyReport, error)
}

type EntityHandler struct {
	store    EntityStore
	provider provider.DataProvider
}

func NewEntityHandler(store EntityStore, p provider.DataProvider) *EntityHandler {
	return &EntityHandler{store: store, provider: p}
}

func RegisterEntityRoutes(e *router.Group, h *EntityHandler) {
	e.GET("/{entity}", h.List)
	e.POST("/{entity}", h.Create)
	e.GET("/{entity}/{id}", h.Get)
	e.PUT("/{entity}/{id}", h.Update)
	e.DELETE("/{entity}/{id}", h.Delete)
	e.GET("/{entity}/{id}/delete-preview", h.DeletePreview)
	e.GET("/{entity}/{id}/can-delete", h.CanDelete)
}

func (h *EntityHandler) List(ctx *xhttp.RequestCtx) {
	entity, tenant, ok := h.scope(ctx)
	if !ok {
		return
	}
	rows, err := h.provider.ListLive(ctx, entity, tenant)
	if err != nil {
		writeError(ctx, xhttp.StatusInternalServerError, validation.UserFriendlyMessage(err))
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]any{"items": rows, "total": len(rows)})
}

func (h *EntityHandler) Get(ctx *xhttp.RequestCtx) {
	entity, tenant, ok := h.scope(ctx)
	if !ok {
		return
	}
	rec, err := h.provider.GetByID(ctx, entity, param(ctx, "id"))
	if err != nil {
		writeError(ctx, xhttp.StatusInternalServerError, validation.UserFriendlyMessage(err))
		return
	}
	if !model.Live(rec, tenant) {
		writeError(ctx, xhttp.StatusNotFound, "not found")
		return
	}
	writeJSON(ctx, xhttp.StatusOK, rec)
}

func (h *EntityHandler) Create(ctx *xhttp.RequestCtx) {
	entity, tenant, ok := h.scope(ctx)
	if !ok {
		return
	}
	rec, err := decodeRecord(entity, ctx.PostBody())
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	setTenant(rec, tenant)
	if err := h.store.Create(ctx, rec, tenant); err != nil {
		writeValidationError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, rec)
}

func (h *EntityHandler) Update(ctx *xhttp.RequestCtx) {
	entity, tenant, ok := h.scope(ctx)
	if !ok {
		return
	}
	rec, err := decodeRecord(entity, ctx.PostBody())
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	setTenant(rec, tenant)
	setID(rec, param(ctx, "id"))
	if err := h.store.Update(ctx, rec, tenant); err != nil {
		writeValidationError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, rec)
}

func (h *EntityHandler) Delete(ctx *xhttp.RequestCtx) {
	entity, tenant, ok := h.scope(ctx)
	if !ok {
		return
	}
	opts := validation.Options{
		SoftDelete: true,
		Cascade:    queryBool(ctx, "cascade"),
		MaxDepth:   queryInt(ctx, "max_depth"),
	}
	res, err := h.store.Delete(ctx, entity, param(ctx, "id"), tenant, opts)
	if err != nil {
		writeValidationError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *EntityHandler) DeletePreview(ctx *xhttp.RequestCtx) {
	entity, tenant, ok := h.scope(ctx)
	if !ok {
		return
	}
	opts := validation.Options{Cascade: true, MaxDepth: queryInt(ctx, "max_depth")}
	items, err := h.store.DeletePreview(ctx, entity, param(ctx, "id"), tenant, opts)
	if err != nil {
		writeValidationError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]any{"items": items})
}

func (h *EntityHandler) CanDelete(ctx *xhttp.RequestCtx) {
	entity, tenant, ok := h.scope(ctx)
	if !ok {
		return
	}
	report, err := h.store.CanDeleteSafely(ctx, entity, param(ctx, "id"), tenant)
	if err != nil {
		writeValidationError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, report)
}

// scope resolves the entity path segment and tenant header, writing the
// error response itself when either is bad.
func (h *EntityHandler) scope(ctx *xhttp.RequestCtx) (schema.Entity, string, bool) {
	entity := schema.Entity(param(ctx, "entity"))
	if !entity.Valid() {
		writeError(ctx, xhttp.StatusNotFound, "unknown entity "+string(entity))
		return "", "", false
	}
	tenant := string(ctx.Request.Header.Peek(tenantHeader))
	if tenant == "" {
		writeError(ctx, xhttp.StatusBadRequest, tenantHeader+" header is required")
		return "", "", false
	}
	return entity, tenant, true
}

func decodeRecord(entity schema.Entity, body []byte) (model.Record, error) {
	var rec model.Record
	switch entity {
	case schema.AccountCategories:
		rec = &model.AccountCategory{}
	case schema.Accounts:
		rec = &model.Account{}
	case schema.TransactionGroups:
		rec = &model.TransactionGroup{}
	case schema.TransactionCategories:
		rec = &model.TransactionCategory{}
	case schema.Transactions:
		rec = &model.Transaction{}
	case schema.Recurrings:
		rec = &model.Recurring{}
	case schema.Configurations:
		rec = &model.Configuration{}
	}
	if err := json.Unmarshal(body, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func setTenant(rec model.Record, tenantID string) {
	switch v := rec.(type) {
	case *model.AccountCategory:
		v.TenantID = tenantID
	case *model.Account:
		v.TenantID = tenantID
	case *model.TransactionGroup:
		v.TenantID = tenantID
	case *model.TransactionCategory:
		v.TenantID = tenantID
	case *model.Transaction:
		v.TenantID = tenantID
	case *model.Recurring:
		v.TenantID = tenantID
	case *model.Configuration:
		v.TenantID = tenantID
	}
}

func setID(rec model.Record, id string) {
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

// writeValidationError maps the validation taxonomy onto status codes: a
// broken reference is unprocessable, collisions and blocked deletes are
// conflicts, anything else is the backend failing.
func writeValidationError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case validation.IsReferentialIntegrityError(err):
		writeError(ctx, xhttp.StatusUnprocessableEntity, validation.UserFriendlyMessage(err))
	case validation.IsConstraintViolationError(err):
		writeError(ctx, xhttp.StatusConflict, validation.UserFriendlyMessage(err))
	case validation.IsCascadeDeleteError(err):
		writeError(ctx, xhttp.StatusConflict, validation.UserFriendlyMessage(err))
	default:
		writeError(ctx, xhttp.StatusInternalServerError, validation.UserFriendlyMessage(err))
	}
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func param(ctx *xhttp.RequestCtx, name string) string {
	if v, ok := ctx.UserValue(name).(string); ok {
		return v
	}
	return ""
}

func queryBool(ctx *xhttp.RequestCtx, key string) bool {
	v := string(ctx.QueryArgs().Peek(key))
	b, _ := strconv.ParseBool(v)
	return b
}

func queryInt(ctx *xhttp.RequestCtx, key string) int {
	n, _ := strconv.Atoi(string(ctx.QueryArgs().Peek(key)))
	return n
}
