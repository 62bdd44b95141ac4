package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/schema"
	"github.com/finvault/finance-tracker/internal/store"
	"github.com/finvault/finance-tracker/internal/validation"
	"github.com/finvault/finance-tracker/internal/writelock"
)

// Standalone demo-mode playground: an in-memory tenant with seeded
// books, served over a small inspection API. Nothing here touches a real
// database, so it is safe to poke at cascade deletes freely.

const demoTenant = "demo-tenant"

type playground struct {
	mem   *provider.Memory
	store *store.Store
	svc   *validation.Service
}

func newPlayground() *playground {
	mem := provider.NewMemory()
	factory := provider.NewFactory(
		func() provider.Mode { return provider.ModeDemo },
		provider.Builders{Demo: func() (provider.DataProvider, error) { return mem, nil }},
	)
	svc := validation.NewService(factory)
	return &playground{
		mem:   mem,
		store: store.NewMemoryStore(mem, svc, writelock.NewLocal()),
		svc:   svc,
	}
}

func (p *playground) seed() error {
	cash := &model.AccountCategory{ID: "cat-cash", TenantID: demoTenant, Name: "Cash", Type: model.CategoryTypeAsset}
	cards := &model.AccountCategory{ID: "cat-cards", TenantID: demoTenant, Name: "Credit Cards", Type: model.CategoryTypeLiability}

	checking := &model.Account{ID: "acc-checking", TenantID: demoTenant, Name: "Checking", Balance: 245000, CategoryID: cash.ID}
	savings := &model.Account{ID: "acc-savings", TenantID: demoTenant, Name: "Savings", Balance: 1200000, CategoryID: cash.ID}

	living := &model.TransactionGroup{ID: "grp-living", TenantID: demoTenant, Name: "Living", Type: model.GroupTypeExpense}
	groceries := &model.TransactionCategory{ID: "txc-groceries", TenantID: demoTenant, Name: "Groceries", GroupID: living.ID}

	seedRecords := []model.Record{cash, cards, checking, savings, living, groceries,
		&model.Transaction{
			ID: "txn-1", TenantID: demoTenant, AccountID: checking.ID, CategoryID: groceries.ID,
			Amount: -5420, Note: "weekly shop", OccurredAt: time.Now().AddDate(0, 0, -3),
		},
		&model.Recurring{
			ID: "rec-1", TenantID: demoTenant, Name: "Rent", SourceAccountID: checking.ID,
			Amount: -95000, Rule: "FREQ=MONTHLY;BYMONTHDAY=1",
		},
	}
	for _, rec := range seedRecords {
		if err := p.mem.Put(rec); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	p := newPlayground()
	if err := p.seed(); err != nil {
		log.Fatal().Err(err).Msg("failed to seed demo data")
	}
	log.Info().Str("tenant", demoTenant).Msg("demo data seeded")

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/entities/:entity", p.list)
	r.POST("/entities/:entity", p.create)
	r.GET("/entities/:entity/:id/preview", p.preview)
	r.DELETE("/entities/:entity/:id", p.remove)

	addr := os.Getenv("DEMO_LISTEN_ADDR")
	if addr == "" {
		addr = ":8090"
	}
	log.Info().Str("addr", addr).Msg("demo playground listening")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func (p *playground) list(c *gin.Context) {
	entity, ok := entityParam(c)
	if !ok {
		return
	}
	rows, err := p.mem.ListLive(c.Request.Context(), entity, demoTenant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
}

func (p *playground) create(c *gin.Context) {
	entity, ok := entityParam(c)
	if !ok {
		return
	}
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := validation.Fields(raw)
	if err := p.svc.ValidateCreate(c.Request.Context(), entity, fields, demoTenant); err != nil {
		status := http.StatusInternalServerError
		if validation.IsReferentialIntegrityError(err) {
			status = http.StatusUnprocessableEntity
		} else if validation.IsConstraintViolationError(err) {
			status = http.StatusConflict
		}
		log.Warn().Str("entity", string(entity)).Err(err).Msg("create rejected")
		c.JSON(status, gin.H{"error": validation.UserFriendlyMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (p *playground) preview(c *gin.Context) {
	entity, ok := entityParam(c)
	if !ok {
		return
	}
	items, err := p.svc.CascadeDeletePreview(c.Request.Context(), entity, c.Param("id"), demoTenant, validation.Options{Cascade: true})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (p *playground) remove(c *gin.Context) {
	entity, ok := entityParam(c)
	if !ok {
		return
	}
	opts := validation.Options{
		SoftDelete: true,
		Cascade:    c.Query("cascade") == "true",
	}
	res, err := p.store.Delete(c.Request.Context(), entity, c.Param("id"), demoTenant, opts)
	if err != nil {
		if validation.IsCascadeDeleteError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": validation.UserFriendlyMessage(err)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("entity", string(entity)).Str("id", c.Param("id")).
		Int("operations", len(res.Operations)).Msg("deleted")
	c.JSON(http.StatusOK, res)
}

func entityParam(c *gin.Context) (schema.Entity, bool) {
	entity := schema.Entity(c.Param("entity"))
	if !entity.Valid() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity " + c.Param("entity")})
		return "", false
	}
	return entity, true
}
