package main

import (
	"os"
	"os/signal"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/finvault/finance-tracker/internal/config"
	"github.com/finvault/finance-tracker/internal/handlers"
	"github.com/finvault/finance-tracker/internal/model"
	"github.com/finvault/finance-tracker/internal/provider"
	"github.com/finvault/finance-tracker/internal/store"
	"github.com/finvault/finance-tracker/internal/validation"
	"github.com/finvault/finance-tracker/internal/writelock"
	xhttp "github.com/finvault/finance-tracker/pkg/http"
	"github.com/finvault/finance-tracker/pkg/logger"
	"github.com/finvault/finance-tracker/pkg/pg"
	"github.com/finvault/finance-tracker/pkg/prom"
	"github.com/finvault/finance-tracker/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	mode, err := provider.ParseMode(config.Get().StorageMode)
	if err != nil {
		logger.Error("invalid STORAGE_MODE", "error", err)
		return
	}
	logger.Info("starting", "version", version, "commit", commit, "date", date, "mode", mode)

	// transport
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	pgDebug := config.Get().AppEnv == "dev"

	// every mode's backend handle is built lazily and cached by the
	// factory; the demo tables are shared with the demo store below
	mem := provider.NewMemory()
	var hostedDB, localDB *gorm.DB

	openHosted := func() (*gorm.DB, error) {
		if hostedDB != nil {
			return hostedDB, nil
		}
		db, err := pg.Open(pg.Config{
			User:     config.Get().PostgresUser,
			Host:     config.Get().PostgresHost,
			Port:     config.Get().PostgresPort,
			Password: config.Get().PostgresPassword,
			Database: config.Get().PostgresDatabase,
		}, pgDebug)
		if err != nil {
			return nil, err
		}
		hostedDB = db
		return db, nil
	}
	openLocal := func() (*gorm.DB, error) {
		if localDB != nil {
			return localDB, nil
		}
		db, err := gorm.Open(sqlite.Open(config.Get().SqlitePath), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		// the embedded file bootstraps its own schema; goose migrations
		// only cover the hosted postgres backend
		err = db.AutoMigrate(
			&model.AccountCategory{},
			&model.Account{},
			&model.TransactionGroup{},
			&model.TransactionCategory{},
			&model.Transaction{},
			&model.Recurring{},
			&model.Configuration{},
		)
		if err != nil {
			return nil, err
		}
		localDB = db
		return db, nil
	}

	factory := provider.NewFactory(func() provider.Mode { return mode }, provider.Builders{
		Hosted: func() (provider.DataProvider, error) {
			db, err := openHosted()
			if err != nil {
				return nil, err
			}
			return provider.NewGorm(db), nil
		},
		Demo: func() (provider.DataProvider, error) {
			return mem, nil
		},
		Local: func() (provider.DataProvider, error) {
			db, err := openLocal()
			if err != nil {
				return nil, err
			}
			return provider.NewGorm(db), nil
		},
	})

	svc := validation.NewService(factory)

	// Hosted deployments run several API processes against one database,
	// so the write lock must live in redis. A process-local mutex would
	// silently drop the cross-process serialization the other two modes
	// get for free.
	var locker writelock.Locker = writelock.NewLocal()
	if mode == provider.ModeHosted {
		if config.Get().RedisAddr == "" {
			logger.Error("hosted mode requires REDIS_ADDR for the shared write lock")
			return
		}
		redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{config.Get().RedisAddr},
			ClientName: "default",
			DB:         config.Get().RedisDatabase,
			Username:   config.Get().RedisUsername,
			Password:   config.Get().RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		locker = writelock.NewLease(redisAdap, writelock.DefaultLeaseConfig())
	}

	var st *store.Store
	switch mode {
	case provider.ModeHosted:
		db, err := openHosted()
		if err != nil {
			logger.Error("failed connecting to pg", "error", err)
			return
		}
		st = store.NewGormStore(db, svc, locker, true)
	case provider.ModeDemo:
		st = store.NewMemoryStore(mem, svc, locker)
	case provider.ModeLocal:
		db, err := openLocal()
		if err != nil {
			logger.Error("failed opening sqlite database", "error", err)
			return
		}
		st = store.NewGormStore(db, svc, locker, false)
	}

	p, err := factory.Provider()
	if err != nil {
		logger.Error("failed resolving data provider", "error", err)
		return
	}

	if config.Get().PromNamespace != "" {
		host, _ := os.Hostname()
		if err := prom.Create(host, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
			logger.Error("failed creating metrics", "error", err)
			return
		}
		if config.Get().AppDebugMetricsAddr != "" {
			go prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
		}
	}

	entityHandler := handlers.NewEntityHandler(st, p)
	healthHandler := handlers.NewHealthHandler()

	g := s.Router.Group("/api/v1")
	handlers.RegisterEntityRoutes(g, entityHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		if err := s.ListenAndServe(config.Get().HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
