package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/iliyamo/store-inventory/internal/auth"
	"github.com/iliyamo/store-inventory/internal/config"
	"github.com/iliyamo/store-inventory/internal/database"
	"github.com/iliyamo/store-inventory/internal/handler"
	"github.com/iliyamo/store-inventory/internal/logger"
	"github.com/iliyamo/store-inventory/internal/metrics"
	"github.com/iliyamo/store-inventory/internal/middleware"
	"github.com/iliyamo/store-inventory/internal/queue"
	"github.com/iliyamo/store-inventory/internal/repository"
	"github.com/iliyamo/store-inventory/internal/router"
	"github.com/iliyamo/store-inventory/internal/service"
)

const serviceName = "store-inventory"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err) // no structured logger yet
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel, serviceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	// Redis backs token revocation, so the API does not start without it.
	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		zl.Fatal("redis unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	defer rdb.Close()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL)
	if err != nil {
		zl.Fatal("token manager", zap.Error(err))
	}

	var pub queue.Publisher = queue.NopPublisher{}
	if cfg.Events.Enabled {
		ap := queue.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange, zl)
		defer ap.Close()
		pub = ap
		zl.Info("event publishing enabled", zap.String("exchange", cfg.Events.Exchange))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mx := metrics.New(reg, serviceName)

	managerRepo := repository.NewManagerRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	revocations := repository.NewRevocationRepo(rdb, cfg.Revocation.Prefix, cfg.AccessTokenTTL)

	managers := service.NewManagerService(managerRepo, tokens, revocations, pub, cfg.BcryptCost, zl)
	stores := service.NewStoreService(repository.NewStoreRepo(db), pub, zl)
	inventories := service.NewInventoryService(inventoryRepo, zl)
	items := service.NewItemService(repository.NewItemRepo(db), inventoryRepo, pub, zl)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(logger.RequestID(zl))
	e.Use(logger.Middleware())
	e.Use(mx.Middleware())

	router.RegisterRoutes(e, handler.NewReadinessHandler(map[string]handler.Check{
		"mysql": db.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}), metrics.Handler(reg))
	router.RegisterAPI(e, router.Handlers{
		Managers:    handler.NewManagerHandler(managers, mx),
		Stores:      handler.NewStoreHandler(stores),
		Inventories: handler.NewInventoryHandler(inventories),
		Items:       handler.NewItemHandler(items),
	}, router.Middleware{
		Auth:          middleware.Authenticate(tokens, revocations, managerRepo, mx),
		RateLimit:     middleware.NewTokenBucket(cfg.RateLimit, rdb),
		AuthRateLimit: middleware.NewTokenBucket(cfg.AuthRateLimit, rdb),
		Cache:         middleware.NewRedisCache(cfg.Cache, rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
