// Command audit-consumer appends every inventory event published by the
// API to a local audit log.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/store-inventory/internal/config"
	"github.com/iliyamo/store-inventory/internal/logger"
	"github.com/iliyamo/store-inventory/internal/queue"
)

func main() {
	cfg := config.LoadEventsConfig()
	zl, err := logger.New(envOr("APP_ENV", "dev"), envOr("LOG_LEVEL", "info"), "audit-consumer")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.AuditConsumer{
		URL:      cfg.URL,
		Exchange: cfg.Exchange,
		Queue:    cfg.Queue,
		Path:     cfg.AuditLogPath,
		Log:      zl,
	}
	zl.Info("audit consumer starting", zap.String("queue", cfg.Queue), zap.String("path", cfg.AuditLogPath))
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("audit consumer stopped", zap.Error(err))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
