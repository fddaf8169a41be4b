// Package main запускает HTTP-сервер платформы лояльности.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/loyalty-platform/internal/cache"
	"github.com/mmeshcher/loyalty-platform/internal/config"
	"github.com/mmeshcher/loyalty-platform/internal/events"
	"github.com/mmeshcher/loyalty-platform/internal/handler"
	"github.com/mmeshcher/loyalty-platform/internal/middleware"
	"github.com/mmeshcher/loyalty-platform/internal/repository"
	"github.com/mmeshcher/loyalty-platform/internal/service"
	"github.com/mmeshcher/loyalty-platform/internal/tracing"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	shutdownTracing, err := tracing.InitTracerProvider(cfg.JaegerEndpoint, logger)
	if err != nil {
		sugar.Fatalw("tracing initialization error", "error", err.Error())
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			sugar.Warnw("tracing shutdown error", "error", err.Error())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewPostgresRepository(ctx, cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	var opts []service.Option

	if cfg.RedisAddr != "" {
		tenantCache := cache.NewTenantCache(cache.NewRedisClient(cfg.RedisAddr), cache.DefaultTTL)
		if err := tenantCache.Ping(ctx); err != nil {
			sugar.Warnw("redis unavailable, tenant cache will fall back to database", "addr", cfg.RedisAddr, "error", err.Error())
		}
		defer tenantCache.Close()
		opts = append(opts, service.WithTenantCache(tenantCache))
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		opts = append(opts, service.WithEventPublisher(publisher))
		sugar.Infow("domain events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	svc := service.NewService(repo, logger, opts...)
	defer svc.Close()

	if cfg.AdminKey == "" {
		sugar.Warn("ADMIN_KEY is empty, tenant registration is disabled")
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.TokenSecret)
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	h := handler.NewHandler(svc, logger, authMiddleware, limiter, cfg.AdminKey)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting loyalty platform server", "addr", cfg.RunAddress, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Errorw("application terminated with error", "error", err)
	}
}
