package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/config"
	"github.com/iliyamo/nfc-tracker/internal/database"
	"github.com/iliyamo/nfc-tracker/internal/handler"
	"github.com/iliyamo/nfc-tracker/internal/logger"
	"github.com/iliyamo/nfc-tracker/internal/middleware"
	"github.com/iliyamo/nfc-tracker/internal/queue"
	"github.com/iliyamo/nfc-tracker/internal/repository"
	"github.com/iliyamo/nfc-tracker/internal/router"
	"github.com/iliyamo/nfc-tracker/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load() // .env + environment
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogDebug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
		log.Info("schema ensured")
	}

	// Redis is optional: without it login is not rate limited and nothing is cached.
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable, continuing without rate limit and cache", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	queueCfg := config.LoadQueueConfig()
	publisher := service.NewPublisher(queueCfg, log)
	defer publisher.Close()
	if queueCfg.Enabled && queueCfg.ConsumerEnabled {
		go func() {
			if err := queue.StartTapConsumer(ctx, queueCfg, log.Named("tap-consumer")); err != nil {
				log.Error("tap consumer stopped", zap.Error(err))
			}
		}()
	}

	tags := repository.NewTagRepo(db)
	taps := repository.NewTapRepo(db)
	users := repository.NewUserRepo(db)
	tenants := repository.NewTenantRepo(db)

	tapHandler := handler.NewTapHandler(taps, tags, publisher, log)

	e := echo.New()
	router.Setup(e, cfg, log)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e,
		handler.NewAuthHandler(cfg, users, log),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	)
	router.RegisterPublic(e, tapHandler, log)
	router.RegisterTenant(e, router.TenantHandlers{
		Tags:    handler.NewTagHandler(tags, log),
		Taps:    tapHandler,
		Tenants: handler.NewTenantHandler(tenants, log),
	}, cfg.JWTSecret, middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log))
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, users, log), cfg.JWTSecret)

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
