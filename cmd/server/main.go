// Command gamestats-server starts the game statistics HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/and161185/gamestats/internal/config"
	"github.com/and161185/gamestats/internal/limiter"
	"github.com/and161185/gamestats/internal/migrate"
	"github.com/and161185/gamestats/internal/repository/postgres"
	httpserver "github.com/and161185/gamestats/internal/server/http"
	"github.com/and161185/gamestats/internal/service"
	"github.com/and161185/gamestats/internal/worker"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main resolves configuration, runs migrations and serves HTTP until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:], os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger := newLogger(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.ListenAddr),
		zap.String("limiter", cfg.Limiter.Backend),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	gameRepo := postgres.NewGameRepo(db)
	statsRepo := postgres.NewStatsRepo(db)

	lim, cleanup, err := buildLimiter(ctx, cfg, db, logger)
	if err != nil {
		logger.Fatal("limiter", zap.Error(err))
	}
	defer cleanup()

	// Services
	authSvc := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), cfg.TokenTTL, lim)
	gameSvc := service.NewGameService(gameRepo)
	statsSvc := service.NewStatsService(statsRepo)

	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	app := httpserver.New(authSvc, gameSvc, statsSvc, db, logger)
	srv := httpserver.NewHTTPServer(cfg.ListenAddr, app.Handler(cfg.CORSOrigins))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			cleanup()
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

func newLogger(dev bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// buildLimiter selects the login limiter backend. The returned cleanup stops
// background work and closes clients owned by the limiter.
func buildLimiter(ctx context.Context, cfg config.Config, db *postgres.DB, log *zap.Logger) (limiter.Limiter, func(), error) {
	policy := limiter.Policy{
		Window:   cfg.Limiter.Window,
		MaxFails: cfg.Limiter.MaxFails,
		BlockFor: cfg.Limiter.BlockFor,
	}

	switch cfg.Limiter.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return limiter.NewRedis(client, cfg.Redis.Prefix, policy), func() { _ = client.Close() }, nil

	case config.BackendNone:
		log.Warn("login rate limiting disabled")
		return limiter.Nop{}, func() {}, nil

	default:
		pg := limiter.NewPG(db.Pool, policy)
		if cfg.JanitorInterval == 0 {
			return pg, func() {}, nil
		}
		j := worker.NewJanitor(pg, cfg.JanitorInterval, policy.Window+policy.BlockFor, log)
		if err := j.Start(); err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = j.Stop() }, nil
	}
}
