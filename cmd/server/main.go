package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/yukyra-eren/flarum-ext-money/internal/adapter/httpserver"
	"github.com/yukyra-eren/flarum-ext-money/internal/adapter/postgres"
	"github.com/yukyra-eren/flarum-ext-money/internal/adapter/redis"
	"github.com/yukyra-eren/flarum-ext-money/internal/adapter/websocket"
	"github.com/yukyra-eren/flarum-ext-money/internal/app"
	"github.com/yukyra-eren/flarum-ext-money/internal/platform/config"
	"github.com/yukyra-eren/flarum-ext-money/internal/platform/logging"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func healthChecks(pool *pgxpool.Pool, redisClient *goredis.Client) []httpserver.HealthCheck {
	return []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	accountRepo := postgres.NewAccountRepo(pool)
	settingsRepo := postgres.NewSettingsRepo(pool)
	permissionRepo := postgres.NewPermissionRepo(pool)
	notifier := redis.NewBalanceNotifier(redisClient)

	appSvc, err := app.NewService(context.Background(), accountRepo, settingsRepo, permissionRepo, notifier, clock)
	if err != nil {
		slog.Error("Failed to create application service", "error", err)
		os.Exit(1)
	}
	defer appSvc.Stop()

	hub := websocket.NewHub(cfg.MaxWebSocketConnections, clock)
	defer hub.Stop()

	checkOrigin := websocket.NewCheckOrigin(cfg.AllowedOrigins, cfg.AppEnv == "development")
	srv := httpserver.NewServer(cfg, appSvc, hub, checkOrigin, healthChecks(pool, redisClient))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Pump balance updates from Redis into the websocket hub.
	group.Go(func() error {
		sub := notifier.Subscribe(groupCtx)
		defer sub.Close()
		for {
			select {
			case update, ok := <-sub.Ch:
				if !ok {
					return nil
				}
				hub.PushBalance(update.AccountID, update.Balance)
			case <-groupCtx.Done():
				return nil
			}
		}
	})

	group.Go(func() error {
		<-groupCtx.Done()
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}
