// Command tokenauth-server serves the /auth API.
//
// Configuration comes from TOKENAUTH_* environment variables (see
// internal/envconfig). With TOKENAUTH_DATABASE_DSN accounts and revoked
// tokens are stored in Postgres. Otherwise accounts live in memory and revoked
// tokens go to Redis, which is an in-process miniredis unless
// TOKENAUTH_REDIS_ADDR is set. The login throttle always uses Redis.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/accounts"
	"github.com/MrEthical07/tokenAuth/httpapi"
	"github.com/MrEthical07/tokenAuth/internal/envconfig"
	"github.com/MrEthical07/tokenAuth/metrics/export/prometheus"
	"github.com/MrEthical07/tokenAuth/revocation"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	settings, err := envconfig.Load()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(settings.LogLevel)
	logger, err := logCfg.Build()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(settings, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(settings envconfig.Settings, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, closeRedis, err := openRedis(settings.RedisAddr, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	cfg := tokenAuth.DefaultConfig()
	cfg.JWT.Secret = settings.Secret
	cfg.JWT.AccessTTL = settings.AccessTTL
	cfg.JWT.RefreshTTL = settings.RefreshTTL
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = settings.Metrics
	cfg.Metrics.EnableLatencyHistograms = settings.Metrics

	builder := tokenAuth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithLogger(logger)

	if settings.DatabaseDSN != "" {
		db, err := accounts.OpenPostgres(ctx, settings.DatabaseDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		users, revoked, err := postgresStores(ctx, db)
		if err != nil {
			return err
		}
		builder = builder.WithUserStore(users).WithRevocationStore(revoked)
		go purgeRevoked(ctx, revoked, time.Hour, logger)
	} else {
		builder = builder.WithUserStore(accounts.NewMemory())
	}
	logStorage(logger, describeStorage(settings))

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := httpapi.Options{Logger: logger}
	if settings.Metrics {
		opts.Metrics = prometheus.New(engine).Handler()
	}

	srv := &http.Server{
		Addr:              settings.Addr,
		Handler:           httpapi.Handler(engine, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", settings.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

type storageLayout struct {
	Accounts    string
	Revocations string
	Durable     bool
}

// describeStorage mirrors the store selection made in run and by Builder.Build.
func describeStorage(settings envconfig.Settings) storageLayout {
	switch {
	case settings.DatabaseDSN != "":
		return storageLayout{Accounts: "postgres", Revocations: "postgres", Durable: true}
	case settings.RedisAddr != "":
		return storageLayout{Accounts: "memory", Revocations: "redis"}
	default:
		return storageLayout{Accounts: "memory", Revocations: "miniredis"}
	}
}

func logStorage(logger *zap.Logger, layout storageLayout) {
	fields := []zap.Field{
		zap.String("accounts", layout.Accounts),
		zap.String("revocations", layout.Revocations),
	}
	if layout.Durable {
		logger.Info("storage", fields...)
		return
	}
	logger.Warn("TOKENAUTH_DATABASE_DSN not set; accounts are lost on restart", fields...)
}

func openRedis(addr string, logger *zap.Logger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		logger.Warn("TOKENAUTH_REDIS_ADDR not set; using in-process miniredis", zap.String("addr", mr.Addr()))
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	return client, func() { _ = client.Close() }, nil
}

func postgresStores(ctx context.Context, db *sql.DB) (*accounts.Postgres, *revocation.Postgres, error) {
	users := accounts.NewPostgres(db)
	if err := users.EnsureSchema(ctx); err != nil {
		return nil, nil, err
	}
	revoked := revocation.NewPostgres(db)
	if err := revoked.EnsureSchema(ctx); err != nil {
		return nil, nil, err
	}
	return users, revoked, nil
}

// purgeRevoked drops revocation rows whose tokens have expired anyway.
func purgeRevoked(ctx context.Context, store *revocation.Postgres, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Purge(ctx, time.Now())
			if err != nil {
				logger.Warn("purge revoked tokens", zap.Error(err))
				continue
			}
			logger.Debug("purged revoked tokens", zap.Int64("rows", n))
		}
	}
}
