package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nhasan-dev/wallet-ledger/internal/api"
	"github.com/nhasan-dev/wallet-ledger/internal/config"
	"github.com/nhasan-dev/wallet-ledger/internal/db"
	"github.com/nhasan-dev/wallet-ledger/internal/idempotency"
	"github.com/nhasan-dev/wallet-ledger/internal/observability"
	"github.com/nhasan-dev/wallet-ledger/internal/repository"
	"github.com/nhasan-dev/wallet-ledger/internal/service"
)

// Run bootstraps the HTTP server, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store repository.Store
	var pool *pgxpool.Pool
	switch cfg.StorageDriver {
	case "postgres":
		pool, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		store = repository.NewPostgres(pool)
	case "memory":
		logger.Warn("memory storage driver selected, state will not survive a restart")
		store = repository.NewMemory()
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	var redisClient *redis.Client
	var idemStore *idempotency.Store
	if cfg.RedisURL != "" {
		redisClient, err = newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		idemStore = idempotency.NewStore(redisClient, cfg.IdempotencyTTL)
	} else {
		logger.Warn("redis not configured, idempotency protection disabled")
	}

	authSvc := service.NewAuthService(store, []byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	userSvc := service.NewUserService(store, cfg.OpeningBalance, cfg.BcryptCost)
	walletSvc := service.NewWalletService(store, cfg.FeeRate)
	txnSvc := service.NewTransactionService(store)

	router := api.NewRouter(api.Deps{
		Config:       cfg,
		Logger:       logger,
		DB:           pool,
		Redis:        redisCmdable(redisClient),
		Idempotency:  idemStore,
		Auth:         authSvc,
		Users:        userSvc,
		Wallets:      walletSvc,
		Transactions: txnSvc,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort), zap.String("driver", cfg.StorageDriver))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// redisCmdable avoids storing a typed nil in the router's interface field.
func redisCmdable(c *redis.Client) redis.Cmdable {
	if c == nil {
		return nil
	}
	return c
}
