package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/task-api/internal/auth"
	"github.com/jaekwang-park/task-api/internal/cache"
	"github.com/jaekwang-park/task-api/internal/config"
	taskhttp "github.com/jaekwang-park/task-api/internal/http"
	"github.com/jaekwang-park/task-api/internal/middleware"
	"github.com/jaekwang-park/task-api/internal/migrations"
	"github.com/jaekwang-park/task-api/internal/repository"
	"github.com/jaekwang-park/task-api/internal/secrets"
	"github.com/jaekwang-park/task-api/internal/service"
	"github.com/jaekwang-park/task-api/internal/slug"
)

const (
	minSigningSecretLen = 32
	redisConnectTimeout = 5 * time.Second
	shutdownTimeout     = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"auth_dev_mode", cfg.AuthDevMode,
		"log_level", cfg.LogLevel,
		"db_driver", cfg.DB.Driver,
	)

	// Database connection
	db, err := openDB(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	if cfg.DB.AutoMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	// Token authority
	secret, err := signingSecret(ctx, cfg, logger)
	if err != nil {
		return err
	}
	authority, err := auth.NewAuthority(auth.TokenConfig{
		Secret:   secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.Expiry,
	})
	if err != nil {
		return err
	}

	// Cache
	store, closeStore, err := cacheStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	c := cache.New(store, cache.Options{TTL: cfg.Cache.TTL, Prefix: cfg.Cache.KeyPrefix}, logger)

	slugs, err := slug.NewGenerator()
	if err != nil {
		return err
	}

	// Repositories
	userRepo := repository.NewPostgresUser(db, cfg.DB.AcquireTimeout)
	taskRepo := repository.NewPostgresTask(db, cfg.DB.AcquireTimeout)

	// Services
	hasher := auth.NewBcryptHasher(auth.DefaultBcryptCost)
	deps := taskhttp.Deps{
		Auth:     service.NewAuthService(userRepo, hasher, authority, logger),
		Users:    service.NewUserService(userRepo, hasher),
		Queries:  service.NewTaskQueryService(taskRepo, userRepo, c),
		Commands: service.NewTaskCommandService(taskRepo, userRepo, slugs, c),
		DB:       db,
		Cache:    c,
	}

	authMW, err := middleware.NewAuth(middleware.AuthConfig{
		DevMode:  cfg.AuthDevMode,
		Verifier: authority,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	// HTTP Server
	srv := taskhttp.NewServer(cfg.ServerPort, logger, taskhttp.NewRouter(deps), authMW)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}

// signingSecret prefers Secrets Manager, then JWT_SECRET. In dev mode with
// neither, a random per-process secret is used.
func signingSecret(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]byte, error) {
	if cfg.JWT.SecretARN != "" {
		loader, err := secrets.NewAWSLoader(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		secret, err := loader.SigningSecret(ctx, cfg.JWT.SecretARN)
		if err != nil {
			return nil, fmt.Errorf("load signing secret: %w", err)
		}
		if !cfg.IsLocal() && len(secret) < minSigningSecretLen {
			return nil, fmt.Errorf("signing secret from %s is shorter than %d bytes", cfg.JWT.SecretARN, minSigningSecretLen)
		}
		logger.Info("signing secret loaded from secrets manager", "region", cfg.AWSRegion)
		return secret, nil
	}

	if cfg.JWT.Secret != "" {
		return []byte(cfg.JWT.Secret), nil
	}

	secret := make([]byte, minSigningSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate signing secret: %w", err)
	}
	logger.Warn("JWT_SECRET not set: using an ephemeral signing secret")
	return secret, nil
}

// cacheStore connects to Redis, or uses the in-process store when REDIS_URL
// is empty or, in local only, when Redis is unreachable.
func cacheStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (cache.Store, func(), error) {
	if cfg.Cache.RedisURL == "" {
		logger.Info("cache using in-process store")
		return cache.NewMemoryStore(), func() {}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL, redisConnectTimeout)
	if err != nil {
		if cfg.IsLocal() {
			logger.Warn("redis unavailable, cache using in-process store", "error", err)
			return cache.NewMemoryStore(), func() {}, nil
		}
		return nil, nil, err
	}
	logger.Info("redis connected")

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}
	return cache.NewRedisStore(client, cache.DefaultBreakerConfig(), logger), closeFn, nil
}
