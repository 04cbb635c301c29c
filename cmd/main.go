package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andressep95/gameplan-api/internal/config"
	"github.com/andressep95/gameplan-api/internal/database"
	"github.com/andressep95/gameplan-api/internal/handler"
	"github.com/andressep95/gameplan-api/internal/handler/middleware"
	"github.com/andressep95/gameplan-api/internal/metrics"
	"github.com/andressep95/gameplan-api/internal/ratelimit"
	"github.com/andressep95/gameplan-api/internal/repository/postgres"
	"github.com/andressep95/gameplan-api/internal/service"
	"github.com/andressep95/gameplan-api/pkg/hash"
	"github.com/andressep95/gameplan-api/pkg/jwt"
	"github.com/andressep95/gameplan-api/pkg/logger"
	"github.com/andressep95/gameplan-api/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Dev: cfg.Log.Dev})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("error closing database connection", zap.Error(err))
		}
	}()
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("database migrations applied")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Rate limiter: Redis when enabled so limits hold across instances
	var (
		redisClient *redis.Client
		limiter     ratelimit.Limiter
	)
	limitCfg := ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
		Capacity:    cfg.RateLimit.Capacity,
	}
	if cfg.Redis.Enabled {
		redisClient, err = initRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("error closing redis connection", zap.Error(err))
			}
		}()
		limiter = ratelimit.NewRedisLimiter(redisClient, limitCfg, "")
		log.Info("redis rate limiter enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		limiter = ratelimit.NewMemoryLimiter(limitCfg)
		log.Info("in-memory rate limiter enabled")
	}

	tokenService, err := jwt.NewTokenService(
		cfg.JWT.Secret,
		cfg.JWT.ExpiresIn,
		cfg.JWT.RememberExpiresIn,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	hasher := hash.NewHasher(hash.Argon2Config{
		Memory:      cfg.Auth.HashMemory,
		Iterations:  cfg.Auth.HashIterations,
		Parallelism: cfg.Auth.HashParallelism,
	})

	// Services
	store := postgres.NewStore(db)
	authService := service.NewAuthService(store, tokenService, hasher, m, log.Named("auth"))
	userService := service.NewUserService(store)
	membershipService := service.NewMembershipService(store)

	sweeper := service.NewSessionSweeper(store.Sessions(), cfg.Session.SweepInterval, func(n int64, err error) {
		if err != nil {
			log.Warn("session sweep failed", zap.Error(err))
			return
		}
		m.SessionsSwept(n)
		if n > 0 {
			log.Info("expired sessions removed", zap.Int64("count", n))
		}
	})
	go sweeper.Run(ctx)

	// Handlers
	validate := validator.NewValidator()
	authenticator := middleware.NewAuthenticator(tokenService, store.Users(), store.Sessions())

	app := fiber.New(fiber.Config{
		AppName:      "GamePlan API",
		ErrorHandler: handler.ErrorHandler(log, m, cfg.ExposeStack()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(middleware.Recovery(log))
	app.Use(middleware.CORS(cfg.Server.CORSOrigins))

	handler.SetupRoutes(app, handler.Routes{
		Auth:         handler.NewAuthHandler(authService, userService, validate),
		Password:     handler.NewPasswordHandler(authService, validate),
		Session:      handler.NewSessionHandler(userService),
		Role:         handler.NewRoleHandler(membershipService),
		Health:       handler.NewHealthHandler(db, redisClient),
		Metrics:      m.Handler(),
		Authenticate: authenticator.Authenticate(),
		OptionalAuth: authenticator.OptionalAuthenticate(),
		RateLimit:    middleware.UserRateLimit(limiter, m, log),
		Authorizer:   middleware.NewAuthorizer(membershipService),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		log.Info("server starting", zap.String("addr", addr), zap.String("environment", cfg.Server.Environment))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

// initRedis initializes Redis client and verifies connection
func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
