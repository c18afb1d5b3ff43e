package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/beauty-assistant-api/docs" // Swagger docs (generated)
	"github.com/redmonkez12/beauty-assistant-api/internal/analysis"
	"github.com/redmonkez12/beauty-assistant-api/internal/auth"
	"github.com/redmonkez12/beauty-assistant-api/internal/config"
	"github.com/redmonkez12/beauty-assistant-api/internal/database"
	"github.com/redmonkez12/beauty-assistant-api/internal/email"
	httpServer "github.com/redmonkez12/beauty-assistant-api/internal/http"
	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
	"github.com/redmonkez12/beauty-assistant-api/internal/ratelimit"
	"github.com/redmonkez12/beauty-assistant-api/internal/recommendation"
	"github.com/redmonkez12/beauty-assistant-api/internal/storage"
	"github.com/redmonkez12/beauty-assistant-api/internal/user"
)

// @title           Beauty Assistant API
// @version         1.0
// @description     Identity, credential and face analysis API for the Beauty Assistant app.

// @contact.name   API Support
// @contact.email  support@beauty-assistant.app

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(logging.Config{
		Level: cfg.Log.Level,
		Dev:   cfg.Server.IsDevelopment(),
		Dir:   cfg.Log.Dir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"version", cfg.Server.Version,
	)

	// Initialize database connection and schema
	sqlDB, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(ctx, sqlDB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	db := database.NewBunDB(sqlDB)

	// Initialize repositories
	userRepo, err := user.NewRepository(db, cfg.Server.NodeID)
	if err != nil {
		return fmt.Errorf("failed to initialize user repository: %w", err)
	}

	// Redis backs rate limiting and token revocation; without it both fall
	// back to process-local state.
	policy := ratelimit.Policy{
		IPRequestLimit:  cfg.Auth.IPRequestLimit,
		IPWindow:        cfg.Auth.IPWindow,
		MaxFailedLogins: cfg.Auth.MaxFailedLogins,
		LockoutWindow:   cfg.Auth.LockoutWindow,
	}

	var (
		rateLimiter ratelimit.Limiter
		revocations auth.RevocationStore
	)
	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory rate limiting and revocation", "error", err.Error())
		rateLimiter = ratelimit.NewMemoryLimiter(policy)
		revocations = auth.NewMemoryRevocationStore()
	} else {
		defer redisClient.Close()
		rateLimiter = ratelimit.NewRedisLimiter(redisClient, policy)
		revocations = auth.NewRedisRevocationStore(redisClient)
	}

	tokens, err := initTokens(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	files, err := storage.New(ctx, cfg.Upload)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	mailer := email.NewSender(cfg.Email)
	if !cfg.Email.Enabled() {
		logger.Info("SMTP not configured, notification emails disabled")
	}

	// Initialize services
	authService := auth.NewService(
		userRepo,
		auth.NewPasswordHasher(auth.DefaultArgon2Params),
		tokens,
		revocations,
		rateLimiter,
		mailer,
		logger,
		cfg.Auth.AccessTokenDuration,
	)
	userService := user.NewService(userRepo)
	analysisService := analysis.NewService(files)

	// Initialize router
	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:            auth.NewHandler(authService, rateLimiter),
		AuthMiddleware:  auth.NewMiddleware(authService),
		Users:           user.NewHandler(userService, auth.GetUserIDFromContext),
		Analysis:        analysis.NewHandler(analysisService, cfg.Upload.MaxFileSize, cfg.Upload.AllowedImageTypes),
		Recommendations: recommendation.NewHandler(),
		Health:          httpServer.NewHealthHandler(sqlDB, cfg.Server.Version, cfg.Database.PingTimeout),
	}, logger)

	// Initialize HTTP server
	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func initTokens(cfg config.AuthConfig) (auth.TokenService, error) {
	if cfg.TokenStrategy == config.TokenStrategyPaseto {
		svc, err := auth.NewPasetoService(cfg.PasetoKey)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}

	svc, err := auth.NewJWTService(cfg.SecretKey, cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
