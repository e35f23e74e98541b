package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"go-med-predict/internal/auth"
	"go-med-predict/internal/config"
	"go-med-predict/internal/database"
	"go-med-predict/internal/event"
	"go-med-predict/internal/handler"
	"go-med-predict/internal/imaging"
	"go-med-predict/internal/inference"
	"go-med-predict/internal/middleware"
	"go-med-predict/internal/repository"
	"go-med-predict/internal/router"
	"go-med-predict/internal/service"
)

const Version = "1.0.0"

type healthChecker interface {
	Health(ctx context.Context) error
}

type App struct {
	server       *http.Server
	cancel       context.CancelFunc
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	bgCtx, cancel := context.WithCancel(context.Background())
	a := &App{cancel: cancel}

	users, health, err := a.openUserStore(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	bus := event.NewBus()
	a.cleanupFuncs = append(a.cleanupFuncs, bus.Close)
	auditService := service.NewAuditService(0)
	go auditService.Run(bgCtx, bus)

	if len(cfg.KafkaBrokers) > 0 {
		forwarder := event.NewKafkaForwarder(bus, event.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		go forwarder.Run(bgCtx)
		slog.Info("forwarding events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	authService := service.NewAuthService(users, auth.NewPasswordHasher(cfg.BcryptCost), tokens, bus)
	if err := authService.SeedDefaultAdmin(ctx, cfg.DefaultAdminUsername, cfg.DefaultAdminPassword, cfg.DefaultAdminDOB); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to seed default admin: %w", err)
	}

	preprocessor := imaging.New(cfg.MaxImageBytes)
	registry, err := loadModels(ctx, cfg, preprocessor)
	if err != nil {
		a.cleanup()
		return nil, err
	}
	predictionService := service.NewPredictionService(registry, preprocessor, bus)

	appRouter := router.New(
		cfg,
		a.limitStore(ctx, cfg),
		middleware.NewAuthMiddleware(authService),
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(authService),
		handler.NewPredictHandler(predictionService, cfg.MaxUploadSize),
		handler.NewHealthHandler(health, registry, Version),
		handler.NewAuditHandler(auditService),
	)

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

// openUserStore returns the Postgres repository when DATABASE_URL is set and
// an in-memory one otherwise. health is nil for the memory store.
func (a *App) openUserStore(ctx context.Context, cfg *config.Config) (service.UserStore, healthChecker, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, users are kept in memory and lost on restart")
		return repository.NewMemoryUserRepository(), nil, nil
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

	if err := db.EnsureSchema(ctx); err != nil {
		a.cleanup()
		return nil, nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	return repository.NewUserRepository(db.SQL), db, nil
}

func loadModels(ctx context.Context, cfg *config.Config, preprocessor *imaging.Preprocessor) (*inference.Registry, error) {
	var artifacts *inference.ArtifactStore
	if cfg.S3Endpoint != "" || cfg.S3AccessKey != "" {
		client, err := inference.NewS3Client(ctx, inference.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
		}
		artifacts = inference.NewArtifactStore(client)
	} else {
		artifacts = inference.NewArtifactStore(nil)
	}

	images := make([]inference.ImageModelConfig, 0, 2)
	for _, m := range []config.ImageModel{cfg.MoleModel, cfg.EyeModel} {
		images = append(images, inference.ImageModelConfig{
			Name:       m.Name,
			RemoteName: m.RemoteName,
			Kind:       m.Kind,
			Labels:     m.Labels,
			Threshold:  m.Threshold,
		})
	}

	registry := inference.NewLoader(artifacts).Load(ctx, inference.LoadConfig{
		ServingURL:       cfg.InferenceURL,
		ServingTimeout:   cfg.InferenceTimeout,
		InputShape:       preprocessor.OutputShape(),
		Images:           images,
		TabularArtifacts: []string{cfg.CycleModelArtifact},
	})
	slog.Info("model registry ready", "loaded", registry.Loaded())

	return registry, nil
}

// limitStore shares rate limit counters through Redis when configured and
// falls back to per-process limiters when Redis is absent or unreachable.
func (a *App) limitStore(ctx context.Context, cfg *config.Config) middleware.LimitStore {
	if cfg.RedisAddr == "" {
		return middleware.NewMemoryLimitStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable, using in-process rate limits", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return middleware.NewMemoryLimitStore()
	}

	a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = client.Close() })
	slog.Info("rate limits shared through redis", "addr", cfg.RedisAddr)
	return middleware.NewRedisLimitStore(client, "med-predict:ratelimit:")
}

// Handler exposes the fully wired router without starting the listener.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Close releases background workers and connections for an App that was
// never started with Run.
func (a *App) Close() {
	a.cleanup()
}

func (a *App) cleanup() {
	a.cancel()
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}

func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(ctx)
	a.cleanup()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
