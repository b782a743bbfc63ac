package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurondb/NeuronFlow/internal/auth"
	"github.com/neurondb/NeuronFlow/internal/cache"
	"github.com/neurondb/NeuronFlow/internal/communication"
	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/db"
	"github.com/neurondb/NeuronFlow/internal/events"
	"github.com/neurondb/NeuronFlow/internal/handlers"
	"github.com/neurondb/NeuronFlow/internal/injector"
	"github.com/neurondb/NeuronFlow/internal/logging"
	"github.com/neurondb/NeuronFlow/internal/middleware"
	"github.com/neurondb/NeuronFlow/internal/service"
	"github.com/neurondb/NeuronFlow/internal/tempfiles"
	"github.com/neurondb/NeuronFlow/internal/validation"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	logger.Info("Starting NeuronFlow API server", map[string]interface{}{
		"db_flavor": cfg.Database.Flavor,
		"auth_mode": cfg.Auth.Mode,
	})

	database, err := db.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", err, nil)
		return err
	}
	defer database.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.Migrate(migrateCtx); err != nil {
		logger.Error("Failed to run migrations", err, nil)
		return err
	}

	container, err := injector.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to bootstrap providers", err, nil)
		return err
	}
	defer container.Close()

	hub := events.NewHub(64)
	defer hub.Close()

	nodePathOpts := []service.Option{service.WithEvents(hub)}
	if c, err := injector.ResolveAs[cache.Cache](container, injector.CapabilityCache); err == nil {
		nodePathOpts = append(nodePathOpts, service.WithCache(c, cfg.Cache.TTL))
	}
	nodePaths := service.NewNodePathService(db.NewNodePathQueries(database), logger, nodePathOpts...)

	email, _ := injector.ResolveAs[communication.EmailSender](container, injector.CapabilityEmailSender)
	sms, _ := injector.ResolveAs[communication.SMSSender](container, injector.CapabilitySMSSender)
	participants := service.NewParticipantService(db.NewParticipantQueries(database), email, sms, logger)

	authMiddleware, err := buildAuth(cfg)
	if err != nil {
		logger.Error("Failed to configure authentication", err, nil)
		return err
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = middleware.NewRateLimiter(ctx, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	go tempfiles.NewJanitor(cfg.TempFolder.Path, handlers.UploadTempPattern,
		cfg.TempFolder.CleanupInterval, cfg.TempFolder.MaxAge, logger).Run(ctx)

	maxUpload := cfg.Upload.MaxBytes()
	router := handlers.NewRouter(handlers.RouterDeps{
		Logger:         logger,
		Validator:      validation.New(),
		NodePaths:      nodePaths,
		Participants:   participants,
		Container:      container,
		Hub:            hub,
		DB:             database,
		Auth:           authMiddleware,
		RateLimiter:    limiter,
		CORS:           cfg.CORS,
		TempDir:        cfg.TempFolder.Path,
		MaxUploadBytes: maxUpload,
		MaxBodyBytes:   maxUpload + 1<<20,
		DiskPath:       cfg.TempFolder.Path,
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", map[string]interface{}{"address": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", err, nil)
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", nil)

	/* Close streams first so WebSocket handlers return before Shutdown waits on them */
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err, nil)
		return err
	}

	logger.Info("Server stopped", nil)
	return nil
}

func buildAuth(cfg *config.Config) (func(http.Handler) http.Handler, error) {
	var jwtManager *auth.JWTManager
	if cfg.Auth.JWTSecret != "" {
		m, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return nil, err
		}
		jwtManager = m
	}
	return auth.Middleware(cfg.Auth.Mode, jwtManager, auth.NewAPIKeyVerifier(cfg.Auth.APIKeyHashes))
}
