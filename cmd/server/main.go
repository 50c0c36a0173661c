package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/api"
	"github.com/steemit/circlemind/internal/cache"
	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/eventbroker"
	"github.com/steemit/circlemind/internal/relation"
	"github.com/steemit/circlemind/internal/social"
	"github.com/steemit/circlemind/pkg/config"
	"github.com/steemit/circlemind/pkg/logging"
	"github.com/steemit/circlemind/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.WithService("circlemind-api")
	logger.Info("Starting Circlemind API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Initialize database
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	checks := map[string]api.HealthChecker{"database": database}

	// Initialize Redis cache
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	resolverOpts := []relation.Option{}
	if redisCache != nil {
		checks["redis"] = redisCache
		resolverOpts = append(resolverOpts, relation.WithCache(redisCache, cfg.Social.RelationCacheTTL))
	}

	// Initialize event broker
	nc, err := eventbroker.Connect(&cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	var publisher social.EventPublisher
	if nc != nil {
		defer nc.Drain()
		publisher = eventbroker.NewNatsPublisher(nc, cfg.NATS.Subject)
	}

	store := db.NewStore(database.DB)
	resolver := relation.NewResolver(store.Blocks, store.Friends, resolverOpts...)
	notifier := social.NewNotifier(store.Notifications, publisher)
	svc := social.New(store, resolver, notifier, social.ConfigFrom(cfg))

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	api.NewRouter(svc, checks).SetupRoutes(engine)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
