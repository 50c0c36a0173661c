package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/steemit/circlemind/internal/cache"
	"github.com/steemit/circlemind/internal/compactor"
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

	logger := logging.WithService("circlemind-compactor")
	logger.Info("Starting Circlemind Compactor")

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

	// Initialize Redis cache
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	resolverOpts := []relation.Option{}
	if redisCache != nil {
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
	svc := social.New(store, resolver, social.NewNotifier(store.Notifications, publisher), social.ConfigFrom(cfg))

	c := compactor.New(svc, cfg.Compactor.Interval)
	if cfg.Compactor.RunOnce {
		if err := c.RunOnce(context.Background()); err != nil {
			logger.Fatal("Compaction failed", zap.Error(err))
		}
		logger.Info("Compactor exited")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Compactor stopped", zap.Error(err))
	}

	logger.Info("Compactor exited")
}
