package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/partnerhub/internal/partner/cache"
	"github.com/gartstein/partnerhub/internal/partner/comparison"
	"github.com/gartstein/partnerhub/internal/partner/config"
	"github.com/gartstein/partnerhub/internal/partner/controller"
	"github.com/gartstein/partnerhub/internal/partner/db"
	"github.com/gartstein/partnerhub/internal/partner/events"
	"github.com/gartstein/partnerhub/internal/partner/handlers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := initRepository(cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	partnerCache := cache.New(repo.ListPartners, logger, cfg.Directory.CacheTTL)

	producer, closeEvents := initEvents(ctx, cfg.Kafka, partnerCache, logger)
	defer closeEvents()

	stores, closeStores := initSessionStores(ctx, cfg.Redis, cfg.Directory, logger)
	defer closeStores()

	partnerSvc := controller.NewPartnerService(repo, producer, partnerCache, controller.Options{
		PriorityCompanies: cfg.Directory.PriorityCompanies,
		ItemsPerPage:      cfg.Directory.ItemsPerPage,
	}, logger)
	engagementSvc := controller.NewEngagementService(repo, producer, logger)

	httpHandler := handlers.NewHTTPHandler(
		partnerSvc,
		engagementSvc,
		comparison.NewSessions(stores, logger),
		handlers.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst, logger),
		logger,
	)
	routes, err := httpHandler.Routes()
	if err != nil {
		logger.Fatal("failed to register routes", zap.Error(err))
	}

	server := handlers.NewServer(cfg.Server.GRPCPort, cfg.Server.HTTPPort, logger)
	server.RegisterHTTPHandler(routes)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger builds a production logger at the configured level.
func initLogger(cfg config.LoggingConfig) *zap.Logger {
	zc := zap.NewProductionConfig()
	if level, err := cfg.ZapLevel(); err == nil {
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zc.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}

// initRepository opens the configured store.
func initRepository(cfg config.DatabaseConfig) (*db.Repository, error) {
	if cfg.Driver == "sqlite" {
		return db.NewSQLiteRepository(cfg.SQLitePath)
	}
	return db.NewRepository(&db.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.Name,
		SSLMode:  cfg.SSLMode,
	})
}

// initEvents starts the Kafka producer and the cache-invalidating consumer.
// With Kafka disabled events are logged and dropped.
func initEvents(ctx context.Context, cfg config.KafkaConfig, partnerCache *cache.Partners, logger *zap.Logger) (controller.EventProducer, func()) {
	if !cfg.Enabled {
		logger.Info("Kafka disabled, events will not be published")
		return discardEvents{logger: logger.Named("events")}, func() {}
	}

	producer, err := events.NewProducer(cfg.Brokers, logger, cfg.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}

	// Each replica needs every partner event to keep its own cache coherent.
	hostname, _ := os.Hostname()
	consumer := events.NewConsumer(cfg.Brokers, fmt.Sprintf("%s-%s", cfg.GroupID, hostname), cfg.Topic, logger)
	consumer.RegisterHandler(events.InvalidateOnPartnerChange(partnerCache, logger))
	consumer.Start(ctx)

	return producer, func() {
		consumer.Close()
		producer.Close()
	}
}

// initSessionStores picks where comparison selections live.
func initSessionStores(ctx context.Context, cfg config.RedisConfig, dir config.DirectoryConfig, logger *zap.Logger) (comparison.StoreFactory, func()) {
	if !cfg.Enabled {
		logger.Info("Redis disabled, comparison selections are kept in memory")
		return comparison.MemoryStores(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, comparison selections may not persist", zap.Error(err))
	}
	return comparison.RedisStores(client, dir.SessionTTL), func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", zap.Error(err))
		}
	}
}

type discardEvents struct {
	logger *zap.Logger
}

func (d discardEvents) Produce(event events.Event) {
	d.logger.Debug("Dropping event",
		zap.String("event_type", string(event.Type)),
		zap.String("entity_id", event.EntityID),
	)
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
