package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kitchenops/inventory-ledger/internal/api"
	"github.com/kitchenops/inventory-ledger/internal/application"
	"github.com/kitchenops/inventory-ledger/internal/config"
	mongoRepo "github.com/kitchenops/inventory-ledger/internal/infrastructure/mongodb"
	"github.com/kitchenops/inventory-ledger/pkg/cloudevents"
	"github.com/kitchenops/inventory-ledger/pkg/idempotency"
	"github.com/kitchenops/inventory-ledger/pkg/kafka"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/metrics"
	"github.com/kitchenops/inventory-ledger/pkg/middleware"
	"github.com/kitchenops/inventory-ledger/pkg/mongodb"
	"github.com/kitchenops/inventory-ledger/pkg/outbox"
	outboxmongo "github.com/kitchenops/inventory-ledger/pkg/outbox/mongodb"
	"github.com/kitchenops/inventory-ledger/pkg/resilience"
	"github.com/kitchenops/inventory-ledger/pkg/tracing"
)

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), os.Getenv("LEDGER_CONFIG_FILE"), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, signalCh <-chan os.Signal) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		logging.New(logging.DefaultConfig(config.ServiceName)).WithError(err).Error("Failed to load configuration")
		return err
	}

	logger := logging.New(cfg.LoggingConfig())
	logger.SetDefault()
	logger.Info("Starting inventory ledger API", "environment", cfg.App.Environment)

	tracerProvider, err := tracing.Initialize(ctx, cfg.TracingConfig())
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", cfg.Tracing.Endpoint)
	}

	m := metrics.New(metrics.DefaultConfig(config.ServiceName))

	// the replica set may still be electing a primary when the pod starts
	client, err := resilience.RetryWithResult(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) (*mongodb.Client, error) {
		return mongodb.NewClient(ctx, cfg.MongoConfig())
	})
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	mongoClient := mongodb.NewInstrumentedClient(client, m, logger)
	defer mongoClient.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	lotRepo := mongoRepo.NewLotRepository(mongoClient)
	deliveryRepo := mongoRepo.NewDeliveryRepository(mongoClient)
	batchRepo := mongoRepo.NewRecipeBatchRepository(mongoClient)
	recallRepo := mongoRepo.NewRecallRepository(mongoClient)
	outboxRepo := outboxmongo.NewOutboxRepository(mongoClient)
	keyRepo := idempotency.NewMongoRepository(mongoClient)

	indexers := []interface {
		EnsureIndexes(context.Context) error
	}{lotRepo, deliveryRepo, batchRepo, recallRepo, outboxRepo, keyRepo}
	for _, r := range indexers {
		if err := r.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Error("Failed to create indexes")
			return err
		}
	}

	if cfg.Outbox.Enabled {
		producer := kafka.NewProductionProducer(cfg.KafkaConfig(), m, logger)
		defer producer.Close()

		publisher := outbox.NewPublisher(outboxRepo, producer, logger, m, cfg.PublisherConfig())
		if err := publisher.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			return err
		}
		defer func() {
			if err := publisher.Stop(); err != nil {
				logger.WithError(err).Warn("Failed to stop outbox publisher")
			}
		}()
		logger.Info("Outbox publisher started", "brokers", cfg.Kafka.Brokers)
	}

	tx := mongoRepo.NewTransactionManager(mongoClient)
	recorder := mongoRepo.NewOutboxEventRecorder(outboxRepo, cloudevents.NewEventFactory(cloudevents.SourceInventoryLedger))
	syncer := application.NewDeliveryLineSynchronizer(deliveryRepo, m, logger)
	engine := application.NewAdjustmentEngine(lotRepo, syncer, recorder, m, logger)

	services := api.Services{
		Deliveries:    application.NewDeliveryService(tx, deliveryRepo, lotRepo, recorder, logger),
		Lots:          application.NewLotService(tx, lotRepo, recorder, logger),
		RecipeBatches: application.NewRecipeBatchService(tx, batchRepo, engine, logger),
		Recalls:       application.NewRecallService(tx, recallRepo, engine, logger),
	}

	var tenantScoped []gin.HandlerFunc
	if cfg.Idempotency.Enabled {
		ic := cfg.IdempotencyConfig(keyRepo)
		ic.Logger = logger
		ic.Metrics = m
		tenantScoped = append(tenantScoped, idempotency.Middleware(ic))
	}

	router, err := newRouter(services, m, logger, mongoClient.HealthCheck, cfg.Tracing.Enabled, tenantScoped...)
	if err != nil {
		logger.WithError(err).Error("Failed to register routes")
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", cfg.Server.Addr)

	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

// newRouter builds the gin engine: standard middleware, probes, metrics and the
// tenant-scoped API. tenantScoped handlers wrap every API route.
func newRouter(
	services api.Services,
	m *metrics.Metrics,
	logger *logging.Logger,
	ready func(ctx context.Context) error,
	enableTracing bool,
	tenantScoped ...gin.HandlerFunc,
) (*gin.Engine, error) {
	router := gin.New()

	mwConfig := middleware.DefaultConfig(config.ServiceName, logger)
	mwConfig.Metrics = m
	mwConfig.EnableTracing = enableTracing
	middleware.Setup(router, mwConfig)

	router.GET("/health", middleware.HealthCheck(config.ServiceName))
	router.GET("/ready", middleware.ReadinessCheck(config.ServiceName, ready))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	if err := api.RegisterRoutes(router.Group("/api/v1"), services, logger, tenantScoped...); err != nil {
		return nil, err
	}
	return router, nil
}
