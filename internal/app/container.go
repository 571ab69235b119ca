package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/martinvega/vinoteca/adapter/api"
	billingCommands "github.com/martinvega/vinoteca/internal/billing/application/commands"
	billingQueries "github.com/martinvega/vinoteca/internal/billing/application/queries"
	"github.com/martinvega/vinoteca/internal/billing/domain/plan"
	"github.com/martinvega/vinoteca/internal/billing/domain/subscription"
	billingPersistence "github.com/martinvega/vinoteca/internal/billing/infrastructure/persistence"
	identityDomain "github.com/martinvega/vinoteca/internal/identity/domain"
	identityPersistence "github.com/martinvega/vinoteca/internal/identity/infrastructure/persistence"
	"github.com/martinvega/vinoteca/internal/notifications"
	orderingCommands "github.com/martinvega/vinoteca/internal/ordering/application/commands"
	orderingQueries "github.com/martinvega/vinoteca/internal/ordering/application/queries"
	"github.com/martinvega/vinoteca/internal/ordering/domain/order"
	orderingPersistence "github.com/martinvega/vinoteca/internal/ordering/infrastructure/persistence"
	paymentsApplication "github.com/martinvega/vinoteca/internal/payments/application"
	paymentsDomain "github.com/martinvega/vinoteca/internal/payments/domain"
	"github.com/martinvega/vinoteca/internal/payments/infrastructure/mercadopago"
	paymentsPersistence "github.com/martinvega/vinoteca/internal/payments/infrastructure/persistence"
	"github.com/martinvega/vinoteca/internal/payments/infrastructure/rediscache"
	sharedApplication "github.com/martinvega/vinoteca/internal/shared/application"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/eventbus"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/martinvega/vinoteca/internal/shared/infrastructure/persistence"
	"github.com/martinvega/vinoteca/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DB *pgxpool.Pool

	// Redis
	RedisClient *redis.Client

	// Repositories
	OrderRepo        order.Repository
	PlanRepo         plan.Repository
	SubscriptionRepo subscription.Repository
	CustomerRepo     identityDomain.CustomerRepository
	OutboxRepo       outbox.Repository
	EventLedger      paymentsDomain.EventLedger

	// Payment gateway
	Gateway    *mercadopago.Client
	Normalizer *mercadopago.Normalizer
	SeenCache  paymentsApplication.SeenCache

	// Publishers
	EventPublisher eventbus.Publisher
	Notifier       notifications.Notifier

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Ordering handlers
	CreateOrderHandler        *orderingCommands.CreateOrderHandler
	ApplyPaymentStatusHandler *orderingCommands.ApplyPaymentStatusHandler
	GetOrderHandler           *orderingQueries.GetOrderHandler

	// Billing handlers
	ProvisionHandler       *billingCommands.ProvisionSubscriptionHandler
	ActivateHandler        *billingCommands.ActivateFromPaymentHandler
	PauseHandler           *billingCommands.PauseSubscriptionHandler
	ReactivateHandler      *billingCommands.ReactivateSubscriptionHandler
	CancelHandler          *billingCommands.CancelSubscriptionHandler
	ChangeFrequencyHandler *billingCommands.ChangeFrequencyHandler
	ChangePlanHandler      *billingCommands.ChangePlanHandler
	GetSubscriptionHandler *billingQueries.GetSubscriptionHandler
	ListPlansHandler       *billingQueries.ListPlansHandler

	// Webhook pipeline
	ProcessNotificationHandler *paymentsApplication.ProcessNotificationHandler

	// Outbox Processor
	OutboxProcessor *outbox.Processor

	// HTTP API
	Server *api.Server
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Connect to PostgreSQL
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c.DB = pool
	logger.Info("connected to database")

	// Connect to Redis (optional in development)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				pool.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, duplicate filtering falls back to the ledger", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					pool.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, duplicate filtering falls back to the ledger", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	// Create repositories
	c.OrderRepo = orderingPersistence.NewPostgresOrderRepository(pool)
	c.PlanRepo = billingPersistence.NewPostgresPlanRepository(pool)
	c.SubscriptionRepo = billingPersistence.NewPostgresSubscriptionRepository(pool)
	c.CustomerRepo = identityPersistence.NewPostgresCustomerRepository(pool)
	c.OutboxRepo = outbox.NewPostgresRepository(pool)
	c.EventLedger = paymentsPersistence.NewPostgresEventLedger(pool)
	c.UnitOfWork = sharedPersistence.NewPostgresUnitOfWork(pool)

	// Create payment gateway client and webhook normalizer
	c.Gateway = mercadopago.NewClient(mercadopago.Config{
		BaseURL:     cfg.GatewayBaseURL,
		AccessToken: cfg.GatewayAccessToken,
	}, logger)
	c.Normalizer = mercadopago.NewNormalizer(c.Gateway)

	if c.RedisClient != nil {
		c.SeenCache = rediscache.NewSeenCache(c.RedisClient, cfg.SeenCacheTTL, logger)
	} else {
		c.SeenCache = rediscache.NewNoopSeenCache()
	}

	// Create event publisher
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		// Fall back to noop publisher in development
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}
	c.Notifier = notifications.NewEventbusNotifier(c.EventPublisher, cfg.AdminEmail, logger)

	// Create ordering handlers
	c.CreateOrderHandler = orderingCommands.NewCreateOrderHandler(c.OrderRepo, c.OutboxRepo, c.UnitOfWork)
	c.ApplyPaymentStatusHandler = orderingCommands.NewApplyPaymentStatusHandler(
		c.OrderRepo, c.CustomerRepo, c.Notifier, c.EventLedger, c.OutboxRepo, c.UnitOfWork, cfg.AllowOrderRegression, logger)
	c.GetOrderHandler = orderingQueries.NewGetOrderHandler(c.OrderRepo)

	// Create billing handlers
	c.ProvisionHandler = billingCommands.NewProvisionSubscriptionHandler(
		c.PlanRepo, c.SubscriptionRepo, c.CustomerRepo, c.Gateway, c.Notifier,
		c.OutboxRepo, c.UnitOfWork, cfg.CurrencyID, cfg.GatewayBackURL, logger)
	c.ActivateHandler = billingCommands.NewActivateFromPaymentHandler(c.SubscriptionRepo, c.EventLedger, c.OutboxRepo, c.UnitOfWork, logger)
	c.PauseHandler = billingCommands.NewPauseSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork)
	c.ReactivateHandler = billingCommands.NewReactivateSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork)
	c.CancelHandler = billingCommands.NewCancelSubscriptionHandler(c.SubscriptionRepo, c.OutboxRepo, c.UnitOfWork)
	c.ChangeFrequencyHandler = billingCommands.NewChangeFrequencyHandler(c.SubscriptionRepo, c.PlanRepo, c.OutboxRepo, c.UnitOfWork)
	c.ChangePlanHandler = billingCommands.NewChangePlanHandler(c.SubscriptionRepo, c.PlanRepo, c.OutboxRepo, c.UnitOfWork)
	c.GetSubscriptionHandler = billingQueries.NewGetSubscriptionHandler(c.SubscriptionRepo)
	c.ListPlansHandler = billingQueries.NewListPlansHandler(c.PlanRepo)

	// Create the webhook pipeline
	c.ProcessNotificationHandler = paymentsApplication.NewProcessNotificationHandler(
		c.Normalizer, c.Gateway, c.SeenCache, c.ApplyPaymentStatusHandler, c.ActivateHandler, logger)

	// Create outbox processor
	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = cfg.OutboxPollInterval
	processorConfig.BatchSize = cfg.OutboxBatchSize
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, logger)

	// Create the HTTP server
	webhookHandler := api.NewWebhookHandler(c.ProcessNotificationHandler, cfg.WebhookSecret, !cfg.IsDevelopment(), logger)
	subscriptionHandler := api.NewSubscriptionHandler(api.SubscriptionHandlerConfig{
		Provision:       c.ProvisionHandler,
		Pause:           c.PauseHandler,
		Reactivate:      c.ReactivateHandler,
		Cancel:          c.CancelHandler,
		ChangeFrequency: c.ChangeFrequencyHandler,
		ChangePlan:      c.ChangePlanHandler,
		GetSubscription: c.GetSubscriptionHandler,
		ListPlans:       c.ListPlansHandler,
		Logger:          logger,
	})
	orderHandler := api.NewOrderHandler(c.CreateOrderHandler, c.GetOrderHandler, logger)

	serverConfig := api.DefaultServerConfig()
	if cfg.HTTPAddr != "" {
		serverConfig.Addr = cfg.HTTPAddr
	}
	var redisPing api.Pinger
	if c.RedisClient != nil {
		redisPing = api.PingerFunc(func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		})
	}
	dbPing := api.PingerFunc(func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	c.Server = api.NewServer(serverConfig, webhookHandler, subscriptionHandler, orderHandler, dbPing, redisPing, logger)

	return c, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis client", "error", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	c.Logger.Info("container closed")
}
