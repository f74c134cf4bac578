// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/orderflow/internal/clock"
	"github.com/allisson/orderflow/internal/config"
	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/http"
	"github.com/allisson/orderflow/internal/metrics"
	orderHTTP "github.com/allisson/orderflow/internal/order/http"
	orderRepository "github.com/allisson/orderflow/internal/order/repository"
	orderService "github.com/allisson/orderflow/internal/order/service"
	orderUseCase "github.com/allisson/orderflow/internal/order/usecase"
	paymentRepository "github.com/allisson/orderflow/internal/payment/repository"
	paymentService "github.com/allisson/orderflow/internal/payment/service"
	paymentUseCase "github.com/allisson/orderflow/internal/payment/usecase"
	shippingRepository "github.com/allisson/orderflow/internal/shipping/repository"
	shippingService "github.com/allisson/orderflow/internal/shipping/service"
	shippingUseCase "github.com/allisson/orderflow/internal/shipping/usecase"
)

// shippingRepo must satisfy both the orchestrator's enqueue side and the
// dispatcher's consume side.
type shippingRepo interface {
	orderUseCase.ShippingEnqueuer
	shippingUseCase.ShippingRequestRepository
}

// Container holds all application dependencies and provides methods to
// access them. Components are created lazily on first access.
type Container struct {
	config *config.Config

	logger *slog.Logger
	db     *sql.DB

	txManager database.TxManager
	clock     clock.Clock

	metricsProvider  *metrics.Provider
	lifecycleMetrics metrics.LifecycleMetrics

	orderRepo    orderUseCase.OrderRepository
	eventRepo    orderUseCase.EventRepository
	paymentRepo  paymentUseCase.PaymentRepository
	shippingRepo shippingRepo

	chargeUseCase   paymentUseCase.ChargeUseCase
	orderUseCase    orderUseCase.UseCase
	orchestrator    *orderUseCase.Orchestrator
	shippingUseCase shippingUseCase.UseCase

	httpServer    *http.Server
	metricsServer *http.MetricsServer

	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	clockInit           sync.Once
	metricsProviderInit sync.Once
	lifecycleInit       sync.Once
	orderRepoInit       sync.Once
	eventRepoInit       sync.Once
	paymentRepoInit     sync.Once
	shippingRepoInit    sync.Once
	chargeUseCaseInit   sync.Once
	orderUseCaseInit    sync.Once
	shippingUseCaseInit sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// Clock returns the application time source.
func (c *Container) Clock() clock.Clock {
	c.clockInit.Do(func() {
		c.clock = clock.NewSystem()
	})
	return c.clock
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// LifecycleMetrics returns the business metrics recorder. A no-op
// implementation is used when metrics are disabled.
func (c *Container) LifecycleMetrics() (metrics.LifecycleMetrics, error) {
	c.lifecycleInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["lifecycleMetrics"] = err
			return
		}
		if provider == nil {
			c.lifecycleMetrics = metrics.NewNoOpLifecycleMetrics()
			return
		}
		lifecycle, err := metrics.NewLifecycleMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["lifecycleMetrics"] = fmt.Errorf("failed to create lifecycle metrics: %w", err)
			return
		}
		c.lifecycleMetrics = lifecycle
	})
	if storedErr, exists := c.initErrors["lifecycleMetrics"]; exists {
		return nil, storedErr
	}
	return c.lifecycleMetrics, nil
}

// OrderRepository returns the order snapshot repository.
func (c *Container) OrderRepository() (orderUseCase.OrderRepository, error) {
	c.orderRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["orderRepo"] = fmt.Errorf("failed to get database for order repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.orderRepo = orderRepository.NewMySQLOrderRepository(db)
		case "postgres":
			c.orderRepo = orderRepository.NewPostgreSQLOrderRepository(db)
		default:
			c.initErrors["orderRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["orderRepo"]; exists {
		return nil, storedErr
	}
	return c.orderRepo, nil
}

// EventRepository returns the lifecycle audit log repository.
func (c *Container) EventRepository() (orderUseCase.EventRepository, error) {
	c.eventRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["eventRepo"] = fmt.Errorf("failed to get database for event repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.eventRepo = orderRepository.NewMySQLEventRepository(db)
		case "postgres":
			c.eventRepo = orderRepository.NewPostgreSQLEventRepository(db)
		default:
			c.initErrors["eventRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["eventRepo"]; exists {
		return nil, storedErr
	}
	return c.eventRepo, nil
}

// PaymentRepository returns the payment ledger repository.
func (c *Container) PaymentRepository() (paymentUseCase.PaymentRepository, error) {
	c.paymentRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["paymentRepo"] = fmt.Errorf("failed to get database for payment repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.paymentRepo = paymentRepository.NewMySQLPaymentRepository(db)
		case "postgres":
			c.paymentRepo = paymentRepository.NewPostgreSQLPaymentRepository(db)
		default:
			c.initErrors["paymentRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["paymentRepo"]; exists {
		return nil, storedErr
	}
	return c.paymentRepo, nil
}

// ShippingRepository returns the shipping request repository.
func (c *Container) ShippingRepository() (shippingRepo, error) {
	c.shippingRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["shippingRepo"] = fmt.Errorf("failed to get database for shipping repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.shippingRepo = shippingRepository.NewMySQLShippingRepository(db)
		case "postgres":
			c.shippingRepo = shippingRepository.NewPostgreSQLShippingRepository(db)
		default:
			c.initErrors["shippingRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["shippingRepo"]; exists {
		return nil, storedErr
	}
	return c.shippingRepo, nil
}

// ChargeUseCase returns the idempotent charge protocol implementation.
func (c *Container) ChargeUseCase() (paymentUseCase.ChargeUseCase, error) {
	c.chargeUseCaseInit.Do(func() {
		paymentRepo, err := c.PaymentRepository()
		if err != nil {
			c.initErrors["chargeUseCase"] = err
			return
		}
		eventRepo, err := c.EventRepository()
		if err != nil {
			c.initErrors["chargeUseCase"] = err
			return
		}

		gateway := paymentService.NewSimulatedGateway(c.Logger())
		c.chargeUseCase = paymentUseCase.NewChargeUseCase(
			paymentRepo,
			gateway,
			eventRepo,
			c.Clock(),
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["chargeUseCase"]; exists {
		return nil, storedErr
	}
	return c.chargeUseCase, nil
}

// faultInjector builds the configured fault injector shared by lifecycle
// steps and the shipping carrier.
func (c *Container) faultInjector() *orderService.FaultInjector {
	return orderService.NewFaultInjector(c.config.FaultInjectionEnabled, c.config.FaultInjectionPeriod)
}

// stepExecutor builds the retrying step executor shared by the orchestrator
// and the shipping dispatcher.
func (c *Container) stepExecutor() (*orderService.Executor, error) {
	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, err
	}

	return orderService.NewExecutor(
		orderService.RetryPolicy{
			MaxAttempts:        c.config.ActivityMaxAttempts,
			InitialInterval:    c.config.ActivityInitialInterval,
			BackoffCoefficient: c.config.ActivityBackoffCoefficient,
			MaxInterval:        c.config.ActivityMaxInterval,
			NonRetryable:       []error{apperrors.ErrPaymentDeclined},
		},
		c.faultInjector(),
		eventRepo,
		c.Clock(),
		c.Logger(),
	), nil
}

// OrderUseCase returns the order lifecycle use case, decorated with metrics.
func (c *Container) OrderUseCase() (orderUseCase.UseCase, error) {
	c.orderUseCaseInit.Do(func() {
		orchestrator, err := c.buildOrchestrator()
		if err != nil {
			c.initErrors["orderUseCase"] = err
			return
		}
		lifecycle, err := c.LifecycleMetrics()
		if err != nil {
			c.initErrors["orderUseCase"] = err
			return
		}
		c.orchestrator = orchestrator
		c.orderUseCase = orderUseCase.NewUseCaseWithMetrics(orchestrator, lifecycle)
	})
	if storedErr, exists := c.initErrors["orderUseCase"]; exists {
		return nil, storedErr
	}
	return c.orderUseCase, nil
}

func (c *Container) buildOrchestrator() (*orderUseCase.Orchestrator, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}
	orderRepo, err := c.OrderRepository()
	if err != nil {
		return nil, err
	}
	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, err
	}
	shippingRepo, err := c.ShippingRepository()
	if err != nil {
		return nil, err
	}
	charger, err := c.ChargeUseCase()
	if err != nil {
		return nil, err
	}
	lifecycle, err := c.LifecycleMetrics()
	if err != nil {
		return nil, err
	}

	executor, err := c.stepExecutor()
	if err != nil {
		return nil, err
	}

	return orderUseCase.NewOrchestrator(
		orderUseCase.Config{
			ReviewWindow:        c.config.ReviewWindow,
			TerminalGracePeriod: c.config.TerminalGracePeriod,
		},
		txManager,
		orderRepo,
		eventRepo,
		shippingRepo,
		charger,
		orderService.NewCatalogIntake(),
		executor,
		c.Clock(),
		lifecycle,
		c.Logger(),
	), nil
}

// ShippingUseCase returns the shipping dispatcher.
func (c *Container) ShippingUseCase() (shippingUseCase.UseCase, error) {
	c.shippingUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["shippingUseCase"] = err
			return
		}
		shippingRepo, err := c.ShippingRepository()
		if err != nil {
			c.initErrors["shippingUseCase"] = err
			return
		}
		orderRepo, err := c.OrderRepository()
		if err != nil {
			c.initErrors["shippingUseCase"] = err
			return
		}
		eventRepo, err := c.EventRepository()
		if err != nil {
			c.initErrors["shippingUseCase"] = err
			return
		}

		executor, err := c.stepExecutor()
		if err != nil {
			c.initErrors["shippingUseCase"] = err
			return
		}

		carrier := shippingService.NewSimulatedCarrier(c.faultInjector(), c.Logger())
		c.shippingUseCase = shippingUseCase.NewShippingUseCase(
			shippingUseCase.Config{
				Interval:   c.config.ShippingInterval,
				BatchSize:  c.config.ShippingBatchSize,
				MaxRetries: c.config.ShippingMaxRetries,
			},
			txManager,
			shippingRepo,
			orderRepo,
			carrier,
			executor,
			eventRepo,
			c.Clock(),
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["shippingUseCase"]; exists {
		return nil, storedErr
	}
	return c.shippingUseCase, nil
}

// HTTPServer returns the API HTTP server.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		useCase, err := c.OrderUseCase()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		handler := orderHTTP.NewOrderHandler(useCase, c.Logger())
		c.httpServer = http.NewServer(c.config, db, handler, provider, c.Logger())
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.orchestrator != nil {
		if err := c.orchestrator.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("orchestrator shutdown: %w", err))
		}
	}

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
