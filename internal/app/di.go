// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/rfgrow/vozzysmart1-sub008/internal/auth"
	"github.com/rfgrow/vozzysmart1-sub008/internal/config"
	"github.com/rfgrow/vozzysmart1-sub008/internal/database"
	flowsHTTP "github.com/rfgrow/vozzysmart1-sub008/internal/flows/http"
	flowsRepository "github.com/rfgrow/vozzysmart1-sub008/internal/flows/repository"
	flowsService "github.com/rfgrow/vozzysmart1-sub008/internal/flows/service"
	flowsUsecase "github.com/rfgrow/vozzysmart1-sub008/internal/flows/usecase"
	internalHTTP "github.com/rfgrow/vozzysmart1-sub008/internal/http"
	"github.com/rfgrow/vozzysmart1-sub008/internal/metrics"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Services
	secretService auth.SecretService
	keyWrapper    flowsUsecase.KeyWrapper
	metaClient    *flowsService.MetaClient
	codec         *flowsService.ProtocolCodec

	// Repositories
	keyStore flowsUsecase.KeyStore

	// Use Cases
	handlerRegistry *flowsUsecase.HandlerRegistry
	keyLifecycle    flowsUsecase.KeyLifecycleUseCase
	exchangeUseCase flowsUsecase.ExchangeUseCase

	// Observability
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Servers
	httpServer    *internalHTTP.Server
	metricsServer *internalHTTP.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	keyWrapperInit      sync.Once
	keyStoreInit        sync.Once
	keyLifecycleInit    sync.Once
	exchangeUseCaseInit sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:          cfg,
		secretService:   auth.NewSecretService(),
		codec:           flowsService.NewProtocolCodec(),
		handlerRegistry: flowsUsecase.NewHandlerRegistry(),
		initErrors:      make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// SecretService returns the admin credential service.
func (c *Container) SecretService() auth.SecretService {
	return c.secretService
}

// HandlerRegistry returns the flow handler registry. Business flow handlers
// are registered here before the server starts.
func (c *Container) HandlerRegistry() *flowsUsecase.HandlerRegistry {
	return c.handlerRegistry
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
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
// It requires a database connection to be initialized first.
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

// KeyWrapper returns the KMS keeper for wrapping the stored private key, or
// nil when KMS_KEY_URI is not configured.
func (c *Container) KeyWrapper() (flowsUsecase.KeyWrapper, error) {
	c.keyWrapperInit.Do(func() {
		if c.config.KMSKeyURI == "" {
			return
		}
		keeper, err := flowsService.OpenKeyWrapper(context.Background(), c.config.KMSKeyURI)
		if err != nil {
			c.initErrors["keyWrapper"] = err
			return
		}
		c.keyWrapper = keeper
	})
	if storedErr, exists := c.initErrors["keyWrapper"]; exists {
		return nil, storedErr
	}
	return c.keyWrapper, nil
}

// KeyStore returns the key pair repository for the configured database driver.
func (c *Container) KeyStore() (flowsUsecase.KeyStore, error) {
	c.keyStoreInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["keyStore"] = fmt.Errorf("failed to get database for key store: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.keyStore = flowsRepository.NewMySQLKeyRepository(db)
		case "postgres":
			c.keyStore = flowsRepository.NewPostgreSQLKeyRepository(db)
		default:
			c.initErrors["keyStore"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["keyStore"]; exists {
		return nil, storedErr
	}
	return c.keyStore, nil
}

// MetaClient returns the counterpart configuration API client.
func (c *Container) MetaClient() *flowsService.MetaClient {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metaClient == nil {
		c.metaClient = flowsService.NewMetaClient(
			&http.Client{Timeout: c.config.MetaSyncTimeout},
			c.config.MetaGraphBaseURL,
			c.config.MetaPhoneNumberID,
			c.config.MetaAccessToken,
		)
	}
	return c.metaClient
}

// KeyLifecycleUseCase returns the key lifecycle use case instance.
func (c *Container) KeyLifecycleUseCase() (flowsUsecase.KeyLifecycleUseCase, error) {
	c.keyLifecycleInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["keyLifecycle"] = fmt.Errorf("failed to get tx manager for key lifecycle: %w", err)
			return
		}

		keyStore, err := c.KeyStore()
		if err != nil {
			c.initErrors["keyLifecycle"] = fmt.Errorf("failed to get key store for key lifecycle: %w", err)
			return
		}

		keyWrapper, err := c.KeyWrapper()
		if err != nil {
			c.initErrors["keyLifecycle"] = fmt.Errorf("failed to get key wrapper for key lifecycle: %w", err)
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["keyLifecycle"] = fmt.Errorf("failed to get metrics for key lifecycle: %w", err)
			return
		}

		lifecycle := flowsUsecase.NewKeyLifecycleUseCase(
			txManager,
			keyStore,
			c.MetaClient(),
			keyWrapper,
			c.config.RotationCooldown,
			c.config.MetaSyncTimeout,
			c.Logger(),
		)
		c.keyLifecycle = flowsUsecase.NewKeyLifecycleMetricsDecorator(lifecycle, businessMetrics)
	})
	if storedErr, exists := c.initErrors["keyLifecycle"]; exists {
		return nil, storedErr
	}
	return c.keyLifecycle, nil
}

// ExchangeUseCase returns the data-exchange use case instance.
func (c *Container) ExchangeUseCase() (flowsUsecase.ExchangeUseCase, error) {
	c.exchangeUseCaseInit.Do(func() {
		keyLifecycle, err := c.KeyLifecycleUseCase()
		if err != nil {
			c.initErrors["exchangeUseCase"] = fmt.Errorf("failed to get key lifecycle for exchange use case: %w", err)
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["exchangeUseCase"] = fmt.Errorf("failed to get metrics for exchange use case: %w", err)
			return
		}

		exchange := flowsUsecase.NewExchangeUseCase(
			c.codec,
			keyLifecycle,
			c.handlerRegistry,
			c.Logger(),
		)
		c.exchangeUseCase = flowsUsecase.NewExchangeMetricsDecorator(exchange, businessMetrics)
	})
	if storedErr, exists := c.initErrors["exchangeUseCase"]; exists {
		return nil, storedErr
	}
	return c.exchangeUseCase, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// used when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}

		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*internalHTTP.Server, error) {
	c.httpServerInit.Do(func() {
		exchangeUseCase, err := c.ExchangeUseCase()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get exchange use case for http server: %w", err)
			return
		}

		keyLifecycle, err := c.KeyLifecycleUseCase()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get key lifecycle for http server: %w", err)
			return
		}

		db, err := c.DB()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get database for http server: %w", err)
			return
		}

		logger := c.Logger()
		c.httpServer = internalHTTP.NewServer(
			c.config,
			logger,
			flowsHTTP.NewExchangeHandler(exchangeUseCase, logger),
			flowsHTTP.NewKeyAdminHandler(keyLifecycle, logger),
			c.secretService,
			db.PingContext,
		)
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*internalHTTP.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = internalHTTP.NewMetricsServer(
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

// SelfTestProbe returns a probe targeting the configured endpoint URL.
func (c *Container) SelfTestProbe() *flowsService.SelfTestProbe {
	return flowsService.NewSelfTestProbe(
		&http.Client{Timeout: c.config.MetaSyncTimeout},
		c.config.FlowEndpointURL,
	)
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

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
