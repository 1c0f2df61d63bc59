package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.ApiService/health"
	config "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Config"
	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
)

// Container manages dependencies and their lifecycle for the API service.
type Container struct {
	config *config.Config
	logger *logger.Logger
	db     *sql.DB
	mongo  *mongo.Client

	healthChecker   *health.HealthChecker
	databaseManager *health.DatabaseManager

	mu sync.Mutex

	cleanupFuncs []func() error
}

// BridgeContainer manages dependencies for the serial bridge service.
type BridgeContainer struct {
	config *config.BridgeConfig
	logger *logger.Logger
}

// NewApiContainer creates a new container for the API service.
func NewApiContainer() (*Container, error) {
	cfg, err := config.LoadApiConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load API configuration: %w", err)
	}

	log := logger.NewLogger(&cfg.Logging)

	return &Container{
		config: cfg,
		logger: log,
	}, nil
}

// NewBridgeContainer creates a new container for the serial bridge service.
func NewBridgeContainer() (*BridgeContainer, error) {
	cfg, err := config.LoadBridgeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load bridge configuration: %w", err)
	}

	return &BridgeContainer{
		config: cfg,
		logger: logger.NewLogger(&cfg.Logging),
	}, nil
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetConfig returns the bridge configuration
func (c *BridgeContainer) GetConfig() *config.BridgeConfig {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

// GetLogger returns the logger
func (c *BridgeContainer) GetLogger() *logger.Logger {
	return c.logger
}

// GetDatabase returns the PostgreSQL connection, connecting on first use.
func (c *Container) GetDatabase() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		db, err := health.ConnectPostgresWithTimeout(c.config, 20*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db
	}

	return c.db, nil
}

// GetMongoClient returns the MongoDB client, connecting on first use.
func (c *Container) GetMongoClient() (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mongo == nil {
		client, err := health.ConnectMongoWithTimeout(c.config, 20*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		c.mongo = client
	}

	return c.mongo, nil
}

// GetEventsCollection returns the RFID scan event collection.
func (c *Container) GetEventsCollection() (*mongo.Collection, error) {
	client, err := c.GetMongoClient()
	if err != nil {
		return nil, err
	}
	return health.GetEventsCollection(client, c.config), nil
}

// GetHealthChecker returns the health checker over both stores.
func (c *Container) GetHealthChecker() (*health.HealthChecker, error) {
	db, err := c.GetDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for health checker: %w", err)
	}
	mongoClient, err := c.GetMongoClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get mongo client for health checker: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.healthChecker == nil {
		c.healthChecker = health.NewHealthChecker(db, mongoClient)
	}

	return c.healthChecker, nil
}

// GetDatabaseManager returns the schema manager.
func (c *Container) GetDatabaseManager() (*health.DatabaseManager, error) {
	db, err := c.GetDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for database manager: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.databaseManager == nil {
		c.databaseManager = health.NewDatabaseManager(db)
	}

	return c.databaseManager, nil
}

// InitializeDatabase connects and creates tables.
func (c *Container) InitializeDatabase(ctx context.Context) error {
	dbManager, err := c.GetDatabaseManager()
	if err != nil {
		return fmt.Errorf("failed to get database manager: %w", err)
	}

	if err := dbManager.CreateTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	c.logger.Info("Database initialized successfully")
	return nil
}

// Shutdown gracefully shuts down the container and all its dependencies.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	// Execute cleanup functions in reverse order
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}

	if c.mongo != nil {
		if err := c.mongo.Disconnect(ctx); err != nil {
			c.logger.ErrorWithError(err, "Error closing MongoDB connection")
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.ErrorWithError(err, "Error closing database connection")
		}
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// Shutdown gracefully shuts down the bridge container.
func (c *BridgeContainer) Shutdown(ctx context.Context) error {
	c.logger.Info("Bridge container shutdown complete")
	return nil
}

// AddCleanupFunc adds a cleanup function run during Shutdown.
func (c *Container) AddCleanupFunc(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}
