package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	config "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Config"
)

// HealthChecker probes both datastores.
type HealthChecker struct {
	db    *sql.DB
	mongo *mongo.Client
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(db *sql.DB, mongoClient *mongo.Client) *HealthChecker {
	return &HealthChecker{db: db, mongo: mongoClient}
}

// CheckPostgres verifies the PostgreSQL connection with a round trip.
func (h *HealthChecker) CheckPostgres(ctx context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := h.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	return nil
}

// CheckMongo verifies the MongoDB connection.
func (h *HealthChecker) CheckMongo(ctx context.Context) error {
	if h.mongo == nil {
		return fmt.Errorf("mongo client is nil")
	}
	return h.mongo.Ping(ctx, readpref.Primary())
}

// GetHealthStatus returns the current health status of both stores.
func (h *HealthChecker) GetHealthStatus(ctx context.Context) map[string]interface{} {
	checks := make(map[string]interface{})
	overall := "ok"

	if err := h.CheckPostgres(ctx); err != nil {
		checks["postgres"] = map[string]interface{}{"status": "error", "error": err.Error()}
		overall = "degraded"
	} else {
		checks["postgres"] = map[string]interface{}{"status": "ok"}
	}

	if err := h.CheckMongo(ctx); err != nil {
		checks["mongodb"] = map[string]interface{}{"status": "error", "error": err.Error()}
		overall = "degraded"
	} else {
		checks["mongodb"] = map[string]interface{}{"status": "ok"}
	}

	return map[string]interface{}{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}
}

// ConnectPostgresWithTimeout creates a PostgreSQL connection with a
// timeout and pool settings from configuration.
func ConnectPostgresWithTimeout(cfg *config.Config, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open PostgreSQL connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// DatabaseManager handles schema management for the relational store.
type DatabaseManager struct {
	db *sql.DB
}

// NewDatabaseManager creates a new database manager.
func NewDatabaseManager(db *sql.DB) *DatabaseManager {
	return &DatabaseManager{db: db}
}

// CreateTables creates the required tables and indexes if they don't exist.
func (dm *DatabaseManager) CreateTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS animals (
			id            BIGSERIAL PRIMARY KEY,
			rfid_tag      TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL DEFAULT '',
			species       TEXT NOT NULL DEFAULT '',
			breed         TEXT NOT NULL DEFAULT '',
			date_of_birth DATE,
			weight_kg     DOUBLE PRECISION,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS readings (
			id          BIGSERIAL PRIMARY KEY,
			animal_id   BIGINT NOT NULL REFERENCES animals(id),
			rfid_tag    TEXT NOT NULL,
			temperature DOUBLE PRECISION,
			humidity    DOUBLE PRECISION,
			heart_rate  INTEGER,
			sensor_type TEXT NOT NULL DEFAULT 'COMBINED',
			device_id   TEXT NOT NULL DEFAULT '',
			ts          TIMESTAMPTZ NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_tag_ts ON readings (rfid_tag, ts DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_animal_ts ON readings (animal_id, ts DESC)`,
	}

	for _, stmt := range statements {
		if _, err := dm.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}
