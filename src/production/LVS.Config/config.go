package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration for the API service.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Mongo    MongoConfig    `json:"mongo"`
	MQTT     MQTTConfig     `json:"mqtt"`
	Stream   StreamConfig   `json:"stream"`
	Logging  LoggingConfig  `json:"logging"`
	CORS     CORSConfig     `json:"cors"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	MaxConns int    `json:"max_conns"`
	MinConns int    `json:"min_conns"`
}

// MongoConfig holds MongoDB configuration for the RFID event log.
type MongoConfig struct {
	URI        string `json:"uri"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

// MQTTConfig holds configuration for the optional embedded MQTT ingest
// path. Devices publish JSON readings to livestock/<device_id>/readings.
type MQTTConfig struct {
	Enabled     bool          `json:"enabled"`
	BrokerHost  string        `json:"broker_host"`
	BrokerPort  int           `json:"broker_port"`
	BrokerUser  string        `json:"broker_user"`
	BrokerPass  string        `json:"broker_pass"`
	Topic       string        `json:"topic"`
	ClientID    string        `json:"client_id"`
	KeepAlive   time.Duration `json:"keep_alive"`
	PingTimeout time.Duration `json:"ping_timeout"`
}

// StreamConfig holds live-update policy knobs.
type StreamConfig struct {
	SnapshotWindow time.Duration `json:"snapshot_window"`
	RecentLimit    int           `json:"recent_limit"`
	MailboxBuffer  int           `json:"mailbox_buffer"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	PingInterval   time.Duration `json:"ping_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout or stderr
	EnableCaller bool   `json:"enable_caller"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// BridgeConfig holds configuration for the serial bridge service.
type BridgeConfig struct {
	SerialPort    string        `json:"serial_port"`
	BaudRate      int           `json:"baud_rate"`
	DeviceID      string        `json:"device_id"`
	ReaderID      string        `json:"reader_id"`
	PostInterval  time.Duration `json:"post_interval"`
	APIServiceURL string        `json:"api_service_url"`
	Logging       LoggingConfig `json:"logging"`
}

// LoadApiConfig loads configuration for the API service from the
// environment, with an optional .env file.
func LoadApiConfig() (*Config, error) {
	// A missing .env file is fine; environment variables can be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8000"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getRequiredEnv("POSTGRES_USER"),
			Password: getRequiredEnv("POSTGRES_PASSWORD"),
			DBName:   getEnv("POSTGRES_DB", "livestock"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns: getInt("POSTGRES_MAX_CONNS", 25),
			MinConns: getInt("POSTGRES_MIN_CONNS", 5),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGODB_DB", "livestock"),
			Collection: getEnv("MONGODB_EVENTS_COLLECTION", "rfid_events"),
		},
		MQTT: MQTTConfig{
			Enabled:     getBool("MQTT_ENABLED", false),
			BrokerHost:  getEnv("BROKER_HOST", "localhost"),
			BrokerPort:  getInt("BROKER_PORT", 1883),
			BrokerUser:  getEnv("BROKER_USER", ""),
			BrokerPass:  getEnv("BROKER_PASS", ""),
			Topic:       getEnv("MQTT_TOPIC", "livestock/+/readings"),
			ClientID:    getEnv("MQTT_CLIENT_ID", "lvs-api-service"),
			KeepAlive:   getDuration("MQTT_KEEP_ALIVE", 30*time.Second),
			PingTimeout: getDuration("MQTT_PING_TIMEOUT", 10*time.Second),
		},
		Stream: StreamConfig{
			SnapshotWindow: getDuration("STREAM_SNAPSHOT_WINDOW", 5*time.Minute),
			RecentLimit:    getInt("STREAM_RECENT_LIMIT", 10),
			MailboxBuffer:  getInt("STREAM_MAILBOX_BUFFER", 64),
			WriteTimeout:   getDuration("STREAM_WRITE_TIMEOUT", 10*time.Second),
			PingInterval:   getDuration("STREAM_PING_INTERVAL", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			Format:       getEnv("LOG_FORMAT", "text"),
			Output:       getEnv("LOG_OUTPUT", "stdout"),
			EnableCaller: getBool("LOG_ENABLE_CALLER", false),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			ExposedHeaders:   getStringSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length"}),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getInt("CORS_MAX_AGE", 43200),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadBridgeConfig loads configuration for the serial bridge service.
func LoadBridgeConfig() (*BridgeConfig, error) {
	_ = godotenv.Load()

	cfg := &BridgeConfig{
		SerialPort:    getEnv("SERIAL_PORT", ""),
		BaudRate:      getInt("SERIAL_BAUD", 115200),
		DeviceID:      getEnv("BRIDGE_DEVICE_ID", "ESP32-001"),
		ReaderID:      getEnv("BRIDGE_READER_ID", "ESP32-001"),
		PostInterval:  getDuration("SENSOR_POST_INTERVAL", 5*time.Second),
		APIServiceURL: getEnv("API_SERVICE_URL", "http://127.0.0.1:8000/api/iot"),
		Logging: LoggingConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			Format:       getEnv("LOG_FORMAT", "text"),
			Output:       getEnv("LOG_OUTPUT", "stdout"),
			EnableCaller: getBool("LOG_ENABLE_CALLER", false),
		},
	}

	if cfg.APIServiceURL == "" {
		return nil, fmt.Errorf("API_SERVICE_URL is required")
	}

	return cfg, nil
}

// Validate validates the API service configuration.
func (c *Config) Validate() error {
	if c.Database.User == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if c.Stream.RecentLimit <= 0 {
		return fmt.Errorf("STREAM_RECENT_LIMIT must be positive")
	}
	if c.Stream.MailboxBuffer <= 0 {
		return fmt.Errorf("STREAM_MAILBOX_BUFFER must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the PostgreSQL connection string.
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetMQTTBrokerURL returns the MQTT broker URL.
func (c *Config) GetMQTTBrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTT.BrokerHost, c.MQTT.BrokerPort)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing required environment variable: %s", key)
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return intValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "TRUE":
		return true
	case "0", "false", "FALSE":
		return false
	}
	log.Fatalf("invalid %s: %q (expected true/false or 1/0)", key, value)
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return duration
}

func getStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
