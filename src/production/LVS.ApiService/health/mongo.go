package health

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	config "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Config"
)

// ConnectMongoWithTimeout creates a MongoDB connection with a timeout.
// TLS is enabled for Atlas-style URIs (mongodb+srv).
func ConnectMongoWithTimeout(cfg *config.Config, timeout time.Duration) (*mongo.Client, error) {
	if cfg.Mongo.URI == "" {
		return nil, fmt.Errorf("mongo URI is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.Mongo.URI)
	if strings.HasPrefix(cfg.Mongo.URI, "mongodb+srv://") {
		clientOptions.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	clientOptions.SetServerSelectionTimeout(timeout)
	clientOptions.SetConnectTimeout(timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("unable to ping MongoDB: %w", err)
	}

	return client, nil
}

// GetEventsCollection returns the RFID scan event collection.
func GetEventsCollection(client *mongo.Client, cfg *config.Config) *mongo.Collection {
	return client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
}
