package implementation

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
)

// MongoEventRepository stores RFID scan events in a MongoDB collection.
// The event log is append-mostly and schema-light, so it lives beside
// the relational store rather than in it.
type MongoEventRepository struct {
	collection *mongo.Collection
}

func NewMongoEventRepository(collection *mongo.Collection) *MongoEventRepository {
	return &MongoEventRepository{collection: collection}
}

func (r *MongoEventRepository) InsertEvent(ctx context.Context, event *lvsmodels.RFIDEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid
	}
	return nil
}

func (r *MongoEventRepository) ListRecentEvents(ctx context.Context, limit int) ([]lvsmodels.RFIDEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []lvsmodels.RFIDEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}
