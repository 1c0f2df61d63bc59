package lvsmodels

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RFIDEvent logs a single scan of a tag at a reader gate. Unknown tags
// are logged with a nil animal link; scanning never provisions animals.
type RFIDEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RFIDTag    string             `bson:"rfid_tag" json:"rfid_tag"`
	AnimalID   *int64             `bson:"animal_id,omitempty" json:"animal_id"`
	AnimalName string             `bson:"animal_name,omitempty" json:"animal_name,omitempty"`
	ReaderID   string             `bson:"reader_id,omitempty" json:"reader_id,omitempty"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}
