package interfaces

import (
	"context"
	"time"

	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
)

// ReadingRepository stores and queries sensor readings.
type ReadingRepository interface {
	// InsertReading persists a reading and fills its ID and CreatedAt.
	InsertReading(ctx context.Context, reading *lvsmodels.SensorReading) error

	// GetRecentReadings returns the most recent readings across all
	// animals, newest first, enriched with animal name/species.
	GetRecentReadings(ctx context.Context, limit int) ([]lvsmodels.SensorReading, error)

	// GetReadingsByTag returns the most recent readings for one tag,
	// newest first.
	GetReadingsByTag(ctx context.Context, rfidTag string, limit int) ([]lvsmodels.SensorReading, error)

	// GetLatestPerTag returns the most recent reading per distinct tag
	// with a timestamp at or after since. filterTag narrows the result
	// to a single tag when non-empty.
	GetLatestPerTag(ctx context.Context, since time.Time, filterTag string) ([]lvsmodels.LatestReading, error)
}
