package lvsmodels

import "time"

// Sensor type tags recorded on each reading.
const (
	SensorTypeTemperature = "TEMP"
	SensorTypeHumidity    = "HUMID"
	SensorTypeHeartRate   = "HR"
	SensorTypeCombined    = "COMBINED"
)

// SensorReading is one timestamped sensor sample linked to an animal.
// Any subset of the three sensor fields may be present, but never none.
type SensorReading struct {
	ID            int64     `json:"id" db:"id"`
	AnimalID      int64     `json:"animal_id" db:"animal_id"`
	AnimalName    string    `json:"animal_name,omitempty" db:"-"`
	AnimalSpecies string    `json:"animal_species,omitempty" db:"-"`
	RFIDTag       string    `json:"rfid_tag" db:"rfid_tag"`
	Temperature   *float64  `json:"temperature" db:"temperature"`
	Humidity      *float64  `json:"humidity" db:"humidity"`
	HeartRate     *int      `json:"heart_rate" db:"heart_rate"`
	SensorType    string    `json:"sensor_type" db:"sensor_type"`
	DeviceID      string    `json:"device_id,omitempty" db:"device_id"`
	Timestamp     time.Time `json:"timestamp" db:"ts"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// HasSensorData reports whether at least one sensor field is populated.
func (r *SensorReading) HasSensorData() bool {
	return r.Temperature != nil || r.Humidity != nil || r.HeartRate != nil
}

// LatestReading is one entry of the global snapshot: the most recent
// reading observed for a tag, enriched with the animal's identity when
// the tag is provisioned.
type LatestReading struct {
	RFIDTag       string    `json:"rfid_tag"`
	AnimalName    *string   `json:"animal_name"`
	AnimalSpecies *string   `json:"animal_species"`
	Temperature   *float64  `json:"temperature"`
	Humidity      *float64  `json:"humidity"`
	HeartRate     *int      `json:"heart_rate"`
	Timestamp     time.Time `json:"timestamp"`
	DeviceID      string    `json:"device_id"`
}

// ReadingPoint is the compact per-animal history entry used in animal
// snapshots.
type ReadingPoint struct {
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	HeartRate   *int      `json:"heart_rate"`
	Timestamp   time.Time `json:"timestamp"`
}

// AnimalSnapshot is the catch-up payload for an animal-scoped session:
// the animal record, its latest reading and its recent history,
// newest first.
type AnimalSnapshot struct {
	Animal         Animal         `json:"animal"`
	LatestReading  *ReadingPoint  `json:"latest_reading"`
	RecentReadings []ReadingPoint `json:"recent_readings"`
}
