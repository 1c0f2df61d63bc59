package implementation

import (
	"context"
	"database/sql"
	"time"

	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
)

type PostgresReadingRepository struct {
	db *sql.DB
}

func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{db: db}
}

func (r *PostgresReadingRepository) InsertReading(ctx context.Context, reading *lvsmodels.SensorReading) error {
	query := `
		INSERT INTO readings (animal_id, rfid_tag, temperature, humidity, heart_rate, sensor_type, device_id, ts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	return r.db.QueryRowContext(ctx, query,
		reading.AnimalID, reading.RFIDTag,
		reading.Temperature, reading.Humidity, reading.HeartRate,
		reading.SensorType, reading.DeviceID, reading.Timestamp, time.Now().UTC(),
	).Scan(&reading.ID, &reading.CreatedAt)
}

func (r *PostgresReadingRepository) GetRecentReadings(ctx context.Context, limit int) ([]lvsmodels.SensorReading, error) {
	query := `
		SELECT r.id, r.animal_id, a.name, a.species, r.rfid_tag,
		       r.temperature, r.humidity, r.heart_rate, r.sensor_type, r.device_id, r.ts, r.created_at
		FROM readings r
		LEFT JOIN animals a ON a.id = r.animal_id
		ORDER BY r.ts DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

func (r *PostgresReadingRepository) GetReadingsByTag(ctx context.Context, rfidTag string, limit int) ([]lvsmodels.SensorReading, error) {
	query := `
		SELECT r.id, r.animal_id, a.name, a.species, r.rfid_tag,
		       r.temperature, r.humidity, r.heart_rate, r.sensor_type, r.device_id, r.ts, r.created_at
		FROM readings r
		LEFT JOIN animals a ON a.id = r.animal_id
		WHERE r.rfid_tag = $1
		ORDER BY r.ts DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, rfidTag, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanReadings(rows)
}

func (r *PostgresReadingRepository) GetLatestPerTag(ctx context.Context, since time.Time, filterTag string) ([]lvsmodels.LatestReading, error) {
	query := `
		SELECT DISTINCT ON (r.rfid_tag)
		       r.rfid_tag, a.name, a.species,
		       r.temperature, r.humidity, r.heart_rate, r.ts, r.device_id
		FROM readings r
		LEFT JOIN animals a ON a.id = r.animal_id
		WHERE r.ts >= $1 AND ($2 = '' OR r.rfid_tag = $2)
		ORDER BY r.rfid_tag, r.ts DESC
	`

	rows, err := r.db.QueryContext(ctx, query, since, filterTag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var latest []lvsmodels.LatestReading
	for rows.Next() {
		var l lvsmodels.LatestReading
		var name, species sql.NullString
		if err := rows.Scan(&l.RFIDTag, &name, &species,
			&l.Temperature, &l.Humidity, &l.HeartRate, &l.Timestamp, &l.DeviceID); err != nil {
			return nil, err
		}
		if name.Valid {
			l.AnimalName = &name.String
		}
		if species.Valid {
			l.AnimalSpecies = &species.String
		}
		latest = append(latest, l)
	}

	return latest, rows.Err()
}

func (r *PostgresReadingRepository) scanReadings(rows *sql.Rows) ([]lvsmodels.SensorReading, error) {
	var readings []lvsmodels.SensorReading

	for rows.Next() {
		var reading lvsmodels.SensorReading
		var name, species sql.NullString

		if err := rows.Scan(&reading.ID, &reading.AnimalID, &name, &species, &reading.RFIDTag,
			&reading.Temperature, &reading.Humidity, &reading.HeartRate,
			&reading.SensorType, &reading.DeviceID, &reading.Timestamp, &reading.CreatedAt); err != nil {
			return nil, err
		}

		reading.AnimalName = name.String
		reading.AnimalSpecies = species.String
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}
