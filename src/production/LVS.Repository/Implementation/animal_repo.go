package implementation

import (
	"context"
	"database/sql"
	"time"

	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
)

type PostgresAnimalRepository struct {
	db *sql.DB
}

func NewPostgresAnimalRepository(db *sql.DB) *PostgresAnimalRepository {
	return &PostgresAnimalRepository{db: db}
}

const animalColumns = `id, rfid_tag, name, species, breed, date_of_birth, weight_kg, created_at, updated_at`

func (r *PostgresAnimalRepository) CreateAnimal(ctx context.Context, animal *lvsmodels.Animal) error {
	query := `
		INSERT INTO animals (rfid_tag, name, species, breed, date_of_birth, weight_kg, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id, created_at, updated_at
	`

	now := time.Now().UTC()
	return r.db.QueryRowContext(ctx, query,
		animal.RFIDTag, animal.Name, animal.Species, animal.Breed,
		animal.DateOfBirth, animal.WeightKg, now,
	).Scan(&animal.ID, &animal.CreatedAt, &animal.UpdatedAt)
}

func (r *PostgresAnimalRepository) GetOrCreateByTag(ctx context.Context, rfidTag, name string) (*lvsmodels.Animal, error) {
	// Insert-if-absent then select: ON CONFLICT DO NOTHING makes the
	// create race-free when two readings for a new tag arrive together.
	insert := `
		INSERT INTO animals (rfid_tag, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (rfid_tag) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, insert, rfidTag, name, time.Now().UTC()); err != nil {
		return nil, err
	}

	return r.GetAnimalByTag(ctx, rfidTag)
}

func (r *PostgresAnimalRepository) GetAnimalByTag(ctx context.Context, rfidTag string) (*lvsmodels.Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals WHERE rfid_tag = $1`
	return r.scanAnimal(r.db.QueryRowContext(ctx, query, rfidTag))
}

func (r *PostgresAnimalRepository) GetAnimalByID(ctx context.Context, id int64) (*lvsmodels.Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals WHERE id = $1`
	return r.scanAnimal(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresAnimalRepository) ListAnimals(ctx context.Context) ([]lvsmodels.Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var animals []lvsmodels.Animal
	for rows.Next() {
		var a lvsmodels.Animal
		if err := rows.Scan(&a.ID, &a.RFIDTag, &a.Name, &a.Species, &a.Breed,
			&a.DateOfBirth, &a.WeightKg, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		animals = append(animals, a)
	}

	return animals, rows.Err()
}

func (r *PostgresAnimalRepository) UpdateAnimal(ctx context.Context, animal *lvsmodels.Animal) error {
	query := `
		UPDATE animals
		SET name = $2, species = $3, breed = $4, date_of_birth = $5, weight_kg = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at
	`

	return r.db.QueryRowContext(ctx, query,
		animal.ID, animal.Name, animal.Species, animal.Breed,
		animal.DateOfBirth, animal.WeightKg, time.Now().UTC(),
	).Scan(&animal.UpdatedAt)
}

func (r *PostgresAnimalRepository) scanAnimal(row *sql.Row) (*lvsmodels.Animal, error) {
	var a lvsmodels.Animal
	err := row.Scan(&a.ID, &a.RFIDTag, &a.Name, &a.Species, &a.Breed,
		&a.DateOfBirth, &a.WeightKg, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
