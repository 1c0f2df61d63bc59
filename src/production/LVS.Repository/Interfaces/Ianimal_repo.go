package interfaces

import (
	"context"

	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
)

// AnimalRepository manages the animal registry keyed by RFID tag.
type AnimalRepository interface {
	// CreateAnimal inserts a new animal and fills its ID and timestamps.
	CreateAnimal(ctx context.Context, animal *lvsmodels.Animal) error

	// GetOrCreateByTag resolves an animal by tag, creating one with the
	// given placeholder name when the tag is unknown. Safe under
	// concurrent callers for the same tag: exactly one row results.
	GetOrCreateByTag(ctx context.Context, rfidTag, name string) (*lvsmodels.Animal, error)

	// GetAnimalByTag returns the animal for a tag, or (nil, nil) when
	// the tag is not registered.
	GetAnimalByTag(ctx context.Context, rfidTag string) (*lvsmodels.Animal, error)

	// GetAnimalByID returns the animal for an id, or (nil, nil).
	GetAnimalByID(ctx context.Context, id int64) (*lvsmodels.Animal, error)

	// ListAnimals returns all animals, newest first.
	ListAnimals(ctx context.Context) ([]lvsmodels.Animal, error)

	// UpdateAnimal persists mutable fields of an existing animal.
	UpdateAnimal(ctx context.Context, animal *lvsmodels.Animal) error
}
