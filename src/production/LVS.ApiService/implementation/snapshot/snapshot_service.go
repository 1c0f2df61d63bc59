package snapshot

import (
	"context"
	"time"

	lvserrors "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Errors"
	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
	interfaces "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Repository/Interfaces"
)

// Service computes the catch-up payloads a session receives when it
// joins a topic.
type Service struct {
	animalRepo  interfaces.AnimalRepository
	readingRepo interfaces.ReadingRepository
	window      time.Duration
	recentLimit int
}

// NewService creates a snapshot provider. window bounds the global
// snapshot's recency; recentLimit caps the per-animal history.
func NewService(animalRepo interfaces.AnimalRepository, readingRepo interfaces.ReadingRepository, window time.Duration, recentLimit int) *Service {
	return &Service{
		animalRepo:  animalRepo,
		readingRepo: readingRepo,
		window:      window,
		recentLimit: recentLimit,
	}
}

// GlobalSnapshot returns the latest reading per distinct tag observed
// within the recency window, optionally narrowed to one tag. The window
// is strict: tags with no reading inside it are absent, never padded
// from older history.
func (s *Service) GlobalSnapshot(ctx context.Context, filterTag string) ([]lvsmodels.LatestReading, error) {
	since := time.Now().UTC().Add(-s.window)

	latest, err := s.readingRepo.GetLatestPerTag(ctx, since, filterTag)
	if err != nil {
		return nil, lvserrors.WrapDownstream(err)
	}
	if latest == nil {
		latest = []lvsmodels.LatestReading{}
	}
	return latest, nil
}

// AnimalSnapshot returns the animal record plus its recent readings,
// newest first. A registered animal with no readings yields an empty
// history, not an error; an unregistered tag is NotFound.
func (s *Service) AnimalSnapshot(ctx context.Context, rfidTag string) (*lvsmodels.AnimalSnapshot, error) {
	animal, err := s.animalRepo.GetAnimalByTag(ctx, rfidTag)
	if err != nil {
		return nil, lvserrors.WrapDownstream(err)
	}
	if animal == nil {
		return nil, lvserrors.NewNotFoundError("animal", rfidTag)
	}

	readings, err := s.readingRepo.GetReadingsByTag(ctx, rfidTag, s.recentLimit)
	if err != nil {
		return nil, lvserrors.WrapDownstream(err)
	}

	recent := make([]lvsmodels.ReadingPoint, 0, len(readings))
	for _, r := range readings {
		recent = append(recent, lvsmodels.ReadingPoint{
			Temperature: r.Temperature,
			Humidity:    r.Humidity,
			HeartRate:   r.HeartRate,
			Timestamp:   r.Timestamp,
		})
	}

	snap := &lvsmodels.AnimalSnapshot{
		Animal:         *animal,
		RecentReadings: recent,
	}
	if len(recent) > 0 {
		snap.LatestReading = &recent[0]
	}

	return snap, nil
}
