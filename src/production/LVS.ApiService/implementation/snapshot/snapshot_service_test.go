package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lvserrors "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Errors"
	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
)

type stubAnimalRepo struct {
	byTag map[string]*lvsmodels.Animal
}

func (s *stubAnimalRepo) CreateAnimal(context.Context, *lvsmodels.Animal) error { return nil }
func (s *stubAnimalRepo) GetOrCreateByTag(_ context.Context, tag, _ string) (*lvsmodels.Animal, error) {
	return s.byTag[tag], nil
}
func (s *stubAnimalRepo) GetAnimalByTag(_ context.Context, tag string) (*lvsmodels.Animal, error) {
	return s.byTag[tag], nil
}
func (s *stubAnimalRepo) GetAnimalByID(context.Context, int64) (*lvsmodels.Animal, error) {
	return nil, nil
}
func (s *stubAnimalRepo) ListAnimals(context.Context) ([]lvsmodels.Animal, error) { return nil, nil }
func (s *stubAnimalRepo) UpdateAnimal(context.Context, *lvsmodels.Animal) error   { return nil }

type stubReadingRepo struct {
	byTag  map[string][]lvsmodels.SensorReading
	latest []lvsmodels.LatestReading

	gotSince  time.Time
	gotFilter string
}

func (s *stubReadingRepo) InsertReading(context.Context, *lvsmodels.SensorReading) error { return nil }
func (s *stubReadingRepo) GetRecentReadings(context.Context, int) ([]lvsmodels.SensorReading, error) {
	return nil, nil
}
func (s *stubReadingRepo) GetReadingsByTag(_ context.Context, tag string, limit int) ([]lvsmodels.SensorReading, error) {
	readings := s.byTag[tag]
	if len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}
func (s *stubReadingRepo) GetLatestPerTag(_ context.Context, since time.Time, filterTag string) ([]lvsmodels.LatestReading, error) {
	s.gotSince = since
	s.gotFilter = filterTag
	return s.latest, nil
}

func f64(v float64) *float64 { return &v }

func TestGlobalSnapshotAppliesWindowAndFilter(t *testing.T) {
	readings := &stubReadingRepo{
		latest: []lvsmodels.LatestReading{{RFIDTag: "043a2b1c", Temperature: f64(36.5)}},
	}
	svc := NewService(&stubAnimalRepo{}, readings, 5*time.Minute, 10)

	got, err := svc.GlobalSnapshot(context.Background(), "043a2b1c")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "043a2b1c", readings.gotFilter)

	// The since bound must be roughly now minus the window.
	expected := time.Now().UTC().Add(-5 * time.Minute)
	assert.WithinDuration(t, expected, readings.gotSince, 2*time.Second)
}

func TestGlobalSnapshotEmptyIsNotNil(t *testing.T) {
	svc := NewService(&stubAnimalRepo{}, &stubReadingRepo{}, 5*time.Minute, 10)

	got, err := svc.GlobalSnapshot(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, got, "an empty snapshot must serialize as [], not null")
	assert.Empty(t, got)
}

func TestAnimalSnapshotUnknownTagIsNotFound(t *testing.T) {
	svc := NewService(&stubAnimalRepo{byTag: map[string]*lvsmodels.Animal{}}, &stubReadingRepo{}, 5*time.Minute, 10)

	_, err := svc.AnimalSnapshot(context.Background(), "deadbeef")
	require.Error(t, err)
	assert.True(t, lvserrors.IsNotFound(err))
}

func TestAnimalSnapshotNoReadingsYet(t *testing.T) {
	animals := &stubAnimalRepo{byTag: map[string]*lvsmodels.Animal{
		"043a2b1c": {ID: 7, RFIDTag: "043a2b1c", Name: "Bessie"},
	}}
	svc := NewService(animals, &stubReadingRepo{byTag: map[string][]lvsmodels.SensorReading{}}, 5*time.Minute, 10)

	snap, err := svc.AnimalSnapshot(context.Background(), "043a2b1c")
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.Animal.ID)
	assert.Nil(t, snap.LatestReading)
	assert.Empty(t, snap.RecentReadings)
}

func TestAnimalSnapshotLatestIsNewestRecent(t *testing.T) {
	now := time.Now().UTC()
	animals := &stubAnimalRepo{byTag: map[string]*lvsmodels.Animal{
		"043a2b1c": {ID: 7, RFIDTag: "043a2b1c"},
	}}
	readings := &stubReadingRepo{byTag: map[string][]lvsmodels.SensorReading{
		"043a2b1c": {
			{RFIDTag: "043a2b1c", Temperature: f64(39.0), Timestamp: now},
			{RFIDTag: "043a2b1c", Temperature: f64(38.0), Timestamp: now.Add(-time.Minute)},
		},
	}}
	svc := NewService(animals, readings, 5*time.Minute, 10)

	snap, err := svc.AnimalSnapshot(context.Background(), "043a2b1c")
	require.NoError(t, err)
	require.Len(t, snap.RecentReadings, 2)
	require.NotNil(t, snap.LatestReading)
	assert.Equal(t, 39.0, *snap.LatestReading.Temperature)
	assert.Equal(t, now, snap.LatestReading.Timestamp)
}

func TestAnimalSnapshotHonorsRecentLimit(t *testing.T) {
	animals := &stubAnimalRepo{byTag: map[string]*lvsmodels.Animal{"t": {ID: 1, RFIDTag: "t"}}}
	var history []lvsmodels.SensorReading
	for i := 0; i < 25; i++ {
		history = append(history, lvsmodels.SensorReading{RFIDTag: "t", Temperature: f64(38.0)})
	}
	readings := &stubReadingRepo{byTag: map[string][]lvsmodels.SensorReading{"t": history}}
	svc := NewService(animals, readings, 5*time.Minute, 10)

	snap, err := svc.AnimalSnapshot(context.Background(), "t")
	require.NoError(t, err)
	assert.Len(t, snap.RecentReadings, 10)
}
