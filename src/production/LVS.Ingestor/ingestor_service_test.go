package lvsingestor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	telemetry "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.ApiService/implementation/telemetry"
	bus "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Bus"
	config "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Config"
	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
)

type stubAnimalRepo struct{}

func (s *stubAnimalRepo) CreateAnimal(_ context.Context, animal *lvsmodels.Animal) error {
	animal.ID = 1
	return nil
}

func (s *stubAnimalRepo) GetOrCreateByTag(_ context.Context, rfidTag, name string) (*lvsmodels.Animal, error) {
	return &lvsmodels.Animal{ID: 1, RFIDTag: rfidTag, Name: name}, nil
}

func (s *stubAnimalRepo) GetAnimalByTag(context.Context, string) (*lvsmodels.Animal, error) {
	return nil, nil
}

func (s *stubAnimalRepo) GetAnimalByID(context.Context, int64) (*lvsmodels.Animal, error) {
	return nil, nil
}

func (s *stubAnimalRepo) ListAnimals(context.Context) ([]lvsmodels.Animal, error) {
	return nil, nil
}

func (s *stubAnimalRepo) UpdateAnimal(context.Context, *lvsmodels.Animal) error { return nil }

type countingReadingRepo struct {
	mu       sync.Mutex
	inserted []lvsmodels.SensorReading
}

func (r *countingReadingRepo) InsertReading(_ context.Context, reading *lvsmodels.SensorReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reading.ID = int64(len(r.inserted) + 1)
	r.inserted = append(r.inserted, *reading)
	return nil
}

func (r *countingReadingRepo) GetRecentReadings(context.Context, int) ([]lvsmodels.SensorReading, error) {
	return nil, nil
}

func (r *countingReadingRepo) GetReadingsByTag(context.Context, string, int) ([]lvsmodels.SensorReading, error) {
	return nil, nil
}

func (r *countingReadingRepo) GetLatestPerTag(context.Context, time.Time, string) ([]lvsmodels.LatestReading, error) {
	return nil, nil
}

func (r *countingReadingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inserted)
}

func (r *countingReadingRepo) last() lvsmodels.SensorReading {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inserted[len(r.inserted)-1]
}

type stubEventRepo struct{}

func (s *stubEventRepo) InsertEvent(_ context.Context, event *lvsmodels.RFIDEvent) error {
	return nil
}

func (s *stubEventRepo) ListRecentEvents(context.Context, int) ([]lvsmodels.RFIDEvent, error) {
	return nil, nil
}

type stubMessage struct {
	topic   string
	payload []byte
}

func (m stubMessage) Duplicate() bool   { return false }
func (m stubMessage) Qos() byte         { return 1 }
func (m stubMessage) Retained() bool    { return false }
func (m stubMessage) Topic() string     { return m.topic }
func (m stubMessage) MessageID() uint16 { return 0 }
func (m stubMessage) Payload() []byte   { return m.payload }
func (m stubMessage) Ack()              {}

func newTestIngestor(t *testing.T) (*Ingestor, *countingReadingRepo) {
	t.Helper()
	readings := &countingReadingRepo{}
	log := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"})
	svc := telemetry.NewService(&stubAnimalRepo{}, readings, &stubEventRepo{}, bus.New(), log)
	return New(config.MQTTConfig{Topic: "livestock/+/readings"}, svc, log), readings
}

func TestMessageDefaultsDeviceIDFromTopic(t *testing.T) {
	ing, readings := newTestIngestor(t)

	ing.wg.Add(1)
	go func() {
		defer ing.wg.Done()
		ing.worker(context.Background())
	}()
	defer ing.Stop()

	ing.onMessage(nil, stubMessage{
		topic:   "livestock/barn-7/readings",
		payload: []byte(`{"rfid_tag":"043a2b1c","temperature":38.2}`),
	})

	require.Eventually(t, func() bool { return readings.count() == 1 }, time.Second, 5*time.Millisecond)
	got := readings.last()
	assert.Equal(t, "barn-7", got.DeviceID)
	assert.Equal(t, "043a2b1c", got.RFIDTag)
}

func TestDeliveryAfterStopDoesNotPanic(t *testing.T) {
	ing, readings := newTestIngestor(t)

	ing.wg.Add(1)
	go func() {
		defer ing.wg.Done()
		ing.worker(context.Background())
	}()

	ing.onMessage(nil, stubMessage{
		topic:   "livestock/barn-7/readings",
		payload: []byte(`{"rfid_tag":"043a2b1c","temperature":38.2}`),
	})
	require.Eventually(t, func() bool { return readings.count() == 1 }, time.Second, 5*time.Millisecond)

	ing.Stop()

	// paho can invoke a handler after the disconnect grace period runs
	// out; a straggler must be buffered or dropped, never a panic.
	ing.onMessage(nil, stubMessage{
		topic:   "livestock/barn-7/readings",
		payload: []byte(`{"rfid_tag":"043a2b1c","temperature":38.9}`),
	})

	assert.Equal(t, 1, readings.count(), "worker is stopped, the straggler is not ingested")
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	ing, readings := newTestIngestor(t)

	ing.wg.Add(1)
	go func() {
		defer ing.wg.Done()
		ing.worker(context.Background())
	}()
	defer ing.Stop()

	ing.onMessage(nil, stubMessage{topic: "livestock/barn-7/readings", payload: []byte(`not json`)})
	ing.onMessage(nil, stubMessage{topic: "bad-topic", payload: []byte(`{}`)})

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, readings.count())
}
