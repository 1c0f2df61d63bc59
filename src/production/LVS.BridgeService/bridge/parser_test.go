package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Config"
	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
	api_models "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models/api"
)

type recordingSink struct {
	readings []api_models.CreateReadingRequest
	scans    []api_models.CreateScanEventRequest
}

func (r *recordingSink) PostReading(_ context.Context, req api_models.CreateReadingRequest) error {
	r.readings = append(r.readings, req)
	return nil
}

func (r *recordingSink) PostScanEvent(_ context.Context, req api_models.CreateScanEventRequest) error {
	r.scans = append(r.scans, req)
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestParser() (*Parser, *recordingSink, *fakeClock) {
	sink := &recordingSink{}
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	log := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"})
	p := NewParser("ESP32-001", "ESP32-001", 5*time.Second, sink, log, clock.now)
	return p, sink, clock
}

func TestRFIDDetectionNormalizesUIDAndPostsScan(t *testing.T) {
	p, sink, _ := newTestParser()
	ctx := context.Background()

	p.HandleLine(ctx, ">>> RFID Card Detected! UID:  04 3A 2B 1C")

	require.Len(t, sink.scans, 1)
	assert.Equal(t, "043a2b1c", sink.scans[0].RFIDTag)
	assert.Equal(t, "ESP32-001", sink.scans[0].ReaderID)
	assert.Empty(t, sink.readings, "detection alone must not emit a reading")
}

func TestFirstEmissionCarriesAccumulatedFields(t *testing.T) {
	p, sink, clock := newTestParser()
	ctx := context.Background()

	// Detection opens a full debounce window, so the burst of sensor
	// lines right after a scan is held back and goes out together.
	p.HandleLine(ctx, ">>> RFID Card Detected! UID:  04 3A 2B 1C")
	p.HandleLine(ctx, "Temperature: 36.5 °C / 97.7 °F")
	p.HandleLine(ctx, "Humidity: 65.0 %")
	require.Empty(t, sink.readings)

	clock.advance(6 * time.Second)
	p.HandleLine(ctx, "IR=1083 BPM: 72.0")

	require.Len(t, sink.readings, 1)
	got := sink.readings[0]
	assert.Equal(t, "043a2b1c", got.RFIDTag)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 36.5, *got.Temperature)
	require.NotNil(t, got.Humidity)
	assert.Equal(t, 65.0, *got.Humidity)
	assert.Nil(t, got.HeartRate)
	assert.Equal(t, "ESP32-001", got.DeviceID)
}

func TestPartialFieldEmission(t *testing.T) {
	p, sink, clock := newTestParser()
	ctx := context.Background()

	p.HandleLine(ctx, ">>> RFID Card Detected! UID:  04 3A 2B 1C")
	clock.advance(6 * time.Second)
	p.HandleLine(ctx, "Temperature: 36.5 °C / 97.7 °F")

	// Temperature alone is enough once the window has elapsed; the
	// parser does not wait for all three sensors.
	require.Len(t, sink.readings, 1)
	got := sink.readings[0]
	assert.Equal(t, "043a2b1c", got.RFIDTag)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 36.5, *got.Temperature)
	assert.Nil(t, got.Humidity)
	assert.Nil(t, got.HeartRate)
}

func TestDebounceAccumulatesFields(t *testing.T) {
	p, sink, clock := newTestParser()
	ctx := context.Background()

	p.HandleLine(ctx, ">>> RFID Card Detected! UID:  04 3A 2B 1C")
	clock.advance(6 * time.Second)
	p.HandleLine(ctx, "Temperature: 36.5 °C / 97.7 °F")
	require.Len(t, sink.readings, 1)

	// Humidity arrives inside the debounce window: no second emit yet.
	p.HandleLine(ctx, "Humidity: 65.0 %")
	require.Len(t, sink.readings, 1)

	// Past the window the accumulated state goes out together.
	clock.advance(6 * time.Second)
	p.HandleLine(ctx, "BPM: 72.0 | Avg BPM: 70")

	require.Len(t, sink.readings, 2)
	got := sink.readings[1]
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 36.5, *got.Temperature)
	require.NotNil(t, got.Humidity)
	assert.Equal(t, 65.0, *got.Humidity)
	require.NotNil(t, got.HeartRate)
	assert.Equal(t, 70, *got.HeartRate)
}

func TestNoEmitWithoutTag(t *testing.T) {
	p, sink, clock := newTestParser()
	ctx := context.Background()

	p.HandleLine(ctx, "Temperature: 36.5 °C / 97.7 °F")
	clock.advance(time.Minute)
	p.HandleLine(ctx, "Humidity: 65.0 %")

	assert.Empty(t, sink.readings, "sensor data without a scanned tag is held back")
}

func TestSwitchUserClearsInFlightState(t *testing.T) {
	p, sink, clock := newTestParser()
	ctx := context.Background()

	p.HandleLine(ctx, ">>> RFID Card Detected! UID:  04 3A 2B 1C")
	clock.advance(6 * time.Second)
	p.HandleLine(ctx, "Temperature: 36.5 °C / 97.7 °F")
	require.Len(t, sink.readings, 1)

	p.HandleLine(ctx, "New card detected! Switching user...")
	clock.advance(time.Minute)

	// Above the debounce interval, but the tag is gone: nothing emits
	// until a new detection line re-establishes it.
	p.HandleLine(ctx, "Temperature: 37.1 °C / 98.8 °F")
	require.Len(t, sink.readings, 1)

	p.HandleLine(ctx, ">>> RFID Card Detected! UID: AA BB CC DD")
	require.Len(t, sink.readings, 1, "detection clears sensor state, so nothing to emit yet")

	clock.advance(6 * time.Second)
	p.HandleLine(ctx, "Humidity: 58.3 %")
	require.Len(t, sink.readings, 2)
	got := sink.readings[1]
	assert.Equal(t, "aabbccdd", got.RFIDTag)
	assert.Nil(t, got.Temperature, "previous tag's temperature must not leak")
	require.NotNil(t, got.Humidity)
	assert.Equal(t, 58.3, *got.Humidity)
}

func TestUnrecognizedLinesAreIgnored(t *testing.T) {
	p, sink, _ := newTestParser()
	ctx := context.Background()

	p.HandleLine(ctx, "Booting ESP32...")
	p.HandleLine(ctx, "WiFi connected")
	p.HandleLine(ctx, "")
	p.HandleLine(ctx, "Placing finger on sensor")

	assert.Empty(t, sink.readings)
	assert.Empty(t, sink.scans)
}

func TestDetectionRestartsDebounceWindow(t *testing.T) {
	p, sink, clock := newTestParser()
	ctx := context.Background()

	p.HandleLine(ctx, ">>> RFID Card Detected! UID: 01 02 03 04")
	p.HandleLine(ctx, "BPM: 71.2 | Avg BPM: 69")
	require.Empty(t, sink.readings, "fields collected inside the window are held back")

	clock.advance(6 * time.Second)
	p.HandleLine(ctx, "BPM: 70.9 | Avg BPM: 69")

	require.Len(t, sink.readings, 1)
	require.NotNil(t, sink.readings[0].HeartRate)
	assert.Equal(t, 69, *sink.readings[0].HeartRate)
}
