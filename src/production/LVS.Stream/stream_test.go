package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	snapshot "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.ApiService/implementation/snapshot"
	bus "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Bus"
	config "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Config"
	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
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
	latest []lvsmodels.LatestReading
}

func (s *stubReadingRepo) InsertReading(context.Context, *lvsmodels.SensorReading) error { return nil }
func (s *stubReadingRepo) GetRecentReadings(context.Context, int) ([]lvsmodels.SensorReading, error) {
	return nil, nil
}
func (s *stubReadingRepo) GetReadingsByTag(context.Context, string, int) ([]lvsmodels.SensorReading, error) {
	return nil, nil
}
func (s *stubReadingRepo) GetLatestPerTag(context.Context, time.Time, string) ([]lvsmodels.LatestReading, error) {
	return s.latest, nil
}

func testStreamConfig() config.StreamConfig {
	return config.StreamConfig{
		SnapshotWindow: 5 * time.Minute,
		RecentLimit:    10,
		MailboxBuffer:  64,
		WriteTimeout:   2 * time.Second,
		PingInterval:   30 * time.Second,
	}
}

type testEnv struct {
	bus *bus.Bus
	hub *Hub
	srv *httptest.Server
}

func newTestEnv(t *testing.T, animals *stubAnimalRepo, readings *stubReadingRepo) *testEnv {
	t.Helper()

	b := bus.New()
	log := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"})
	snapshots := snapshot.NewService(animals, readings, 5*time.Minute, 10)
	hub := NewHub(b, snapshots, testStreamConfig(), log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/sensors", hub.HandleGlobal)
	mux.HandleFunc("/ws/sensors/", func(w http.ResponseWriter, r *http.Request) {
		tag := strings.TrimPrefix(r.URL.Path, "/ws/sensors/")
		hub.HandleAnimal(w, r, tag)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{bus: b, hub: hub, srv: srv}
}

func (e *testEnv) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestGlobalSessionReceivesInitialDataThenUpdates(t *testing.T) {
	readings := &stubReadingRepo{latest: []lvsmodels.LatestReading{{RFIDTag: "043a2b1c"}}}
	env := newTestEnv(t, &stubAnimalRepo{}, readings)

	conn := env.dial(t, "/ws/sensors")

	first := readFrame(t, conn)
	assert.Equal(t, TypeInitialData, first.Type)

	// The initial_data frame is enqueued after the topic join, so the
	// session is live by now.
	env.bus.Publish(bus.TopicAllReadings, bus.Message{Type: TypeSensorUpdate, Data: map[string]interface{}{"rfid_tag": "043a2b1c"}})

	update := readFrame(t, conn)
	assert.Equal(t, TypeSensorUpdate, update.Type)
}

func TestMalformedClientFrameKeepsConnectionOpen(t *testing.T) {
	env := newTestEnv(t, &stubAnimalRepo{}, &stubReadingRepo{})
	conn := env.dial(t, "/ws/sensors")

	readFrame(t, conn) // initial_data

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	errFrame := readFrame(t, conn)
	assert.Equal(t, TypeError, errFrame.Type)
	assert.Equal(t, ErrInvalidJSON, errFrame.Message)

	// The session must still service well-formed frames afterwards.
	require.NoError(t, conn.WriteJSON(ClientMessage{Action: ActionGetLatest}))
	reply := readFrame(t, conn)
	assert.Equal(t, TypeSensorData, reply.Type)
}

func TestSubscribeAnimalJoinsScopedTopic(t *testing.T) {
	env := newTestEnv(t, &stubAnimalRepo{}, &stubReadingRepo{})
	conn := env.dial(t, "/ws/sensors")

	readFrame(t, conn) // initial_data

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: ActionSubscribeAnimal, RFIDTag: "043a2b1c"}))

	confirm := readFrame(t, conn)
	assert.Equal(t, TypeSubscriptionConfirmed, confirm.Type)
	assert.Equal(t, "043a2b1c", confirm.RFIDTag)

	// subscription_confirmed is enqueued after the join, so a publish on
	// the scoped topic now reaches this session.
	env.bus.Publish(bus.AnimalTopic("043a2b1c"), bus.Message{Type: TypeSensorUpdate, Data: "r"})
	update := readFrame(t, conn)
	assert.Equal(t, TypeSensorUpdate, update.Type)
}

func TestAnimalSessionConnectAndRefresh(t *testing.T) {
	animals := &stubAnimalRepo{byTag: map[string]*lvsmodels.Animal{
		"043a2b1c": {ID: 3, RFIDTag: "043a2b1c", Name: "Bessie"},
	}}
	env := newTestEnv(t, animals, &stubReadingRepo{})
	conn := env.dial(t, "/ws/sensors/043a2b1c")

	hello := readFrame(t, conn)
	assert.Equal(t, TypeConnected, hello.Type)
	assert.Equal(t, "043a2b1c", hello.RFIDTag)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: ActionRefresh}))
	reply := readFrame(t, conn)
	assert.Equal(t, TypeSensorData, reply.Type)
}

func TestAnimalSessionUnknownTag(t *testing.T) {
	env := newTestEnv(t, &stubAnimalRepo{byTag: map[string]*lvsmodels.Animal{}}, &stubReadingRepo{})
	conn := env.dial(t, "/ws/sensors/deadbeef")

	frame := readFrame(t, conn)
	assert.Equal(t, TypeError, frame.Type)
	assert.Equal(t, "Animal not found", frame.Message)

	// Not found is reported but the stream stays open: live updates for
	// the tag still arrive once ingestion auto-creates the animal.
	env.bus.Publish(bus.AnimalTopic("deadbeef"), bus.Message{Type: TypeSensorUpdate, Data: "r"})
	update := readFrame(t, conn)
	assert.Equal(t, TypeSensorUpdate, update.Type)
}

func TestDisconnectRemovesMembership(t *testing.T) {
	env := newTestEnv(t, &stubAnimalRepo{}, &stubReadingRepo{})
	conn := env.dial(t, "/ws/sensors")

	readFrame(t, conn) // initial_data
	require.Eventually(t, func() bool {
		return env.bus.MemberCount(bus.TopicAllReadings) == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return env.bus.MemberCount(bus.TopicAllReadings) == 0
	}, 3*time.Second, 10*time.Millisecond, "membership must be cleaned up after disconnect")
}
