package stream

import (
	"net/http"

	"github.com/gorilla/websocket"

	snapshot "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.ApiService/implementation/snapshot"
	bus "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Bus"
	config "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Config"
	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
)

// Hub upgrades HTTP requests into live-update sessions and binds them
// to the event bus and snapshot provider.
type Hub struct {
	bus       *bus.Bus
	snapshots *snapshot.Service
	cfg       config.StreamConfig
	logger    *logger.Logger
	upgrader  websocket.Upgrader
}

// NewHub creates a session hub.
func NewHub(b *bus.Bus, snapshots *snapshot.Service, cfg config.StreamConfig, log *logger.Logger) *Hub {
	return &Hub{
		bus:       b,
		snapshots: snapshots,
		cfg:       cfg,
		logger:    log.WithComponent("stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser dashboards connect cross-origin; access control is
			// an external collaborator's concern.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleGlobal serves a global listener session: snapshot of every
// recently seen animal on connect, then every reading anywhere.
func (h *Hub) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorWithError(err, "websocket upgrade failed")
		return
	}

	s := newSession(conn, h.bus, h.cfg, h.logger)
	h.logger.Logger.Debug().Str("session", s.sub.ID()).Msg("global session connected")
	go s.run(&globalBehavior{hub: h})
}

// HandleAnimal serves an animal-scoped session for one tag.
func (h *Hub) HandleAnimal(w http.ResponseWriter, r *http.Request, rfidTag string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorWithError(err, "websocket upgrade failed")
		return
	}

	s := newSession(conn, h.bus, h.cfg, h.logger)
	h.logger.Logger.Debug().Str("session", s.sub.ID()).Str("rfid_tag", rfidTag).Msg("animal session connected")
	go s.run(&animalBehavior{hub: h, rfidTag: rfidTag})
}
