package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	bus "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Bus"
	config "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Config"
	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
)

// behavior is what distinguishes the two session kinds. Sessions are a
// closed variant set: globalBehavior and animalBehavior.
type behavior interface {
	// onConnect joins the session's topics and enqueues its snapshot.
	onConnect(ctx context.Context, s *session)
	// onClientMessage handles one parsed inbound frame.
	onClientMessage(ctx context.Context, s *session, msg ClientMessage)
}

// session owns one live connection: the websocket, a bus subscription
// (the mailbox) and a reply queue. A single writer goroutine services
// both the mailbox and the reply queue so neither starves the other and
// the websocket never sees concurrent writes.
type session struct {
	conn      *websocket.Conn
	bus       *bus.Bus
	sub       *bus.Subscription
	replies   chan ServerMessage
	done      chan struct{}
	closeOnce sync.Once
	cfg       config.StreamConfig
	logger    *logger.Logger
}

func newSession(conn *websocket.Conn, b *bus.Bus, cfg config.StreamConfig, log *logger.Logger) *session {
	return &session{
		conn:    conn,
		bus:     b,
		sub:     b.Register(cfg.MailboxBuffer),
		replies: make(chan ServerMessage, 16),
		done:    make(chan struct{}),
		cfg:     cfg,
		logger:  log,
	}
}

// run drives the session until the peer disconnects or a transport
// write fails. It must be called on its own goroutine.
func (s *session) run(b behavior) {
	ctx := context.Background()
	defer s.close()

	b.onConnect(ctx, s)

	go s.writeLoop()
	s.readLoop(ctx, b)
}

// close tears the session down exactly once: bus membership is removed
// before anything else, so no publish completing after close can still
// target this session.
func (s *session) close() {
	s.closeOnce.Do(func() {
		s.bus.Unregister(s.sub)
		close(s.done)
		_ = s.conn.Close()
	})
}

// enqueue queues a reply for the writer goroutine. Non-blocking: a
// session that cannot drain its own replies is treated like any slow
// subscriber and the frame is dropped.
func (s *session) enqueue(msg ServerMessage) {
	select {
	case s.replies <- msg:
	case <-s.done:
	default:
		s.logger.Logger.Warn().Str("session", s.sub.ID()).Str("type", msg.Type).Msg("reply queue full, dropping frame")
	}
}

func (s *session) readLoop(ctx context.Context, b behavior) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			// Peer gone or protocol error: local to this session.
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.enqueue(ServerMessage{Type: TypeError, Message: ErrInvalidJSON})
			continue
		}

		b.onClientMessage(ctx, s, msg)
	}
}

func (s *session) writeLoop() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.sub.C():
			if !ok {
				return
			}
			if !s.write(ServerMessage{Type: msg.Type, Data: msg.Data}) {
				return
			}
		case msg := <-s.replies:
			if !s.write(msg) {
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *session) write(msg ServerMessage) bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.close()
		return false
	}
	return true
}
