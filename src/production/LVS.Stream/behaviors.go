package stream

import (
	"context"

	bus "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Bus"
	lvserrors "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Errors"
)

// globalBehavior implements the all-animals listener protocol.
type globalBehavior struct {
	hub *Hub
}

func (g *globalBehavior) onConnect(ctx context.Context, s *session) {
	s.bus.Join(bus.TopicAllReadings, s.sub)

	latest, err := g.hub.snapshots.GlobalSnapshot(ctx, "")
	if err != nil {
		g.hub.logger.ErrorWithError(err, "global snapshot failed on connect")
		s.enqueue(ServerMessage{Type: TypeError, Message: "snapshot unavailable"})
		return
	}
	s.enqueue(ServerMessage{Type: TypeInitialData, Data: latest})
}

func (g *globalBehavior) onClientMessage(ctx context.Context, s *session, msg ClientMessage) {
	switch msg.Action {
	case ActionGetLatest:
		latest, err := g.hub.snapshots.GlobalSnapshot(ctx, msg.RFIDTag)
		if err != nil {
			s.enqueue(ServerMessage{Type: TypeError, Message: "snapshot unavailable"})
			return
		}
		s.enqueue(ServerMessage{Type: TypeSensorData, Data: latest})

	case ActionSubscribeAnimal:
		if msg.RFIDTag == "" {
			return
		}
		// The subscription is real: the session joins the animal's topic
		// and will receive its sensor_update pushes from now on.
		s.bus.Join(bus.AnimalTopic(msg.RFIDTag), s.sub)
		s.enqueue(ServerMessage{Type: TypeSubscriptionConfirmed, RFIDTag: msg.RFIDTag})
	}
}

// animalBehavior implements the single-animal listener protocol.
type animalBehavior struct {
	hub     *Hub
	rfidTag string
}

func (a *animalBehavior) onConnect(ctx context.Context, s *session) {
	// Join before the snapshot: readings for a not-yet-provisioned tag
	// start streaming as soon as ingestion auto-creates the animal.
	s.bus.Join(bus.AnimalTopic(a.rfidTag), s.sub)

	snap, err := a.hub.snapshots.AnimalSnapshot(ctx, a.rfidTag)
	if err != nil {
		if lvserrors.IsNotFound(err) {
			s.enqueue(ServerMessage{Type: TypeError, RFIDTag: a.rfidTag, Message: "Animal not found"})
		} else {
			a.hub.logger.ErrorWithError(err, "animal snapshot failed on connect")
			s.enqueue(ServerMessage{Type: TypeError, Message: "snapshot unavailable"})
		}
		return
	}
	s.enqueue(ServerMessage{Type: TypeConnected, RFIDTag: a.rfidTag, Data: snap})
}

func (a *animalBehavior) onClientMessage(ctx context.Context, s *session, msg ClientMessage) {
	if msg.Action != ActionRefresh {
		return
	}

	snap, err := a.hub.snapshots.AnimalSnapshot(ctx, a.rfidTag)
	if err != nil {
		if lvserrors.IsNotFound(err) {
			s.enqueue(ServerMessage{Type: TypeError, RFIDTag: a.rfidTag, Message: "Animal not found"})
		} else {
			s.enqueue(ServerMessage{Type: TypeError, Message: "snapshot unavailable"})
		}
		return
	}
	s.enqueue(ServerMessage{Type: TypeSensorData, Data: snap})
}
