package interfaces

import (
	"context"

	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
)

// EventRepository stores the RFID scan-event log.
type EventRepository interface {
	// InsertEvent persists a scan event and fills its ID.
	InsertEvent(ctx context.Context, event *lvsmodels.RFIDEvent) error

	// ListRecentEvents returns the most recent scan events, newest first.
	ListRecentEvents(ctx context.Context, limit int) ([]lvsmodels.RFIDEvent, error)
}
