package telemetry

import (
	"context"
	"errors"
	"time"

	bus "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Bus"
	lvserrors "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Errors"
	logger "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Logger"
	lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"
	api_models "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models/api"
	interfaces "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Repository/Interfaces"
)

// Service is the ingestion gateway: it validates structured readings and
// scan events, persists them, and fans the persisted result out on the
// event bus. Persistence always happens before any publish; nothing
// unpersisted is ever broadcast.
type Service struct {
	animalRepo  interfaces.AnimalRepository
	readingRepo interfaces.ReadingRepository
	eventRepo   interfaces.EventRepository
	bus         *bus.Bus
	logger      *logger.Logger
}

// NewService creates the ingestion gateway.
func NewService(
	animalRepo interfaces.AnimalRepository,
	readingRepo interfaces.ReadingRepository,
	eventRepo interfaces.EventRepository,
	b *bus.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		animalRepo:  animalRepo,
		readingRepo: readingRepo,
		eventRepo:   eventRepo,
		bus:         b,
		logger:      log,
	}
}

// SubmitReading validates and persists one reading, creating the animal
// on demand when the tag is unknown. Device data is never dropped just
// because provisioning has not happened yet. The enriched reading is
// published to the global topic and the animal's own topic.
func (s *Service) SubmitReading(ctx context.Context, req api_models.CreateReadingRequest) (*lvsmodels.SensorReading, error) {
	if req.RFIDTag == "" {
		return nil, lvserrors.NewValidationError("rfid_tag", "this field is required")
	}
	if req.Temperature == nil && req.Humidity == nil && req.HeartRate == nil {
		return nil, lvserrors.NewValidationError("sensor_data",
			"at least one sensor value (temperature, humidity or heart_rate) must be provided")
	}

	animal, err := s.animalRepo.GetOrCreateByTag(ctx, req.RFIDTag, lvsmodels.PlaceholderName(req.RFIDTag))
	if err != nil {
		return nil, lvserrors.WrapDownstream(err)
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}

	reading := &lvsmodels.SensorReading{
		AnimalID:    animal.ID,
		RFIDTag:     req.RFIDTag,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		HeartRate:   req.HeartRate,
		SensorType:  sensorTypeFor(req),
		DeviceID:    req.DeviceID,
		Timestamp:   ts,
	}

	if err := s.readingRepo.InsertReading(ctx, reading); err != nil {
		return nil, lvserrors.WrapDownstream(err)
	}

	reading.AnimalName = animal.Name
	reading.AnimalSpecies = animal.Species

	update := bus.Message{Type: "sensor_update", Data: reading}
	s.bus.Publish(bus.TopicAllReadings, update)
	s.bus.Publish(bus.AnimalTopic(reading.RFIDTag), update)

	s.logger.Logger.Debug().
		Str("rfid_tag", reading.RFIDTag).
		Int64("reading_id", reading.ID).
		Msg("reading persisted and broadcast")

	return reading, nil
}

// SubmitScanEvent logs an RFID scan. Unknown tags are logged with a nil
// animal link; scanning never provisions an animal.
func (s *Service) SubmitScanEvent(ctx context.Context, req api_models.CreateScanEventRequest) (*lvsmodels.RFIDEvent, error) {
	if req.RFIDTag == "" {
		return nil, lvserrors.NewValidationError("rfid_tag", "this field is required")
	}

	animal, err := s.animalRepo.GetAnimalByTag(ctx, req.RFIDTag)
	if err != nil {
		return nil, lvserrors.WrapDownstream(err)
	}

	event := &lvsmodels.RFIDEvent{
		RFIDTag:   req.RFIDTag,
		ReaderID:  req.ReaderID,
		Timestamp: time.Now().UTC(),
	}
	if animal != nil {
		event.AnimalID = &animal.ID
		event.AnimalName = animal.Name
	}

	if err := s.eventRepo.InsertEvent(ctx, event); err != nil {
		return nil, lvserrors.WrapDownstream(err)
	}

	s.bus.Publish(bus.TopicAllReadings, bus.Message{Type: "scan_event", Data: event})

	return event, nil
}

// SubmitBulk processes each reading independently through SubmitReading.
// One bad element never aborts the batch; failures are reported with
// their original index.
func (s *Service) SubmitBulk(ctx context.Context, reqs []api_models.CreateReadingRequest) *api_models.BulkResult {
	result := &api_models.BulkResult{
		Readings: make([]*lvsmodels.SensorReading, 0, len(reqs)),
		Errors:   make([]api_models.BulkItemError, 0),
	}

	for idx, req := range reqs {
		reading, err := s.SubmitReading(ctx, req)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, api_models.BulkItemError{
				Index:  idx,
				Errors: bulkErrorFields(err),
			})
			continue
		}
		result.Created++
		result.Readings = append(result.Readings, reading)
	}

	return result
}

func bulkErrorFields(err error) map[string]string {
	var ve *lvserrors.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return map[string]string{"error": err.Error()}
}

func sensorTypeFor(req api_models.CreateReadingRequest) string {
	switch {
	case req.Temperature != nil && req.Humidity == nil && req.HeartRate == nil:
		return lvsmodels.SensorTypeTemperature
	case req.Temperature == nil && req.Humidity != nil && req.HeartRate == nil:
		return lvsmodels.SensorTypeHumidity
	case req.Temperature == nil && req.Humidity == nil && req.HeartRate != nil:
		return lvsmodels.SensorTypeHeartRate
	default:
		return lvsmodels.SensorTypeCombined
	}
}
