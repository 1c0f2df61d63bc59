package api_models

import "time"

// CreateReadingRequest is the payload an ESP32 bridge (or any ingestion
// transport) submits for one reading. Timestamp is optional and defaults
// to ingestion time. No binding tags: the gateway validates rfid_tag and
// sensor fields itself so bulk submissions can report failures per index
// instead of rejecting the whole batch at bind time.
type CreateReadingRequest struct {
	RFIDTag     string     `json:"rfid_tag"`
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
	HeartRate   *int       `json:"heart_rate"`
	DeviceID    string     `json:"device_id"`
	Timestamp   *time.Time `json:"timestamp"`
}

// CreateScanEventRequest logs an RFID scan at a reader gate. Validated
// by the gateway, like CreateReadingRequest.
type CreateScanEventRequest struct {
	RFIDTag  string `json:"rfid_tag"`
	ReaderID string `json:"reader_id"`
}

// CreateAnimalRequest provisions an animal explicitly.
type CreateAnimalRequest struct {
	RFIDTag     string     `json:"rfid_tag" binding:"required"`
	Name        string     `json:"name"`
	Species     string     `json:"species"`
	Breed       string     `json:"breed"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	WeightKg    *float64   `json:"weight_kg"`
}

// UpdateAnimalRequest patches animal metadata. Nil fields are untouched.
type UpdateAnimalRequest struct {
	Name        *string    `json:"name"`
	Species     *string    `json:"species"`
	Breed       *string    `json:"breed"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	WeightKg    *float64   `json:"weight_kg"`
}
