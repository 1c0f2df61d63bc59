package lvsmodels

import "time"

// Animal represents a tracked animal identified by its RFID tag.
// Animals are created explicitly through the management API or implicitly
// when a reading arrives for an unknown tag.
type Animal struct {
	ID          int64      `json:"id" db:"id"`
	RFIDTag     string     `json:"rfid_tag" db:"rfid_tag"`
	Name        string     `json:"name" db:"name"`
	Species     string     `json:"species" db:"species"`
	Breed       string     `json:"breed" db:"breed"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	WeightKg    *float64   `json:"weight_kg,omitempty" db:"weight_kg"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// PlaceholderNamePrefix is used when an animal is auto-created from an
// unprovisioned tag: "Animal-" plus the first 8 characters of the tag.
const PlaceholderNamePrefix = "Animal-"

// PlaceholderName derives the auto-created animal name for a tag.
func PlaceholderName(rfidTag string) string {
	short := rfidTag
	if len(short) > 8 {
		short = short[:8]
	}
	return PlaceholderNamePrefix + short
}
