package models

import "time"

type DetectionStatus string

const (
	DetectionStopped DetectionStatus = "stopped"
	DetectionStarted DetectionStatus = "started"
)

// Opposite returns the flipped value of the two-valued status.
func (s DetectionStatus) Opposite() DetectionStatus {
	if s == DetectionStarted {
		return DetectionStopped
	}
	return DetectionStarted
}

func (s DetectionStatus) Valid() bool {
	return s == DetectionStopped || s == DetectionStarted
}

type Camera struct {
	ID              string          `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Address         string          `json:"address" db:"address"`
	DetectionStatus DetectionStatus `json:"detection_status" db:"detection_status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
