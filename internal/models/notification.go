package models

import "time"

type NotificationSeverity string

const (
	NotificationSeverityInfo    NotificationSeverity = "info"
	NotificationSeverityWarning NotificationSeverity = "warning"
	NotificationSeverityError   NotificationSeverity = "error"
)

// Notification is a single event row raised for one camera. Rows are created
// by the detector ingest path and are never updated or deleted.
type Notification struct {
	ID        string               `json:"id" db:"id"`
	CameraID  string               `json:"camera_id" db:"camera_id"`
	Severity  NotificationSeverity `json:"severity" db:"severity"`
	Message   string               `json:"message" db:"message"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
}
