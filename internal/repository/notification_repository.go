package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nlind/camwatch-api/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error)
	ListByCamera(ctx context.Context, cameraID string, limit int) ([]models.Notification, error)
}

type notificationRepository struct {
	db *sql.DB
}

type CreateNotificationParams struct {
	CameraID string
	Severity models.NotificationSeverity
	Message  string
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error) {
	const query = `
		INSERT INTO notifications (camera_id, severity, message)
		VALUES ($1, $2, $3)
		RETURNING id, camera_id, severity, message, created_at
	`
	row := r.db.QueryRowContext(ctx, query, strings.TrimSpace(params.CameraID), params.Severity, params.Message)
	return scanNotification(row)
}

// ListByCamera returns the camera's notifications newest first. A zero or
// out-of-range limit falls back to the default page size.
func (r *notificationRepository) ListByCamera(ctx context.Context, cameraID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const query = `
		SELECT id, camera_id, severity, message, created_at
		FROM notifications
		WHERE camera_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(cameraID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		notif, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notif)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func scanNotification(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Notification, error) {
	var notif models.Notification
	if err := scanner.Scan(
		&notif.ID,
		&notif.CameraID,
		&notif.Severity,
		&notif.Message,
		&notif.CreatedAt,
	); err != nil {
		return models.Notification{}, err
	}
	return notif, nil
}
