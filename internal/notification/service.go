package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/models"
	"github.com/nlind/camwatch-api/internal/repository"
)

type Event struct {
	CameraID string
	Severity models.NotificationSeverity
	Message  string
}

type Service interface {
	Publish(ctx context.Context, evt Event) (models.Notification, error)
	NotifyMotionDetected(ctx context.Context, cameraID, detail string) error
	NotifyDetectionStarted(ctx context.Context, cameraID string) error
	NotifyDetectionStopped(ctx context.Context, cameraID string) error
	ListByCamera(ctx context.Context, cameraID string, limit int) ([]models.Notification, error)
}

type service struct {
	repo      repository.NotificationRepository
	logger    zerolog.Logger
	notifiers []Notifier
}

func NewService(repo repository.NotificationRepository, logger zerolog.Logger, notifiers ...Notifier) Service {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		repo:      repo,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
	}
}

// Publish persists the notification and then fans it out to every delivery
// channel. Delivery failures are logged but do not fail the publish.
func (s *service) Publish(ctx context.Context, evt Event) (models.Notification, error) {
	if strings.TrimSpace(evt.CameraID) == "" {
		return models.Notification{}, fmt.Errorf("camera id is required")
	}
	if evt.Severity == "" {
		evt.Severity = models.NotificationSeverityInfo
	}
	message := strings.TrimSpace(evt.Message)
	if message == "" {
		return models.Notification{}, fmt.Errorf("message is required")
	}

	notif, err := s.repo.Create(ctx, repository.CreateNotificationParams{
		CameraID: evt.CameraID,
		Severity: evt.Severity,
		Message:  message,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("camera_id", evt.CameraID).Msg("failed to persist notification")
		return models.Notification{}, err
	}

	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, notif); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), notif)
		}
	}
	return notif, nil
}

func (s *service) NotifyMotionDetected(ctx context.Context, cameraID, detail string) error {
	message := "Motion detected"
	if trimmed := strings.TrimSpace(detail); trimmed != "" {
		message = fmt.Sprintf("Motion detected: %s", trimmed)
	}
	_, err := s.Publish(ctx, Event{
		CameraID: cameraID,
		Severity: models.NotificationSeverityWarning,
		Message:  message,
	})
	return err
}

func (s *service) NotifyDetectionStarted(ctx context.Context, cameraID string) error {
	_, err := s.Publish(ctx, Event{
		CameraID: cameraID,
		Severity: models.NotificationSeverityInfo,
		Message:  "Detection started",
	})
	return err
}

func (s *service) NotifyDetectionStopped(ctx context.Context, cameraID string) error {
	_, err := s.Publish(ctx, Event{
		CameraID: cameraID,
		Severity: models.NotificationSeverityInfo,
		Message:  "Detection stopped",
	})
	return err
}

func (s *service) ListByCamera(ctx context.Context, cameraID string, limit int) ([]models.Notification, error) {
	return s.repo.ListByCamera(ctx, cameraID, limit)
}
