package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/models"
)

// Notifier is a delivery channel for notifications that have already been
// persisted. The live-update hub is the primary implementation.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

func logNotifyError(logger zerolog.Logger, err error, channel string, notif models.Notification) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("notification_id", notif.ID).
		Str("camera_id", notif.CameraID).
		Str("channel", channel).
		Msg("failed to deliver notification")
}

func notifierChannelName(n Notifier) string {
	type named interface {
		String() string
	}
	if v, ok := n.(named); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}
