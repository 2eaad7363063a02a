package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/detect"
	"github.com/nlind/camwatch-api/internal/event"
	"github.com/nlind/camwatch-api/internal/models"
	"github.com/nlind/camwatch-api/internal/repository"
	"github.com/nlind/camwatch-api/internal/watch"
)

const heartbeatInterval = 15 * time.Second

// WatchHandler serves the live watch stream: a snapshot of the camera and
// its notifications followed by every new notification as it arrives.
type WatchHandler struct {
	cameras  repository.CameraRepository
	notifs   repository.NotificationRepository
	hub      *event.Hub
	detector detect.Controller
	logger   zerolog.Logger
}

func NewWatchHandler(cameras repository.CameraRepository, notifs repository.NotificationRepository, hub *event.Hub, detector detect.Controller, logger zerolog.Logger) *WatchHandler {
	return &WatchHandler{
		cameras:  cameras,
		notifs:   notifs,
		hub:      hub,
		detector: detector,
		logger:   logger.With().Str("handler", "watch").Logger(),
	}
}

type snapshotPayload struct {
	Camera        models.Camera         `json:"camera"`
	Notifications []models.Notification `json:"notifications"`
}

// Watch handles GET /api/cameras/{id}/watch as an SSE stream. The session's
// subscription is released when the client disconnects, on every exit path.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	cameraID := strings.TrimSpace(mux.Vars(r)["id"])
	if cameraID == "" {
		http.Error(w, "Camera ID is required", http.StatusBadRequest)
		return
	}

	session := watch.NewSession(h.cameras, h.notifs, h.hub, h.detector, h.logger)
	defer session.Close()

	if err := session.Start(r.Context(), cameraID); err != nil {
		h.logger.Error().Err(err).Str("camera_id", cameraID).Msg("failed to start watch session")
		http.Error(w, "Failed to load camera", http.StatusInternalServerError)
		return
	}

	snap := session.Snapshot()
	if snap.State == watch.StateNotFound {
		http.Error(w, "Camera not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sse := newSSEWriter(w, flusher)

	snapshot, err := json.Marshal(snapshotPayload{
		Camera:        snap.Camera,
		Notifications: snap.Notifications,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal snapshot")
		return
	}
	if err := sse.SendEvent("snapshot", string(snapshot)); err != nil {
		return
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case notif := <-session.Events():
			data, err := json.Marshal(notif)
			if err != nil {
				h.logger.Error().Err(err).Str("notification_id", notif.ID).Msg("failed to marshal notification")
				continue
			}
			if err := sse.SendEvent("notification", string(data)); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.SendComment("keepalive"); err != nil {
				return
			}
		}
	}
}
