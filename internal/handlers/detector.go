package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/models"
	"github.com/nlind/camwatch-api/internal/notification"
	"github.com/nlind/camwatch-api/internal/repository"
)

// DetectorHandler is the ingest surface for the external detection process:
// it is the only writer of notification rows and the authoritative source of
// a camera's actual detection status.
type DetectorHandler struct {
	cameras repository.CameraRepository
	service notification.Service
	logger  zerolog.Logger
}

func NewDetectorHandler(cameras repository.CameraRepository, service notification.Service, logger zerolog.Logger) *DetectorHandler {
	return &DetectorHandler{
		cameras: cameras,
		service: service,
		logger:  logger.With().Str("handler", "detector").Logger(),
	}
}

type ingestNotificationRequest struct {
	CameraID string                      `json:"camera_id"`
	Severity models.NotificationSeverity `json:"severity"`
	Message  string                      `json:"message"`
}

func (h *DetectorHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req ingestNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.CameraID) == "" || strings.TrimSpace(req.Message) == "" {
		http.Error(w, "Camera ID and message are required", http.StatusBadRequest)
		return
	}

	if _, err := h.cameras.GetByID(r.Context(), req.CameraID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Camera not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("camera_id", req.CameraID).Msg("failed to get camera")
		http.Error(w, "Failed to get camera", http.StatusInternalServerError)
		return
	}

	notif, err := h.service.Publish(r.Context(), notification.Event{
		CameraID: req.CameraID,
		Severity: req.Severity,
		Message:  req.Message,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("camera_id", req.CameraID).Msg("failed to publish notification")
		http.Error(w, "Failed to publish notification", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, notif)
}

type statusCallbackRequest struct {
	Status models.DetectionStatus `json:"status"`
}

// UpdateStatus records the detection status the detector reports for a
// camera and raises an informational notification about the change.
func (h *DetectorHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		http.Error(w, "Camera ID is required", http.StatusBadRequest)
		return
	}

	var req statusCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		http.Error(w, "Status must be started or stopped", http.StatusBadRequest)
		return
	}

	updated, err := h.cameras.UpdateDetectionStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Camera not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("camera_id", id).Msg("failed to update detection status")
		http.Error(w, "Failed to update detection status", http.StatusInternalServerError)
		return
	}

	var notifyErr error
	if req.Status == models.DetectionStarted {
		notifyErr = h.service.NotifyDetectionStarted(r.Context(), id)
	} else {
		notifyErr = h.service.NotifyDetectionStopped(r.Context(), id)
	}
	if notifyErr != nil {
		h.logger.Warn().Err(notifyErr).Str("camera_id", id).Msg("failed to raise status notification")
	}

	writeJSON(w, http.StatusOK, updated)
}
