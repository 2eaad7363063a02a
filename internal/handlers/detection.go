package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/detect"
	"github.com/nlind/camwatch-api/internal/repository"
)

const toggleRequestTimeout = 30 * time.Second

// DetectionHandler exposes the detection toggle. The local status flips and
// is persisted before the control-API result is known; a failed control call
// is logged, never rolled back.
type DetectionHandler struct {
	cameras  repository.CameraRepository
	detector detect.Controller
	logger   zerolog.Logger
}

func NewDetectionHandler(cameras repository.CameraRepository, detector detect.Controller, logger zerolog.Logger) *DetectionHandler {
	return &DetectionHandler{
		cameras:  cameras,
		detector: detector,
		logger:   logger.With().Str("handler", "detection").Logger(),
	}
}

func (h *DetectionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		http.Error(w, "Camera ID is required", http.StatusBadRequest)
		return
	}

	cam, err := h.cameras.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Camera not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("camera_id", id).Msg("failed to get camera")
		http.Error(w, "Failed to get camera", http.StatusInternalServerError)
		return
	}

	next := cam.DetectionStatus.Opposite()
	updated, err := h.cameras.UpdateDetectionStatus(r.Context(), id, next)
	if err != nil {
		h.logger.Error().Err(err).Str("camera_id", id).Msg("failed to update detection status")
		http.Error(w, "Failed to update detection status", http.StatusInternalServerError)
		return
	}

	// Fire and forget: the response does not wait for the detector.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), toggleRequestTimeout)
		defer cancel()
		if err := h.detector.SetStatus(ctx, next, id); err != nil {
			h.logger.Warn().Err(err).
				Str("camera_id", id).
				Str("status", string(next)).
				Msg("detection toggle request failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, updated)
}
