package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/repository"
)

type CameraHandler struct {
	repo   repository.CameraRepository
	logger zerolog.Logger
}

func NewCameraHandler(repo repository.CameraRepository, logger zerolog.Logger) *CameraHandler {
	return &CameraHandler{
		repo:   repo,
		logger: logger.With().Str("handler", "camera").Logger(),
	}
}

type createCameraRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (h *CameraHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Address) == "" {
		http.Error(w, "Name and address are required", http.StatusBadRequest)
		return
	}

	cam, err := h.repo.Create(r.Context(), repository.CreateCameraParams{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create camera")
		http.Error(w, "Failed to create camera", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, cam)
}

func (h *CameraHandler) List(w http.ResponseWriter, r *http.Request) {
	cameras, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list cameras")
		http.Error(w, "Failed to list cameras", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cameras": cameras,
	})
}

func (h *CameraHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		http.Error(w, "Camera ID is required", http.StatusBadRequest)
		return
	}

	cam, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Camera not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("camera_id", id).Msg("failed to get camera")
		http.Error(w, "Failed to get camera", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, cam)
}
