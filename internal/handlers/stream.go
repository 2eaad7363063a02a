package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/repository"
)

// StreamHandler proxies the camera's own feed. The transport behind the
// camera address stays opaque; bytes are passed through untouched.
type StreamHandler struct {
	cameras repository.CameraRepository
	logger  zerolog.Logger
}

func NewStreamHandler(cameras repository.CameraRepository, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		cameras: cameras,
		logger:  logger.With().Str("handler", "stream").Logger(),
	}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
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

	target, err := url.Parse(cam.Address)
	if err != nil || target.Scheme == "" || target.Host == "" {
		h.logger.Error().Err(err).Str("camera_id", id).Str("address", cam.Address).Msg("invalid camera address")
		http.Error(w, "Camera address is not proxyable", http.StatusBadGateway)
		return
	}

	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL = target
			req.Host = target.Host
		},
		ErrorHandler: func(rw http.ResponseWriter, req *http.Request, proxyErr error) {
			h.logger.Warn().Err(proxyErr).Str("camera_id", id).Msg("camera feed proxy error")
			rw.WriteHeader(http.StatusBadGateway)
		},
		FlushInterval: -1, // stream frames as they arrive
	}
	proxy.ServeHTTP(w, r)
}
