package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nlind/camwatch-api/internal/handlers"
)

// NewRouter sets up the API routes
func NewRouter(
	camera *handlers.CameraHandler,
	notif *handlers.NotificationHandler,
	watch *handlers.WatchHandler,
	detection *handlers.DetectionHandler,
	detector *handlers.DetectorHandler,
	stream *handlers.StreamHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Camera endpoints
	router.HandleFunc("/api/cameras", camera.List).Methods(http.MethodGet)
	router.HandleFunc("/api/cameras", camera.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/cameras/{id}", camera.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/cameras/{id}/notifications", notif.List).Methods(http.MethodGet)
	router.HandleFunc("/api/cameras/{id}/watch", watch.Watch).Methods(http.MethodGet)
	router.HandleFunc("/api/cameras/{id}/detection/toggle", detection.Toggle).Methods(http.MethodPost)
	router.HandleFunc("/api/cameras/{id}/stream", stream.Stream).Methods(http.MethodGet)

	// Detector ingest endpoints
	router.HandleFunc("/api/detector/notifications", detector.CreateNotification).Methods(http.MethodPost)
	router.HandleFunc("/api/detector/cameras/{id}/status", detector.UpdateStatus).Methods(http.MethodPut)

	return router
}
