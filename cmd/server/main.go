package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/docker/client"
	h "github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/config"
	"github.com/nlind/camwatch-api/internal/detect"
	"github.com/nlind/camwatch-api/internal/event"
	"github.com/nlind/camwatch-api/internal/handlers"
	"github.com/nlind/camwatch-api/internal/middleware"
	"github.com/nlind/camwatch-api/internal/migration"
	"github.com/nlind/camwatch-api/internal/notification"
	"github.com/nlind/camwatch-api/internal/repository"
	"github.com/nlind/camwatch-api/internal/routes"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config        *config.Config
	db            *sql.DB
	hub           *event.Hub
	logger        zerolog.Logger
	notifications notification.Service
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Initialize the live-update hub and notification service.
	hub := event.NewHub(cfg.Hub.Buffer, logger)
	notificationRepo := repository.NewNotificationRepository(db)
	notificationService := notification.NewService(notificationRepo, logger, hub)

	// Create the application instance.
	app := &application{
		config:        cfg,
		db:            db,
		hub:           hub,
		logger:        logger,
		notifications: notificationService,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	cameraRepo := repository.NewCameraRepository(app.db)
	notificationRepo := repository.NewNotificationRepository(app.db)

	// Detection controller
	detector := app.newDetectionController(cameraRepo, logger)

	// Handlers
	cameraHandler := handlers.NewCameraHandler(cameraRepo, logger)
	notificationHandler := handlers.NewNotificationHandler(app.notifications, logger)
	watchHandler := handlers.NewWatchHandler(cameraRepo, notificationRepo, app.hub, detector, logger)
	detectionHandler := handlers.NewDetectionHandler(cameraRepo, detector, logger)
	detectorHandler := handlers.NewDetectorHandler(cameraRepo, app.notifications, logger)
	streamHandler := handlers.NewStreamHandler(cameraRepo, logger)

	return routes.NewRouter(cameraHandler, notificationHandler, watchHandler, detectionHandler, detectorHandler, streamHandler)
}

func (app *application) newDetectionController(cameraRepo repository.CameraRepository, logger zerolog.Logger) detect.Controller {
	switch app.config.Detector.Mode {
	case "docker":
		dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create Docker client")
		}
		return detect.NewDockerController(dockerClient, cameraRepo, app.config.Detector.Image, app.config.Detector.ContainerPrefix, logger)
	default:
		return detect.NewHTTPController(app.config.Detector.BaseURL, []byte(app.config.Detector.TokenSecret))
	}
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
