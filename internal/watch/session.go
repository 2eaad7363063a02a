// Package watch implements the per-camera watch session: one snapshot of the
// camera and its notifications, reconciled with the live channel for as long
// as the session stays open, plus the detection toggle.
package watch

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/detect"
	"github.com/nlind/camwatch-api/internal/event"
	"github.com/nlind/camwatch-api/internal/models"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateNotFound
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateNotFound:
		return "not_found"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// CameraStore is the snapshot read needed by a session.
type CameraStore interface {
	GetByID(ctx context.Context, id string) (models.Camera, error)
}

// NotificationStore lists a camera's notifications newest first.
type NotificationStore interface {
	ListByCamera(ctx context.Context, cameraID string, limit int) ([]models.Notification, error)
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	State         State
	Camera        models.Camera
	Notifications []models.Notification
	Err           error
	ToggleErr     error
}

// Session follows exactly one camera. A session transitions
// Loading -> {Ready, NotFound, Error}; Ready self-transitions on each live
// arrival (prepend) and each toggle (status flip). NotFound and Error are
// terminal. A different camera means a different session, so switching never
// collides with a previous channel.
type Session struct {
	cameras  CameraStore
	notifs   NotificationStore
	hub      *event.Hub
	detector detect.Controller
	logger   zerolog.Logger

	mu            sync.Mutex
	state         State
	camera        models.Camera
	notifications []models.Notification
	err           error
	toggleErr     error

	sub       *event.Subscription
	events    chan models.Notification
	toggles   chan models.DetectionStatus
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewSession(cameras CameraStore, notifs NotificationStore, hub *event.Hub, detector detect.Controller, logger zerolog.Logger) *Session {
	return &Session{
		cameras:  cameras,
		notifs:   notifs,
		hub:      hub,
		detector: detector,
		logger:   logger.With().Str("component", "watch_session").Logger(),
		state:    StateLoading,
		events:   make(chan models.Notification, 16),
		toggles:  make(chan models.DetectionStatus, 16),
		done:     make(chan struct{}),
	}
}

// Start loads the snapshot and opens the live channel. A missing camera
// leaves the session in the NotFound state and returns nil: absence is a
// display state, not a failure. Any fetch error moves the session to the
// Error state and suppresses the content.
func (s *Session) Start(ctx context.Context, cameraID string) error {
	cam, err := s.cameras.GetByID(ctx, cameraID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.setState(StateNotFound, nil)
			return nil
		}
		s.setState(StateError, err)
		return err
	}

	notifications, err := s.notifs.ListByCamera(ctx, cameraID, 0)
	if err != nil {
		s.setState(StateError, err)
		return err
	}

	s.mu.Lock()
	s.camera = cam
	s.notifications = notifications
	s.state = StateReady
	s.sub = s.hub.Subscribe(cameraID)
	s.mu.Unlock()

	s.wg.Add(2)
	go s.consume()
	go s.runToggles(cameraID)
	return nil
}

// consume prepends each live arrival to the in-memory list in delivery
// order. No dedup against the snapshot and no reordering: the upstream
// channel is trusted to deliver inserts as they happen.
func (s *Session) consume() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case notif, ok := <-s.sub.Events():
			if !ok {
				return
			}
			s.mu.Lock()
			s.notifications = append([]models.Notification{notif}, s.notifications...)
			s.mu.Unlock()

			select {
			case s.events <- notif:
			case <-s.done:
				return
			}
		}
	}
}

// runToggles issues control-API requests one at a time so consecutive
// toggles reach the detector in the order they were made.
func (s *Session) runToggles(cameraID string) {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case status := <-s.toggles:
			if err := s.detector.SetStatus(context.Background(), status, cameraID); err != nil {
				s.logger.Warn().Err(err).
					Str("camera_id", cameraID).
					Str("status", string(status)).
					Msg("detection toggle request failed")
				s.mu.Lock()
				s.toggleErr = err
				s.mu.Unlock()
			}
		}
	}
}

// Events delivers each live notification after it has been merged into the
// session state, in delivery order.
func (s *Session) Events() <-chan models.Notification {
	return s.events
}

// ToggleDetection flips the local status immediately and queues the control
// request without waiting for its result. A failed request lands in the
// toggle error slot; the local flip is not rolled back.
func (s *Session) ToggleDetection(ctx context.Context) (models.DetectionStatus, error) {
	s.mu.Lock()
	if s.state != StateReady {
		state := s.state
		s.mu.Unlock()
		return "", errors.New("session not ready: " + state.String())
	}
	next := s.camera.DetectionStatus.Opposite()
	s.camera.DetectionStatus = next
	s.mu.Unlock()

	select {
	case s.toggles <- next:
	case <-ctx.Done():
		return next, ctx.Err()
	case <-s.done:
	}
	return next, nil
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := make([]models.Notification, len(s.notifications))
	copy(notifications, s.notifications)

	return Snapshot{
		State:         s.state,
		Camera:        s.camera,
		Notifications: notifications,
		Err:           s.err,
		ToggleErr:     s.toggleErr,
	}
}

// Close releases the live channel. Exactly the subscription opened by Start
// is closed, exactly once, and nothing delivered afterwards mutates the
// session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		sub := s.sub
		s.mu.Unlock()
		if sub != nil {
			sub.Close()
		}
		s.wg.Wait()
	})
}

func (s *Session) setState(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.err = err
	s.mu.Unlock()
}
