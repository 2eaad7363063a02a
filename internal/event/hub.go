// Package event implements the in-process live-update channel: new
// notifications are published once and fanned out to every subscription
// opened for the matching camera.
package event

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/models"
)

const defaultBuffer = 16

type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[string]*Subscription // camera id -> subscription id -> sub
	buffer int
	logger zerolog.Logger
}

// Subscription is a handle on one live channel scoped to a single camera.
// Each handle carries a unique id so re-subscribing to the same camera never
// collides with a previous channel.
type Subscription struct {
	ID       string
	CameraID string

	hub  *Hub
	ch   chan models.Notification
	once sync.Once
}

func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[string]*Subscription),
		buffer: buffer,
		logger: logger.With().Str("component", "event_hub").Logger(),
	}
}

// Subscribe opens a live channel delivering notifications created for the
// given camera. The caller owns the handle and must Close it.
func (h *Hub) Subscribe(cameraID string) *Subscription {
	sub := &Subscription{
		ID:       uuid.NewString(),
		CameraID: cameraID,
		hub:      h,
		ch:       make(chan models.Notification, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[cameraID] == nil {
		h.subs[cameraID] = make(map[string]*Subscription)
	}
	h.subs[cameraID][sub.ID] = sub
	return sub
}

// Publish delivers the notification to every subscription for its camera.
// Sends never block: a subscriber that has fallen behind loses the event.
func (h *Hub) Publish(notif models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs[notif.CameraID] {
		select {
		case sub.ch <- notif:
		default:
			h.logger.Warn().
				Str("subscription_id", sub.ID).
				Str("camera_id", notif.CameraID).
				Msg("subscriber buffer full, dropping notification")
		}
	}
}

// Notify lets the hub act as a notification delivery channel alongside the
// persistence path.
func (h *Hub) Notify(_ context.Context, notif models.Notification) error {
	h.Publish(notif)
	return nil
}

func (h *Hub) String() string { return "event_hub" }

// SubscriberCount reports how many channels are open for a camera.
func (h *Hub) SubscriberCount(cameraID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[cameraID])
}

// Events is the receive side of the subscription. The channel is closed by
// Close; no event is delivered after that.
func (s *Subscription) Events() <-chan models.Notification {
	return s.ch
}

// Close releases the channel. Safe to call more than once; only the first
// call unregisters and closes.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if subs, ok := s.hub.subs[s.CameraID]; ok {
			delete(subs, s.ID)
			if len(subs) == 0 {
				delete(s.hub.subs, s.CameraID)
			}
		}
		s.hub.mu.Unlock()
		close(s.ch)
	})
}
