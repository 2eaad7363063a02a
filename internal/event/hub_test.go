package event

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlind/camwatch-api/internal/models"
)

func testHub(buffer int) *Hub {
	return NewHub(buffer, zerolog.Nop())
}

func receiveOne(t *testing.T, sub *Subscription) models.Notification {
	t.Helper()
	select {
	case notif, ok := <-sub.Events():
		require.True(t, ok, "channel closed before delivery")
		return notif
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func TestHubDeliversToMatchingCamera(t *testing.T) {
	hub := testHub(4)
	sub := hub.Subscribe("cam-1")
	defer sub.Close()

	other := hub.Subscribe("cam-2")
	defer other.Close()

	notif := models.Notification{ID: "n-1", CameraID: "cam-1", Message: "Motion detected"}
	hub.Publish(notif)

	got := receiveOne(t, sub)
	assert.Equal(t, notif, got)

	select {
	case unexpected := <-other.Events():
		t.Fatalf("subscription for cam-2 received %+v", unexpected)
	default:
	}
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	hub := testHub(4)
	first := hub.Subscribe("cam-1")
	defer first.Close()
	second := hub.Subscribe("cam-1")
	defer second.Close()

	require.NotEqual(t, first.ID, second.ID, "subscription keys must be unique")
	require.Equal(t, 2, hub.SubscriberCount("cam-1"))

	hub.Publish(models.Notification{ID: "n-1", CameraID: "cam-1"})

	assert.Equal(t, "n-1", receiveOne(t, first).ID)
	assert.Equal(t, "n-1", receiveOne(t, second).ID)
}

func TestHubPreservesDeliveryOrder(t *testing.T) {
	hub := testHub(8)
	sub := hub.Subscribe("cam-1")
	defer sub.Close()

	ids := []string{"n-1", "n-2", "n-3"}
	for _, id := range ids {
		hub.Publish(models.Notification{ID: id, CameraID: "cam-1"})
	}

	for _, id := range ids {
		assert.Equal(t, id, receiveOne(t, sub).ID)
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	hub := testHub(1)
	sub := hub.Subscribe("cam-1")
	defer sub.Close()

	hub.Publish(models.Notification{ID: "n-1", CameraID: "cam-1"})
	hub.Publish(models.Notification{ID: "n-2", CameraID: "cam-1"}) // dropped

	assert.Equal(t, "n-1", receiveOne(t, sub).ID)
	select {
	case notif := <-sub.Events():
		t.Fatalf("expected drop, received %+v", notif)
	default:
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := testHub(4)
	sub := hub.Subscribe("cam-1")

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.SubscriberCount("cam-1"))

	// Publishing after close must not panic or deliver.
	hub.Publish(models.Notification{ID: "n-1", CameraID: "cam-1"})

	_, ok := <-sub.Events()
	assert.False(t, ok, "channel should be closed")
}
