package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlind/camwatch-api/internal/models"
)

type recordedCall struct {
	status   models.DetectionStatus
	cameraID string
}

type fakeDetector struct {
	mu    sync.Mutex
	calls []recordedCall
	err   error
	done  chan recordedCall
}

func newFakeDetector(err error) *fakeDetector {
	return &fakeDetector{err: err, done: make(chan recordedCall, 4)}
}

func (f *fakeDetector) SetStatus(ctx context.Context, status models.DetectionStatus, cameraID string) error {
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{status: status, cameraID: cameraID})
	f.mu.Unlock()
	f.done <- recordedCall{status: status, cameraID: cameraID}
	return f.err
}

func waitForCall(t *testing.T, detector *fakeDetector) recordedCall {
	t.Helper()
	select {
	case call := <-detector.done:
		return call
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for detector call")
		return recordedCall{}
	}
}

func TestDetectionToggle(t *testing.T) {
	repo := newFakeCameraRepo(testCamera())
	detector := newFakeDetector(nil)
	handler := NewDetectionHandler(repo, detector, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/cameras/cam-1/detection/toggle", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "cam-1"})
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var got models.Camera
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, models.DetectionStarted, got.DetectionStatus, "response carries the flipped status immediately")

	call := waitForCall(t, detector)
	assert.Equal(t, recordedCall{status: models.DetectionStarted, cameraID: "cam-1"}, call)

	stored, err := repo.GetByID(context.Background(), "cam-1")
	require.NoError(t, err)
	assert.Equal(t, models.DetectionStarted, stored.DetectionStatus)
}

func TestDetectionTogglePair(t *testing.T) {
	repo := newFakeCameraRepo(testCamera())
	detector := newFakeDetector(nil)
	handler := NewDetectionHandler(repo, detector, zerolog.Nop())

	for _, want := range []models.DetectionStatus{models.DetectionStarted, models.DetectionStopped} {
		req := httptest.NewRequest(http.MethodPost, "/api/cameras/cam-1/detection/toggle", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "cam-1"})
		rec := httptest.NewRecorder()

		handler.Toggle(rec, req)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, want, waitForCall(t, detector).status)
	}

	stored, err := repo.GetByID(context.Background(), "cam-1")
	require.NoError(t, err)
	assert.Equal(t, models.DetectionStopped, stored.DetectionStatus, "a toggle pair restores the original status")
}

func TestDetectionToggleFailureDoesNotRollBack(t *testing.T) {
	repo := newFakeCameraRepo(testCamera())
	detector := newFakeDetector(assert.AnError)
	handler := NewDetectionHandler(repo, detector, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/cameras/cam-1/detection/toggle", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "cam-1"})
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	waitForCall(t, detector)

	stored, err := repo.GetByID(context.Background(), "cam-1")
	require.NoError(t, err)
	assert.Equal(t, models.DetectionStarted, stored.DetectionStatus, "the optimistic flip is kept when the control call fails")
}

func TestDetectionToggleNotFound(t *testing.T) {
	handler := NewDetectionHandler(newFakeCameraRepo(), newFakeDetector(nil), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/cameras/cam-missing/detection/toggle", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "cam-missing"})
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
