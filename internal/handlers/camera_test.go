package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlind/camwatch-api/internal/models"
	"github.com/nlind/camwatch-api/internal/repository"
)

// fakeCameraRepo implements repository.CameraRepository backed by a map.
type fakeCameraRepo struct {
	mu      sync.Mutex
	cameras map[string]models.Camera
	updates []models.DetectionStatus
	err     error
}

func newFakeCameraRepo(cameras ...models.Camera) *fakeCameraRepo {
	repo := &fakeCameraRepo{cameras: make(map[string]models.Camera)}
	for _, cam := range cameras {
		repo.cameras[cam.ID] = cam
	}
	return repo
}

func (f *fakeCameraRepo) Create(ctx context.Context, params repository.CreateCameraParams) (models.Camera, error) {
	if f.err != nil {
		return models.Camera{}, f.err
	}
	cam := models.Camera{
		ID:              "cam-new",
		Name:            strings.TrimSpace(params.Name),
		Address:         strings.TrimSpace(params.Address),
		DetectionStatus: models.DetectionStopped,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.mu.Lock()
	f.cameras[cam.ID] = cam
	f.mu.Unlock()
	return cam, nil
}

func (f *fakeCameraRepo) GetByID(ctx context.Context, id string) (models.Camera, error) {
	if f.err != nil {
		return models.Camera{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cam, ok := f.cameras[id]
	if !ok {
		return models.Camera{}, sql.ErrNoRows
	}
	return cam, nil
}

func (f *fakeCameraRepo) List(ctx context.Context) ([]models.Camera, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Camera, 0, len(f.cameras))
	for _, cam := range f.cameras {
		out = append(out, cam)
	}
	return out, nil
}

func (f *fakeCameraRepo) UpdateDetectionStatus(ctx context.Context, id string, status models.DetectionStatus) (models.Camera, error) {
	if f.err != nil {
		return models.Camera{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cam, ok := f.cameras[id]
	if !ok {
		return models.Camera{}, sql.ErrNoRows
	}
	cam.DetectionStatus = status
	f.cameras[id] = cam
	f.updates = append(f.updates, status)
	return cam, nil
}

func testCamera() models.Camera {
	return models.Camera{
		ID:              "cam-1",
		Name:            "Front door",
		Address:         "http://10.0.0.12:8081/stream",
		DetectionStatus: models.DetectionStopped,
	}
}

func TestCameraHandlerGet(t *testing.T) {
	handler := NewCameraHandler(newFakeCameraRepo(testCamera()), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/cameras/cam-1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "cam-1"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Camera
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "cam-1", got.ID)
	assert.Equal(t, models.DetectionStopped, got.DetectionStatus)
}

func TestCameraHandlerGetNotFound(t *testing.T) {
	handler := NewCameraHandler(newFakeCameraRepo(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/cameras/cam-missing", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "cam-missing"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCameraHandlerCreate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"valid", `{"name":"Front door","address":"http://10.0.0.12:8081/stream"}`, http.StatusCreated},
		{"missing name", `{"address":"http://10.0.0.12:8081/stream"}`, http.StatusBadRequest},
		{"missing address", `{"name":"Front door"}`, http.StatusBadRequest},
		{"malformed json", `{`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewCameraHandler(newFakeCameraRepo(), zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/api/cameras", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestCameraHandlerList(t *testing.T) {
	handler := NewCameraHandler(newFakeCameraRepo(testCamera()), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/cameras", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Cameras []models.Camera `json:"cameras"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Len(t, got.Cameras, 1)
}
