package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nlind/camwatch-api/internal/models"
)

type CameraRepository interface {
	Create(ctx context.Context, params CreateCameraParams) (models.Camera, error)
	GetByID(ctx context.Context, id string) (models.Camera, error)
	List(ctx context.Context) ([]models.Camera, error)
	UpdateDetectionStatus(ctx context.Context, id string, status models.DetectionStatus) (models.Camera, error)
}

type cameraRepository struct {
	db *sql.DB
}

type CreateCameraParams struct {
	Name    string
	Address string
}

func NewCameraRepository(db *sql.DB) CameraRepository {
	return &cameraRepository{db: db}
}

func (r *cameraRepository) Create(ctx context.Context, params CreateCameraParams) (models.Camera, error) {
	const query = `
		INSERT INTO cameras (name, address)
		VALUES ($1, $2)
		RETURNING id, name, address, detection_status, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, query, strings.TrimSpace(params.Name), strings.TrimSpace(params.Address))
	return scanCamera(row)
}

// GetByID returns sql.ErrNoRows unchanged when the camera does not exist;
// callers treat that as the not-found signal rather than a failure.
func (r *cameraRepository) GetByID(ctx context.Context, id string) (models.Camera, error) {
	const query = `
		SELECT id, name, address, detection_status, created_at, updated_at
		FROM cameras
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, strings.TrimSpace(id))
	return scanCamera(row)
}

func (r *cameraRepository) List(ctx context.Context) ([]models.Camera, error) {
	const query = `
		SELECT id, name, address, detection_status, created_at, updated_at
		FROM cameras
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cameras []models.Camera
	for rows.Next() {
		cam, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}
		cameras = append(cameras, cam)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cameras, nil
}

func (r *cameraRepository) UpdateDetectionStatus(ctx context.Context, id string, status models.DetectionStatus) (models.Camera, error) {
	const query = `
		UPDATE cameras
		SET detection_status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, address, detection_status, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, query, strings.TrimSpace(id), status)
	return scanCamera(row)
}

func scanCamera(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Camera, error) {
	var cam models.Camera
	if err := scanner.Scan(
		&cam.ID,
		&cam.Name,
		&cam.Address,
		&cam.DetectionStatus,
		&cam.CreatedAt,
		&cam.UpdatedAt,
	); err != nil {
		return models.Camera{}, err
	}
	return cam, nil
}
