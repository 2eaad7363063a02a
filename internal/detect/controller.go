// Package detect talks to the external detection process: a controller
// receives the desired running state for one camera's detector and applies
// it. Calls are fire-and-forget from the caller's point of view; no retries,
// no reconciliation.
package detect

import (
	"context"

	"github.com/nlind/camwatch-api/internal/models"
)

type Controller interface {
	SetStatus(ctx context.Context, status models.DetectionStatus, cameraID string) error
}
