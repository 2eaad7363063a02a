package detect

import (
	"context"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nlind/camwatch-api/internal/models"
	"github.com/nlind/camwatch-api/internal/repository"
)

// DockerController runs one detector container per camera on the local
// Docker daemon. Starting detection creates and starts the container with
// the camera's address in its environment; stopping removes it.
type DockerController struct {
	cli     *client.Client
	cameras repository.CameraRepository
	image   string
	prefix  string
	logger  zerolog.Logger
}

func NewDockerController(cli *client.Client, cameras repository.CameraRepository, detectorImage, containerPrefix string, logger zerolog.Logger) *DockerController {
	if containerPrefix == "" {
		containerPrefix = "camwatch-detector-"
	}
	return &DockerController{
		cli:     cli,
		cameras: cameras,
		image:   detectorImage,
		prefix:  containerPrefix,
		logger:  logger.With().Str("component", "docker_controller").Logger(),
	}
}

func (c *DockerController) SetStatus(ctx context.Context, status models.DetectionStatus, cameraID string) error {
	if status == models.DetectionStarted {
		return c.start(ctx, cameraID)
	}
	return c.stop(ctx, cameraID)
}

func (c *DockerController) start(ctx context.Context, cameraID string) error {
	cam, err := c.cameras.GetByID(ctx, cameraID)
	if err != nil {
		return errors.Wrapf(err, "load camera %s", cameraID)
	}

	// Pull only when the image is missing locally.
	if _, err := c.cli.ImageInspect(ctx, c.image); err != nil {
		c.logger.Info().Str("image", c.image).Msg("detector image not found locally, pulling")
		reader, err := c.cli.ImagePull(ctx, c.image, image.PullOptions{})
		if err != nil {
			return errors.Wrap(err, "pull detector image")
		}
		io.Copy(io.Discard, reader)
		reader.Close()
	}

	containerConfig := &container.Config{
		Image: c.image,
		Env: []string{
			"CAMERA_ID=" + cam.ID,
			"CAMERA_ADDRESS=" + cam.Address,
			"CAMERA_NAME=" + cam.Name,
		},
	}
	hostConfig := &container.HostConfig{
		AutoRemove: true,
	}

	resp, err := c.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, c.containerName(cameraID))
	if err != nil {
		return errors.Wrapf(err, "create detector container for camera %s", cameraID)
	}
	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return errors.Wrapf(err, "start detector container %s", resp.ID)
	}

	c.logger.Info().Str("camera_id", cameraID).Str("container_id", resp.ID).Msg("detector container started")
	return nil
}

func (c *DockerController) stop(ctx context.Context, cameraID string) error {
	name := c.containerName(cameraID)
	if err := c.cli.ContainerStop(ctx, name, container.StopOptions{}); err != nil {
		return errors.Wrapf(err, "stop detector container %s", name)
	}
	c.logger.Info().Str("camera_id", cameraID).Str("container", name).Msg("detector container stopped")
	return nil
}

func (c *DockerController) containerName(cameraID string) string {
	return c.prefix + cameraID
}
