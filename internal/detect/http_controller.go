package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/nlind/camwatch-api/internal/models"
)

const defaultRequestTimeout = 10 * time.Second

// HTTPController drives a detector service over its REST control API.
type HTTPController struct {
	baseURL    string
	signingKey []byte
	client     *http.Client
}

func NewHTTPController(baseURL string, signingKey []byte) *HTTPController {
	return &HTTPController{
		baseURL:    strings.TrimRight(baseURL, "/"),
		signingKey: signingKey,
		client:     &http.Client{Timeout: defaultRequestTimeout},
	}
}

type setStatusRequest struct {
	Status models.DetectionStatus `json:"status"`
}

func (c *HTTPController) SetStatus(ctx context.Context, status models.DetectionStatus, cameraID string) error {
	body, err := json.Marshal(setStatusRequest{Status: status})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/cameras/%s/detection", c.baseURL, cameraID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.serviceToken(cameraID)
	if err != nil {
		return fmt.Errorf("sign service token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("detector request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("detector rejected status %q for camera %s (%d): %s",
			status, cameraID, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// serviceToken mints a short-lived token identifying this service to the
// detector.
func (c *HTTPController) serviceToken(cameraID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": cameraID,
		"aud": "camwatch-detector",
		"iss": "camwatch-api",
		"exp": time.Now().Add(time.Minute).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.signingKey)
}
