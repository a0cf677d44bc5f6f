// Package detector talks to the deepfake detection backend over HTTP.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	"github.com/deepscan/deepscan/pkg/models"
)

// Sentinel errors for detector client failures.
var (
	ErrDetectorUnreachable = errors.New("detector unreachable")
	ErrDetectorTimeout     = errors.New("detector timeout")
	ErrDetectionFailed     = errors.New("detection failed")
	ErrImageRejected       = errors.New("image rejected")
)

// maxImageFetch bounds the size of an image downloaded by URL.
const maxImageFetch = 20 << 20

// Client is the interface for running detections.
type Client interface {
	Detect(ctx context.Context, image []byte, filename string) (*models.RawPayload, error)
	FetchImage(ctx context.Context, url string) ([]byte, string, error)
	Health(ctx context.Context) error
}

// HTTPClient implements Client using the detector's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new detector HTTP client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Detect uploads an image and returns the detector's raw verdict. The payload
// is decoded but not interpreted; reconciliation owns the semantics.
func (c *HTTPClient) Detect(ctx context.Context, image []byte, filename string) (*models.RawPayload, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("building multipart form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("writing image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart form: %w", err)
	}

	u := fmt.Sprintf("%s/detect?format=summary", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: status %d", ErrImageRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrDetectionFailed, resp.StatusCode)
	}

	var payload models.RawPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding detector response: %w", err)
	}

	return &payload, nil
}

// FetchImage downloads an image by URL, returning its bytes and the reported
// content type.
func (c *HTTPClient) FetchImage(ctx context.Context, url string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, "", classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: fetching image (status %d)", ErrImageRejected, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageFetch+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading image body: %w", err)
	}
	if len(data) > maxImageFetch {
		return nil, "", fmt.Errorf("%w: image exceeds %d bytes", ErrImageRejected, maxImageFetch)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// Health probes the detector's health endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	u := fmt.Sprintf("%s/health", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDetectorUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: detector not healthy (status %d)", ErrDetectorUnreachable, resp.StatusCode)
	}

	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrDetectorTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrDetectorTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrDetectorUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrDetectorUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
