package prophet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/forecast"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
)

// Client talks to the Prophet backend over HTTP. All calls take a context;
// cancelling it aborts the in-flight request, which is how forecast
// cancellation actually stops work.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.ChanneledLogger
}

// NewClient creates a backend client with the configured timeout.
func NewClient(baseURL string, timeout time.Duration, logger *logging.ChanneledLogger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// post sends a JSON body and decodes the raw JSON object response.
func (c *Client) post(ctx context.Context, path string, body any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Backend().Error("Backend call failed",
				"path", path, "error", err.Error(), "duration", time.Since(start).String())
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	if c.logger != nil {
		c.logger.Backend().Info("Backend call completed",
			"path", path, "status", resp.StatusCode, "duration", time.Since(start).String())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		backendErr := &BackendError{StatusCode: resp.StatusCode}
		var errBody map[string]any
		if json.Unmarshal(data, &errBody) == nil {
			if msg := lookupString(errBody, "detail"); msg != "" {
				backendErr.Message = msg
			} else if msg := lookupString(errBody, "error"); msg != "" {
				backendErr.Message = msg
			}
		}
		return nil, backendErr
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode backend response from %s: %w", path, err)
	}
	return raw, nil
}

// Validate asks the backend to sanity-check a mapped series.
func (c *Client) Validate(ctx context.Context, req *ValidateRequest) (*ValidateResponse, error) {
	raw, err := c.post(ctx, "/validate", req)
	if err != nil {
		return nil, err
	}
	return NormalizeValidate(raw), nil
}

// Generate runs a full forecast. This is the long call; the caller's context
// carries the user's cancellation.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*forecast.Results, error) {
	raw, err := c.post(ctx, "/forecast", req)
	if err != nil {
		return nil, err
	}
	return NormalizeResults(raw)
}

// Clean applies a cleaning operation to the dataset.
func (c *Client) Clean(ctx context.Context, req *ProcessRequest) (*ProcessResponse, error) {
	raw, err := c.post(ctx, "/clean", req)
	if err != nil {
		return nil, err
	}
	return NormalizeProcess(raw)
}

// Transform applies a transformation operation to the dataset.
func (c *Client) Transform(ctx context.Context, req *ProcessRequest) (*ProcessResponse, error) {
	raw, err := c.post(ctx, "/transform", req)
	if err != nil {
		return nil, err
	}
	return NormalizeProcess(raw)
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &BackendError{StatusCode: resp.StatusCode}
	}
	return nil
}
