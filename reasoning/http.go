package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skillsenselab/docflow/errors"
	"github.com/skillsenselab/docflow/logger"
)

// HTTPConfig configures the HTTP reasoning client.
type HTTPConfig struct {
	// BaseURL is the service root, e.g. "http://localhost:11434".
	BaseURL string
	// Model names the model to complete with.
	Model string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// Timeout bounds each request. Defaults to 60 seconds.
	Timeout time.Duration
	// CostPerThousandTokens converts billed tokens to account units.
	CostPerThousandTokens float64
}

// ApplyDefaults applies default values to the config.
func (c *HTTPConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// HTTPClient is a Client backed by an HTTP reasoning service.
type HTTPClient struct {
	config HTTPConfig
	client *http.Client
	log    *logger.Logger
}

// NewHTTPClient creates an HTTP reasoning client.
func NewHTTPClient(config HTTPConfig, log *logger.Logger) *HTTPClient {
	config.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    log.WithComponent("reasoning"),
	}
}

type completeRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type completeResponse struct {
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
	Error  string `json:"error,omitempty"`
}

// Complete sends the prompt to the service and returns the completion
// with usage accounting attached. Failures are classified so callers
// can apply kind-aware retry.
func (c *HTTPClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Prompt == "" {
		return nil, errors.MissingField("prompt")
	}

	body, err := json.Marshal(completeRequest{
		Model:       c.config.Model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}

	url := c.config.BaseURL + "/v1/complete"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Internal(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Timeout("reasoning completion")
		}
		return nil, errors.ConnectionFailed("reasoning service").WithCause(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
	if err != nil {
		return nil, errors.ExternalService("reasoning service", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, c.classifyStatus(httpResp.StatusCode, respBody)
	}

	var parsed completeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.ExternalService("reasoning service", err)
	}
	if parsed.Error != "" {
		return nil, errors.ExternalService("reasoning service",
			stderrors.New(parsed.Error))
	}

	resp := &Response{
		Text:   parsed.Text,
		Tokens: parsed.Tokens,
		Cost:   float64(parsed.Tokens) * c.config.CostPerThousandTokens / 1000,
	}

	c.log.Debug("completion finished", logger.Fields(
		"model", c.config.Model,
		logger.FieldTokens, resp.Tokens,
		logger.FieldCost, resp.Cost,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return resp, nil
}

// classifyStatus maps HTTP status codes to error kinds: client-side
// mistakes abort (stop kinds), capacity and server failures retry.
func (c *HTTPClient) classifyStatus(status int, body []byte) error {
	detail := fmt.Sprintf("status %d: %s", status, truncate(body, 200))
	switch {
	case status == http.StatusUnauthorized:
		return errors.Unauthorized(detail)
	case status == http.StatusForbidden:
		return errors.Forbidden(detail)
	case status == http.StatusBadRequest:
		return errors.Validation(detail)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return errors.Timeout("reasoning completion")
	default:
		return errors.ExternalService("reasoning service", stderrors.New(detail))
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
