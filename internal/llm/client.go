// Package llm talks to an Ollama compatible /api/generate endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"safepath/internal/metrics"
	"safepath/pkg/logger"
)

var tracer = otel.Tracer("safepath.llm")

var (
	ErrUnreachable       = errors.New("Cannot reach LLM server")
	ErrInvalidEnvelope   = errors.New("Invalid response from LLM")
	ErrUnexpectedPayload = errors.New("Unexpected LLM payload format")
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format"`
	Options map[string]any `json:"options"`
}

func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log.With("component", "llm"),
	}
}

// Generate sends one non-streaming JSON-mode request and returns the raw
// "response" string. There is no retry.
func (c *Client) Generate(ctx context.Context, model, prompt string, temperature float64) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", model))

	start := time.Now()
	text, err := c.generate(ctx, model, prompt, temperature)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn("generate failed", "model", model, "error", err)
	}
	metrics.LLMRequest(model, outcome, time.Since(start))
	return text, err
}

func (c *Client) generate(ctx context.Context, model, prompt string, temperature float64) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  false,
		Format:  "json",
		Options: map[string]any{"temperature": temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", ErrInvalidEnvelope
	}
	v, ok := envelope["response"]
	if !ok {
		return "", nil
	}
	text, ok := v.(string)
	if !ok {
		return "", ErrUnexpectedPayload
	}
	return text, nil
}
