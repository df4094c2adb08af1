package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/infrastructure/observability"
	"github.com/sixassist/cityassist/pkg/config"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("gemini response missing text")

// Client implements providers.TextGenerator on top of the Gemini API.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
	limiter     *tokenBucket
	metrics     *observability.Metrics
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg *config.GeminiConfig, metrics *observability.Metrics) (*Client, error) {
	return NewClientWithHTTPClient(ctx, cfg, metrics, nil)
}

// NewClientWithHTTPClient creates a client that sends requests through
// httpClient, used by tests to point at a local server.
func NewClientWithHTTPClient(ctx context.Context, cfg *config.GeminiConfig, metrics *observability.Metrics, httpClient *http.Client) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &Client{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		limiter:     newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst),
		metrics:     metrics,
	}, nil
}

// Generate sends one system/user prompt pair and returns the raw text.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	ctx, span := observability.StartSpan(ctx, "gemini.generate")
	defer span.End()

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
		ResponseMIMEType:  "application/json",
	})
	duration := time.Since(start)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordGenerate(ctx, c.metrics, c.model, duration, err)
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		observability.RecordGenerate(ctx, c.metrics, c.model, duration, ErrEmptyResponse)
		return "", ErrEmptyResponse
	}

	observability.RecordGenerate(ctx, c.metrics, c.model, duration, nil)
	log.Debug().Str("model", c.model).Dur("duration", duration).Int("chars", len(text)).Msg("gemini response received")
	return text, nil
}
