package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sixassist/cityassist/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClientWithHTTPClient(context.Background(), &config.GeminiConfig{
		APIKey:       "test-key",
		BaseURL:      server.URL + "/",
		Model:        "gemini-test",
		Temperature:  0.2,
		RateLimitRPM: -1,
	}, nil, server.Client())
	require.NoError(t, err)
	return client
}

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), &config.GeminiConfig{}, nil)
	assert.Error(t, err)

	_, err = NewClient(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestGenerate_ReturnsText(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(candidateResponse(`{"summary":"ok","resources":[]}`))
	})

	text, err := client.Generate(context.Background(), "system rules", "find food")
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok","resources":[]}`, text)

	raw, _ := json.Marshal(body)
	assert.Contains(t, string(raw), "system rules")
	assert.Contains(t, string(raw), "find food")
}

func TestGenerate_EmptyText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(candidateResponse("   "))
	})

	_, err := client.Generate(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerate_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := client.Generate(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestTokenBucket(t *testing.T) {
	assert.Nil(t, newTokenBucket(-1, 5))

	bucket := newTokenBucket(1, 1)
	require.NotNil(t, bucket)
	require.NoError(t, bucket.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bucket.Wait(ctx), context.DeadlineExceeded)
}
