package handlers_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sixassist/cityassist/internal/adapters/events"
	"github.com/sixassist/cityassist/internal/api/handlers"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvent reads one "event:/data:" block.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestSSEHandler_StreamsEstablishmentUpdates(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	handler := handlers.NewSSEHandler(bus, nil).WithHeartbeat(time.Hour)
	server := httptest.NewServer(http.HandlerFunc(handler.StreamCommunityUpdates))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?establishment_id=est-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	name, data := readEvent(t, reader)
	assert.Equal(t, "connected", name)
	assert.Contains(t, data, "establishment:est-1")
	assert.Equal(t, 1, handler.ClientCount(providers.GetEstablishmentChannel("est-1")))

	// Other establishments are not delivered.
	require.NoError(t, bus.Publish(ctx, providers.GetEstablishmentChannel("est-2"),
		&entities.CommunityUpdate{ID: "u0", EstablishmentID: "est-2"}))
	require.NoError(t, bus.Publish(ctx, providers.GetEstablishmentChannel("est-1"),
		&entities.CommunityUpdate{ID: "u1", EstablishmentID: "est-1", Type: entities.UpdateTypeMeals, Content: "Soup"}))

	name, data = readEvent(t, reader)
	assert.Equal(t, "community_update", name)
	assert.Contains(t, data, `"id":"u1"`)
	assert.Contains(t, data, `"content":"Soup"`)
}

func TestSSEHandler_Heartbeat(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	handler := handlers.NewSSEHandler(bus, nil).WithHeartbeat(20 * time.Millisecond)
	server := httptest.NewServer(http.HandlerFunc(handler.StreamCommunityUpdates))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	name, data := readEvent(t, reader)
	assert.Equal(t, "connected", name)
	assert.Contains(t, data, providers.EventChannelCommunityUpdates)

	name, _ = readEvent(t, reader)
	assert.Equal(t, "heartbeat", name)
}
