package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/providers"
)

const defaultHeartbeat = 30 * time.Second

// SSEHandler streams community updates as Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	updates   *services.CommunityUpdateService
	heartbeat time.Duration

	mu      sync.Mutex
	clients map[string]int // channel -> connected clients
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, updates *services.CommunityUpdateService) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		updates:   updates,
		heartbeat: defaultHeartbeat,
		clients:   make(map[string]int),
	}
}

// WithHeartbeat overrides the heartbeat interval
func (h *SSEHandler) WithHeartbeat(d time.Duration) *SSEHandler {
	h.heartbeat = d
	return h
}

// ClientCount returns the number of clients connected to a channel
func (h *SSEHandler) ClientCount(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients[channel]
}

// StreamCommunityUpdates handles GET /api/stream/community-updates
// Optional ?establishment_id= narrows the stream to one establishment.
func (h *SSEHandler) StreamCommunityUpdates(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	channel := providers.EventChannelCommunityUpdates
	establishmentID := r.URL.Query().Get("establishment_id")
	if establishmentID != "" {
		channel = providers.GetEstablishmentChannel(establishmentID)
	}

	events, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		respondWithError(w, http.StatusServiceUnavailable, "updates stream unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.register(channel, 1)
	defer h.register(channel, -1)

	h.sendEvent(w, "connected", map[string]interface{}{
		"channel":   channel,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("channel", channel).Msg("client disconnected from update stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case update, ok := <-events:
			if !ok {
				return
			}
			if update == nil {
				continue
			}
			var payload interface{} = update
			if h.updates != nil {
				payload = h.updates.View(update)
			}
			h.sendEvent(w, "community_update", payload)
			flusher.Flush()
		}
	}
}

func (h *SSEHandler) register(channel string, delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[channel] += delta
	if h.clients[channel] <= 0 {
		delete(h.clients, channel)
	}
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
