package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/entities"
)

// SearchHandler serves ranked search and the crisis check
type SearchHandler struct {
	search      *services.SearchService
	coordinator *services.SearchCoordinator
	locations   *services.LocationService
}

// NewSearchHandler creates a new search handler. locations may be nil.
func NewSearchHandler(search *services.SearchService, coordinator *services.SearchCoordinator, locations *services.LocationService) *SearchHandler {
	if coordinator == nil {
		coordinator = services.NewSearchCoordinator()
	}
	return &SearchHandler{
		search:      search,
		coordinator: coordinator,
		locations:   locations,
	}
}

type searchRequest struct {
	Query     string   `json:"query"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lng"`
	SessionID string   `json:"session_id"`
}

// Search handles POST /api/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	req := services.SearchRequest{Query: body.Query}
	switch {
	case body.Latitude != nil && body.Longitude != nil:
		req.Latitude, req.Longitude, req.HasLocation = *body.Latitude, *body.Longitude, true
	case body.SessionID != "" && h.locations != nil:
		if reading, err := h.locations.Latest(body.SessionID); err == nil {
			req.Latitude, req.Longitude, req.HasLocation = reading.Latitude, reading.Longitude, true
		}
	}

	ctx := r.Context()
	var token uint64
	if body.SessionID != "" {
		ctx, token = h.coordinator.Begin(ctx, body.SessionID)
		defer h.coordinator.End(body.SessionID, token)
	}

	result, err := h.search.Search(ctx, req)
	if body.SessionID != "" && !h.coordinator.IsCurrent(body.SessionID, token) {
		log.Debug().Str("session_id", body.SessionID).Msg("dropping superseded search")
		respondWithError(w, http.StatusConflict, "search superseded by a newer one")
		return
	}
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Crisis handles GET /api/crisis?q= and answers without waiting on ranking.
func (h *SearchHandler) Crisis(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	crisis := services.IsCrisisQuery(q)

	resp := map[string]interface{}{
		"crisis": crisis,
	}
	if crisis {
		resp["emergency_contacts"] = entities.EmergencyContacts
	}
	respondWithJSON(w, http.StatusOK, resp)
}
