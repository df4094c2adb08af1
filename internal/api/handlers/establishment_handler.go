package handlers

import (
	"net/http"

	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/entities"
)

// EstablishmentHandler serves the aggregated establishment list
type EstablishmentHandler struct {
	establishments *services.EstablishmentService
	updates        *services.CommunityUpdateService
}

// NewEstablishmentHandler creates a new establishment handler
func NewEstablishmentHandler(establishments *services.EstablishmentService, updates *services.CommunityUpdateService) *EstablishmentHandler {
	return &EstablishmentHandler{
		establishments: establishments,
		updates:        updates,
	}
}

type establishmentDetail struct {
	*entities.Establishment
	Hours         string                        `json:"hours"`
	Description   string                        `json:"description"`
	DirectionsURL string                        `json:"directions_url"`
	LatestUpdate  *entities.CommunityUpdateView `json:"latest_update,omitempty"`
}

// ListEstablishments handles GET /api/establishments?q=&category=
func (h *EstablishmentHandler) ListEstablishments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	list, err := h.establishments.Search(r.Context(), query.Get("q"), query.Get("category"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"establishments": list,
		"count":          len(list),
	})
}

// NearbyEstablishments handles GET /api/establishments/nearby?lat=&lng=&radius=
func (h *EstablishmentHandler) NearbyEstablishments(w http.ResponseWriter, r *http.Request) {
	lat, hasLat, okLat := parseFloatParam(r, "lat")
	lng, hasLng, okLng := parseFloatParam(r, "lng")
	if !okLat || !okLng || !hasLat || !hasLng {
		respondWithError(w, http.StatusBadRequest, "lat and lng parameters are required")
		return
	}
	radius, _, ok := parseFloatParam(r, "radius")
	if !ok || radius < 0 {
		respondWithError(w, http.StatusBadRequest, "invalid radius parameter")
		return
	}

	list, err := h.establishments.Nearby(r.Context(), lat, lng, radius)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"establishments": list,
		"count":          len(list),
	})
}

// GetEstablishment handles GET /api/establishments/{id}
func (h *EstablishmentHandler) GetEstablishment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "establishment ID is required")
		return
	}

	e, err := h.establishments.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	detail := establishmentDetail{
		Establishment: e,
		Hours:         e.HoursOrDefault(),
		Description:   e.DescriptionOrDefault(),
		DirectionsURL: services.DirectionsURL(e),
	}
	if h.updates != nil {
		// A broken update store should not hide the establishment.
		if latest, err := h.updates.Latest(r.Context(), id); err == nil {
			detail.LatestUpdate = latest
		}
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// RefreshEstablishments handles POST /api/establishments/refresh
func (h *EstablishmentHandler) RefreshEstablishments(w http.ResponseWriter, r *http.Request) {
	list, err := h.establishments.Refresh(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(list),
	})
}
