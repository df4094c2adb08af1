package handlers

import (
	"net/http"
	"strings"

	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/pkg/utils"
)

// GeocodeHandler handles geocoding endpoints.
type GeocodeHandler struct {
	geocoder *services.GeocodingService
}

// NewGeocodeHandler creates a new geocode handler.
func NewGeocodeHandler(geocoder *services.GeocodingService) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Geocode handles GET /api/geocode?address=...
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	coords, err := h.geocoder.Geocode(r.Context(), address)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"address":    address,
		"normalized": utils.NormalizeIntersection(address),
		"lat":        coords.Latitude,
		"lng":        coords.Longitude,
	})
}
