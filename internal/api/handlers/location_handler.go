package handlers

import (
	"net/http"
	"time"

	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/entities"
)

// LocationHandler receives device positions
type LocationHandler struct {
	locations *services.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locations *services.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

type locationRequest struct {
	SessionID      string    `json:"session_id"`
	Latitude       *float64  `json:"lat"`
	Longitude      *float64  `json:"lng"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	Sequence       uint64    `json:"sequence"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// UpdateLocation handles POST /api/location
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var body locationRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Latitude == nil || body.Longitude == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	accepted, err := h.locations.Update(entities.LocationReading{
		SessionID:      body.SessionID,
		Latitude:       *body.Latitude,
		Longitude:      *body.Longitude,
		AccuracyMeters: body.AccuracyMeters,
		Sequence:       body.Sequence,
		RecordedAt:     body.RecordedAt,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"accepted": accepted})
}

// GetLocation handles GET /api/location/{session}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	reading, err := h.locations.Latest(r.PathValue("session"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reading)
}
