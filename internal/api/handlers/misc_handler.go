package handlers

import (
	"net/http"

	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/entities"
)

// AnnouncementHandler serves service notices
type AnnouncementHandler struct {
	announcements *services.AnnouncementService
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(announcements *services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// ListAnnouncements handles GET /api/announcements
func (h *AnnouncementHandler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"announcements": h.announcements.List(),
	})
}

// PreferenceHandler stores per-session UI flags
type PreferenceHandler struct {
	preferences *services.PreferenceService
}

// NewPreferenceHandler creates a new preference handler
func NewPreferenceHandler(preferences *services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferences: preferences}
}

// GetPreferences handles GET /api/preferences/{session}
func (h *PreferenceHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.preferences.Get(r.Context(), r.PathValue("session"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, prefs)
}

// PutPreferences handles PUT /api/preferences/{session}
func (h *PreferenceHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs entities.Preferences
	if !decodeJSON(w, r, &prefs) {
		return
	}
	if err := h.preferences.Set(r.Context(), r.PathValue("session"), &prefs); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, prefs)
}
