package handlers

import (
	"net/http"
	"strconv"

	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/entities"
)

const defaultUpdatesLimit = 50

// CommunityUpdateHandler handles community update endpoints
type CommunityUpdateHandler struct {
	updates *services.CommunityUpdateService
}

// NewCommunityUpdateHandler creates a new community update handler
func NewCommunityUpdateHandler(updates *services.CommunityUpdateService) *CommunityUpdateHandler {
	return &CommunityUpdateHandler{updates: updates}
}

type createUpdateRequest struct {
	EstablishmentID   string `json:"establishment_id"`
	Type              string `json:"type"`
	Content           string `json:"content"`
	EstablishmentName string `json:"establishment_name"`
}

// ListUpdates handles GET /api/community-updates?limit=
func (h *CommunityUpdateHandler) ListUpdates(w http.ResponseWriter, r *http.Request) {
	limit := defaultUpdatesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	views, err := h.updates.ListAll(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"updates": views})
}

// ListEstablishmentUpdates handles GET /api/establishments/{id}/updates
func (h *CommunityUpdateHandler) ListEstablishmentUpdates(w http.ResponseWriter, r *http.Request) {
	views, err := h.updates.ListForEstablishment(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"updates": views})
}

// CreateUpdate handles POST /api/community-updates
func (h *CommunityUpdateHandler) CreateUpdate(w http.ResponseWriter, r *http.Request) {
	var body createUpdateRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	update, err := h.updates.Create(r.Context(), bearerToken(r), services.CreateUpdateRequest{
		EstablishmentID:   body.EstablishmentID,
		Type:              entities.UpdateType(body.Type),
		Content:           body.Content,
		EstablishmentName: body.EstablishmentName,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, h.updates.View(update))
}
