package handlers

import (
	"net/http"

	"github.com/sixassist/cityassist/internal/application/services"
)

// UserHandler handles sign-in and the saved establishment list
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// SignIn handles POST /api/auth/signin
func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	session, err := h.users.SignIn(r.Context(), body.Email)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

// SignOut handles POST /api/auth/signout
func (h *UserHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.users.SignOut(r.Context(), bearerToken(r)); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Current(r.Context(), bearerToken(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// ListSaved handles GET /api/me/saved
func (h *UserHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	saved, err := h.users.SavedList(r.Context(), bearerToken(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"saved": saved})
}

// Save handles PUT /api/me/saved/{id}
func (h *UserHandler) Save(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Save(r.Context(), bearerToken(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"saved": user.SavedEstablishments})
}

// Unsave handles DELETE /api/me/saved/{id}
func (h *UserHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Unsave(r.Context(), bearerToken(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"saved": user.SavedEstablishments})
}
