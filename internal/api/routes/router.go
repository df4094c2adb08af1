package routes

import (
	"net/http"

	"github.com/sixassist/cityassist/internal/api/handlers"
	"github.com/sixassist/cityassist/internal/api/middleware"
	"github.com/sixassist/cityassist/internal/infrastructure/observability"
)

// Handlers groups the route handlers. Nil handlers leave their routes
// unregistered.
type Handlers struct {
	Establishment   *handlers.EstablishmentHandler
	Search          *handlers.SearchHandler
	Geocode         *handlers.GeocodeHandler
	Location        *handlers.LocationHandler
	User            *handlers.UserHandler
	CommunityUpdate *handlers.CommunityUpdateHandler
	SSE             *handlers.SSEHandler
	Announcement    *handlers.AnnouncementHandler
	Preference      *handlers.PreferenceHandler
}

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	handlers        Handlers
	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	h Handlers,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		handlers:        h,
		cacheMiddleware: cacheMiddleware,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	h := r.handlers

	if h.Establishment != nil {
		r.mux.HandleFunc("GET /api/establishments", h.Establishment.ListEstablishments)
		r.mux.HandleFunc("GET /api/establishments/nearby", h.Establishment.NearbyEstablishments)
		r.mux.HandleFunc("GET /api/establishments/{id}", h.Establishment.GetEstablishment)
		r.mux.HandleFunc("POST /api/establishments/refresh", h.Establishment.RefreshEstablishments)
	}

	if h.Search != nil {
		r.mux.HandleFunc("POST /api/search", h.Search.Search)
		r.mux.HandleFunc("GET /api/crisis", h.Search.Crisis)
	}

	if h.Geocode != nil {
		r.mux.HandleFunc("GET /api/geocode", h.Geocode.Geocode)
	}

	if h.Location != nil {
		r.mux.HandleFunc("POST /api/location", h.Location.UpdateLocation)
		r.mux.HandleFunc("GET /api/location/{session}", h.Location.GetLocation)
	}

	if h.User != nil {
		r.mux.HandleFunc("POST /api/auth/signin", h.User.SignIn)
		r.mux.HandleFunc("POST /api/auth/signout", h.User.SignOut)
		r.mux.HandleFunc("GET /api/me", h.User.Me)
		r.mux.HandleFunc("GET /api/me/saved", h.User.ListSaved)
		r.mux.HandleFunc("PUT /api/me/saved/{id}", h.User.Save)
		r.mux.HandleFunc("DELETE /api/me/saved/{id}", h.User.Unsave)
	}

	if h.CommunityUpdate != nil {
		r.mux.HandleFunc("GET /api/community-updates", h.CommunityUpdate.ListUpdates)
		r.mux.HandleFunc("POST /api/community-updates", h.CommunityUpdate.CreateUpdate)
		r.mux.HandleFunc("GET /api/establishments/{id}/updates", h.CommunityUpdate.ListEstablishmentUpdates)
	}

	if h.SSE != nil {
		r.mux.HandleFunc("GET /api/stream/community-updates", h.SSE.StreamCommunityUpdates)
	}

	if h.Announcement != nil {
		r.mux.HandleFunc("GET /api/announcements", h.Announcement.ListAnnouncements)
	}

	if h.Preference != nil {
		r.mux.HandleFunc("GET /api/preferences/{session}", h.Preference.GetPreferences)
		r.mux.HandleFunc("PUT /api/preferences/{session}", h.Preference.PutPreferences)
	}

	// Last middleware applied is outermost.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache hits.
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
