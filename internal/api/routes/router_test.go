package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sixassist/cityassist/internal/adapters/cache"
	"github.com/sixassist/cityassist/internal/adapters/events"
	"github.com/sixassist/cityassist/internal/adapters/providers/geolocation"
	"github.com/sixassist/cityassist/internal/adapters/storage"
	"github.com/sixassist/cityassist/internal/api/handlers"
	"github.com/sixassist/cityassist/internal/api/middleware"
	"github.com/sixassist/cityassist/internal/api/routes"
	"github.com/sixassist/cityassist/internal/application/services"
	"github.com/sixassist/cityassist/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource []*entities.Establishment

func (fixedSource) Name() string { return "fixed" }
func (s fixedSource) Fetch(context.Context) ([]*entities.Establishment, error) {
	return s, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	source := fixedSource{
		{ID: "shelter-1", Name: "Seaton House", Address: "339 George St, Toronto, ON", Category: entities.CategoryShelter,
			Location: entities.Location{Latitude: 43.6588, Longitude: -79.3743}, IsEmergency: true, Hours: "24/7"},
		{ID: "food-1", Name: "Daily Bread", Address: "191 New Toronto St, Toronto, ON", Category: entities.CategoryFood,
			Location: entities.Location{Latitude: 43.6010, Longitude: -79.5060}, Description: "Food bank"},
	}

	store := storage.NewMemoryStore()
	memCache := cache.NewMemoryAdapter(100)
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	establishments := services.NewEstablishmentService(services.EstablishmentSources{Shelters: source},
		memCache, services.AggregatorOptions{}, nil)
	users := services.NewUserService(storage.NewUserStore(store), store)
	updates := services.NewCommunityUpdateService(storage.NewCommunityUpdateStore(store), users, bus)
	locations := services.NewLocationService()
	geocoder := services.NewGeocodingService(nil, geolocation.NewMockGeocodingProvider(), memCache,
		services.GeocodingOptions{CacheTTLSeconds: 60}, nil)

	router := routes.NewRouter(routes.Handlers{
		Establishment:   handlers.NewEstablishmentHandler(establishments, updates),
		Search:          handlers.NewSearchHandler(services.NewSearchService(establishments, nil, services.SearchOptions{}, nil), nil, locations),
		Geocode:         handlers.NewGeocodeHandler(geocoder),
		Location:        handlers.NewLocationHandler(locations),
		User:            handlers.NewUserHandler(users),
		CommunityUpdate: handlers.NewCommunityUpdateHandler(updates),
		SSE:             handlers.NewSSEHandler(bus, updates),
		Announcement:    handlers.NewAnnouncementHandler(services.NewAnnouncementService()),
		Preference:      handlers.NewPreferenceHandler(services.NewPreferenceService(store)),
	}, middleware.NewCacheMiddleware(cache.NewMemoryAdapter(100)), []string{"*"}, nil)

	return router.SetupRoutes()
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestRouter_Health(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_Establishments(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/establishments?category=food", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Establishments []entities.Establishment `json:"establishments"`
		Count          int                      `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "food-1", list.Establishments[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/establishments/shelter-1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail map[string]interface{}
	decode(t, rec, &detail)
	assert.Equal(t, "Seaton House", detail["name"])
	assert.Equal(t, "24/7", detail["hours"])
	assert.Equal(t, "Shelter service in Toronto", detail["description"])
	assert.Contains(t, detail["directions_url"], "destination=339+George+St")

	rec = do(t, srv, http.MethodGet, "/api/establishments/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/establishments/nearby?lat=43.6532&lng=-79.3832&radius=3", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = do(t, srv, http.MethodGet, "/api/establishments/nearby?lat=abc&lng=-79.38", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_SearchAndCrisis(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/search", map[string]interface{}{"query": "food bank", "lat": 43.65, "lng": -79.38}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result entities.SearchResult
	decode(t, rec, &result)
	assert.True(t, result.Fallback)
	require.Len(t, result.Resources, 1)
	assert.Equal(t, "food-1", result.Resources[0].ID)

	rec = do(t, srv, http.MethodPost, "/api/search", map[string]interface{}{"query": ""}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/crisis?q=overdose", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var crisis struct {
		Crisis   bool                        `json:"crisis"`
		Contacts []entities.EmergencyContact `json:"emergency_contacts"`
	}
	decode(t, rec, &crisis)
	assert.True(t, crisis.Crisis)
	assert.Len(t, crisis.Contacts, 3)
}

func TestRouter_Geocode(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/geocode?address=Yonge%20%26%20Dundas", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "Yonge Street and Dundas Street", body["normalized"])
	assert.InDelta(t, 43.6561, body["lat"], 1e-6)

	rec = do(t, srv, http.MethodGet, "/api/geocode?address=Atlantis", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/geocode", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AccountAndCommunityUpdates(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/community-updates",
		map[string]string{"establishment_id": "shelter-1", "type": "beds", "content": "5 beds"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/auth/signin", map[string]string{"email": "ana@example.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var session services.Session
	decode(t, rec, &session)
	require.NotEmpty(t, session.Token)

	rec = do(t, srv, http.MethodPut, "/api/me/saved/shelter-1", nil, session.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/me/saved", nil, session.Token)
	var saved struct {
		Saved []string `json:"saved"`
	}
	decode(t, rec, &saved)
	assert.Equal(t, []string{"shelter-1"}, saved.Saved)

	rec = do(t, srv, http.MethodPost, "/api/community-updates",
		map[string]string{"establishment_id": "shelter-1", "type": "beds", "content": "5 beds", "establishment_name": "Seaton House"},
		session.Token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created entities.CommunityUpdateView
	decode(t, rec, &created)
	assert.Equal(t, "ana", created.Reporter)
	assert.Equal(t, "Just now", created.Time)

	rec = do(t, srv, http.MethodGet, "/api/establishments/shelter-1/updates", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var updates struct {
		Updates []entities.CommunityUpdateView `json:"updates"`
	}
	decode(t, rec, &updates)
	require.Len(t, updates.Updates, 1)
	assert.Equal(t, "5 beds", updates.Updates[0].Content)

	rec = do(t, srv, http.MethodPost, "/api/community-updates",
		map[string]string{"establishment_id": "shelter-1", "type": "rumours", "content": "x"}, session.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/auth/signout", nil, session.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/me", nil, session.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LocationAndPreferences(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/location",
		map[string]interface{}{"session_id": "s1", "lat": 43.65, "lng": -79.38, "sequence": 3}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accepted": true}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/location",
		map[string]interface{}{"session_id": "s1", "lat": 43.66, "lng": -79.38, "sequence": 2}, "")
	assert.JSONEq(t, `{"accepted": false}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/location",
		map[string]interface{}{"session_id": "s1", "lat": 51.5, "lng": -0.12, "sequence": 9}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/location/s1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reading entities.LocationReading
	decode(t, rec, &reading)
	assert.Equal(t, uint64(3), reading.Sequence)

	rec = do(t, srv, http.MethodPut, "/api/preferences/s1", map[string]bool{"dark_mode": true}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/preferences/s1", nil, "")
	assert.JSONEq(t, `{"dark_mode": true, "banner_dismissed": false}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/announcements", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "https://6ixassist.ca")
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
