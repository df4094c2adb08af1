package services

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sixassist/cityassist/internal/domain/entities"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
	"github.com/sixassist/cityassist/pkg/geo"
)

// LocationService keeps the latest device position per session. Readings
// may arrive out of order; older ones are discarded.
type LocationService struct {
	mu       sync.RWMutex
	sessions map[string]entities.LocationReading
	now      func() time.Time
}

// NewLocationService creates an empty location service.
func NewLocationService() *LocationService {
	return &LocationService{
		sessions: make(map[string]entities.LocationReading),
		now:      time.Now,
	}
}

// Update records the reading. It returns false when the reading is older
// than the one already held for the session.
func (s *LocationService) Update(reading entities.LocationReading) (bool, error) {
	if strings.TrimSpace(reading.SessionID) == "" {
		return false, apperrors.NewValidationError("session id is required")
	}
	if math.IsNaN(reading.Latitude) || math.IsNaN(reading.Longitude) {
		return false, apperrors.NewValidationError("coordinates are required")
	}
	if !geo.TorontoGeocodeBounds.Contains(reading.Latitude, reading.Longitude) {
		return false, apperrors.NewValidationError(fmt.Sprintf("location %.5f,%.5f is outside Toronto", reading.Latitude, reading.Longitude))
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.sessions[reading.SessionID]; ok && !isNewer(reading, current) {
		return false, nil
	}
	s.sessions[reading.SessionID] = reading
	return true, nil
}

// isNewer orders by sequence number when both readings carry one, else
// by timestamp.
func isNewer(next, current entities.LocationReading) bool {
	if next.Sequence != 0 && current.Sequence != 0 {
		return next.Sequence > current.Sequence
	}
	return next.RecordedAt.After(current.RecordedAt)
}

// Latest returns the session's most recent reading.
func (s *LocationService) Latest(sessionID string) (*entities.LocationReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no location for session %s", sessionID))
	}
	return &r, nil
}

// Forget drops the session's reading.
func (s *LocationService) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}
