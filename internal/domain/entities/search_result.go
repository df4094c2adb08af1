package entities

import "time"

// RankedEstablishment is an establishment selected by a search, with
// its distance from the user.
type RankedEstablishment struct {
	*Establishment
	DistanceKm    float64 `json:"distance_km"`
	DirectionsURL string  `json:"directions_url"`
}

// SearchResult is the ranked answer to a free-text query.
type SearchResult struct {
	Query             string                 `json:"query"`
	Summary           string                 `json:"summary"`
	Resources         []*RankedEstablishment `json:"resources"`
	Fallback          bool                   `json:"fallback"`
	Crisis            bool                   `json:"crisis"`
	EmergencyContacts []EmergencyContact     `json:"emergency_contacts,omitempty"`
}

// EmergencyContact is one entry of the always-available crisis banner.
type EmergencyContact struct {
	Label       string `json:"label"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
}

// EmergencyContacts is the fixed crisis banner content.
var EmergencyContacts = []EmergencyContact{
	{Label: "Call 911", Phone: "911", Description: "Life threatening emergencies"},
	{Label: "Call 988", Phone: "988", Description: "Suicide Crisis Helpline"},
	{Label: "1-866-531-2600", Phone: "18665312600", Description: "Connex Ontario - Addiction/Mental Health"},
}

// LocationReading is one position report from a device.
type LocationReading struct {
	SessionID      string    `json:"session_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters,omitempty"`
	Sequence       uint64    `json:"sequence"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// Announcement is a service notice shown above search results.
type Announcement struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Type     string    `json:"type"`
	Priority string    `json:"priority"`
	Date     time.Time `json:"date"`
	Source   string    `json:"source"`
	URL      string    `json:"url,omitempty"`
}
