package entities

import (
	"fmt"
	"time"
)

// UpdateType is the kind of community note.
type UpdateType string

const (
	UpdateTypeMeals UpdateType = "meals"
	UpdateTypeBeds  UpdateType = "beds"
	UpdateTypeNotes UpdateType = "notes"
)

// Valid reports whether t is a known update type.
func (t UpdateType) Valid() bool {
	switch t {
	case UpdateTypeMeals, UpdateTypeBeds, UpdateTypeNotes:
		return true
	}
	return false
}

// StaleAfter is how old an update can be before it is flagged as stale.
const StaleAfter = 24 * time.Hour

// CommunityUpdate is a user-submitted status note about an establishment.
type CommunityUpdate struct {
	ID              string     `json:"id" db:"id"`
	EstablishmentID string     `json:"establishment_id" db:"establishment_id"`
	Type            UpdateType `json:"type" db:"type"`
	Content         string     `json:"content" db:"content"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	CreatedBy       string     `json:"created_by" db:"created_by"`
	Location        string     `json:"location,omitempty" db:"location"`
	Reporter        string     `json:"reporter,omitempty" db:"reporter"`
}

// IsStale reports whether the update is older than StaleAfter.
func (u *CommunityUpdate) IsStale(now time.Time) bool {
	return now.Sub(u.CreatedAt) > StaleAfter
}

// TimeAgo renders the age of the update for display.
func (u *CommunityUpdate) TimeAgo(now time.Time) string {
	return FormatTimeAgo(u.CreatedAt, now)
}

// FormatTimeAgo renders the distance between t and now in words.
func FormatTimeAgo(t, now time.Time) string {
	diff := now.Sub(t)
	mins := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case mins < 1:
		return "Just now"
	case mins < 60:
		return plural(mins, "min", "mins") + " ago"
	case hours < 24:
		return plural(hours, "hour", "hours") + " ago"
	case days < 7:
		return plural(days, "day", "days") + " ago"
	default:
		return t.Format("2006-01-02")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// CommunityUpdateView is a CommunityUpdate decorated for display.
type CommunityUpdateView struct {
	*CommunityUpdate
	Time  string `json:"time"`
	Stale bool   `json:"stale"`
}
