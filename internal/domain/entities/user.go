package entities

import (
	"slices"
	"strings"
	"time"
)

// User is the minimal identity created on sign-in.
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	DisplayName         string    `json:"display_name"`
	SavedEstablishments []string  `json:"saved_establishments"`
	CreatedAt           time.Time `json:"created_at"`
}

// Reporter is the name shown next to the user's community updates.
func (u *User) Reporter() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// HasSaved reports whether the establishment is in the saved list.
func (u *User) HasSaved(establishmentID string) bool {
	return slices.Contains(u.SavedEstablishments, establishmentID)
}

// AddSaved appends the establishment unless it is already saved.
func (u *User) AddSaved(establishmentID string) bool {
	if u.HasSaved(establishmentID) {
		return false
	}
	u.SavedEstablishments = append(u.SavedEstablishments, establishmentID)
	return true
}

// RemoveSaved drops the establishment from the saved list.
func (u *User) RemoveSaved(establishmentID string) bool {
	before := len(u.SavedEstablishments)
	u.SavedEstablishments = slices.DeleteFunc(u.SavedEstablishments, func(id string) bool {
		return id == establishmentID
	})
	return len(u.SavedEstablishments) != before
}

// Preferences are per-session UI flags.
type Preferences struct {
	DarkMode        bool `json:"dark_mode"`
	BannerDismissed bool `json:"banner_dismissed"`
}
