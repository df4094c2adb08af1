package entities

import (
	"strings"
	"time"
)

// Category is the service category of an establishment.
type Category string

const (
	CategoryFood      Category = "Food"
	CategoryShelter   Category = "Shelter"
	CategoryHealth    Category = "Health"
	CategoryLegal     Category = "Legal"
	CategoryCommunity Category = "Community"
	CategoryCrisis    Category = "Crisis"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryFood, CategoryShelter, CategoryHealth, CategoryLegal, CategoryCommunity, CategoryCrisis,
}

// ParseCategory matches a category case-insensitively.
func ParseCategory(value string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(value)) {
			return c, true
		}
	}
	return "", false
}

// Source identifies the upstream provider that produced a record.
type Source string

const (
	SourceTorontoOpenData Source = "Toronto Open Data"
	SourceGooglePlaces    Source = "Google Places"
	SourceOSM             Source = "OSM"
	SourceExternal        Source = "Externally Sourced"
)

// Establishment represents one real-world service location, normalized
// from any upstream source.
type Establishment struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Category     Category  `json:"category"`
	Location     Location  `json:"location"`
	Hours        string    `json:"hours,omitempty"`
	Description  string    `json:"description,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Website      string    `json:"website,omitempty"`
	IsEmergency  bool      `json:"is_emergency"`
	Source       Source    `json:"source"`
	LastVerified time.Time `json:"last_verified"`
	PlaceID      string    `json:"place_id,omitempty"`
}

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HoursOrDefault returns the opening hours, or a placeholder.
func (e *Establishment) HoursOrDefault() string {
	if e.Hours == "" {
		return "Hours vary"
	}
	return e.Hours
}

// DescriptionOrDefault returns the description, or one derived from the
// category.
func (e *Establishment) DescriptionOrDefault() string {
	if e.Description == "" {
		return string(e.Category) + " service in Toronto"
	}
	return e.Description
}
