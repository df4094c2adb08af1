package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sixassist/cityassist/internal/domain/entities"
)

const directionsBaseURL = "https://www.google.com/maps/dir/"

// DirectionsURL builds a Google Maps directions link for the
// establishment. A place id gives the most precise destination, then the
// address, then the raw coordinates.
func DirectionsURL(e *entities.Establishment) string {
	if e == nil {
		return ""
	}
	params := url.Values{}
	params.Set("api", "1")

	switch {
	case e.PlaceID != "":
		dest := e.Address
		if strings.TrimSpace(dest) == "" {
			dest = e.Name
		}
		params.Set("destination", dest)
		params.Set("destination_place_id", e.PlaceID)
	case strings.TrimSpace(e.Address) != "":
		params.Set("destination", e.Address)
	default:
		params.Set("destination", fmt.Sprintf("%f,%f", e.Location.Latitude, e.Location.Longitude))
	}
	return directionsBaseURL + "?" + params.Encode()
}
