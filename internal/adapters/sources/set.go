package sources

import (
	"net/http"
	"time"

	"github.com/sixassist/cityassist/internal/adapters/providers/geolocation"
	"github.com/sixassist/cityassist/internal/domain/providers"
	"github.com/sixassist/cityassist/pkg/config"
)

// Set groups the configured sources by the role they play in aggregation.
type Set struct {
	Shelters       providers.EstablishmentSource
	Food           providers.EstablishmentSource
	FoodSupplement providers.EstablishmentSource
	Services       []providers.EstablishmentSource
	NonProfit      providers.EstablishmentSource
}

// NewSet builds every source from configuration. OSM sources are left
// out when OSM is disabled; sources missing credentials are still
// created and report themselves unavailable on fetch.
func NewSet(cfg *config.SourcesConfig, nominatim *geolocation.NominatimClient, osmDelay time.Duration, httpClient *http.Client) Set {
	set := Set{
		Shelters:  NewTorontoOpenDataSource(cfg.OpenDataEnabled, cfg.OpenDataURL, cfg.OpenDataResourceID, httpClient),
		Food:      NewGoogleFoodSource(cfg.GooglePlacesAPIKey, "", httpClient),
		NonProfit: NewGoogleNonProfitSource(cfg.GooglePlacesAPIKey, "", httpClient),
	}
	if cfg.OSMEnabled && nominatim != nil {
		set.FoodSupplement = NewOSMSource("osm-food", OSMFoodTopics, nominatim, osmDelay)
		set.Services = []providers.EstablishmentSource{
			NewOSMSource("osm-services", OSMServiceTopics, nominatim, osmDelay),
		}
	}
	return set
}
