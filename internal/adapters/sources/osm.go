package sources

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sixassist/cityassist/internal/adapters/providers/geolocation"
	"github.com/sixassist/cityassist/internal/domain/entities"
	apperrors "github.com/sixassist/cityassist/pkg/errors"
)

const osmResultLimit = 50

// OSMFoodTopics supplement sparse Google food results.
var OSMFoodTopics = []string{"food bank", "soup kitchen", "community meal"}

// OSMServiceTopics are always queried.
var OSMServiceTopics = []string{"warming centre", "community centre", "drop-in centre"}

// OSMSource searches OpenStreetMap for a list of topics.
type OSMSource struct {
	name   string
	topics []string
	client *geolocation.NominatimClient
	delay  time.Duration
}

// NewOSMSource creates a source named name that queries each topic in
// turn, pausing delay between queries.
func NewOSMSource(name string, topics []string, client *geolocation.NominatimClient, delay time.Duration) *OSMSource {
	return &OSMSource{name: name, topics: topics, client: client, delay: delay}
}

func (s *OSMSource) Name() string { return s.name }

// Fetch returns the results of every topic in topic order.
func (s *OSMSource) Fetch(ctx context.Context) ([]*entities.Establishment, error) {
	now := time.Now().UTC()
	var out []*entities.Establishment
	var lastErr error
	failed := 0

	for i, topic := range s.topics {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		places, err := s.client.Search(ctx, topic+" Toronto Ontario Canada", osmResultLimit)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			failed++
			lastErr = err
			log.Warn().Err(err).Str("source", s.name).Str("topic", topic).Msg("osm query failed")
			continue
		}

		category := CategoryForTopic(topic)
		for idx, p := range places {
			if p.Latitude == 0 || p.Longitude == 0 {
				continue
			}
			id := strconv.FormatInt(p.OSMID, 10)
			if p.OSMID == 0 {
				id = strconv.Itoa(idx)
			}
			name := p.Name()
			if name == "" {
				name = topic
			}
			out = append(out, &entities.Establishment{
				ID:           "osm-" + id,
				Name:         name,
				Address:      p.DisplayName,
				Category:     category,
				Location:     entities.Location{Latitude: p.Latitude, Longitude: p.Longitude},
				Description:  topic + " in Toronto",
				Source:       entities.SourceExternal,
				LastVerified: now,
			})
		}
	}

	if len(s.topics) > 0 && failed == len(s.topics) {
		return nil, apperrors.NewExternalError("all osm queries failed", lastErr)
	}
	return out, nil
}

// CategoryForTopic infers a category from a search topic.
func CategoryForTopic(topic string) entities.Category {
	t := strings.ToLower(topic)
	switch {
	case strings.Contains(t, "food"), strings.Contains(t, "meal"), strings.Contains(t, "soup"):
		return entities.CategoryFood
	case strings.Contains(t, "shelter"), strings.Contains(t, "warming"), strings.Contains(t, "housing"):
		return entities.CategoryShelter
	case strings.Contains(t, "health"), strings.Contains(t, "mental"):
		return entities.CategoryHealth
	case strings.Contains(t, "legal"):
		return entities.CategoryLegal
	default:
		return entities.CategoryCommunity
	}
}
