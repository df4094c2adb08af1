package services

import (
	"fmt"
	"time"

	"github.com/sixassist/cityassist/internal/domain/entities"
)

const (
	systemSource      = "6ixAssist System"
	coldWeatherSource = "Environment Canada"
	coldWeatherURL    = "https://www.toronto.ca/community-people/health-wellness-care/health-programs-advice/hot-cold-weather/"

	extremeColdCelsius = -15
)

// torontoMonthlyAvgCelsius holds average temperatures, January first.
var torontoMonthlyAvgCelsius = [12]int{-6, -5, -1, 5, 12, 18, 21, 20, 16, 9, 3, -3}

// AnnouncementService produces time-of-day and weather notices.
type AnnouncementService struct {
	loc *time.Location
	now func() time.Time
}

// NewAnnouncementService creates an announcement service evaluating times
// in Toronto local time.
func NewAnnouncementService() *AnnouncementService {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	return &AnnouncementService{loc: loc, now: time.Now}
}

// EstimatedTemperature returns the monthly average temperature for t.
func EstimatedTemperature(t time.Time) int {
	return torontoMonthlyAvgCelsius[int(t.Month())-1]
}

// List returns the notices active now, most urgent first.
func (s *AnnouncementService) List() []*entities.Announcement {
	return s.At(s.now())
}

// At returns the notices active at t.
func (s *AnnouncementService) At(t time.Time) []*entities.Announcement {
	local := t.In(s.loc)
	out := make([]*entities.Announcement, 0, 3)

	temp := EstimatedTemperature(local)
	switch {
	case temp < extremeColdCelsius:
		out = append(out, &entities.Announcement{
			ID:       "cold-alert-" + local.Format("20060102"),
			Title:    "Extreme Cold Weather Alert - Active",
			Message:  fmt.Sprintf("Current temperature: %d°C. All warming centres open 24/7. Emergency shelter spaces available.", temp),
			Type:     "urgent",
			Priority: "urgent",
			Date:     t.UTC(),
			Source:   coldWeatherSource,
			URL:      coldWeatherURL,
		})
	case temp < 0:
		out = append(out, &entities.Announcement{
			ID:       "cold-weather-" + local.Format("20060102"),
			Title:    "Cold Weather Alert",
			Message:  fmt.Sprintf("Expected temperature around %d°C. Warming centres and drop-ins are open; dress in layers.", temp),
			Type:     "update",
			Priority: "high",
			Date:     t.UTC(),
			Source:   coldWeatherSource,
			URL:      coldWeatherURL,
		})
	}

	if hour := local.Hour(); hour >= 22 || hour < 6 {
		out = append(out, &entities.Announcement{
			ID:       "overnight-services",
			Title:    "Overnight Services Available",
			Message:  "24/7 shelters and drop-in centres open. Crisis lines active. Food banks resume morning hours.",
			Type:     "info",
			Priority: "normal",
			Date:     t.UTC(),
			Source:   systemSource,
		})
	}

	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		out = append(out, &entities.Announcement{
			ID:       "weekend-services",
			Title:    "Weekend Service Hours",
			Message:  "Limited food bank hours. Most shelters and emergency services remain open. Check individual locations.",
			Type:     "update",
			Priority: "normal",
			Date:     t.UTC(),
			Source:   systemSource,
		})
	}
	return out
}
