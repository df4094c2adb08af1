package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedRanking is returned when the model output does not match
// the ranking schema.
var ErrMalformedRanking = errors.New("malformed ranking response")

type rankedID struct {
	ID string
	// DistanceKm is nil when the model omitted it or sent garbage.
	DistanceKm *float64
}

type rankingResponse struct {
	Summary   string
	Resources []rankedID
}

// parseRankingResponse extracts the first JSON object from text and
// validates it against {summary: string, resources: [{id, distance_km}]}.
func parseRankingResponse(text string) (*rankingResponse, error) {
	body, err := extractJSONObject(stripCodeFences(text))
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRanking, err)
	}

	var out rankingResponse
	summaryRaw, ok := raw["summary"]
	if !ok {
		return nil, fmt.Errorf("%w: missing summary", ErrMalformedRanking)
	}
	if err := json.Unmarshal(summaryRaw, &out.Summary); err != nil || strings.TrimSpace(out.Summary) == "" {
		return nil, fmt.Errorf("%w: summary must be a non-empty string", ErrMalformedRanking)
	}
	out.Summary = strings.TrimSpace(out.Summary)

	resourcesRaw, ok := raw["resources"]
	if !ok {
		return nil, fmt.Errorf("%w: missing resources", ErrMalformedRanking)
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(resourcesRaw, &items); err != nil {
		return nil, fmt.Errorf("%w: resources must be an array of objects", ErrMalformedRanking)
	}

	out.Resources = make([]rankedID, 0, len(items))
	for i, item := range items {
		var id string
		idRaw, ok := item["id"]
		if !ok || json.Unmarshal(idRaw, &id) != nil || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: resource %d has no id", ErrMalformedRanking, i)
		}
		out.Resources = append(out.Resources, rankedID{
			ID:         strings.TrimSpace(id),
			DistanceKm: parseDistance(item["distance_km"]),
		})
	}
	return &out, nil
}

func stripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// extractJSONObject returns the span from the first '{' to its balancing
// '}', ignoring braces inside string literals.
func extractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object", ErrMalformedRanking)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced braces", ErrMalformedRanking)
}

// parseDistance accepts a JSON number or a string such as "1.2" or
// "1.2 km".
func parseDistance(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return nil
		}
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, "km"))
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
