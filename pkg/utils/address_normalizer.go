package utils

import (
	"regexp"
	"strings"
)

var (
	leadingDigit     = regexp.MustCompile(`^\d+`)
	symbolSeparators = regexp.MustCompile(`\s*[&/|]\s*`)
	wordSeparators   = regexp.MustCompile(`(?i)\s+at\s+|\s*@\s*`)
	andSeparator     = regexp.MustCompile(`(?i)\s+and\s+`)
	repeatedSpaces   = regexp.MustCompile(`\s+`)
)

// Longer parts are probably not bare street names.
const maxBareStreetName = 20

// streetSuffixes are the endings that mark a street name as already
// complete, so no generic suffix is appended.
var streetSuffixes = map[string]struct{}{
	"street": {}, "st": {}, "avenue": {}, "ave": {}, "road": {}, "rd": {},
	"drive": {}, "dr": {}, "boulevard": {}, "blvd": {}, "court": {}, "ct": {},
	"crescent": {}, "cres": {}, "way": {}, "wy": {}, "lane": {}, "ln": {},
	"place": {}, "pl": {}, "circle": {}, "cir": {}, "parkway": {}, "pkwy": {},
	"east": {}, "e": {}, "west": {}, "w": {}, "north": {}, "n": {}, "south": {}, "s": {},
}

// IsIntersection reports whether the input looks like two street names
// joined by a separator rather than a numbered address.
func IsIntersection(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || leadingDigit.MatchString(trimmed) {
		return false
	}
	return len(splitIntersection(trimmed)) == 2
}

// NormalizeIntersection rewrites intersection-style input such as
// "Yonge & Dundas", "Yonge/Dundas" or "Yonge at Dundas" into the
// canonical "Yonge Street and Dundas Street". Numbered addresses and
// anything that is not a two-street intersection are returned trimmed.
func NormalizeIntersection(input string) string {
	normalized := strings.TrimSpace(repeatedSpaces.ReplaceAllString(input, " "))
	if normalized == "" || leadingDigit.MatchString(normalized) {
		return normalized
	}

	parts := splitIntersection(normalized)
	if len(parts) != 2 {
		return normalized
	}

	first, second := parts[0], parts[1]
	if !hasStreetSuffix(first) && !hasStreetSuffix(second) &&
		len(first) < maxBareStreetName && len(second) < maxBareStreetName {
		return first + " Street and " + second + " Street"
	}
	return first + " and " + second
}

func splitIntersection(input string) []string {
	s := symbolSeparators.ReplaceAllString(input, " and ")
	s = wordSeparators.ReplaceAllString(s, " and ")
	raw := andSeparator.Split(s, -1)

	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func hasStreetSuffix(street string) bool {
	fields := strings.Fields(strings.ToLower(street))
	if len(fields) == 0 {
		return false
	}
	last := strings.TrimSuffix(fields[len(fields)-1], ".")
	_, ok := streetSuffixes[last]
	return ok
}
