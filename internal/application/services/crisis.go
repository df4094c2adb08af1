package services

import "strings"

var crisisKeywords = []string{
	"suicide",
	"kill",
	"died",
	"overdose",
	"emergency",
	"crisis",
	"help me",
}

// IsCrisisQuery reports whether the query mentions any crisis keyword.
// It must not depend on the ranking call so the emergency banner can be
// shown immediately.
func IsCrisisQuery(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range crisisKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
