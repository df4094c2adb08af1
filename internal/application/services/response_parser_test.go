package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	got, err := extractJSONObject(`Here you go: {"summary": "use the {braces}", "resources": [{"id": "a"}]} trailing }`)
	require.NoError(t, err)
	assert.Equal(t, `{"summary": "use the {braces}", "resources": [{"id": "a"}]}`, got)

	_, err = extractJSONObject(`{"summary": "never closed"`)
	assert.ErrorIs(t, err, ErrMalformedRanking)

	_, err = extractJSONObject("no object")
	assert.ErrorIs(t, err, ErrMalformedRanking)
}

func TestParseRankingResponse_Distances(t *testing.T) {
	parsed, err := parseRankingResponse("```json\n" + `{"summary": " Near you. ", "resources": [
		{"id": "a", "distance_km": 1.5},
		{"id": "b", "distance_km": "2 km"},
		{"id": "c", "distance_km": "far"},
		{"id": "d"}
	]}` + "\n```")
	require.NoError(t, err)

	assert.Equal(t, "Near you.", parsed.Summary)
	require.Len(t, parsed.Resources, 4)
	assert.Equal(t, 1.5, *parsed.Resources[0].DistanceKm)
	assert.Equal(t, 2.0, *parsed.Resources[1].DistanceKm)
	assert.Nil(t, parsed.Resources[2].DistanceKm)
	assert.Nil(t, parsed.Resources[3].DistanceKm)
}

func TestParseRankingResponse_SchemaViolations(t *testing.T) {
	for _, body := range []string{
		`{"summary": 3, "resources": []}`,
		`{"summary": "", "resources": []}`,
		`{"summary": "x"}`,
		`{"summary": "x", "resources": [1, 2]}`,
		`{"summary": "x", "resources": [{"id": 7}]}`,
	} {
		_, err := parseRankingResponse(body)
		assert.ErrorIs(t, err, ErrMalformedRanking, body)
	}
}
