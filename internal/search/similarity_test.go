package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/votetripling/ambassador-api/internal/domain"
)

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("ann", "ann"))
	assert.Equal(t, 1.0, Similarity(domain.NormalizeName("O'Brien"), domain.NormalizeName("OBrien")))
	assert.Equal(t, 1.0, Similarity(domain.NormalizeName("Smith-Jones"), domain.NormalizeName("smithjones")))

	assert.Greater(t, Similarity("jon", "john"), Similarity("jon", "mary"))
	assert.Greater(t, Similarity("katherine", "catherine"), Similarity("katherine", "kate"))

	for _, pair := range [][2]string{{"jon", "john"}, {"a", "zzzz"}, {"", "ann"}} {
		s := Similarity(pair[0], pair[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestLevenshteinSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, levenshteinSimilarity("", ""))
	assert.Equal(t, 0.75, levenshteinSimilarity("jon", "john"))
	assert.Equal(t, 0.0, levenshteinSimilarity("abc", "xyz"))
}
