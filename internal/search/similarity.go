package search

import (
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/agnivade/levenshtein"
)

// minDistanceKm keeps co-located candidates from dividing by zero
const minDistanceKm = 0.001

var (
	jaroWinkler  = metrics.NewJaroWinkler()
	sorensenDice = func() *metrics.SorensenDice {
		m := metrics.NewSorensenDice()
		m.NgramSize = 2
		return m
	}()
)

// levenshteinSimilarity maps the edit distance to [0, 1]
func levenshteinSimilarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Similarity is the mean of the Levenshtein, Jaro-Winkler and bigram Sorensen-Dice similarities
// of two normalized names
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	sum := levenshteinSimilarity(a, b) +
		strutil.Similarity(a, b, jaroWinkler) +
		strutil.Similarity(a, b, sorensenDice)
	return sum / 3
}
