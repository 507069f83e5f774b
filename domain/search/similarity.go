package search

import (
	"math"
	"sort"
)

// CosineSimilarity computes dot(a,b) / (|a| * |b|).
// Returns 0 when the lengths differ or either vector has zero magnitude.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Match pairs a position in the searched list with its similarity score.
type Match struct {
	index int
	score float64
}

// NewMatch creates a new Match.
func NewMatch(index int, score float64) Match {
	return Match{index: index, score: score}
}

// Index returns the position of the matched vector in the input list.
func (m Match) Index() int { return m.index }

// Score returns the cosine similarity.
func (m Match) Score() float64 { return m.score }

// Rank scores every vector against the query and returns the matches
// ordered by descending similarity. Equal scores keep their input order.
func Rank(query []float64, vectors [][]float64) []Match {
	matches := make([]Match, len(vectors))
	for i, v := range vectors {
		matches[i] = NewMatch(i, CosineSimilarity(query, v))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	return matches
}

// Above returns the matches whose score is strictly greater than floor,
// preserving order.
func Above(matches []Match, floor float64) []Match {
	result := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.score > floor {
			result = append(result, m)
		}
	}
	return result
}

// Top returns at most k leading matches.
func Top(matches []Match, k int) []Match {
	if k <= 0 {
		return []Match{}
	}
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}
