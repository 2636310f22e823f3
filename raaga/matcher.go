package raaga

import (
	"github.com/sargamlabs/sargam/algorithms/swara"
)

// Scoring constants. The weighting and threshold are part of the observable
// contract and are pinned by tests; they are not tuning knobs.
const (
	overlapWeight = 0.6
	patternWeight = 0.4

	// MinConfidence is the combined score a candidate must reach to be
	// reported as a match
	MinConfidence = 0.30
)

// Match is the matcher's output: the best-scoring catalog candidate with a
// combined confidence in [0,1]
type Match struct {
	Candidate  *Candidate `json:"candidate"`
	Confidence float64    `json:"confidence"`

	// Score components, kept for diagnostics
	OverlapScore float64 `json:"overlap_score"`
	PatternScore float64 `json:"pattern_score"`
}

// Matcher compares note sequences against a raaga catalog. It is pure and
// stateless; one Matcher may serve concurrent requests.
type Matcher struct {
	catalog *Catalog
}

// NewMatcher creates a matcher over the given catalog, or the embedded
// default when catalog is nil
func NewMatcher(catalog *Catalog) *Matcher {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Matcher{catalog: catalog}
}

// Catalog returns the catalog the matcher scores against
func (m *Matcher) Catalog() *Catalog {
	return m.catalog
}

// Detect returns the best-scoring candidate at or above MinConfidence, or
// nil when no candidate qualifies. Octave information is ignored; only
// scale-degree identity and order matter. An empty note sequence yields
// nil, not an error.
//
// Per candidate the score combines a symmetric set-overlap term with a
// longest-common-subsequence pattern term:
//
//	score = 0.6*overlap + 0.4*pattern
//
// Exact ties resolve to the earlier catalog entry.
func (m *Matcher) Detect(notes []swara.Note) *Match {
	if len(notes) == 0 {
		return nil
	}

	observedSet, observedOrder := observedDegrees(notes)

	var best *Match
	for i := range m.catalog.candidates {
		cand := &m.catalog.candidates[i]

		overlap := overlapScore(cand.Degrees(), observedSet)
		pattern := max(
			lcsRatio(observedOrder, cand.Arohana),
			lcsRatio(observedOrder, reversed(cand.Avarohana)),
		)

		score := overlapWeight*overlap + patternWeight*pattern
		if score > 1.0 {
			score = 1.0
		}

		// Strictly-greater keeps the first declared candidate on ties
		if best == nil || score > best.Confidence {
			best = &Match{
				Candidate:    cand,
				Confidence:   score,
				OverlapScore: overlap,
				PatternScore: pattern,
			}
		}
	}

	if best == nil || best.Confidence < MinConfidence {
		return nil
	}
	return best
}

// observedDegrees extracts the set of degrees used and their
// first-occurrence order
func observedDegrees(notes []swara.Note) (map[swara.ScaleDegree]bool, []swara.ScaleDegree) {
	set := make(map[swara.ScaleDegree]bool)
	var order []swara.ScaleDegree

	for _, n := range notes {
		if !set[n.Swaram] {
			set[n.Swaram] = true
			order = append(order, n.Swaram)
		}
	}
	return set, order
}

// overlapScore is the Jaccard index of the candidate's and the observed
// degree sets: declared degrees that go unobserved and observed degrees
// absent from the candidate are penalized symmetrically.
func overlapScore(candidate, observed map[swara.ScaleDegree]bool) float64 {
	intersection := 0
	for d := range observed {
		if candidate[d] {
			intersection++
		}
	}

	union := len(candidate) + len(observed) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// lcsRatio is the longest-common-subsequence length between the observed
// order and a candidate pattern, normalized by the pattern length
func lcsRatio(observed, pattern []swara.ScaleDegree) float64 {
	if len(observed) == 0 || len(pattern) == 0 {
		return 0.0
	}

	// Standard DP over two rows
	prev := make([]int, len(pattern)+1)
	cur := make([]int, len(pattern)+1)

	for i := 1; i <= len(observed); i++ {
		for j := 1; j <= len(pattern); j++ {
			if observed[i-1] == pattern[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}

	return float64(prev[len(pattern)]) / float64(len(pattern))
}

func reversed(degrees []swara.ScaleDegree) []swara.ScaleDegree {
	out := make([]swara.ScaleDegree, len(degrees))
	for i, d := range degrees {
		out[len(degrees)-1-i] = d
	}
	return out
}
