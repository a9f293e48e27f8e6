package scoring

import (
	"math"
	"strings"
)

// defaultAvgDocLength stands in for the corpus average when it is unknown or
// degenerate.
const defaultAvgDocLength = 1000.0

// BM25 implements the Okapi BM25 ranking function, tuned for short legal
// snippets rather than full documents.
type BM25 struct {
	k1 float64
	b  float64
}

// NewBM25 creates a scorer with the production parameters.
func NewBM25() *BM25 {
	return &BM25{k1: 1.8, b: 0.7}
}

// WithParams overrides the k1 saturation and b length-normalization
// parameters. Non-positive values keep the current ones.
func (s *BM25) WithParams(k1, b float64) *BM25 {
	if k1 > 0 {
		s.k1 = k1
	}
	if b > 0 {
		s.b = b
	}
	return s
}

// Score computes the raw BM25 relevance of a document against query terms.
// The IDF component is approximated from within-document frequency since no
// corpus statistics exist at query time.
func (s *BM25) Score(queryTerms []string, document string, avgDocLength float64) float64 {
	if avgDocLength <= 0 {
		avgDocLength = defaultAvgDocLength
	}

	docTerms := strings.Fields(strings.ToLower(document))
	if len(docTerms) == 0 {
		return 0
	}

	tf := make(map[string]int, len(docTerms))
	for _, t := range docTerms {
		tf[t]++
	}
	docLength := float64(len(docTerms))

	score := 0.0
	for _, term := range queryTerms {
		f := float64(tf[strings.ToLower(term)])
		if f == 0 {
			continue
		}
		idf := math.Log((1 + avgDocLength) / (1 + f))
		score += idf * f * (s.k1 + 1) / (f + s.k1*(1-s.b+s.b*docLength/avgDocLength))
	}
	return score
}
