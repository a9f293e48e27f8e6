package scoring

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
)

// tokenRe matches runs of two or more letters, digits, or underscores.
// Single-character tokens carry no signal for similarity.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_]+`)

// tfidfSimilarity computes cosine similarity between TF-IDF vectors built
// from just the query-document pair, over unigrams and bigrams with smoothed
// IDF. It fails only when neither text yields a single term.
func tfidfSimilarity(_ context.Context, query, document string) (float64, error) {
	qCounts := termCounts(query)
	dCounts := termCounts(document)

	vocab := make(map[string]struct{}, len(qCounts)+len(dCounts))
	for t := range qCounts {
		vocab[t] = struct{}{}
	}
	for t := range dCounts {
		vocab[t] = struct{}{}
	}
	if len(vocab) == 0 {
		return 0, errors.New("empty vocabulary")
	}

	var dot, qNorm, dNorm float64
	for t := range vocab {
		df := 0.0
		if qCounts[t] > 0 {
			df++
		}
		if dCounts[t] > 0 {
			df++
		}
		// Smoothed IDF over the two-text corpus: ln((1+n)/(1+df)) + 1, n=2.
		idf := math.Log(3.0/(1.0+df)) + 1.0

		qv := qCounts[t] * idf
		dv := dCounts[t] * idf
		dot += qv * dv
		qNorm += qv * qv
		dNorm += dv * dv
	}

	if qNorm == 0 || dNorm == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(qNorm) * math.Sqrt(dNorm)), nil
}

// termCounts returns raw frequencies of unigrams and adjacent bigrams.
func termCounts(text string) map[string]float64 {
	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]float64, len(tokens)*2)
	for _, t := range tokens {
		counts[t]++
	}
	for i := 0; i+1 < len(tokens); i++ {
		counts[tokens[i]+" "+tokens[i+1]]++
	}
	return counts
}
