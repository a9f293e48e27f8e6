package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/logger"
)

// embedDocumentLimit caps how much document text is sent to the embedding
// provider, in runes.
const embedDocumentLimit = 1500

// Semantic computes query-document similarity through an ordered strategy
// chain: provider embeddings, then pairwise TF-IDF, then word overlap. When a
// strategy fails the next one takes over, so a similarity value is always
// produced.
type Semantic struct {
	strategies []strategy
}

type strategy struct {
	name string
	fn   func(ctx context.Context, query, document string) (float64, error)
}

// NewSemantic builds the strategy chain. A nil embedder skips the embedding
// strategy entirely, leaving the local fallbacks.
func NewSemantic(embedder Embedder) *Semantic {
	s := &Semantic{}
	if embedder != nil {
		s.strategies = append(s.strategies, strategy{name: "embedding", fn: embeddingSimilarity(embedder)})
	}
	s.strategies = append(s.strategies,
		strategy{name: "tfidf", fn: tfidfSimilarity},
		strategy{name: "overlap", fn: overlapSimilarity},
	)
	return s
}

// Similarity returns the similarity reported by the first strategy that
// succeeds, in [-1, 1].
func (s *Semantic) Similarity(ctx context.Context, query, document string) float64 {
	log := logger.FromContext(ctx)

	for _, st := range s.strategies {
		v, err := st.fn(ctx, query, document)
		if err != nil {
			log.Debug("semantic strategy failed, falling through",
				zap.String("strategy", st.name),
				zap.Error(err),
			)
			continue
		}
		return v
	}
	return 0
}

// embeddingSimilarity embeds both texts and compares them by cosine. The
// document is truncated to keep provider token usage bounded.
func embeddingSimilarity(embedder Embedder) func(ctx context.Context, query, document string) (float64, error) {
	return func(ctx context.Context, query, document string) (float64, error) {
		if runes := []rune(document); len(runes) > embedDocumentLimit {
			document = string(runes[:embedDocumentLimit])
		}

		q, err := embedder.Embed(ctx, query)
		if err != nil {
			return 0, fmt.Errorf("embed query: %w", err)
		}
		d, err := embedder.Embed(ctx, document)
		if err != nil {
			return 0, fmt.Errorf("embed document: %w", err)
		}
		return cosine32(q.Embedding, d.Embedding), nil
	}
}

// overlapSimilarity is the terminal strategy: the fraction of distinct query
// words present in the document. It cannot fail.
func overlapSimilarity(_ context.Context, query, document string) (float64, error) {
	qTerms := termSet(query)
	if len(qTerms) == 0 {
		return 0, nil
	}
	dTerms := termSet(document)

	matched := 0
	for t := range qTerms {
		if _, ok := dTerms[t]; ok {
			matched++
		}
	}

	v := float64(matched) / float64(len(qTerms))
	return math.Min(v, 1.0), nil
}

func termSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(text)) {
		set[t] = struct{}{}
	}
	return set
}

// cosine32 computes cosine similarity between two float32 vectors. Mismatched
// or zero vectors yield 0.
func cosine32(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
