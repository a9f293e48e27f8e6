package scoring

import (
	"fmt"
	"math"
)

// Weights control how the individual relevancy signals are fused into the
// combined score. They must sum to 1.0.
type Weights struct {
	BM25            float64
	Semantic        float64
	LegalContext    float64
	DomainAuthority float64
	TitleBoost      float64
}

// DefaultWeights returns the production fusion weights.
func DefaultWeights() Weights {
	return Weights{
		BM25:            0.30,
		Semantic:        0.25,
		LegalContext:    0.25,
		DomainAuthority: 0.10,
		TitleBoost:      0.10,
	}
}

// Validate checks that every weight lies in [0, 1] and that they sum to 1.0.
func (w Weights) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"bm25", w.BM25},
		{"semantic", w.Semantic},
		{"legal_context", w.LegalContext},
		{"domain_authority", w.DomainAuthority},
		{"title_boost", w.TitleBoost},
	}

	sum := 0.0
	for _, f := range fields {
		if f.value < 0 || f.value > 1 {
			return fmt.Errorf("weight %s must be between 0 and 1, got %v", f.name, f.value)
		}
		sum += f.value
	}

	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	return nil
}
