package legal

import (
	"math"
	"strings"
)

// Classification is a practice area assignment with its confidence.
type Classification struct {
	Domain     Domain
	Confidence float64
}

// Classifier assigns texts to practice areas by weighted keyword matching.
// Pure and deterministic; safe for concurrent use.
type Classifier struct {
	tax *Taxonomy

	// confNorm is the raw score that maps to confidence 1.0.
	confNorm float64
	// adminPenalty is the context score for a personal-legal query paired
	// with administrative content.
	adminPenalty float64
}

// NewClassifier creates a classifier over the given taxonomy.
func NewClassifier(tax *Taxonomy) *Classifier {
	return &Classifier{tax: tax, confNorm: 10.0, adminPenalty: 0.2}
}

// WithConfidenceNorm overrides the confidence normalization constant.
func (c *Classifier) WithConfidenceNorm(n float64) *Classifier {
	if n > 0 {
		c.confNorm = n
	}
	return c
}

// WithAdminPenalty overrides the personal-vs-administrative context score.
func (c *Classifier) WithAdminPenalty(p float64) *Classifier {
	if p >= 0 {
		c.adminPenalty = p
	}
	return c
}

// Classify returns the best matching practice area for a text.
//
// Per domain the score accumulates ln(1+occurrences)*weight over its
// keywords — log damping keeps one overused term from dominating — and a
// multi-keyword bonus multiplies by (1 + 0.1*matchedKeywords) when more
// than one distinct keyword hits. No keyword hits anywhere means Unknown
// with zero confidence.
func (c *Classifier) Classify(text string) Classification {
	lower := strings.ToLower(text)

	best := Classification{Domain: Unknown}
	bestScore := 0.0

	for _, e := range c.tax.entries {
		score := 0.0
		matched := 0
		for _, kw := range e.Keywords {
			occ := strings.Count(lower, kw)
			if occ == 0 {
				continue
			}
			matched++
			score += math.Log(1+float64(occ)) * e.Weight
		}
		if matched > 1 {
			score *= 1 + 0.1*float64(matched)
		}
		// Strict greater keeps the earliest entry on ties.
		if score > bestScore {
			bestScore = score
			best.Domain = e.Domain
		}
	}

	if bestScore == 0 {
		return Classification{Domain: Unknown}
	}
	best.Confidence = math.Min(bestScore/c.confNorm, 1.0)
	return best
}

// ContextScore rates how well a document's practice area supports a query's.
//
// Agreement on a known domain is rewarded; a personal-legal query paired
// with administrative content gets the flat penalty (administrative pages
// share vocabulary with personal questions while rarely answering them, and
// the rule is deliberately one-directional); a single classified side earns
// partial credit scaled by its confidence, the query side weighted higher
// since a confidently classified query anchors the judgment. Anything else,
// including two different known domains, gets a flat low-moderate default.
func (c *Classifier) ContextScore(query, doc Classification) float64 {
	if query.Domain == doc.Domain && query.Domain != Unknown {
		return math.Min(query.Confidence*doc.Confidence*2, 1.0)
	}

	if query.Domain.Personal() && doc.Domain == Administrative {
		return c.adminPenalty
	}

	if query.Domain != Unknown && doc.Domain == Unknown {
		return query.Confidence * 0.6
	}
	if query.Domain == Unknown && doc.Domain != Unknown {
		return doc.Confidence * 0.4
	}

	return 0.3
}
