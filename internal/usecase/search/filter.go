package search

import "github.com/sofialex/pravex/internal/domain/result"

// Filter applies adaptive quality-tier selection to a ranked result list.
// Result sets rich in high-quality matches are returned generously; thin
// result sets are kept whole rather than filtered into nothing.
type Filter struct {
	highThreshold   float64
	mediumThreshold float64
	highMin         int
	mediumMin       int
	highKeep        int
	mediumKeep      int
	fallbackKeep    int
	outputFloor     int
	outputCap       int
}

// NewFilter creates a filter with the production tier thresholds.
func NewFilter() *Filter {
	return &Filter{
		highThreshold:   0.6,
		mediumThreshold: 0.3,
		highMin:         10,
		mediumMin:       8,
		highKeep:        20,
		mediumKeep:      15,
		fallbackKeep:    12,
		outputFloor:     15,
		outputCap:       20,
	}
}

// WithThresholds overrides the high and medium quality cutoffs. Values
// breaking high > medium > 0 keep the current ones.
func (f *Filter) WithThresholds(high, medium float64) *Filter {
	if high > 0 && high > f.mediumThreshold {
		f.highThreshold = high
	}
	if medium > 0 && medium < f.highThreshold {
		f.mediumThreshold = medium
	}
	return f
}

// Select picks the portion of a ranked result list worth returning. Tier
// membership is by combined score; since the input is sorted, each tier is a
// prefix. maxResults only lowers the padding floor, it never truncates tier
// output.
func (f *Filter) Select(ranked []*result.Result, maxResults int) []*result.Result {
	if len(ranked) == 0 {
		return ranked
	}

	high, medium := 0, 0
	for _, r := range ranked {
		c := r.Scores().Combined
		if c >= f.highThreshold {
			high++
		}
		if c >= f.mediumThreshold {
			medium++
		}
	}

	var keep int
	switch {
	case high >= f.highMin:
		keep = min(high, f.highKeep)
	case medium >= f.mediumMin:
		keep = min(medium, f.mediumKeep)
	default:
		keep = min(len(ranked), f.fallbackKeep)
	}

	floor := min(f.outputFloor, len(ranked))
	if maxResults > 0 && maxResults < floor {
		floor = maxResults
	}
	if keep < floor {
		keep = floor
	}

	return ranked[:min(keep, f.outputCap)]
}
