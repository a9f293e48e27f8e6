package search

import (
	"fmt"
	"testing"

	"github.com/sofialex/pravex/internal/domain/result"
)

// rankedResults builds a descending-sorted result list with the given
// combined scores.
func rankedResults(t *testing.T, scores ...float64) []*result.Result {
	t.Helper()

	results := make([]*result.Result, 0, len(scores))
	for i, score := range scores {
		r, err := result.New(
			fmt.Sprintf("Резултат %d", i),
			fmt.Sprintf("https://example.com/doc/%d", i),
			"откъс",
			"google_cse",
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		r.SetScores(result.Scores{Combined: score, Confidence: score})
		results = append(results, r)
	}
	return results
}

func repeat(score float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = score
	}
	return out
}

func TestFilterSelect_Empty(t *testing.T) {
	f := NewFilter()

	if got := f.Select(nil, 15); len(got) != 0 {
		t.Errorf("Select(nil) returned %d results", len(got))
	}
	if got := f.Select([]*result.Result{}, 15); len(got) != 0 {
		t.Errorf("Select(empty) returned %d results", len(got))
	}
}

func TestFilterSelect_RichHighTier(t *testing.T) {
	f := NewFilter()

	// 12 high-quality results must all come back even above maxResults=15
	// semantics of a plain cut.
	ranked := rankedResults(t, repeat(0.65, 12)...)
	got := f.Select(ranked, 15)

	if len(got) != 12 {
		t.Errorf("Select() returned %d, want all 12 high-quality results", len(got))
	}
}

func TestFilterSelect_HighTierCappedAtTwenty(t *testing.T) {
	f := NewFilter()

	scores := append(repeat(0.8, 25), repeat(0.1, 5)...)
	got := f.Select(rankedResults(t, scores...), 15)

	if len(got) != 20 {
		t.Errorf("Select() returned %d, want hard cap of 20", len(got))
	}
	for _, r := range got {
		if r.Scores().Combined < 0.6 {
			t.Errorf("low-quality result leaked into high tier: %v", r.Scores().Combined)
		}
	}
}

func TestFilterSelect_MediumTierPadsToFloor(t *testing.T) {
	f := NewFilter()

	// 3 high + 6 medium + 5 low: medium tier selects 9, then the floor
	// tops the output up to min(15, len) = 14.
	scores := append(repeat(0.65, 3), repeat(0.4, 6)...)
	scores = append(scores, repeat(0.1, 5)...)
	got := f.Select(rankedResults(t, scores...), 15)

	if len(got) != 14 {
		t.Errorf("Select() returned %d, want 14 after floor padding", len(got))
	}
}

func TestFilterSelect_ThinResultSetKeptWhole(t *testing.T) {
	f := NewFilter()

	got := f.Select(rankedResults(t, 0.5, 0.2, 0.1), 15)

	if len(got) != 3 {
		t.Errorf("Select() returned %d, want all 3 of a thin result set", len(got))
	}
}

func TestFilterSelect_FallbackCapAtTwelve(t *testing.T) {
	f := NewFilter()

	// No tier qualifies: 2 high, 4 medium, 24 low.
	scores := append(repeat(0.7, 2), repeat(0.4, 4)...)
	scores = append(scores, repeat(0.05, 24)...)
	got := f.Select(rankedResults(t, scores...), 15)

	// Fallback keeps 12, floor raises it to 15.
	if len(got) != 15 {
		t.Errorf("Select() returned %d, want 15", len(got))
	}
}

func TestFilterSelect_MaxResultsLowersFloorOnly(t *testing.T) {
	f := NewFilter()

	scores := append(repeat(0.65, 3), repeat(0.4, 6)...)
	scores = append(scores, repeat(0.1, 5)...)
	got := f.Select(rankedResults(t, scores...), 5)

	// Medium tier keeps 9; a small maxResults must not truncate that.
	if len(got) != 9 {
		t.Errorf("Select() returned %d, want tier output of 9", len(got))
	}
}

func TestFilterSelect_PreservesRankingOrder(t *testing.T) {
	f := NewFilter()

	ranked := rankedResults(t, 0.9, 0.8, 0.7, 0.2)
	got := f.Select(ranked, 15)

	for i := 1; i < len(got); i++ {
		if got[i-1].Scores().Combined < got[i].Scores().Combined {
			t.Fatalf("order broken at %d: %v < %v",
				i, got[i-1].Scores().Combined, got[i].Scores().Combined)
		}
	}
}

func TestFilter_WithThresholds(t *testing.T) {
	f := NewFilter().WithThresholds(0.8, 0.5)

	// 12 results at 0.65: below the raised high threshold, counted medium.
	got := f.Select(rankedResults(t, repeat(0.65, 12)...), 15)

	// Medium tier: 12 >= 8, keep min(12, 15) = 12.
	if len(got) != 12 {
		t.Errorf("Select() returned %d, want 12 via medium tier", len(got))
	}

	// Invalid override pairs keep the current thresholds.
	g := NewFilter().WithThresholds(0.2, 0.9)
	if g.highThreshold != 0.6 || g.mediumThreshold != 0.3 {
		t.Errorf("invalid thresholds applied: high=%v medium=%v", g.highThreshold, g.mediumThreshold)
	}
}
