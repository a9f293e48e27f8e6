package websearch

import (
	"context"
	"errors"
	"testing"

	"github.com/sofialex/pravex/internal/domain/result"
)

func TestSweep_SiteFilterBypassesSweep(t *testing.T) {
	inner := &fakeEngine{fn: func(_, site string, _ int) ([]*result.Result, error) {
		return makeResults(t, site, 2), nil
	}}
	sw := NewSweep(inner, []string{"ciela.net", "apis.bg"})

	results, err := sw.Search(context.Background(), "заявка", "vks.bg", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("returned %d results, want 2", len(results))
	}
	if len(inner.calls) != 1 || inner.calls[0].siteFilter != "vks.bg" {
		t.Errorf("calls = %+v, want a single delegated call", inner.calls)
	}
}

func TestSweep_MergesGeneralAndSiteResults(t *testing.T) {
	inner := &fakeEngine{fn: func(_, site string, _ int) ([]*result.Result, error) {
		if site == "" {
			return makeResults(t, "lex.bg", 2), nil
		}
		return makeResults(t, site, 1), nil
	}}
	sw := NewSweep(inner, []string{"ciela.net", "apis.bg", "lakorda.com"})

	results, err := sw.Search(context.Background(), "заявка", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("returned %d results, want 2 general + 3 swept", len(results))
	}

	// General results lead, sweep follows in site order.
	if results[0].Domain() != "lex.bg" || results[2].Domain() != "ciela.net" {
		t.Errorf("merge order broken: %s, %s", results[0].Domain(), results[2].Domain())
	}

	want := []call{
		{"заявка", "", 10},
		{"заявка", "ciela.net", sweepPerSiteTop},
		{"заявка", "apis.bg", sweepPerSiteTop},
		{"заявка", "lakorda.com", sweepPerSiteTop},
	}
	if len(inner.calls) != len(want) {
		t.Fatalf("calls = %+v", inner.calls)
	}
	for i, c := range inner.calls {
		if c != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, c, want[i])
		}
	}
}

func TestSweep_EarlyTermination(t *testing.T) {
	inner := &fakeEngine{fn: func(_, site string, _ int) ([]*result.Result, error) {
		if site == "" {
			return makeResults(t, "lex.bg", 2), nil
		}
		return makeResults(t, site, 5), nil
	}}
	sw := NewSweep(inner, []string{"ciela.net", "apis.bg", "lakorda.com", "vks.bg"})

	results, err := sw.Search(context.Background(), "заявка", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Three contributing sites reach 15 swept results; the fourth is skipped.
	if len(inner.calls) != 4 {
		t.Errorf("made %d calls, want general + 3 sites", len(inner.calls))
	}
	for _, c := range inner.calls {
		if c.siteFilter == "vks.bg" {
			t.Error("fourth site searched despite early termination")
		}
	}
	if len(results) != 17 {
		t.Errorf("returned %d results, want 2 general + 15 swept", len(results))
	}
}

func TestSweep_LowPrioritySiteBudget(t *testing.T) {
	inner := &fakeEngine{fn: func(_, site string, _ int) ([]*result.Result, error) {
		if site == "" {
			return nil, nil
		}
		return makeResults(t, site, 1), nil
	}}
	sw := NewSweep(inner, []string{"ciela.net", "apis.bg", "lakorda.com", "vks.bg"})

	if _, err := sw.Search(context.Background(), "заявка", "", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := inner.calls[len(inner.calls)-1]
	if last.siteFilter != "vks.bg" || last.limit != sweepPerSiteLow {
		t.Errorf("trailing site call = %+v, want the reduced budget", last)
	}
}

func TestSweep_SiteFailureSkipped(t *testing.T) {
	inner := &fakeEngine{fn: func(_, site string, _ int) ([]*result.Result, error) {
		if site == "apis.bg" {
			return nil, errors.New("quota exceeded")
		}
		if site == "" {
			return nil, nil
		}
		return makeResults(t, site, 2), nil
	}}
	sw := NewSweep(inner, []string{"ciela.net", "apis.bg", "lakorda.com"})

	results, err := sw.Search(context.Background(), "заявка", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("returned %d results, want 4 from the healthy sites", len(results))
	}
}

func TestSweep_GeneralFailureStillSweeps(t *testing.T) {
	inner := &fakeEngine{fn: func(_, site string, _ int) ([]*result.Result, error) {
		if site == "" {
			return nil, errors.New("quota exceeded")
		}
		return makeResults(t, site, 2), nil
	}}
	sw := NewSweep(inner, []string{"ciela.net"})

	results, err := sw.Search(context.Background(), "заявка", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("returned %d results, want the swept ones", len(results))
	}
}

func TestSweep_GeneralFailureAndEmptySweep(t *testing.T) {
	boom := errors.New("quota exceeded")
	inner := &fakeEngine{fn: func(_, _ string, _ int) ([]*result.Result, error) {
		return nil, boom
	}}
	sw := NewSweep(inner, []string{"ciela.net"})

	_, err := sw.Search(context.Background(), "заявка", "", 10)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want the general search error", err)
	}
}

func TestSweep_CapsSweptResults(t *testing.T) {
	inner := &fakeEngine{fn: func(_, site string, _ int) ([]*result.Result, error) {
		if site == "" {
			return nil, nil
		}
		return makeResults(t, site, 8), nil
	}}
	sw := NewSweep(inner, []string{"ciela.net", "apis.bg", "lakorda.com"})

	results, err := sw.Search(context.Background(), "заявка", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != sweepCap {
		t.Errorf("returned %d results, want the sweep cap %d", len(results), sweepCap)
	}
}
