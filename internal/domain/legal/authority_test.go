package legal

import (
	"strings"
	"testing"
)

func TestAuthorityTable_KnownHosts(t *testing.T) {
	table := DefaultAuthorityTable()

	tests := []struct {
		url  string
		want float64
	}{
		{"https://www.ciela.net/act/123", 0.95},
		{"https://apis.bg/bg/document/55", 0.90},
		{"https://justice.government.bg/home", 0.85},
		{"http://www.vks.bg/talkuvatelni-dela", 0.80},
		{"https://vss.bg/decision", 0.80},
		{"https://web.lakorda.com/doc", 0.75},
	}

	for _, tt := range tests {
		if got := table.Score(tt.url); got != tt.want {
			t.Errorf("Score(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestAuthorityTable_UnknownHostDefault(t *testing.T) {
	table := DefaultAuthorityTable()

	if got := table.Score("https://example.com/blog/law"); got != 0.5 {
		t.Errorf("Score = %v, want 0.5", got)
	}
	if got := table.Score(""); got != 0.5 {
		t.Errorf("Score(\"\") = %v, want 0.5", got)
	}
}

func TestAuthorityTable_CaseInsensitive(t *testing.T) {
	table := DefaultAuthorityTable()

	if got := table.Score("HTTPS://APIS.BG/DOC"); got != 0.90 {
		t.Errorf("Score = %v, want 0.90", got)
	}
}

func TestNewAuthorityTable_Overrides(t *testing.T) {
	table, err := NewAuthorityTable(map[string]float64{
		"example.com": 0.7,
		"ciela.net":   0.6, // lower a built-in
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := table.Score("https://example.com/x"); got != 0.7 {
		t.Errorf("Score override = %v, want 0.7", got)
	}
	if got := table.Score("https://ciela.net/x"); got != 0.6 {
		t.Errorf("Score replaced built-in = %v, want 0.6", got)
	}
}

func TestNewAuthorityTable_Invalid(t *testing.T) {
	_, err := NewAuthorityTable(map[string]float64{"example.com": 1.5})
	if err == nil {
		t.Fatal("expected error for weight above 1")
	}
	if !strings.Contains(err.Error(), "outside") {
		t.Errorf("error = %q, want 'outside'", err)
	}

	_, err = NewAuthorityTable(map[string]float64{"  ": 0.5})
	if err == nil {
		t.Fatal("expected error for blank host")
	}
}

func TestAuthorityTable_LongestHostWins(t *testing.T) {
	table, err := NewAuthorityTable(map[string]float64{"government.bg": 0.4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// justice.government.bg is more specific than government.bg and must
	// match first.
	if got := table.Score("https://justice.government.bg/x"); got != 0.85 {
		t.Errorf("Score = %v, want 0.85", got)
	}
	if got := table.Score("https://mjs.government.bg/x"); got != 0.4 {
		t.Errorf("Score = %v, want 0.4", got)
	}
}
