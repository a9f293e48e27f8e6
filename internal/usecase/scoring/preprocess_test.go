package scoring

import (
	"strings"
	"testing"

	"github.com/sofialex/pravex/internal/domain/legal"
)

func newTestPreprocessor(t *testing.T) *Preprocessor {
	t.Helper()
	return NewPreprocessor(legal.DefaultTaxonomy())
}

func TestPreprocess_Lowercases(t *testing.T) {
	p := newTestPreprocessor(t)

	if got := p.Preprocess("Обезщетение При ПТП"); got != "обезщетение при птп" {
		t.Errorf("Preprocess() = %q", got)
	}
}

func TestPreprocess_CorrectsTypos(t *testing.T) {
	p := newTestPreprocessor(t)

	tests := []struct {
		in   string
		want string
	}{
		{"обещетение за вреди", "обезщетение за вреди"},
		{"какво насказание грози крадеца", "какво наказание грози крадеца"},
		{"същта наредба", "същата наредба"},
		{"във връка с делото", "във връзка с делото"},
		{"намам договор", "нямам договор"},
	}

	for _, tt := range tests {
		if got := p.Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPreprocess_ExpandsAbbreviations(t *testing.T) {
	p := newTestPreprocessor(t)

	tests := []struct {
		in   string
		want string
	}{
		{"чл 45 гк", "чл 45 граждански кодекс"},
		{"наказание по нк", "наказание по наказателен кодекс"},
		{"жалба по апк", "жалба по административнопроцесуален кодекс"},
		{"отпуска по тк", "отпуска по трудов кодекс"},
		{"гк.", "граждански кодекс."},
	}

	for _, tt := range tests {
		if got := p.Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPreprocess_AbbreviationNeedsWordBoundary(t *testing.T) {
	p := newTestPreprocessor(t)

	// "гк" embedded in a longer word must stay untouched.
	if got := p.Preprocess("логка на закона"); got != "логка на закона" {
		t.Errorf("Preprocess() = %q, embedded abbreviation was expanded", got)
	}
}

func TestPreprocess_TypoAndAbbreviationTogether(t *testing.T) {
	p := newTestPreprocessor(t)

	got := p.Preprocess("обещетение по гк")
	if got != "обезщетение по граждански кодекс" {
		t.Errorf("Preprocess() = %q", got)
	}
}

func TestPreprocess_CompressesLongQuery(t *testing.T) {
	p := newTestPreprocessor(t)

	in := "как да разбера дали изобщо имам някакво основание против моя съсед " +
		"заради неговото куче обезщетение чрез съд"
	got := p.Preprocess(in)

	if got != "обезщетение съд" {
		t.Errorf("Preprocess() = %q, want compressed to significant words", got)
	}
}

func TestPreprocess_CompressionPreservesOrderAndCap(t *testing.T) {
	p := newTestPreprocessor(t)

	// 16 words, 10 of them significant: only the first 8 survive, in order.
	in := "съд дело решение наредба жалба иск закон кодекс право съдебен " +
		"а б в г д е"
	got := p.Preprocess(in)

	words := strings.Fields(got)
	if len(words) != 8 {
		t.Fatalf("Preprocess() kept %d words, want 8: %q", len(words), got)
	}
	if got != "съд дело решение наредба жалба иск закон кодекс" {
		t.Errorf("Preprocess() = %q, order not preserved", got)
	}
}

func TestPreprocess_NoSignificantWordsKeepsFullQuery(t *testing.T) {
	p := newTestPreprocessor(t)

	in := "едно две три четири пет шест седем осем девет десет " +
		"единадесет дванадесет тринадесет четиринадесет петнадесет шестнадесет"
	got := p.Preprocess(in)

	if got != in {
		t.Errorf("Preprocess() = %q, want full query when nothing is significant", got)
	}
}

func TestPreprocess_ShortQueryNotCompressed(t *testing.T) {
	p := newTestPreprocessor(t)

	in := "обезщетение при пътен инцидент с материални щети по колата"
	if got := p.Preprocess(in); got != in {
		t.Errorf("Preprocess() = %q, short query must pass through", got)
	}
}
