package scoring

import (
	"strings"
	"unicode"

	"github.com/sofialex/pravex/internal/domain/legal"
)

// Preprocessor normalizes Bulgarian legal queries: lowercasing, common typo
// correction, legal abbreviation expansion, and compression of overly long
// queries down to their legally significant words.
type Preprocessor struct {
	typos    []replacement
	abbrevs  []replacement
	keep     []string
	maxWords int
	keepCap  int
}

type replacement struct {
	from string
	to   string
}

// Frequent misspellings seen in real user queries. Applied as plain substring
// replacements on the lowercased query.
var commonTypos = []replacement{
	{"обещетение", "обезщетение"},
	{"насказание", "наказание"},
	{"същта", "същата"},
	{"връка", "връзка"},
	{"амога", "мога"},
	{"намам", "нямам"},
}

// Bulgarian legal code abbreviations, expanded only when they stand alone as
// a word.
var legalAbbreviations = []replacement{
	{"гк", "граждански кодекс"},
	{"нк", "наказателен кодекс"},
	{"апк", "административнопроцесуален кодекс"},
	{"тк", "трудов кодекс"},
}

// Words that keep a compressed query anchored to its legal meaning, on top of
// the taxonomy keywords.
var importanceMarkers = []string{
	"закон", "кодекс", "право", "съд", "съдебен", "дело",
	"решение", "наредба", "жалба", "иск", "правен", "юридически",
}

// NewPreprocessor builds a preprocessor whose compression allow-list is the
// taxonomy keyword union plus the general legal importance markers.
func NewPreprocessor(tax *legal.Taxonomy) *Preprocessor {
	seen := make(map[string]struct{})
	keep := make([]string, 0, 64)
	for _, kw := range tax.Keywords() {
		if _, ok := seen[kw]; !ok {
			seen[kw] = struct{}{}
			keep = append(keep, kw)
		}
	}
	for _, kw := range importanceMarkers {
		if _, ok := seen[kw]; !ok {
			seen[kw] = struct{}{}
			keep = append(keep, kw)
		}
	}

	return &Preprocessor{
		typos:    commonTypos,
		abbrevs:  legalAbbreviations,
		keep:     keep,
		maxWords: 15,
		keepCap:  8,
	}
}

// Preprocess returns the normalized form of a raw user query.
func (p *Preprocessor) Preprocess(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))

	for _, r := range p.typos {
		q = strings.ReplaceAll(q, r.from, r.to)
	}
	q = p.expandAbbreviations(q)

	words := strings.Fields(q)
	if len(words) <= p.maxWords {
		return q
	}
	return p.compress(words, q)
}

// expandAbbreviations replaces standalone abbreviation words with their
// expansion, leaving surrounding punctuation in place.
func (p *Preprocessor) expandAbbreviations(q string) string {
	words := strings.Fields(q)
	changed := false

	for i, w := range words {
		core := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, a := range p.abbrevs {
			if core == a.from {
				words[i] = strings.Replace(w, core, a.to, 1)
				changed = true
				break
			}
		}
	}

	if !changed {
		return q
	}
	return strings.Join(words, " ")
}

// compress keeps only allow-listed words from an overly long query,
// preserving their original order. Falls back to the full query when no
// significant word is present.
func (p *Preprocessor) compress(words []string, full string) string {
	important := make([]string, 0, p.keepCap)
	for _, w := range words {
		if !p.isSignificant(w) {
			continue
		}
		important = append(important, w)
		if len(important) == p.keepCap {
			break
		}
	}

	if len(important) == 0 {
		return full
	}
	return strings.Join(important, " ")
}

func (p *Preprocessor) isSignificant(word string) bool {
	for _, kw := range p.keep {
		if strings.Contains(word, kw) {
			return true
		}
	}
	return false
}
