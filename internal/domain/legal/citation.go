package legal

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// CitationKind labels a recognized citation form.
type CitationKind string

// Citation forms recognized in Bulgarian legal text.
const (
	CitationArticle    CitationKind = "article"    // чл. 45а
	CitationParagraph  CitationKind = "paragraph"  // ал. 2
	CitationPoint      CitationKind = "point"      // т. 5
	CitationSection    CitationKind = "section"    // § 10
	CitationDecision   CitationKind = "decision"   // решение № 4589
	CitationCase       CitationKind = "case"       // дело № 1122
	CitationECLI       CitationKind = "ecli"       // ECLI:BG:VKS:2023:...
	CitationLaw        CitationKind = "law"        // Закон за задълженията...
	CitationCode       CitationKind = "code"       // Кодекс на труда
	CitationRegulation CitationKind = "regulation" // Наредба № 5
	CitationDecree     CitationKind = "decree"     // Постановление № 12, ПМС № 3
)

// Citation is one recognized reference with its matched text.
type Citation struct {
	Kind CitationKind `json:"kind"`
	Text string       `json:"text"`
}

type citationPattern struct {
	kind CitationKind
	re   *regexp.Regexp
}

// CitationExtractor finds statutory and case-law references in Bulgarian
// legal text by pattern matching.
type CitationExtractor struct {
	patterns []citationPattern
}

// NewCitationExtractor compiles the citation pattern set.
func NewCitationExtractor() *CitationExtractor {
	return &CitationExtractor{patterns: []citationPattern{
		{CitationArticle, regexp.MustCompile(`(?i)чл\.\s*\d+[а-я]*`)},
		{CitationParagraph, regexp.MustCompile(`(?i)ал\.\s*\d+`)},
		{CitationPoint, regexp.MustCompile(`(?i)т\.\s*\d+`)},
		{CitationSection, regexp.MustCompile(`§\s*\d+`)},
		{CitationDecision, regexp.MustCompile(`(?i)(?:решение|р-ние)\s*№?\s*\d+`)},
		{CitationCase, regexp.MustCompile(`(?i)дело\s*№?\s*\d+`)},
		{CitationECLI, regexp.MustCompile(`ECLI:[A-Z]{2}:[A-Z0-9]+:\d{4}:[A-Z0-9.]+`)},
		{CitationLaw, regexp.MustCompile(`(?i)закон\s+(?:за|относно)\s+[а-я\s]+`)},
		{CitationCode, regexp.MustCompile(`(?i)кодекс\s+[а-я\s]+`)},
		{CitationRegulation, regexp.MustCompile(`(?i)наредба\s+№?\s*\d+`)},
		{CitationDecree, regexp.MustCompile(`(?i)(?:постановление|пмс)\s+№?\s*\d+`)},
	}}
}

// Extract returns the citations found in a text, de-duplicated by matched
// text, in order of first appearance. Fragments of two runes or fewer are
// noise and dropped.
func (e *CitationExtractor) Extract(text string) []Citation {
	seen := make(map[string]struct{})
	var out []Citation

	for _, p := range e.patterns {
		for _, m := range p.re.FindAllString(text, -1) {
			m = strings.TrimSpace(m)
			if utf8.RuneCountInString(m) <= 2 {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, Citation{Kind: p.kind, Text: m})
		}
	}
	return out
}

// DocumentKind identifies the kind of legal document a text most resembles.
func DocumentKind(text string) string {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "решение") &&
		(strings.Contains(lower, "съд") || strings.Contains(lower, "дело")):
		return "court_decision"
	case strings.Contains(lower, "закон"):
		return "law"
	case strings.Contains(lower, "кодекс"):
		return "code"
	case strings.Contains(lower, "наредба"):
		return "regulation"
	case strings.Contains(lower, "постановление"):
		return "decree"
	default:
		return "legal_document"
	}
}
