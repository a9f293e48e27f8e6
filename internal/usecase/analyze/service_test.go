package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sofialex/pravex/internal/domain"
	"github.com/sofialex/pravex/internal/domain/legal"
)

type mockFetcher struct {
	urls    []string
	content string
	err     error
}

func (m *mockFetcher) Fetch(_ context.Context, url string) (string, error) {
	m.urls = append(m.urls, url)
	if m.err != nil {
		return "", m.err
	}
	return m.content, nil
}

const laborText = "Кодекс на труда, чл. 200, ал. 1: работодателят дължи " +
	"обезщетение при трудова злополука. Работникът има право на заплата и " +
	"отпуска по трудов договор."

const decisionText = "Решение № 4589 от 10.05.2019 г. по гражданско дело " +
	"№ 1122/2018 на Върховния касационен съд, ECLI:BG:VKS:2019:1122.45"

func newService(fetcher Fetcher) *Service {
	return New(fetcher, legal.NewClassifier(legal.DefaultTaxonomy()))
}

func citationTexts(report *Report, kind legal.CitationKind) []string {
	var out []string
	for _, c := range report.Citations {
		if c.Kind == kind {
			out = append(out, c.Text)
		}
	}
	return out
}

func TestAnalyzeText_LaborStatute(t *testing.T) {
	svc := newService(&mockFetcher{})

	report := svc.AnalyzeText(context.Background(), laborText)

	if report.LegalDomain != legal.Labor {
		t.Errorf("legal domain = %q, want %q", report.LegalDomain, legal.Labor)
	}
	if report.Confidence <= 0 || report.Confidence > 1 {
		t.Errorf("confidence = %v, want within (0,1]", report.Confidence)
	}
	if report.DocumentKind != "code" {
		t.Errorf("document kind = %q, want code", report.DocumentKind)
	}
	if report.TextLength != utf8.RuneCountInString(laborText) {
		t.Errorf("text length = %d, want %d", report.TextLength, utf8.RuneCountInString(laborText))
	}

	if got := citationTexts(report, legal.CitationArticle); len(got) != 1 || got[0] != "чл. 200" {
		t.Errorf("article citations = %v", got)
	}
	if got := citationTexts(report, legal.CitationParagraph); len(got) != 1 || got[0] != "ал. 1" {
		t.Errorf("paragraph citations = %v", got)
	}
	if got := citationTexts(report, legal.CitationCode); len(got) != 1 || got[0] != "Кодекс на труда" {
		t.Errorf("code citations = %v", got)
	}
}

func TestAnalyzeText_CourtDecision(t *testing.T) {
	svc := newService(&mockFetcher{})

	report := svc.AnalyzeText(context.Background(), decisionText)

	if report.LegalDomain != legal.Procedural {
		t.Errorf("legal domain = %q, want %q", report.LegalDomain, legal.Procedural)
	}
	if report.DocumentKind != "court_decision" {
		t.Errorf("document kind = %q, want court_decision", report.DocumentKind)
	}

	if got := citationTexts(report, legal.CitationDecision); len(got) != 1 || got[0] != "Решение № 4589" {
		t.Errorf("decision citations = %v", got)
	}
	if got := citationTexts(report, legal.CitationCase); len(got) != 1 || got[0] != "дело № 1122" {
		t.Errorf("case citations = %v", got)
	}
	if got := citationTexts(report, legal.CitationECLI); len(got) != 1 || got[0] != "ECLI:BG:VKS:2019:1122.45" {
		t.Errorf("ecli citations = %v", got)
	}
}

func TestAnalyzeText_Empty(t *testing.T) {
	svc := newService(&mockFetcher{})

	report := svc.AnalyzeText(context.Background(), "  \n ")

	if report.LegalDomain != legal.Unknown {
		t.Errorf("legal domain = %q, want unknown", report.LegalDomain)
	}
	if report.TextLength != 0 {
		t.Errorf("text length = %d, want 0", report.TextLength)
	}
	if len(report.Citations) != 0 {
		t.Errorf("citations = %v, want none", report.Citations)
	}
	if report.Excerpt != "" {
		t.Errorf("excerpt = %q, want empty", report.Excerpt)
	}
}

func TestAnalyzeText_ExcerptTruncated(t *testing.T) {
	svc := newService(&mockFetcher{})
	long := strings.Repeat("правен текст ", 40)

	report := svc.AnalyzeText(context.Background(), long)

	if got := utf8.RuneCountInString(report.Excerpt); got != 300 {
		t.Errorf("excerpt length = %d runes, want 300", got)
	}
	if !strings.HasPrefix(long, report.Excerpt) {
		t.Error("excerpt is not a prefix of the input")
	}
}

func TestAnalyzeURL(t *testing.T) {
	fetcher := &mockFetcher{content: laborText}
	svc := newService(fetcher)

	report, err := svc.AnalyzeURL(context.Background(), "https://lex.bg/laws/kt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.URL != "https://lex.bg/laws/kt" {
		t.Errorf("url = %q", report.URL)
	}
	if report.LegalDomain != legal.Labor {
		t.Errorf("legal domain = %q, want %q", report.LegalDomain, legal.Labor)
	}
	if len(fetcher.urls) != 1 || fetcher.urls[0] != "https://lex.bg/laws/kt" {
		t.Errorf("fetched urls = %v", fetcher.urls)
	}
}

func TestAnalyzeURL_FetchFailure(t *testing.T) {
	fetcher := &mockFetcher{err: fmt.Errorf("%w: status 503", domain.ErrFetchFailed)}
	svc := newService(fetcher)

	_, err := svc.AnalyzeURL(context.Background(), "https://lex.bg/laws/kt")
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Errorf("error = %v, want ErrFetchFailed", err)
	}
}
