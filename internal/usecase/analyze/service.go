// Package analyze inspects individual legal documents: it assigns a practice
// area, detects the document kind, and extracts statutory and case-law
// citations. Documents arrive either as raw text or as a URL to fetch first.
package analyze

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/domain/legal"
	"github.com/sofialex/pravex/internal/logger"
)

// excerptLimit caps the text preview carried back to clients.
const excerptLimit = 300

// Report is the outcome of analyzing one document.
type Report struct {
	URL          string           `json:"url,omitempty"`
	LegalDomain  legal.Domain     `json:"legal_domain"`
	Confidence   float64          `json:"confidence"`
	DocumentKind string           `json:"document_kind"`
	Citations    []legal.Citation `json:"citations"`
	TextLength   int              `json:"text_length"`
	Excerpt      string           `json:"excerpt,omitempty"`
}

// Service is the document analyzer.
type Service struct {
	fetcher    Fetcher
	classifier *legal.Classifier
	extractor  *legal.CitationExtractor
}

// New creates an analyzer.
func New(fetcher Fetcher, classifier *legal.Classifier) *Service {
	return &Service{
		fetcher:    fetcher,
		classifier: classifier,
		extractor:  legal.NewCitationExtractor(),
	}
}

// AnalyzeURL fetches a document and analyzes its readable text.
func (s *Service) AnalyzeURL(ctx context.Context, url string) (*Report, error) {
	text, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	report := s.AnalyzeText(ctx, text)
	report.URL = url
	return report, nil
}

// AnalyzeText classifies a document, detects its kind, and extracts
// citations. Empty text yields an empty report rather than an error.
func (s *Service) AnalyzeText(ctx context.Context, text string) *Report {
	text = strings.TrimSpace(text)

	class := s.classifier.Classify(text)
	report := &Report{
		LegalDomain:  class.Domain,
		Confidence:   class.Confidence,
		DocumentKind: legal.DocumentKind(text),
		Citations:    s.extractor.Extract(text),
		TextLength:   utf8.RuneCountInString(text),
		Excerpt:      excerpt(text),
	}

	logger.FromContext(ctx).Debug("analyzed document",
		zap.String("legal_domain", string(report.LegalDomain)),
		zap.String("document_kind", report.DocumentKind),
		zap.Int("citations", len(report.Citations)),
		zap.Int("text_length", report.TextLength),
	)
	return report
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit])
}
