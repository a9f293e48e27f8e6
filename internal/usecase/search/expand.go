package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/domain/result"
	"github.com/sofialex/pravex/internal/logger"
)

const (
	expandQueryLimit = 5
	refineQueryLimit = 4
	refineSampleSize = 10
	refineSnippetLen = 100
)

// expandQueries turns the original query into several complementary search
// queries via the generator. Any failure degrades to the original query.
func (s *Service) expandQueries(ctx context.Context, query string) []string {
	if s.gen == nil {
		return []string{query}
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	raw, err := s.gen.Complete(gctx, expansionPrompt(query))
	if err != nil {
		logger.FromContext(ctx).Warn("query expansion failed, using original query", zap.Error(err))
		return []string{query}
	}

	queries := parseQueries(raw, expandQueryLimit)
	if len(queries) == 0 {
		return []string{query}
	}
	return queries
}

// refineQueries asks the generator for gap-filling queries based on what the
// first iteration found. Returns nil when refinement is not possible.
func (s *Service) refineQueries(ctx context.Context, query string, scored []*result.Result, avg float64) []string {
	if s.gen == nil {
		return nil
	}

	top := scored
	if len(top) > refineSampleSize {
		top = top[:refineSampleSize]
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	raw, err := s.gen.Complete(gctx, refinementPrompt(query, avg, top))
	if err != nil {
		logger.FromContext(ctx).Warn("query refinement failed, keeping first iteration", zap.Error(err))
		return nil
	}
	return parseQueries(raw, refineQueryLimit)
}

func expansionPrompt(query string) string {
	var b strings.Builder
	b.WriteString("Ти си асистент за търсене на българска правна информация.\n")
	fmt.Fprintf(&b, "Оригинална заявка: %q\n", query)
	b.WriteString("Предишен контекст: няма\n\n")
	b.WriteString("Генерирай между 3 и 5 различни заявки за търсене, които покриват различни правни ъгли на въпроса: ")
	b.WriteString("закони и кодекси, съдебна практика, процедури и срокове, обезщетения.\n")
	b.WriteString("Върни само заявките, по една на ред, без номерация и без обяснения.")
	return b.String()
}

func refinementPrompt(query string, avg float64, top []*result.Result) string {
	var b strings.Builder
	b.WriteString("Ти си асистент за търсене на българска правна информация.\n")
	fmt.Fprintf(&b, "Оригинална заявка: %q\n", query)
	fmt.Fprintf(&b, "Средна релевантност на намерените резултати: %.2f\n\n", avg)
	b.WriteString("Намерени до момента:\n")
	for i, r := range top {
		fmt.Fprintf(&b, "%d. %s (%.2f): %s\n",
			i+1, r.Title(), r.Scores().Combined, runePrefix(r.Snippet(), refineSnippetLen))
	}
	b.WriteString("\nРезултатите не покриват въпроса достатъчно. ")
	b.WriteString("Генерирай между 2 и 4 нови заявки за търсене, които запълват липсите с по-специфична правна информация.\n")
	b.WriteString("Върни само заявките, по една на ред, без номерация и без обяснения.")
	return b.String()
}

// enumPrefixRe strips list markers the model tends to add despite
// instructions.
var enumPrefixRe = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s*`)

// parseQueries extracts up to limit distinct queries from a generated
// response, one per line.
func parseQueries(raw string, limit int) []string {
	seen := make(map[string]struct{})
	var queries []string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = enumPrefixRe.ReplaceAllString(line, "")
		line = strings.Trim(line, `"'«»„“”`)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		queries = append(queries, line)
		if len(queries) == limit {
			break
		}
	}
	return queries
}

func runePrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
