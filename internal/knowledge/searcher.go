// Package knowledge provides search over the TRIZ informational fund:
// semantic search for analog cases and technological effects, rule-based
// principle suggestion, and fixture loading.
package knowledge

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"arizor/internal/models"
	"arizor/internal/repositories"
)

// Embedder turns text into a vector. Nil embedders degrade the searcher to
// keyword matching.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the unified search interface over the fund. Embeddings are
// compared in memory with cosine similarity; records without embeddings
// fall back to keyword overlap so a fresh install still returns something.
type Searcher struct {
	repo     repositories.KnowledgeRepository
	embedder Embedder
}

func NewSearcher(repo repositories.KnowledgeRepository, embedder Embedder) *Searcher {
	return &Searcher{repo: repo, embedder: embedder}
}

// SearchAnalogCases finds the analog cases closest to a sharpened
// contradiction formulation, best first.
func (s *Searcher) SearchAnalogCases(ctx context.Context, opFormulation string, topK int) ([]models.AnalogCase, error) {
	if strings.TrimSpace(opFormulation) == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}

	cases, err := s.repo.ListAnalogCases(ctx)
	if err != nil {
		return nil, err
	}

	query := s.embedQuery(ctx, opFormulation)
	type scored struct {
		c     models.AnalogCase
		score float64
	}
	var ranked []scored
	for _, c := range cases {
		score := s.score(query, c.Embedding, opFormulation, c.Title+" "+c.OPFormulation+" "+c.ProblemText)
		if score > 0 {
			ranked = append(ranked, scored{c: c, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	results := make([]models.AnalogCase, len(ranked))
	for i, r := range ranked {
		results[i] = r.c
	}
	log.Printf("Analog case search: query_len=%d results=%d", len(opFormulation), len(results))
	return results, nil
}

// SuggestPrinciples suggests inventive principles for a contradiction type
// ("surface", "deepened", "sharpened"). Typical transformations matching
// the type are mapped back to principles by name; when nothing matches, the
// first five classical principles are returned.
func (s *Searcher) SuggestPrinciples(ctx context.Context, contradictionType, formulation string) ([]models.Principle, error) {
	transformations, err := s.repo.TransformationsByType(ctx, contradictionType)
	if err != nil {
		return nil, err
	}

	if len(transformations) == 0 && formulation != "" {
		for _, keyword := range keywordCandidates(formulation, 5) {
			transformations, err = s.repo.TransformationsDescribedLike(ctx, keyword)
			if err != nil {
				return nil, err
			}
			if len(transformations) > 0 {
				break
			}
		}
	}

	if len(transformations) > 0 {
		seen := map[int]bool{}
		var principles []models.Principle
		for _, t := range transformations {
			matched, err := s.repo.PrinciplesNamedLike(ctx, t.Name)
			if err != nil {
				return nil, err
			}
			for _, p := range matched {
				if !seen[p.Number] {
					seen[p.Number] = true
					principles = append(principles, p)
				}
			}
		}
		if len(principles) > 0 {
			sort.Slice(principles, func(i, j int) bool { return principles[i].Number < principles[j].Number })
			log.Printf("Suggest principles: type=%s found=%d via transformations", contradictionType, len(principles))
			return principles, nil
		}
	}

	fallback, err := s.repo.ClassicalPrinciples(ctx, 5)
	if err != nil {
		return nil, err
	}
	log.Printf("Suggest principles: type=%s fallback=%d classical principles", contradictionType, len(fallback))
	return fallback, nil
}

// FindEffects finds technological effects whose descriptions are closest to
// a function description.
func (s *Searcher) FindEffects(ctx context.Context, functionDescription string, topK int) ([]models.Effect, error) {
	if strings.TrimSpace(functionDescription) == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}

	effects, err := s.repo.ListEffects(ctx)
	if err != nil {
		return nil, err
	}

	query := s.embedQuery(ctx, functionDescription)
	type scored struct {
		e     models.Effect
		score float64
	}
	var ranked []scored
	for _, e := range effects {
		score := s.score(query, e.Embedding, functionDescription, e.Name+" "+e.Description+" "+e.FunctionKeywords)
		if score > 0 {
			ranked = append(ranked, scored{e: e, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	results := make([]models.Effect, len(ranked))
	for i, r := range ranked {
		results[i] = r.e
	}
	log.Printf("Effect search: query_len=%d results=%d", len(functionDescription), len(results))
	return results, nil
}

// SearchEffectsByKeywords matches effects whose function keyword list
// contains any of the given keywords. Pure keyword path, no embeddings.
func (s *Searcher) SearchEffectsByKeywords(ctx context.Context, keywords []string) ([]models.Effect, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	effects, err := s.repo.ListEffects(ctx)
	if err != nil {
		return nil, err
	}

	var results []models.Effect
	for _, e := range effects {
		stored := strings.Split(e.FunctionKeywords, ",")
		for i := range stored {
			stored[i] = strings.ToLower(strings.TrimSpace(stored[i]))
		}
		for _, kw := range keywords {
			if containsString(stored, strings.ToLower(strings.TrimSpace(kw))) {
				results = append(results, e)
				break
			}
		}
	}
	log.Printf("Keyword effect search: keywords=%v results=%d", keywords, len(results))
	return results, nil
}

// embedQuery embeds the search text, returning nil when no embedder is
// configured or the call fails. Search then degrades to keywords.
func (s *Searcher) embedQuery(ctx context.Context, text string) []float32 {
	if s.embedder == nil {
		return nil
	}
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		log.Printf("Query embedding failed, falling back to keyword search: %v", err)
		return nil
	}
	return vector
}

// score ranks one record against the query: cosine similarity when both
// sides have vectors, keyword overlap otherwise.
func (s *Searcher) score(query []float32, blob []byte, queryText, recordText string) float64 {
	if len(query) > 0 && len(blob) > 0 {
		stored, err := DecodeVector(blob)
		if err == nil {
			return CosineSimilarity(query, stored)
		}
		log.Printf("Corrupt embedding blob skipped: %v", err)
	}
	return keywordOverlap(queryText, recordText)
}

// keywordOverlap is the share of significant query words present in the
// record text, in [0, 1].
func keywordOverlap(queryText, recordText string) float64 {
	queryWords := keywordCandidates(queryText, 0)
	if len(queryWords) == 0 {
		return 0
	}
	haystack := strings.ToLower(recordText)
	matched := 0
	for _, w := range queryWords {
		if strings.Contains(haystack, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// keywordCandidates extracts lowercase words longer than three characters.
// A positive limit caps how many are returned.
func keywordCandidates(text string, limit int) []string {
	var words []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		cleaned := strings.Trim(field, ".,;:!?()[]«»\"'")
		if utf8.RuneCountInString(cleaned) > 3 {
			words = append(words, cleaned)
			if limit > 0 && len(words) >= limit {
				break
			}
		}
	}
	return words
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}

// FormatAnalogCases renders search results as a markdown block for prompt
// context.
func FormatAnalogCases(cases []models.AnalogCase) string {
	if len(cases) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**Задачи-аналоги:**\n")
	for i, c := range cases {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Title)
		if c.OPFormulation != "" {
			fmt.Fprintf(&b, "   Противоречие: %s\n", c.OPFormulation)
		}
		if c.SolutionText != "" {
			fmt.Fprintf(&b, "   Решение: %s\n", c.SolutionText)
		}
	}
	return b.String()
}

// FormatPrinciples renders suggested principles as a markdown block.
func FormatPrinciples(principles []models.Principle) string {
	if len(principles) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**Рекомендуемые принципы:**\n")
	for _, p := range principles {
		fmt.Fprintf(&b, "- Принцип %d: %s", p.Number, p.Name)
		if p.Description != "" {
			fmt.Fprintf(&b, " (%s)", p.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatEffects renders matched effects as a markdown block.
func FormatEffects(effects []models.Effect) string {
	if len(effects) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**Применимые эффекты:**\n")
	for _, e := range effects {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", e.Category, e.Name, e.Description)
	}
	return b.String()
}
