package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/yargevad/filepathx"

	"arizor/internal/models"
	"arizor/internal/repositories"
)

// LoadStats counts how many fund records each fixture contributed.
type LoadStats struct {
	Principles      int
	Pairs           int
	Effects         int
	Standards       int
	Definitions     int
	Rules           int
	Transformations int
	AnalogCases     int
}

// Loader fills the fund from JSON fixture files and backfills embeddings.
type Loader struct {
	repo     repositories.KnowledgeRepository
	embedder Embedder
}

func NewLoader(repo repositories.KnowledgeRepository, embedder Embedder) *Loader {
	return &Loader{repo: repo, embedder: embedder}
}

// LoadAll loads every fixture type from dir.
func (l *Loader) LoadAll(ctx context.Context, dir string) (LoadStats, error) {
	var stats LoadStats

	loaded, pairs, err := l.LoadPrinciples(ctx, dir)
	if err != nil {
		return stats, err
	}
	stats.Principles, stats.Pairs = loaded, pairs

	if stats.Effects, err = l.LoadEffects(ctx, dir); err != nil {
		return stats, err
	}
	if stats.Standards, err = l.LoadStandards(ctx, dir); err != nil {
		return stats, err
	}
	if stats.Definitions, err = l.LoadDefinitions(ctx, dir); err != nil {
		return stats, err
	}
	if stats.Rules, err = l.LoadRules(ctx, dir); err != nil {
		return stats, err
	}
	if stats.Transformations, err = l.LoadTransformations(ctx, dir); err != nil {
		return stats, err
	}
	if stats.AnalogCases, err = l.LoadAnalogCases(ctx, dir); err != nil {
		return stats, err
	}
	return stats, nil
}

type principleFixture struct {
	Number       int      `json:"number"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Examples     []string `json:"examples"`
	IsAdditional bool     `json:"is_additional"`
}

type principlePairFixture struct {
	PrincipleNumber  int `json:"principle_number"`
	PairedWithNumber int `json:"paired_with_number"`
}

// LoadPrinciples loads the inventive principles and their pairings.
func (l *Loader) LoadPrinciples(ctx context.Context, dir string) (int, int, error) {
	var items []principleFixture
	if err := readFixture(filepath.Join(dir, "principles.json"), &items); err != nil {
		return 0, 0, err
	}
	for _, item := range items {
		p := &models.Principle{
			Number:       item.Number,
			Name:         item.Name,
			Description:  item.Description,
			Examples:     strings.Join(item.Examples, "\n"),
			IsAdditional: item.IsAdditional,
		}
		if err := l.repo.UpsertPrinciple(ctx, p); err != nil {
			return 0, 0, err
		}
	}
	log.Printf("Principles loaded: %d", len(items))

	var pairs []principlePairFixture
	pairsPath := filepath.Join(dir, "paired_principles.json")
	if err := readFixture(pairsPath, &pairs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return len(items), 0, nil
		}
		return len(items), 0, err
	}
	paired := 0
	for _, pair := range pairs {
		if err := l.repo.SetPrinciplePair(ctx, pair.PrincipleNumber, pair.PairedWithNumber); err != nil {
			log.Printf("Skipping pair %d<->%d: %v", pair.PrincipleNumber, pair.PairedWithNumber, err)
			continue
		}
		paired++
	}
	log.Printf("Paired principles: %d pairs set", paired)
	return len(items), paired, nil
}

type effectFixture struct {
	Type             string   `json:"type"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	FunctionKeywords []string `json:"function_keywords"`
}

// LoadEffects loads technological effects from every effects_*.json file.
func (l *Loader) LoadEffects(ctx context.Context, dir string) (int, error) {
	files, err := filepathx.Glob(filepath.Join(dir, "effects_*.json"))
	if err != nil {
		return 0, fmt.Errorf("globbing effect fixtures: %w", err)
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no effect fixtures found in %s", dir)
	}

	total := 0
	for _, file := range files {
		var items []effectFixture
		if err := readFixture(file, &items); err != nil {
			return total, err
		}
		for _, item := range items {
			e := &models.Effect{
				Category:         item.Type,
				Name:             item.Name,
				Description:      item.Description,
				FunctionKeywords: strings.Join(item.FunctionKeywords, ","),
			}
			if err := l.repo.UpsertEffect(ctx, e); err != nil {
				return total, err
			}
		}
		total += len(items)
		log.Printf("Effects loaded from %s: %d", filepath.Base(file), len(items))
	}
	return total, nil
}

type standardFixture struct {
	ClassNumber   int    `json:"class_number"`
	Number        string `json:"number"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Applicability string `json:"applicability"`
}

func (l *Loader) LoadStandards(ctx context.Context, dir string) (int, error) {
	var items []standardFixture
	if err := readFixture(filepath.Join(dir, "standards.json"), &items); err != nil {
		return 0, err
	}
	for _, item := range items {
		s := &models.Standard{
			ClassNumber:   item.ClassNumber,
			Number:        item.Number,
			Name:          item.Name,
			Description:   item.Description,
			Applicability: item.Applicability,
		}
		if err := l.repo.UpsertStandard(ctx, s); err != nil {
			return 0, err
		}
	}
	log.Printf("Standards loaded: %d", len(items))
	return len(items), nil
}

type definitionFixture struct {
	Number     int    `json:"number"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

func (l *Loader) LoadDefinitions(ctx context.Context, dir string) (int, error) {
	var items []definitionFixture
	if err := readFixture(filepath.Join(dir, "definitions.json"), &items); err != nil {
		return 0, err
	}
	for _, item := range items {
		d := &models.Definition{Number: item.Number, Term: item.Term, Definition: item.Definition}
		if err := l.repo.UpsertDefinition(ctx, d); err != nil {
			return 0, err
		}
	}
	log.Printf("Definitions loaded: %d", len(items))
	return len(items), nil
}

type ruleFixture struct {
	Number      int      `json:"number"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

func (l *Loader) LoadRules(ctx context.Context, dir string) (int, error) {
	var items []ruleFixture
	if err := readFixture(filepath.Join(dir, "rules.json"), &items); err != nil {
		return 0, err
	}
	for _, item := range items {
		rule := &models.Rule{
			Number:      item.Number,
			Name:        item.Name,
			Description: item.Description,
			Examples:    strings.Join(item.Examples, "\n"),
		}
		if err := l.repo.UpsertRule(ctx, rule); err != nil {
			return 0, err
		}
	}
	log.Printf("Rules loaded: %d", len(items))
	return len(items), nil
}

type transformationFixture struct {
	ContradictionType string `json:"contradiction_type"`
	Transformation    string `json:"transformation"`
	Description       string `json:"description"`
}

func (l *Loader) LoadTransformations(ctx context.Context, dir string) (int, error) {
	var items []transformationFixture
	if err := readFixture(filepath.Join(dir, "typical_transformations.json"), &items); err != nil {
		return 0, err
	}
	for _, item := range items {
		t := &models.Transformation{
			ContradictionType: item.ContradictionType,
			Name:              item.Transformation,
			Description:       item.Description,
		}
		if err := l.repo.UpsertTransformation(ctx, t); err != nil {
			return 0, err
		}
	}
	log.Printf("Transformations loaded: %d", len(items))
	return len(items), nil
}

type analogFixture struct {
	Title              string `json:"title"`
	ProblemDescription string `json:"problem_description"`
	OPFormulation      string `json:"op_formulation"`
	SolutionPrinciple  string `json:"solution_principle"`
	Domain             string `json:"domain"`
	Source             string `json:"source"`
}

func (l *Loader) LoadAnalogCases(ctx context.Context, dir string) (int, error) {
	var items []analogFixture
	if err := readFixture(filepath.Join(dir, "analog_tasks.json"), &items); err != nil {
		return 0, err
	}
	for _, item := range items {
		c := &models.AnalogCase{
			Title:         item.Title,
			ProblemText:   item.ProblemDescription,
			OPFormulation: item.OPFormulation,
			SolutionText:  item.SolutionPrinciple,
			Domain:        item.Domain,
			Source:        item.Source,
		}
		if err := l.repo.UpsertAnalogCase(ctx, c); err != nil {
			return 0, err
		}
	}
	log.Printf("Analog cases loaded: %d", len(items))
	return len(items), nil
}

// GenerateEmbeddings backfills vectors for analog cases and effects that do
// not have one yet. Per-record failures are logged and skipped so one bad
// call does not abort the batch.
func (l *Loader) GenerateEmbeddings(ctx context.Context) error {
	if l.embedder == nil {
		log.Printf("Embedder not available, skipping embedding generation")
		return nil
	}

	effects, err := l.repo.ListEffects(ctx)
	if err != nil {
		return err
	}
	embedded := 0
	for _, e := range effects {
		if len(e.Embedding) > 0 {
			continue
		}
		vector, err := l.embedder.Embed(ctx, e.Name+": "+e.Description)
		if err != nil {
			log.Printf("Failed to generate embedding for effect %q: %v", e.Name, err)
			continue
		}
		if err := l.repo.SaveEffectEmbedding(ctx, e.ID, EncodeVector(vector)); err != nil {
			return err
		}
		embedded++
	}
	log.Printf("Effect embeddings generated: %d", embedded)

	cases, err := l.repo.ListAnalogCases(ctx)
	if err != nil {
		return err
	}
	embedded = 0
	for _, c := range cases {
		if len(c.Embedding) > 0 {
			continue
		}
		vector, err := l.embedder.Embed(ctx, c.Title+": "+c.OPFormulation)
		if err != nil {
			log.Printf("Failed to generate embedding for analog case %q: %v", c.Title, err)
			continue
		}
		if err := l.repo.SaveAnalogEmbedding(ctx, c.ID, EncodeVector(vector)); err != nil {
			return err
		}
		embedded++
	}
	log.Printf("Analog case embeddings generated: %d", embedded)
	return nil
}

func readFixture(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading fixture %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return nil
}
