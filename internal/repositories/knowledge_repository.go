package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"arizor/internal/models"
)

// KnowledgeCounts summarizes how many records each part of the fund holds.
type KnowledgeCounts struct {
	AnalogCases     int64 `json:"analogCases"`
	Principles      int64 `json:"principles"`
	Effects         int64 `json:"effects"`
	Standards       int64 `json:"standards"`
	Definitions     int64 `json:"definitions"`
	Rules           int64 `json:"rules"`
	Transformations int64 `json:"transformations"`
}

// KnowledgeRepository stores the informational fund the search layer reads:
// analog cases, inventive principles, technological effects, standards,
// definitions, rules and typical transformations. Ingest upserts by natural
// key so re-running it refreshes rather than duplicates.
type KnowledgeRepository interface {
	ListAnalogCases(ctx context.Context) ([]models.AnalogCase, error)
	ListPrinciples(ctx context.Context) ([]models.Principle, error)
	ClassicalPrinciples(ctx context.Context, limit int) ([]models.Principle, error)
	PrinciplesByNumbers(ctx context.Context, numbers []int) ([]models.Principle, error)
	PrinciplesNamedLike(ctx context.Context, fragment string) ([]models.Principle, error)
	ListEffects(ctx context.Context) ([]models.Effect, error)
	ListStandards(ctx context.Context) ([]models.Standard, error)
	ListDefinitions(ctx context.Context) ([]models.Definition, error)
	ListRules(ctx context.Context) ([]models.Rule, error)
	RulesByNumbers(ctx context.Context, numbers []int) ([]models.Rule, error)
	TransformationsByType(ctx context.Context, contradictionType string) ([]models.Transformation, error)
	TransformationsDescribedLike(ctx context.Context, fragment string) ([]models.Transformation, error)
	UpsertAnalogCase(ctx context.Context, c *models.AnalogCase) error
	UpsertPrinciple(ctx context.Context, p *models.Principle) error
	UpsertEffect(ctx context.Context, e *models.Effect) error
	UpsertStandard(ctx context.Context, s *models.Standard) error
	UpsertDefinition(ctx context.Context, d *models.Definition) error
	UpsertRule(ctx context.Context, rule *models.Rule) error
	UpsertTransformation(ctx context.Context, t *models.Transformation) error
	SetPrinciplePair(ctx context.Context, number, pairedWith int) error
	SaveAnalogEmbedding(ctx context.Context, id uint, embedding []byte) error
	SaveEffectEmbedding(ctx context.Context, id uint, embedding []byte) error
	Counts(ctx context.Context) (KnowledgeCounts, error)
}

type knowledgeRepository struct {
	db *gorm.DB
}

func NewKnowledgeRepository(db *gorm.DB) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

func (r *knowledgeRepository) ListAnalogCases(ctx context.Context) ([]models.AnalogCase, error) {
	var list []models.AnalogCase
	if err := r.db.WithContext(ctx).Order("title").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing analog cases: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) ListPrinciples(ctx context.Context) ([]models.Principle, error) {
	var list []models.Principle
	if err := r.db.WithContext(ctx).Order("number").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing principles: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) ClassicalPrinciples(ctx context.Context, limit int) ([]models.Principle, error) {
	var list []models.Principle
	err := r.db.WithContext(ctx).
		Where("is_additional = ?", false).
		Order("number").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing classical principles: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) PrinciplesByNumbers(ctx context.Context, numbers []int) ([]models.Principle, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	var list []models.Principle
	err := r.db.WithContext(ctx).
		Where("number IN ?", numbers).
		Order("number").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing principles by number: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) PrinciplesNamedLike(ctx context.Context, fragment string) ([]models.Principle, error) {
	if fragment == "" {
		return nil, nil
	}
	var list []models.Principle
	err := r.db.WithContext(ctx).
		Where("name LIKE ?", "%"+fragment+"%").
		Order("number").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("searching principles by name: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) ListEffects(ctx context.Context) ([]models.Effect, error) {
	var list []models.Effect
	if err := r.db.WithContext(ctx).Order("category, name").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing effects: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) ListStandards(ctx context.Context) ([]models.Standard, error) {
	var list []models.Standard
	if err := r.db.WithContext(ctx).Order("class_number, number").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing standards: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) ListDefinitions(ctx context.Context) ([]models.Definition, error) {
	var list []models.Definition
	if err := r.db.WithContext(ctx).Order("number").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing definitions: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) ListRules(ctx context.Context) ([]models.Rule, error) {
	var list []models.Rule
	if err := r.db.WithContext(ctx).Order("number").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) RulesByNumbers(ctx context.Context, numbers []int) ([]models.Rule, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	var list []models.Rule
	err := r.db.WithContext(ctx).
		Where("number IN ?", numbers).
		Order("number").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing rules by number: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) TransformationsByType(ctx context.Context, contradictionType string) ([]models.Transformation, error) {
	var list []models.Transformation
	err := r.db.WithContext(ctx).
		Where("contradiction_type LIKE ?", "%"+contradictionType+"%").
		Order("contradiction_type, name").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing transformations by type: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) TransformationsDescribedLike(ctx context.Context, fragment string) ([]models.Transformation, error) {
	if fragment == "" {
		return nil, nil
	}
	var list []models.Transformation
	err := r.db.WithContext(ctx).
		Where("description LIKE ?", "%"+fragment+"%").
		Order("contradiction_type, name").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("searching transformations: %w", err)
	}
	return list, nil
}

func (r *knowledgeRepository) UpsertAnalogCase(ctx context.Context, c *models.AnalogCase) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "title"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"problem_text", "op_formulation", "solution_text", "domain", "source",
		}),
	}).Create(c).Error
	if err != nil {
		return fmt.Errorf("upserting analog case %q: %w", c.Title, err)
	}
	return nil
}

func (r *knowledgeRepository) UpsertPrinciple(ctx context.Context, p *models.Principle) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "examples", "is_additional",
		}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("upserting principle %d: %w", p.Number, err)
	}
	return nil
}

func (r *knowledgeRepository) UpsertEffect(ctx context.Context, e *models.Effect) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "category"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"description", "function_keywords",
		}),
	}).Create(e).Error
	if err != nil {
		return fmt.Errorf("upserting effect %q: %w", e.Name, err)
	}
	return nil
}

func (r *knowledgeRepository) UpsertStandard(ctx context.Context, s *models.Standard) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"class_number", "name", "description", "applicability",
		}),
	}).Create(s).Error
	if err != nil {
		return fmt.Errorf("upserting standard %s: %w", s.Number, err)
	}
	return nil
}

func (r *knowledgeRepository) UpsertDefinition(ctx context.Context, d *models.Definition) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "number"}},
		DoUpdates: clause.AssignmentColumns([]string{"term", "definition"}),
	}).Create(d).Error
	if err != nil {
		return fmt.Errorf("upserting definition %d: %w", d.Number, err)
	}
	return nil
}

func (r *knowledgeRepository) UpsertRule(ctx context.Context, rule *models.Rule) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "number"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "examples"}),
	}).Create(rule).Error
	if err != nil {
		return fmt.Errorf("upserting rule %d: %w", rule.Number, err)
	}
	return nil
}

func (r *knowledgeRepository) UpsertTransformation(ctx context.Context, t *models.Transformation) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contradiction_type"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description"}),
	}).Create(t).Error
	if err != nil {
		return fmt.Errorf("upserting transformation %q: %w", t.Name, err)
	}
	return nil
}

func (r *knowledgeRepository) SetPrinciplePair(ctx context.Context, number, pairedWith int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Principle{}).
		Where("number = ?", number).
		Update("paired_with", pairedWith)
	if result.Error != nil {
		return fmt.Errorf("pairing principle %d: %w", number, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("pairing principle %d: %w", number, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *knowledgeRepository) SaveAnalogEmbedding(ctx context.Context, id uint, embedding []byte) error {
	err := r.db.WithContext(ctx).
		Model(&models.AnalogCase{}).
		Where("id = ?", id).
		Update("embedding", embedding).Error
	if err != nil {
		return fmt.Errorf("saving analog embedding %d: %w", id, err)
	}
	return nil
}

func (r *knowledgeRepository) SaveEffectEmbedding(ctx context.Context, id uint, embedding []byte) error {
	err := r.db.WithContext(ctx).
		Model(&models.Effect{}).
		Where("id = ?", id).
		Update("embedding", embedding).Error
	if err != nil {
		return fmt.Errorf("saving effect embedding %d: %w", id, err)
	}
	return nil
}

func (r *knowledgeRepository) Counts(ctx context.Context) (KnowledgeCounts, error) {
	var counts KnowledgeCounts
	db := r.db.WithContext(ctx)

	pairs := []struct {
		model any
		dest  *int64
	}{
		{&models.AnalogCase{}, &counts.AnalogCases},
		{&models.Principle{}, &counts.Principles},
		{&models.Effect{}, &counts.Effects},
		{&models.Standard{}, &counts.Standards},
		{&models.Definition{}, &counts.Definitions},
		{&models.Rule{}, &counts.Rules},
		{&models.Transformation{}, &counts.Transformations},
	}
	for _, p := range pairs {
		if err := db.Model(p.model).Count(p.dest).Error; err != nil {
			return KnowledgeCounts{}, fmt.Errorf("counting fund records: %w", err)
		}
	}
	return counts, nil
}
