package mocks

import (
	"context"

	"arizor/internal/models"
	"arizor/internal/repositories"
)

type KnowledgeRepositoryMock struct {
	ListAnalogCasesFunc              func(ctx context.Context) ([]models.AnalogCase, error)
	ListPrinciplesFunc               func(ctx context.Context) ([]models.Principle, error)
	ClassicalPrinciplesFunc          func(ctx context.Context, limit int) ([]models.Principle, error)
	PrinciplesByNumbersFunc          func(ctx context.Context, numbers []int) ([]models.Principle, error)
	PrinciplesNamedLikeFunc          func(ctx context.Context, fragment string) ([]models.Principle, error)
	ListEffectsFunc                  func(ctx context.Context) ([]models.Effect, error)
	ListStandardsFunc                func(ctx context.Context) ([]models.Standard, error)
	ListDefinitionsFunc              func(ctx context.Context) ([]models.Definition, error)
	ListRulesFunc                    func(ctx context.Context) ([]models.Rule, error)
	RulesByNumbersFunc               func(ctx context.Context, numbers []int) ([]models.Rule, error)
	TransformationsByTypeFunc        func(ctx context.Context, contradictionType string) ([]models.Transformation, error)
	TransformationsDescribedLikeFunc func(ctx context.Context, fragment string) ([]models.Transformation, error)
	UpsertAnalogCaseFunc             func(ctx context.Context, c *models.AnalogCase) error
	UpsertPrincipleFunc              func(ctx context.Context, p *models.Principle) error
	UpsertEffectFunc                 func(ctx context.Context, e *models.Effect) error
	UpsertStandardFunc               func(ctx context.Context, s *models.Standard) error
	UpsertDefinitionFunc             func(ctx context.Context, d *models.Definition) error
	UpsertRuleFunc                   func(ctx context.Context, rule *models.Rule) error
	UpsertTransformationFunc         func(ctx context.Context, t *models.Transformation) error
	SetPrinciplePairFunc             func(ctx context.Context, number, pairedWith int) error
	SaveAnalogEmbeddingFunc          func(ctx context.Context, id uint, embedding []byte) error
	SaveEffectEmbeddingFunc          func(ctx context.Context, id uint, embedding []byte) error
	CountsFunc                       func(ctx context.Context) (repositories.KnowledgeCounts, error)
}

func (m *KnowledgeRepositoryMock) ListAnalogCases(ctx context.Context) ([]models.AnalogCase, error) {
	if m.ListAnalogCasesFunc != nil {
		return m.ListAnalogCasesFunc(ctx)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) ListPrinciples(ctx context.Context) ([]models.Principle, error) {
	if m.ListPrinciplesFunc != nil {
		return m.ListPrinciplesFunc(ctx)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) ClassicalPrinciples(ctx context.Context, limit int) ([]models.Principle, error) {
	if m.ClassicalPrinciplesFunc != nil {
		return m.ClassicalPrinciplesFunc(ctx, limit)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) PrinciplesByNumbers(ctx context.Context, numbers []int) ([]models.Principle, error) {
	if m.PrinciplesByNumbersFunc != nil {
		return m.PrinciplesByNumbersFunc(ctx, numbers)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) PrinciplesNamedLike(ctx context.Context, fragment string) ([]models.Principle, error) {
	if m.PrinciplesNamedLikeFunc != nil {
		return m.PrinciplesNamedLikeFunc(ctx, fragment)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) ListEffects(ctx context.Context) ([]models.Effect, error) {
	if m.ListEffectsFunc != nil {
		return m.ListEffectsFunc(ctx)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) ListStandards(ctx context.Context) ([]models.Standard, error) {
	if m.ListStandardsFunc != nil {
		return m.ListStandardsFunc(ctx)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) ListDefinitions(ctx context.Context) ([]models.Definition, error) {
	if m.ListDefinitionsFunc != nil {
		return m.ListDefinitionsFunc(ctx)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) ListRules(ctx context.Context) ([]models.Rule, error) {
	if m.ListRulesFunc != nil {
		return m.ListRulesFunc(ctx)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) RulesByNumbers(ctx context.Context, numbers []int) ([]models.Rule, error) {
	if m.RulesByNumbersFunc != nil {
		return m.RulesByNumbersFunc(ctx, numbers)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) TransformationsByType(ctx context.Context, contradictionType string) ([]models.Transformation, error) {
	if m.TransformationsByTypeFunc != nil {
		return m.TransformationsByTypeFunc(ctx, contradictionType)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) TransformationsDescribedLike(ctx context.Context, fragment string) ([]models.Transformation, error) {
	if m.TransformationsDescribedLikeFunc != nil {
		return m.TransformationsDescribedLikeFunc(ctx, fragment)
	}
	return nil, nil
}

func (m *KnowledgeRepositoryMock) UpsertAnalogCase(ctx context.Context, c *models.AnalogCase) error {
	if m.UpsertAnalogCaseFunc != nil {
		return m.UpsertAnalogCaseFunc(ctx, c)
	}
	return nil
}

func (m *KnowledgeRepositoryMock) UpsertPrinciple(ctx context.Context, p *models.Principle) error {
	if m.UpsertPrincipleFunc != nil {
		return m.UpsertPrincipleFunc(ctx, p)
	}
	return nil
}

func (m *KnowledgeRepositoryMock) UpsertEffect(ctx context.Context, e *models.Effect) error {
	if m.UpsertEffectFunc != nil {
		return m.UpsertEffectFunc(ctx, e)
	}
	return nil
}

func (m *KnowledgeRepositoryMock) UpsertStandard(ctx context.Context, s *models.Standard) error {
	if m.UpsertStandardFunc != nil {
		return m.UpsertStandardFunc(ctx, s)
	}
	return nil
}

func (m *KnowledgeRepositoryMock) UpsertDefinition(ctx context.Context, d *models.Definition) error {
	if m.UpsertDefinitionFunc != nil {
		return m.UpsertDefinitionFunc(ctx, d)
	}
	return nil
}

func (m *KnowledgeRepositoryMock) UpsertRule(ctx context.Context, rule *models.Rule) error {
	if m.UpsertRuleFunc != nil {
		return m.UpsertRuleFunc(ctx, rule)
	}
	return nil
}

func (m *KnowledgeRepositoryMock) UpsertTransformation(ctx context.Context, t *models.Transformation) error {
	if m.UpsertTransformationFunc != nil {
		return m.UpsertTransformationFunc(ctx, t)
	}
	return nil
}

func (m *KnowledgeRepositoryMock) SetPrinciplePair(ctx context.Context, number, pairedWith int) error {
	if m.SetPrinciplePairFunc != nil {
		return m.SetPrinciplePairFunc(ctx, number, pairedWith)
	}
	return nil
}

func (m *KnowledgeRepositoryMock) SaveAnalogEmbedding(ctx context.Context, id uint, embedding []byte) error {
	if m.SaveAnalogEmbeddingFunc != nil {
		return m.SaveAnalogEmbeddingFunc(ctx, id, embedding)
	}
	return nil
}

func (m *KnowledgeRepositoryMock) SaveEffectEmbedding(ctx context.Context, id uint, embedding []byte) error {
	if m.SaveEffectEmbeddingFunc != nil {
		return m.SaveEffectEmbeddingFunc(ctx, id, embedding)
	}
	return nil
}

func (m *KnowledgeRepositoryMock) Counts(ctx context.Context) (repositories.KnowledgeCounts, error) {
	if m.CountsFunc != nil {
		return m.CountsFunc(ctx)
	}
	return repositories.KnowledgeCounts{}, nil
}
