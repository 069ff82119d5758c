package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"arizor/internal/models"
	"arizor/internal/tests/mocks"
)

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func TestSearcher_SearchAnalogCases_EmptyQuery(t *testing.T) {
	listed := false
	repo := &mocks.KnowledgeRepositoryMock{
		ListAnalogCasesFunc: func(ctx context.Context) ([]models.AnalogCase, error) {
			listed = true
			return nil, nil
		},
	}
	s := NewSearcher(repo, nil)

	results, err := s.SearchAnalogCases(context.Background(), "   ", 5)
	assert.NoError(t, err)
	assert.Nil(t, results)
	assert.False(t, listed)
}

func TestSearcher_SearchAnalogCases_CosineRanking(t *testing.T) {
	repo := &mocks.KnowledgeRepositoryMock{
		ListAnalogCasesFunc: func(ctx context.Context) ([]models.AnalogCase, error) {
			return []models.AnalogCase{
				{Title: "Дальний", Embedding: EncodeVector([]float32{0.2, 0.98})},
				{Title: "Ближний", Embedding: EncodeVector([]float32{0.99, 0.1})},
				{Title: "Средний", Embedding: EncodeVector([]float32{0.7, 0.7})},
			}, nil
		},
	}
	emb := &stubEmbedder{vector: []float32{1, 0}}
	s := NewSearcher(repo, emb)

	results, err := s.SearchAnalogCases(context.Background(), "охлаждение детали", 2)
	assert.NoError(t, err)
	assert.Equal(t, 1, emb.calls)
	assert.Len(t, results, 2)
	assert.Equal(t, "Ближний", results[0].Title)
	assert.Equal(t, "Средний", results[1].Title)
}

func TestSearcher_SearchAnalogCases_KeywordFallback(t *testing.T) {
	repo := &mocks.KnowledgeRepositoryMock{
		ListAnalogCasesFunc: func(ctx context.Context) ([]models.AnalogCase, error) {
			return []models.AnalogCase{
				{Title: "Сварка труб", OPFormulation: "шов должен быть прочным"},
				{Title: "Охлаждение пресс-формы", OPFormulation: "форма должна быстро охлаждаться"},
			}, nil
		},
	}
	s := NewSearcher(repo, nil)

	results, err := s.SearchAnalogCases(context.Background(), "быстрое охлаждение формы", 5)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "Охлаждение пресс-формы", results[0].Title)
}

func TestSearcher_SearchAnalogCases_EmbedderErrorFallsBack(t *testing.T) {
	repo := &mocks.KnowledgeRepositoryMock{
		ListAnalogCasesFunc: func(ctx context.Context) ([]models.AnalogCase, error) {
			return []models.AnalogCase{
				{Title: "Нагрев заготовки", ProblemText: "заготовку нужно нагреть равномерно"},
			}, nil
		},
	}
	emb := &stubEmbedder{err: assert.AnError}
	s := NewSearcher(repo, emb)

	results, err := s.SearchAnalogCases(context.Background(), "равномерно нагреть заготовку", 5)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearcher_SuggestPrinciples_ViaTransformations(t *testing.T) {
	repo := &mocks.KnowledgeRepositoryMock{
		TransformationsByTypeFunc: func(ctx context.Context, contradictionType string) ([]models.Transformation, error) {
			assert.Equal(t, "sharpened", contradictionType)
			return []models.Transformation{
				{Name: "Разделение в пространстве"},
				{Name: "Разделение во времени"},
			}, nil
		},
		PrinciplesNamedLikeFunc: func(ctx context.Context, fragment string) ([]models.Principle, error) {
			switch fragment {
			case "Разделение в пространстве":
				return []models.Principle{{Number: 3, Name: "Принцип местного качества"}, {Number: 1, Name: "Принцип дробления"}}, nil
			case "Разделение во времени":
				return []models.Principle{{Number: 1, Name: "Принцип дробления"}}, nil
			}
			return nil, nil
		},
	}
	s := NewSearcher(repo, nil)

	principles, err := s.SuggestPrinciples(context.Background(), "sharpened", "")
	assert.NoError(t, err)
	assert.Len(t, principles, 2)
	assert.Equal(t, 1, principles[0].Number)
	assert.Equal(t, 3, principles[1].Number)
}

func TestSearcher_SuggestPrinciples_KeywordPath(t *testing.T) {
	var fragments []string
	repo := &mocks.KnowledgeRepositoryMock{
		TransformationsByTypeFunc: func(ctx context.Context, contradictionType string) ([]models.Transformation, error) {
			return nil, nil
		},
		TransformationsDescribedLikeFunc: func(ctx context.Context, fragment string) ([]models.Transformation, error) {
			fragments = append(fragments, fragment)
			if fragment == "нагревать" {
				return []models.Transformation{{Name: "Фазовый переход"}}, nil
			}
			return nil, nil
		},
		PrinciplesNamedLikeFunc: func(ctx context.Context, fragment string) ([]models.Principle, error) {
			return []models.Principle{{Number: 36, Name: "Применение фазовых переходов"}}, nil
		},
	}
	s := NewSearcher(repo, nil)

	principles, err := s.SuggestPrinciples(context.Background(), "unknown", "деталь нужно нагревать без печи")
	assert.NoError(t, err)
	assert.Len(t, principles, 1)
	assert.Equal(t, 36, principles[0].Number)
	// Short words like "без" are not keyword candidates.
	assert.Equal(t, []string{"деталь", "нужно", "нагревать"}, fragments)
}

func TestSearcher_SuggestPrinciples_ClassicalFallback(t *testing.T) {
	repo := &mocks.KnowledgeRepositoryMock{
		TransformationsByTypeFunc: func(ctx context.Context, contradictionType string) ([]models.Transformation, error) {
			return nil, nil
		},
		ClassicalPrinciplesFunc: func(ctx context.Context, limit int) ([]models.Principle, error) {
			assert.Equal(t, 5, limit)
			return []models.Principle{{Number: 1}, {Number: 2}, {Number: 3}, {Number: 4}, {Number: 5}}, nil
		},
	}
	s := NewSearcher(repo, nil)

	principles, err := s.SuggestPrinciples(context.Background(), "surface", "")
	assert.NoError(t, err)
	assert.Len(t, principles, 5)
}

func TestSearcher_FindEffects_EmptyQuery(t *testing.T) {
	s := NewSearcher(&mocks.KnowledgeRepositoryMock{}, nil)

	results, err := s.FindEffects(context.Background(), "", 5)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestSearcher_FindEffects_KeywordRanking(t *testing.T) {
	repo := &mocks.KnowledgeRepositoryMock{
		ListEffectsFunc: func(ctx context.Context) ([]models.Effect, error) {
			return []models.Effect{
				{Name: "Эффект Пельтье", Description: "охлаждение при прохождении тока", FunctionKeywords: "охлаждение,нагрев"},
				{Name: "Капиллярный эффект", Description: "подъём жидкости в узких каналах", FunctionKeywords: "перемещение"},
			}, nil
		},
	}
	s := NewSearcher(repo, nil)

	results, err := s.FindEffects(context.Background(), "нужно охлаждение детали током", 5)
	assert.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.Equal(t, "Эффект Пельтье", results[0].Name)
}

func TestSearcher_SearchEffectsByKeywords(t *testing.T) {
	repo := &mocks.KnowledgeRepositoryMock{
		ListEffectsFunc: func(ctx context.Context) ([]models.Effect, error) {
			return []models.Effect{
				{Name: "Эффект Пельтье", FunctionKeywords: "охлаждение, нагрев"},
				{Name: "Магнитострикция", FunctionKeywords: "деформация,перемещение"},
			}, nil
		},
	}
	s := NewSearcher(repo, nil)

	results, err := s.SearchEffectsByKeywords(context.Background(), []string{"Нагрев"})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "Эффект Пельтье", results[0].Name)

	none, err := s.SearchEffectsByKeywords(context.Background(), []string{"свечение"})
	assert.NoError(t, err)
	assert.Empty(t, none)

	empty, err := s.SearchEffectsByKeywords(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, empty)
}

func TestFormatAnalogCases(t *testing.T) {
	assert.Equal(t, "", FormatAnalogCases(nil))

	out := FormatAnalogCases([]models.AnalogCase{
		{Title: "Сварка труб", OPFormulation: "шов прочный, но хрупкий", SolutionText: "предварительный подогрев"},
	})
	assert.Contains(t, out, "**Задачи-аналоги:**")
	assert.Contains(t, out, "1. Сварка труб")
	assert.Contains(t, out, "Противоречие: шов прочный, но хрупкий")
	assert.Contains(t, out, "Решение: предварительный подогрев")
}

func TestFormatPrinciples(t *testing.T) {
	out := FormatPrinciples([]models.Principle{{Number: 1, Name: "Дробление", Description: "разделить объект"}})
	assert.Contains(t, out, "Принцип 1: Дробление (разделить объект)")
}

func TestFormatEffects(t *testing.T) {
	out := FormatEffects([]models.Effect{{Category: models.EffectPhysical, Name: "Эффект Пельтье", Description: "охлаждение"}})
	assert.Contains(t, out, "[physical] Эффект Пельтье: охлаждение")
}
