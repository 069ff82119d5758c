package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"arizor/internal/knowledge"
	"arizor/internal/models"
	"arizor/internal/tests/mocks"
	"arizor/internal/validators"
)

type processorMocks struct {
	sessions       *mocks.SessionRepositoryMock
	contradictions *mocks.ContradictionRepositoryMock
	ikrs           *mocks.IKRRepositoryMock
	solutions      *mocks.SolutionRepositoryMock
	knowledge      *mocks.KnowledgeRepositoryMock
}

func newTestProcessor(withSearcher bool) (*FullProcessor, *processorMocks) {
	m := &processorMocks{
		sessions:       &mocks.SessionRepositoryMock{},
		contradictions: &mocks.ContradictionRepositoryMock{},
		ikrs:           &mocks.IKRRepositoryMock{},
		solutions:      &mocks.SolutionRepositoryMock{},
		knowledge:      &mocks.KnowledgeRepositoryMock{},
	}
	var searcher *knowledge.Searcher
	if withSearcher {
		searcher = knowledge.NewSearcher(m.knowledge, nil)
	}
	return NewFullProcessor(m.sessions, m.contradictions, m.ikrs, m.solutions, searcher), m
}

func fullSession(t *testing.T, id uint, snapshot map[string]any) *models.Session {
	t.Helper()
	session := &models.Session{ID: id, ProblemID: 1, Mode: models.ModeFull, Status: models.SessionStatusActive}
	if snapshot != nil {
		assert.NoError(t, session.SetSnapshot(snapshot))
	}
	return session
}

func TestFullProcessor_ProcessStepResult_UnknownStep(t *testing.T) {
	p, _ := newTestProcessor(false)

	outcome, err := p.ProcessStepResult(context.Background(), fullSession(t, 9, nil), "9.9", "текст")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestFullProcessor_ProcessStepResult_SnapshotKeyAndTruncation(t *testing.T) {
	p, m := newTestProcessor(false)

	var savedID uint
	var savedPayload string
	m.sessions.UpdateSnapshotFunc = func(ctx context.Context, id uint, snapshot string) error {
		savedID = id
		savedPayload = snapshot
		return nil
	}

	session := fullSession(t, 9, nil)
	output := strings.Repeat("з", 3500)
	outcome, err := p.ProcessStepResult(context.Background(), session, "2.1", output)

	assert.NoError(t, err)
	assert.True(t, outcome.AllValid)
	assert.Empty(t, outcome.Verdicts)
	assert.Empty(t, outcome.ValidationNotes)
	assert.Equal(t, uint(9), savedID)
	assert.Equal(t, session.ContextSnapshot, savedPayload)

	stored, _ := session.Snapshot()["operative_zone"].(string)
	assert.Equal(t, 3000, utf8.RuneCountInString(stored))

	assert.Nil(t, outcome.Entities.Contradiction)
	assert.Nil(t, outcome.Entities.IdealResult)
	assert.Nil(t, outcome.Entities.Solution)
}

func TestFullProcessor_ProcessStepResult_AccumulatesAcrossSteps(t *testing.T) {
	p, _ := newTestProcessor(false)

	session := fullSession(t, 9, nil)
	_, err := p.ProcessStepResult(context.Background(), session, "2.1", "Зона контакта пуансона и матрицы.")
	assert.NoError(t, err)
	_, err = p.ProcessStepResult(context.Background(), session, "2.2", "Т1 равно времени смыкания.")
	assert.NoError(t, err)

	snap := session.Snapshot()
	assert.Equal(t, "Зона контакта пуансона и матрицы.", snap["operative_zone"])
	assert.Equal(t, "Т1 равно времени смыкания.", snap["operative_time"])
}

func TestFullProcessor_ProcessStepResult_ValidatorPass(t *testing.T) {
	p, _ := newTestProcessor(false)

	output := "Техническая система для охлаждения пресс-форм. Главная функция: отвод тепла " +
		"от матрицы. Нежелательный эффект: цикл охлаждения занимает слишком много времени."
	outcome, err := p.ProcessStepResult(context.Background(), fullSession(t, 9, nil), "1.1", output)

	assert.NoError(t, err)
	assert.True(t, outcome.AllValid)
	assert.Len(t, outcome.Verdicts, 1)
	assert.Equal(t, "[falseness_check] OK", outcome.ValidationNotes)
}

func TestFullProcessor_ProcessStepResult_ValidatorFailure(t *testing.T) {
	p, _ := newTestProcessor(false)

	outcome, err := p.ProcessStepResult(context.Background(), fullSession(t, 9, nil), "1.1", "Мало.")

	assert.NoError(t, err)
	assert.False(t, outcome.AllValid)
	assert.Contains(t, outcome.ValidationNotes, "[falseness_check] FAIL:")
	assert.Contains(t, outcome.ValidationNotes, "слишком короткая")
}

func TestFullProcessor_ProcessStepResult_SurfaceContradictionParsing(t *testing.T) {
	p, m := newTestProcessor(false)

	var got *models.Contradiction
	m.contradictions.UpsertFunc = func(ctx context.Context, c *models.Contradiction) error {
		got = c
		return nil
	}

	output := "Схемы конфликта построены.\n" +
		"ТП-1: если увеличить скорость подачи, растёт производительность, но падает точность\n" +
		"ТП-2: если уменьшить скорость подачи, растёт точность, но падает производительность"
	outcome, err := p.ProcessStepResult(context.Background(), fullSession(t, 9, nil), "1.3", output)

	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, uint(9), got.SessionID)
	assert.Equal(t, models.ContradictionSurface, got.Type)
	assert.Equal(t, "если увеличить скорость подачи, растёт производительность, но падает точность", got.QualityA)
	assert.Equal(t, "если уменьшить скорость подачи, растёт точность, но падает производительность", got.QualityB)
	assert.Empty(t, got.PropertyS)
	assert.Equal(t, output, got.Formulation)
	assert.Equal(t, got, outcome.Entities.Contradiction)
}

func TestFullProcessor_ProcessStepResult_SharpenedRefinement(t *testing.T) {
	p, m := newTestProcessor(false)

	store := map[string]*models.Contradiction{}
	m.contradictions.UpsertFunc = func(ctx context.Context, c *models.Contradiction) error {
		store[fmt.Sprintf("%d/%s", c.SessionID, c.Type)] = c
		return nil
	}

	session := fullSession(t, 9, nil)
	_, err := p.ProcessStepResult(context.Background(), session, "3.3",
		"Свойство S: проводящий\nАнти-свойство: непроводящий")
	assert.NoError(t, err)
	_, err = p.ProcessStepResult(context.Background(), session, "3.4",
		"Свойство S: подвижные частицы\nАнти-свойство: неподвижные частицы")
	assert.NoError(t, err)

	// 3.3 and 3.4 refine the same sharpened row; the micro level wins.
	assert.Len(t, store, 1)
	final := store["9/sharpened"]
	assert.NotNil(t, final)
	assert.Equal(t, "подвижные частицы", final.PropertyS)
	assert.Equal(t, "неподвижные частицы", final.AntiPropertyS)
}

func TestFullProcessor_ProcessStepResult_DeepenedIsSeparateRow(t *testing.T) {
	p, m := newTestProcessor(false)

	var types []string
	m.contradictions.UpsertFunc = func(ctx context.Context, c *models.Contradiction) error {
		types = append(types, c.Type)
		return nil
	}

	session := fullSession(t, 9, nil)
	_, err := p.ProcessStepResult(context.Background(), session, "1.5",
		"Конфликт усилен до предельного состояния: инструмент отсутствует полностью.")
	assert.NoError(t, err)
	_, err = p.ProcessStepResult(context.Background(), session, "3.3",
		"Свойство S: горячий\nАнти-свойство: холодный")
	assert.NoError(t, err)

	assert.Equal(t, []string{models.ContradictionDeepened, models.ContradictionSharpened}, types)
}

func TestFullProcessor_ProcessStepResult_ContradictionMarkerAliases(t *testing.T) {
	p, m := newTestProcessor(false)

	var got *models.Contradiction
	m.contradictions.UpsertFunc = func(ctx context.Context, c *models.Contradiction) error {
		got = c
		return nil
	}

	output := "Property S: hot surface layer\nAnti-property: cold surface layer\nTP-1: fast\nTP-2: precise"
	_, err := p.ProcessStepResult(context.Background(), fullSession(t, 9, nil), "3.1", output)

	assert.NoError(t, err)
	assert.Equal(t, "hot surface layer", got.PropertyS)
	assert.Equal(t, "cold surface layer", got.AntiPropertyS)
	assert.Equal(t, "fast", got.QualityA)
	assert.Equal(t, "precise", got.QualityB)
}

func TestFullProcessor_ProcessStepResult_IKRLabels(t *testing.T) {
	p, m := newTestProcessor(false)

	store := map[string]*models.IdealResult{}
	m.ikrs.UpsertByLabelFunc = func(ctx context.Context, sessionID uint, label string, apply func(*models.IdealResult)) (*models.IdealResult, bool, error) {
		record, ok := store[label]
		if !ok {
			record = &models.IdealResult{SessionID: sessionID}
			store[label] = record
		}
		apply(record)
		return record, !ok, nil
	}

	session := fullSession(t, 9, map[string]any{"vpr_list": "вода, воздух, сила тяжести"})

	_, err := p.ProcessStepResult(context.Background(), session, "3.1",
		"X-элемент в оперативной зоне сам устраняет нежелательный эффект.")
	assert.NoError(t, err)
	first := store["ИКР-1"]
	assert.NotNil(t, first)
	assert.Equal(t, "ИКР-1: X-элемент в оперативной зоне сам устраняет нежелательный эффект.", first.Formulation)
	assert.Empty(t, first.StrengthenedFormulation)
	assert.Equal(t, "вода, воздух, сила тяжести", first.VPRUsed)

	_, err = p.ProcessStepResult(context.Background(), session, "3.2",
		"В оперативной зоне нет ничего нового, нежелательный эффект устранён.")
	assert.NoError(t, err)
	assert.Len(t, store, 1, "3.2 strengthens the same record")
	assert.Equal(t, "ИКР-1: В оперативной зоне нет ничего нового, нежелательный эффект устранён.", first.Formulation)
	assert.Equal(t, "В оперативной зоне нет ничего нового, нежелательный эффект устранён.", first.StrengthenedFormulation)

	outcome, err := p.ProcessStepResult(context.Background(), session, "3.5",
		"Оперативная зона сама обеспечивает противоположные свойства.")
	assert.NoError(t, err)
	assert.Len(t, store, 2)
	second := store["ИКР-2"]
	assert.Equal(t, "ИКР-2: Оперативная зона сама обеспечивает противоположные свойства.", second.Formulation)
	assert.Empty(t, second.StrengthenedFormulation)
	assert.Equal(t, second, outcome.Entities.IdealResult)
}

func TestFullProcessor_ProcessStepResult_IKRTextTruncated(t *testing.T) {
	p, m := newTestProcessor(false)

	var got *models.IdealResult
	m.ikrs.UpsertByLabelFunc = func(ctx context.Context, sessionID uint, label string, apply func(*models.IdealResult)) (*models.IdealResult, bool, error) {
		got = &models.IdealResult{SessionID: sessionID}
		apply(got)
		return got, true, nil
	}

	long := strings.Repeat("и", 2000)
	_, err := p.ProcessStepResult(context.Background(), fullSession(t, 9, nil), "3.1", long)

	assert.NoError(t, err)
	assert.Equal(t, 1500+utf8.RuneCountInString("ИКР-1: "), utf8.RuneCountInString(got.Formulation))
}

func TestFullProcessor_ProcessStepResult_SolutionExtraction(t *testing.T) {
	p, m := newTestProcessor(false)

	var got *models.Solution
	m.solutions.CreateFunc = func(ctx context.Context, solution *models.Solution) error {
		got = solution
		return nil
	}

	output := "# Применение эффектов\n" +
		"**Анализ**\n" +
		"Использовать эффект Пельтье для точечного охлаждения матрицы.\n" +
		"Дополнительные варианты перечислены ниже."
	outcome, err := p.ProcessStepResult(context.Background(), fullSession(t, 9, nil), "4.4", output)

	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, "Использовать эффект Пельтье для точечного охлаждения матрицы.", got.Title)
	assert.Equal(t, models.MethodEffect, got.Method)
	assert.Equal(t, "4.4", got.SourceStep)
	assert.Equal(t, output, got.Description)
	assert.Equal(t, 5, got.NoveltyScore)
	assert.Equal(t, 5, got.FeasibilityScore)
	assert.Equal(t, got, outcome.Entities.Solution)
}

func TestFullProcessor_ProcessStepResult_SolutionTitleFallback(t *testing.T) {
	p, m := newTestProcessor(false)

	var got *models.Solution
	m.solutions.CreateFunc = func(ctx context.Context, solution *models.Solution) error {
		got = solution
		return nil
	}

	_, err := p.ProcessStepResult(context.Background(), fullSession(t, 9, nil), "4.1",
		"# Итог\nКоротко.\n**Готово**")

	assert.NoError(t, err)
	assert.Equal(t, "Решение (шаг 4.1: Метод ММЧ)", got.Title)
}

func TestFullProcessor_ProcessStepResult_CheckpointStepYieldsNoSolution(t *testing.T) {
	p, m := newTestProcessor(false)

	created := false
	m.solutions.CreateFunc = func(ctx context.Context, solution *models.Solution) error {
		created = true
		return nil
	}

	outcome, err := p.ProcessStepResult(context.Background(), fullSession(t, 9, nil), "4.6",
		"Задача не решена, следует переформулировать условие.")

	assert.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, outcome.Entities.Solution)
}

func TestFullProcessor_ProcessStepResult_PersistErrorKeepsPartialOutcome(t *testing.T) {
	p, m := newTestProcessor(false)

	m.contradictions.UpsertFunc = func(ctx context.Context, c *models.Contradiction) error {
		return errors.New("ERR_DB_LOCKED")
	}

	outcome, err := p.ProcessStepResult(context.Background(), fullSession(t, 9, nil), "1.3",
		"ТП-1: быстро, но неточно\nТП-2: точно, но медленно")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_DB_LOCKED")
	assert.NotNil(t, outcome)
	assert.Nil(t, outcome.Entities.Contradiction)
	// The snapshot write preceded the failed extraction.
	assert.NotEmpty(t, outcome.ValidationNotes)
}

func TestFullProcessor_BuildPromptContext_PartAndPosition(t *testing.T) {
	p, _ := newTestProcessor(false)

	got := p.BuildPromptContext(context.Background(), fullSession(t, 9, nil), "4.1")

	assert.Equal(t, "4", got["part_number"])
	assert.Equal(t, "Получение решения", got["part_name"])
	assert.NotEmpty(t, got["part_description"])
	assert.Equal(t, "4.1", got["step_code"])
	assert.Equal(t, "Метод ММЧ", got["step_name"])
	assert.Equal(t, "24", got["total_steps"])
	assert.Equal(t, "26", got["applicable_rules"])
	assert.Equal(t, "1", got["step_in_part"])
	assert.Equal(t, "8", got["total_steps_in_part"])
	assert.Equal(t, "17", got["global_step_index"])
	_, hasKnowledge := got["knowledge_base"]
	assert.False(t, hasKnowledge, "no searcher wired")
}

func TestFullProcessor_BuildPromptContext_RuleFormatting(t *testing.T) {
	p, _ := newTestProcessor(false)

	got := p.BuildPromptContext(context.Background(), fullSession(t, 9, nil), "1.2")
	assert.Equal(t, "4, 5, 6, 7, 8, 9, 10, 11", got["applicable_rules"])
	assert.Equal(t, "2", got["step_in_part"])
	assert.Equal(t, "7", got["total_steps_in_part"])

	noRules := p.BuildPromptContext(context.Background(), fullSession(t, 9, nil), "2.2")
	_, ok := noRules["applicable_rules"]
	assert.False(t, ok)
}

func TestFullProcessor_KnowledgeContext_OutsideEnrichmentSet(t *testing.T) {
	p, m := newTestProcessor(true)

	touched := false
	m.knowledge.ListAnalogCasesFunc = func(ctx context.Context) ([]models.AnalogCase, error) {
		touched = true
		return nil, nil
	}

	enrichment := p.KnowledgeContext(context.Background(), fullSession(t, 9, nil), "3.1")

	assert.True(t, enrichment.Empty())
	assert.False(t, touched)
}

func TestFullProcessor_KnowledgeContext_AnalogsFromContradiction(t *testing.T) {
	p, m := newTestProcessor(true)

	m.knowledge.ListAnalogCasesFunc = func(ctx context.Context) ([]models.AnalogCase, error) {
		return []models.AnalogCase{
			{Title: "Закалка детали", OPFormulation: "деталь должна быть горячей и холодной"},
		}, nil
	}

	session := fullSession(t, 9, map[string]any{"fp_macro": "деталь должна быть горячей и холодной"})
	enrichment := p.KnowledgeContext(context.Background(), session, "4.1")

	assert.Len(t, enrichment.AnalogCases, 1)
	assert.False(t, enrichment.Empty())
	assert.Contains(t, enrichment.Format(), "**Задачи-аналоги:**")
	assert.Contains(t, enrichment.Format(), "Закалка детали")
}

func TestFullProcessor_KnowledgeContext_PrinciplesDefaultToSharpened(t *testing.T) {
	p, m := newTestProcessor(true)

	m.knowledge.TransformationsByTypeFunc = func(ctx context.Context, contradictionType string) ([]models.Transformation, error) {
		assert.Equal(t, models.ContradictionSharpened, contradictionType)
		return []models.Transformation{{Name: "Разделение во времени"}}, nil
	}
	m.knowledge.PrinciplesNamedLikeFunc = func(ctx context.Context, fragment string) ([]models.Principle, error) {
		return []models.Principle{{Number: 15, Name: "Принцип динамичности"}}, nil
	}
	m.knowledge.ListEffectsFunc = func(ctx context.Context) ([]models.Effect, error) {
		return []models.Effect{
			{Name: "Эффект Пельтье", Description: "позволяет охлаждать деталь током"},
		}, nil
	}

	session := fullSession(t, 9, map[string]any{"mini_task": "нужно охлаждать деталь быстрее"})
	enrichment := p.KnowledgeContext(context.Background(), session, "4.5")

	assert.Len(t, enrichment.Principles, 1)
	assert.Equal(t, 15, enrichment.Principles[0].Number)
	assert.NotEmpty(t, enrichment.Effects)
	assert.Empty(t, enrichment.AnalogCases, "4.5 pulls no analog cases")
}

func TestFullProcessor_KnowledgeContext_LookupFailuresDegrade(t *testing.T) {
	p, m := newTestProcessor(true)

	m.knowledge.ListAnalogCasesFunc = func(ctx context.Context) ([]models.AnalogCase, error) {
		return nil, errors.New("ERR_KB_UNAVAILABLE")
	}
	m.knowledge.TransformationsByTypeFunc = func(ctx context.Context, contradictionType string) ([]models.Transformation, error) {
		return nil, errors.New("ERR_KB_UNAVAILABLE")
	}

	session := fullSession(t, 9, map[string]any{"fp_macro": "слой должен быть твёрдым и мягким"})
	enrichment := p.KnowledgeContext(context.Background(), session, "4.3")

	assert.True(t, enrichment.Empty())
}

func TestVerdictNotes(t *testing.T) {
	assert.Empty(t, VerdictNotes(nil))

	notes := VerdictNotes([]validators.Result{
		{Valid: true, Validator: "terms_check"},
		{Valid: false, Validator: "ikr_check", Issues: []string{"нет слова САМ", "слишком коротко"}},
	})
	assert.Equal(t, "[terms_check] OK | [ikr_check] FAIL: нет слова САМ; слишком коротко", notes)
}

func TestEnrichment_EmptyAndFormat(t *testing.T) {
	var zero Enrichment
	assert.True(t, zero.Empty())
	assert.Empty(t, zero.Format())

	e := Enrichment{Principles: []models.Principle{{Number: 1, Name: "Дробление", Description: "разделить объект"}}}
	assert.False(t, e.Empty())
	assert.Contains(t, e.Format(), "Принцип 1: Дробление")
}
