package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"arizor/internal/steps"
)

func TestPartForCode(t *testing.T) {
	assert.Equal(t, 1, PartForCode("1.1"))
	assert.Equal(t, 2, PartForCode("2.3"))
	assert.Equal(t, 3, PartForCode("3.6"))
	assert.Equal(t, 4, PartForCode("4.8"))
	// Express codes carry no dot and live in part 1.
	assert.Equal(t, 1, PartForCode("7"))
	assert.Equal(t, 1, PartForCode("x.2"))
}

func TestPartName_KnownAndFallback(t *testing.T) {
	assert.Equal(t, "Анализ задачи", PartName(1))
	assert.Equal(t, "Анализ ресурсов", PartName(2))
	assert.Equal(t, "Определение ИКР и ФП", PartName(3))
	assert.Equal(t, "Получение решения", PartName(4))
	assert.Equal(t, "Часть 9", PartName(9))
}

func TestPartDescription_CoversAllParts(t *testing.T) {
	for part := 1; part <= 4; part++ {
		assert.NotEmpty(t, PartDescription(part), "part %d", part)
	}
	assert.Contains(t, PartDescription(2), "ВПР")
	assert.Empty(t, PartDescription(9))
}

func TestStepRules(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, StepRules("1.1"))
	assert.Equal(t, []int{25}, StepRules("3.6"))
	assert.Equal(t, []int{27}, StepRules("4.7"))
	assert.Empty(t, StepRules("2.1"))
	assert.Empty(t, StepRules("9.9"))
}

func TestFullTables_CoverEveryStep(t *testing.T) {
	for _, def := range steps.Full {
		_, hasRules := stepRules[def.Code]
		assert.True(t, hasRules, "rules entry for %s", def.Code)
		assert.NotEmpty(t, fullStepHints[def.Code], "hint for %s", def.Code)
		assert.NotEmpty(t, contextKeys[def.Code], "context key for %s", def.Code)
	}
}

func TestContextKey(t *testing.T) {
	assert.Equal(t, "mini_task", ContextKey("1.1"))
	assert.Equal(t, "vpr_list", ContextKey("2.3"))
	assert.Equal(t, "ikr_2", ContextKey("3.5"))
	assert.Equal(t, "solution_evaluation", ContextKey("4.8"))
	assert.Empty(t, ContextKey("7"))
}

func TestStepsForPart(t *testing.T) {
	assert.Len(t, StepsForPart(1), 7)
	assert.Len(t, StepsForPart(2), 3)
	assert.Len(t, StepsForPart(3), 6)
	assert.Len(t, StepsForPart(4), 8)
	assert.Empty(t, StepsForPart(5))

	part3 := StepsForPart(3)
	assert.Equal(t, "3.1", part3[0].Code)
	assert.Equal(t, "3.6", part3[5].Code)
}

func TestRequiresKnowledge(t *testing.T) {
	for _, code := range []string{"4.1", "4.3", "4.4", "4.5", "4.7", "4.8"} {
		assert.True(t, RequiresKnowledge(code), code)
	}
	assert.False(t, RequiresKnowledge("4.2"))
	assert.False(t, RequiresKnowledge("4.6"))
	assert.False(t, RequiresKnowledge("3.1"))
}

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{"1.1", "1.2", true},  // immediate successor
		{"1.7", "2.1", true},  // part boundary
		{"3.4", "2.1", true},  // backward jump
		{"4.8", "1.1", true},  // backward jump
		{"4.6", "1.1", true},  // reformulation loop
		{"4.6", "4.7", true},  // forward after an unsolved check
		{"1.1", "1.3", false}, // forward skip
		{"4.6", "4.8", false}, // forward skip
		{"2.2", "2.2", false}, // staying put
		{"9.9", "1.1", false},
		{"1.1", "9.9", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, ValidateTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestShouldLoopBack_UnresolvableFP(t *testing.T) {
	output := "Анализ показал: ФП не разрешимо типовыми преобразованиями. " +
		"Рекомендуется переформулировать задачу."
	assert.Equal(t, "1.1", ShouldLoopBack("3.6", output))
}

func TestShouldLoopBack_UnsolvedTask(t *testing.T) {
	assert.Equal(t, "1.1", ShouldLoopBack("4.6", "Вывод: задача не решена, требуется возврат."))
	assert.Equal(t, "1.1", ShouldLoopBack("4.6", "Следует переформулировать условие мини-задачи."))
}

func TestShouldLoopBack_CleanOutputContinues(t *testing.T) {
	assert.Empty(t, ShouldLoopBack("3.6", "ФП устраняется разделением во времени."))
	assert.Empty(t, ShouldLoopBack("4.6", "Решение получено на шаге 4.4, продолжаем проверку."))
}

func TestShouldLoopBack_OnlyCheckpointStepsLoop(t *testing.T) {
	assert.Empty(t, ShouldLoopBack("4.4", "задача не решена"))
	assert.Empty(t, ShouldLoopBack("1.7", "переформулировать задачу"))
}

func TestCanCompleteEarly(t *testing.T) {
	assert.True(t, CanCompleteEarly("1.7", "Задача решена стандартом 1.1.1 (достройка веполя)."))
	assert.True(t, CanCompleteEarly("1.7", "Стандарт полностью решает задачу."))
	assert.False(t, CanCompleteEarly("1.7", "Стандарты дают лишь частичное решение."))
	assert.False(t, CanCompleteEarly("4.3", "Задача решена стандартом 2.2.4."))
}

func TestSolutionSteps_MethodAssignment(t *testing.T) {
	assert.Equal(t, "standard", solutionSteps["4.3"])
	assert.Equal(t, "effect", solutionSteps["4.4"])
	for _, code := range []string{"4.1", "4.2", "4.5", "4.7", "4.8"} {
		assert.Equal(t, "combined", solutionSteps[code], code)
	}
	_, has46 := solutionSteps["4.6"]
	assert.False(t, has46, "the reformulation checkpoint yields no solution")
}
