package engine

import (
	"fmt"
	"strings"

	"arizor/internal/models"
	"arizor/internal/steps"
)

// expressNames are the friendly b2c display names for express steps. The
// registry names carry methodology terminology; these hide it.
var expressNames = map[string]string{
	"1": "Опишите вашу проблему",
	"2": "В чём главное затруднение?",
	"3": "Почему это сложно решить?",
	"4": "Каким должен быть идеальный результат?",
	"5": "Что мешает достичь идеала?",
	"6": "Копаем глубже: корень проблемы",
	"7": "Решение вашей задачи",
}

// expressHints are the b2c input-area hints per express step.
var expressHints = map[string]string{
	"1": "Опишите проблему своими словами. Что происходит? Что не устраивает?",
	"2": "Что вы пытались сделать? Почему не получается?",
	"3": "Согласны ли вы с анализом? Хотите что-то уточнить?",
	"4": "Как бы выглядел идеальный вариант решения?",
	"5": "Подтвердите формулировку или предложите коррективы.",
	"6": "Есть ли дополнительные ограничения или ресурсы?",
	"7": "Оцените предложенные решения. Какое ближе к вашей ситуации?",
}

const defaultHint = "Введите ваш ответ..."

// DisplayStepName resolves the audience-appropriate step name: the plain
// friendly name for express and autopilot, the part-qualified
// professional name for full mode.
func DisplayStepName(mode string, def steps.Definition) string {
	if mode == models.ModeFull {
		part := PartForCode(def.Code)
		return fmt.Sprintf("Часть %d (%s) -- Шаг %s: %s", part, PartName(part), def.Code, def.Name)
	}
	if name, ok := expressNames[def.Code]; ok {
		return name
	}
	return def.Name
}

// StepHint returns the input-area hint for a step in the given mode.
func StepHint(mode, code string) string {
	var hint string
	if mode == models.ModeFull {
		hint = fullStepHints[code]
	} else {
		hint = expressHints[code]
	}
	if hint == "" {
		return defaultHint
	}
	return hint
}

// FormatResponse prepends the professional header block to a full-mode
// step's output: part and step names, applicable rules and position.
// Codes outside the full sequence pass through unchanged.
func FormatResponse(stepCode, llmOutput string) string {
	def, ok := steps.Lookup(models.ModeFull, stepCode)
	if !ok {
		return llmOutput
	}

	part := PartForCode(stepCode)
	var b strings.Builder
	fmt.Fprintf(&b, "### Часть %d: %s\n", part, PartName(part))
	fmt.Fprintf(&b, "#### Шаг %s: %s\n", stepCode, def.Name)
	b.WriteString("\n")

	if rules := StepRules(stepCode); len(rules) > 0 {
		fmt.Fprintf(&b, "**Правила АРИЗ:** %s\n", joinRules(rules))
		b.WriteString("\n")
	}

	pos, totalInPart := positionInPart(stepCode)
	fmt.Fprintf(&b, "*Шаг %d из %d в Части %d (%d шагов всего)*\n", pos, totalInPart, part, len(steps.Full))
	b.WriteString("\n---\n")
	b.WriteString(llmOutput)
	return b.String()
}
