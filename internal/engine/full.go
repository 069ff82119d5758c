package engine

import (
	"strconv"
	"strings"

	"arizor/internal/models"
	"arizor/internal/steps"
)

// AutopilotStepCode is the synthetic step code the aggregated autopilot
// run stores its result under. It is not part of any registry sequence.
const AutopilotStepCode = "auto"

// Part describes one of the four phases of the full methodology.
type Part struct {
	Number      int
	Name        string
	NameEN      string
	Description string
	Rules       []int
}

var partDefinitions = map[int]Part{
	1: {
		Number: 1,
		Name:   "Анализ задачи",
		NameEN: "Problem Analysis",
		Description: "Анализ исходной ситуации, определение конфликтующей пары, " +
			"построение модели задачи. Правила 1-16 АРИЗ.",
		Rules: ruleRange(1, 16),
	},
	2: {
		Number: 2,
		Name:   "Анализ ресурсов",
		NameEN: "Resource Analysis",
		Description: "Определение оперативной зоны, оперативного времени и " +
			"вещественно-полевых ресурсов (ВПР).",
	},
	3: {
		Number: 3,
		Name:   "Определение ИКР и ФП",
		NameEN: "IKR and Physical Contradiction",
		Description: "Формулировка идеального конечного результата (ИКР-1, ИКР-2), " +
			"определение физического противоречия (ФП) на макро- и микро-уровне.",
		Rules: ruleRange(17, 25),
	},
	4: {
		Number: 4,
		Name:   "Получение решения",
		NameEN: "Solution",
		Description: "Применение методов разрешения ФП: ММЧ, шаг назад от ИКР, " +
			"стандарты, эффекты, ВПР. Проверка и оценка решения.",
		Rules: ruleRange(26, 28),
	},
}

// stepRules maps each full-mode step to the methodology rule numbers it
// primarily enforces. Steps without rules are listed for completeness.
var stepRules = map[string][]int{
	"1.1": {1, 2, 3},
	"1.2": {4, 5, 6, 7, 8, 9, 10, 11},
	"1.3": {12, 13, 14},
	"1.4": {4, 5, 6},
	"1.5": {12, 13},
	"1.6": {15, 16},
	"1.7": {},
	"2.1": {},
	"2.2": {},
	"2.3": {},
	"3.1": {17, 18},
	"3.2": {19, 20},
	"3.3": {21, 22},
	"3.4": {23, 24},
	"3.5": {17, 18},
	"3.6": {25},
	"4.1": {26},
	"4.2": {},
	"4.3": {},
	"4.4": {},
	"4.5": {},
	"4.6": {},
	"4.7": {27},
	"4.8": {28},
}

// fullStepHints are the professional-register input hints shown to the
// b2b audience per step.
var fullStepHints = map[string]string{
	"1.1": "Запишите условие мини-задачи: техническая система, её назначение " +
		"(главная функция), нежелательный эффект. Не используйте специальные " +
		"термины (правило 15).",
	"1.2": "Определите конфликтующую пару элементов: инструмент (элемент, " +
		"который можно изменять) и изделие (элемент, который нельзя менять). " +
		"Укажите главную функцию инструмента.",
	"1.3": "Составьте графические схемы ТП-1 и ТП-2. Для каждого технического " +
		"противоречия укажите: что улучшается и что ухудшается.",
	"1.4": "Выберите из ТП-1 и ТП-2 то противоречие, разрешение которого " +
		"обеспечивает наилучшее выполнение главной функции системы.",
	"1.5": "Усильте выбранный конфликт до предельного состояния. Введите " +
		"в формулировку X-элемент -- элемент, способный устранить НЭ.",
	"1.6": "Запишите формулировку модели задачи: конфликтующая пара + усиленная " +
		"формулировка + что должен обеспечить X-элемент.",
	"1.7": "Проверьте, решается ли задача применением системы стандартов на " +
		"решение изобретательских задач (76 стандартов, 5 классов).",
	"2.1": "Определите оперативную зону (ОЗ) -- область, в которой возникает " +
		"конфликт. ОЗ = зона инструмента + зона изделия.",
	"2.2": "Определите оперативное время (ОВ): Т1 -- время конфликтного " +
		"действия, Т2 -- время до конфликта, Т3 -- время после конфликта.",
	"2.3": "Определите вещественно-полевые ресурсы (ВПР): внутрисистемные, " +
		"внешнесистемные, надсистемные. Для каждого -- вещественные и полевые.",
	"3.1": "Сформулируйте ИКР-1 по шаблону: X-элемент в оперативной зоне " +
		"в течение оперативного времени САМ устраняет НЭ, сохраняя ГФ.",
	"3.2": "Усильте формулировку ИКР-1: что должно быть в ОЗ вместо X-элемента? " +
		"Идеально: в системе ничего нового, а НЭ устранён.",
	"3.3": "Определите физическое противоречие (ФП) на макро-уровне: часть ОЗ " +
		"должна обладать свойством [+A] для обеспечения ГФ и свойством [-A] " +
		"для устранения НЭ.",
	"3.4": "Определите ФП на микро-уровне: частицы вещества в ОЗ должны быть " +
		"в состоянии [C] для обеспечения ГФ и в состоянии [анти-C] для " +
		"устранения НЭ.",
	"3.5": "Сформулируйте ИКР-2: ОЗ САМА обеспечивает противоположные " +
		"физические свойства в течение ОВ.",
	"3.6": "Проверьте, можно ли устранить ФП применением типовых преобразований: " +
		"разделение в пространстве, во времени, в структуре, системный переход.",
	"4.1": "Используйте метод моделирования маленькими человечками (ММЧ) " +
		"для визуализации конфликта и поиска решения.",
	"4.2": "Сделайте шаг назад от ИКР: если ИКР недостижим, рассмотрите " +
		"ближайшее к нему решение.",
	"4.3": "Повторно проверьте возможность применения стандартов на решение " +
		"изобретательских задач (76 стандартов) к модели задачи из Части 3.",
	"4.4": "Примените физические, химические, биологические, геометрические " +
		"эффекты для устранения физического противоречия.",
	"4.5": "Используйте выявленные ВПР (из Части 2) для разрешения ФП. " +
		"Приоритет: внутрисистемные > внешнесистемные > надсистемные.",
	"4.6": "Если задача не решена -- переформулируйте задачу: измените " +
		"мини-задачу, пересмотрите конфликтующую пару, вернитесь к Части 1.",
	"4.7": "Проверьте полученное решение: не создаёт ли оно новых противоречий? " +
		"Соответствует ли ИКР? Использует ли ВПР? Правило 27.",
	"4.8": "Оцените применимость решения: новизна, реализуемость, идеальность. " +
		"Обобщите опыт для базы знаний. Сформулируйте задачу-аналог. Правило 28.",
}

// contextKeys maps each full-mode step to its fixed context-snapshot key.
var contextKeys = map[string]string{
	"1.1": "mini_task",
	"1.2": "conflicting_pair",
	"1.3": "tp_schemas",
	"1.4": "selected_tp",
	"1.5": "amplified_conflict",
	"1.6": "task_model",
	"1.7": "standards_applicable",
	"2.1": "operative_zone",
	"2.2": "operative_time",
	"2.3": "vpr_list",
	"3.1": "ikr_1",
	"3.2": "ikr_1_strengthened",
	"3.3": "fp_macro",
	"3.4": "fp_micro",
	"3.5": "ikr_2",
	"3.6": "fp_resolution_check",
	"4.1": "mmch_model",
	"4.2": "step_back_from_ikr",
	"4.3": "standards_result",
	"4.4": "effects_applied",
	"4.5": "vpr_utilization",
	"4.6": "task_reformulated",
	"4.7": "solution_verification",
	"4.8": "solution_evaluation",
}

// contradictionSteps maps steps that yield a Contradiction to its type.
// 3.3 and 3.4 both refine the sharpened contradiction, so the later one
// overwrites the earlier extraction.
var contradictionSteps = map[string]string{
	"1.3": models.ContradictionSurface,
	"1.5": models.ContradictionDeepened,
	"3.1": models.ContradictionSharpened,
	"3.3": models.ContradictionSharpened,
	"3.4": models.ContradictionSharpened,
}

// ikrSteps are the steps that produce ideal-result records.
var ikrSteps = map[string]bool{
	"3.1": true,
	"3.2": true,
	"3.5": true,
}

// solutionSteps maps each solution-bearing step to its resolution method.
var solutionSteps = map[string]string{
	"4.1": models.MethodCombined,
	"4.2": models.MethodCombined,
	"4.3": models.MethodStandard,
	"4.4": models.MethodEffect,
	"4.5": models.MethodCombined,
	"4.7": models.MethodCombined,
	"4.8": models.MethodCombined,
}

// knowledgeSteps are the Part 4 steps enriched from the knowledge fund.
var knowledgeSteps = map[string]bool{
	"4.1": true,
	"4.3": true,
	"4.4": true,
	"4.5": true,
	"4.7": true,
	"4.8": true,
}

var loopBackMarkers = map[string][]string{
	"3.6": {
		"невозможно устранить",
		"фп не разрешимо",
		"не удаётся разрешить",
		"вернуться к шагу 1",
		"переформулировать задачу",
		"возврат к части 1",
	},
	"4.6": {
		"задача не решена",
		"решение не найдено",
		"не удалось найти решение",
		"изменить задачу",
		"переформулировать",
		"вернуться к части 1",
	},
}

var earlyCompleteMarkers = []string{
	"задача решена стандартом",
	"стандарт полностью решает",
	"решение найдено через стандарт",
}

func ruleRange(from, to int) []int {
	rules := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		rules = append(rules, n)
	}
	return rules
}

// PartForCode derives the part number from a dotted step code. Codes
// without a dot (express steps) belong to part 1.
func PartForCode(code string) int {
	head, _, found := strings.Cut(code, ".")
	if !found {
		return 1
	}
	part, err := strconv.Atoi(head)
	if err != nil {
		return 1
	}
	return part
}

// PartName returns the Russian name of the given part.
func PartName(part int) string {
	if def, ok := partDefinitions[part]; ok {
		return def.Name
	}
	return "Часть " + strconv.Itoa(part)
}

// PartDescription returns the detailed description of the given part.
func PartDescription(part int) string {
	return partDefinitions[part].Description
}

// StepRules returns the methodology rule numbers applicable to a step.
func StepRules(code string) []int {
	return stepRules[code]
}

// ContextKey returns the context-snapshot key for a full-mode step, or ""
// for codes outside the full sequence.
func ContextKey(code string) string {
	return contextKeys[code]
}

// RequiresKnowledge reports whether a step's prompt is enriched from the
// knowledge fund.
func RequiresKnowledge(code string) bool {
	return knowledgeSteps[code]
}

// StepsForPart returns the full-mode steps belonging to one part, in
// registry order.
func StepsForPart(part int) []steps.Definition {
	prefix := strconv.Itoa(part) + "."
	var out []steps.Definition
	for _, def := range steps.Full {
		if strings.HasPrefix(def.Code, prefix) {
			out = append(out, def)
		}
	}
	return out
}

// positionInPart returns the step's 1-based position within its part and
// the part's step count.
func positionInPart(code string) (pos, total int) {
	part := StepsForPart(PartForCode(code))
	for i, def := range part {
		if def.Code == code {
			pos = i + 1
		}
	}
	return pos, len(part)
}

// ValidateTransition reports whether moving from one full-mode step to
// another is sanctioned: the immediate successor, any backward jump, or
// the 4.6 → 1.1 reformulation loop.
func ValidateTransition(from, to string) bool {
	if from == "4.6" && to == "1.1" {
		return true
	}
	fromIdx, toIdx := -1, -1
	for i, def := range steps.Full {
		switch def.Code {
		case from:
			fromIdx = i
		case to:
			toIdx = i
		}
	}
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx == fromIdx+1 || toIdx < fromIdx
}

// ShouldLoopBack inspects a step's output for markers that the
// methodology requires returning to the start for: an unresolvable
// physical contradiction at 3.6 or an unsolved task at 4.6. Returns the
// step code to return to, or "" to continue forward. Advisory only; the
// caller decides whether to follow it.
func ShouldLoopBack(code, output string) string {
	markers, ok := loopBackMarkers[code]
	if !ok {
		return ""
	}
	lower := strings.ToLower(output)
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return "1.1"
		}
	}
	return ""
}

// CanCompleteEarly reports whether step 1.7's output states that a
// standard fully solves the task, allowing the session to end without
// the remaining parts.
func CanCompleteEarly(code, output string) bool {
	if code != "1.7" {
		return false
	}
	lower := strings.ToLower(output)
	for _, marker := range earlyCompleteMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
