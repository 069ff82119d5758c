// Package validators implements the rule-based output checks. Validators
// are pure text heuristics over fixed vocabularies; they never touch the
// network or the LLM. The set is closed: lookups go through a static
// name-to-instance map.
package validators

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"
)

// Context carries the audience/mode flags validators may branch on.
type Context struct {
	Audience string
	Mode     string
}

// Result is a single validator verdict. Issues explain a failure;
// Suggestions are advisory format templates, never enforced.
type Result struct {
	Valid       bool     `json:"valid"`
	Validator   string   `json:"validator"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// Validator is one stateless heuristic check.
type Validator interface {
	Name() string
	Validate(content string, ctx Context) Result
}

// Marker vocabularies are bilingual: the methodology's working language is
// Russian, English equivalents catch sessions run in English.
var (
	falsenessIndicators = []string{
		"простое решение", "уже решена", "не существует", "очевидно",
		"тривиально", "стандартное решение",
		"simple solution", "already solved", "does not exist", "obvious",
		"trivial", "standard solution",
	}

	trizTerms = []string{
		"вепольный", "веполь", "полисистема", "моносистема",
		"бисистема", "антисистема", "суперсистема",
		"оператор РВС", "метод ММЧ", "ИКР", "ОП", "УП", "ПП",
		"ГФ", "ТП", "ФП",
		"su-field", "polysystem", "monosystem", "bisystem", "supersystem",
	}

	contradictionMarkers = []string{
		"но при этом", "однако", "с одной стороны", "с другой стороны",
		"если увеличить", "если уменьшить", "должен быть", "не должен быть",
		"необходимо", "невозможно",
		"but at the same time", "however", "on one hand", "on the other hand",
		"if we increase", "if we decrease", "must be", "must not be",
		"necessary", "impossible",
	}

	amplificationMarkers = []string{
		"абсолютно", "полностью", "максимально", "предельно",
		"бесконечно", "нулевой", "идеально",
		"absolutely", "completely", "maximally", "infinitely",
		"zero", "ideally",
	}

	actionVerbs = []string{
		"перемещает", "нагревает", "охлаждает", "удерживает",
		"разделяет", "соединяет", "измеряет", "обрабатывает",
		"передаёт", "преобразует", "защищает", "разрушает",
		"moves", "heats", "cools", "holds", "separates", "joins",
		"measures", "processes", "transmits", "transforms",
		"protects", "destroys",
	}

	ikrMarkers = []string{
		"само", "сам", "самостоятельно", "без",
		"не требует", "автоматически", "идеально",
		"by itself", "itself", "automatically", "without", "ideally",
	}
)

func pass(name string) Result {
	return Result{Valid: true, Validator: name, Issues: []string{}, Suggestions: []string{}}
}

func fail(name string, issues, suggestions []string) Result {
	return Result{Valid: false, Validator: name, Issues: issues, Suggestions: suggestions}
}

func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// trimmedLen counts runes, not bytes. Thresholds are character counts and
// most content is Cyrillic.
func trimmedLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// falsenessValidator flags degenerate problem statements: too short, or
// carrying "this is trivially solved" wording.
type falsenessValidator struct{}

func (falsenessValidator) Name() string { return "falseness_check" }

func (v falsenessValidator) Validate(content string, _ Context) Result {
	lower := strings.ToLower(content)
	var issues []string

	if trimmedLen(content) < 50 {
		issues = append(issues, "Формулировка задачи слишком короткая (менее 50 символов).")
	}
	for _, indicator := range falsenessIndicators {
		if strings.Contains(lower, strings.ToLower(indicator)) {
			issues = append(issues, fmt.Sprintf(
				"Обнаружен индикатор ложности: '%s'. Проверьте, не является ли задача ложной.",
				indicator,
			))
		}
	}

	if len(issues) == 0 {
		return pass(v.Name())
	}
	return fail(v.Name(), issues, []string{
		"Переформулируйте задачу, убрав указания на тривиальность.",
		"Убедитесь, что задача не может быть решена стандартными методами.",
	})
}

// termsValidator enforces rule 15: no special terminology for the b2c
// audience. B2B sessions always pass.
type termsValidator struct{}

func (termsValidator) Name() string { return "terms_check" }

func (v termsValidator) Validate(content string, ctx Context) Result {
	if ctx.Audience == "b2b" {
		return pass(v.Name())
	}

	lower := strings.ToLower(content)
	var found []string
	for _, term := range trizTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			found = append(found, term)
		}
	}
	if len(found) == 0 {
		return pass(v.Name())
	}

	suggestions := make([]string, 0, 5)
	for _, term := range found {
		if len(suggestions) == 5 {
			break
		}
		suggestions = append(suggestions, fmt.Sprintf(
			"Замените '%s' описанием его сути простым языком.", term,
		))
	}
	return fail(v.Name(), []string{fmt.Sprintf(
		"Обнаружены специальные ТРИЗ-термины: %s. В режиме B2C они должны быть заменены простым описанием.",
		strings.Join(found, ", "),
	)}, suggestions)
}

// contradictionValidator checks that a statement actually opposes two
// requirements on one element (rule 19).
type contradictionValidator struct{}

func (contradictionValidator) Name() string { return "contradiction_check" }

func (v contradictionValidator) Validate(content string, _ Context) Result {
	lower := strings.ToLower(content)
	var issues []string

	if !containsAny(lower, contradictionMarkers) {
		issues = append(issues,
			"Формулировка не содержит явного противоречия. "+
				"Должны быть два противоположных требования к одному элементу.")
	}
	if trimmedLen(content) < 30 {
		issues = append(issues, "Формулировка противоречия слишком короткая.")
	}

	if len(issues) == 0 {
		return pass(v.Name())
	}
	return fail(v.Name(), issues, []string{
		"Используйте формат: 'Элемент X должен быть A, чтобы ..., и должен быть не-A (или B), чтобы ...'.",
	})
}

// conflictValidator checks rules 22-24: the conflict must be pushed to a
// limiting state before proceeding.
type conflictValidator struct{}

func (conflictValidator) Name() string { return "conflict_check" }

func (v conflictValidator) Validate(content string, _ Context) Result {
	if containsAny(strings.ToLower(content), amplificationMarkers) {
		return pass(v.Name())
	}
	return fail(v.Name(), []string{
		"Обострённое противоречие не доведено до предела. " +
			"Конфликт должен быть усилен до предельного состояния.",
	}, []string{
		"Доведите требования до предельных значений: 'абсолютно', 'полностью', 'максимально'.",
		"Правила 22-24: конфликт должен быть обострён до физического противоречия.",
	})
}

// functionValidator checks rules 4-11: a function statement names an
// instrument acting on an object via a concrete verb.
type functionValidator struct{}

func (functionValidator) Name() string { return "function_check" }

func (v functionValidator) Validate(content string, _ Context) Result {
	var issues []string

	if trimmedLen(content) < 20 {
		issues = append(issues, "Формулировка функции слишком короткая.")
	}
	if !containsAny(strings.ToLower(content), actionVerbs) {
		issues = append(issues,
			"Формулировка ГФ не содержит явного действия (глагола). "+
				"Правила 4-11 требуют указать инструмент и его действие на изделие.")
	}

	if len(issues) == 0 {
		return pass(v.Name())
	}
	return fail(v.Name(), issues, []string{
		"Формат ГФ: '[Инструмент] [действие] [Изделие]'. Например: 'Резец обрабатывает деталь'.",
	})
}

// ikrValidator checks that an ideal-result statement asserts the element
// performs the function unaided.
type ikrValidator struct{}

func (ikrValidator) Name() string { return "ikr_check" }

func (v ikrValidator) Validate(content string, _ Context) Result {
	lower := strings.ToLower(content)
	var issues []string

	if !containsAny(lower, ikrMarkers) {
		issues = append(issues,
			"Формулировка ИКР не содержит указания на идеальность. "+
				"ИКР должен описывать, как элемент сам выполняет нужную функцию.")
	}
	if trimmedLen(content) < 30 {
		issues = append(issues, "Формулировка ИКР слишком короткая.")
	}

	if len(issues) == 0 {
		return pass(v.Name())
	}
	return fail(v.Name(), issues, []string{
		"Формат ИКР: '[Элемент/X-элемент] сам [выполняет нужное действие], не вызывая [нежелательных эффектов]'.",
	})
}

var registry = map[string]Validator{
	"falseness_check":     falsenessValidator{},
	"terms_check":         termsValidator{},
	"contradiction_check": contradictionValidator{},
	"conflict_check":      conflictValidator{},
	"function_check":      functionValidator{},
	"ikr_check":           ikrValidator{},
}

// ByName looks up a validator in the closed registry.
func ByName(name string) (Validator, bool) {
	v, ok := registry[name]
	return v, ok
}

// ValidateStepOutput runs the named validators in order and returns their
// results in the same order. Unknown names are logged and skipped.
func ValidateStepOutput(names []string, content string, ctx Context) []Result {
	results := make([]Result, 0, len(names))
	for _, name := range names {
		v, ok := registry[name]
		if !ok {
			log.Printf("Unknown validator: %s", name)
			continue
		}
		results = append(results, v.Validate(content, ctx))
	}
	return results
}
