// Package steps is the single source of truth for step definitions across
// the three modes. Express and autopilot share the same seven steps; full
// mode runs the 24-step four-part sequence.
package steps

// Definition describes a single step of a mode sequence. Prompt names the
// embedded template asset used to build the step's LLM prompt; Validators
// lists heuristic validator names run against the step output, in order.
type Definition struct {
	Code        string
	Name        string
	Prompt      string
	Validators  []string
	Description string
}

// Express is the abbreviated 7-step sequence for the b2c audience.
var Express = []Definition{
	{
		Code:        "1",
		Name:        "Формулировка задачи",
		Prompt:      "steps/express/step_1.txt",
		Validators:  []string{"falseness_check"},
		Description: "Пользователь описывает проблему. Проверка на ложность.",
	},
	{
		Code:        "2",
		Name:        "Поверхностное противоречие",
		Prompt:      "steps/express/step_2.txt",
		Validators:  []string{"terms_check"},
		Description: "Выявление поверхностного противоречия (ПП). Замена спецтерминов.",
	},
	{
		Code:        "3",
		Name:        "Углублённое противоречие",
		Prompt:      "steps/express/step_3.txt",
		Validators:  []string{"contradiction_check"},
		Description: "Формулировка углублённого противоречия (УП).",
	},
	{
		Code:        "4",
		Name:        "Идеальный конечный результат",
		Prompt:      "steps/express/step_4.txt",
		Validators:  []string{"ikr_check"},
		Description: "Формулировка ИКР -- идеального конечного результата.",
	},
	{
		Code:        "5",
		Name:        "Обострённое противоречие",
		Prompt:      "steps/express/step_5.txt",
		Validators:  []string{"conflict_check"},
		Description: "Формулировка обострённого противоречия (ОП).",
	},
	{
		Code:        "6",
		Name:        "Углубление ОП",
		Prompt:      "steps/express/step_6.txt",
		Description: "Углубление обострённого противоречия (ОП₁).",
	},
	{
		Code:        "7",
		Name:        "Решение",
		Prompt:      "steps/express/step_7.txt",
		Description: "Генерация решения на основе приёмов, эффектов, стандартов.",
	},
}

// Full is the complete 4-part, 24-step sequence for the b2b audience.
var Full = []Definition{
	// Part 1: Анализ задачи
	{Code: "1.1", Name: "Мини-задача", Prompt: "steps/full/step_1_1.txt",
		Validators:  []string{"falseness_check"},
		Description: "Записать условие мини-задачи без специальных терминов."},
	{Code: "1.2", Name: "Конфликтующая пара", Prompt: "steps/full/step_1_2.txt",
		Validators:  []string{"terms_check"},
		Description: "Определить конфликтующую пару: изделие и инструмент."},
	{Code: "1.3", Name: "Графические схемы ТП-1 и ТП-2", Prompt: "steps/full/step_1_3.txt",
		Validators:  []string{"contradiction_check"},
		Description: "Составить графические схемы ТП-1 и ТП-2."},
	{Code: "1.4", Name: "Выбор схемы конфликта", Prompt: "steps/full/step_1_4.txt",
		Description: "Выбрать из ТП-1 и ТП-2 ту, которая обеспечивает ГФ."},
	{Code: "1.5", Name: "Усиление конфликта", Prompt: "steps/full/step_1_5.txt",
		Validators:  []string{"conflict_check"},
		Description: "Усилить конфликт, указав предельное состояние."},
	{Code: "1.6", Name: "Модель задачи", Prompt: "steps/full/step_1_6.txt",
		Description: "Записать формулировку модели задачи."},
	{Code: "1.7", Name: "Применение стандартов", Prompt: "steps/full/step_1_7.txt",
		Description: "Проверить возможность применения системы стандартов."},

	// Part 2: Анализ ресурсов
	{Code: "2.1", Name: "Оперативная зона", Prompt: "steps/full/step_2_1.txt",
		Description: "Определить оперативную зону (ОЗ)."},
	{Code: "2.2", Name: "Оперативное время", Prompt: "steps/full/step_2_2.txt",
		Description: "Определить оперативное время (ОВ)."},
	{Code: "2.3", Name: "Вещественно-полевые ресурсы", Prompt: "steps/full/step_2_3.txt",
		Description: "Определить ВПР (вещественно-полевые ресурсы)."},

	// Part 3: Определение ИКР и ФП
	{Code: "3.1", Name: "Формулировка ИКР-1", Prompt: "steps/full/step_3_1.txt",
		Validators:  []string{"ikr_check"},
		Description: "Записать формулировку ИКР-1."},
	{Code: "3.2", Name: "Усиление ИКР-1", Prompt: "steps/full/step_3_2.txt",
		Description: "Усилить формулировку ИКР-1."},
	{Code: "3.3", Name: "Макро-уровень ФП", Prompt: "steps/full/step_3_3.txt",
		Description: "Определить ФП на макро-уровне."},
	{Code: "3.4", Name: "Микро-уровень ФП", Prompt: "steps/full/step_3_4.txt",
		Description: "Определить ФП на микро-уровне."},
	{Code: "3.5", Name: "Формулировка ИКР-2", Prompt: "steps/full/step_3_5.txt",
		Validators:  []string{"ikr_check"},
		Description: "Записать формулировку ИКР-2."},
	{Code: "3.6", Name: "Проверка ФП", Prompt: "steps/full/step_3_6.txt",
		Description: "Проверить возможность устранения ФП."},

	// Part 4: Получение решения
	{Code: "4.1", Name: "Метод ММЧ", Prompt: "steps/full/step_4_1.txt",
		Description: "Использовать метод моделирования маленькими человечками."},
	{Code: "4.2", Name: "Шаг назад от ИКР", Prompt: "steps/full/step_4_2.txt",
		Description: "Сделать шаг назад от ИКР."},
	{Code: "4.3", Name: "Применение стандартов (повторно)", Prompt: "steps/full/step_4_3.txt",
		Description: "Применить стандарты на решение изобретательских задач."},
	{Code: "4.4", Name: "Применение эффектов", Prompt: "steps/full/step_4_4.txt",
		Description: "Применить физические, химические, геометрические эффекты."},
	{Code: "4.5", Name: "Использование ресурсов", Prompt: "steps/full/step_4_5.txt",
		Description: "Использовать выявленные ВПР."},
	{Code: "4.6", Name: "Изменение задачи", Prompt: "steps/full/step_4_6.txt",
		Description: "Если задача не решена -- изменить или переформулировать."},
	{Code: "4.7", Name: "Проверка решения", Prompt: "steps/full/step_4_7.txt",
		Description: "Проверить полученное решение по критериям."},
	{Code: "4.8", Name: "Применение решения", Prompt: "steps/full/step_4_8.txt",
		Description: "Оценить применимость и масштабирование решения."},
}

var (
	expressByCode = indexByCode(Express)
	fullByCode    = indexByCode(Full)
)

func indexByCode(defs []Definition) map[string]Definition {
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		m[d.Code] = d
	}
	return m
}

// ForMode returns the step sequence for a mode. Autopilot shares the
// express definitions; unknown modes fall back to express.
func ForMode(mode string) []Definition {
	if mode == "full" {
		return Full
	}
	return Express
}

// Lookup finds a single step definition by mode and code.
func Lookup(mode, code string) (Definition, bool) {
	if mode == "full" {
		d, ok := fullByCode[code]
		return d, ok
	}
	d, ok := expressByCode[code]
	return d, ok
}

// Next returns the step after code in the mode's sequence, or false when
// code is the last step or not part of the sequence.
func Next(mode, code string) (Definition, bool) {
	defs := ForMode(mode)
	for i, d := range defs {
		if d.Code == code && i+1 < len(defs) {
			return defs[i+1], true
		}
	}
	return Definition{}, false
}

// Previous returns the step before code, or false when code is the first
// step or not part of the sequence.
func Previous(mode, code string) (Definition, bool) {
	defs := ForMode(mode)
	for i, d := range defs {
		if d.Code == code && i > 0 {
			return defs[i-1], true
		}
	}
	return Definition{}, false
}

// IsLast reports whether code is the final step of the mode's sequence.
func IsLast(mode, code string) bool {
	defs := ForMode(mode)
	return len(defs) > 0 && defs[len(defs)-1].Code == code
}

// Position returns the 1-based index of code within the mode's sequence,
// or 0 when the code is unknown.
func Position(mode, code string) int {
	for i, d := range ForMode(mode) {
		if d.Code == code {
			return i + 1
		}
	}
	return 0
}
