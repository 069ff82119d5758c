package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"arizor/internal/engine"
	"arizor/internal/models"
	"arizor/internal/repositories"
	"arizor/internal/steps"
)

const reportTimeLayout = "02.01.2006 15:04"

var modeLabels = map[string]string{
	models.ModeExpress:   "Краткий АРИЗ (Экспресс)",
	models.ModeFull:      "Полный АРИЗ-2010",
	models.ModeAutopilot: "Автопилот",
}

var domainLabels = map[string]string{
	"technical": "Техническая",
	"business":  "Бизнес",
	"everyday":  "Бытовая",
}

var methodLabels = map[string]string{
	models.MethodPrinciple: "Приём ТРИЗ",
	models.MethodStandard:  "Стандарт",
	models.MethodEffect:    "Эффект",
	models.MethodAnalog:    "Аналог",
	models.MethodCombined:  "Комбинированный",
}

var contradictionTypeLabels = map[string]string{
	models.ContradictionSurface:   "Поверхностное (ПП)",
	models.ContradictionDeepened:  "Углублённое (УП)",
	models.ContradictionSharpened: "Обострённое (ОП)",
}

// ReportService renders a finished (or in-flight) session into a
// markdown document: problem, step outputs, extracted contradictions,
// ideal results, scored solutions and usage totals.
type ReportService interface {
	BuildSessionReport(ctx context.Context, sessionID uint) (string, error)
}

type reportService struct {
	sessions       repositories.SessionRepository
	problems       repositories.ProblemRepository
	results        repositories.StepResultRepository
	contradictions repositories.ContradictionRepository
	ikrs           repositories.IKRRepository
	solutions      repositories.SolutionRepository
	usage          repositories.UsageRepository
}

func NewReportService(
	sessions repositories.SessionRepository,
	problems repositories.ProblemRepository,
	results repositories.StepResultRepository,
	contradictions repositories.ContradictionRepository,
	ikrs repositories.IKRRepository,
	solutions repositories.SolutionRepository,
	usage repositories.UsageRepository,
) ReportService {
	return &reportService{
		sessions:       sessions,
		problems:       problems,
		results:        results,
		contradictions: contradictions,
		ikrs:           ikrs,
		solutions:      solutions,
		usage:          usage,
	}
}

func (s *reportService) BuildSessionReport(ctx context.Context, sessionID uint) (string, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("service: report for session %d: %w", sessionID, err)
	}
	problem, err := s.problems.Get(ctx, session.ProblemID)
	if err != nil {
		return "", fmt.Errorf("service: report for session %d: %w", sessionID, err)
	}
	completed, err := s.results.ListCompleted(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("service: report for session %d: %w", sessionID, err)
	}
	contradictions, err := s.contradictions.ListBySession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("service: report for session %d: %w", sessionID, err)
	}
	ikrs, err := s.ikrs.ListBySession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("service: report for session %d: %w", sessionID, err)
	}
	solutions, err := s.solutions.ListBySession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("service: report for session %d: %w", sessionID, err)
	}
	totals, err := s.usage.SessionTotals(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("service: report for session %d: %w", sessionID, err)
	}

	var b strings.Builder
	writeHeader(&b, session, problem)
	writeProblemSection(&b, problem)
	writeStepsSection(&b, session, completed)
	writeContradictionsSection(&b, contradictions)
	writeIKRSection(&b, ikrs)
	writeSolutionsSection(&b, solutions)
	writeUsageSection(&b, totals)

	fmt.Fprintf(&b, "---\n\n_Сгенерировано Arizor %s_\n", time.Now().Format(reportTimeLayout))
	return b.String(), nil
}

func writeHeader(b *strings.Builder, session *models.Session, problem *models.Problem) {
	fmt.Fprintf(b, "# АРИЗ-отчёт: %s\n\n", problem.Title)

	mode := modeLabels[session.Mode]
	if mode == "" {
		mode = session.Mode
	}
	fmt.Fprintf(b, "**Режим:** %s\n", mode)
	fmt.Fprintf(b, "**Дата создания:** %s\n", session.CreatedAt.Format(reportTimeLayout))
	if session.CompletedAt != nil {
		fmt.Fprintf(b, "**Дата завершения:** %s\n", session.CompletedAt.Format(reportTimeLayout))
	}
	b.WriteString("\n")
}

func writeProblemSection(b *strings.Builder, problem *models.Problem) {
	b.WriteString("## 1. Описание задачи\n\n")
	fmt.Fprintf(b, "**Название:** %s\n\n", problem.Title)

	domain := domainLabels[problem.Domain]
	if domain == "" {
		domain = problem.Domain
	}
	if domain != "" {
		fmt.Fprintf(b, "**Область:** %s\n\n", domain)
	}
	if problem.Description != "" {
		fmt.Fprintf(b, "**Описание:**\n\n%s\n\n", problem.Description)
	}
}

func writeStepsSection(b *strings.Builder, session *models.Session, completed []models.StepResult) {
	if len(completed) == 0 {
		return
	}
	b.WriteString("## 2. Ход решения\n\n")

	currentPart := 0
	for i := range completed {
		step := &completed[i]
		if session.Mode == models.ModeFull {
			part := engine.PartForCode(step.StepCode)
			if part != currentPart {
				currentPart = part
				fmt.Fprintf(b, "### Часть %d: %s\n\n", part, engine.PartName(part))
			}
			writeStepBlock(b, step, "####")
		} else {
			writeStepBlock(b, step, "###")
		}
	}
}

func writeStepBlock(b *strings.Builder, step *models.StepResult, heading string) {
	fmt.Fprintf(b, "%s Шаг %s: %s\n\n", heading, step.StepCode, stepLabel(step))

	if step.UserInput != "" {
		fmt.Fprintf(b, "**Ввод пользователя:**\n\n%s\n\n", step.UserInput)
	}
	if text := step.DisplayText(); text != "" {
		fmt.Fprintf(b, "**Результат:**\n\n%s\n\n", text)
	}
	if step.ValidationNotes != "" {
		fmt.Fprintf(b, "*Примечание: %s*\n\n", step.ValidationNotes)
	}
}

// stepLabel prefers the registry name so renamed steps still read
// consistently; stored names cover steps the registry no longer knows.
func stepLabel(step *models.StepResult) string {
	for _, mode := range []string{models.ModeExpress, models.ModeFull} {
		if def, ok := steps.Lookup(mode, step.StepCode); ok {
			return def.Name
		}
	}
	return step.StepName
}

func writeContradictionsSection(b *strings.Builder, contradictions []models.Contradiction) {
	if len(contradictions) == 0 {
		return
	}
	b.WriteString("## 3. Противоречия\n\n")
	b.WriteString("| Тип | Формулировка | Свойство / Анти-свойство |\n")
	b.WriteString("| --- | --- | --- |\n")

	for _, c := range contradictions {
		typeLabel := contradictionTypeLabels[c.Type]
		if typeLabel == "" {
			typeLabel = c.Type
		}
		props := ""
		if c.PropertyS != "" || c.AntiPropertyS != "" {
			props = c.PropertyS + " / " + c.AntiPropertyS
		} else if c.QualityA != "" || c.QualityB != "" {
			props = c.QualityA + " / " + c.QualityB
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n", typeLabel, tableCell(c.Formulation), tableCell(props))
	}
	b.WriteString("\n")
}

func writeIKRSection(b *strings.Builder, ikrs []models.IdealResult) {
	if len(ikrs) == 0 {
		return
	}
	b.WriteString("## 4. Идеальный конечный результат (ИКР)\n\n")

	for _, ikr := range ikrs {
		fmt.Fprintf(b, "%s\n\n", ikr.Formulation)
		if ikr.StrengthenedFormulation != "" {
			fmt.Fprintf(b, "**Усиленная формулировка:** %s\n\n", ikr.StrengthenedFormulation)
		}
		if ikr.VPRUsed != "" {
			fmt.Fprintf(b, "**Использованные ВПР:** %s\n\n", ikr.VPRUsed)
		}
	}
}

func writeSolutionsSection(b *strings.Builder, solutions []models.Solution) {
	if len(solutions) == 0 {
		return
	}
	b.WriteString("## 5. Решения\n\n")

	for i, sol := range solutions {
		fmt.Fprintf(b, "### Решение %d: %s\n\n", i+1, sol.Title)

		method := methodLabels[sol.Method]
		if method == "" {
			method = sol.Method
		}
		fmt.Fprintf(b, "**Метод:** %s\n", method)
		fmt.Fprintf(b, "**Новизна:** %d/10 (%s)\n", sol.NoveltyScore, scoreLabel(sol.NoveltyScore))
		fmt.Fprintf(b, "**Реализуемость:** %d/10 (%s)\n\n", sol.FeasibilityScore, scoreLabel(sol.FeasibilityScore))

		if sol.Description != "" {
			fmt.Fprintf(b, "%s\n\n", sol.Description)
		}
	}
}

func writeUsageSection(b *strings.Builder, totals repositories.UsageTotals) {
	if totals.Calls == 0 {
		return
	}
	b.WriteString("## 6. Статистика использования\n\n")
	b.WriteString("| Показатель | Значение |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(b, "| Запросов к модели | %d |\n", totals.Calls)
	fmt.Fprintf(b, "| Входные токены | %d |\n", totals.InputTokens)
	fmt.Fprintf(b, "| Выходные токены | %d |\n", totals.OutputTokens)
	fmt.Fprintf(b, "| Стоимость | $%.4f |\n", totals.CostUSD)
	b.WriteString("\n")
}

// tableCell flattens text for a markdown table cell, truncating long
// formulations the same way the step outputs are truncated in snapshots.
func tableCell(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "|", "\\|")
	runes := []rune(text)
	if len(runes) > 300 {
		return string(runes[:300]) + "…"
	}
	return text
}

func scoreLabel(score int) string {
	switch {
	case score >= 8:
		return "Отлично"
	case score >= 6:
		return "Хорошо"
	case score >= 4:
		return "Средне"
	case score >= 2:
		return "Ниже среднего"
	default:
		return "Низко"
	}
}
