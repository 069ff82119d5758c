package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"arizor/internal/models"
	"arizor/internal/repositories"
	"arizor/internal/tests/mocks"

	"github.com/stretchr/testify/assert"
)

type reportMocks struct {
	sessions       *mocks.SessionRepositoryMock
	problems       *mocks.ProblemRepositoryMock
	results        *mocks.StepResultRepositoryMock
	contradictions *mocks.ContradictionRepositoryMock
	ikrs           *mocks.IKRRepositoryMock
	solutions      *mocks.SolutionRepositoryMock
	usage          *mocks.UsageRepositoryMock
}

func newReportService(m reportMocks) ReportService {
	return NewReportService(
		m.sessions, m.problems, m.results,
		m.contradictions, m.ikrs, m.solutions, m.usage,
	)
}

func fullReportMocks() reportMocks {
	completedAt := time.Date(2026, 3, 12, 17, 45, 0, 0, time.UTC)
	return reportMocks{
		sessions: &mocks.SessionRepositoryMock{
			GetFunc: func(ctx context.Context, id uint) (*models.Session, error) {
				return &models.Session{
					ID:          id,
					ProblemID:   2,
					Mode:        models.ModeFull,
					Status:      models.SessionStatusCompleted,
					CreatedAt:   time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC),
					CompletedAt: &completedAt,
				}, nil
			},
		},
		problems: &mocks.ProblemRepositoryMock{
			GetFunc: func(ctx context.Context, id uint) (*models.Problem, error) {
				return &models.Problem{
					ID:          id,
					Title:       "Износ ножей куттера",
					Description: "Ножи тупятся за смену, заточка останавливает линию.",
					Domain:      "technical",
				}, nil
			},
		},
		results: &mocks.StepResultRepositoryMock{
			ListCompletedFunc: func(ctx context.Context, sessionID uint) ([]models.StepResult, error) {
				return []models.StepResult{
					{StepCode: "1.1", StepName: "Описание проблемы", Status: models.StepStatusCompleted,
						UserInput: "Ножи изнашиваются слишком быстро.", LLMOutput: "Анализ мини-задачи."},
					{StepCode: "1.3", StepName: "Формулировка ТП", Status: models.StepStatusCompleted,
						LLMOutput: "ТП-1 и ТП-2 сформулированы.", ValidationNotes: "[contradiction_check] OK"},
					{StepCode: "3.1", StepName: "Формулировка ИКР-1", Status: models.StepStatusCompleted,
						LLMOutput: "черновой вариант", ValidatedResult: "ИКР-1: нож сам сохраняет остроту."},
				}, nil
			},
		},
		contradictions: &mocks.ContradictionRepositoryMock{
			ListBySessionFunc: func(ctx context.Context, sessionID uint) ([]models.Contradiction, error) {
				return []models.Contradiction{
					{Type: models.ContradictionSurface, Formulation: "Нож должен резать быстро, однако быстро тупится."},
					{Type: models.ContradictionSharpened, Formulation: "Лезвие должно быть твёрдым и мягким.",
						PropertyS: "твёрдость", AntiPropertyS: "мягкость"},
				}, nil
			},
		},
		ikrs: &mocks.IKRRepositoryMock{
			ListBySessionFunc: func(ctx context.Context, sessionID uint) ([]models.IdealResult, error) {
				return []models.IdealResult{
					{Formulation: "ИКР-1: нож сам сохраняет остроту.", VPRUsed: "вибрация куттера, остатки фарша"},
				}, nil
			},
		},
		solutions: &mocks.SolutionRepositoryMock{
			ListBySessionFunc: func(ctx context.Context, sessionID uint) ([]models.Solution, error) {
				return []models.Solution{
					{Title: "Самозатачивающаяся кромка", Description: "Двухслойное лезвие с мягкой подложкой.",
						Method: models.MethodPrinciple, NoveltyScore: 9, FeasibilityScore: 6},
					{Title: "Вибрационная резка", Description: "Ультразвуковая накладка снижает усилие реза.",
						Method: models.MethodEffect, NoveltyScore: 7, FeasibilityScore: 4},
				}, nil
			},
		},
		usage: &mocks.UsageRepositoryMock{
			SessionTotalsFunc: func(ctx context.Context, sessionID uint) (repositories.UsageTotals, error) {
				return repositories.UsageTotals{Calls: 12, InputTokens: 53200, OutputTokens: 18400, CostUSD: 0.3124}, nil
			},
		},
	}
}

func TestReportService_BuildSessionReport_FullSession(t *testing.T) {
	svc := newReportService(fullReportMocks())

	report, err := svc.BuildSessionReport(context.Background(), 5)
	assert.NoError(t, err)

	assert.Contains(t, report, "# АРИЗ-отчёт: Износ ножей куттера")
	assert.Contains(t, report, "**Режим:** Полный АРИЗ-2010")
	assert.Contains(t, report, "**Дата создания:** 12.03.2026 09:30")
	assert.Contains(t, report, "**Дата завершения:** 12.03.2026 17:45")
	assert.Contains(t, report, "**Область:** Техническая")

	assert.Contains(t, report, "### Часть 1: Анализ задачи")
	assert.Contains(t, report, "### Часть 3: Определение ИКР и ФП")
	assert.NotContains(t, report, "### Часть 2")
	assert.Contains(t, report, "#### Шаг 1.1: Мини-задача")
	assert.Contains(t, report, "**Ввод пользователя:**\n\nНожи изнашиваются слишком быстро.")
	assert.Contains(t, report, "**Результат:**\n\nИКР-1: нож сам сохраняет остроту.")
	assert.Contains(t, report, "*Примечание: [contradiction_check] OK*")

	assert.Contains(t, report, "| Поверхностное (ПП) | Нож должен резать быстро, однако быстро тупится. |")
	assert.Contains(t, report, "| Обострённое (ОП) | Лезвие должно быть твёрдым и мягким. | твёрдость / мягкость |")

	assert.Contains(t, report, "## 4. Идеальный конечный результат (ИКР)")
	assert.Contains(t, report, "**Использованные ВПР:** вибрация куттера, остатки фарша")

	assert.Contains(t, report, "### Решение 1: Самозатачивающаяся кромка")
	assert.Contains(t, report, "**Метод:** Приём ТРИЗ")
	assert.Contains(t, report, "**Новизна:** 9/10 (Отлично)")
	assert.Contains(t, report, "**Реализуемость:** 6/10 (Хорошо)")
	assert.Contains(t, report, "### Решение 2: Вибрационная резка")
	assert.Less(t,
		strings.Index(report, "Самозатачивающаяся кромка"),
		strings.Index(report, "Вибрационная резка"))

	assert.Contains(t, report, "| Запросов к модели | 12 |")
	assert.Contains(t, report, "| Стоимость | $0.3124 |")
	assert.Contains(t, report, "_Сгенерировано Arizor ")
}

func TestReportService_BuildSessionReport_ExpressUsesFlatSteps(t *testing.T) {
	m := fullReportMocks()
	m.sessions = &mocks.SessionRepositoryMock{
		GetFunc: func(ctx context.Context, id uint) (*models.Session, error) {
			return &models.Session{ID: id, ProblemID: 2, Mode: models.ModeExpress,
				CreatedAt: time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC)}, nil
		},
	}
	m.results = &mocks.StepResultRepositoryMock{
		ListCompletedFunc: func(ctx context.Context, sessionID uint) ([]models.StepResult, error) {
			return []models.StepResult{
				{StepCode: "1", Status: models.StepStatusCompleted, LLMOutput: "Задача сформулирована."},
				{StepCode: "2", Status: models.StepStatusCompleted, LLMOutput: "ПП выявлено."},
			}, nil
		},
	}
	svc := newReportService(m)

	report, err := svc.BuildSessionReport(context.Background(), 5)
	assert.NoError(t, err)
	assert.NotContains(t, report, "### Часть")
	assert.Contains(t, report, "### Шаг 1: Формулировка задачи")
	assert.Contains(t, report, "### Шаг 2: Поверхностное противоречие")
	assert.Contains(t, report, "**Режим:** Краткий АРИЗ (Экспресс)")
}

func TestReportService_BuildSessionReport_OmitsEmptySections(t *testing.T) {
	m := fullReportMocks()
	m.results = &mocks.StepResultRepositoryMock{
		ListCompletedFunc: func(ctx context.Context, sessionID uint) ([]models.StepResult, error) {
			return nil, nil
		},
	}
	m.contradictions = &mocks.ContradictionRepositoryMock{
		ListBySessionFunc: func(ctx context.Context, sessionID uint) ([]models.Contradiction, error) {
			return nil, nil
		},
	}
	m.ikrs = &mocks.IKRRepositoryMock{
		ListBySessionFunc: func(ctx context.Context, sessionID uint) ([]models.IdealResult, error) {
			return nil, nil
		},
	}
	m.solutions = &mocks.SolutionRepositoryMock{
		ListBySessionFunc: func(ctx context.Context, sessionID uint) ([]models.Solution, error) {
			return nil, nil
		},
	}
	m.usage = &mocks.UsageRepositoryMock{
		SessionTotalsFunc: func(ctx context.Context, sessionID uint) (repositories.UsageTotals, error) {
			return repositories.UsageTotals{}, nil
		},
	}
	svc := newReportService(m)

	report, err := svc.BuildSessionReport(context.Background(), 5)
	assert.NoError(t, err)
	assert.Contains(t, report, "## 1. Описание задачи")
	assert.NotContains(t, report, "## 2. Ход решения")
	assert.NotContains(t, report, "## 3. Противоречия")
	assert.NotContains(t, report, "## 4. Идеальный конечный результат")
	assert.NotContains(t, report, "## 5. Решения")
	assert.NotContains(t, report, "## 6. Статистика использования")
}

func TestReportService_BuildSessionReport_FlattensTableCells(t *testing.T) {
	m := fullReportMocks()
	m.contradictions = &mocks.ContradictionRepositoryMock{
		ListBySessionFunc: func(ctx context.Context, sessionID uint) ([]models.Contradiction, error) {
			return []models.Contradiction{
				{Type: models.ContradictionDeepened, Formulation: "строка одна\nстрока | две"},
			}, nil
		},
	}
	svc := newReportService(m)

	report, err := svc.BuildSessionReport(context.Background(), 5)
	assert.NoError(t, err)
	assert.Contains(t, report, "| Углублённое (УП) | строка одна строка \\| две |")
}

func TestReportService_BuildSessionReport_SessionNotFound(t *testing.T) {
	m := fullReportMocks()
	m.sessions = &mocks.SessionRepositoryMock{
		GetFunc: func(ctx context.Context, id uint) (*models.Session, error) {
			return nil, fmt.Errorf("session %d not found", id)
		},
	}
	svc := newReportService(m)

	_, err := svc.BuildSessionReport(context.Background(), 9)
	assert.ErrorContains(t, err, "service: report for session 9")
}
