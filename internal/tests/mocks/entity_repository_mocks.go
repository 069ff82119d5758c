package mocks

import (
	"context"

	"arizor/internal/models"
	"arizor/internal/repositories"
)

type ContradictionRepositoryMock struct {
	UpsertFunc        func(ctx context.Context, c *models.Contradiction) error
	ListBySessionFunc func(ctx context.Context, sessionID uint) ([]models.Contradiction, error)
}

func (m *ContradictionRepositoryMock) Upsert(ctx context.Context, c *models.Contradiction) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, c)
	}
	return nil
}

func (m *ContradictionRepositoryMock) ListBySession(ctx context.Context, sessionID uint) ([]models.Contradiction, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID)
	}
	return nil, nil
}

type IKRRepositoryMock struct {
	UpsertByLabelFunc func(ctx context.Context, sessionID uint, label string, apply func(*models.IdealResult)) (*models.IdealResult, bool, error)
	ListBySessionFunc func(ctx context.Context, sessionID uint) ([]models.IdealResult, error)
}

func (m *IKRRepositoryMock) UpsertByLabel(ctx context.Context, sessionID uint, label string, apply func(*models.IdealResult)) (*models.IdealResult, bool, error) {
	if m.UpsertByLabelFunc != nil {
		return m.UpsertByLabelFunc(ctx, sessionID, label, apply)
	}
	record := &models.IdealResult{SessionID: sessionID}
	apply(record)
	return record, true, nil
}

func (m *IKRRepositoryMock) ListBySession(ctx context.Context, sessionID uint) ([]models.IdealResult, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID)
	}
	return nil, nil
}

type SolutionRepositoryMock struct {
	CreateFunc         func(ctx context.Context, solution *models.Solution) error
	ListBySessionFunc  func(ctx context.Context, sessionID uint) ([]models.Solution, error)
	CountBySessionFunc func(ctx context.Context, sessionID uint) (int64, error)
}

func (m *SolutionRepositoryMock) Create(ctx context.Context, solution *models.Solution) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, solution)
	}
	return nil
}

func (m *SolutionRepositoryMock) ListBySession(ctx context.Context, sessionID uint) ([]models.Solution, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *SolutionRepositoryMock) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	if m.CountBySessionFunc != nil {
		return m.CountBySessionFunc(ctx, sessionID)
	}
	return 0, nil
}

type UsageRepositoryMock struct {
	CreateFunc        func(ctx context.Context, record *models.UsageRecord) error
	ListBySessionFunc func(ctx context.Context, sessionID uint) ([]models.UsageRecord, error)
	SessionTotalsFunc func(ctx context.Context, sessionID uint) (repositories.UsageTotals, error)
	TotalsFunc        func(ctx context.Context) (repositories.UsageTotals, error)
}

func (m *UsageRepositoryMock) Create(ctx context.Context, record *models.UsageRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, record)
	}
	return nil
}

func (m *UsageRepositoryMock) ListBySession(ctx context.Context, sessionID uint) ([]models.UsageRecord, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *UsageRepositoryMock) SessionTotals(ctx context.Context, sessionID uint) (repositories.UsageTotals, error) {
	if m.SessionTotalsFunc != nil {
		return m.SessionTotalsFunc(ctx, sessionID)
	}
	return repositories.UsageTotals{}, nil
}

func (m *UsageRepositoryMock) Totals(ctx context.Context) (repositories.UsageTotals, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx)
	}
	return repositories.UsageTotals{}, nil
}
