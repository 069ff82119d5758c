package mocks

import (
	"context"

	"arizor/internal/models"
)

type StepResultRepositoryMock struct {
	GetOrCreateFunc    func(ctx context.Context, sessionID uint, code string, defaults models.StepResult) (*models.StepResult, bool, error)
	FindFunc           func(ctx context.Context, sessionID uint, code string) (*models.StepResult, error)
	ListBySessionFunc  func(ctx context.Context, sessionID uint) ([]models.StepResult, error)
	ListCompletedFunc  func(ctx context.Context, sessionID uint) ([]models.StepResult, error)
	CompletedCodesFunc func(ctx context.Context, sessionID uint) ([]string, error)
	UpdateFunc         func(ctx context.Context, result *models.StepResult) error
}

func (m *StepResultRepositoryMock) GetOrCreate(ctx context.Context, sessionID uint, code string, defaults models.StepResult) (*models.StepResult, bool, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, sessionID, code, defaults)
	}
	created := defaults
	created.SessionID = sessionID
	created.StepCode = code
	return &created, true, nil
}

func (m *StepResultRepositoryMock) Find(ctx context.Context, sessionID uint, code string) (*models.StepResult, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, sessionID, code)
	}
	return nil, nil
}

func (m *StepResultRepositoryMock) ListBySession(ctx context.Context, sessionID uint) ([]models.StepResult, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *StepResultRepositoryMock) ListCompleted(ctx context.Context, sessionID uint) ([]models.StepResult, error) {
	if m.ListCompletedFunc != nil {
		return m.ListCompletedFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *StepResultRepositoryMock) CompletedCodes(ctx context.Context, sessionID uint) ([]string, error) {
	if m.CompletedCodesFunc != nil {
		return m.CompletedCodesFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *StepResultRepositoryMock) Update(ctx context.Context, result *models.StepResult) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, result)
	}
	return nil
}
