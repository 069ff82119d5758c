package mocks

import (
	"context"

	"arizor/internal/models"
)

type ProblemRepositoryMock struct {
	GetFunc    func(ctx context.Context, id uint) (*models.Problem, error)
	GetAllFunc func(ctx context.Context) ([]*models.Problem, error)
	CreateFunc func(ctx context.Context, problem *models.Problem) error
	UpdateFunc func(ctx context.Context, problem *models.Problem) error
	DeleteFunc func(ctx context.Context, id uint) error
	CountFunc  func(ctx context.Context) (int64, error)
}

func (m *ProblemRepositoryMock) Get(ctx context.Context, id uint) (*models.Problem, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &models.Problem{ID: id, Title: "Тестовая задача"}, nil
}

func (m *ProblemRepositoryMock) GetAll(ctx context.Context) ([]*models.Problem, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *ProblemRepositoryMock) Create(ctx context.Context, problem *models.Problem) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, problem)
	}
	return nil
}

func (m *ProblemRepositoryMock) Update(ctx context.Context, problem *models.Problem) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, problem)
	}
	return nil
}

func (m *ProblemRepositoryMock) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *ProblemRepositoryMock) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}
