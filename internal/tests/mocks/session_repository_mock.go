package mocks

import (
	"context"

	"arizor/internal/models"
)

type SessionRepositoryMock struct {
	GetFunc            func(ctx context.Context, id uint) (*models.Session, error)
	ListByProblemFunc  func(ctx context.Context, problemID uint) ([]*models.Session, error)
	CreateFunc         func(ctx context.Context, session *models.Session) error
	UpdateFunc         func(ctx context.Context, session *models.Session) error
	UpdateSnapshotFunc func(ctx context.Context, id uint, snapshot string) error
	CountByStatusFunc  func(ctx context.Context) (map[string]int64, error)
}

func (m *SessionRepositoryMock) Get(ctx context.Context, id uint) (*models.Session, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &models.Session{ID: id, Mode: models.ModeExpress, Status: models.SessionStatusActive, CurrentStep: "1"}, nil
}

func (m *SessionRepositoryMock) ListByProblem(ctx context.Context, problemID uint) ([]*models.Session, error) {
	if m.ListByProblemFunc != nil {
		return m.ListByProblemFunc(ctx, problemID)
	}
	return nil, nil
}

func (m *SessionRepositoryMock) Create(ctx context.Context, session *models.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	return nil
}

func (m *SessionRepositoryMock) Update(ctx context.Context, session *models.Session) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, session)
	}
	return nil
}

func (m *SessionRepositoryMock) UpdateSnapshot(ctx context.Context, id uint, snapshot string) error {
	if m.UpdateSnapshotFunc != nil {
		return m.UpdateSnapshotFunc(ctx, id, snapshot)
	}
	return nil
}

func (m *SessionRepositoryMock) CountByStatus(ctx context.Context) (map[string]int64, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx)
	}
	return map[string]int64{}, nil
}
