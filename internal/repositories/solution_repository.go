package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"arizor/internal/models"
)

type SolutionRepository interface {
	Create(ctx context.Context, solution *models.Solution) error
	ListBySession(ctx context.Context, sessionID uint) ([]models.Solution, error)
	CountBySession(ctx context.Context, sessionID uint) (int64, error)
}

type solutionRepository struct {
	db *gorm.DB
}

func NewSolutionRepository(db *gorm.DB) SolutionRepository {
	return &solutionRepository{db: db}
}

func (r *solutionRepository) Create(ctx context.Context, solution *models.Solution) error {
	if err := r.db.WithContext(ctx).Create(solution).Error; err != nil {
		return fmt.Errorf("creating solution for session %d: %w", solution.SessionID, err)
	}
	return nil
}

// ListBySession orders by novelty so the most promising candidates come
// first in summaries and reports.
func (r *solutionRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.Solution, error) {
	var list []models.Solution
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("novelty_score DESC, created_at").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing solutions for session %d: %w", sessionID, err)
	}
	return list, nil
}

func (r *solutionRepository) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Solution{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting solutions for session %d: %w", sessionID, err)
	}
	return n, nil
}
