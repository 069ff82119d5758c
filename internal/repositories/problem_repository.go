package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"arizor/internal/models"
)

type ProblemRepository interface {
	Get(ctx context.Context, id uint) (*models.Problem, error)
	GetAll(ctx context.Context) ([]*models.Problem, error)
	Create(ctx context.Context, problem *models.Problem) error
	Update(ctx context.Context, problem *models.Problem) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type problemRepository struct {
	db *gorm.DB
}

func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

func (r *problemRepository) Get(ctx context.Context, id uint) (*models.Problem, error) {
	var problem models.Problem
	if err := r.db.WithContext(ctx).First(&problem, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("problem %d not found: %w", id, err)
		}
		return nil, fmt.Errorf("getting problem %d: %w", id, err)
	}
	return &problem, nil
}

func (r *problemRepository) GetAll(ctx context.Context) ([]*models.Problem, error) {
	var list []*models.Problem
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing problems: %w", err)
	}
	return list, nil
}

func (r *problemRepository) Create(ctx context.Context, problem *models.Problem) error {
	if err := r.db.WithContext(ctx).Create(problem).Error; err != nil {
		return fmt.Errorf("creating problem: %w", err)
	}
	return nil
}

func (r *problemRepository) Update(ctx context.Context, problem *models.Problem) error {
	if err := r.db.WithContext(ctx).Save(problem).Error; err != nil {
		return fmt.Errorf("updating problem %d: %w", problem.ID, err)
	}
	return nil
}

func (r *problemRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Problem{}, id).Error; err != nil {
		return fmt.Errorf("deleting problem %d: %w", id, err)
	}
	return nil
}

func (r *problemRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Problem{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting problems: %w", err)
	}
	return n, nil
}
