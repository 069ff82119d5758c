package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"arizor/internal/models"
)

type StepResultRepository interface {
	GetOrCreate(ctx context.Context, sessionID uint, code string, defaults models.StepResult) (*models.StepResult, bool, error)
	Find(ctx context.Context, sessionID uint, code string) (*models.StepResult, error)
	ListBySession(ctx context.Context, sessionID uint) ([]models.StepResult, error)
	ListCompleted(ctx context.Context, sessionID uint) ([]models.StepResult, error)
	CompletedCodes(ctx context.Context, sessionID uint) ([]string, error)
	Update(ctx context.Context, result *models.StepResult) error
}

type stepResultRepository struct {
	db *gorm.DB
}

func NewStepResultRepository(db *gorm.DB) StepResultRepository {
	return &stepResultRepository{db: db}
}

// GetOrCreate returns the existing result row for (session, code) or
// creates one from defaults. The bool reports whether a row was created.
// Resubmitting a step reuses its row, so a session never collects
// duplicate results for one code.
func (r *stepResultRepository) GetOrCreate(ctx context.Context, sessionID uint, code string, defaults models.StepResult) (*models.StepResult, bool, error) {
	var result models.StepResult
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND step_code = ?", sessionID, code).
		First(&result).Error
	if err == nil {
		return &result, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("finding step result %d/%s: %w", sessionID, code, err)
	}

	defaults.SessionID = sessionID
	defaults.StepCode = code
	if err := r.db.WithContext(ctx).Create(&defaults).Error; err != nil {
		return nil, false, fmt.Errorf("creating step result %d/%s: %w", sessionID, code, err)
	}
	return &defaults, true, nil
}

// Find returns nil without error when no row exists for (session, code).
func (r *stepResultRepository) Find(ctx context.Context, sessionID uint, code string) (*models.StepResult, error) {
	var result models.StepResult
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND step_code = ?", sessionID, code).
		Take(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding step result %d/%s: %w", sessionID, code, err)
	}
	return &result, nil
}

func (r *stepResultRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.StepResult, error) {
	var list []models.StepResult
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing step results for session %d: %w", sessionID, err)
	}
	return list, nil
}

func (r *stepResultRepository) ListCompleted(ctx context.Context, sessionID uint) ([]models.StepResult, error) {
	var list []models.StepResult
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, models.StepStatusCompleted).
		Order("created_at").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing completed steps for session %d: %w", sessionID, err)
	}
	return list, nil
}

func (r *stepResultRepository) CompletedCodes(ctx context.Context, sessionID uint) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.StepResult{}).
		Where("session_id = ? AND status = ?", sessionID, models.StepStatusCompleted).
		Order("created_at").
		Pluck("step_code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("listing completed codes for session %d: %w", sessionID, err)
	}
	return codes, nil
}

func (r *stepResultRepository) Update(ctx context.Context, result *models.StepResult) error {
	if err := r.db.WithContext(ctx).Save(result).Error; err != nil {
		return fmt.Errorf("updating step result %d: %w", result.ID, err)
	}
	return nil
}
