package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"arizor/internal/models"
)

type IKRRepository interface {
	UpsertByLabel(ctx context.Context, sessionID uint, label string, apply func(*models.IdealResult)) (*models.IdealResult, bool, error)
	ListBySession(ctx context.Context, sessionID uint) ([]models.IdealResult, error)
}

type ikrRepository struct {
	db *gorm.DB
}

func NewIKRRepository(db *gorm.DB) IKRRepository {
	return &ikrRepository{db: db}
}

// UpsertByLabel finds the session's ideal-result record whose formulation
// starts with label ("ИКР-1" or "ИКР-2") and applies the mutation to it,
// creating the record when none matches. The prefix match is deliberate:
// there is no unique index, the label prefix is the identity. The bool
// reports whether a new row was created.
func (r *ikrRepository) UpsertByLabel(ctx context.Context, sessionID uint, label string, apply func(*models.IdealResult)) (*models.IdealResult, bool, error) {
	if label == "" {
		return nil, false, fmt.Errorf("ikr label is required")
	}

	var record models.IdealResult
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND formulation LIKE ?", sessionID, label+"%").
		First(&record).Error

	switch {
	case err == nil:
		apply(&record)
		if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
			return nil, false, fmt.Errorf("updating %s for session %d: %w", label, sessionID, err)
		}
		return &record, false, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		record = models.IdealResult{SessionID: sessionID}
		apply(&record)
		if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
			return nil, false, fmt.Errorf("creating %s for session %d: %w", label, sessionID, err)
		}
		return &record, true, nil

	default:
		return nil, false, fmt.Errorf("finding %s for session %d: %w", label, sessionID, err)
	}
}

func (r *ikrRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.IdealResult, error) {
	var list []models.IdealResult
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing ideal results for session %d: %w", sessionID, err)
	}
	return list, nil
}
