package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"arizor/internal/models"
)

type SessionRepository interface {
	Get(ctx context.Context, id uint) (*models.Session, error)
	ListByProblem(ctx context.Context, problemID uint) ([]*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	UpdateSnapshot(ctx context.Context, id uint, snapshot string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Get(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %d not found: %w", id, err)
		}
		return nil, fmt.Errorf("getting session %d: %w", id, err)
	}
	return &session, nil
}

func (r *sessionRepository) ListByProblem(ctx context.Context, problemID uint) ([]*models.Session, error) {
	var list []*models.Session
	err := r.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing sessions for problem %d: %w", problemID, err)
	}
	return list, nil
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Update(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("updating session %d: %w", session.ID, err)
	}
	return nil
}

// UpdateSnapshot writes only the context_snapshot column, leaving the rest
// of the row alone. The pipeline calls this concurrently with engine
// updates to current_step.
func (r *sessionRepository) UpdateSnapshot(ctx context.Context, id uint, snapshot string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Update("context_snapshot", snapshot).Error
	if err != nil {
		return fmt.Errorf("updating snapshot for session %d: %w", id, err)
	}
	return nil
}

// CountByStatus returns session counts keyed by status.
func (r *sessionRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
