package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"arizor/internal/models"
)

type ContradictionRepository interface {
	Upsert(ctx context.Context, c *models.Contradiction) error
	ListBySession(ctx context.Context, sessionID uint) ([]models.Contradiction, error)
}

type contradictionRepository struct {
	db *gorm.DB
}

func NewContradictionRepository(db *gorm.DB) ContradictionRepository {
	return &contradictionRepository{db: db}
}

// Upsert writes the contradiction keyed by (session_id, type). An existing
// row of the same type is overwritten with the new extraction, so repeated
// refinement never duplicates rows.
func (r *contradictionRepository) Upsert(ctx context.Context, c *models.Contradiction) error {
	if c.SessionID == 0 || c.Type == "" {
		return fmt.Errorf("contradiction requires session and type")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"formulation":     c.Formulation,
			"property_s":      c.PropertyS,
			"anti_property_s": c.AntiPropertyS,
			"quality_a":       c.QualityA,
			"quality_b":       c.QualityB,
			"updated_at":      gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(c).Error
	if err != nil {
		return fmt.Errorf("upserting %s contradiction for session %d: %w", c.Type, c.SessionID, err)
	}
	return nil
}

func (r *contradictionRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.Contradiction, error) {
	var list []models.Contradiction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing contradictions for session %d: %w", sessionID, err)
	}
	return list, nil
}
