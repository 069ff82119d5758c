package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"arizor/internal/models"
)

// UsageTotals aggregates token counts and estimated cost.
type UsageTotals struct {
	Calls        int64   `json:"calls"`
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
	CostUSD      float64 `json:"costUsd"`
}

type UsageRepository interface {
	Create(ctx context.Context, record *models.UsageRecord) error
	ListBySession(ctx context.Context, sessionID uint) ([]models.UsageRecord, error)
	SessionTotals(ctx context.Context, sessionID uint) (UsageTotals, error)
	Totals(ctx context.Context) (UsageTotals, error)
}

type usageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Create(ctx context.Context, record *models.UsageRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("recording usage: %w", err)
	}
	return nil
}

func (r *usageRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.UsageRecord, error) {
	var list []models.UsageRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing usage for session %d: %w", sessionID, err)
	}
	return list, nil
}

func (r *usageRepository) SessionTotals(ctx context.Context, sessionID uint) (UsageTotals, error) {
	var totals UsageTotals
	err := r.db.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Select("COUNT(*) AS calls, COALESCE(SUM(input_tokens),0) AS input_tokens, COALESCE(SUM(output_tokens),0) AS output_tokens, COALESCE(SUM(cost_usd),0) AS cost_usd").
		Where("session_id = ?", sessionID).
		Scan(&totals).Error
	if err != nil {
		return UsageTotals{}, fmt.Errorf("summing usage for session %d: %w", sessionID, err)
	}
	return totals, nil
}

// Totals sums usage across every session for the stats endpoint.
func (r *usageRepository) Totals(ctx context.Context) (UsageTotals, error) {
	var totals UsageTotals
	err := r.db.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Select("COUNT(*) AS calls, COALESCE(SUM(input_tokens),0) AS input_tokens, COALESCE(SUM(output_tokens),0) AS output_tokens, COALESCE(SUM(cost_usd),0) AS cost_usd").
		Scan(&totals).Error
	if err != nil {
		return UsageTotals{}, fmt.Errorf("summing usage: %w", err)
	}
	return totals, nil
}
