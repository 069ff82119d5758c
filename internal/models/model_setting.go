package models

import "time"

// ModelSetting persists per-model enablement toggles.
type ModelSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Provider  string    `gorm:"size:50;not null;index:idx_model_provider" json:"provider"`
	ModelKey  string    `gorm:"size:255;not null;uniqueIndex" json:"modelKey"`
	Enabled   bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

const (
	SelectionRoleMain       = "main"
	SelectionRoleValidation = "validation"
)

// ModelSelection records which model serves a role. One row per role:
// "main" answers step prompts, "validation" checks them. A missing
// validation row falls back to the main model.
type ModelSelection struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Role      string    `gorm:"size:20;not null;uniqueIndex" json:"role"`
	Provider  string    `gorm:"size:50;not null" json:"provider"`
	ModelKey  string    `gorm:"size:255;not null" json:"modelKey"`
	UpdatedAt time.Time `json:"updatedAt"`
}
