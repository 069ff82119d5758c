package models

import "time"

const (
	UsageKindStep       = "step"
	UsageKindValidation = "validation"
	UsageKindAutopilot  = "autopilot"
	UsageKindEmbedding  = "embedding"
)

// UsageRecord captures token consumption for one LLM call. CostUSD is
// estimated from catalog pricing at call time and is zero for models
// without pricing data.
type UsageRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionID    uint      `gorm:"index" json:"sessionId"`
	StepCode     string    `gorm:"size:10" json:"stepCode"`
	Kind         string    `gorm:"size:20;not null" json:"kind"`
	Provider     string    `gorm:"size:40" json:"provider"`
	Model        string    `gorm:"size:120" json:"model"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	CostUSD      float64   `json:"costUsd"`
	CreatedAt    time.Time `json:"createdAt"`
}
