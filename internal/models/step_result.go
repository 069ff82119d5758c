package models

import "time"

const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
)

// StepResult holds the outcome of one step within a session. There is at
// most one row per (session, step code); resubmitting a step updates the
// existing row.
type StepResult struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	SessionID       uint   `gorm:"index:idx_step_result_session_code,unique;not null" json:"sessionId"`
	StepCode        string `gorm:"size:10;index:idx_step_result_session_code,unique;not null" json:"stepCode"`
	StepName        string `gorm:"size:255" json:"stepName"`
	Status          string `gorm:"size:20;not null;default:pending" json:"status"`
	UserInput       string `gorm:"type:text" json:"userInput"`
	LLMOutput       string `gorm:"type:text" json:"llmOutput"`
	ValidatedResult string `gorm:"type:text" json:"validatedResult"`
	ValidationNotes string `gorm:"type:text" json:"validationNotes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DisplayText prefers the validated output over the raw LLM output.
func (r *StepResult) DisplayText() string {
	if r.ValidatedResult != "" {
		return r.ValidatedResult
	}
	return r.LLMOutput
}
