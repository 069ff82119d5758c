package models

import (
	"encoding/json"
	"time"
)

const (
	ModeExpress   = "express"
	ModeFull      = "full"
	ModeAutopilot = "autopilot"
)

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

// Session is one run of the methodology against one Problem. CurrentStep is
// always a valid step code for the session's mode; ContextSnapshot
// accumulates truncated step outputs as a JSON object so later prompts can
// reference earlier answers.
type Session struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	ProblemID       uint   `gorm:"index;not null" json:"problemId"`
	Mode            string `gorm:"size:20;not null;default:express" json:"mode"`
	Status          string `gorm:"size:20;not null;default:active" json:"status"`
	CurrentStep     string `gorm:"size:10;not null;default:1" json:"currentStep"`
	CurrentPart     int    `gorm:"not null;default:1" json:"currentPart"`
	ContextSnapshot string `gorm:"type:text" json:"-"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// Snapshot decodes ContextSnapshot, returning an empty map when the column
// is empty or holds malformed JSON.
func (s *Session) Snapshot() map[string]any {
	out := map[string]any{}
	if s.ContextSnapshot == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s.ContextSnapshot), &out); err != nil {
		return map[string]any{}
	}
	return out
}

// SetSnapshot encodes m back into ContextSnapshot.
func (s *Session) SetSnapshot(m map[string]any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.ContextSnapshot = string(data)
	return nil
}
