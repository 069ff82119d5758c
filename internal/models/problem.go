package models

import "time"

const (
	ProblemStatusOpen       = "open"
	ProblemStatusInProgress = "in_progress"
	ProblemStatusCompleted  = "completed"
)

// Problem is the user-stated task a session works on. Sessions reference it
// and mark it completed when the methodology run finishes.
type Problem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Domain      string `gorm:"size:120" json:"domain,omitempty"`
	Status      string `gorm:"size:32;not null;default:open" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
