package models

import "time"

// IdealResult stores an ideal-final-result statement (ИКР-1 or ИКР-2).
// Records are matched by their formulation label prefix, not a unique
// index: refining steps update the record whose formulation starts with
// the same label.
type IdealResult struct {
	ID                      uint   `gorm:"primaryKey" json:"id"`
	SessionID               uint   `gorm:"index;not null" json:"sessionId"`
	Formulation             string `gorm:"type:text;not null" json:"formulation"`
	StrengthenedFormulation string `gorm:"type:text" json:"strengthenedFormulation"`
	VPRUsed                 string `gorm:"type:text" json:"vprUsed"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}
