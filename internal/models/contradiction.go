package models

import "time"

const (
	ContradictionSurface   = "surface"
	ContradictionDeepened  = "deepened"
	ContradictionSharpened = "sharpened"
)

// Contradiction is a refined opposing-requirements statement extracted from
// step output. One row per (session, type): later steps of the same type
// overwrite the earlier extraction instead of accumulating.
type Contradiction struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	SessionID     uint   `gorm:"index:idx_contradiction_session_type,unique;not null" json:"sessionId"`
	Type          string `gorm:"size:20;index:idx_contradiction_session_type,unique;not null" json:"type"`
	QualityA      string `gorm:"size:255" json:"qualityA"`
	QualityB      string `gorm:"size:255" json:"qualityB"`
	PropertyS     string `gorm:"size:255" json:"propertyS"`
	AntiPropertyS string `gorm:"size:255" json:"antiPropertyS"`
	Formulation   string `gorm:"type:text" json:"formulation"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
