package models

import "time"

const (
	MethodPrinciple = "principle"
	MethodStandard  = "standard"
	MethodEffect    = "effect"
	MethodAnalog    = "analog"
	MethodCombined  = "combined"
)

// Solution is a candidate resolution produced by a Part 4 step. Rows are
// append-only: every qualifying step adds one. Scores default to mid-scale
// until someone judges the solution.
type Solution struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	SessionID        uint   `gorm:"index;not null" json:"sessionId"`
	Title            string `gorm:"size:512" json:"title"`
	Description      string `gorm:"type:text" json:"description"`
	Method           string `gorm:"size:20;not null;default:combined" json:"method"`
	SourceStep       string `gorm:"size:10" json:"sourceStep"`
	NoveltyScore     int    `gorm:"not null;default:5" json:"noveltyScore"`
	FeasibilityScore int    `gorm:"not null;default:5" json:"feasibilityScore"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
