package models

import "time"

// AnalogCase is a solved task from TRIZ practice used for analogy search.
// Embedding holds a little-endian float32 vector for the sharpened
// contradiction formulation; empty means "not embedded yet" and the record
// only participates in keyword search.
type AnalogCase struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:500;not null;uniqueIndex" json:"title"`
	ProblemText   string    `gorm:"type:text" json:"problemText"`
	OPFormulation string    `gorm:"type:text" json:"opFormulation"`
	SolutionText  string    `gorm:"type:text" json:"solutionText"`
	Domain        string    `gorm:"size:100" json:"domain"`
	Source        string    `gorm:"size:255" json:"source"`
	Embedding     []byte    `gorm:"type:blob" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Principle is an inventive principle for resolving technical
// contradictions: 40 classical plus additional ones. PairedWith holds the
// number of the paired anti-principle, 0 when unpaired.
type Principle struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Number       int    `gorm:"not null;uniqueIndex" json:"number"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Description  string `gorm:"type:text" json:"description"`
	Examples     string `gorm:"type:text" json:"examples"`
	IsAdditional bool   `gorm:"default:false" json:"isAdditional"`
	PairedWith   int    `gorm:"default:0" json:"pairedWith"`
}

const (
	EffectPhysical    = "physical"
	EffectChemical    = "chemical"
	EffectBiological  = "biological"
	EffectGeometrical = "geometrical"
)

// Effect is a technological effect suggested when a step looks for ways to
// deliver a function. FunctionKeywords is a comma-separated list used for
// keyword search when no embedding is available.
type Effect struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Category         string    `gorm:"size:20;not null;default:physical;uniqueIndex:idx_effect_category_name" json:"category"`
	Name             string    `gorm:"size:255;not null;uniqueIndex:idx_effect_category_name" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	FunctionKeywords string    `gorm:"type:text" json:"functionKeywords"`
	Embedding        []byte    `gorm:"type:blob" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Standard is one of the 76 standards for solving inventive problems,
// organized in 5 classes.
type Standard struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ClassNumber   int    `gorm:"not null" json:"classNumber"`
	Number        string `gorm:"size:20;not null;uniqueIndex" json:"number"`
	Name          string `gorm:"size:255;not null" json:"name"`
	Description   string `gorm:"type:text" json:"description"`
	Applicability string `gorm:"type:text" json:"applicability"`
}

// Definition is a TRIZ glossary term.
type Definition struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Number     int    `gorm:"not null;uniqueIndex" json:"number"`
	Term       string `gorm:"size:255;not null" json:"term"`
	Definition string `gorm:"type:text" json:"definition"`
}

// Rule is one of the 28 ARIZ rules referenced by steps.
type Rule struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Number      int    `gorm:"not null;uniqueIndex" json:"number"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Examples    string `gorm:"type:text" json:"examples"`
}

// Transformation maps a contradiction type to a known resolution pattern
// (separation in space, in time, in structure, system transition).
type Transformation struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	ContradictionType string `gorm:"size:255;not null;uniqueIndex:idx_transformation_type_name" json:"contradictionType"`
	Name              string `gorm:"size:255;not null;uniqueIndex:idx_transformation_type_name" json:"name"`
	Description       string `gorm:"type:text" json:"description"`
}
