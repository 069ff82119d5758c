package models

// Template is a user-supplied prompt override. Name matches an embedded
// prompt asset path ("system/master.txt", "steps/full/step_3_1.txt", ...);
// when present the stored content replaces the embedded text at render time.
type Template struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:255;not null;unique" json:"name"`
	Content string `gorm:"type:text;not null;" json:"content"`
}
