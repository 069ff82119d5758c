package models

// StepView is the API shape of a single step in a mode sequence.
type StepView struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Hint        string `json:"hint,omitempty"`
	Part        int    `json:"part,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Progress reports how far a session has advanced through its mode. Steps
// is the full checklist in registry order, each entry carrying its
// completion status.
type Progress struct {
	SessionID      uint       `json:"sessionId"`
	Mode           string     `json:"mode"`
	Status         string     `json:"status"`
	CurrentStep    StepView   `json:"currentStep"`
	CurrentIndex   int        `json:"currentIndex"`
	CompletedSteps int        `json:"completedSteps"`
	TotalSteps     int        `json:"totalSteps"`
	Percent        int        `json:"percent"`
	Steps          []StepView `json:"steps"`
}

// Summary aggregates the artifacts a finished (or abandoned) session
// produced. FinalSolution is the display text of the last solution-bearing
// step, empty when the session never reached one.
type Summary struct {
	Problem        Problem         `json:"problem"`
	Session        Session         `json:"session"`
	Steps          []StepResult    `json:"steps"`
	Contradictions []Contradiction `json:"contradictions"`
	IdealResults   []IdealResult   `json:"idealResults"`
	Solutions      []Solution      `json:"solutions"`
	FinalSolution  string          `json:"finalSolution,omitempty"`
}
