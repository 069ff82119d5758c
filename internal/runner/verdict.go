package runner

import (
	"encoding/json"
	"log"
	"strings"
)

// Verdict is the parsed judgement of the validation model over one step
// output.
type Verdict struct {
	Valid           bool
	Issues          []string
	Suggestions     []string
	CorrectedOutput string
}

// ParseVerdict decodes the validation model's JSON reply. Models wrap
// JSON in code fences often enough that fences are stripped first, and a
// reply that still does not decode is treated as a pass rather than
// failing the step.
func ParseVerdict(content string) Verdict {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) >= 2 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[1 : len(lines)-1]
		} else {
			lines = lines[1:]
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	var raw struct {
		Valid           *bool    `json:"valid"`
		Issues          []string `json:"issues"`
		Suggestions     []string `json:"suggestions"`
		CorrectedOutput string   `json:"corrected_output"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		log.Printf("Could not parse validation response as JSON: %.200s", text)
		return Verdict{Valid: true}
	}
	return Verdict{
		Valid:           raw.Valid == nil || *raw.Valid,
		Issues:          raw.Issues,
		Suggestions:     raw.Suggestions,
		CorrectedOutput: raw.CorrectedOutput,
	}
}

// Resolve picks the text to persist as the validated result: the model's
// correction when the output was rejected, the original otherwise.
func (v Verdict) Resolve(original string) string {
	if !v.Valid && v.CorrectedOutput != "" {
		return v.CorrectedOutput
	}
	return original
}

// Notes renders the verdict into the persisted validation notes.
func (v Verdict) Notes() string {
	if v.Valid {
		if len(v.Suggestions) > 0 {
			return "Suggestions: " + strings.Join(v.Suggestions, "; ")
		}
		return ""
	}
	if len(v.Issues) > 0 {
		return "Issues: " + strings.Join(v.Issues, "; ")
	}
	return "Validation failed"
}
