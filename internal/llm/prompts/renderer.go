// Package prompts assembles the system, step and validation prompts sent to
// the language model. Templates are embedded in the binary; a database
// override source can shadow any of them by name. Rendering never fails:
// missing templates fall back to built-in defaults.
package prompts

import (
	"fmt"
	"io/fs"
	"log"
	"regexp"
	"strings"
)

// modeAudienceMap picks the audience adapter for each session mode.
var modeAudienceMap = map[string]string{
	"express":   "b2c",
	"full":      "b2b",
	"autopilot": "b2c",
}

// modeStepDirMap picks the template directory for each session mode.
var modeStepDirMap = map[string]string{
	"express":   "steps/express",
	"full":      "steps/full",
	"autopilot": "steps/autopilot",
}

// ModeAudience resolves the audience for a mode, defaulting to b2c.
func ModeAudience(mode string) string {
	if audience, ok := modeAudienceMap[mode]; ok {
		return audience
	}
	return "b2c"
}

// OverrideSource lets stored templates shadow the embedded ones. Lookup
// returns the template body and true when an override exists.
type OverrideSource interface {
	Lookup(name string) (string, bool)
}

// Renderer renders prompt templates with {placeholder} substitution.
// The zero value uses only the embedded templates.
type Renderer struct {
	Overrides OverrideSource
}

var placeholderPattern = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// RenderSystemPrompt assembles master + role + methodology + audience
// adapter, joined by blank lines. An empty audience is resolved from the
// mode. When every part is missing a built-in fallback is returned.
func (r *Renderer) RenderSystemPrompt(mode, audience string) string {
	if audience == "" {
		audience = ModeAudience(mode)
	}
	ctx := map[string]string{"mode": mode, "audience": audience}

	var parts []string
	for _, name := range []string{
		"system/master.txt",
		"system/role.txt",
		"system/methodology.txt",
		"adapters/" + audience + ".txt",
	} {
		if rendered := r.renderOptional(name, ctx); rendered != "" {
			parts = append(parts, rendered)
		}
	}

	result := strings.Join(parts, "\n\n")
	if result == "" {
		log.Printf("System prompt is empty for mode=%s audience=%s, using fallback", mode, audience)
		result = defaultSystemPrompt(mode, audience)
	}
	return result
}

// RenderStepPrompt renders the template for one step. Autopilot always uses
// the aggregated full-analysis template. A missing template produces a
// generic prompt built from the context.
func (r *Renderer) RenderStepPrompt(stepCode string, context map[string]string, mode string) string {
	stepDir, ok := modeStepDirMap[mode]
	if !ok {
		stepDir = "steps/express"
	}

	var name string
	if mode == "autopilot" {
		name = stepDir + "/full_analysis.txt"
	} else {
		name = stepDir + "/step_" + strings.ReplaceAll(stepCode, ".", "_") + ".txt"
	}

	if rendered := r.renderOptional(name, context); rendered != "" {
		return rendered
	}
	log.Printf("Step template %s not found, using default prompt for step %s", name, stepCode)
	return defaultStepPrompt(stepCode, context)
}

// RenderValidationPrompt renders one block per validator rule, separated by
// horizontal rules. An empty rule list yields an empty string.
func (r *Renderer) RenderValidationPrompt(ruleCodes []string, content string, context map[string]string) string {
	ctx := make(map[string]string, len(context)+1)
	for k, v := range context {
		ctx[k] = v
	}
	ctx["content"] = content

	var parts []string
	for _, code := range ruleCodes {
		name := "validation/validate_" + strings.TrimSuffix(code, "_check") + ".txt"
		if rendered := r.renderOptional(name, ctx); rendered != "" {
			parts = append(parts, rendered)
		} else {
			parts = append(parts, defaultValidationPrompt(code, content))
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// TemplateExists reports whether a template is available, either embedded
// or via the override source.
func (r *Renderer) TemplateExists(name string) bool {
	if r.Overrides != nil {
		if _, ok := r.Overrides.Lookup(name); ok {
			return true
		}
	}
	_, err := embeddedPrompts.ReadFile(name)
	return err == nil
}

// ListTemplates returns embedded template names matching an optional prefix.
func (r *Renderer) ListTemplates(prefix string) []string {
	var names []string
	_ = fs.WalkDir(embeddedPrompts, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if prefix == "" || strings.HasPrefix(path, prefix) {
			names = append(names, path)
		}
		return nil
	})
	return names
}

// renderOptional loads and substitutes a template, returning "" when it
// does not exist.
func (r *Renderer) renderOptional(name string, context map[string]string) string {
	var raw string
	if r.Overrides != nil {
		if body, ok := r.Overrides.Lookup(name); ok {
			raw = body
		}
	}
	if raw == "" {
		data, err := embeddedPrompts.ReadFile(name)
		if err != nil {
			return ""
		}
		raw = string(data)
	}
	return strings.TrimSpace(substitute(raw, context))
}

// substitute expands {key} placeholders from the context in a single pass.
// Unknown placeholders render as empty, matching how absent template
// variables behaved before. Substituted values are never re-expanded.
func substitute(raw string, context map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(raw, func(match string) string {
		key := match[1 : len(match)-1]
		return context[key]
	})
}

func defaultSystemPrompt(mode, audience string) string {
	audienceDesc := "Use professional TRIZ terminology."
	if audience == "b2c" {
		audienceDesc = "Use simple everyday language without TRIZ jargon."
	}
	return fmt.Sprintf(
		"You are an expert TRIZ (Theory of Inventive Problem Solving) consultant "+
			"with 30 years of experience. You are guiding a user through the ARIZ-2010 "+
			"methodology in '%s' mode.\n\n%s\n\nRespond in Russian. Be structured and clear. "+
			"Use numbered lists and markdown formatting.",
		mode, audienceDesc)
}

func defaultStepPrompt(stepCode string, context map[string]string) string {
	parts := []string{fmt.Sprintf("## ARIZ Step %s\n", stepCode)}

	if v := context["problem_title"]; v != "" {
		parts = append(parts, "**Problem:** "+v)
	}
	if v := context["problem_description"]; v != "" {
		parts = append(parts, "**Description:** "+v)
	}
	if v := context["previous_results"]; v != "" {
		parts = append(parts, "**Previous analysis:**\n"+v)
	}
	if v := context["user_input"]; v != "" {
		parts = append(parts, "**User input:**\n"+v)
	}

	parts = append(parts,
		"\nAnalyze the information above and provide a structured response "+
			"for this ARIZ step. Be thorough and specific.")
	return strings.Join(parts, "\n\n")
}

func defaultValidationPrompt(code, content string) string {
	return fmt.Sprintf(
		"## Validation: %s\n\n"+
			"Review the following ARIZ analysis output and check it for correctness.\n\n"+
			"**Content to validate:**\n%s\n\n"+
			"Respond with a JSON object:\n"+
			`{"valid": true/false, "issues": ["list of issues if any"], "suggestions": ["list of suggestions"]}`,
		code, content)
}
