package engine

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"arizor/internal/knowledge"
	"arizor/internal/models"
	"arizor/internal/repositories"
	"arizor/internal/steps"
	"arizor/internal/validators"
)

const (
	snapshotValueLimit       = 3000
	contradictionFieldLimit  = 255
	contradictionTextLimit   = 2000
	ikrTextLimit             = 1500
	solutionTitleLimit       = 255
	solutionDescriptionLimit = 5000
)

// Enrichment carries knowledge-fund lookups for a Part 4 step prompt.
type Enrichment struct {
	AnalogCases []models.AnalogCase
	Principles  []models.Principle
	Effects     []models.Effect
}

func (e Enrichment) Empty() bool {
	return len(e.AnalogCases) == 0 && len(e.Principles) == 0 && len(e.Effects) == 0
}

// Format renders the enrichment as markdown blocks for prompt injection.
func (e Enrichment) Format() string {
	var blocks []string
	if block := knowledge.FormatAnalogCases(e.AnalogCases); block != "" {
		blocks = append(blocks, block)
	}
	if block := knowledge.FormatPrinciples(e.Principles); block != "" {
		blocks = append(blocks, block)
	}
	if block := knowledge.FormatEffects(e.Effects); block != "" {
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

// ExtractedEntities lists what entity extraction persisted for one step.
type ExtractedEntities struct {
	Contradiction *models.Contradiction
	IdealResult   *models.IdealResult
	Solution      *models.Solution
}

// StepOutcome bundles what processing produced for a completed full-mode
// step: heuristic validator verdicts, their joined notes, and extracted
// entities.
type StepOutcome struct {
	StepCode        string
	StepName        string
	Part            int
	ValidatedText   string
	Verdicts        []validators.Result
	ValidationNotes string
	AllValid        bool
	Entities        ExtractedEntities
}

// FullProcessor implements the full-mode specifics on top of the plain
// step sequence: prompt-context assembly with knowledge enrichment,
// context-snapshot accumulation and entity extraction.
type FullProcessor struct {
	sessions       repositories.SessionRepository
	contradictions repositories.ContradictionRepository
	ikrs           repositories.IKRRepository
	solutions      repositories.SolutionRepository
	searcher       *knowledge.Searcher
}

func NewFullProcessor(
	sessions repositories.SessionRepository,
	contradictions repositories.ContradictionRepository,
	ikrs repositories.IKRRepository,
	solutions repositories.SolutionRepository,
	searcher *knowledge.Searcher,
) *FullProcessor {
	return &FullProcessor{
		sessions:       sessions,
		contradictions: contradictions,
		ikrs:           ikrs,
		solutions:      solutions,
		searcher:       searcher,
	}
}

// BuildPromptContext returns the full-mode additions to a step's prompt
// context: part info, step metadata, applicable rules, position counters
// and the formatted knowledge enrichment for Part 4 steps.
func (p *FullProcessor) BuildPromptContext(ctx context.Context, session *models.Session, stepCode string) map[string]string {
	out := map[string]string{}

	part := PartForCode(stepCode)
	out["part_number"] = strconv.Itoa(part)
	out["part_name"] = PartName(part)
	out["part_description"] = PartDescription(part)

	if def, ok := steps.Lookup(models.ModeFull, stepCode); ok {
		out["step_code"] = def.Code
		out["step_name"] = def.Name
		out["step_description"] = def.Description
		out["total_steps"] = strconv.Itoa(len(steps.Full))
	}

	if rules := StepRules(stepCode); len(rules) > 0 {
		out["applicable_rules"] = joinRules(rules)
	}

	pos, totalInPart := positionInPart(stepCode)
	out["step_in_part"] = strconv.Itoa(pos)
	out["total_steps_in_part"] = strconv.Itoa(totalInPart)
	if global := steps.Position(models.ModeFull, stepCode); global > 0 {
		out["global_step_index"] = strconv.Itoa(global)
	}

	if enrichment := p.KnowledgeContext(ctx, session, stepCode); !enrichment.Empty() {
		out["knowledge_base"] = enrichment.Format()
	}
	return out
}

// KnowledgeContext queries the knowledge fund for material relevant to a
// Part 4 step. The three lookups are independent: a failure in one is
// logged and does not abort the others. Steps outside the enrichment set
// return an empty Enrichment.
func (p *FullProcessor) KnowledgeContext(ctx context.Context, session *models.Session, stepCode string) Enrichment {
	var enrichment Enrichment
	if !RequiresKnowledge(stepCode) || p.searcher == nil {
		return enrichment
	}

	snap := snapshotStrings(session.Snapshot())

	// Analog cases rank against the sharpened / physical contradiction.
	searchText := firstNonEmpty(
		snap["op_formulation"],
		snap["fp_formulation"],
		snap["fp_macro"],
		snap["fp_micro"],
		snap["amplified_conflict"],
	)
	switch stepCode {
	case "4.1", "4.3", "4.7", "4.8":
		if searchText != "" {
			cases, err := p.searcher.SearchAnalogCases(ctx, searchText, 5)
			if err != nil {
				log.Printf("Analog case lookup failed for step %s: %v", stepCode, err)
			} else {
				enrichment.AnalogCases = cases
			}
		}
	}

	switch stepCode {
	case "4.3", "4.5", "4.7":
		contradictionType := snap["contradiction_type"]
		if contradictionType == "" {
			contradictionType = models.ContradictionSharpened
		}
		formulation := firstNonEmpty(snap["contradiction_formulation"], searchText)
		principles, err := p.searcher.SuggestPrinciples(ctx, contradictionType, formulation)
		if err != nil {
			log.Printf("Principle lookup failed for step %s: %v", stepCode, err)
		} else {
			enrichment.Principles = principles
		}
	}

	switch stepCode {
	case "4.4", "4.5":
		functionText := firstNonEmpty(snap["function_description"], snap["main_function"], snap["mini_task"])
		if functionText != "" {
			effects, err := p.searcher.FindEffects(ctx, functionText, 5)
			if err != nil {
				log.Printf("Effect lookup failed for step %s: %v", stepCode, err)
			} else {
				enrichment.Effects = effects
			}
		}
	}

	return enrichment
}

// ProcessStepResult handles a completed full-mode step: runs the step's
// heuristic validators, stores the truncated output under the step's
// context key, and extracts Contradiction / IdealResult / Solution
// entities. Entity persistence errors abort with whatever was already
// written; the returned outcome still carries the partial extraction.
func (p *FullProcessor) ProcessStepResult(ctx context.Context, session *models.Session, stepCode, llmOutput string) (*StepOutcome, error) {
	def, ok := steps.Lookup(models.ModeFull, stepCode)
	if !ok {
		return nil, fmt.Errorf("%w: no step %q in mode full", ErrUnknownStep, stepCode)
	}

	outcome := &StepOutcome{
		StepCode:      stepCode,
		StepName:      def.Name,
		Part:          PartForCode(stepCode),
		ValidatedText: llmOutput,
		AllValid:      true,
	}

	if len(def.Validators) > 0 {
		outcome.Verdicts = validators.ValidateStepOutput(def.Validators, llmOutput, validators.Context{
			Audience: "b2b",
			Mode:     models.ModeFull,
		})
		outcome.ValidationNotes = VerdictNotes(outcome.Verdicts)
		for _, verdict := range outcome.Verdicts {
			if !verdict.Valid {
				outcome.AllValid = false
			}
		}
	}

	if key := ContextKey(stepCode); key != "" {
		snap := session.Snapshot()
		snap[key] = truncateRunes(llmOutput, snapshotValueLimit)
		if err := session.SetSnapshot(snap); err != nil {
			return outcome, fmt.Errorf("encoding snapshot for session %d: %w", session.ID, err)
		}
		if err := p.sessions.UpdateSnapshot(ctx, session.ID, session.ContextSnapshot); err != nil {
			return outcome, err
		}
	}

	if err := p.extractEntities(ctx, session, stepCode, llmOutput, &outcome.Entities); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// VerdictNotes joins validator verdicts into the persisted notes line:
// "[name] OK" for passes, "[name] FAIL: issue; issue" for failures.
func VerdictNotes(verdicts []validators.Result) string {
	if len(verdicts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(verdicts))
	for _, verdict := range verdicts {
		if verdict.Valid {
			parts = append(parts, fmt.Sprintf("[%s] OK", verdict.Validator))
		} else {
			parts = append(parts, fmt.Sprintf("[%s] FAIL: %s", verdict.Validator, strings.Join(verdict.Issues, "; ")))
		}
	}
	return strings.Join(parts, " | ")
}

func (p *FullProcessor) extractEntities(ctx context.Context, session *models.Session, stepCode, output string, entities *ExtractedEntities) error {
	contradiction, err := p.extractContradiction(ctx, session, stepCode, output)
	if err != nil {
		return err
	}
	entities.Contradiction = contradiction

	ikr, err := p.extractIKR(ctx, session, stepCode, output)
	if err != nil {
		return err
	}
	entities.IdealResult = ikr

	solution, err := p.extractSolution(ctx, session, stepCode, output)
	if err != nil {
		return err
	}
	entities.Solution = solution
	return nil
}

// extractContradiction scrapes property / anti-property / ТП labels from
// the output lines and upserts the session's contradiction of the step's
// type. Labels are matched case-insensitively in Russian and English.
func (p *FullProcessor) extractContradiction(ctx context.Context, session *models.Session, stepCode, output string) (*models.Contradiction, error) {
	contradictionType, ok := contradictionSteps[stepCode]
	if !ok {
		return nil, nil
	}

	var propertyS, antiPropertyS, qualityA, qualityB string
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		value := ""
		if _, tail, found := strings.Cut(line, ":"); found {
			value = strings.TrimSpace(tail)
		}

		switch {
		case containsAnyMarker(lower, "свойство s:", "property s:"):
			propertyS = truncateRunes(value, contradictionFieldLimit)
		case containsAnyMarker(lower, "анти-свойство:", "анти-s:", "anti-s:", "anti-property:"):
			antiPropertyS = truncateRunes(value, contradictionFieldLimit)
		case containsAnyMarker(lower, "тп-1:", "tp-1:"):
			qualityA = truncateRunes(value, contradictionFieldLimit)
		case containsAnyMarker(lower, "тп-2:", "tp-2:"):
			qualityB = truncateRunes(value, contradictionFieldLimit)
		}
	}

	contradiction := &models.Contradiction{
		SessionID:     session.ID,
		Type:          contradictionType,
		Formulation:   truncateRunes(output, contradictionTextLimit),
		PropertyS:     propertyS,
		AntiPropertyS: antiPropertyS,
		QualityA:      qualityA,
		QualityB:      qualityB,
	}
	if err := p.contradictions.Upsert(ctx, contradiction); err != nil {
		return nil, err
	}
	log.Printf("Contradiction %s stored for session %d (step %s)", contradictionType, session.ID, stepCode)
	return contradiction, nil
}

// extractIKR persists the ideal-result records: 3.1 and 3.2 both address
// ИКР-1 (3.2 additionally records the strengthened formulation), 3.5
// addresses ИКР-2. Records are keyed by their formulation label prefix.
func (p *FullProcessor) extractIKR(ctx context.Context, session *models.Session, stepCode, output string) (*models.IdealResult, error) {
	if !ikrSteps[stepCode] {
		return nil, nil
	}

	vpr := snapshotStrings(session.Snapshot())["vpr_list"]
	text := truncateRunes(output, ikrTextLimit)

	label := "ИКР-1"
	apply := func(record *models.IdealResult) {
		record.Formulation = label + ": " + text
		record.VPRUsed = vpr
		if stepCode == "3.2" {
			record.StrengthenedFormulation = text
		}
	}
	if stepCode == "3.5" {
		label = "ИКР-2"
		apply = func(record *models.IdealResult) {
			record.Formulation = label + ": " + text
			record.StrengthenedFormulation = ""
			record.VPRUsed = vpr
		}
	}

	record, created, err := p.ikrs.UpsertByLabel(ctx, session.ID, label, apply)
	if err != nil {
		return nil, err
	}
	log.Printf("%s stored for session %d (step %s, created=%t)", label, session.ID, stepCode, created)
	return record, nil
}

// extractSolution appends a Solution for the step's resolution method.
// The title is the first substantive line of the output; scores default
// to mid-scale until judged.
func (p *FullProcessor) extractSolution(ctx context.Context, session *models.Session, stepCode, output string) (*models.Solution, error) {
	method, ok := solutionSteps[stepCode]
	if !ok {
		return nil, nil
	}

	title := "Решение (шаг " + stepCode + ")"
	if def, found := steps.Lookup(models.ModeFull, stepCode); found {
		title = fmt.Sprintf("Решение (шаг %s: %s)", stepCode, def.Name)
	}
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if utf8.RuneCountInString(trimmed) <= 10 {
			continue
		}
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "---") || strings.HasPrefix(trimmed, "**") {
			continue
		}
		title = truncateRunes(trimmed, solutionTitleLimit)
		break
	}

	solution := &models.Solution{
		SessionID:        session.ID,
		Title:            title,
		Description:      truncateRunes(output, solutionDescriptionLimit),
		Method:           method,
		SourceStep:       stepCode,
		NoveltyScore:     5,
		FeasibilityScore: 5,
	}
	if err := p.solutions.Create(ctx, solution); err != nil {
		return nil, err
	}
	log.Printf("Solution (%s) stored for session %d (step %s)", method, session.ID, stepCode)
	return solution, nil
}

func snapshotStrings(snapshot map[string]any) map[string]string {
	out := make(map[string]string, len(snapshot))
	for key, value := range snapshot {
		if s, ok := value.(string); ok {
			out[key] = s
		}
	}
	return out
}

func containsAnyMarker(lower string, markers ...string) bool {
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func joinRules(rules []int) string {
	parts := make([]string, len(rules))
	for i, rule := range rules {
		parts[i] = strconv.Itoa(rule)
	}
	return strings.Join(parts, ", ")
}
