// Package runner executes dispatched step runs in the background: it
// renders the prompts, calls the configured chat model, validates the
// output with a second cheaper model, persists the StepResult and keeps
// the session's context snapshot current. One run per session at a time.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"arizor/internal/engine"
	"arizor/internal/events"
	"arizor/internal/llm/client"
	"arizor/internal/llm/prompts"
	"arizor/internal/models"
	"arizor/internal/repositories"
)

// ErrRunInFlight rejects a dispatch while the session's previous run is
// still executing. The API layer maps it to a state-conflict response.
var ErrRunInFlight = errors.New("ERR_RUN_IN_FLIGHT")

const (
	defaultMaxAttempts = 3
	retryBaseDelay     = 2 * time.Second
	retryMaxDelay      = 30 * time.Second
)

// validationSystemPrompt frames the second-model check. The verdict JSON
// it requests is what ParseVerdict expects.
const validationSystemPrompt = "You are a TRIZ validation expert. Check the provided ARIZ step output " +
	"for correctness according to the specified rules. " +
	"Respond with a JSON object: " +
	`{"valid": true/false, "issues": [...], "suggestions": [...], ` +
	`"corrected_output": "..." (only if valid is false)}. ` +
	"Respond in Russian."

// sleep is swapped out in tests to keep retry paths instant.
var sleep = time.Sleep

// ChatClient is the send surface the runner needs from a configured
// model client. *client.LLMClient satisfies it.
type ChatClient interface {
	SendMessage(ctx context.Context, systemPrompt, userPrompt string, opts client.MessageOptions) (*client.Response, error)
	SendValidation(ctx context.Context, systemPrompt, userPrompt string) (*client.Response, error)
}

// ClientSource resolves the configured chat clients per role at call
// time, so model switches apply to the next run without restarts.
type ClientSource interface {
	MainClient(ctx context.Context) (ChatClient, error)
	ValidationClient(ctx context.Context) (ChatClient, error)
}

// Runner is the async execution pipeline behind engine.Dispatcher.
type Runner struct {
	sessions repositories.SessionRepository
	problems repositories.ProblemRepository
	results  repositories.StepResultRepository
	usage    repositories.UsageRepository
	clients  ClientSource
	renderer *prompts.Renderer
	full     *engine.FullProcessor

	maxAttempts int
	slots       chan struct{}

	mu       sync.Mutex
	inFlight map[uint]string
}

func NewRunner(
	sessions repositories.SessionRepository,
	problems repositories.ProblemRepository,
	results repositories.StepResultRepository,
	usage repositories.UsageRepository,
	clients ClientSource,
	renderer *prompts.Renderer,
	full *engine.FullProcessor,
) *Runner {
	return &Runner{
		sessions:    sessions,
		problems:    problems,
		results:     results,
		usage:       usage,
		clients:     clients,
		renderer:    renderer,
		full:        full,
		maxAttempts: defaultMaxAttempts,
		inFlight:    map[uint]string{},
	}
}

// SetLimits tunes the retry count and the number of runs executing at
// once. retries is the number of re-attempts after the first try;
// workers caps concurrent runs across sessions. Non-positive values
// keep the defaults.
func (r *Runner) SetLimits(retries, workers int) {
	if retries > 0 {
		r.maxAttempts = retries + 1
	}
	if workers > 0 {
		r.slots = make(chan struct{}, workers)
	}
}

// Dispatch registers a run for the session and executes it in the
// background. Returns the run id immediately; progress is published via
// events. A session with a run still in flight is rejected.
func (r *Runner) Dispatch(ctx context.Context, req engine.RunRequest) (string, error) {
	r.mu.Lock()
	if existing, busy := r.inFlight[req.SessionID]; busy {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: session %d is already executing run %s", ErrRunInFlight, req.SessionID, existing)
	}
	runID := uuid.NewString()
	r.inFlight[req.SessionID] = runID
	r.mu.Unlock()

	go r.run(runID, req)
	return runID, nil
}

// Running reports the in-flight run id for a session, if any.
func (r *Runner) Running(sessionID uint) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runID, ok := r.inFlight[sessionID]
	return runID, ok
}

func (r *Runner) release(sessionID uint) {
	r.mu.Lock()
	delete(r.inFlight, sessionID)
	r.mu.Unlock()
}

// run drives one dispatched request to completion. The run outlives the
// originating HTTP request, so it carries a fresh context annotated with
// the session key. Failed attempts are retried with backoff and jitter;
// each failure is persisted, so observers see the step flip back to
// in_progress when a retry starts.
func (r *Runner) run(runID string, req engine.RunRequest) {
	defer r.release(req.SessionID)
	if r.slots != nil {
		r.slots <- struct{}{}
		defer func() { <-r.slots }()
	}
	ctx := events.WithSession(context.Background(), strconv.FormatUint(uint64(req.SessionID), 10))

	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if req.Mode == models.ModeAutopilot {
			err = r.runAutopilot(ctx, req)
		} else {
			err = r.runStep(ctx, req)
		}
		if err == nil {
			return
		}
		if attempt == r.maxAttempts {
			break
		}
		delay := retryBackoff(attempt)
		log.Printf("Run %s attempt %d/%d failed (%v), retrying in %s", runID, attempt, r.maxAttempts, err, delay)
		sleep(delay)
	}
	log.Printf("Run %s failed for session %d step %s: %v", runID, req.SessionID, req.StepCode, err)
}

// runStep executes one interactive step: mark in_progress, run the LLM
// pipeline, and on error persist the failure before returning it.
func (r *Runner) runStep(ctx context.Context, req engine.RunRequest) error {
	result, _, err := r.results.GetOrCreate(ctx, req.SessionID, req.StepCode, models.StepResult{
		StepName:  req.StepName,
		UserInput: req.UserInput,
		Status:    models.StepStatusInProgress,
	})
	if err != nil {
		return err
	}
	result.UserInput = req.UserInput
	result.Status = models.StepStatusInProgress
	if result.StepName == "" {
		result.StepName = req.StepName
	}
	if err := r.results.Update(ctx, result); err != nil {
		return err
	}
	events.Emit(ctx, events.TopicStepStarted,
		events.NewInfo(fmt.Sprintf("Executing step %s: %s", req.StepCode, req.StepName)).ForStep(req.StepCode))

	if err := r.executeStep(ctx, req, result); err != nil {
		result.Status = models.StepStatusFailed
		result.ValidationNotes = fmt.Sprintf("Error: %v", err)
		if saveErr := r.results.Update(ctx, result); saveErr != nil {
			log.Printf("Could not persist failure of step %s: %v", req.StepCode, saveErr)
		}
		events.Emit(ctx, events.TopicStepFailed,
			events.NewError(fmt.Sprintf("Step %s failed: %v", req.StepCode, err)).ForStep(req.StepCode))
		return err
	}
	return nil
}

func (r *Runner) executeStep(ctx context.Context, req engine.RunRequest, result *models.StepResult) error {
	session, err := r.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return err
	}
	problem, err := r.problems.Get(ctx, session.ProblemID)
	if err != nil {
		return err
	}

	promptCtx, err := r.buildContext(ctx, session, problem, req)
	if err != nil {
		return err
	}

	main, err := r.clients.MainClient(ctx)
	if err != nil {
		return err
	}
	systemPrompt := r.renderer.RenderSystemPrompt(req.Mode, "")
	stepPrompt := r.renderer.RenderStepPrompt(req.StepCode, promptCtx, req.Mode)

	resp, err := main.SendMessage(ctx, systemPrompt, stepPrompt, client.MessageOptions{})
	if err != nil {
		return err
	}
	r.recordUsage(ctx, session.ID, req.StepCode, models.UsageKindStep, resp)

	validated, notes := r.validate(ctx, session.ID, req, resp.Content, promptCtx)

	result.LLMOutput = resp.Content
	result.ValidatedResult = validated
	result.ValidationNotes = notes
	result.Status = models.StepStatusCompleted
	if err := r.results.Update(ctx, result); err != nil {
		return err
	}

	if err := r.updateSnapshot(ctx, session, req, result); err != nil {
		log.Printf("Snapshot update failed for session %d: %v", session.ID, err)
	}

	meta := map[string]string{}
	if req.Mode == models.ModeFull {
		r.postProcess(ctx, session, req, result, meta)
	}

	completed := events.NewSuccess(fmt.Sprintf("Step %s completed", req.StepCode)).ForStep(req.StepCode)
	if len(meta) > 0 {
		completed.Metadata = meta
	}
	events.Emit(ctx, events.TopicStepCompleted, completed)

	log.Printf("Step %s completed for session %d: tokens_in=%d tokens_out=%d cost=$%.6f",
		req.StepCode, session.ID, resp.InputTokens, resp.OutputTokens, resp.CostUSD)
	return nil
}

// buildContext assembles the prompt substitution map: the problem, the
// user's input, every completed step as a readable block, the raw context
// snapshot, and the part/rule metadata for full mode.
func (r *Runner) buildContext(ctx context.Context, session *models.Session, problem *models.Problem, req engine.RunRequest) (map[string]string, error) {
	promptCtx := map[string]string{
		"problem_title":       problem.Title,
		"problem_description": problem.Description,
		"domain":              problem.Domain,
		"mode":                req.Mode,
		"current_step":        session.CurrentStep,
		"step_code":           req.StepCode,
		"step_name":           req.StepName,
		"user_input":          req.UserInput,
	}

	completed, err := r.results.ListCompleted(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	blocks := make([]string, 0, len(completed))
	for _, prev := range completed {
		blocks = append(blocks, fmt.Sprintf("### Step %s: %s\n%s", prev.StepCode, prev.StepName, prev.DisplayText()))
	}
	promptCtx["previous_results"] = strings.Join(blocks, "\n\n")

	if snapshot := strings.TrimSpace(session.ContextSnapshot); snapshot != "" && snapshot != "{}" {
		promptCtx["context_snapshot"] = snapshot
	}

	if req.Mode == models.ModeFull && r.full != nil {
		for key, value := range r.full.BuildPromptContext(ctx, session, req.StepCode) {
			promptCtx[key] = value
		}
	}
	return promptCtx, nil
}

// validate runs the step's validator prompts through the validation
// model. Validation never fails the step: any error falls back to the
// raw output with an explanatory note.
func (r *Runner) validate(ctx context.Context, sessionID uint, req engine.RunRequest, content string, promptCtx map[string]string) (validated, notes string) {
	if len(req.Validators) == 0 {
		return content, ""
	}

	validationClient, err := r.clients.ValidationClient(ctx)
	if err != nil {
		log.Printf("Validation client unavailable, proceeding without validation: %v", err)
		return content, fmt.Sprintf("Validation skipped due to error: %v", err)
	}

	prompt := r.renderer.RenderValidationPrompt(req.Validators, content, promptCtx)
	resp, err := validationClient.SendValidation(ctx, validationSystemPrompt, prompt)
	if err != nil {
		log.Printf("Validation failed with error: %v. Proceeding without validation.", err)
		return content, fmt.Sprintf("Validation skipped due to error: %v", err)
	}
	r.recordUsage(ctx, sessionID, req.StepCode, models.UsageKindValidation, resp)

	verdict := ParseVerdict(resp.Content)
	if !verdict.Valid {
		events.Emit(ctx, events.TopicStepValidated,
			events.NewWarn(fmt.Sprintf("Validation flagged step %s", req.StepCode)).ForStep(req.StepCode))
	}
	return verdict.Resolve(content), verdict.Notes()
}

// updateSnapshot records the completed step in the session's context
// snapshot under "steps" and moves the last_completed_step marker.
func (r *Runner) updateSnapshot(ctx context.Context, session *models.Session, req engine.RunRequest, result *models.StepResult) error {
	snapshot := session.Snapshot()
	stepsData, _ := snapshot["steps"].(map[string]any)
	if stepsData == nil {
		stepsData = map[string]any{}
	}
	stepsData[req.StepCode] = map[string]any{
		"user_input":   req.UserInput,
		"result":       result.DisplayText(),
		"completed_at": time.Now().Format(time.RFC3339),
	}
	snapshot["steps"] = stepsData
	snapshot["last_completed_step"] = req.StepCode

	if err := session.SetSnapshot(snapshot); err != nil {
		return err
	}
	return r.sessions.UpdateSnapshot(ctx, session.ID, session.ContextSnapshot)
}

// postProcess applies the full-mode specifics after a completed step:
// heuristic validators, context keys and entity extraction, plus the
// loop-back / early-completion advisories surfaced as event metadata.
// Nothing here fails the step; errors are logged and reported as warn
// events.
func (r *Runner) postProcess(ctx context.Context, session *models.Session, req engine.RunRequest, result *models.StepResult, meta map[string]string) {
	if r.full == nil {
		return
	}
	text := result.DisplayText()

	outcome, err := r.full.ProcessStepResult(ctx, session, req.StepCode, text)
	if err != nil {
		log.Printf("Post-processing incomplete for step %s: %v", req.StepCode, err)
		events.Emit(ctx, events.TopicStepValidated,
			events.NewWarn(fmt.Sprintf("Post-processing incomplete for step %s: %v", req.StepCode, err)).ForStep(req.StepCode))
	}
	if outcome != nil && outcome.ValidationNotes != "" {
		if result.ValidationNotes != "" {
			result.ValidationNotes += " | " + outcome.ValidationNotes
		} else {
			result.ValidationNotes = outcome.ValidationNotes
		}
		if saveErr := r.results.Update(ctx, result); saveErr != nil {
			log.Printf("Could not persist validator notes for step %s: %v", req.StepCode, saveErr)
		}
		if outcome.AllValid {
			events.Emit(ctx, events.TopicStepValidated,
				events.NewInfo(fmt.Sprintf("Heuristic checks passed for step %s", req.StepCode)).ForStep(req.StepCode))
		} else {
			events.Emit(ctx, events.TopicStepValidated,
				events.NewWarn(fmt.Sprintf("Heuristic checks flagged step %s: %s", req.StepCode, outcome.ValidationNotes)).ForStep(req.StepCode))
		}
	}

	if target := engine.ShouldLoopBack(req.StepCode, text); target != "" {
		meta["loop_back"] = target
	}
	if engine.CanCompleteEarly(req.StepCode, text) {
		meta["early_complete"] = "true"
	}
}

// runAutopilot executes the aggregated single-call analysis: one
// comprehensive completion stored under the synthetic "auto" step, the
// snapshot replaced with the result, and the session completed.
func (r *Runner) runAutopilot(ctx context.Context, req engine.RunRequest) error {
	session, err := r.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return err
	}
	problem, err := r.problems.Get(ctx, session.ProblemID)
	if err != nil {
		return err
	}

	result, _, err := r.results.GetOrCreate(ctx, session.ID, engine.AutopilotStepCode, models.StepResult{
		StepName:  "Autopilot Analysis",
		UserInput: problem.Description,
		Status:    models.StepStatusInProgress,
	})
	if err != nil {
		return err
	}
	result.UserInput = problem.Description
	result.Status = models.StepStatusInProgress
	if err := r.results.Update(ctx, result); err != nil {
		return err
	}
	events.Emit(ctx, events.TopicAutopilot,
		events.NewInfo("Autopilot analysis started").ForStep(engine.AutopilotStepCode))

	if err := r.executeAutopilot(ctx, session, problem, result); err != nil {
		result.Status = models.StepStatusFailed
		result.ValidationNotes = fmt.Sprintf("Error: %v", err)
		if saveErr := r.results.Update(ctx, result); saveErr != nil {
			log.Printf("Could not persist autopilot failure: %v", saveErr)
		}
		events.Emit(ctx, events.TopicStepFailed,
			events.NewError(fmt.Sprintf("Autopilot failed: %v", err)).ForStep(engine.AutopilotStepCode))
		return err
	}
	return nil
}

func (r *Runner) executeAutopilot(ctx context.Context, session *models.Session, problem *models.Problem, result *models.StepResult) error {
	main, err := r.clients.MainClient(ctx)
	if err != nil {
		return err
	}

	systemPrompt := r.renderer.RenderSystemPrompt(models.ModeAutopilot, "")
	promptCtx := map[string]string{
		"problem_title":       problem.Title,
		"problem_description": problem.Description,
		"domain":              problem.Domain,
		"mode":                models.ModeAutopilot,
	}
	stepPrompt := r.renderer.RenderStepPrompt("full_analysis", promptCtx, models.ModeAutopilot)

	resp, err := main.SendMessage(ctx, systemPrompt, stepPrompt, client.MessageOptions{
		MaxTokens:   8192,
		Temperature: 0.7,
	})
	if err != nil {
		return err
	}
	r.recordUsage(ctx, session.ID, engine.AutopilotStepCode, models.UsageKindAutopilot, resp)

	result.LLMOutput = resp.Content
	result.ValidatedResult = resp.Content
	result.Status = models.StepStatusCompleted
	if err := r.results.Update(ctx, result); err != nil {
		return err
	}

	// The aggregated run replaces whatever snapshot the session carried.
	if err := session.SetSnapshot(map[string]any{
		"autopilot_result": resp.Content,
		"cost_usd":         resp.CostUSD,
	}); err != nil {
		return err
	}
	now := time.Now()
	session.Status = models.SessionStatusCompleted
	session.CompletedAt = &now
	if err := r.sessions.Update(ctx, session); err != nil {
		return err
	}

	log.Printf("Autopilot completed for session %d (cost: $%.4f)", session.ID, resp.CostUSD)
	events.Emit(ctx, events.TopicAutopilot,
		events.NewSuccess("Autopilot analysis completed").ForStep(engine.AutopilotStepCode))
	events.Emit(ctx, events.TopicSessionCompleted,
		events.NewSuccess(fmt.Sprintf("Session %d completed", session.ID)))
	return nil
}

func (r *Runner) recordUsage(ctx context.Context, sessionID uint, stepCode, kind string, resp *client.Response) {
	record := &models.UsageRecord{
		SessionID:    sessionID,
		StepCode:     stepCode,
		Kind:         kind,
		Provider:     resp.Provider,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      resp.CostUSD,
	}
	if err := r.usage.Create(ctx, record); err != nil {
		log.Printf("Usage record write failed for session %d: %v", sessionID, err)
	}
}

// retryBackoff doubles from the base delay per attempt, capped, with up
// to a second of jitter so parallel retries spread out.
func retryBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay + time.Duration(rand.Int63n(int64(time.Second)))
}
