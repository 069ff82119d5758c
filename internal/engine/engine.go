// Package engine drives sessions through their mode's step sequence: a
// linear state machine for express and autopilot, and the four-part
// directed flow with loop-backs and entity extraction for full mode.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"arizor/internal/events"
	"arizor/internal/models"
	"arizor/internal/repositories"
	"arizor/internal/steps"
)

var (
	// ErrStepNotCompleted blocks Advance while the current step has not
	// finished. The API layer maps it to a state-conflict response.
	ErrStepNotCompleted = errors.New("ERR_STEP_NOT_COMPLETED")

	// ErrUnknownStep means the session points at a code the mode's
	// registry does not define.
	ErrUnknownStep = errors.New("ERR_UNKNOWN_STEP")
)

// RunRequest carries everything the async pipeline needs to execute one
// step of one session.
type RunRequest struct {
	SessionID  uint
	Mode       string
	StepCode   string
	StepName   string
	UserInput  string
	Validators []string
}

// Dispatcher hands a run to the async execution pipeline and returns an
// opaque run id. Dispatch must not block on the LLM call itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, req RunRequest) (string, error)
}

// Engine owns session step bookkeeping: starting, submitting, moving the
// current-step pointer, and aggregating progress and summaries. All LLM
// work happens behind the Dispatcher.
type Engine struct {
	sessions       repositories.SessionRepository
	problems       repositories.ProblemRepository
	results        repositories.StepResultRepository
	contradictions repositories.ContradictionRepository
	ikrs           repositories.IKRRepository
	solutions      repositories.SolutionRepository
	dispatcher     Dispatcher
}

func NewEngine(
	sessions repositories.SessionRepository,
	problems repositories.ProblemRepository,
	results repositories.StepResultRepository,
	contradictions repositories.ContradictionRepository,
	ikrs repositories.IKRRepository,
	solutions repositories.SolutionRepository,
	dispatcher Dispatcher,
) *Engine {
	return &Engine{
		sessions:       sessions,
		problems:       problems,
		results:        results,
		contradictions: contradictions,
		ikrs:           ikrs,
		solutions:      solutions,
		dispatcher:     dispatcher,
	}
}

// Start points the session at the first step of its mode, marks it active
// and ensures a pending StepResult exists for that step. Calling Start on
// a session that already ran resets the pointer but reuses the existing
// StepResult row.
func (e *Engine) Start(ctx context.Context, session *models.Session) (*models.StepResult, error) {
	defs := steps.ForMode(session.Mode)
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: mode %q has no steps", ErrUnknownStep, session.Mode)
	}
	first := defs[0]

	ctx = events.WithSession(ctx, sessionKey(session.ID))

	session.CurrentStep = first.Code
	session.CurrentPart = 1
	session.Status = models.SessionStatusActive
	if err := e.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	result, _, err := e.results.GetOrCreate(ctx, session.ID, first.Code, models.StepResult{
		StepName: first.Name,
		Status:   models.StepStatusPending,
	})
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, events.TopicSessionAdvanced,
		events.NewInfo(fmt.Sprintf("Session started in %s mode at step %s", session.Mode, first.Code)).ForStep(first.Code))
	return result, nil
}

// Submit dispatches the current step for asynchronous execution and
// returns the run id. It never blocks on the LLM.
func (e *Engine) Submit(ctx context.Context, session *models.Session, userInput string) (string, error) {
	def, ok := steps.Lookup(session.Mode, session.CurrentStep)
	if !ok {
		return "", fmt.Errorf("%w: no step %q in mode %q", ErrUnknownStep, session.CurrentStep, session.Mode)
	}

	ctx = events.WithSession(ctx, sessionKey(session.ID))

	runID, err := e.dispatcher.Dispatch(ctx, RunRequest{
		SessionID:  session.ID,
		Mode:       session.Mode,
		StepCode:   def.Code,
		StepName:   def.Name,
		UserInput:  userInput,
		Validators: def.Validators,
	})
	if err != nil {
		return "", fmt.Errorf("dispatching step %s for session %d: %w", def.Code, session.ID, err)
	}
	return runID, nil
}

// Advance moves the session to the next step once the current one is
// completed. Returns the next step's (pending) StepResult, or nil when
// the sequence is exhausted and the session has been completed.
func (e *Engine) Advance(ctx context.Context, session *models.Session) (*models.StepResult, error) {
	current, err := e.results.Find(ctx, session.ID, session.CurrentStep)
	if err != nil {
		return nil, err
	}
	status := models.StepStatusPending
	if current != nil {
		status = current.Status
	}
	if status != models.StepStatusCompleted {
		return nil, fmt.Errorf("%w: cannot advance: step %s is %s, not completed",
			ErrStepNotCompleted, session.CurrentStep, status)
	}

	ctx = events.WithSession(ctx, sessionKey(session.ID))

	next, ok := steps.Next(session.Mode, session.CurrentStep)
	if !ok {
		if err := e.complete(ctx, session); err != nil {
			return nil, err
		}
		return nil, nil
	}

	session.CurrentStep = next.Code
	session.CurrentPart = PartForCode(next.Code)
	if err := e.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	result, _, err := e.results.GetOrCreate(ctx, session.ID, next.Code, models.StepResult{
		StepName: next.Name,
		Status:   models.StepStatusPending,
	})
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, events.TopicSessionAdvanced,
		events.NewInfo(fmt.Sprintf("Advanced to step %s: %s", next.Code, next.Name)).ForStep(next.Code))
	return result, nil
}

// Back moves the pointer to the previous step and returns its existing
// StepResult (nil when none was ever created). At the first step it is a
// no-op returning nil. Back never creates StepResult rows.
func (e *Engine) Back(ctx context.Context, session *models.Session) (*models.StepResult, error) {
	prev, ok := steps.Previous(session.Mode, session.CurrentStep)
	if !ok {
		return nil, nil
	}

	ctx = events.WithSession(ctx, sessionKey(session.ID))

	session.CurrentStep = prev.Code
	session.CurrentPart = PartForCode(prev.Code)
	if err := e.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	events.Emit(ctx, events.TopicSessionAdvanced,
		events.NewInfo(fmt.Sprintf("Returned to step %s: %s", prev.Code, prev.Name)).ForStep(prev.Code))
	return e.results.Find(ctx, session.ID, prev.Code)
}

// Progress reports completion across the mode's step sequence. Pure read.
func (e *Engine) Progress(ctx context.Context, session *models.Session) (*models.Progress, error) {
	defs := steps.ForMode(session.Mode)
	codes, err := e.results.CompletedCodes(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	completed := make(map[string]bool, len(codes))
	for _, code := range codes {
		completed[code] = true
	}

	progress := &models.Progress{
		SessionID:  session.ID,
		Mode:       session.Mode,
		Status:     session.Status,
		TotalSteps: len(defs),
		Steps:      make([]models.StepView, 0, len(defs)),
	}

	for i, def := range defs {
		view := models.StepView{
			Code:   def.Code,
			Name:   def.Name,
			Part:   PartForCode(def.Code),
			Status: models.StepStatusPending,
		}
		if completed[def.Code] {
			view.Status = models.StepStatusCompleted
			progress.CompletedSteps++
		}
		if def.Code == session.CurrentStep {
			progress.CurrentIndex = i + 1
			view.Hint = StepHint(session.Mode, def.Code)
			progress.CurrentStep = view
		}
		progress.Steps = append(progress.Steps, view)
	}

	if progress.TotalSteps > 0 {
		progress.Percent = int(math.Round(float64(progress.CompletedSteps) / float64(progress.TotalSteps) * 100))
	}
	return progress, nil
}

// Summary aggregates everything a session produced: step results in
// creation order, extracted contradictions and ideal results, and
// solutions ordered by novelty. Pure read.
func (e *Engine) Summary(ctx context.Context, session *models.Session) (*models.Summary, error) {
	problem, err := e.problems.Get(ctx, session.ProblemID)
	if err != nil {
		return nil, err
	}
	results, err := e.results.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	contradictions, err := e.contradictions.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	ikrs, err := e.ikrs.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	solutions, err := e.solutions.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	summary := &models.Summary{
		Problem:        *problem,
		Session:        *session,
		Steps:          results,
		Contradictions: contradictions,
		IdealResults:   ikrs,
		Solutions:      solutions,
	}
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		if r.Status == models.StepStatusCompleted && solutionBearing(session.Mode, r.StepCode) {
			summary.FinalSolution = r.DisplayText()
			break
		}
	}
	return summary, nil
}

// complete marks the session and its owning problem finished.
func (e *Engine) complete(ctx context.Context, session *models.Session) error {
	now := time.Now()
	session.Status = models.SessionStatusCompleted
	session.CompletedAt = &now
	if err := e.sessions.Update(ctx, session); err != nil {
		return err
	}

	problem, err := e.problems.Get(ctx, session.ProblemID)
	if err != nil {
		return err
	}
	problem.Status = models.ProblemStatusCompleted
	if err := e.problems.Update(ctx, problem); err != nil {
		return err
	}

	events.Emit(ctx, events.TopicSessionCompleted,
		events.NewSuccess(fmt.Sprintf("Session %d completed", session.ID)))
	return nil
}

func solutionBearing(mode, code string) bool {
	switch mode {
	case models.ModeFull:
		_, ok := solutionSteps[code]
		return ok
	case models.ModeAutopilot:
		return code == AutopilotStepCode
	default:
		return steps.IsLast(mode, code)
	}
}

func sessionKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
