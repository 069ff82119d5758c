package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"arizor/internal/engine"
	"arizor/internal/models"
	"arizor/internal/runner"
	"arizor/internal/services"
	"arizor/internal/steps"
)

var problemDomains = map[string]bool{
	"technical": true,
	"business":  true,
	"everyday":  true,
}

var sessionModes = map[string]bool{
	models.ModeExpress:   true,
	models.ModeFull:      true,
	models.ModeAutopilot: true,
}

type createProblemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Domain      string `json:"domain"`
}

type createSessionRequest struct {
	ProblemID uint   `json:"problem_id"`
	Mode      string `json:"mode"`
}

type submitRequest struct {
	UserInput string `json:"user_input"`
}

type updateModelRequest struct {
	Enabled *bool `json:"enabled"`
}

func writeError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// errorStatus maps domain errors onto HTTP statuses: step-order and
// in-flight conflicts are 409, anything unknown or missing is 404, the
// rest is a server fault.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrStepNotCompleted) || errors.Is(err, runner.ErrRunInFlight):
		return http.StatusConflict
	case errors.Is(err, engine.ErrUnknownStep) || errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, services.ErrModelNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func idParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(c, http.StatusBadRequest, fmt.Errorf("invalid id %q", raw))
		return 0, false
	}
	return uint(id), true
}

// session loads the path session or writes the error response itself.
func (s *Server) session(c *gin.Context) (*models.Session, bool) {
	id, ok := idParam(c)
	if !ok {
		return nil, false
	}
	session, err := s.deps.Sessions.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return nil, false
	}
	return session, true
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListProblems(c *gin.Context) {
	list, err := s.deps.Problems.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"problems": list})
}

func (s *Server) handleCreateProblem(c *gin.Context) {
	var req createProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		writeError(c, http.StatusBadRequest, errors.New("title and description are required"))
		return
	}
	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if domain == "" {
		domain = "technical"
	}
	if !problemDomains[domain] {
		writeError(c, http.StatusBadRequest, fmt.Errorf("unknown domain %q", domain))
		return
	}

	problem := &models.Problem{
		Title:       req.Title,
		Description: req.Description,
		Domain:      domain,
		Status:      models.ProblemStatusOpen,
	}
	if err := s.deps.Problems.Create(c.Request.Context(), problem); err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, problem)
}

func (s *Server) handleGetProblem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	problem, err := s.deps.Problems.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}
	sessions, err := s.deps.Sessions.ListByProblem(c.Request.Context(), id)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"problem": problem, "sessions": sessions})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.ProblemID == 0 {
		writeError(c, http.StatusBadRequest, errors.New("problem_id is required"))
		return
	}
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = models.ModeExpress
	}
	if !sessionModes[mode] {
		writeError(c, http.StatusBadRequest, fmt.Errorf("unknown mode %q", mode))
		return
	}

	ctx := c.Request.Context()
	problem, err := s.deps.Problems.Get(ctx, req.ProblemID)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}

	session := &models.Session{
		ProblemID: problem.ID,
		Mode:      mode,
		Status:    models.SessionStatusActive,
	}
	if err := s.deps.Sessions.Create(ctx, session); err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}

	step, err := s.deps.Engine.Start(ctx, session)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}

	if problem.Status == models.ProblemStatusOpen {
		problem.Status = models.ProblemStatusInProgress
		if err := s.deps.Problems.Update(ctx, problem); err != nil {
			log.Printf("Could not mark problem %d in progress: %v", problem.ID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"session": session, "step": step})
}

func (s *Server) handleGetSession(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	progress, err := s.deps.Engine.Progress(c.Request.Context(), session)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "progress": progress})
}

func (s *Server) handleSubmit(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		writeError(c, http.StatusBadRequest, errors.New("user_input is required"))
		return
	}

	runID, err := s.deps.Engine.Submit(c.Request.Context(), session, req.UserInput)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": runID})
}

func (s *Server) handleAdvance(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	step, err := s.deps.Engine.Advance(c.Request.Context(), session)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":   session,
		"step":      step,
		"completed": session.Status == models.SessionStatusCompleted,
	})
}

func (s *Server) handleBack(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	step, err := s.deps.Engine.Back(c.Request.Context(), session)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "step": step})
}

func (s *Server) handleProgress(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	progress, err := s.deps.Engine.Progress(c.Request.Context(), session)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (s *Server) handleSummary(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	summary, err := s.deps.Engine.Summary(c.Request.Context(), session)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// handleReport renders the session report as markdown. When a report
// archive is configured the report is also committed there; archive
// failures only log, the response still carries the report.
func (s *Server) handleReport(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	report, err := s.deps.Reports.BuildSessionReport(c.Request.Context(), id)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}

	if s.deps.Archive != nil && s.deps.Archive.Enabled() {
		if hash, err := s.deps.Archive.ArchiveReport(id, report); err != nil {
			log.Printf("Report archive failed for session %d: %v", id, err)
		} else {
			c.Header("X-Archive-Commit", hash)
		}
	}

	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report))
}

func (s *Server) handleListSteps(c *gin.Context) {
	mode := strings.ToLower(strings.TrimSpace(c.DefaultQuery("mode", models.ModeExpress)))
	if !sessionModes[mode] {
		writeError(c, http.StatusBadRequest, fmt.Errorf("unknown mode %q", mode))
		return
	}

	defs := steps.ForMode(mode)
	views := make([]models.StepView, 0, len(defs))
	for _, def := range defs {
		view := models.StepView{Code: def.Code, Name: def.Name, Description: def.Description}
		if mode == models.ModeFull {
			view.Part = engine.PartForCode(def.Code)
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "steps": views})
}

func (s *Server) handleListModels(c *gin.Context) {
	groups, err := s.deps.Models.ListModelGroups()
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": groups})
}

func (s *Server) handleUpdateModel(c *gin.Context) {
	var req updateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		writeError(c, http.StatusBadRequest, errors.New("enabled is required"))
		return
	}

	model, err := s.deps.Models.SetModelEnabled(c.Param("key"), *req.Enabled)
	if err != nil {
		writeError(c, errorStatus(err), err)
		return
	}
	// Cached clients hold the old pricing and enablement.
	if s.deps.Clients != nil {
		s.deps.Clients.Reset()
	}
	c.JSON(http.StatusOK, model)
}

func (s *Server) handlePrinciples(c *gin.Context) {
	contradictionType := strings.TrimSpace(c.Query("type"))
	query := strings.TrimSpace(c.Query("q"))

	principles, err := s.deps.Searcher.SuggestPrinciples(c.Request.Context(), contradictionType, query)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"principles": principles})
}

func (s *Server) handleStats(c *gin.Context) {
	ctx := c.Request.Context()

	problems, err := s.deps.Problems.Count(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	sessions, err := s.deps.Sessions.CountByStatus(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	usage, err := s.deps.Usage.Totals(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"problems": problems,
		"sessions": sessions,
		"usage":    usage,
	})
}
