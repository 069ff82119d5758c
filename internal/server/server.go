// Package server exposes the HTTP API: problem and session CRUD, the
// step lifecycle endpoints backed by the engine, an SSE stream tailing
// the event broker, the model catalog, knowledge search and the
// prometheus metrics endpoint.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arizor/internal/engine"
	"arizor/internal/events"
	"arizor/internal/knowledge"
	"arizor/internal/repositories"
	"arizor/internal/services"
)

// ClientResetter drops cached LLM clients after catalog changes so the
// next call picks up the new configuration.
type ClientResetter interface {
	Reset()
}

// Deps carries everything the handlers touch. Archive and Clients may be
// nil; the corresponding behavior is skipped.
type Deps struct {
	Engine   *engine.Engine
	Broker   *events.Broker
	Problems repositories.ProblemRepository
	Sessions repositories.SessionRepository
	Usage    repositories.UsageRepository
	Models   services.ModelConfigService
	Clients  ClientResetter
	Reports  services.ReportService
	Archive  *services.ArchiveService
	Searcher *knowledge.Searcher
}

// Server wires the gin router over the engine and services.
type Server struct {
	deps Deps
	http *http.Server
}

func New(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router builds the gin engine with all routes registered. Exposed
// separately so tests can drive it with httptest.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metricsMiddleware())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/problems", s.handleListProblems)
		api.POST("/problems", s.handleCreateProblem)
		api.GET("/problems/:id", s.handleGetProblem)

		api.POST("/sessions", s.handleCreateSession)
		api.GET("/sessions/:id", s.handleGetSession)
		api.POST("/sessions/:id/submit", s.handleSubmit)
		api.POST("/sessions/:id/advance", s.handleAdvance)
		api.POST("/sessions/:id/back", s.handleBack)
		api.GET("/sessions/:id/progress", s.handleProgress)
		api.GET("/sessions/:id/summary", s.handleSummary)
		api.GET("/sessions/:id/report", s.handleReport)
		api.GET("/sessions/:id/events", s.handleEvents)

		api.GET("/steps", s.handleListSteps)
		api.GET("/models", s.handleListModels)
		api.PATCH("/models/:key", s.handleUpdateModel)
		api.GET("/knowledge/principles", s.handlePrinciples)
		api.GET("/stats", s.handleStats)
	}
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
