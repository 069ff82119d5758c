package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"arizor/internal/config"
	"arizor/internal/database"
	"arizor/internal/engine"
	"arizor/internal/events"
	"arizor/internal/knowledge"
	"arizor/internal/llm/prompts"
	"arizor/internal/repositories"
	"arizor/internal/runner"
	"arizor/internal/server"
	"arizor/internal/services"
)

// App is the composition root shared by every subcommand: database,
// repositories, services and the step engine, wired once and torn down
// with Close.
type App struct {
	cfg config.Config
	db  *gorm.DB
	svc *services.Services

	problems       repositories.ProblemRepository
	sessions       repositories.SessionRepository
	results        repositories.StepResultRepository
	contradictions repositories.ContradictionRepository
	ikrs           repositories.IKRRepository
	solutions      repositories.SolutionRepository
	usage          repositories.UsageRepository
	fund           repositories.KnowledgeRepository

	searcher *knowledge.Searcher
	runner   *runner.Runner
	engine   *engine.Engine
	broker   *events.Broker

	dbClose func() error
}

// newApp loads configuration, opens the database and wires the object
// graph. dbPath, when non-empty, overrides ARIZOR_DB_PATH.
func newApp(dbPath string) (*App, error) {
	if err := config.LoadEnv(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Could not load .env: %v", err)
	}
	cfg := config.FromEnv()
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = database.GetDefaultDBPath()
	}

	db, err := database.Init(database.Config{Path: cfg.DatabasePath})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.DatabasePath, err)
	}

	a := &App{
		cfg: cfg,
		db:  db,
		svc: services.NewServices(db, cfg),

		problems:       repositories.NewProblemRepository(db),
		sessions:       repositories.NewSessionRepository(db),
		results:        repositories.NewStepResultRepository(db),
		contradictions: repositories.NewContradictionRepository(db),
		ikrs:           repositories.NewIKRRepository(db),
		solutions:      repositories.NewSolutionRepository(db),
		usage:          repositories.NewUsageRepository(db),
		fund:           repositories.NewKnowledgeRepository(db),
		broker:         events.NewBroker(),
	}
	if sqlDB, err := db.DB(); err == nil {
		a.dbClose = sqlDB.Close
	}

	a.searcher = knowledge.NewSearcher(a.fund, &lazyEmbedder{clients: a.svc.Clients})
	full := engine.NewFullProcessor(a.sessions, a.contradictions, a.ikrs, a.solutions, a.searcher)
	renderer := &prompts.Renderer{Overrides: a.svc.Templates}

	a.runner = runner.NewRunner(
		a.sessions, a.problems, a.results,
		server.MeterUsage(a.usage),
		&clientSource{clients: a.svc.Clients},
		renderer, full,
	)
	a.runner.SetLimits(cfg.StepRetries, cfg.StepWorkers)
	a.engine = engine.NewEngine(a.sessions, a.problems, a.results, a.contradictions, a.ikrs, a.solutions, a.runner)

	// CLI commands log events; serve swaps in the broker emitter.
	events.EnableLogEmitter()
	return a, nil
}

// Close releases the database handle.
func (a *App) Close() {
	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			log.Printf("Could not close database: %v", err)
		}
	}
}

// serve runs the HTTP API until ctx is cancelled. Step events flow
// through the broker to SSE subscribers, and the same stream feeds the
// step outcome metrics.
func (a *App) serve(ctx context.Context, addr string) error {
	if err := a.svc.Startup(ctx); err != nil {
		return err
	}
	events.EnableBrokerEmitter(a.broker)
	stop := server.ObserveBroker(a.broker)
	defer stop()

	srv := server.New(server.Deps{
		Engine:   a.engine,
		Broker:   a.broker,
		Problems: a.problems,
		Sessions: a.sessions,
		Usage:    a.usage,
		Models:   a.svc.Models,
		Clients:  a.svc.Clients,
		Reports:  a.svc.Reports,
		Archive:  a.svc.Archive,
		Searcher: a.searcher,
	})
	log.Printf("Listening on %s (database %s)", addr, a.cfg.DatabasePath)
	return srv.Run(ctx, addr)
}

// clientSource narrows the client service to the send surface the
// runner needs, so the runner package stays free of service types.
type clientSource struct {
	clients *services.ClientService
}

func (s *clientSource) MainClient(ctx context.Context) (runner.ChatClient, error) {
	c, err := s.clients.MainClient(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *clientSource) ValidationClient(ctx context.Context) (runner.ChatClient, error) {
	c, err := s.clients.ValidationClient(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// lazyEmbedder resolves the Gemini embedder per call instead of at
// wiring time. Until a key is configured the searcher just degrades to
// keyword scoring.
type lazyEmbedder struct {
	clients *services.ClientService
}

func (e *lazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb, err := e.clients.EmbeddingClient(ctx)
	if err != nil {
		return nil, err
	}
	return emb.Embed(ctx, text)
}
