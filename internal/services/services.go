package services

import (
	"context"
	"fmt"

	"arizor/internal/config"
	"arizor/internal/repositories"

	"gorm.io/gorm"
)

// Services aggregates the domain services behind the HTTP API and CLI.
type Services struct {
	Keyring   *KeyringService
	Models    ModelConfigService
	Clients   *ClientService
	Templates TemplateService
	Reports   ReportService
	Archive   *ArchiveService
}

// NewServices constructs the service container using repositories backed by db.
func NewServices(db *gorm.DB, cfg config.Config) *Services {
	modelSettings := repositories.NewModelSettingRepository(db)
	templates := repositories.NewTemplateRepository(db)
	sessions := repositories.NewSessionRepository(db)
	problems := repositories.NewProblemRepository(db)
	results := repositories.NewStepResultRepository(db)
	contradictions := repositories.NewContradictionRepository(db)
	ikrs := repositories.NewIKRRepository(db)
	solutions := repositories.NewSolutionRepository(db)
	usage := repositories.NewUsageRepository(db)

	keyringSvc := NewKeyringService()
	modelConfig := NewModelConfigService(modelSettings)

	return &Services{
		Keyring:   keyringSvc,
		Models:    modelConfig,
		Clients:   NewClientService(modelConfig, keyringSvc, cfg.EmbedModel),
		Templates: NewTemplateService(templates),
		Reports:   NewReportService(sessions, problems, results, contradictions, ikrs, solutions, usage),
		Archive:   NewArchiveService(cfg.ArchivePath, cfg.ArchiveRemote),
	}
}

// Startup initializes every stateful service. Order matters: the client
// service resolves models, so the catalog loads first.
func (s *Services) Startup(ctx context.Context) error {
	if err := s.Models.Startup(ctx); err != nil {
		return fmt.Errorf("model config service: %w", err)
	}
	if err := s.Templates.Startup(ctx); err != nil {
		return fmt.Errorf("template service: %w", err)
	}
	if err := s.Clients.Startup(ctx); err != nil {
		return fmt.Errorf("client service: %w", err)
	}
	if err := s.Archive.Startup(ctx); err != nil {
		return fmt.Errorf("archive service: %w", err)
	}
	return nil
}
