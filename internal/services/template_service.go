package services

import (
	context "context"
	"fmt"
	"strings"
	"sync"

	"arizor/internal/models"
	"arizor/internal/repositories"
)

// TemplateService manages stored prompt overrides. Lookup implements
// prompts.OverrideSource so the renderer sees overrides without touching
// the database on every render.
type TemplateService interface {
	Startup(ctx context.Context) error
	GetTemplate(ctx context.Context, id uint) (*models.Template, error)
	ListTemplates(ctx context.Context) ([]*models.Template, error)
	CreateTemplate(ctx context.Context, t *models.Template) (*models.Template, error)
	UpdateTemplate(ctx context.Context, t *models.Template) (*models.Template, error)
	DeleteTemplate(ctx context.Context, id uint) error
	Lookup(name string) (string, bool)
}

type templateService struct {
	repo repositories.TemplateRepository
	ctx  context.Context

	mu        sync.RWMutex
	overrides map[string]string
}

func NewTemplateService(repo repositories.TemplateRepository) TemplateService {
	return &templateService{
		repo:      repo,
		overrides: make(map[string]string),
	}
}

func (s *templateService) Startup(ctx context.Context) error {
	s.ctx = ctx
	if err := s.reload(ctx); err != nil {
		return fmt.Errorf("service: load template overrides: %w", err)
	}
	return nil
}

func (s *templateService) GetTemplate(ctx context.Context, id uint) (*models.Template, error) {
	tmpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: get template %d: %w", id, err)
	}
	return tmpl, nil
}

func (s *templateService) ListTemplates(ctx context.Context) ([]*models.Template, error) {
	list, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: list templates: %w", err)
	}
	return list, nil
}

func (s *templateService) CreateTemplate(ctx context.Context, t *models.Template) (*models.Template, error) {
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("service: create template: %w", err)
	}
	if err := s.reload(ctx); err != nil {
		return nil, fmt.Errorf("service: refresh template overrides: %w", err)
	}
	return t, nil
}

func (s *templateService) UpdateTemplate(ctx context.Context, t *models.Template) (*models.Template, error) {
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("service: update template %d: %w", t.ID, err)
	}
	if err := s.reload(ctx); err != nil {
		return nil, fmt.Errorf("service: refresh template overrides: %w", err)
	}
	return t, nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: delete template %d: %w", id, err)
	}
	if err := s.reload(ctx); err != nil {
		return fmt.Errorf("service: refresh template overrides: %w", err)
	}
	return nil
}

// Lookup returns the stored override body for an embedded template path,
// or false when no usable override exists.
func (s *templateService) Lookup(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.overrides[name]
	if !ok || strings.TrimSpace(body) == "" {
		return "", false
	}
	return body, true
}

func (s *templateService) reload(ctx context.Context) error {
	list, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}
	next := make(map[string]string, len(list))
	for _, tmpl := range list {
		next[tmpl.Name] = tmpl.Content
	}
	s.mu.Lock()
	s.overrides = next
	s.mu.Unlock()
	return nil
}
