package services

import (
	"context"
	"fmt"
	"testing"

	"arizor/internal/llm/prompts"
	"arizor/internal/models"
	"arizor/internal/tests/mocks"

	"github.com/stretchr/testify/assert"
)

func TestTemplateService_Startup_LoadsOverrides(t *testing.T) {
	repo := &mocks.TemplateRepositoryMock{
		GetAllFunc: func(ctx context.Context) ([]*models.Template, error) {
			return []*models.Template{
				{ID: 1, Name: "system/master.txt", Content: "Ты опытный мастер ТРИЗ."},
			}, nil
		},
	}
	svc := NewTemplateService(repo)
	assert.NoError(t, svc.Startup(context.Background()))

	body, ok := svc.Lookup("system/master.txt")
	assert.True(t, ok)
	assert.Equal(t, "Ты опытный мастер ТРИЗ.", body)

	_, ok = svc.Lookup("steps/express/step_1.txt")
	assert.False(t, ok)
}

func TestTemplateService_Lookup_IgnoresBlankContent(t *testing.T) {
	repo := &mocks.TemplateRepositoryMock{
		GetAllFunc: func(ctx context.Context) ([]*models.Template, error) {
			return []*models.Template{
				{ID: 1, Name: "system/role.txt", Content: "   \n"},
			}, nil
		},
	}
	svc := NewTemplateService(repo)
	assert.NoError(t, svc.Startup(context.Background()))

	_, ok := svc.Lookup("system/role.txt")
	assert.False(t, ok)
}

func TestTemplateService_CreateTemplate_RefreshesLookup(t *testing.T) {
	stored := []*models.Template{}
	repo := &mocks.TemplateRepositoryMock{
		GetAllFunc: func(ctx context.Context) ([]*models.Template, error) {
			return stored, nil
		},
		CreateFunc: func(ctx context.Context, tmpl *models.Template) error {
			tmpl.ID = 7
			stored = append(stored, tmpl)
			return nil
		},
	}
	svc := NewTemplateService(repo)
	assert.NoError(t, svc.Startup(context.Background()))

	created, err := svc.CreateTemplate(context.Background(), &models.Template{
		Name:    "steps/express/step_4.txt",
		Content: "Сформулируй ИКР для задачи {problem_title}.",
	})
	assert.NoError(t, err)
	assert.Equal(t, uint(7), created.ID)

	body, ok := svc.Lookup("steps/express/step_4.txt")
	assert.True(t, ok)
	assert.Contains(t, body, "Сформулируй ИКР")
}

func TestTemplateService_DeleteTemplate_RemovesOverride(t *testing.T) {
	stored := []*models.Template{
		{ID: 3, Name: "adapters/b2c.txt", Content: "Объясняй простыми словами."},
	}
	repo := &mocks.TemplateRepositoryMock{
		GetAllFunc: func(ctx context.Context) ([]*models.Template, error) {
			return stored, nil
		},
		DeleteFunc: func(ctx context.Context, id uint) error {
			assert.Equal(t, uint(3), id)
			stored = nil
			return nil
		},
	}
	svc := NewTemplateService(repo)
	assert.NoError(t, svc.Startup(context.Background()))

	_, ok := svc.Lookup("adapters/b2c.txt")
	assert.True(t, ok)

	assert.NoError(t, svc.DeleteTemplate(context.Background(), 3))
	_, ok = svc.Lookup("adapters/b2c.txt")
	assert.False(t, ok)
}

func TestTemplateService_CreateTemplate_WrapsRepositoryError(t *testing.T) {
	repo := &mocks.TemplateRepositoryMock{
		CreateFunc: func(ctx context.Context, tmpl *models.Template) error {
			return fmt.Errorf("unique constraint failed")
		},
	}
	svc := NewTemplateService(repo)
	assert.NoError(t, svc.Startup(context.Background()))

	_, err := svc.CreateTemplate(context.Background(), &models.Template{Name: "x", Content: "y"})
	assert.ErrorContains(t, err, "service: create template")
}

func TestTemplateService_OverridesEmbeddedSystemPrompt(t *testing.T) {
	repo := &mocks.TemplateRepositoryMock{
		GetAllFunc: func(ctx context.Context) ([]*models.Template, error) {
			return []*models.Template{
				{ID: 1, Name: "system/master.txt", Content: "ПЕРЕОПРЕДЕЛЁННЫЙ МАСТЕР-ПРОМПТ для режима {mode}."},
			}, nil
		},
	}
	svc := NewTemplateService(repo)
	assert.NoError(t, svc.Startup(context.Background()))

	renderer := &prompts.Renderer{Overrides: svc}
	rendered := renderer.RenderSystemPrompt("express", "")
	assert.Contains(t, rendered, "ПЕРЕОПРЕДЕЛЁННЫЙ МАСТЕР-ПРОМПТ для режима express.")
}
