package services

import (
	"context"
	"fmt"
	"testing"

	"arizor/internal/models"
	"arizor/internal/tests/mocks"

	"github.com/stretchr/testify/assert"
)

func startedModelService(t *testing.T, repo *mocks.ModelSettingRepositoryMock) ModelConfigService {
	t.Helper()
	svc := NewModelConfigService(repo)
	err := svc.Startup(context.Background())
	assert.NoError(t, err)
	return svc
}

func TestModelConfigService_Startup_ParsesCatalogAndSeedsSettings(t *testing.T) {
	var seeded []string
	repo := &mocks.ModelSettingRepositoryMock{
		UpsertFunc: func(modelKey, provider string, enabled bool) (*models.ModelSetting, error) {
			seeded = append(seeded, modelKey)
			assert.True(t, enabled)
			return &models.ModelSetting{ModelKey: modelKey, Provider: provider, Enabled: enabled}, nil
		},
	}

	svc := startedModelService(t, repo)

	assert.Len(t, seeded, 9)
	assert.Contains(t, seeded, "anthropic|claude-sonnet-4-0")
	assert.Contains(t, seeded, "openai|o3")
	assert.Contains(t, seeded, "gemini|gemini-2.5-flash")

	model, err := svc.GetModel("anthropic|claude-sonnet-4-0")
	assert.NoError(t, err)
	assert.Equal(t, "Claude Sonnet 4", model.DisplayName)
	assert.Equal(t, "claude-sonnet-4-0", model.APIName)
	assert.Equal(t, "Anthropic", model.ProviderName)
	assert.Equal(t, 200000, model.ContextWindow)
	assert.Equal(t, 3.0, model.InputPricePerM)
	assert.Equal(t, 15.0, model.OutputPricePerM)
	assert.True(t, model.SupportsThinking)
	assert.True(t, model.Enabled)
}

func TestModelConfigService_Startup_KeepsStoredToggles(t *testing.T) {
	var seeded []string
	repo := &mocks.ModelSettingRepositoryMock{
		ListFunc: func() ([]models.ModelSetting, error) {
			return []models.ModelSetting{
				{ModelKey: "openai|gpt-4o", Provider: "openai", Enabled: false},
			}, nil
		},
		UpsertFunc: func(modelKey, provider string, enabled bool) (*models.ModelSetting, error) {
			seeded = append(seeded, modelKey)
			return &models.ModelSetting{ModelKey: modelKey, Provider: provider, Enabled: enabled}, nil
		},
	}

	svc := startedModelService(t, repo)

	assert.Len(t, seeded, 8)
	assert.NotContains(t, seeded, "openai|gpt-4o")

	model, err := svc.GetModel("openai|gpt-4o")
	assert.NoError(t, err)
	assert.False(t, model.Enabled)
}

func TestModelConfigService_ListModelGroups_KeepsProviderOrder(t *testing.T) {
	svc := startedModelService(t, &mocks.ModelSettingRepositoryMock{})

	groups, err := svc.ListModelGroups()
	assert.NoError(t, err)
	assert.Len(t, groups, 3)
	assert.Equal(t, "anthropic", groups[0].ProviderID)
	assert.Equal(t, "openai", groups[1].ProviderID)
	assert.Equal(t, "gemini", groups[2].ProviderID)
	assert.Equal(t, "Google Gemini", groups[2].ProviderName)

	var anthropicNames []string
	for _, mdl := range groups[0].Models {
		anthropicNames = append(anthropicNames, mdl.DisplayName)
	}
	assert.Equal(t, []string{"Claude 3.5 Haiku", "Claude Opus 4.1", "Claude Sonnet 4"}, anthropicNames)
}

func TestModelConfigService_SetModelEnabled_PersistsToggle(t *testing.T) {
	var gotKey, gotProvider string
	var gotEnabled bool
	repo := &mocks.ModelSettingRepositoryMock{
		UpsertFunc: func(modelKey, provider string, enabled bool) (*models.ModelSetting, error) {
			gotKey, gotProvider, gotEnabled = modelKey, provider, enabled
			return &models.ModelSetting{ModelKey: modelKey, Provider: provider, Enabled: enabled}, nil
		},
	}
	svc := startedModelService(t, repo)

	model, err := svc.SetModelEnabled("gemini|gemini-2.5-pro", false)
	assert.NoError(t, err)
	assert.Equal(t, "gemini|gemini-2.5-pro", gotKey)
	assert.Equal(t, "gemini", gotProvider)
	assert.False(t, gotEnabled)
	assert.False(t, model.Enabled)
}

func TestModelConfigService_SetModelEnabled_UnknownModelFails(t *testing.T) {
	svc := startedModelService(t, &mocks.ModelSettingRepositoryMock{})

	_, err := svc.SetModelEnabled("acme|unknown", true)
	assert.ErrorContains(t, err, "model acme|unknown not found")
}

func TestModelConfigService_SelectionModel_DefaultsWithoutStoredRow(t *testing.T) {
	svc := startedModelService(t, &mocks.ModelSettingRepositoryMock{})

	model, err := svc.SelectionModel(models.SelectionRoleMain)
	assert.NoError(t, err)
	assert.Equal(t, defaultMainModelKey, model.Key)
}

func TestModelConfigService_SelectionModel_ValidationFallsBackToMain(t *testing.T) {
	repo := &mocks.ModelSettingRepositoryMock{
		GetSelectionFunc: func(role string) (*models.ModelSelection, error) {
			if role == models.SelectionRoleMain {
				return &models.ModelSelection{Role: role, Provider: "openai", ModelKey: "openai|gpt-4.1"}, nil
			}
			return nil, nil
		},
	}
	svc := startedModelService(t, repo)

	model, err := svc.SelectionModel(models.SelectionRoleValidation)
	assert.NoError(t, err)
	assert.Equal(t, "openai|gpt-4.1", model.Key)
}

func TestModelConfigService_SelectionModel_UsesStoredValidationRow(t *testing.T) {
	repo := &mocks.ModelSettingRepositoryMock{
		GetSelectionFunc: func(role string) (*models.ModelSelection, error) {
			if role == models.SelectionRoleValidation {
				return &models.ModelSelection{Role: role, Provider: "anthropic", ModelKey: "anthropic|claude-3-5-haiku-latest"}, nil
			}
			return nil, nil
		},
	}
	svc := startedModelService(t, repo)

	model, err := svc.SelectionModel(models.SelectionRoleValidation)
	assert.NoError(t, err)
	assert.Equal(t, "anthropic|claude-3-5-haiku-latest", model.Key)
	assert.Equal(t, 0.8, model.InputPricePerM)
	assert.Equal(t, 4.0, model.OutputPricePerM)
}

func TestModelConfigService_SelectionModel_RepositoryErrorWrapped(t *testing.T) {
	repo := &mocks.ModelSettingRepositoryMock{
		GetSelectionFunc: func(role string) (*models.ModelSelection, error) {
			return nil, fmt.Errorf("database locked")
		},
	}
	svc := startedModelService(t, repo)

	_, err := svc.SelectionModel(models.SelectionRoleMain)
	assert.ErrorContains(t, err, "load main model selection")
}

func TestModelConfigService_SetSelection_ResolvesProviderFromCatalog(t *testing.T) {
	var gotRole, gotProvider, gotKey string
	repo := &mocks.ModelSettingRepositoryMock{
		SetSelectionFunc: func(role, provider, modelKey string) (*models.ModelSelection, error) {
			gotRole, gotProvider, gotKey = role, provider, modelKey
			return &models.ModelSelection{Role: role, Provider: provider, ModelKey: modelKey}, nil
		},
	}
	svc := startedModelService(t, repo)

	sel, err := svc.SetSelection(models.SelectionRoleValidation, "gemini|gemini-2.5-flash")
	assert.NoError(t, err)
	assert.Equal(t, models.SelectionRoleValidation, gotRole)
	assert.Equal(t, "gemini", gotProvider)
	assert.Equal(t, "gemini|gemini-2.5-flash", gotKey)
	assert.Equal(t, "gemini|gemini-2.5-flash", sel.ModelKey)
}

func TestModelConfigService_SetSelection_RejectsUnknownModel(t *testing.T) {
	svc := startedModelService(t, &mocks.ModelSettingRepositoryMock{})

	_, err := svc.SetSelection(models.SelectionRoleMain, "acme|unknown")
	assert.ErrorContains(t, err, "not found")
}
