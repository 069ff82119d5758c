package services

import (
	"context"
	"fmt"
	"testing"

	"arizor/internal/models"
	"arizor/internal/tests/mocks"

	"github.com/stretchr/testify/assert"
)

type apiKeyStoreFunc func(provider string) (string, error)

func (f apiKeyStoreFunc) GetApiKey(provider string) (string, error) { return f(provider) }

func staticKeys(keys map[string]string) apiKeyStoreFunc {
	return func(provider string) (string, error) {
		return keys[provider], nil
	}
}

func newClientService(t *testing.T, keys ApiKeyStore) *ClientService {
	t.Helper()
	modelConfig := startedModelService(t, &mocks.ModelSettingRepositoryMock{})
	svc := NewClientService(modelConfig, keys, "text-embedding-004")
	assert.NoError(t, svc.Startup(context.Background()))
	return svc
}

func TestClientService_Startup_RequiresDependencies(t *testing.T) {
	svc := NewClientService(nil, nil, "")
	assert.ErrorContains(t, svc.Startup(context.Background()), "model config service not configured")
}

func TestClientService_MainClient_UsesDefaultSelection(t *testing.T) {
	svc := newClientService(t, staticKeys(map[string]string{"anthropic": "sk-test"}))

	llmClient, err := svc.MainClient(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "anthropic", llmClient.Provider())
	assert.Equal(t, "claude-sonnet-4-0", llmClient.ModelName())
}

func TestClientService_ClientForModel_CachesPerKey(t *testing.T) {
	svc := newClientService(t, staticKeys(map[string]string{"anthropic": "sk-test"}))

	first, err := svc.ClientForModel(context.Background(), "anthropic|claude-sonnet-4-0")
	assert.NoError(t, err)
	second, err := svc.ClientForModel(context.Background(), "anthropic|claude-sonnet-4-0")
	assert.NoError(t, err)
	assert.Same(t, first, second)

	svc.Reset()
	third, err := svc.ClientForModel(context.Background(), "anthropic|claude-sonnet-4-0")
	assert.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestClientService_ClientForModel_UnknownModelFails(t *testing.T) {
	svc := newClientService(t, staticKeys(nil))

	_, err := svc.ClientForModel(context.Background(), "acme|unknown")
	assert.ErrorContains(t, err, "model acme|unknown not found")
}

func TestClientService_ClientForModel_RejectsDisabledModel(t *testing.T) {
	modelConfig := startedModelService(t, &mocks.ModelSettingRepositoryMock{})
	_, err := modelConfig.SetModelEnabled("anthropic|claude-sonnet-4-0", false)
	assert.NoError(t, err)

	svc := NewClientService(modelConfig, staticKeys(map[string]string{"anthropic": "sk-test"}), "")
	assert.NoError(t, svc.Startup(context.Background()))

	_, err = svc.ClientForModel(context.Background(), "anthropic|claude-sonnet-4-0")
	assert.ErrorContains(t, err, "model Claude Sonnet 4 is disabled")
}

func TestClientService_MainClient_MissingKeyFails(t *testing.T) {
	svc := newClientService(t, staticKeys(nil))

	_, err := svc.MainClient(context.Background())
	assert.ErrorContains(t, err, "API key for anthropic is not configured")
}

func TestClientService_MainClient_KeyLookupErrorWrapped(t *testing.T) {
	svc := newClientService(t, apiKeyStoreFunc(func(provider string) (string, error) {
		return "", fmt.Errorf("dbus unavailable")
	}))

	_, err := svc.MainClient(context.Background())
	assert.ErrorContains(t, err, "failed to get API key for anthropic")
	assert.ErrorContains(t, err, "dbus unavailable")
}

func TestClientService_ValidationClient_FollowsSelection(t *testing.T) {
	repo := &mocks.ModelSettingRepositoryMock{
		GetSelectionFunc: func(role string) (*models.ModelSelection, error) {
			if role == models.SelectionRoleValidation {
				return &models.ModelSelection{Role: role, Provider: "anthropic", ModelKey: "anthropic|claude-3-5-haiku-latest"}, nil
			}
			return nil, nil
		},
	}
	modelConfig := startedModelService(t, repo)
	svc := NewClientService(modelConfig, staticKeys(map[string]string{"anthropic": "sk-test"}), "")
	assert.NoError(t, svc.Startup(context.Background()))

	llmClient, err := svc.ValidationClient(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-latest", llmClient.ModelName())
}

func TestClientService_EmbeddingClient_MissingKeyFails(t *testing.T) {
	svc := newClientService(t, staticKeys(map[string]string{"anthropic": "sk-test"}))

	_, err := svc.EmbeddingClient(context.Background())
	assert.ErrorContains(t, err, "API key for gemini is not configured")
}
