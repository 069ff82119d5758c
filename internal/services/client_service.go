package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"arizor/internal/llm/client"
	"arizor/internal/models"
)

// ApiKeyStore resolves provider credentials. *KeyringService is the
// production implementation.
type ApiKeyStore interface {
	GetApiKey(provider string) (string, error)
}

// ClientService hands out configured LLM clients by role or catalog key.
// Clients are cached per model key so token accounting accumulates on one
// instance for the life of the process.
type ClientService struct {
	ctx        context.Context
	models     ModelConfigService
	keys       ApiKeyStore
	embedModel string

	mu      sync.Mutex
	clients map[string]*client.LLMClient
}

func NewClientService(models ModelConfigService, keys ApiKeyStore, embedModel string) *ClientService {
	return &ClientService{
		models:     models,
		keys:       keys,
		embedModel: embedModel,
		clients:    make(map[string]*client.LLMClient),
	}
}

func (s *ClientService) Startup(ctx context.Context) error {
	if s.models == nil {
		return fmt.Errorf("model config service not configured")
	}
	if s.keys == nil {
		return fmt.Errorf("keyring service not configured")
	}
	s.ctx = ctx
	return nil
}

// MainClient returns the chat client that answers step prompts.
func (s *ClientService) MainClient(ctx context.Context) (*client.LLMClient, error) {
	return s.clientForRole(ctx, models.SelectionRoleMain)
}

// ValidationClient returns the chat client that checks step outputs.
func (s *ClientService) ValidationClient(ctx context.Context) (*client.LLMClient, error) {
	return s.clientForRole(ctx, models.SelectionRoleValidation)
}

func (s *ClientService) clientForRole(ctx context.Context, role string) (*client.LLMClient, error) {
	model, err := s.models.SelectionModel(role)
	if err != nil {
		return nil, err
	}
	return s.ClientForModel(ctx, model.Key)
}

// ClientForModel returns the cached client for a catalog key, creating
// it on first use.
func (s *ClientService) ClientForModel(ctx context.Context, modelKey string) (*client.LLMClient, error) {
	model, err := s.models.GetModel(modelKey)
	if err != nil {
		return nil, err
	}
	if !model.Enabled {
		return nil, fmt.Errorf("model %s is disabled", model.DisplayName)
	}

	s.mu.Lock()
	if cached, ok := s.clients[model.Key]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	llmClient, err := s.instantiateLLMClient(ctx, model)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent caller may have built one meanwhile; keep the first so
	// usage stats stay on a single instance.
	if existing, ok := s.clients[model.Key]; ok {
		return existing, nil
	}
	s.clients[model.Key] = llmClient
	return llmClient, nil
}

func (s *ClientService) instantiateLLMClient(ctx context.Context, model *models.LLMModel) (*client.LLMClient, error) {
	if s.keys == nil {
		return nil, fmt.Errorf("keyring service not configured")
	}

	providerID := strings.TrimSpace(model.ProviderID)
	if providerID == "" {
		return nil, fmt.Errorf("model %s is missing provider information", model.DisplayName)
	}

	apiKey, err := s.keys.GetApiKey(providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get API key for %s: %w", providerID, err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key for %s is not configured", providerID)
	}

	var (
		llmClient *client.LLMClient
		createErr error
	)
	switch providerID {
	case "anthropic":
		llmClient, createErr = client.NewClaudeClient(ctx, apiKey, client.ClaudeModelOptions{
			Model: model.APIName,
		})
	case "openai":
		llmClient, createErr = client.NewOpenAIClient(ctx, apiKey, client.OpenAIModelOptions{
			Model: model.APIName,
		})
	case "gemini":
		llmClient, createErr = client.NewGeminiClient(ctx, apiKey, client.GeminiModelOptions{
			Model: model.APIName,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerID)
	}

	if createErr != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", providerID, createErr)
	}

	llmClient.SetPricing(client.Pricing{
		InputPerM:  model.InputPricePerM,
		OutputPerM: model.OutputPricePerM,
	})
	return llmClient, nil
}

// EmbeddingClient builds the Gemini embedder for knowledge-base
// ingestion.
func (s *ClientService) EmbeddingClient(ctx context.Context) (*client.Embedder, error) {
	apiKey, err := s.keys.GetApiKey("gemini")
	if err != nil {
		return nil, fmt.Errorf("failed to get API key for gemini: %w", err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key for gemini is not configured")
	}
	return client.NewGeminiEmbedder(ctx, apiKey, s.embedModel)
}

// Reset drops cached clients so the next call picks up rotated keys or
// changed model selections.
func (s *ClientService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = make(map[string]*client.LLMClient)
}
