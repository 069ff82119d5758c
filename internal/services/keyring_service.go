package services

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "arizor"

// apiKeyEnvVars maps provider IDs to the environment variables consulted
// before the OS keyring. Server deployments usually have no keyring
// daemon, so the environment always wins.
var apiKeyEnvVars = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

type KeyringService struct {
}

func NewKeyringService() *KeyringService {
	return &KeyringService{}
}

func (s *KeyringService) StoreApiKey(provider string, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("API key is empty")
	}
	if provider == "" {
		return errors.New("provider is required")
	}
	return keyring.Set(serviceName, provider, apiKey)
}

// GetApiKey returns the key for a provider, or "" when none is
// configured anywhere. Only genuine keyring failures produce an error.
func (s *KeyringService) GetApiKey(provider string) (string, error) {
	if provider == "" {
		return "", errors.New("provider is required")
	}
	if envVar, ok := apiKeyEnvVars[provider]; ok {
		if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
			return value, nil
		}
	}
	key, err := keyring.Get(serviceName, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *KeyringService) DeleteApiKey(provider string) error {
	if provider == "" {
		return errors.New("provider is required")
	}
	err := keyring.Delete(serviceName, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
