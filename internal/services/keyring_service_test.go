package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zalando/go-keyring"
)

func TestKeyringService_GetApiKey_PrefersEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")

	svc := NewKeyringService()
	key, err := svc.GetApiKey("anthropic")
	assert.NoError(t, err)
	assert.Equal(t, "sk-from-env", key)
}

func TestKeyringService_GetApiKey_RequiresProvider(t *testing.T) {
	svc := NewKeyringService()
	_, err := svc.GetApiKey("")
	assert.ErrorContains(t, err, "provider is required")
}

func TestKeyringService_GetApiKey_MissingEverywhereReturnsEmpty(t *testing.T) {
	keyring.MockInit()
	t.Setenv("OPENAI_API_KEY", "")

	svc := NewKeyringService()
	key, err := svc.GetApiKey("openai")
	assert.NoError(t, err)
	assert.Equal(t, "", key)
}

func TestKeyringService_StoreApiKey_RoundTrip(t *testing.T) {
	keyring.MockInit()
	t.Setenv("GEMINI_API_KEY", "")

	svc := NewKeyringService()
	assert.NoError(t, svc.StoreApiKey("gemini", "sk-stored"))

	key, err := svc.GetApiKey("gemini")
	assert.NoError(t, err)
	assert.Equal(t, "sk-stored", key)

	assert.NoError(t, svc.DeleteApiKey("gemini"))
	key, err = svc.GetApiKey("gemini")
	assert.NoError(t, err)
	assert.Equal(t, "", key)
}

func TestKeyringService_StoreApiKey_RejectsEmptyInput(t *testing.T) {
	svc := NewKeyringService()
	assert.ErrorContains(t, svc.StoreApiKey("anthropic", "   "), "API key is empty")
	assert.ErrorContains(t, svc.StoreApiKey("", "sk-x"), "provider is required")
}

func TestKeyringService_DeleteApiKey_MissingKeyIsNoError(t *testing.T) {
	keyring.MockInit()

	svc := NewKeyringService()
	assert.NoError(t, svc.DeleteApiKey("openai"))
}
