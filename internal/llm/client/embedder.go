package client

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/genai"
)

// Embedder produces embedding vectors for knowledge-base search.
type Embedder struct {
	client     *genai.Client
	model      string
	maxRetries int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*Embedder, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Printf("Error creating genai embedding client: %v", err)
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Embedder{
		client:     genaiClient,
		model:      model,
		maxRetries: MaxRetries,
	}, nil
}

func (e *Embedder) Model() string { return e.model }

// Embed returns the embedding vector for one text, retrying transient
// failures the same way chat calls do.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
		if err == nil {
			if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
				return nil, fmt.Errorf("empty embedding for model %s", e.model)
			}
			return resp.Embeddings[0].Values, nil
		}

		lastErr = err
		if !IsRetryable(err) || attempt == e.maxRetries {
			break
		}
		delay := BackoffDelay(attempt)
		log.Printf("Embedding attempt %d/%d failed (%v), retrying in %s", attempt, e.maxRetries, err, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("embedding failed: %w", lastErr)
}
