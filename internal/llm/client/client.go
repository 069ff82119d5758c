package client

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const (
	DefaultMaxTokens    = 4096
	ValidationMaxTokens = 2048

	MaxRetries     = 3
	RetryBaseDelay = 1 * time.Second
	RetryMaxDelay  = 30 * time.Second
)

// Response is one completed chat call with token accounting.
type Response struct {
	Content      string
	Model        string
	Provider     string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64
	FinishReason string
	LatencyMS    float64
}

// Pricing is USD per million tokens. Zero values produce zero-cost
// responses.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// UsageStats accumulates token consumption across calls. Safe for
// concurrent use.
type UsageStats struct {
	mu                sync.Mutex
	TotalInputTokens  int
	TotalOutputTokens int
	TotalCostUSD      float64
	RequestCount      int
}

func (u *UsageStats) record(resp *Response) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.TotalInputTokens += resp.InputTokens
	u.TotalOutputTokens += resp.OutputTokens
	u.TotalCostUSD += resp.CostUSD
	u.RequestCount++
}

// Snapshot returns a copy of the accumulated stats.
func (u *UsageStats) Snapshot() (inputTokens, outputTokens, requests int, costUSD float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.TotalInputTokens, u.TotalOutputTokens, u.RequestCount, u.TotalCostUSD
}

// LLMClient wraps one provider chat model behind a uniform send API with
// exponential-backoff retry and cost tracking.
type LLMClient struct {
	chatModel  model.BaseChatModel
	provider   string
	modelName  string
	maxRetries int
	pricing    Pricing
	usage      UsageStats
}

type ClaudeModelOptions struct {
	Model string
	// MaxTokens is required by the Anthropic API; 0 falls back to 8192.
	MaxTokens int
}

type OpenAIModelOptions struct {
	Model string
}

type GeminiModelOptions struct {
	Model string
}

func NewClaudeClient(ctx context.Context, apiKey string, opts ClaudeModelOptions) (*LLMClient, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 8192
	}
	chatModel, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:    apiKey,
		Model:     opts.Model,
		MaxTokens: opts.MaxTokens,
	})
	if err != nil {
		log.Printf("Error creating Claude client: %v", err)
		return nil, fmt.Errorf("create claude chat model: %w", err)
	}
	return &LLMClient{
		chatModel:  chatModel,
		provider:   "anthropic",
		modelName:  opts.Model,
		maxRetries: MaxRetries,
	}, nil
}

func NewOpenAIClient(ctx context.Context, apiKey string, opts OpenAIModelOptions) (*LLMClient, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey: apiKey,
		Model:  opts.Model,
	})
	if err != nil {
		log.Printf("Error creating OpenAI client: %v", err)
		return nil, fmt.Errorf("create openai chat model: %w", err)
	}
	return &LLMClient{
		chatModel:  chatModel,
		provider:   "openai",
		modelName:  opts.Model,
		maxRetries: MaxRetries,
	}, nil
}

func NewGeminiClient(ctx context.Context, apiKey string, opts GeminiModelOptions) (*LLMClient, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Printf("Error creating genai client: %v", err)
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: genaiClient,
		Model:  opts.Model,
	})
	if err != nil {
		log.Printf("Error creating Gemini chat model: %v", err)
		return nil, fmt.Errorf("create gemini chat model: %w", err)
	}
	return &LLMClient{
		chatModel:  chatModel,
		provider:   "gemini",
		modelName:  opts.Model,
		maxRetries: MaxRetries,
	}, nil
}

func (c *LLMClient) Provider() string  { return c.provider }
func (c *LLMClient) ModelName() string { return c.modelName }

// SetPricing attaches catalog pricing so responses carry cost estimates.
func (c *LLMClient) SetPricing(p Pricing) { c.pricing = p }

// Usage exposes the accumulated stats for reporting.
func (c *LLMClient) Usage() *UsageStats { return &c.usage }

// MessageOptions tune a single send. Zero values pick the defaults
// (temperature 0.7, DefaultMaxTokens).
type MessageOptions struct {
	MaxTokens   int
	Temperature float32
}

// SendMessage runs one system+user chat completion with retry.
func (c *LLMClient) SendMessage(ctx context.Context, systemPrompt, userPrompt string, opts MessageOptions) (*Response, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.7
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}
	return c.requestWithRetry(ctx, messages, opts)
}

// SendValidation runs a cheaper, low-temperature completion used for
// checking step outputs.
func (c *LLMClient) SendValidation(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	return c.SendMessage(ctx, systemPrompt, userPrompt, MessageOptions{
		MaxTokens:   ValidationMaxTokens,
		Temperature: 0.3,
	})
}

func (c *LLMClient) requestWithRetry(ctx context.Context, messages []*schema.Message, opts MessageOptions) (*Response, error) {
	var lastErr error
	start := time.Now()

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		raw, err := c.chatModel.Generate(ctx, messages,
			model.WithTemperature(opts.Temperature),
			model.WithMaxTokens(opts.MaxTokens),
		)
		if err == nil {
			resp := c.buildResponse(raw, time.Since(start))
			c.usage.record(resp)
			log.Printf("LLM response: provider=%s model=%s in=%d out=%d cost=$%.6f latency=%.0fms",
				c.provider, c.modelName, resp.InputTokens, resp.OutputTokens, resp.CostUSD, resp.LatencyMS)
			return resp, nil
		}

		lastErr = err
		if !IsRetryable(err) || attempt == c.maxRetries {
			break
		}
		delay := BackoffDelay(attempt)
		log.Printf("LLM attempt %d/%d failed (%v), retrying in %s", attempt, c.maxRetries, err, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%s completion failed: %w", c.provider, lastErr)
}

func (c *LLMClient) buildResponse(raw *schema.Message, elapsed time.Duration) *Response {
	resp := &Response{
		Model:     c.modelName,
		Provider:  c.provider,
		LatencyMS: float64(elapsed.Milliseconds()),
	}
	if raw == nil {
		return resp
	}
	resp.Content = raw.Content
	if raw.ResponseMeta != nil {
		resp.FinishReason = raw.ResponseMeta.FinishReason
		if usage := raw.ResponseMeta.Usage; usage != nil {
			resp.InputTokens = usage.PromptTokens
			resp.OutputTokens = usage.CompletionTokens
			resp.TotalTokens = usage.TotalTokens
		}
	}
	resp.CostUSD = CalculateCost(resp.InputTokens, resp.OutputTokens, c.pricing)
	return resp
}

// CalculateCost prices a call in USD from per-million-token rates, rounded
// to 8 decimal places.
func CalculateCost(inputTokens, outputTokens int, p Pricing) float64 {
	cost := (float64(inputTokens)*p.InputPerM + float64(outputTokens)*p.OutputPerM) / 1_000_000
	return math.Round(cost*1e8) / 1e8
}

// BackoffDelay doubles per attempt from RetryBaseDelay up to RetryMaxDelay.
func BackoffDelay(attempt int) time.Duration {
	delay := RetryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > RetryMaxDelay {
		delay = RetryMaxDelay
	}
	return delay
}

var retryableFragments = []string{
	"rate limit",
	"rate_limit",
	"429",
	"500",
	"502",
	"503",
	"529",
	"overloaded",
	"timeout",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"temporarily unavailable",
}

// IsRetryable classifies transport-level failures worth retrying. Provider
// SDK errors only surface as strings here, so this matches substrings.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range retryableFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
