package models

// LLMModel represents a single language model option exposed to the API.
// Pricing is USD per million tokens and feeds cost estimation on usage
// records.
type LLMModel struct {
	Key              string  `json:"key"`
	DisplayName      string  `json:"displayName"`
	APIName          string  `json:"apiName"`
	ProviderID       string  `json:"providerId"`
	ProviderName     string  `json:"providerName"`
	ContextWindow    int     `json:"contextWindow,omitempty"`
	InputPricePerM   float64 `json:"inputPricePerM"`
	OutputPricePerM  float64 `json:"outputPricePerM"`
	SupportsThinking bool    `json:"supportsThinking,omitempty"`
	Enabled          bool    `json:"enabled"`
}

// LLMModelGroup groups models by their provider for presentation.
type LLMModelGroup struct {
	ProviderID   string     `json:"providerId"`
	ProviderName string     `json:"providerName"`
	Models       []LLMModel `json:"models"`
}
