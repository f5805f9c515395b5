package llm

import "errors"

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider is an OpenAIProvider aimed at OpenRouter's
// compatible API. Model ids are vendor-qualified ("google/gemini-2.0-flash-exp")
// and are used as given.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider for e.
func NewOpenRouterProvider(e Endpoint) (*OpenRouterProvider, error) {
	if e.APIKey == "" {
		return nil, errors.New("openrouter API key is required")
	}
	if e.BaseURL == "" {
		e.BaseURL = openRouterBaseURL
	}
	inner, err := NewOpenAIProvider(e)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
