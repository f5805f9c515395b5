package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Providers that talk to a remote API. "mock" is also accepted by
// NewProvider and needs no endpoint.
var providerNames = []string{"anthropic", "openai", "gemini", "openrouter"}

// Endpoint is how to reach one provider. An empty BaseURL means the
// vendor's public API.
type Endpoint struct {
	APIKey  string
	Model   string // alias ("claude-haiku") or full model id
	BaseURL string
}

// Config selects a provider and tunes the middleware around it.
type Config struct {
	Provider string

	Anthropic  Endpoint
	OpenAI     Endpoint
	Gemini     Endpoint
	OpenRouter Endpoint

	Retry RetryConfig
	// Timeout bounds one Generate call, retries included.
	Timeout time.Duration
}

// RetryConfig configures exponential backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig uses Anthropic's small model with three attempts inside
// a 20s budget.
func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  Endpoint{Model: "claude-haiku"},
		OpenAI:     Endpoint{Model: "gpt-mini"},
		Gemini:     Endpoint{Model: "gemini-flash-lite"},
		OpenRouter: Endpoint{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 20 * time.Second,
	}
}

// endpoint returns the settings for the named provider, or nil when the
// name has none.
func (c *Config) endpoint(name string) *Endpoint {
	switch name {
	case "anthropic":
		return &c.Anthropic
	case "openai":
		return &c.OpenAI
	case "gemini":
		return &c.Gemini
	case "openrouter":
		return &c.OpenRouter
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ConfigFromEnv applies QUIZCRAFT_LLM_PROVIDER and the per-provider
// QUIZCRAFT_<NAME>_API_KEY, _MODEL and _BASE_URL variables to the
// defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Provider = envOr("QUIZCRAFT_LLM_PROVIDER", cfg.Provider)
	for _, name := range providerNames {
		e := cfg.endpoint(name)
		prefix := "QUIZCRAFT_" + strings.ToUpper(name) + "_"
		e.APIKey = envOr(prefix+"API_KEY", e.APIKey)
		e.Model = envOr(prefix+"MODEL", e.Model)
		e.BaseURL = envOr(prefix+"BASE_URL", e.BaseURL)
	}
	return cfg
}

// SetModel overrides the model of the selected provider. An empty model
// is ignored.
func (c *Config) SetModel(model string) {
	if e := c.endpoint(c.Provider); e != nil && model != "" {
		e.Model = model
	}
}

// vendorKeys is the discovery order for the vendors' own variables.
var vendorKeys = []struct{ provider, env string }{
	{"gemini", "GEMINI_API_KEY"},
	{"openai", "OPENAI_API_KEY"},
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"openrouter", "OPENROUTER_API_KEY"},
}

// DiscoverConfig returns defaults for the first provider whose standard
// API key variable is set.
func DiscoverConfig() (Config, bool) {
	for _, v := range vendorKeys {
		if key := os.Getenv(v.env); key != "" {
			cfg := DefaultConfig()
			cfg.Provider = v.provider
			cfg.endpoint(v.provider).APIKey = key
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks the provider is known and has an API key.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	e := c.endpoint(c.Provider)
	if e == nil {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if e.APIKey == "" {
		return fmt.Errorf("QUIZCRAFT_%s_API_KEY is required for the %s provider",
			strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}

// ResolveConfig reads QUIZCRAFT_* variables. When they leave the
// selected provider without a key, the vendors' standard variables are
// tried instead.
func ResolveConfig() (Config, error) {
	cfg := ConfigFromEnv()
	if cfg.Validate() != nil {
		if found, ok := DiscoverConfig(); ok {
			cfg = found
		}
	}
	return cfg, cfg.Validate()
}
