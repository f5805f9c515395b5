package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizcraft/internal/quiz"
)

// Config is the on-disk configuration. Zero values mean "use the default".
type Config struct {
	Quiz struct {
		Feedback    string `yaml:"feedback"`
		Lives       int    `yaml:"lives"`
		Format      string `yaml:"format"`
		Distractors int    `yaml:"distractors"`
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	Explain struct {
		Enabled     *bool   `yaml:"enabled"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
		Timeout     string  `yaml:"timeout"`
	} `yaml:"explain"`
}

// Load reads YAML config from path. A missing file yields an empty Config.
// QUIZCRAFT_REDIS_ADDR and QUIZCRAFT_EXPLAIN are applied on top.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if v := os.Getenv("QUIZCRAFT_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("QUIZCRAFT_EXPLAIN"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("QUIZCRAFT_EXPLAIN: %w", err)
		}
		cfg.Explain.Enabled = &enabled
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/quizcraft/config.yaml, falling
// back to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "quizcraft", "config.yaml")
}

// QuizConfig converts the quiz section into a session configuration.
func (c Config) QuizConfig() (quiz.Config, error) {
	out := quiz.DefaultConfig()

	feedback, err := quiz.ParseFeedback(c.Quiz.Feedback)
	if err != nil {
		return out, err
	}
	format, err := quiz.ParseFormat(c.Quiz.Format)
	if err != nil {
		return out, err
	}
	out.Feedback = feedback
	out.Format = format
	out.Lives = quiz.Limited(c.Quiz.Lives)
	if c.Quiz.Distractors > 0 {
		out.Distractors = c.Quiz.Distractors
	}
	return out, nil
}

// ExplainEnabled reports whether explanations are requested; on by default.
func (c Config) ExplainEnabled() bool {
	return c.Explain.Enabled == nil || *c.Explain.Enabled
}

// RedisTTL is the explanation cache TTL, 24h by default.
func (c Config) RedisTTL() time.Duration {
	return TTLDuration(c.Redis.TTL, 24*time.Hour)
}

// ExplainTimeout bounds a single explanation request, 15s by default.
func (c Config) ExplainTimeout() time.Duration {
	return TTLDuration(c.Explain.Timeout, 15*time.Second)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
