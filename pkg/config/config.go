package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jdgilhuly/workout_log/pkg/generator"
	"github.com/jdgilhuly/workout_log/pkg/provider"
)

// Config holds the top-level workout log configuration.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Timeout    time.Duration             `yaml:"timeout"`
	LogLevel   string                    `yaml:"log_level"`
	LogFormat  string                    `yaml:"log_format"`
	PromptFile string                    `yaml:"prompt_file"`
}

// ServerConfig holds settings for the web server.
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
	System    string `yaml:"system,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
}

// Log formats accepted by LogFormat.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Default returns a Config populated with the models and request shapes
// each provider is called with out of the box.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: 30 * time.Minute,
		},
		Providers: map[string]ProviderConfig{
			string(provider.Claude): {
				Model:     "claude-sonnet-4-5-20250929",
				MaxTokens: 4096,
				APIKeyEnv: "ANTHROPIC_API_KEY",
			},
			string(provider.Gemini): {
				Model:     "gemini-3-flash-preview",
				APIKeyEnv: "GEMINI_API_KEY",
			},
			string(provider.Exaone): {
				Model:     "LGAI-EXAONE/K-EXAONE-236B-A23B",
				MaxTokens: 4096,
				System:    "당신은 전문 헬스 트레이너입니다.",
				APIKeyEnv: "FRIENDLI_TOKEN",
			},
		},
		LogLevel:  "info",
		LogFormat: FormatConsole,
	}
}

// Load reads and parses a YAML config file at the given path.
// It returns an error if the file cannot be read or parsed. Provider fields
// left out of the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	defaults := cfg.Providers
	cfg.Providers = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.Providers = mergeProviders(defaults, cfg.Providers)

	return cfg, nil
}

// LoadOrDefault loads config from the given path. If the file does not exist,
// it returns the default configuration. Other errors (e.g. parse failures)
// are still returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func mergeProviders(defaults, loaded map[string]ProviderConfig) map[string]ProviderConfig {
	out := make(map[string]ProviderConfig, len(defaults))
	for name, p := range defaults {
		out[name] = p
	}
	for name, p := range loaded {
		d := out[name]
		if p.Model != "" {
			d.Model = p.Model
		}
		if p.BaseURL != "" {
			d.BaseURL = p.BaseURL
		}
		if p.MaxTokens != 0 {
			d.MaxTokens = p.MaxTokens
		}
		if p.System != "" {
			d.System = p.System
		}
		if p.APIKeyEnv != "" {
			d.APIKeyEnv = p.APIKeyEnv
		}
		out[name] = d
	}
	return out
}

// ResolveAPIKey reads the API key for the provider from the environment
// variable specified in that provider's APIKeyEnv field.
func (c *Config) ResolveAPIKey(id provider.ID) (string, error) {
	p, ok := c.Providers[string(id)]
	if !ok {
		return "", fmt.Errorf("provider %q not found in config", id)
	}
	if p.APIKeyEnv == "" {
		return "", fmt.Errorf("provider %q has no api_key_env configured", id)
	}
	key := os.Getenv(p.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s for provider %q is not set", p.APIKeyEnv, id)
	}
	return key, nil
}

// HTTPClient returns the client shared by all provider backends. A zero
// Timeout leaves requests unbounded.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.Timeout}
}

// Routes builds one generator route per provider, each backend using client.
func (c *Config) Routes(client *http.Client) map[provider.ID]generator.Route {
	routes := make(map[provider.ID]generator.Route, len(provider.IDs()))
	for _, id := range provider.IDs() {
		p := c.Providers[string(id)]
		opts := []provider.Option{
			provider.WithHTTPClient(client),
			provider.WithBaseURL(p.BaseURL),
		}

		var backend provider.Provider
		switch id {
		case provider.Claude:
			backend = provider.NewAnthropicProvider(opts...)
		case provider.Gemini:
			backend = provider.NewGeminiProvider(opts...)
		case provider.Exaone:
			backend = provider.NewFriendliProvider(opts...)
		}

		routes[id] = generator.Route{
			Provider:  backend,
			Model:     p.Model,
			System:    p.System,
			MaxTokens: p.MaxTokens,
		}
	}
	return routes
}

// Validate checks the config for required fields and returns a descriptive
// error if any are missing or invalid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("server.session_ttl must be > 0, got %s", c.Server.SessionTTL))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0, got %s", c.Timeout))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q is not a valid level", c.LogLevel))
	}
	switch c.LogFormat {
	case "", FormatConsole, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log_format must be %q or %q, got %q", FormatConsole, FormatJSON, c.LogFormat))
	}

	for name, p := range c.Providers {
		if _, err := provider.ParseID(name); err != nil {
			errs = append(errs, fmt.Errorf("providers: %w", err))
			continue
		}
		if p.Model == "" {
			errs = append(errs, fmt.Errorf("provider %q: model is required", name))
		}
		if p.MaxTokens < 0 {
			errs = append(errs, fmt.Errorf("provider %q: max_tokens must be >= 0, got %d", name, p.MaxTokens))
		}
	}
	for _, id := range provider.IDs() {
		if _, ok := c.Providers[string(id)]; !ok {
			errs = append(errs, fmt.Errorf("provider %q is not configured", id))
		}
	}

	return errors.Join(errs...)
}
