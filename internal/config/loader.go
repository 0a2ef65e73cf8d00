package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidLLMProviders lists the recognised model provider names.
var ValidLLMProviders = []string{
	"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq",
}

// Defaults applied by [Load] for fields left empty.
const (
	DefaultListenAddr    = ":5050"
	DefaultRegistryURL   = "http://localhost:9000/mcp"
	DefaultRouterModel   = "gpt-4.1-mini"
	DefaultReasonerModel = "gpt-4.1"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals. Unknown YAML fields are rejected so typos fail loudly at
// startup rather than silently configuring nothing.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills empty fields with their documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Registry.URL == "" {
		cfg.Registry.URL = DefaultRegistryURL
	}
	if cfg.LLM.Router.Name == "" {
		cfg.LLM.Router.Name = "openai"
	}
	if cfg.LLM.Router.Model == "" {
		cfg.LLM.Router.Model = DefaultRouterModel
	}
	if cfg.LLM.Reasoner.Name == "" {
		cfg.LLM.Reasoner.Name = "openai"
	}
	if cfg.LLM.Reasoner.Model == "" {
		cfg.LLM.Reasoner.Model = DefaultReasonerModel
	}
	// An unset reasoner key falls back to the router's; the common case is
	// one credential shared by both stages.
	if cfg.LLM.Reasoner.APIKey == "" {
		cfg.LLM.Reasoner.APIKey = cfg.LLM.Router.APIKey
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if err := validateProviderEntry("llm.router", cfg.LLM.Router); err != nil {
		errs = append(errs, err)
	}
	if err := validateProviderEntry("llm.reasoner", cfg.LLM.Reasoner); err != nil {
		errs = append(errs, err)
	}
	for i, fb := range cfg.LLM.Fallbacks {
		if err := validateProviderEntry(fmt.Sprintf("llm.fallbacks[%d]", i), fb); err != nil {
			errs = append(errs, err)
		}
	}

	if u, err := url.Parse(cfg.Registry.URL); err != nil {
		errs = append(errs, fmt.Errorf("registry.url %q is not a valid URL: %w", cfg.Registry.URL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("registry.url %q must use http or https", cfg.Registry.URL))
	}
	if cfg.Registry.CallTimeout < 0 {
		errs = append(errs, fmt.Errorf("registry.call_timeout must not be negative, got %s", cfg.Registry.CallTimeout))
	}

	return errors.Join(errs...)
}

// validateProviderEntry checks one provider block.
func validateProviderEntry(prefix string, e ProviderEntry) error {
	if !slices.Contains(ValidLLMProviders, e.Name) {
		return fmt.Errorf("%s.name %q is not a recognised provider; valid values: %v", prefix, e.Name, ValidLLMProviders)
	}
	if e.Model == "" {
		return fmt.Errorf("%s.model is required", prefix)
	}
	if e.Timeout < 0 {
		return fmt.Errorf("%s.timeout must not be negative, got %s", prefix, e.Timeout)
	}
	return nil
}
