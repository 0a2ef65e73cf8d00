// Package config provides the configuration schema and loader for the
// bioroute server.
package config

import "time"

// LogLevel controls log verbosity for the bioroute server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for bioroute.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Registry RegistryConfig `yaml:"registry"`
}

// ServerConfig holds network and logging settings for the bioroute server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":5050").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// LLMConfig declares the model providers for the two pipeline stages.
// Router and Reasoner may name different providers or the same provider
// with different models.
type LLMConfig struct {
	// Router configures the provider for the routing call.
	Router ProviderEntry `yaml:"router"`

	// Reasoner configures the provider for the reasoning call.
	Reasoner ProviderEntry `yaml:"reasoner"`

	// Fallbacks lists providers tried in order when the primary provider of
	// either stage fails. Optional.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// ProviderEntry is the common configuration block shared by all model
// providers.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "openai", "anthropic",
	// "ollama").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4.1-mini").
	Model string `yaml:"model"`

	// Timeout bounds every completion call to this provider. Zero uses the
	// pipeline default.
	Timeout time.Duration `yaml:"timeout"`
}

// RegistryConfig holds the connection settings for the remote tool registry.
type RegistryConfig struct {
	// URL is the base URL of the tool registry endpoint
	// (e.g., "http://localhost:9000/mcp").
	URL string `yaml:"url"`

	// CallTimeout bounds every tool invocation. Zero uses the client default.
	CallTimeout time.Duration `yaml:"call_timeout"`
}
