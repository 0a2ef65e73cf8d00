package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFromReader_FullConfig(t *testing.T) {
	yml := `
server:
  listen_addr: ":8080"
  log_level: debug
llm:
  router:
    name: openai
    api_key: sk-test
    model: gpt-4.1-mini
    timeout: 30s
  reasoner:
    name: anthropic
    api_key: sk-ant
    model: claude-sonnet-4-20250514
  fallbacks:
    - name: ollama
      base_url: http://localhost:11434
      model: llama3.3
registry:
  url: http://biotools:9000/mcp
  call_timeout: 15s
`
	cfg, err := LoadFromReader(strings.NewReader(yml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("log_level = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.LLM.Router.Name != "openai" || cfg.LLM.Router.Model != "gpt-4.1-mini" {
		t.Errorf("router = %+v", cfg.LLM.Router)
	}
	if cfg.LLM.Router.Timeout != 30*time.Second {
		t.Errorf("router timeout = %s, want 30s", cfg.LLM.Router.Timeout)
	}
	if cfg.LLM.Reasoner.Name != "anthropic" {
		t.Errorf("reasoner name = %q, want anthropic", cfg.LLM.Reasoner.Name)
	}
	if len(cfg.LLM.Fallbacks) != 1 || cfg.LLM.Fallbacks[0].Name != "ollama" {
		t.Errorf("fallbacks = %+v", cfg.LLM.Fallbacks)
	}
	if cfg.Registry.URL != "http://biotools:9000/mcp" {
		t.Errorf("registry url = %q", cfg.Registry.URL)
	}
	if cfg.Registry.CallTimeout != 15*time.Second {
		t.Errorf("call_timeout = %s, want 15s", cfg.Registry.CallTimeout)
	}
}

func TestLoadFromReader_AppliesDefaults(t *testing.T) {
	yml := `
llm:
  router:
    api_key: sk-test
`
	cfg, err := LoadFromReader(strings.NewReader(yml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != DefaultListenAddr {
		t.Errorf("listen_addr = %q, want default %q", cfg.Server.ListenAddr, DefaultListenAddr)
	}
	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("log_level = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Registry.URL != DefaultRegistryURL {
		t.Errorf("registry url = %q, want default %q", cfg.Registry.URL, DefaultRegistryURL)
	}
	if cfg.LLM.Router.Model != DefaultRouterModel {
		t.Errorf("router model = %q, want default %q", cfg.LLM.Router.Model, DefaultRouterModel)
	}
	if cfg.LLM.Reasoner.Model != DefaultReasonerModel {
		t.Errorf("reasoner model = %q, want default %q", cfg.LLM.Reasoner.Model, DefaultReasonerModel)
	}
	if cfg.LLM.Reasoner.APIKey != "sk-test" {
		t.Errorf("reasoner api_key = %q, want inherited router key", cfg.LLM.Reasoner.APIKey)
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	yml := `
server:
  listen_adress: ":8080"
`
	if _, err := LoadFromReader(strings.NewReader(yml)); err == nil {
		t.Error("misspelled field accepted, want decode error")
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name string
		yml  string
		want string
	}{
		{
			name: "bad log level",
			yml:  "server:\n  log_level: verbose\n",
			want: "log_level",
		},
		{
			name: "unknown provider",
			yml:  "llm:\n  router:\n    name: skynet\n    model: t800\n",
			want: "router.name",
		},
		{
			name: "fallback without model",
			yml:  "llm:\n  fallbacks:\n    - name: ollama\n",
			want: "fallbacks[0].model",
		},
		{
			name: "bad registry scheme",
			yml:  "registry:\n  url: ftp://biotools:9000\n",
			want: "http or https",
		},
		{
			name: "negative call timeout",
			yml:  "registry:\n  call_timeout: -5s\n",
			want: "call_timeout",
		},
		{
			name: "negative provider timeout",
			yml:  "llm:\n  router:\n    timeout: -1s\n",
			want: "router.timeout",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tc.yml))
			if err == nil {
				t.Fatal("invalid config accepted")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/bioroute.yaml"); err == nil {
		t.Error("missing file accepted")
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	for _, l := range []LogLevel{LogDebug, LogInfo, LogWarn, LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if LogLevel("trace").IsValid() {
		t.Error("trace should be invalid")
	}
}
