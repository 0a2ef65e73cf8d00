// Command bioroute is the main entry point for the bioroute agent server:
// an HTTP service that routes biochemistry questions through an LLM router,
// a remote MCP tool registry and an LLM reasoner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/bioroute/internal/agent"
	"github.com/MrWong99/bioroute/internal/config"
	"github.com/MrWong99/bioroute/internal/health"
	"github.com/MrWong99/bioroute/internal/observe"
	"github.com/MrWong99/bioroute/internal/registry/mcpclient"
	"github.com/MrWong99/bioroute/internal/resilience"
	"github.com/MrWong99/bioroute/internal/server"
	"github.com/MrWong99/bioroute/pkg/provider/llm"
	"github.com/MrWong99/bioroute/pkg/provider/llm/anyllm"
	"github.com/MrWong99/bioroute/pkg/provider/llm/openai"
)

const version = "1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "bioroute: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "bioroute: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("bioroute starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"registry_url", cfg.Registry.URL,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "bioroute",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	metrics := observe.DefaultMetrics()

	// ── Tool registry ─────────────────────────────────────────────────────────
	var regOpts []mcpclient.Option
	if cfg.Registry.CallTimeout > 0 {
		regOpts = append(regOpts, mcpclient.WithCallTimeout(cfg.Registry.CallTimeout))
	}
	reg, err := mcpclient.New(cfg.Registry.URL, regOpts...)
	if err != nil {
		slog.Error("failed to create registry client", "err", err)
		return 1
	}

	// ── LLM providers ─────────────────────────────────────────────────────────
	routerLLM, err := buildProviderChain(cfg.LLM.Router, cfg.LLM.Fallbacks)
	if err != nil {
		slog.Error("failed to build router provider", "err", err)
		return 1
	}
	reasonerLLM, err := buildProviderChain(cfg.LLM.Reasoner, cfg.LLM.Fallbacks)
	if err != nil {
		slog.Error("failed to build reasoner provider", "err", err)
		return 1
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	pipeline := agent.NewPipeline(
		agent.NewRouter(routerLLM, reg,
			agent.WithRouterMetrics(metrics),
			agent.WithRouterCallTimeout(cfg.LLM.Router.Timeout),
		),
		agent.NewExecutor(reg, agent.WithExecutorMetrics(metrics)),
		agent.NewReasoner(reasonerLLM,
			agent.WithReasonerMetrics(metrics),
			agent.WithReasonerCallTimeout(cfg.LLM.Reasoner.Timeout),
		),
		agent.WithPipelineMetrics(metrics),
	)

	// ── HTTP server ───────────────────────────────────────────────────────────
	healthHandler := health.New(health.Checker{
		Name: "registry",
		Check: func(ctx context.Context) error {
			_, err := reg.ListTools(ctx)
			return err
		},
	})

	srv := server.New(cfg.Server.ListenAddr, pipeline, reg,
		server.WithHealthHandler(healthHandler),
		server.WithMetrics(metrics),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	slog.Info("server ready — press Ctrl+C to shut down")

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", "err", err)
			return 1
		}
	case <-ctx.Done():
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	exitCode := 0
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		exitCode = 1
	}
	if err := reg.Close(); err != nil {
		slog.Warn("registry close error", "err", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}

	slog.Info("goodbye")
	return exitCode
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// buildProviderChain builds the provider for the given entry and, when
// fallbacks are configured, wraps it in a circuit-breaker fallback chain.
func buildProviderChain(primary config.ProviderEntry, fallbacks []config.ProviderEntry) (llm.Provider, error) {
	p, err := buildProvider(primary)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", primary.Name, err)
	}
	if len(fallbacks) == 0 {
		return p, nil
	}

	chain := resilience.NewLLMFallback(p, primary.Name+"/"+primary.Model, resilience.FallbackConfig{})
	for _, entry := range fallbacks {
		fb, err := buildProvider(entry)
		if err != nil {
			return nil, fmt.Errorf("fallback provider %q: %w", entry.Name, err)
		}
		chain.AddFallback(entry.Name+"/"+entry.Model, fb)
	}
	return chain, nil
}

// buildProvider instantiates a single LLM provider from its config entry.
// "openai" uses the official SDK directly; every other provider goes through
// the any-llm gateway.
func buildProvider(entry config.ProviderEntry) (llm.Provider, error) {
	if entry.Name == "openai" {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	}

	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(entry.Name, entry.Model, opts...)
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
