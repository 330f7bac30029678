package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/growthdesk/growthdesk/pkg/agent"
	"github.com/growthdesk/growthdesk/pkg/config"
	"github.com/growthdesk/growthdesk/pkg/metrics"
	"github.com/growthdesk/growthdesk/pkg/model/gemini"
	"github.com/growthdesk/growthdesk/pkg/server"
	"github.com/growthdesk/growthdesk/pkg/store/sqlite"
	"github.com/growthdesk/growthdesk/pkg/tools"
)

func main() {
	configPath := flag.String("config", "growthdesk.toml", "path to config file")
	flag.Parse()

	// Setup logger.
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		slog.Error("GEMINI_API_KEY environment variable not set")
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize store.
	os.MkdirAll(filepath.Dir(cfg.DBPath()), 0755)
	st, err := sqlite.New(cfg.DBPath())
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Initialize model provider.
	provider, err := gemini.New(ctx, apiKey)
	if err != nil {
		slog.Error("Failed to initialize Gemini provider", "error", err)
		os.Exit(1)
	}

	// Wire the tool-calling loop. The metric store loads its snapshots
	// lazily on first tool use.
	metricStore := metrics.NewStore(cfg.MetricsPath(), cfg.ContentPath())
	registry := tools.NewRegistry()
	executor := tools.NewExecutor(registry, metricStore)
	loop := agent.New(provider, registry, executor, cfg.Model.Name, cfg.Agent.MaxIterations)

	// Start server.
	srv := server.New(st, st, provider, loop)
	if err := srv.Start(cfg.Server.Addr); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
