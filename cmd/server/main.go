// Command server runs the chat-insights HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-insights/internal/analysis"
	"chat-insights/internal/api"
	"chat-insights/internal/config"
	"chat-insights/internal/logging"
	"chat-insights/internal/provider"
	"chat-insights/internal/vectorindex"
)

func main() {
	var (
		addr       = flag.String("addr", "", "listen address, overrides config host:port")
		configFile = flag.String("config", "", "path to YAML config file")
	)
	flag.Parse()

	if *configFile != "" {
		_ = os.Setenv("CHAT_INSIGHTS_CONFIG_FILE", *configFile)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level))

	adapters := buildAdapters(cfg, logger)
	orchestrator := analysis.New(cfg, adapters, logger)

	var embedder provider.Embedder
	if cfg.Embedding.Enabled() {
		oe, err := provider.NewOpenAIEmbedder(cfg.Embedding)
		if err != nil {
			logger.Error("failed to build embedder", "error", err.Error())
			os.Exit(1)
		}
		embedder = oe
	} else {
		logger.Warn("no embedding provider configured, index will use fallback vectors")
	}

	index := vectorindex.New(embedder, &vectorindex.Config{
		BatchSize:       cfg.Index.BatchSize,
		BatchDelay:      cfg.Index.BatchDelay(),
		SimilarityFloor: cfg.Index.SimilarityFloor,
	}, logger)

	router := api.NewRouter(orchestrator, index, logger)

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	server := &http.Server{
		Addr:         listenAddr,
		Handler:      router.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", listenAddr, "providers", len(adapters))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err.Error())
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// buildAdapters assembles the provider cascade in configured order, skipping
// providers without credentials.
func buildAdapters(cfg *config.Config, logger logging.Logger) []provider.Adapter {
	byName := map[string]config.ChatProviderConfig{
		"openai":    cfg.OpenAI,
		"anthropic": cfg.Anthropic,
		"gemini":    cfg.Gemini,
	}

	adapters := make([]provider.Adapter, 0, len(cfg.Orchestrator.ProviderOrder))
	for _, name := range cfg.Orchestrator.ProviderOrder {
		pc, ok := byName[name]
		if !ok {
			logger.Warn("unknown provider in cascade order", "provider", name)
			continue
		}
		if !pc.Enabled() {
			logger.Info("provider not configured, skipping", "provider", name)
			continue
		}

		var (
			adapter provider.Adapter
			err     error
		)
		switch name {
		case "openai":
			adapter, err = provider.NewOpenAIAdapter(pc)
		case "anthropic":
			adapter, err = provider.NewAnthropicAdapter(pc)
		case "gemini":
			adapter, err = provider.NewGeminiAdapter(pc)
		}
		if err != nil {
			logger.Warn("failed to build provider adapter", "provider", name, "error", err.Error())
			continue
		}
		adapters = append(adapters, adapter)
	}

	if len(adapters) == 0 {
		logger.Warn("no providers configured, analysis will be heuristic only")
	}
	return adapters
}
