// Command bodhikit-server runs the Buddhist agent builder HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sanghalabs/bodhikit"
	"github.com/sanghalabs/bodhikit/internal/logging"
	"github.com/sanghalabs/bodhikit/providers/openai"
	"github.com/sanghalabs/bodhikit/server"
	"github.com/sanghalabs/bodhikit/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	inMemory := flag.Bool("memory", false, "use in-memory stores instead of SQLite")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	logger := logging.ResolveLogger(logging.LoggingConfig{Level: parseLevel(cfg.LogLevel)})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := server.SetupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	var (
		agents        store.AgentStore
		knowledge     store.KnowledgeStore
		users         store.UserStore
		apiKeys       store.APIKeyStore
		approvalStore bodhikit.ApprovalStore
	)
	if *inMemory {
		agents = store.NewMemoryAgentStore()
		knowledge = store.NewMemoryKnowledgeStore()
		users = store.NewMemoryUserStore()
		apiKeys = store.NewMemoryAPIKeyStore()
		approvalStore = bodhikit.NewMemoryApprovalStore()
	} else {
		db, err := store.Open(cfg.DatabasePath)
		if err != nil {
			logger.Error("open database failed", "path", cfg.DatabasePath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		agents = store.NewSQLiteAgentStore(db)
		knowledge = store.NewSQLiteKnowledgeStore(db)
		users = store.NewSQLiteUserStore(db)
		apiKeys = store.NewSQLiteAPIKeyStore(db)
		approvalStore = bodhikit.NewSQLiteApprovalStore(db)
	}

	provider := openai.New(cfg.OpenAIAPIKey, logger)

	registry := bodhikit.NewRegistry()
	if err := bodhikit.RegisterBuilderTools(registry, agents, knowledge, provider); err != nil {
		logger.Error("register tools failed", "error", err)
		os.Exit(1)
	}

	approvals := bodhikit.NewManager(bodhikit.ManagerConfig{
		Store:  approvalStore,
		TTL:    cfg.ApprovalTTL,
		Logger: logger,
	})
	gateway := bodhikit.NewGateway(bodhikit.GatewayConfig{
		Registry:  registry,
		Approvals: approvals,
		Logger:    logger,
	})
	resolver := bodhikit.NewResolver(bodhikit.ResolverConfig{
		Registry:  registry,
		Approvals: approvals,
		Logger:    logger,
	})

	builder, err := bodhikit.NewBuilder(bodhikit.Config{
		Provider:     provider,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		Language:     bodhikit.Language(cfg.Language),
		SystemPrompt: bodhikit.DefaultSystemPrompt,
		Registry:     registry,
		Gateway:      gateway,
		Resolver:     resolver,
		Logging:      logging.LoggingConfig{Logger: logger},
		Timeouts:     bodhikit.DefaultTimeoutConfig(),
		Retry:        bodhikit.DefaultRetryConfig(),
	})
	if err != nil {
		logger.Error("build runtime failed", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, server.Deps{
		Builder:   builder,
		Approvals: approvals,
		Agents:    agents,
		Knowledge: knowledge,
		Users:     users,
		APIKeys:   apiKeys,
		Logger:    logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
