package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/leadflow/internal/agent"
	"github.com/haasonsaas/leadflow/internal/agent/providers"
	"github.com/haasonsaas/leadflow/internal/agent/tools"
	"github.com/haasonsaas/leadflow/internal/audit"
	"github.com/haasonsaas/leadflow/internal/config"
	"github.com/haasonsaas/leadflow/internal/observability"
	"github.com/haasonsaas/leadflow/internal/rocketreach"
	"github.com/haasonsaas/leadflow/internal/settings"
	"github.com/haasonsaas/leadflow/internal/storage"
	"github.com/haasonsaas/leadflow/internal/usage"
	"github.com/haasonsaas/leadflow/internal/vault"
)

// app bundles the wired core components behind the CLI commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	stores   storage.StoreSet
	vault    *vault.Vault
	resolver *settings.Resolver
	admin    *settings.Admin
	audit    *audit.Recorder
	client   *rocketreach.Client
	tracker  *usage.Tracker
	metrics  *observability.Metrics
}

// newApp builds the application from config.
func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(logger)

	var stores storage.StoreSet
	switch cfg.Database.Driver {
	case "memory":
		stores = storage.MemoryStores()
	default:
		db, err := storage.NewSQLiteStores(cfg.Database.Path, storage.DefaultSQLiteConfig())
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		stores = db.StoreSet()
	}

	v := vault.New(cfg.Vault.Passphrase)
	if cfg.Vault.Passphrase == "" {
		logger.Warn("vault passphrase not set; credentials stored base64-encoded only")
	}

	metrics := observability.NewMetrics(nil)
	recorder := audit.NewRecorder(stores.Audit, logger)
	cache := settings.NewTTLCache(cfg.Provider.CacheTTL)
	resolver := settings.NewResolver(rocketreach.Provider, stores.Settings, v, cache, logger)
	admin := settings.NewAdmin(rocketreach.Provider, stores.Settings, v, resolver, recorder)

	tracker := usage.NewTracker()
	usageSink := usage.MultiObserver{
		usage.NewStoreObserver(stores.Usage, logger),
		tracker,
		observability.NewUsageObserver(metrics),
	}
	client := rocketreach.NewClient(resolver, logger,
		rocketreach.WithUsageObserver(usageSink),
		rocketreach.WithHTTPClient(&http.Client{Timeout: cfg.Provider.Timeout}),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		stores:   stores,
		vault:    v,
		resolver: resolver,
		admin:    admin,
		audit:    recorder,
		client:   client,
		tracker:  tracker,
		metrics:  metrics,
	}, nil
}

// Close releases storage resources.
func (a *app) Close() error {
	return a.stores.Close()
}

// newExecutor wires an agent executor for one tenant and user. Tools that
// touch tenant data are bound at construction.
func (a *app) newExecutor(tenantID, userID string) (*agent.Executor, error) {
	provider, err := providers.New(a.cfg.Model.Kind, providers.Config{
		APIKey:  a.cfg.Model.APIKey,
		BaseURL: a.cfg.Model.BaseURL,
		Model:   a.cfg.Model.Model,
	})
	if err != nil {
		return nil, err
	}

	registry := agent.NewToolRegistry()
	for _, tool := range []agent.Tool{
		tools.NewSearchLeads(a.client, tenantID),
		tools.NewSaveLead(a.stores.Leads, tenantID, userID),
		tools.NewGenerateEmail(provider),
		tools.NewSendEmail(nil),
		tools.NewVisitWebsite(nil),
	} {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	return agent.NewExecutor(a.stores.Tasks, provider, registry, a.logger,
		agent.WithMaxTurns(a.cfg.Agent.MaxTurns),
		agent.WithMaxTokens(a.cfg.Agent.MaxTokens),
		agent.WithStepObserver(a.metrics.ObserveTool),
	), nil
}

// serveMetrics exposes the Prometheus endpoint when enabled. Returns a stop
// function.
func (a *app) serveMetrics() func() {
	if !a.cfg.Metrics.Enabled {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	return func() { server.Close() }
}
