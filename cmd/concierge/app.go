// cmd/concierge/app.go
package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"travel-concierge/internal/common/config"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/common/observability"
	"travel-concierge/internal/llm"
	"travel-concierge/internal/orchestrator"
	"travel-concierge/pkg/catalog"
)

// app holds everything a command needs; close releases it in reverse order.
type app struct {
	cfg       *config.Config
	zap       *zap.Logger
	log       logger.Logger
	concierge *orchestrator.Concierge
	closers   []func() error
}

func bootstrap() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)
	a := &app{cfg: cfg, zap: zapLog, log: log}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("otel exporter unavailable, continuing with tracing only", map[string]interface{}{"error": err.Error()})
	}
	a.closers = append(a.closers, func() error { return obs.Shutdown(context.Background()) })

	client, closeClient, err := llm.New(cfg, log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("llm client: %w", err)
	}
	a.closers = append(a.closers, closeClient)

	cat, err := catalog.Load(cfg.Fallback.CatalogPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("fallback catalog: %w", err)
	}

	a.concierge = orchestrator.New(cfg, client, cat, log, orchestrator.WithObservability(obs))
	log.Info("concierge ready", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"provider":    cfg.LLM.Provider,
	})
	return a, nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("shutdown step failed", map[string]interface{}{"error": err.Error()})
		}
	}
	_ = a.zap.Sync()
}
