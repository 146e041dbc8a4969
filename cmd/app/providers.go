package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/dealscout/dealscout/internal/domain/catalog"
	"github.com/dealscout/dealscout/internal/domain/session"
	"github.com/dealscout/dealscout/internal/infra/config"
	"github.com/dealscout/dealscout/internal/infra/detailstore"
	"github.com/dealscout/dealscout/internal/infra/llm/genai"
	httpiface "github.com/dealscout/dealscout/internal/interface/http"
)

func provideGenaiClient(cfg *config.Config) (*genai.Client, error) {
	return genai.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
}

func provideGatewayConfig(cfg *config.Config) catalog.GatewayConfig {
	return catalog.GatewayConfig{
		Temperature:    cfg.LLM.Temperature,
		BatchSize:      cfg.Search.BatchSize,
		MoreBatchSize:  cfg.Search.MoreBatchSize,
		HistoryDays:    cfg.Search.HistoryDays,
		PredictionDays: cfg.Search.PredictionDays,
	}
}

func provideSessionConfig(cfg *config.Config) session.Config {
	return session.Config{
		DebounceInterval: cfg.Search.DebounceInterval,
		CallTimeout:      cfg.LLM.Timeout,
		IdleTTL:          cfg.Session.IdleTTL,
		SweepInterval:    cfg.Session.SweepInterval,
	}
}

func provideDetailStore(cfg *config.Config, logger *slog.Logger) catalog.DetailStore {
	if cfg.Store.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return detailstore.NewMemoryStore(cfg.Store.CacheTTL)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return detailstore.NewMemoryStore(cfg.Store.CacheTTL)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
		} else {
			logger.Info("valkey detail store enabled", "addr", cfg.Store.Valkey.Addr)
			return detailstore.NewValkeyStore(client, "deal", cfg.Store.CacheTTL)
		}
	}
	return detailstore.NewMemoryStore(cfg.Store.CacheTTL)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Store.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Store.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Store.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideHandler(sessions *session.Manager, cfg *config.Config, logger *slog.Logger) *httpiface.Handler {
	return httpiface.NewHandler(sessions, cfg.Search.TrendingLimit, logger)
}

func provideServer(cfg *config.Config, handler *httpiface.Handler) *http.Server {
	return httpiface.NewRouter(cfg, handler)
}
