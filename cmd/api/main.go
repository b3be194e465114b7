package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/quickdeals/api/routes"
	"github.com/angelmondragon/quickdeals/internal/agent"
	"github.com/angelmondragon/quickdeals/internal/registry"
	"github.com/angelmondragon/quickdeals/internal/seed"
	"github.com/angelmondragon/quickdeals/internal/session"
	"github.com/angelmondragon/quickdeals/internal/toolkit"
	"github.com/angelmondragon/quickdeals/internal/ui"
	"github.com/angelmondragon/quickdeals/pkg/config"
	"github.com/angelmondragon/quickdeals/pkg/db"
	"github.com/angelmondragon/quickdeals/pkg/logger"
	"github.com/angelmondragon/quickdeals/pkg/metrics"
	"github.com/angelmondragon/quickdeals/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var seeder *seed.Seeder
	if cfg.Seed.Enabled {
		seeder, err = seed.New(seed.OptionsFromConfig(cfg.Seed), logg)
		if err != nil {
			logg.Error(ctx, "failed to create seeder", err)
			os.Exit(1)
		}
	}

	reg, err := registry.Open(ctx, registry.Options{
		Specs: cfg.Databases.Specs,
		Pool: db.Options{
			MaxOpenConns:    cfg.Databases.MaxOpenConns,
			MaxIdleConns:    cfg.Databases.MaxIdleConns,
			ConnMaxLifetime: cfg.Databases.ConnMaxLifetime,
		},
		Seeder:    seeder,
		Platforms: cfg.Seed.Platforms,
		Products:  cfg.Seed.Products,
		Toolkit: toolkit.Options{
			MaxRows:    cfg.Agent.MaxRows,
			SampleRows: cfg.Agent.SampleRows,
		},
	}, logg)
	if err != nil {
		logg.Error(ctx, "failed to open databases", err)
		os.Exit(1)
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logg.Error(context.Background(), "error closing databases", err)
		}
	}()

	var (
		agentMetrics   *metrics.AgentMetrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		agentMetrics = metrics.NewAgentMetrics(promReg)
		metricsHandler = promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})
	}

	provider, err := agent.NewProvider(ctx, cfg.LLM, logg)
	if err != nil {
		logg.Error(ctx, "failed to create llm provider", err)
		os.Exit(1)
	}

	agentService, err := agent.NewService(provider, reg.Toolkits(), agent.OptionsFromConfig(cfg.Agent, cfg.LLM), recorder(agentMetrics), logg)
	if err != nil {
		logg.Error(ctx, "failed to create agent", err)
		os.Exit(1)
	}

	var (
		guard  session.Guard = session.NewMemoryGuard()
		redisP db.Pinger
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisGuard, err := session.NewRedisGuard(redisClient, cfg.Redis.SessionLockTTL)
		if err != nil {
			logg.Error(ctx, "failed to create session guard", err)
			os.Exit(1)
		}
		guard, redisP = redisGuard, redisClient
	}

	renderer, err := ui.New()
	if err != nil {
		logg.Error(ctx, "failed to parse templates", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	srvCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"provider":  provider.Name(),
		"model":     cfg.LLM.Model,
		"databases": cfg.Databases.Specs.Names(),
	})
	logg.Info(srvCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, reg, redisP, agentService, guard, renderer, metricsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(srvCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(srvCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(srvCtx, "graceful shutdown failed", err)
		}
	}
}

// recorder avoids handing the agent a typed-nil interface when metrics are off.
func recorder(m *metrics.AgentMetrics) agent.Recorder {
	if m == nil {
		return nil
	}
	return m
}
