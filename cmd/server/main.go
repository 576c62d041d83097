package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/riskgate/riskgate/internal/api"
	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/engine"
	"github.com/riskgate/riskgate/internal/evaluator"
	"github.com/riskgate/riskgate/internal/score"
	"github.com/riskgate/riskgate/internal/store"
	"github.com/riskgate/riskgate/internal/stream"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "Path to YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── External store ────────────────────────────────────────────────────────
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Fail open: the engine starts on the empty snapshot and the
		// poll timer keeps retrying.
		slog.Warn("redis unreachable at startup", "err", err)
	}
	pingCancel()

	// ── Evaluators ────────────────────────────────────────────────────────────
	evals := evaluator.NewRegistry()
	evals.Register(evaluator.NewAmount())
	evals.Register(evaluator.NewFrequency())
	slog.Info("evaluators registered", "types", evals.Types())

	// ── Engine ────────────────────────────────────────────────────────────────
	ruleStore := store.NewRedis(client, cfg.Rules.ActiveSetKey, cfg.Rules.RuleHashKey)
	recorder := score.NewRecorder(client, cfg.Score)
	eng := engine.New(ctx, ruleStore, evals, recorder, cfg.Engine, cfg.Rules.PollInterval())
	eng.Start(ctx)

	// ── Config hot-watch ──────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		eng.SetPollInterval(newCfg.Rules.PollInterval())
		slog.Info("config reloaded", "rule_poll_interval", newCfg.Rules.PollInterval())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── Streaming adapter ─────────────────────────────────────────────────────
	var bridge *stream.Bridge
	if cfg.Kafka.Enabled {
		bridge, err = stream.NewBridge(cfg.Kafka, eng)
		if err != nil {
			slog.Error("kafka bridge failed", "err", err)
			os.Exit(1)
		}
		go bridge.Run(ctx)
		slog.Info("kafka bridge started", "event_topic", cfg.Kafka.EventTopic, "action_topic", cfg.Kafka.ActionTopic)
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.New(eng),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pools and the kafka bridge
	if bridge != nil {
		bridge.Close()
	}
	eng.Shutdown()
	slog.Info("goodbye")
}
