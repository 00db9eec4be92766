package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tick_trader/internal/ai"
	"tick_trader/internal/broker"
	"tick_trader/internal/config"
	"tick_trader/internal/logger"
	"tick_trader/internal/server"
	"tick_trader/internal/storage"
	"tick_trader/internal/tick"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file (skipped if absent)")
	flag.Parse()

	path := *configPath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)
	defer log.Sync()

	log.Info("configuration loaded",
		zap.String("config_file", path),
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("model", cfg.LLM.Model),
		zap.String("execution_url", cfg.Execution.BaseURL),
		zap.String("api_key", config.Mask(cfg.APIKey)),
		zap.String("openai_api_key", config.Mask(cfg.OpenAIAPIKey)),
		zap.String("mothership_api_key", config.Mask(cfg.MothershipAPIKey)))

	positions := storage.NewPositionsFile(cfg.Files.Positions, log)
	history := storage.NewHistoryFile(cfg.Files.History, log)
	recommender := ai.NewClient(cfg.LLM, cfg.OpenAIAPIKey, cfg.RiskStrategy)
	executor := broker.NewClient(cfg.Execution, cfg.MothershipAPIKey)
	analyzer := tick.NewAnalyzer(recommender, executor, positions, history, log)
	handler := server.NewHandler(log, cfg.APIKey, analyzer, positions, history)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("tick server listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down on signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
	}
}
