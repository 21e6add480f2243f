// Package main provides the API server entry point for the wallet analyzer service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-analyzer/internal/aggregate"
	"github.com/wallet-analyzer/internal/api"
	"github.com/wallet-analyzer/internal/config"
	"github.com/wallet-analyzer/internal/emitters"
	"github.com/wallet-analyzer/internal/knowledge"
	"github.com/wallet-analyzer/internal/logging"
	"github.com/wallet-analyzer/internal/narrative"
	"github.com/wallet-analyzer/internal/normalize"
	"github.com/wallet-analyzer/internal/provider"
	"github.com/wallet-analyzer/internal/report"
	"github.com/wallet-analyzer/internal/scoring"
	"github.com/wallet-analyzer/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Report storage: durable backend plus optional redis read cache.
	var store report.Store
	switch cfg.Reports.Backend {
	case "bolt":
		store, err = report.NewBoltStore(cfg.Reports.BoltPath)
	default:
		store, err = report.NewFileStore(cfg.Reports.Dir)
	}
	if err != nil {
		logger.WithError(err).Fatal("Failed to open report store")
	}
	defer store.Close()

	if cfg.Redis.Enabled {
		cached, err := report.NewRedisCache(context.Background(), &cfg.Redis, store)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		store = cached
		logger.Info("Report read cache enabled")
	}
	reports := report.NewManager(store, cfg.Reports.MaxAge)

	// Chain data: HTTP provider with direct RPC fallback for native balances.
	rpcFallback := provider.NewRPCFallback(&cfg.Chains)
	defer rpcFallback.Close()
	dataProvider := provider.NewHTTPClient(&cfg.Provider, rpcFallback)

	kb := knowledge.Default()
	normalizer := normalize.New(kb, cfg.Scoring.DustEpsilon)
	scorer := scoring.New(kb, scoring.Config{
		MediumValueUSD: cfg.Scoring.MediumValueUSD,
		HighValueUSD:   cfg.Scoring.HighValueUSD,
	})

	// Narrative augmentation is optional; without it every analysis takes
	// the deterministic path.
	reasoning := narrative.NewOpenAIClient(&cfg.Narrative)
	lookup := narrative.NewSearchClient(cfg.Narrative.SearchURL)
	var reasoningService narrative.ReasoningService
	var lookupService narrative.LookupService
	if reasoning != nil {
		reasoningService = reasoning
		logger.WithField("model", cfg.Narrative.Model).Info("Narrative augmentation enabled")
	} else {
		logger.Info("Narrative augmentation disabled, using deterministic analysis")
	}
	if lookup != nil {
		lookupService = lookup
	}
	augmenter := narrative.NewAugmenter(reasoningService, lookupService, cfg.Narrative.MaxRounds)
	aggregator := aggregate.New(reasoningService)

	var emitter emitters.Emitter
	if cfg.Kafka.Enabled {
		kafkaEmitter := emitters.NewKafkaEmitter(cfg.Kafka.Broker, cfg.Kafka.Topic)
		defer kafkaEmitter.Close()
		emitter = kafkaEmitter
		logger.WithField("topic", cfg.Kafka.Topic).Info("Report event emitter enabled")
	}

	analysisService := service.NewAnalysisService(
		cfg,
		dataProvider,
		normalizer,
		scorer,
		augmenter,
		aggregator,
		reports,
		emitter,
	)

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    5 * time.Minute, // analysis runs are slow
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	server := api.NewServer(serverConfig, analysisService)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host":   cfg.Server.Host,
		"port":   cfg.Server.Port,
		"chains": cfg.Chains.Enabled,
	}).Info("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
