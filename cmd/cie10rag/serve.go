package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cie10rag/internal/config"
	"github.com/kailas-cloud/cie10rag/internal/db"
	dbBadger "github.com/kailas-cloud/cie10rag/internal/db/badger"
	dbFile "github.com/kailas-cloud/cie10rag/internal/db/file"
	dbRedis "github.com/kailas-cloud/cie10rag/internal/db/redis"
	"github.com/kailas-cloud/cie10rag/internal/domain"
	"github.com/kailas-cloud/cie10rag/internal/domain/corpus"
	logpkg "github.com/kailas-cloud/cie10rag/internal/logger"
	"github.com/kailas-cloud/cie10rag/internal/metrics"
	"github.com/kailas-cloud/cie10rag/internal/repository/querycache"
	chiTransport "github.com/kailas-cloud/cie10rag/internal/transport/chi"
	ollamaGen "github.com/kailas-cloud/cie10rag/internal/transport/ollama"
	openaiGen "github.com/kailas-cloud/cie10rag/internal/transport/openai"
	codinguc "github.com/kailas-cloud/cie10rag/internal/usecase/coding"
	healthuc "github.com/kailas-cloud/cie10rag/internal/usecase/health"
	statsuc "github.com/kailas-cloud/cie10rag/internal/usecase/stats"
	"github.com/kailas-cloud/cie10rag/internal/version"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *globalOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(opts.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting cie10rag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", opts.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterGenerationMetrics()

	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	catStats := cat.Stats()
	metrics.CatalogDocuments.WithLabelValues(corpus.KindDiagnosis.String()).Set(float64(catStats.Diagnoses))
	metrics.CatalogDocuments.WithLabelValues(corpus.KindProcedure.String()).Set(float64(catStats.Procedures))

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	cache, err := querycache.New(querycache.Config{
		HighWater: cfg.Cache.HighWater,
		LowWater:  cfg.Cache.LowWater,
	}, &querycache.Metrics{
		Lookups:   metrics.QueryCacheTotal,
		Evictions: metrics.QueryCacheEvictionsTotal,
		Entries:   metrics.QueryCacheEntries,
		Snapshots: metrics.QueryCacheSnapshotsTotal,
	})
	if err != nil {
		return fmt.Errorf("create query cache: %w", err)
	}

	var persister *querycache.Persister
	if store != nil {
		persister = querycache.NewPersister(cache, store, cfg.Cache.Key, logpkg.Component(logger, "query_cache"))
		n, err := persister.Load(ctx)
		if err != nil {
			logger.Warn("Query cache snapshot not restored, starting empty", zap.Error(err))
		} else {
			logger.Info("Query cache restored", zap.Int("entries", n))
		}
		go persister.Run(ctx, time.Duration(cfg.Cache.IntervalSec)*time.Second)
	}

	models, err := codinguc.NewModelCatalog(modelsFromConfig(cfg.Generation.Models))
	if err != nil {
		return fmt.Errorf("model catalog: %w", err)
	}
	generators, genChecker, err := buildGenerators(cfg, logger)
	if err != nil {
		return err
	}
	if len(generators) == 0 {
		logger.Warn("No generation provider configured, code proposals are disabled")
	}

	searchSvc := newSearchService(cat)
	codingSvc := codinguc.New(codinguc.Config{
		DefaultModel:   cfg.Generation.DefaultModel,
		ContextResults: cfg.Search.ContextResults,
		SuggestedCodes: cfg.Search.SuggestedCodes,
	}, searchSvc, cache, models, generators, logpkg.Component(logger, "coding"))
	statsSvc := statsuc.New(cache, cat)

	// Pass nil interface (not typed nil pointer!) when there is no store.
	var pinger healthuc.StorePinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(catStats.Diagnoses, pinger, genChecker)

	server := chiTransport.NewServer(chiTransport.Config{
		DefaultTopK:       cfg.Search.DefaultTopK,
		MaxTopK:           cfg.Search.MaxTopK,
		ContextResults:    cfg.Search.ContextResults,
		GenerationTimeout: time.Duration(cfg.Generation.TimeoutSec) * time.Second,
	}, searchSvc, codingSvc, statsSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if persister != nil {
		if err := persister.Save(shutdownCtx); err != nil {
			logger.Error("Failed to save query cache snapshot", zap.Error(err))
		} else {
			logger.Info("Query cache snapshot saved", zap.Int("entries", cache.Len()))
		}
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// openStore opens the snapshot backend. The "none" driver yields a nil store.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (db.Store, error) {
	switch cfg.Cache.Driver {
	case config.DriverNone:
		return nil, nil //nolint:nilnil // snapshots disabled
	case config.DriverFile:
		s, err := dbFile.NewStore(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return s, nil
	case config.DriverBadger:
		s, err := dbBadger.Open(cfg.Cache.Path, logpkg.Component(logger, "badger"))
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return s, nil
	case config.DriverRedis, config.DriverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Cache.Driver, err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := s.WaitForReady(ctx, timeout); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("%s not ready: %w", cfg.Cache.Driver, err)
		}
		logger.Info("Connected to snapshot database", zap.Strings("addrs", cfg.Database.Addrs))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

// buildGenerators creates a backend per configured provider. The OpenAI
// backend doubles as the generation health checker.
func buildGenerators(
	cfg config.Config, logger *zap.Logger,
) (map[codinguc.Provider]domain.Generator, healthuc.GenerationChecker, error) {
	gens := make(map[codinguc.Provider]domain.Generator)
	var checker healthuc.GenerationChecker
	gc := cfg.Generation

	if gc.Ollama.BaseURL != "" {
		g, err := ollamaGen.NewGenerator(&ollamaGen.Config{
			BaseURL:      gc.Ollama.BaseURL,
			DefaultModel: gc.DefaultModel,
			Temperature:  gc.Temperature,
			TopP:         gc.TopP,
			MaxTokens:    gc.MaxTokens,
			Logger:       logpkg.Component(logger, "ollama"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create ollama generator: %w", err)
		}
		gens[codinguc.ProviderOllama] = g
		logger.Info("Local generation enabled", zap.String("base_url", gc.Ollama.BaseURL))
	}

	if gc.OpenAI.APIKey != "" {
		g := openaiGen.NewGenerator(&openaiGen.Config{
			APIKey:       gc.OpenAI.APIKey,
			BaseURL:      gc.OpenAI.BaseURL,
			SystemPrompt: gc.OpenAI.SystemPrompt,
			Temperature:  float32(gc.Temperature),
			MaxTokens:    gc.MaxTokens,
			Provider:     string(codinguc.ProviderOpenAI),
			Logger:       logpkg.Component(logger, "openai"),
		})
		gens[codinguc.ProviderOpenAI] = g
		checker = g
		logger.Info("Cloud generation enabled")
	}

	return gens, checker, nil
}

func modelsFromConfig(entries []config.ModelConfig) []codinguc.Model {
	if len(entries) == 0 {
		return codinguc.DefaultModels()
	}
	out := make([]codinguc.Model, len(entries))
	for i, m := range entries {
		out[i] = codinguc.Model{
			ID:       m.ID,
			Name:     m.Name,
			Provider: codinguc.Provider(m.Provider),
			Power:    m.Power,
		}
	}
	return out
}
