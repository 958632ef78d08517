package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/diary-location-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/diary-location-service/internal/adapter/kafka"
	"github.com/couchcryptid/diary-location-service/internal/config"
	"github.com/couchcryptid/diary-location-service/internal/domain"
	"github.com/couchcryptid/diary-location-service/internal/observability"
	"github.com/couchcryptid/diary-location-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	dict, err := loadDictionary(cfg.SeedFile)
	if err != nil {
		logger.Error("failed to load location dictionary", "error", err, "seed_file", cfg.SeedFile)
		os.Exit(1)
	}
	metrics.DictionarySize.Set(float64(dict.Len()))
	logger.Info("location dictionary loaded", "entries", dict.Len(), "seed_file", cfg.SeedFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, metrics)
	if err != nil {
		logger.Error("failed to open user config store", "error", err, "driver", cfg.StoreDriver)
		os.Exit(1)
	}
	logger.Info("user config store ready", "driver", cfg.StoreDriver, "cache_size", cfg.StoreCacheSize)

	resolver, err := domain.NewResolver(dict, st.store, cfg.DefaultLocation, logger,
		domain.WithLookupTimeout(cfg.StoreTimeout))
	if err != nil {
		logger.Error("failed to create resolver", "error", err)
		os.Exit(1)
	}
	titles := domain.NewTitleBuilder(dict, cfg.TitleTimezone, nil)

	ready := &readiness{dict: dict, store: st.pinger}

	// Start the diary entry pipeline (feature-flagged via KAFKA_ENABLED).
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	pipelineDone := make(chan struct{})
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(resolver, titles, nil, metrics, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready.pipeline = p

		go func() {
			defer close(pipelineDone)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		close(pipelineDone)
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.API{
		Resolver: resolver,
		Store:    st.store,
		Titles:   titles,
		Metrics:  metrics,
	}, ready, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := st.close(); err != nil {
		logger.Error("user config store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
