package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xSandiem/peek-api/internal/analyzer"
	"github.com/0xSandiem/peek-api/internal/annotate"
	"github.com/0xSandiem/peek-api/internal/cache"
	"github.com/0xSandiem/peek-api/internal/config"
	"github.com/0xSandiem/peek-api/internal/database"
	"github.com/0xSandiem/peek-api/internal/log"
	"github.com/0xSandiem/peek-api/internal/ocr"
	"github.com/0xSandiem/peek-api/internal/pipeline"
	"github.com/0xSandiem/peek-api/internal/queue"
	"github.com/0xSandiem/peek-api/internal/repository"
	"github.com/0xSandiem/peek-api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer redisClient.Close()

	blobStore, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init storage")
	}

	var faceFinder analyzer.FaceFinder
	if finder, err := analyzer.NewPigoFinder(cfg.Pipeline.FaceCascadePath); err != nil {
		// Face detection degrades to zero detections without a model.
		logger.Warn().Err(err).Str("path", cfg.Pipeline.FaceCascadePath).Msg("face cascade unavailable")
	} else {
		faceFinder = finder
	}

	analyzers := []analyzer.Analyzer{
		analyzer.NewColorAnalyzer(cfg.Pipeline.ColorClusters),
		analyzer.NewQualityAnalyzer(),
		analyzer.NewFaceDetector(faceFinder),
		analyzer.NewTextExtractor(ocr.NewTesseract()),
		analyzer.NewSceneDetector(),
	}

	orchestrator := pipeline.NewOrchestrator(
		blobStore,
		repository.NewInsightRepository(dbPool),
		repository.NewAssetRepository(dbPool),
		analyzers,
		annotate.NewRenderer(blobStore),
		cfg.Pipeline,
		logger,
	)

	handler := pipeline.NewJobHandler(orchestrator, logger)
	consumer := queue.NewConsumer(
		redisClient,
		cfg.Queue.Stream,
		cfg.Queue.Group,
		cfg.Queue.Consumer,
		cfg.Queue.ClaimInterval,
		cfg.Pipeline.Workers,
		logger,
		handler,
	)

	go func() {
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}
