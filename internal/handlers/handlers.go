package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/0xSandiem/peek-api/internal/config"
	"github.com/0xSandiem/peek-api/internal/queue"
	"github.com/0xSandiem/peek-api/internal/repository"
	"github.com/0xSandiem/peek-api/internal/service"
	"github.com/0xSandiem/peek-api/internal/storage"
)

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	submitService *service.SubmitService
	resultService *service.ResultService
	db            *pgxpool.Pool
	cache         *redis.Client
	store         storage.Store
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store storage.Store, cfg *config.AppConfig) HandlerSet {
	assetRepo := repository.NewAssetRepository(db)
	insightRepo := repository.NewInsightRepository(db)
	producer := queue.NewProducer(cache, cfg.Queue.Stream)
	submit := service.NewSubmitService(assetRepo, insightRepo, store, producer, cfg.Pipeline, log)
	result := service.NewResultService(insightRepo, assetRepo, store, log)

	return HandlerSet{
		log:           log,
		cfg:           cfg,
		submitService: submit,
		resultService: result,
		db:            db,
		cache:         cache,
		store:         store,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		v1.POST("/analyze", h.Analyze)
		v1.GET("/results/:id", h.GetResults)
		v1.GET("/images/:id/original", h.GetOriginalImage)
		v1.GET("/images/:id/annotated", h.GetAnnotatedImage)
	}
}
