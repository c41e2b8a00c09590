// Package main is the application entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"najah-search-go/internal/config"
	"najah-search-go/internal/extractor"
	"najah-search-go/internal/handler"
	"najah-search-go/internal/index"
	"najah-search-go/internal/middleware"
	"najah-search-go/internal/model"
	"najah-search-go/internal/pipeline"
	"najah-search-go/internal/repository"
	"najah-search-go/internal/schema"
	"najah-search-go/internal/service"
	"najah-search-go/pkg/database"
	"najah-search-go/pkg/embedding"
	"najah-search-go/pkg/es"
	"najah-search-go/pkg/geocode"
	"najah-search-go/pkg/kafka"
	"najah-search-go/pkg/log"
	"najah-search-go/pkg/storage"
)

func main() {
	// 1. Configuration and logging.
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized")

	// 2. Backing stores.
	db, err := database.NewMySQL(cfg.Database.MySQL.DSN)
	if err != nil {
		log.Fatalf("mysql init failed: %v", err)
	}
	if err := db.AutoMigrate(&model.ArticleRecord{}); err != nil {
		log.Fatalf("mysql migration failed: %v", err)
	}

	rdb, err := database.NewRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		log.Fatalf("redis init failed: %v", err)
	}

	store, err := storage.NewStore(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio init failed: %v", err)
	}

	esClient, err := es.NewClient(cfg.Elasticsearch)
	if err != nil {
		log.Fatalf("elasticsearch init failed: %v", err)
	}

	// 3. Index schema. A version or dimension mismatch on an existing index is
	// fatal here; a reindex has to happen before this build can serve.
	indexSchema, err := schema.New(cfg.Elasticsearch.SchemaVersion, cfg.Embedding.Dimensions)
	if err != nil {
		log.Fatalf("invalid schema settings: %v", err)
	}
	ensureCtx, cancelEnsure := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelEnsure()
	if err := indexSchema.EnsureIndex(ensureCtx, esClient, cfg.Elasticsearch.IndexName); err != nil {
		log.Fatalf("failed to ensure index: %v", err)
	}

	// 4. Collaborators and extraction chain.
	embeddingClient := embedding.NewClient(cfg.Embedding)
	temporalExtractor := extractor.NewRuleTemporalExtractor()
	locationExtractor := extractor.NewHeuristicLocationExtractor()
	resolver := geocode.NewCachedResolver(geocode.NewClient(cfg.Geocoder), rdb, cfg.Geocoder.CacheTTL)
	geoExtractor := extractor.NewGeoExtractor(locationExtractor, resolver)

	// 5. Pipeline.
	assembler := pipeline.NewAssembler(embeddingClient, temporalExtractor, geoExtractor)
	indexClient := index.NewClient(esClient, indexSchema, cfg.Elasticsearch.IndexName, cfg.Pipeline.MaxAttempts, cfg.Pipeline.RetryBaseDelay)
	articleRepo := repository.NewArticleRepository(db)
	processor, err := pipeline.NewProcessor(
		assembler,
		indexClient,
		store,
		articleRepo,
		cfg.Pipeline.Workers,
		cfg.MinIO.BucketName,
		cfg.Pipeline.BulkSize,
		cfg.Pipeline.RecordTimeout,
		cfg.Elasticsearch.SchemaVersion,
	)
	if err != nil {
		log.Fatalf("failed to create processor: %v", err)
	}
	defer processor.Release()

	// 6. Ingest queue.
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()
	go kafka.StartConsumer(consumerCtx, cfg.Kafka, rdb, processor)

	// 7. Retrieval.
	searchService := service.NewSearchService(esClient, embeddingClient, temporalExtractor, locationExtractor, resolver, cfg.Elasticsearch.IndexName)

	// 8. HTTP surface.
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	apiV1 := r.Group("/api/v1")
	{
		searchHandler := handler.NewSearchHandler(searchService)
		apiV1.GET("/search", searchHandler.Search)
		apiV1.GET("/suggest", searchHandler.Suggest)

		apiV1.POST("/index/batch", handler.NewIndexHandler(producer).SubmitBatch)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, stopping")

	// Stop pulling new tasks first, then drain the HTTP server.
	cancelConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("http server shutdown failed: %v", err)
	}
	log.Info("server stopped")
}
