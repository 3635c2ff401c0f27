package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/uninotes/quiz-service/internal/cache"
	"github.com/uninotes/quiz-service/internal/config"
	"github.com/uninotes/quiz-service/internal/events"
	"github.com/uninotes/quiz-service/internal/handlers"
	"github.com/uninotes/quiz-service/internal/repositories/postgres"
	"github.com/uninotes/quiz-service/internal/services"
	"github.com/uninotes/quiz-service/internal/utils"
	"github.com/uninotes/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.IsProduction())
	slog.SetDefault(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	repo := postgres.NewRepository(db)

	// Cache is an optimization; run without it when Redis is unreachable.
	cacheService := cache.CacheService(cache.NoopCache{})
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, logger)
	}

	// Attempt events feed downstream consumers (notifications, quiz stats).
	// In development a broker is optional.
	var publisher events.EventPublisher
	kafkaPublisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.KafkaTopic,
		Logger:       logger,
	})
	if err != nil {
		if cfg.IsProduction() {
			logger.Error("failed to create event publisher", "error", err)
			os.Exit(1)
		}
		logger.Warn("kafka unavailable, events disabled", "error", err)
		publisher = events.NewMockEventPublisher()
	} else {
		publisher = kafkaPublisher
	}
	defer publisher.Close()

	validator := utils.NewValidator()
	serviceManager := services.NewServiceManager(repo, logger, validator, cacheService, publisher)
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.LoggerMiddleware(logger), gin.Recovery())

	casdoorClient := handlers.NewCasdoorClient(cfg)
	handlerManager.SetupRoutes(router, handlers.AuthMiddleware(casdoorClient))

	logger.Info("starting quiz service", "port", cfg.Port, "environment", cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
