package main

import (
	"context"
	"fmt"
	"log"

	"github.com/pricecomp/backend/config"
	httpDelivery "github.com/pricecomp/backend/internal/delivery/http"
	"github.com/pricecomp/backend/internal/domain"
	"github.com/pricecomp/backend/internal/infrastructure/cache"
	"github.com/pricecomp/backend/internal/infrastructure/serper"
	"github.com/pricecomp/backend/internal/pricing"
	"github.com/pricecomp/backend/internal/usecase"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"cache_type":  cfg.Cache.Type,
		"cache_ttl":   cfg.Cache.TTL.String(),
	}).Info("Starting PriceComp Backend v1.0.0")

	// Initialize infrastructure dependencies
	priceCache, closeCache, err := newCache(cfg.Cache)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize cache")
	}
	defer closeCache()

	searchClient := serper.NewClient(serper.Config{
		APIKey:          cfg.Search.APIKey,
		BaseURL:         cfg.Search.BaseURL,
		Country:         cfg.Search.Country,
		Language:        cfg.Search.Language,
		NumResults:      cfg.Search.NumResults,
		Timeout:         cfg.Search.Timeout,
		RequestsPerHour: cfg.RateLimit.Search,
	}, logger)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		searchClient.SetDebug(true)
		logger.Info("Search client debug mode enabled")
	}

	bounds, err := cfg.Extraction.Bounds()
	if err != nil {
		logger.WithError(err).Fatal("Invalid extraction bounds")
	}

	engine := pricing.NewEngine(pricing.Options{
		Bounds:      &bounds,
		ResultLimit: cfg.Extraction.ResultLimit,
		Logger:      logger.WithField("component", "pricing"),
	})

	logger.WithFields(logrus.Fields{
		"min_price":    bounds.Min.String(),
		"max_price":    bounds.Max.String(),
		"result_limit": engine.ResultLimit(),
		"rules":        pricing.DefaultCatalog().Len(),
	}).Info("Price extraction configured")

	// Initialize usecase layer
	comparisonService := usecase.NewComparisonService(
		priceCache,
		searchClient,
		engine,
		usecase.ComparisonServiceConfig{
			CacheTTL:    cfg.Cache.TTL,
			QuerySuffix: cfg.Search.QuerySuffix,
		},
		logger,
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(comparisonService, logger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.WithField("addr", addr).Info("Server listening")

	if err := router.Run(addr); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}

// newCache builds the configured cache backend along with its cleanup func
func newCache(cfg config.CacheConfig) (domain.CacheRepository, func(), error) {
	if cfg.Type == "redis" {
		redisCache, err := cache.NewRedisCache(context.Background(), cfg.RedisURL, "pricecomp")
		if err != nil {
			return nil, nil, err
		}
		return redisCache, func() { _ = redisCache.Close() }, nil
	}
	return cache.NewMemoryCache(), func() {}, nil
}
