package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pricecomp/backend/internal/domain"
	"github.com/pricecomp/backend/internal/infrastructure/serper"
	"github.com/pricecomp/backend/internal/pricing"
	"github.com/sirupsen/logrus"
)

// ComparisonServiceConfig holds configuration for the comparison service
type ComparisonServiceConfig struct {
	CacheTTL    time.Duration
	QuerySuffix string
}

// ComparisonService finds the cheapest offers for a product
type ComparisonService struct {
	cache        domain.CacheRepository
	searchClient domain.SearchClient
	engine       *pricing.Engine
	queries      *QueryBuilder
	cacheTTL     time.Duration
	log          logrus.FieldLogger
}

// NewComparisonService creates a new comparison service with dependencies
func NewComparisonService(
	cache domain.CacheRepository,
	searchClient domain.SearchClient,
	engine *pricing.Engine,
	config ComparisonServiceConfig,
	logger logrus.FieldLogger,
) *ComparisonService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &ComparisonService{
		cache:        cache,
		searchClient: searchClient,
		engine:       engine,
		queries:      NewQueryBuilder(config.QuerySuffix),
		cacheTTL:     cacheTTL,
		log:          logger.WithField("component", "comparison"),
	}
}

// SearchPrices returns the cheapest offers found for the requested product.
// Flow: check cache -> web search -> shopping prices, else organic prices -> rank -> cache
func (s *ComparisonService) SearchPrices(
	ctx context.Context,
	request *domain.SearchRequest,
) ([]domain.PriceResult, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}

	query := s.queries.Build(request.ProductName)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := generateCacheKey(request.ProductName)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.log.WithField("key", cacheKey).Debug("Cache hit")
		return cached, nil
	}

	s.log.WithField("product", request.ProductName).Info("Searching prices")

	resp, err := s.searchClient.Search(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrSearchAPIFailure) || errors.Is(err, domain.ErrRateLimited) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}

	cheapest := s.engine.Compare(serper.ShoppingItems(resp))
	source := "shopping"
	if len(cheapest) == 0 {
		s.log.Info("No priced shopping results, parsing organic results")
		cheapest = s.engine.Compare(serper.OrganicItems(resp))
		source = "organic"
	}

	s.log.WithFields(logrus.Fields{
		"source":   source,
		"returned": len(cheapest),
	}).Info("Price search completed")

	if err := s.setInCache(ctx, cacheKey, cheapest); err != nil {
		s.log.WithError(err).Warn("Failed to cache prices")
	}

	return cheapest, nil
}

// generateCacheKey creates a normalized cache key, format "prices:{normalized product name}"
func generateCacheKey(productName string) string {
	return "prices:" + strings.ToLower(CleanProductName(productName))
}

func (s *ComparisonService) getFromCache(ctx context.Context, key string) ([]domain.PriceResult, error) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var results []domain.PriceResult
	if err := json.Unmarshal(data, &results); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Discarding unreadable cache entry")
		return nil, domain.ErrCacheMiss
	}
	return results, nil
}

func (s *ComparisonService) setInCache(ctx context.Context, key string, results []domain.PriceResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}
