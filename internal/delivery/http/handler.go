package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pricecomp/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// PriceSearcher is the use case behind the compare endpoint
type PriceSearcher interface {
	SearchPrices(ctx context.Context, request *domain.SearchRequest) ([]domain.PriceResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searcher PriceSearcher
	log      logrus.FieldLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(searcher PriceSearcher, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{searcher: searcher, log: logger}
}

// priceResponse is the wire form of a PriceResult; the price is a plain JSON number
type priceResponse struct {
	URL   string      `json:"url"`
	Title string      `json:"title"`
	Price json.Number `json:"price"`
	Store string      `json:"store"`
}

func toResponse(results []domain.PriceResult) []priceResponse {
	out := make([]priceResponse, 0, len(results))
	for _, r := range results {
		out = append(out, priceResponse{
			URL:   r.URL,
			Title: r.Title,
			Price: json.Number(r.Price.String()),
			Store: r.Store,
		})
	}
	return out
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricecomp-backend",
		"version": "1.0.0",
	})
}

// SearchPrices handles price comparison requests
func (h *Handler) SearchPrices(c *gin.Context) {
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "price search is not configured",
		})
		return
	}

	var request domain.SearchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "productName is required",
		})
		return
	}

	h.log.WithField("product", request.ProductName).Info("Search endpoint called")

	results, err := h.searcher.SearchPrices(c.Request.Context(), &request)
	if err != nil {
		status, message := errorStatus(err)
		h.log.WithError(err).WithField("status", status).Warn("Price search failed")
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, toResponse(results))
}

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "too many requests, try again later"
	case errors.Is(err, domain.ErrSearchAPIFailure):
		return http.StatusBadGateway, "failed to fetch search results"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
