package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pricecomp/backend/config"
	"github.com/pricecomp/backend/internal/domain"
	"github.com/pricecomp/backend/internal/infrastructure/cache"
	"github.com/pricecomp/backend/internal/pricing"
	"github.com/pricecomp/backend/internal/usecase"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*", "https://pricecomp.az"},
		},
		Search: config.SearchConfig{
			APIKey: "test-api-key",
		},
		Cache: config.CacheConfig{
			Type: "memory",
		},
	}
}

// setupTestRouter creates a router without a price searcher
func setupTestRouter() *gin.Engine {
	handler := NewHandler(nil, quietLogger())
	return SetupRouter(testConfig(), handler, quietLogger())
}

// stubSearchClient is a domain.SearchClient returning canned responses
type stubSearchClient struct {
	mu       sync.Mutex
	response *domain.SearchResponse
	err      error
	queries  []string
}

func (s *stubSearchClient) Search(ctx context.Context, query string) (*domain.SearchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *stubSearchClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// setupTestRouterWithService wires a real ComparisonService and extraction engine
func setupTestRouterWithService(client domain.SearchClient) *gin.Engine {
	service := usecase.NewComparisonService(
		cache.NewMemoryCache(),
		client,
		pricing.NewEngine(pricing.Options{}),
		usecase.ComparisonServiceConfig{
			CacheTTL:    time.Hour,
			QuerySuffix: "qiymət",
		},
		quietLogger(),
	)

	return SetupRouter(testConfig(), NewHandler(service, quietLogger()), quietLogger())
}

func postCompare(router *gin.Engine, payload string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/compare/search", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "pricecomp-backend", response["service"])
		version, ok := response["version"].(string)
		assert.True(t, ok && strings.TrimSpace(version) != "", "version should be a non-empty string")
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
		}
	})
}

// TestCompareEndpointWithoutService tests the compare endpoint when no searcher is wired
func TestCompareEndpointWithoutService(t *testing.T) {
	t.Run("returns service unavailable", func(t *testing.T) {
		router := setupTestRouter()

		w := postCompare(router, `{"productName":"iPhone 15"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Contains(t, response["error"], "not configured")
	})

	t.Run("validates HTTP method", func(t *testing.T) {
		router := setupTestRouter()

		for _, method := range []string{"GET", "PUT", "DELETE", "PATCH"} {
			req, _ := http.NewRequest(method, "/api/v1/compare/search", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
		}
	})

	t.Run("requires correct path", func(t *testing.T) {
		router := setupTestRouter()

		incorrectPaths := []string{
			"/api/v1/compare",
			"/api/v1/compare/",
			"/api/compare/search",
			"/compare/search",
		}

		for _, path := range incorrectPaths {
			req, _ := http.NewRequest("POST", path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotFound, w.Code, "path %s", path)
		}
	})
}

// TestCompareEndpointWithService tests the compare endpoint end to end
func TestCompareEndpointWithService(t *testing.T) {
	t.Run("returns ranked prices for valid request", func(t *testing.T) {
		client := &stubSearchClient{response: &domain.SearchResponse{
			Shopping: []domain.ShoppingResult{
				{Title: "iPhone 15 128GB", Link: "https://www.kontakt.az/iphone-15", Price: "1.299,99 ₼"},
				{Title: "iPhone 15 128GB Black", Link: "https://irshad.az/iphone-15", Price: "899 AZN"},
				{Title: "iPhone 15 case", Link: "https://example.az/case", Price: "pulsuz"},
				{Title: "iPhone 15 Blue", Link: "https://umico.az/p/15", Price: "1.049,00 ₼"},
			},
		}}
		router := setupTestRouterWithService(client)

		w := postCompare(router, `{"productName":"iPhone 15"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"price":899`)

		var response []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response, 3)

		assert.Equal(t, "irshad", response[0]["store"])
		assert.Equal(t, 899.0, response[0]["price"])
		assert.Equal(t, "umico", response[1]["store"])
		assert.Equal(t, 1049.0, response[1]["price"])
		assert.Equal(t, "kontakt", response[2]["store"])
		assert.Equal(t, 1299.99, response[2]["price"])
		assert.Equal(t, "https://www.kontakt.az/iphone-15", response[2]["url"])
		assert.Equal(t, "iPhone 15 128GB", response[2]["title"])

		assert.Equal(t, []string{"iPhone 15 qiymət"}, client.queries)
	})

	t.Run("falls back to organic snippets", func(t *testing.T) {
		client := &stubSearchClient{response: &domain.SearchResponse{
			Organic: []domain.OrganicResult{
				{Title: "Samsung Galaxy A55", Link: "https://www.bakuelectronics.az/a55", Snippet: "Qiymət: 649,99 ₼. Kreditlə al"},
				{Title: "Galaxy A55 review", Link: "https://blog.example.com/a55", Snippet: "Great camera"},
			},
		}}
		router := setupTestRouterWithService(client)

		w := postCompare(router, `{"productName":"Samsung Galaxy A55"}`)

		require.Equal(t, http.StatusOK, w.Code)

		var response []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response, 1)
		assert.Equal(t, "bakuelectronics", response[0]["store"])
		assert.Equal(t, 649.99, response[0]["price"])
	})

	t.Run("returns empty array when nothing is priced", func(t *testing.T) {
		client := &stubSearchClient{response: &domain.SearchResponse{
			Organic: []domain.OrganicResult{
				{Title: "No prices here", Link: "https://example.com", Snippet: "Contact us"},
			},
		}}
		router := setupTestRouterWithService(client)

		w := postCompare(router, `{"productName":"rare item"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("serves repeated requests from cache", func(t *testing.T) {
		client := &stubSearchClient{response: &domain.SearchResponse{
			Shopping: []domain.ShoppingResult{
				{Title: "Dyson V15", Link: "https://kontakt.az/dyson", Price: "1499 AZN"},
			},
		}}
		router := setupTestRouterWithService(client)

		first := postCompare(router, `{"productName":"Dyson V15"}`)
		second := postCompare(router, `{"productName":"  dyson   v15 "}`)

		require.Equal(t, http.StatusOK, first.Code)
		require.Equal(t, http.StatusOK, second.Code)
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		assert.Equal(t, 1, client.calls())
	})

	t.Run("returns 400 for missing productName", func(t *testing.T) {
		router := setupTestRouterWithService(&stubSearchClient{})

		w := postCompare(router, `{"brand":"Apple"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "productName is required", response["error"])
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router := setupTestRouterWithService(&stubSearchClient{})

		w := postCompare(router, `{invalid json}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 400 when the name has no searchable characters", func(t *testing.T) {
		client := &stubSearchClient{}
		router := setupTestRouterWithService(client)

		w := postCompare(router, `{"productName":"###"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, client.calls())
	})

	errorCases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "returns 502 for search API failure",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusBadGateway,
			wantError:  "failed to fetch search results",
		},
		{
			name:       "returns 429 when the search quota is exhausted",
			err:        fmt.Errorf("%w: quota exceeded", domain.ErrRateLimited),
			wantStatus: http.StatusTooManyRequests,
			wantError:  "too many requests, try again later",
		},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			router := setupTestRouterWithService(&stubSearchClient{err: tc.err})

			w := postCompare(router, `{"productName":"iPhone 15"}`)

			assert.Equal(t, tc.wantStatus, w.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tc.wantError, response["error"])
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{domain.ErrInvalidRequest, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.ErrRateLimited), http.StatusTooManyRequests},
		{fmt.Errorf("%w: 503", domain.ErrSearchAPIFailure), http.StatusBadGateway},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, message := errorStatus(tt.err)
		assert.Equal(t, tt.wantStatus, status, "errorStatus(%v)", tt.err)
		assert.NotEmpty(t, message)
	}
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for allowed origin", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://pricecomp.az")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://pricecomp.az", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("compare endpoint has CORS for localhost", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/v1/compare/search", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter()

		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		req, _ := http.NewRequest("GET", "/panic", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

// TestRateLimitIntegration tests the per-IP limiter on the versioned API group
func TestRateLimitIntegration(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.PerIP = 2
	router := SetupRouter(cfg, NewHandler(nil, quietLogger()), quietLogger())

	for i := 0; i < 2; i++ {
		w := postCompare(router, `{"productName":"iPhone 15"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, "request %d", i+1)
	}

	w := postCompare(router, `{"productName":"iPhone 15"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// Health is outside the limited group
	req, _ := http.NewRequest("GET", "/health", nil)
	health := httptest.NewRecorder()
	router.ServeHTTP(health, req)
	assert.Equal(t, http.StatusOK, health.Code)
}

func postCompareFrom(router *gin.Engine, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare/search", strings.NewReader(`{"productName":"iPhone 15"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

// TestRateLimitIgnoresSpoofedForwardedFor checks the limiter keys on the peer address
func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.PerIP = 1
	router := SetupRouter(cfg, NewHandler(nil, quietLogger()), quietLogger())

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		codes = append(codes, postCompareFrom(router, "203.0.113.7:4321", fmt.Sprintf("10.0.0.%d", i)))
	}

	assert.Equal(t, []int{
		http.StatusServiceUnavailable,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)
}

// TestRateLimitHonoursTrustedProxy checks forwarded addresses are used behind a configured proxy
func TestRateLimitHonoursTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.PerIP = 1
	cfg.Server.TrustedProxies = []string{"203.0.113.7"}
	router := SetupRouter(cfg, NewHandler(nil, quietLogger()), quietLogger())

	assert.Equal(t, http.StatusServiceUnavailable, postCompareFrom(router, "203.0.113.7:4321", "198.51.100.1"))
	assert.Equal(t, http.StatusServiceUnavailable, postCompareFrom(router, "203.0.113.7:4321", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, postCompareFrom(router, "203.0.113.7:4321", "198.51.100.1"))

	// An untrusted peer cannot borrow a forwarded address
	assert.Equal(t, http.StatusServiceUnavailable, postCompareFrom(router, "192.0.2.50:1000", "198.51.100.3"))
	assert.Equal(t, http.StatusTooManyRequests, postCompareFrom(router, "192.0.2.50:1000", "198.51.100.4"))
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/compare/search"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter()

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "response should be valid JSON")
		})
	}
}
