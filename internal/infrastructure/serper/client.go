package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pricecomp/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxAttempts = 3

// Config holds the search provider settings
type Config struct {
	APIKey     string
	BaseURL    string
	Country    string
	Language   string
	NumResults int
	Timeout    time.Duration
	// RequestsPerHour caps outgoing calls; zero means unlimited
	RequestsPerHour int
}

// Client handles communication with the Serper web search API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	country     string
	language    string
	numResults  int
	rateLimiter *rate.Limiter
	log         logrus.FieldLogger
	debug       bool
	backoff     func(attempt int) time.Duration
}

// NewClient creates a new search API client
func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerHour > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerHour) / 3600)
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		country:     cfg.Country,
		language:    cfg.Language,
		numResults:  cfg.NumResults,
		rateLimiter: rate.NewLimiter(limit, 10),
		log:         logger.WithField("component", "serper"),
		backoff:     exponentialBackoff,
	}
}

// SetDebug enables logging of request bodies and raw responses
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// doRequest executes an HTTP POST request with proper headers
func (c *Client) doRequest(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PriceComp/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}
	return resp, nil
}

// Search runs a web search and returns the shopping and organic results
func (c *Client) Search(ctx context.Context, query string) (*domain.SearchResponse, error) {
	c.log.WithField("query", query).Info("Searching")

	body, err := json.Marshal(domain.SearchQuery{
		Query:    query,
		Country:  c.country,
		Language: c.language,
		Num:      c.numResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if c.debug {
		c.log.WithField("body", string(body)).Debug("Request body")
	}

	// Retry up to maxAttempts times for transient failures
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		resp, err := c.doRequest(ctx, body)
		if err != nil {
			c.log.WithError(err).WithField("attempt", attempt).Warn("Request failed")
			lastErr = err
			if attempt < maxAttempts && !c.sleep(ctx, c.backoff(attempt)) {
				return nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, ctx.Err())
			}
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrSearchAPIFailure, readErr)
			if attempt < maxAttempts && !c.sleep(ctx, c.backoff(attempt)) {
				return nil, lastErr
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			c.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"status":  resp.StatusCode,
				"body":    string(respBody),
			}).Warn("Search API error")

			lastErr = fmt.Errorf("%w: status %d", domain.ErrSearchAPIFailure, resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("%w: search API quota exhausted (status %d)", domain.ErrRateLimited, resp.StatusCode)
			}
			// Client errors other than throttling will not succeed on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, lastErr
			}
			if attempt < maxAttempts && !c.sleep(ctx, c.backoff(attempt)) {
				return nil, lastErr
			}
			continue
		}

		if c.debug {
			c.log.WithField("body", string(respBody)).Debug("Raw response")
		}

		var searchResp domain.SearchResponse
		if err := json.Unmarshal(respBody, &searchResp); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrSearchAPIFailure, err)
		}

		c.log.WithFields(logrus.Fields{
			"query":    query,
			"shopping": len(searchResp.Shopping),
			"organic":  len(searchResp.Organic),
		}).Info("Search completed")
		return &searchResp, nil
	}

	c.log.WithField("query", query).Error("All retries failed")
	return nil, lastErr
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
