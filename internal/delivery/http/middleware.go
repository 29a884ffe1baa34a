package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// CORSMiddleware handles CORS for browser clients
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		if isAllowedOrigin(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the allowed list
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		// A single * matches any run of characters, e.g. http://localhost:* or https://*.pricecomp.az
		if prefix, suffix, ok := strings.Cut(allowed, "*"); ok {
			if len(origin) >= len(prefix)+len(suffix) &&
				strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
				return true
			}
		} else if origin == allowed {
			return true
		}
	}
	return false
}

// RequestIDHeader carries the per-request ID
const RequestIDHeader = "X-Request-ID"

// LoggerMiddleware tags every request with an ID and logs it once it completes
func LoggerMiddleware(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("Request completed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}

// limiterIdleTTL is how long a client's bucket survives without requests.
// It must stay above the time a bucket needs to refill.
const limiterIdleTTL = 10 * time.Minute

// IPRateLimiter hands out one token bucket per client IP. Idle buckets expire.
type IPRateLimiter struct {
	limiters *gocache.Cache
	limit    rate.Limit
	burst    int
}

// NewIPRateLimiter allows perMinute requests per client IP, with bursts of the same size
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	return newIPRateLimiter(perMinute, limiterIdleTTL)
}

func newIPRateLimiter(perMinute int, idle time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: gocache.New(idle, idle),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
	}
}

// Allow reports whether a request from ip may proceed
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.limiterFor(ip).Allow()
}

func (l *IPRateLimiter) limiterFor(ip string) *rate.Limiter {
	if v, ok := l.limiters.Get(ip); ok {
		limiter := v.(*rate.Limiter)
		// Refresh the idle deadline
		l.limiters.SetDefault(ip, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(l.limit, l.burst)
	if err := l.limiters.Add(ip, limiter, gocache.DefaultExpiration); err != nil {
		// Another request created it first
		if v, ok := l.limiters.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Len returns the number of tracked clients
func (l *IPRateLimiter) Len() int {
	return l.limiters.ItemCount()
}

// RateLimitMiddleware rejects clients that exceed their request budget
func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, try again later",
			})
			return
		}
		c.Next()
	}
}
