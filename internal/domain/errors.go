package domain

import "errors"

var (
	// ErrNormalization is returned when a captured numeric substring is not a decimal literal
	ErrNormalization = errors.New("price normalization failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrSearchAPIFailure is returned when the search provider request fails
	ErrSearchAPIFailure = errors.New("search API request failed")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
