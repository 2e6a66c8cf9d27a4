package models

// CacheStats is served by the cache status endpoint.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	CacheSize int   `json:"cacheSize"`
}

// RateLimitStats is served by the rate limiter status endpoint.
type RateLimitStats struct {
	PerMinuteLimit int   `json:"perMinuteLimit"`
	PerDayLimit    int   `json:"perDayLimit"`
	TotalRequests  int64 `json:"totalRequests"`
}

type HealthStatus struct {
	Status      string         `json:"status"`
	Uptime      int64          `json:"uptime"`
	CacheStats  CacheStats     `json:"cache_stats"`
	RateLimiter RateLimitStats `json:"rate_limiter"`
}

type ServiceStats struct {
	RateLimiter RateLimitStats `json:"rate_limiter"`
	Cache       CacheStats     `json:"cache"`
	Uptime      int64          `json:"uptime"`
}
