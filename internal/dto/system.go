package dto

// SystemMetrics is a lightweight snapshot of runtime health for the admin
// system view. Full series are exposed on the Prometheus endpoint.
type SystemMetrics struct {
	TotalRequests  uint64  `json:"total_requests"`
	AvgRequestMs   float64 `json:"avg_request_ms"`
	CacheHitRatio  float64 `json:"cache_hit_ratio"`
	CacheHits      uint64  `json:"cache_hits"`
	CacheMisses    uint64  `json:"cache_misses"`
	GoroutineCount int     `json:"goroutine_count"`
}
