package models

import "time"

// SystemMetrics is a point-in-time summary of console activity.
type SystemMetrics struct {
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	APICallsTotal            uint64            `json:"api_calls_total"`
	APIFailuresTotal         uint64            `json:"api_failures_total"`
	AverageAPICallDurationMs float64           `json:"average_api_call_duration_ms"`
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	QueryEvents              map[string]uint64 `json:"query_events"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
