package models

import "time"

// SystemMetrics is a lightweight snapshot of the service counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	BillsSubmitted           uint64    `json:"bills_submitted"`
	Transitions              uint64    `json:"transitions"`
	NotificationsFailed      uint64    `json:"notifications_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
