package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord is one row per completed authenticated request. Rows are
// append-only; the rate limiter reconstructs its sliding window by counting
// rows with created_at inside the trailing minute.
type UsageRecord struct {
	ID         int64     `json:"id"`
	APIKeyID   uuid.UUID `json:"api_key_id"`
	Endpoint   string    `json:"endpoint"`
	Method     string    `json:"method"`
	StatusCode int       `json:"status_code"`
	LatencyMs  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// UsageStats is an aggregate over a key's usage rows for the dashboard.
type UsageStats struct {
	TotalRequests int64   `json:"total_requests"`
	ErrorCount    int64   `json:"error_count"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
}
