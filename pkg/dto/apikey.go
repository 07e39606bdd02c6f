package dto

import "github.com/google/uuid"

type CreateAPIKeyRequest struct {
	Name string `json:"name"`
	Tier string `json:"tier"`
	Live bool   `json:"live"`
}

type APIKeyCreatedResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	KeyPrefix string    `json:"key_prefix"`
	Tier      string    `json:"tier"`
	Live      bool      `json:"live"`
	CreatedAt string    `json:"created_at"`
}

type APIKeyResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	KeyPrefix          string    `json:"key_prefix"`
	Tier               string    `json:"tier"`
	Live               bool      `json:"live"`
	RateLimitPerMinute int       `json:"rate_limit_per_minute"`
	RateLimitPerDay    int       `json:"rate_limit_per_day"`
	LastUsedAt         *string   `json:"last_used_at,omitempty"`
	CreatedAt          string    `json:"created_at"`
}

type UsageStatsResponse struct {
	KeyID         uuid.UUID `json:"key_id"`
	WindowHours   int       `json:"window_hours"`
	TotalRequests int64     `json:"total_requests"`
	ErrorCount    int64     `json:"error_count"`
	AvgLatencyMs  float64   `json:"avg_latency_ms"`
}
