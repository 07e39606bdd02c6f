package models

import (
	"time"

	"github.com/google/uuid"
)

type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// ValidTier reports whether t is one of the known service tiers.
func ValidTier(t Tier) bool {
	return t == TierFree || t == TierPro || t == TierEnterprise
}

type APIKey struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	KeyHash   string    `json:"-"`
	KeyPrefix string    `json:"key_prefix"`
	Tier      Tier      `json:"tier"`
	Live      bool      `json:"live"`
	// Per-key overrides; nil falls back to the tier defaults.
	RateLimitPerMinute *int       `json:"rate_limit_per_minute,omitempty"`
	RateLimitPerDay    *int       `json:"rate_limit_per_day,omitempty"`
	RevokedAt          *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt         *time.Time `json:"last_used_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}
