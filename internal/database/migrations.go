package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		provider VARCHAR(50) NOT NULL,
		provider_id VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(provider, provider_id)
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(64) UNIQUE NOT NULL,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		key_hash VARCHAR(64) UNIQUE NOT NULL,
		key_prefix VARCHAR(32) NOT NULL,
		tier VARCHAR(20) NOT NULL DEFAULT 'free',
		live BOOLEAN NOT NULL DEFAULT false,
		rate_limit_per_minute INTEGER,
		rate_limit_per_day INTEGER,
		revoked_at TIMESTAMP WITH TIME ZONE,
		last_used_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS api_usage (
		id BIGSERIAL PRIMARY KEY,
		api_key_id UUID NOT NULL REFERENCES api_keys(id) ON DELETE CASCADE,
		endpoint VARCHAR(255) NOT NULL,
		method VARCHAR(10) NOT NULL,
		status_code INTEGER NOT NULL,
		latency_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// The rate limiter counts rows in the trailing minute on every request.
	`CREATE INDEX IF NOT EXISTS idx_api_usage_key_created
		ON api_usage (api_key_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS campaigns (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		source_url VARCHAR(2000) NOT NULL DEFAULT '',
		business_name VARCHAR(255) NOT NULL,
		business_description TEXT NOT NULL DEFAULT '',
		targeting JSONB NOT NULL DEFAULT '{}',
		creatives JSONB NOT NULL DEFAULT '[]',
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		daily_budget_cents BIGINT,
		meta_access_token TEXT,
		meta_campaign_id VARCHAR(64),
		meta_adset_id VARCHAR(64),
		meta_leadform_id VARCHAR(64),
		meta_creative_id VARCHAR(64),
		meta_ad_id VARCHAR(64),
		impressions BIGINT NOT NULL DEFAULT 0,
		clicks BIGINT NOT NULL DEFAULT 0,
		spend_cents BIGINT NOT NULL DEFAULT 0,
		leads_count BIGINT NOT NULL DEFAULT 0,
		launched_at TIMESTAMP WITH TIME ZONE,
		last_synced_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_campaigns_user ON campaigns (user_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
