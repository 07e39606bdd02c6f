package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adgate/adgate-api/internal/database"
	"github.com/adgate/adgate-api/internal/models"
	"github.com/adgate/adgate-api/internal/oauth"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:      fmt.Sprintf("user%d@example.com", f.counter),
		Name:       fmt.Sprintf("Test User %d", f.counter),
		Provider:   "google",
		ProviderID: fmt.Sprintf("provider-%d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, name, avatar_url, provider, provider_id, created_at, updated_at
	`, user.Email, user.Name, user.AvatarURL, user.Provider, user.ProviderID).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// CreateAPIKey creates a test API key and returns it with its plain token
func (f *Fixtures) CreateAPIKey(t *testing.T, user *models.User, opts ...APIKeyOption) (*models.APIKey, string) {
	t.Helper()
	f.counter++

	prefix := "ag_test_"
	key := &models.APIKey{
		UserID: user.ID,
		Name:   fmt.Sprintf("Test Key %d", f.counter),
		Tier:   models.TierFree,
	}

	for _, opt := range opts {
		opt(key)
	}
	if key.Live {
		prefix = "ag_live_"
	}

	plain := fmt.Sprintf("%s%064d", prefix, f.counter)
	hash := sha256.Sum256([]byte(plain))
	key.KeyHash = hex.EncodeToString(hash[:])
	key.KeyPrefix = plain[:len(prefix)+6] + "..."

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO api_keys (user_id, name, key_hash, key_prefix, tier, live,
			rate_limit_per_minute, rate_limit_per_day, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Tier, key.Live,
		key.RateLimitPerMinute, key.RateLimitPerDay, key.RevokedAt,
	).Scan(&key.ID, &key.CreatedAt)
	if err != nil {
		t.Fatalf("failed to create api key: %v", err)
	}

	return key, plain
}

// APIKeyOption configures a test API key
type APIKeyOption func(*models.APIKey)

// WithTier sets the key's tier
func WithTier(tier models.Tier) APIKeyOption {
	return func(k *models.APIKey) {
		k.Tier = tier
	}
}

// WithLive marks the key as a live-mode key
func WithLive() APIKeyOption {
	return func(k *models.APIKey) {
		k.Live = true
	}
}

// WithPerMinuteLimit overrides the key's per-minute limit
func WithPerMinuteLimit(limit int) APIKeyOption {
	return func(k *models.APIKey) {
		k.RateLimitPerMinute = &limit
	}
}

// Revoked marks the key as revoked
func Revoked() APIKeyOption {
	return func(k *models.APIKey) {
		now := time.Now().Add(-time.Minute)
		k.RevokedAt = &now
	}
}

// CreateCampaign creates a test campaign draft for a user
func (f *Fixtures) CreateCampaign(t *testing.T, user *models.User, opts ...CampaignOption) *models.Campaign {
	t.Helper()
	f.counter++

	targeting, _ := json.Marshal(models.Targeting{AgeMin: 25, AgeMax: 55})
	creatives, _ := json.Marshal([]models.CreativeVariant{
		{Headline: "Fast quotes", Body: "Get one today", CallToAction: "Get Quote"},
	})

	campaign := &models.Campaign{
		UserID:        user.ID,
		SourceURL:     fmt.Sprintf("https://business%d.example", f.counter),
		BusinessName:  fmt.Sprintf("Business %d", f.counter),
		TargetingJSON: targeting,
		CreativesJSON: creatives,
		Status:        models.CampaignStatusDraft,
	}

	for _, opt := range opts {
		opt(campaign)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO campaigns (user_id, source_url, business_name, business_description,
			targeting, creatives, status, daily_budget_cents, meta_access_token,
			meta_campaign_id, meta_adset_id, meta_leadform_id, meta_creative_id, meta_ad_id,
			launched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`, campaign.UserID, campaign.SourceURL, campaign.BusinessName, campaign.BusinessDescription,
		campaign.TargetingJSON, campaign.CreativesJSON, campaign.Status,
		campaign.DailyBudgetCents, campaign.MetaAccessToken,
		campaign.MetaCampaignID, campaign.MetaAdSetID, campaign.MetaLeadFormID,
		campaign.MetaCreativeID, campaign.MetaAdID, campaign.LaunchedAt,
	).Scan(&campaign.ID, &campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create campaign: %v", err)
	}

	return campaign
}

// CampaignOption configures a test campaign
type CampaignOption func(*models.Campaign)

// WithBudget sets the draft's daily budget in cents
func WithBudget(cents int64) CampaignOption {
	return func(c *models.Campaign) {
		c.DailyBudgetCents = &cents
	}
}

// WithStoredToken sets the stored Meta access token
func WithStoredToken(token string) CampaignOption {
	return func(c *models.Campaign) {
		c.MetaAccessToken = &token
	}
}

// Launched fills the full resource chain and flips the campaign active
func Launched(chain models.MetaResourceChain) CampaignOption {
	return func(c *models.Campaign) {
		c.Status = models.CampaignStatusActive
		c.MetaCampaignID = &chain.CampaignID
		c.MetaAdSetID = &chain.AdSetID
		c.MetaLeadFormID = &chain.LeadFormID
		c.MetaCreativeID = &chain.CreativeID
		c.MetaAdID = &chain.AdID
		launchedAt := time.Now().Add(-time.Hour)
		c.LaunchedAt = &launchedAt
	}
}

// InsertUsage inserts n usage rows for a key, created the given duration ago
func (f *Fixtures) InsertUsage(t *testing.T, keyID uuid.UUID, n int, age time.Duration) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < n; i++ {
		_, err := f.db.Pool.Exec(ctx, `
			INSERT INTO api_usage (api_key_id, endpoint, method, status_code, latency_ms, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, keyID, "/v1/campaigns", "GET", 200, 12, time.Now().Add(-age))
		if err != nil {
			t.Fatalf("failed to insert usage row: %v", err)
		}
	}
}

// OAuthUserInfo creates test OAuth user info
func OAuthUserInfo(email, name, id string) *oauth.UserInfo {
	return &oauth.UserInfo{
		Email:     email,
		Name:      name,
		AvatarURL: "https://example.com/avatar.png",
		ID:        id,
		Provider:  "google",
	}
}
