package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adgate/adgate-api/internal/meta"
	"github.com/adgate/adgate-api/internal/models"
	"github.com/adgate/adgate-api/internal/oauth"
	"github.com/adgate/adgate-api/internal/services"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// APIKeyServiceInterface defines the methods used by handlers from APIKeyService
type APIKeyServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, name string, tier models.Tier, live bool) (*models.APIKey, string, error)
	GetByID(ctx context.Context, keyID, userID uuid.UUID) (*models.APIKey, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error)
	Revoke(ctx context.Context, keyID, userID uuid.UUID) error
	EffectiveLimits(key *models.APIKey) (perMinute, perDay int)
}

// UsageServiceInterface defines the methods used by handlers from UsageService
type UsageServiceInterface interface {
	Stats(ctx context.Context, keyID uuid.UUID, since time.Time) (*models.UsageStats, error)
}

// CampaignServiceInterface defines the methods used by handlers from CampaignService
type CampaignServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, in services.CreateInput) (*models.Campaign, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Campaign, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Campaign, error)
	MarkLaunched(ctx context.Context, id uuid.UUID, chain models.MetaResourceChain, dailyBudgetCents int64, launchedAt time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.CampaignStatus) error
	UpdateMetrics(ctx context.Context, id uuid.UUID, impressions, clicks, spendCents, leadsCount int64, syncedAt time.Time) error
}

// LauncherInterface defines the methods used by handlers from meta.Launcher
type LauncherInterface interface {
	Launch(ctx context.Context, in meta.LaunchInput) (*meta.LaunchResult, error)
}

// MetaClientInterface defines the methods used by handlers from meta.Client
type MetaClientInterface interface {
	SetStatus(ctx context.Context, resourceID, accessToken, status string) (meta.Result, error)
	CampaignInsights(ctx context.Context, campaignID, accessToken string) (*meta.Insights, error)
}
