package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/adgate/adgate-api/internal/meta"
	"github.com/adgate/adgate-api/internal/models"
	"github.com/adgate/adgate-api/internal/oauth"
	"github.com/adgate/adgate-api/internal/services"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockAPIKeyService mocks the APIKeyService
type MockAPIKeyService struct {
	mock.Mock
}

func (m *MockAPIKeyService) Create(ctx context.Context, userID uuid.UUID, name string, tier models.Tier, live bool) (*models.APIKey, string, error) {
	args := m.Called(ctx, userID, name, tier, live)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.APIKey), args.String(1), args.Error(2)
}

func (m *MockAPIKeyService) GetByID(ctx context.Context, keyID, userID uuid.UUID) (*models.APIKey, error) {
	args := m.Called(ctx, keyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) List(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) Revoke(ctx context.Context, keyID, userID uuid.UUID) error {
	args := m.Called(ctx, keyID, userID)
	return args.Error(0)
}

func (m *MockAPIKeyService) EffectiveLimits(key *models.APIKey) (int, int) {
	args := m.Called(key)
	return args.Int(0), args.Int(1)
}

// MockUsageService mocks the UsageService
type MockUsageService struct {
	mock.Mock
}

func (m *MockUsageService) Stats(ctx context.Context, keyID uuid.UUID, since time.Time) (*models.UsageStats, error) {
	args := m.Called(ctx, keyID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageStats), args.Error(1)
}

// MockCampaignService mocks the CampaignService
type MockCampaignService struct {
	mock.Mock
}

func (m *MockCampaignService) Create(ctx context.Context, userID uuid.UUID, in services.CreateInput) (*models.Campaign, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

func (m *MockCampaignService) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Campaign, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

func (m *MockCampaignService) List(ctx context.Context, userID uuid.UUID) ([]models.Campaign, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Campaign), args.Error(1)
}

func (m *MockCampaignService) MarkLaunched(ctx context.Context, id uuid.UUID, chain models.MetaResourceChain, dailyBudgetCents int64, launchedAt time.Time) error {
	args := m.Called(ctx, id, chain, dailyBudgetCents, launchedAt)
	return args.Error(0)
}

func (m *MockCampaignService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.CampaignStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockCampaignService) UpdateMetrics(ctx context.Context, id uuid.UUID, impressions, clicks, spendCents, leadsCount int64, syncedAt time.Time) error {
	args := m.Called(ctx, id, impressions, clicks, spendCents, leadsCount, syncedAt)
	return args.Error(0)
}

// MockLauncher mocks the meta campaign launcher
type MockLauncher struct {
	mock.Mock
}

func (m *MockLauncher) Launch(ctx context.Context, in meta.LaunchInput) (*meta.LaunchResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meta.LaunchResult), args.Error(1)
}

// MockMetaClient mocks the meta Graph API client
type MockMetaClient struct {
	mock.Mock
}

func (m *MockMetaClient) SetStatus(ctx context.Context, resourceID, accessToken, status string) (meta.Result, error) {
	args := m.Called(ctx, resourceID, accessToken, status)
	return args.Get(0).(meta.Result), args.Error(1)
}

func (m *MockMetaClient) CampaignInsights(ctx context.Context, campaignID, accessToken string) (*meta.Insights, error) {
	args := m.Called(ctx, campaignID, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meta.Insights), args.Error(1)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}
