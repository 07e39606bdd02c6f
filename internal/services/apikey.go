package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/adgate/adgate-api/internal/config"
	"github.com/adgate/adgate-api/internal/database"
	"github.com/adgate/adgate-api/internal/models"
)

var (
	ErrAPIKeyNotFound = errors.New("api key not found")
	ErrAPIKeyRevoked  = errors.New("api key has been revoked")
	ErrAPIKeyInvalid  = errors.New("invalid api key")
)

const (
	apiKeyLivePrefix = "ag_live_"
	apiKeyTestPrefix = "ag_test_"
	apiKeyRandomLen  = 32

	// rateWindow is the trailing interval the sliding-window limiter counts
	// usage rows over, and doubles as the advertised retry-after.
	rateWindow = 60 * time.Second
)

// RateDecision is computed fresh on every request from the key record and a
// count over the usage log. It is never persisted.
type RateDecision struct {
	Limit     int
	Remaining int
	Reset     int64
	Allowed   bool
}

type APIKeyService struct {
	db     *database.DB
	limits map[models.Tier]config.RateLimit
}

func NewAPIKeyService(db *database.DB, limits map[models.Tier]config.RateLimit) *APIKeyService {
	return &APIKeyService{db: db, limits: limits}
}

// Generate produces a new key of the form ag_live_<64 hex chars> (or ag_test_
// for sandbox keys). Only the sha256 hash is ever stored.
func (s *APIKeyService) Generate(live bool) (plainKey, keyHash, keyPrefix string) {
	prefix := apiKeyTestPrefix
	if live {
		prefix = apiKeyLivePrefix
	}

	randomBytes := make([]byte, apiKeyRandomLen)
	_, _ = rand.Read(randomBytes)

	plainKey = prefix + hex.EncodeToString(randomBytes)
	keyPrefix = plainKey[:len(prefix)+6] + "..."

	hash := sha256.Sum256([]byte(plainKey))
	keyHash = hex.EncodeToString(hash[:])

	return plainKey, keyHash, keyPrefix
}

// Create issues a new API key for a user. The plain key is returned exactly
// once and cannot be recovered afterwards.
func (s *APIKeyService) Create(ctx context.Context, userID uuid.UUID, name string, tier models.Tier, live bool) (*models.APIKey, string, error) {
	plainKey, keyHash, keyPrefix := s.Generate(live)

	var key models.APIKey
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO api_keys (user_id, name, key_hash, key_prefix, tier, live)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, name, key_hash, key_prefix, tier, live,
			rate_limit_per_minute, rate_limit_per_day, revoked_at, last_used_at, created_at
	`, userID, name, keyHash, keyPrefix, tier, live).Scan(
		&key.ID, &key.UserID, &key.Name, &key.KeyHash, &key.KeyPrefix,
		&key.Tier, &key.Live, &key.RateLimitPerMinute, &key.RateLimitPerDay,
		&key.RevokedAt, &key.LastUsedAt, &key.CreatedAt,
	)
	if err != nil {
		return nil, "", err
	}

	return &key, plainKey, nil
}

// Authenticate resolves a bearer token to its key record. The revocation
// check is unconditional and happens before any rate limiting. On success the
// key's last_used_at is stamped asynchronously, best effort.
func (s *APIKeyService) Authenticate(ctx context.Context, token string) (*models.APIKey, error) {
	hash := sha256.Sum256([]byte(token))
	keyHash := hex.EncodeToString(hash[:])

	var key models.APIKey
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, key_hash, key_prefix, tier, live,
			rate_limit_per_minute, rate_limit_per_day, revoked_at, last_used_at, created_at
		FROM api_keys
		WHERE key_hash = $1
	`, keyHash).Scan(
		&key.ID, &key.UserID, &key.Name, &key.KeyHash, &key.KeyPrefix,
		&key.Tier, &key.Live, &key.RateLimitPerMinute, &key.RateLimitPerDay,
		&key.RevokedAt, &key.LastUsedAt, &key.CreatedAt,
	)
	if err != nil {
		return nil, ErrAPIKeyInvalid
	}

	if key.RevokedAt != nil {
		return nil, ErrAPIKeyRevoked
	}

	go func() {
		_, _ = s.db.Pool.Exec(context.Background(), `
			UPDATE api_keys SET last_used_at = NOW() WHERE id = $1
		`, key.ID)
	}()

	return &key, nil
}

// EffectiveLimits resolves the per-minute and per-day limits for a key:
// explicit overrides on the record win, otherwise the tier defaults apply.
// Per-day is exposed but not enforced by the gateway.
func (s *APIKeyService) EffectiveLimits(key *models.APIKey) (perMinute, perDay int) {
	tierLimits, ok := s.limits[key.Tier]
	if !ok {
		tierLimits = s.limits[models.TierFree]
	}

	perMinute = tierLimits.PerMinute
	if key.RateLimitPerMinute != nil {
		perMinute = *key.RateLimitPerMinute
	}
	perDay = tierLimits.PerDay
	if key.RateLimitPerDay != nil {
		perDay = *key.RateLimitPerDay
	}
	return perMinute, perDay
}

// CheckRateLimit computes the sliding-window decision for a key. The window
// is recomputed from the usage log on every request; there is no counter
// state to evict. Two concurrent requests can both be admitted under the
// limit, so this is a best-effort cap, not a hard one.
func (s *APIKeyService) CheckRateLimit(ctx context.Context, key *models.APIKey, now time.Time) (RateDecision, error) {
	limit, _ := s.EffectiveLimits(key)

	var count int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM api_usage
		WHERE api_key_id = $1 AND created_at >= $2
	`, key.ID, now.Add(-rateWindow)).Scan(&count)
	if err != nil {
		return RateDecision{}, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return RateDecision{
		Limit:     limit,
		Remaining: remaining,
		Reset:     now.Add(rateWindow).Unix(),
		Allowed:   count < limit,
	}, nil
}

// GetByID loads a key scoped to its owner. Revoked keys are still returned
// so their usage history stays reachable.
func (s *APIKeyService) GetByID(ctx context.Context, keyID, userID uuid.UUID) (*models.APIKey, error) {
	var key models.APIKey
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, key_hash, key_prefix, tier, live,
			rate_limit_per_minute, rate_limit_per_day, revoked_at, last_used_at, created_at
		FROM api_keys
		WHERE id = $1 AND user_id = $2
	`, keyID, userID).Scan(
		&key.ID, &key.UserID, &key.Name, &key.KeyHash, &key.KeyPrefix,
		&key.Tier, &key.Live, &key.RateLimitPerMinute, &key.RateLimitPerDay,
		&key.RevokedAt, &key.LastUsedAt, &key.CreatedAt,
	)
	if err != nil {
		return nil, ErrAPIKeyNotFound
	}
	return &key, nil
}

// List returns a user's keys, revoked ones excluded.
func (s *APIKeyService) List(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, user_id, name, key_hash, key_prefix, tier, live,
			rate_limit_per_minute, rate_limit_per_day, revoked_at, last_used_at, created_at
		FROM api_keys
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(
			&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix,
			&k.Tier, &k.Live, &k.RateLimitPerMinute, &k.RateLimitPerDay,
			&k.RevokedAt, &k.LastUsedAt, &k.CreatedAt,
		); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Revoke soft-deletes a key. Keys are never hard-deleted.
func (s *APIKeyService) Revoke(ctx context.Context, keyID, userID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE api_keys
		SET revoked_at = NOW()
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
	`, keyID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}
