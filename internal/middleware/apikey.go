package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/adgate/adgate-api/internal/models"
	"github.com/adgate/adgate-api/internal/services"
	"github.com/adgate/adgate-api/pkg/dto"
)

const (
	APIKeyContextKey       = "api_key"
	RateDecisionContextKey = "rate_decision"

	retryAfterSeconds = 60
)

// APIKeyAuthenticator is what the gateway needs from the key service.
type APIKeyAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.APIKey, error)
	CheckRateLimit(ctx context.Context, key *models.APIKey, now time.Time) (services.RateDecision, error)
}

// APIKeyAuth is the gateway in front of every /v1 endpoint: bearer parse,
// key lookup, unconditional revocation check, sliding-window rate limit.
// On admission the key and decision land in the request context and the
// X-RateLimit-* headers are already set; they stay on the response whatever
// status the handler later writes. Rejections carry no rate-limit headers
// unless a key was resolved (nothing is computable without one).
func APIKeyAuth(apiKeyService APIKeyAuthenticator) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			_ = c.JSON(http.StatusUnauthorized, dto.NewError(dto.ErrCodeMissingAPIKey, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			_ = c.JSON(http.StatusUnauthorized, dto.NewError(dto.ErrCodeMissingAPIKey, "authorization header must be of the form Bearer <api-key>"))
			return
		}

		token := parts[1]

		// Session JWTs are a different credential class entirely and are
		// never accepted here.
		if !strings.HasPrefix(token, "ag_") {
			_ = c.JSON(http.StatusUnauthorized, dto.NewError(dto.ErrCodeInvalidAPIKey, "invalid api key"))
			return
		}

		key, err := apiKeyService.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrAPIKeyRevoked) {
				_ = c.JSON(http.StatusUnauthorized, dto.NewError(dto.ErrCodeRevokedAPIKey, "api key has been revoked"))
				return
			}
			_ = c.JSON(http.StatusUnauthorized, dto.NewError(dto.ErrCodeInvalidAPIKey, "invalid api key"))
			return
		}

		decision, err := apiKeyService.CheckRateLimit(c.Request.Context(), key, time.Now())
		if err != nil {
			_ = c.JSON(http.StatusInternalServerError, dto.NewInternalError("failed to evaluate rate limit", err.Error()))
			return
		}

		setRateLimitHeaders(c, decision)

		if !decision.Allowed {
			_ = c.JSON(http.StatusTooManyRequests, dto.NewRateLimitError(retryAfterSeconds))
			return
		}

		c.Set(APIKeyContextKey, key)
		c.Set(RateDecisionContextKey, decision)
		MarkAuthenticated(c.Request.Context(), key)

		c.Next()
	}
}

func setRateLimitHeaders(c *drift.Context, d services.RateDecision) {
	h := c.Response.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset, 10))
}

// GetAPIKey returns the authenticated key, or nil outside the gateway.
func GetAPIKey(c *drift.Context) *models.APIKey {
	if v, ok := c.Get(APIKeyContextKey); ok {
		if key, ok := v.(*models.APIKey); ok {
			return key
		}
	}
	return nil
}

// GetRateDecision returns the decision computed at admission time.
func GetRateDecision(c *drift.Context) (services.RateDecision, bool) {
	if v, ok := c.Get(RateDecisionContextKey); ok {
		if d, ok := v.(services.RateDecision); ok {
			return d, true
		}
	}
	return services.RateDecision{}, false
}
