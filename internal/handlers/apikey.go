package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/adgate/adgate-api/internal/middleware"
	"github.com/adgate/adgate-api/internal/models"
	"github.com/adgate/adgate-api/pkg/dto"
)

type APIKeyHandler struct {
	apiKeyService APIKeyServiceInterface
	usageService  UsageServiceInterface
}

func NewAPIKeyHandler(apiKeyService APIKeyServiceInterface, usageService UsageServiceInterface) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService: apiKeyService,
		usageService:  usageService,
	}
}

func (h *APIKeyHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateAPIKeyRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		c.BadRequest("name is required")
		return
	}

	tier := models.Tier(req.Tier)
	if req.Tier == "" {
		tier = models.TierFree
	}
	if !models.ValidTier(tier) {
		c.BadRequest("tier must be one of free, pro, enterprise")
		return
	}

	apiKey, plainKey, err := h.apiKeyService.Create(context.Background(), userID, req.Name, tier, req.Live)
	if err != nil {
		_ = c.JSON(500, dto.NewInternalError("failed to create api key", err.Error()))
		return
	}

	// The plain key appears in this response and nowhere else.
	_ = c.JSON(201, dto.APIKeyCreatedResponse{
		ID:        apiKey.ID,
		Name:      apiKey.Name,
		Key:       plainKey,
		KeyPrefix: apiKey.KeyPrefix,
		Tier:      string(apiKey.Tier),
		Live:      apiKey.Live,
		CreatedAt: apiKey.CreatedAt.Format(time.RFC3339),
	})
}

func (h *APIKeyHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	keys, err := h.apiKeyService.List(context.Background(), userID)
	if err != nil {
		_ = c.JSON(500, dto.NewInternalError("failed to list api keys", err.Error()))
		return
	}

	response := make([]dto.APIKeyResponse, 0, len(keys))
	for i := range keys {
		k := &keys[i]
		perMinute, perDay := h.apiKeyService.EffectiveLimits(k)
		item := dto.APIKeyResponse{
			ID:                 k.ID,
			Name:               k.Name,
			KeyPrefix:          k.KeyPrefix,
			Tier:               string(k.Tier),
			Live:               k.Live,
			RateLimitPerMinute: perMinute,
			RateLimitPerDay:    perDay,
			CreatedAt:          k.CreatedAt.Format(time.RFC3339),
		}
		if k.LastUsedAt != nil {
			formatted := k.LastUsedAt.Format(time.RFC3339)
			item.LastUsedAt = &formatted
		}
		response = append(response, item)
	}

	_ = c.JSON(200, response)
}

func (h *APIKeyHandler) Revoke(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	if err := h.apiKeyService.Revoke(context.Background(), keyID, userID); err != nil {
		c.NotFound("api key not found")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "api key revoked"})
}

func (h *APIKeyHandler) Usage(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	hours := 24
	if raw := c.QueryParam("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 720 {
			c.BadRequest("hours must be between 1 and 720")
			return
		}
		hours = parsed
	}

	ctx := context.Background()

	if _, err := h.apiKeyService.GetByID(ctx, keyID, userID); err != nil {
		c.NotFound("api key not found")
		return
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	stats, err := h.usageService.Stats(ctx, keyID, since)
	if err != nil {
		_ = c.JSON(500, dto.NewInternalError("failed to load usage stats", err.Error()))
		return
	}

	_ = c.JSON(200, dto.UsageStatsResponse{
		KeyID:         keyID,
		WindowHours:   hours,
		TotalRequests: stats.TotalRequests,
		ErrorCount:    stats.ErrorCount,
		AvgLatencyMs:  stats.AvgLatencyMs,
	})
}
