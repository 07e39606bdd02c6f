package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"

	"github.com/adgate/adgate-api/internal/meta"
	"github.com/adgate/adgate-api/internal/middleware"
	"github.com/adgate/adgate-api/internal/models"
	"github.com/adgate/adgate-api/internal/services"
	"github.com/adgate/adgate-api/pkg/dto"
)

// defaultRadiusKm applies when a draft has custom locations without radii and
// the launch request does not override one.
const defaultRadiusKm = 10.0

type CampaignHandler struct {
	campaignService CampaignServiceInterface
	launcher        LauncherInterface
	metaClient      MetaClientInterface
	logger          zerolog.Logger
}

func NewCampaignHandler(
	campaignService CampaignServiceInterface,
	launcher LauncherInterface,
	metaClient MetaClientInterface,
	logger zerolog.Logger,
) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		launcher:        launcher,
		metaClient:      metaClient,
		logger:          logger,
	}
}

func (h *CampaignHandler) Create(c *drift.Context) {
	key := middleware.GetAPIKey(c)
	if key == nil {
		_ = c.JSON(401, dto.NewError(dto.ErrCodeInvalidAPIKey, "not authenticated"))
		return
	}

	var req dto.CreateCampaignRequest
	if err := c.BindJSON(&req); err != nil {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "invalid request body"))
		return
	}

	if strings.TrimSpace(req.SourceURL) == "" {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "source_url is required"))
		return
	}
	if strings.TrimSpace(req.BusinessName) == "" {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "business_name is required"))
		return
	}
	if len(req.Creatives) == 0 {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "at least one creative variant is required"))
		return
	}
	for _, v := range req.Creatives {
		if strings.TrimSpace(v.Headline) == "" || strings.TrimSpace(v.Body) == "" {
			_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "every creative variant needs a headline and body"))
			return
		}
	}
	if req.DailyBudgetCents != nil && *req.DailyBudgetCents <= 0 {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "daily_budget_cents must be positive"))
		return
	}

	campaign, err := h.campaignService.Create(c.Request.Context(), key.UserID, services.CreateInput{
		SourceURL:           req.SourceURL,
		BusinessName:        req.BusinessName,
		BusinessDescription: req.BusinessDescription,
		Targeting:           req.Targeting,
		Creatives:           req.Creatives,
		DailyBudgetCents:    req.DailyBudgetCents,
		MetaAccessToken:     req.MetaAccessToken,
	})
	if err != nil {
		_ = c.JSON(500, dto.NewInternalError("failed to create campaign", err.Error()))
		return
	}

	_ = c.JSON(201, campaignResponse(campaign))
}

func (h *CampaignHandler) List(c *drift.Context) {
	key := middleware.GetAPIKey(c)
	if key == nil {
		_ = c.JSON(401, dto.NewError(dto.ErrCodeInvalidAPIKey, "not authenticated"))
		return
	}

	campaigns, err := h.campaignService.List(c.Request.Context(), key.UserID)
	if err != nil {
		_ = c.JSON(500, dto.NewInternalError("failed to list campaigns", err.Error()))
		return
	}

	response := make([]dto.CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		response = append(response, campaignResponse(&campaigns[i]))
	}
	_ = c.JSON(200, response)
}

func (h *CampaignHandler) Get(c *drift.Context) {
	key := middleware.GetAPIKey(c)
	if key == nil {
		_ = c.JSON(401, dto.NewError(dto.ErrCodeInvalidAPIKey, "not authenticated"))
		return
	}

	campaign, ok := h.loadCampaign(c, key.UserID)
	if !ok {
		return
	}

	_ = c.JSON(200, campaignResponse(campaign))
}

// Launch materializes a draft on Meta. Repeated launches of the same draft
// are not deduplicated; each call runs a fresh saga.
func (h *CampaignHandler) Launch(c *drift.Context) {
	key := middleware.GetAPIKey(c)
	if key == nil {
		_ = c.JSON(401, dto.NewError(dto.ErrCodeInvalidAPIKey, "not authenticated"))
		return
	}

	var req dto.LaunchRequest
	if err := c.BindJSON(&req); err != nil {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "invalid request body"))
		return
	}

	if req.MetaAccessToken == "" {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "meta_access_token is required"))
		return
	}
	if strings.TrimSpace(req.MetaAdAccountID) == "" {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "meta_ad_account_id is required"))
		return
	}
	if strings.TrimSpace(req.MetaPageID) == "" {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "meta_page_id is required"))
		return
	}

	campaign, ok := h.loadCampaign(c, key.UserID)
	if !ok {
		return
	}

	variants, err := campaign.Variants()
	if err != nil || len(variants) == 0 {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "campaign has no usable creative variants"))
		return
	}
	variantIndex := 0
	if req.VariantIndex != nil {
		variantIndex = *req.VariantIndex
	}
	if variantIndex < 0 || variantIndex >= len(variants) {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "variant_index out of range"))
		return
	}

	budget := int64(0)
	switch {
	case req.DailyBudgetCents != nil:
		budget = *req.DailyBudgetCents
	case campaign.DailyBudgetCents != nil:
		budget = *campaign.DailyBudgetCents
	}
	if budget <= 0 {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "daily_budget_cents is required on the request or the draft"))
		return
	}

	targeting, err := campaign.TargetingSpec()
	if err != nil {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "campaign has an unusable targeting payload"))
		return
	}

	radius := defaultRadiusKm
	if req.RadiusKm != nil && *req.RadiusKm > 0 {
		radius = *req.RadiusKm
	}

	result, err := h.launcher.Launch(c.Request.Context(), meta.LaunchInput{
		AccessToken:      req.MetaAccessToken,
		AdAccountID:      req.MetaAdAccountID,
		PageID:           req.MetaPageID,
		BusinessName:     campaign.BusinessName,
		SourceURL:        campaign.SourceURL,
		Variant:          variants[variantIndex],
		Targeting:        targeting,
		DailyBudgetCents: budget,
		RadiusKm:         radius,
	})
	if err != nil {
		var stepErr *meta.StepError
		if errors.As(err, &stepErr) {
			_ = c.JSON(502, dto.NewMetaError(stepErr.Step, stepErr.MetaError))
			return
		}
		_ = c.JSON(502, dto.NewError(dto.ErrCodeMetaAPI, err.Error()))
		return
	}

	if err := h.campaignService.MarkLaunched(c.Request.Context(), campaign.ID, result.Chain, result.DailyBudgetCents, result.LaunchedAt); err != nil {
		// The external chain exists and is serving; only the local record
		// failed to update.
		h.logger.Error().Err(err).
			Str("campaign_id", campaign.ID.String()).
			Str("meta_campaign_id", result.Chain.CampaignID).
			Msg("launched on meta but failed to persist resource chain")
		_ = c.JSON(500, dto.NewInternalError("campaign launched but could not be recorded", err.Error()))
		return
	}

	_ = c.JSON(200, dto.LaunchResponse{
		ID:               campaign.ID,
		Status:           string(models.CampaignStatusActive),
		MetaCampaignID:   result.Chain.CampaignID,
		MetaAdSetID:      result.Chain.AdSetID,
		MetaAdID:         result.Chain.AdID,
		MetaLeadFormID:   result.Chain.LeadFormID,
		MetaCreativeID:   result.Chain.CreativeID,
		DailyBudgetCents: result.DailyBudgetCents,
		LaunchedAt:       result.LaunchedAt.Format(time.RFC3339),
	})
}

// Pause toggles a launched campaign between paused and active, on Meta first
// and locally after.
func (h *CampaignHandler) Pause(c *drift.Context) {
	key := middleware.GetAPIKey(c)
	if key == nil {
		_ = c.JSON(401, dto.NewError(dto.ErrCodeInvalidAPIKey, "not authenticated"))
		return
	}

	var req dto.PauseRequest
	if err := c.BindJSON(&req); err != nil {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "invalid request body"))
		return
	}

	var metaStatus string
	var localStatus models.CampaignStatus
	switch req.Action {
	case "pause":
		metaStatus, localStatus = "PAUSED", models.CampaignStatusPaused
	case "resume":
		metaStatus, localStatus = "ACTIVE", models.CampaignStatusActive
	default:
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "action must be pause or resume"))
		return
	}

	campaign, ok := h.loadCampaign(c, key.UserID)
	if !ok {
		return
	}
	if !campaign.Launched() {
		_ = c.JSON(404, dto.NewError(dto.ErrCodeNotFound, "campaign has not been launched"))
		return
	}

	token := req.MetaAccessToken
	if token == "" && campaign.MetaAccessToken != nil {
		token = *campaign.MetaAccessToken
	}
	if token == "" {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeMissingToken, "no meta access token on the request or the campaign"))
		return
	}

	res, err := h.metaClient.SetStatus(c.Request.Context(), *campaign.MetaCampaignID, token, metaStatus)
	if err != nil {
		_ = c.JSON(502, dto.NewError(dto.ErrCodeMetaAPI, err.Error()))
		return
	}
	if !res.Ok {
		if res.OAuthError() {
			_ = c.JSON(401, dto.NewError(dto.ErrCodeMetaTokenExpired, "meta access token expired or invalid"))
			return
		}
		_ = c.JSON(502, dto.ErrorResponse{Error: dto.ErrorBody{
			Code:      dto.ErrCodeMetaAPI,
			Message:   res.ErrorMessage(),
			MetaError: res.ErrorJSON(),
		}})
		return
	}

	if err := h.campaignService.UpdateStatus(c.Request.Context(), campaign.ID, localStatus); err != nil {
		_ = c.JSON(500, dto.NewInternalError("failed to update campaign status", err.Error()))
		return
	}

	_ = c.JSON(200, dto.PauseResponse{
		CampaignID:     campaign.ID,
		Status:         string(localStatus),
		MetaCampaignID: *campaign.MetaCampaignID,
	})
}

// Performance syncs delivery metrics when a token is available, then
// classifies the campaign. Without a token the last synced metrics are
// classified as-is.
func (h *CampaignHandler) Performance(c *drift.Context) {
	key := middleware.GetAPIKey(c)
	if key == nil {
		_ = c.JSON(401, dto.NewError(dto.ErrCodeInvalidAPIKey, "not authenticated"))
		return
	}

	campaign, ok := h.loadCampaign(c, key.UserID)
	if !ok {
		return
	}
	if !campaign.Launched() {
		_ = c.JSON(404, dto.NewError(dto.ErrCodeNotFound, "campaign has not been launched"))
		return
	}

	token := c.QueryParam("meta_access_token")
	if token == "" && campaign.MetaAccessToken != nil {
		token = *campaign.MetaAccessToken
	}

	now := time.Now()
	if token != "" {
		ins, err := h.metaClient.CampaignInsights(c.Request.Context(), *campaign.MetaCampaignID, token)
		if errors.Is(err, meta.ErrTokenExpired) {
			_ = c.JSON(401, dto.NewError(dto.ErrCodeMetaTokenExpired, "meta access token expired or invalid"))
			return
		}
		if err != nil {
			_ = c.JSON(502, dto.NewError(dto.ErrCodeMetaAPI, err.Error()))
			return
		}

		campaign.Impressions = ins.Impressions
		campaign.Clicks = ins.Clicks
		campaign.SpendCents = ins.SpendCents
		campaign.LeadsCount = ins.LeadsCount
		syncedAt := now
		campaign.LastSyncedAt = &syncedAt

		if err := h.campaignService.UpdateMetrics(c.Request.Context(), campaign.ID,
			ins.Impressions, ins.Clicks, ins.SpendCents, ins.LeadsCount, syncedAt); err != nil {
			h.logger.Warn().Err(err).
				Str("campaign_id", campaign.ID.String()).
				Msg("failed to persist synced metrics")
		}
	}

	var cpl *int64
	if campaign.LeadsCount > 0 {
		v := campaign.SpendCents / campaign.LeadsCount
		cpl = &v
	}
	var ctr float64
	if campaign.Impressions > 0 {
		ctr = float64(campaign.Clicks) / float64(campaign.Impressions) * 100
	}

	status := services.ClassifyPerformance(services.PerformanceInput{
		Status:      campaign.Status,
		LaunchedAt:  campaign.LaunchedAt,
		CreatedAt:   campaign.CreatedAt,
		Impressions: campaign.Impressions,
		SpendCents:  campaign.SpendCents,
		LeadsCount:  campaign.LeadsCount,
		CPLCents:    cpl,
	}, now)

	launchedAt := campaign.CreatedAt
	if campaign.LaunchedAt != nil {
		launchedAt = *campaign.LaunchedAt
	}

	resp := dto.PerformanceResponse{
		CampaignID:        campaign.ID,
		Status:            string(campaign.Status),
		PerformanceStatus: string(status),
		Metrics: dto.PerformanceMetrics{
			Impressions: campaign.Impressions,
			Clicks:      campaign.Clicks,
			SpendCents:  campaign.SpendCents,
			LeadsCount:  campaign.LeadsCount,
			CPLCents:    cpl,
			CTRPct:      ctr,
		},
		HoursSinceLaunch: now.Sub(launchedAt).Hours(),
	}
	if campaign.LastSyncedAt != nil {
		formatted := campaign.LastSyncedAt.Format(time.RFC3339)
		resp.LastSyncedAt = &formatted
	}

	_ = c.JSON(200, resp)
}

// loadCampaign parses the :id param and loads the owner-scoped campaign,
// writing the error response itself when either fails.
func (h *CampaignHandler) loadCampaign(c *drift.Context, userID uuid.UUID) (*models.Campaign, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.JSON(400, dto.NewError(dto.ErrCodeValidation, "invalid campaign id"))
		return nil, false
	}

	campaign, err := h.campaignService.GetByID(c.Request.Context(), id, userID)
	if errors.Is(err, services.ErrCampaignNotFound) {
		_ = c.JSON(404, dto.NewError(dto.ErrCodeNotFound, "campaign not found"))
		return nil, false
	}
	if err != nil {
		_ = c.JSON(500, dto.NewInternalError("failed to load campaign", err.Error()))
		return nil, false
	}
	return campaign, true
}

func campaignResponse(campaign *models.Campaign) dto.CampaignResponse {
	resp := dto.CampaignResponse{
		ID:               campaign.ID,
		SourceURL:        campaign.SourceURL,
		BusinessName:     campaign.BusinessName,
		Status:           string(campaign.Status),
		DailyBudgetCents: campaign.DailyBudgetCents,
		MetaCampaignID:   campaign.MetaCampaignID,
		CreatedAt:        campaign.CreatedAt.Format(time.RFC3339),
		Creatives:        campaign.CreativesJSON,
	}
	if campaign.LaunchedAt != nil {
		formatted := campaign.LaunchedAt.Format(time.RFC3339)
		resp.LaunchedAt = &formatted
	}
	return resp
}
