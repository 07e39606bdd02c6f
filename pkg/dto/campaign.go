package dto

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/adgate/adgate-api/internal/models"
)

type CreateCampaignRequest struct {
	SourceURL           string                   `json:"source_url"`
	BusinessName        string                   `json:"business_name"`
	BusinessDescription string                   `json:"business_description"`
	Targeting           models.Targeting         `json:"targeting"`
	Creatives           []models.CreativeVariant `json:"creatives"`
	DailyBudgetCents    *int64                   `json:"daily_budget_cents,omitempty"`
	MetaAccessToken     *string                  `json:"meta_access_token,omitempty"`
}

type LaunchRequest struct {
	MetaAccessToken  string   `json:"meta_access_token"`
	MetaAdAccountID  string   `json:"meta_ad_account_id"`
	MetaPageID       string   `json:"meta_page_id"`
	VariantIndex     *int     `json:"variant_index,omitempty"`
	DailyBudgetCents *int64   `json:"daily_budget_cents,omitempty"`
	RadiusKm         *float64 `json:"radius_km,omitempty"`
}

type LaunchResponse struct {
	ID               uuid.UUID `json:"id"`
	Status           string    `json:"status"`
	MetaCampaignID   string    `json:"meta_campaign_id"`
	MetaAdSetID      string    `json:"meta_adset_id"`
	MetaAdID         string    `json:"meta_ad_id"`
	MetaLeadFormID   string    `json:"meta_leadform_id"`
	MetaCreativeID   string    `json:"meta_creative_id"`
	DailyBudgetCents int64     `json:"daily_budget_cents"`
	LaunchedAt       string    `json:"launched_at"`
}

type PauseRequest struct {
	Action          string `json:"action"`
	MetaAccessToken string `json:"meta_access_token,omitempty"`
}

type PauseResponse struct {
	CampaignID     uuid.UUID `json:"campaign_id"`
	Status         string    `json:"status"`
	MetaCampaignID string    `json:"meta_campaign_id"`
}

type PerformanceMetrics struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	SpendCents  int64   `json:"spend_cents"`
	LeadsCount  int64   `json:"leads_count"`
	CPLCents    *int64  `json:"cpl_cents"`
	CTRPct      float64 `json:"ctr_pct"`
}

type PerformanceResponse struct {
	CampaignID        uuid.UUID          `json:"campaign_id"`
	Status            string             `json:"status"`
	PerformanceStatus string             `json:"performance_status"`
	Metrics           PerformanceMetrics `json:"metrics"`
	HoursSinceLaunch  float64            `json:"hours_since_launch"`
	LastSyncedAt      *string            `json:"last_synced_at"`
}

type CampaignResponse struct {
	ID               uuid.UUID       `json:"id"`
	SourceURL        string          `json:"source_url"`
	BusinessName     string          `json:"business_name"`
	Status           string          `json:"status"`
	DailyBudgetCents *int64          `json:"daily_budget_cents,omitempty"`
	MetaCampaignID   *string         `json:"meta_campaign_id,omitempty"`
	LaunchedAt       *string         `json:"launched_at,omitempty"`
	CreatedAt        string          `json:"created_at"`
	Creatives        json.RawMessage `json:"creatives,omitempty"`
}
