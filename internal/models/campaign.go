package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CampaignStatus string

const (
	CampaignStatusDraft  CampaignStatus = "draft"
	CampaignStatusActive CampaignStatus = "active"
	CampaignStatusPaused CampaignStatus = "paused"
)

// CreativeVariant is one ad copy option on a draft. Variants are generated
// upstream; the launch request picks one by index.
type CreativeVariant struct {
	Headline     string `json:"headline"`
	Body         string `json:"body"`
	CallToAction string `json:"call_to_action"`
	ImageURL     string `json:"image_url,omitempty"`
}

// GeoLocation is an explicit targeting point with a radius in kilometers.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km,omitempty"`
}

// Targeting holds the draft's audience parameters. Empty Locations means the
// ad set falls back to country-level targeting.
type Targeting struct {
	AgeMin    int           `json:"age_min,omitempty"`
	AgeMax    int           `json:"age_max,omitempty"`
	Locations []GeoLocation `json:"locations,omitempty"`
}

// Campaign is a draft and, once launched, the record of the external Meta
// resource chain. The five Meta ids are either all set (launched) or all
// null; nothing in between is ever persisted.
type Campaign struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              uuid.UUID       `json:"user_id"`
	SourceURL           string          `json:"source_url"`
	BusinessName        string          `json:"business_name"`
	BusinessDescription string          `json:"business_description,omitempty"`
	TargetingJSON       json.RawMessage `json:"targeting"`
	CreativesJSON       json.RawMessage `json:"creatives"`
	Status              CampaignStatus  `json:"status"`
	DailyBudgetCents    *int64          `json:"daily_budget_cents,omitempty"`
	MetaAccessToken     *string         `json:"-"`

	MetaCampaignID *string `json:"meta_campaign_id,omitempty"`
	MetaAdSetID    *string `json:"meta_adset_id,omitempty"`
	MetaLeadFormID *string `json:"meta_leadform_id,omitempty"`
	MetaCreativeID *string `json:"meta_creative_id,omitempty"`
	MetaAdID       *string `json:"meta_ad_id,omitempty"`

	Impressions  int64      `json:"impressions"`
	Clicks       int64      `json:"clicks"`
	SpendCents   int64      `json:"spend_cents"`
	LeadsCount   int64      `json:"leads_count"`
	LaunchedAt   *time.Time `json:"launched_at,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// MetaResourceChain is the ordered set of external identifiers the launch
// saga creates. CampaignID is the root; deleting it is assumed to cascade to
// every other resource in the chain.
type MetaResourceChain struct {
	CampaignID string `json:"meta_campaign_id"`
	AdSetID    string `json:"meta_adset_id"`
	LeadFormID string `json:"meta_leadform_id"`
	CreativeID string `json:"meta_creative_id"`
	AdID       string `json:"meta_ad_id"`
}

// Launched reports whether the campaign has an external resource chain.
func (c *Campaign) Launched() bool {
	return c.MetaCampaignID != nil && *c.MetaCampaignID != ""
}

// Variants decodes the stored creative variants.
func (c *Campaign) Variants() ([]CreativeVariant, error) {
	if len(c.CreativesJSON) == 0 {
		return nil, nil
	}
	var variants []CreativeVariant
	if err := json.Unmarshal(c.CreativesJSON, &variants); err != nil {
		return nil, fmt.Errorf("invalid creatives payload: %w", err)
	}
	return variants, nil
}

// TargetingSpec decodes the stored targeting parameters.
func (c *Campaign) TargetingSpec() (Targeting, error) {
	var t Targeting
	if len(c.TargetingJSON) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(c.TargetingJSON, &t); err != nil {
		return t, fmt.Errorf("invalid targeting payload: %w", err)
	}
	return t, nil
}
