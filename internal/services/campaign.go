package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adgate/adgate-api/internal/database"
	"github.com/adgate/adgate-api/internal/models"
)

var ErrCampaignNotFound = errors.New("campaign not found")

const campaignColumns = `id, user_id, source_url, business_name, business_description,
	targeting, creatives, status, daily_budget_cents, meta_access_token,
	meta_campaign_id, meta_adset_id, meta_leadform_id, meta_creative_id, meta_ad_id,
	impressions, clicks, spend_cents, leads_count,
	launched_at, last_synced_at, created_at, updated_at`

type CampaignService struct {
	db *database.DB
}

func NewCampaignService(db *database.DB) *CampaignService {
	return &CampaignService{db: db}
}

// CreateInput carries the draft fields supplied by the campaign builder.
type CreateInput struct {
	SourceURL           string
	BusinessName        string
	BusinessDescription string
	Targeting           models.Targeting
	Creatives           []models.CreativeVariant
	DailyBudgetCents    *int64
	MetaAccessToken     *string
}

func (s *CampaignService) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*models.Campaign, error) {
	targetingJSON, err := json.Marshal(in.Targeting)
	if err != nil {
		return nil, err
	}
	creativesJSON, err := json.Marshal(in.Creatives)
	if err != nil {
		return nil, err
	}

	var c models.Campaign
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO campaigns (user_id, source_url, business_name, business_description,
			targeting, creatives, daily_budget_cents, meta_access_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+campaignColumns+`
	`, userID, in.SourceURL, in.BusinessName, in.BusinessDescription,
		targetingJSON, creativesJSON, in.DailyBudgetCents, in.MetaAccessToken,
	).Scan(scanDest(&c)...)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID loads a campaign scoped to its owner.
func (s *CampaignService) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Campaign, error) {
	var c models.Campaign
	err := s.db.Pool.QueryRow(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(scanDest(&c)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CampaignService) List(ctx context.Context, userID uuid.UUID) ([]models.Campaign, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(scanDest(&c)...); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// MarkLaunched persists the full resource chain in a single statement. The
// five identifiers, the active status and the launch timestamp are committed
// together so a campaign is never visible in a half-launched state.
func (s *CampaignService) MarkLaunched(ctx context.Context, id uuid.UUID, chain models.MetaResourceChain, dailyBudgetCents int64, launchedAt time.Time) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE campaigns
		SET status = $1, meta_campaign_id = $2, meta_adset_id = $3,
			meta_leadform_id = $4, meta_creative_id = $5, meta_ad_id = $6,
			daily_budget_cents = $7, launched_at = $8, updated_at = NOW()
		WHERE id = $9
	`, models.CampaignStatusActive, chain.CampaignID, chain.AdSetID,
		chain.LeadFormID, chain.CreativeID, chain.AdID,
		dailyBudgetCents, launchedAt, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// UpdateStatus flips the campaign between active and paused. The external
// identifiers are left untouched.
func (s *CampaignService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.CampaignStatus) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE campaigns SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// UpdateMetrics stores the most recent insight sync.
func (s *CampaignService) UpdateMetrics(ctx context.Context, id uuid.UUID, impressions, clicks, spendCents, leadsCount int64, syncedAt time.Time) error {
	_, err := s.db.Pool.Exec(ctx, `
		UPDATE campaigns
		SET impressions = $1, clicks = $2, spend_cents = $3, leads_count = $4,
			last_synced_at = $5, updated_at = NOW()
		WHERE id = $6
	`, impressions, clicks, spendCents, leadsCount, syncedAt, id)
	return err
}

func scanDest(c *models.Campaign) []any {
	return []any{
		&c.ID, &c.UserID, &c.SourceURL, &c.BusinessName, &c.BusinessDescription,
		&c.TargetingJSON, &c.CreativesJSON, &c.Status, &c.DailyBudgetCents, &c.MetaAccessToken,
		&c.MetaCampaignID, &c.MetaAdSetID, &c.MetaLeadFormID, &c.MetaCreativeID, &c.MetaAdID,
		&c.Impressions, &c.Clicks, &c.SpendCents, &c.LeadsCount,
		&c.LaunchedAt, &c.LastSyncedAt, &c.CreatedAt, &c.UpdatedAt,
	}
}
