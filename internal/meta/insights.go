package meta

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// ErrTokenExpired reports that Meta rejected the access token (OAuth error
// code 190). Callers translate it to a 401.
var ErrTokenExpired = errors.New("meta access token expired or invalid")

const oauthErrorCode = 190

// Insights is the synced delivery snapshot for one campaign.
type Insights struct {
	Impressions int64
	Clicks      int64
	SpendCents  int64
	LeadsCount  int64
}

// CampaignInsights reads lifetime delivery metrics for a campaign.
func (c *Client) CampaignInsights(ctx context.Context, campaignID, accessToken string) (*Insights, error) {
	params := url.Values{}
	params.Set("fields", "impressions,clicks,spend,actions")
	params.Set("date_preset", "maximum")

	res, err := c.Get(ctx, campaignID+"/insights", accessToken, params)
	if err != nil {
		return nil, err
	}
	if !res.Ok {
		if res.errorCode() == oauthErrorCode {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("meta insights request failed: %s", res.ErrorMessage())
	}

	rows, _ := res.Data["data"].([]any)
	if len(rows) == 0 {
		// No delivery yet; Meta returns an empty data array.
		return &Insights{}, nil
	}
	row, _ := rows[0].(map[string]any)

	ins := &Insights{
		Impressions: parseCount(row["impressions"]),
		Clicks:      parseCount(row["clicks"]),
		SpendCents:  parseSpendCents(row["spend"]),
	}

	if actions, ok := row["actions"].([]any); ok {
		for _, a := range actions {
			action, _ := a.(map[string]any)
			if action["action_type"] == "lead" {
				ins.LeadsCount = parseCount(action["value"])
			}
		}
	}

	return ins, nil
}

// parseCount reads Meta's stringly-typed integer fields.
func parseCount(v any) int64 {
	switch t := v.(type) {
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	case float64:
		return int64(t)
	}
	return 0
}

// parseSpendCents converts Meta's decimal dollar spend string to cents.
func parseSpendCents(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	dollars, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(dollars * 100))
}
