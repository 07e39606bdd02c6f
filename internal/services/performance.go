package services

import (
	"time"

	"github.com/adgate/adgate-api/internal/models"
)

type PerformanceStatus string

const (
	PerformanceLearning        PerformanceStatus = "learning"
	PerformanceHealthy         PerformanceStatus = "healthy"
	PerformanceUnderperforming PerformanceStatus = "underperforming"
	PerformancePaused          PerformanceStatus = "paused"
)

const (
	// A campaign stays in learning until it has both enough runtime and
	// enough delivery to judge.
	learningWindow    = 48 * time.Hour
	learningMinImpr   = 500
	cplUnderperform   = 3000 // cents
	spendWithoutALead = 5000 // cents
)

// PerformanceInput is the synced metric snapshot the classifier reads.
type PerformanceInput struct {
	Status      models.CampaignStatus
	LaunchedAt  *time.Time
	CreatedAt   time.Time
	Impressions int64
	SpendCents  int64
	LeadsCount  int64
	CPLCents    *int64
}

// ClassifyPerformance maps a campaign's metric snapshot to a coarse health
// state. Pure function; rule order matters and paused wins over everything.
func ClassifyPerformance(in PerformanceInput, now time.Time) PerformanceStatus {
	if in.Status == models.CampaignStatusPaused {
		return PerformancePaused
	}

	since := in.CreatedAt
	if in.LaunchedAt != nil {
		since = *in.LaunchedAt
	}
	if now.Sub(since) < learningWindow || in.Impressions < learningMinImpr {
		return PerformanceLearning
	}

	if in.CPLCents != nil && *in.CPLCents >= cplUnderperform {
		return PerformanceUnderperforming
	}

	if in.SpendCents > spendWithoutALead && in.LeadsCount == 0 {
		return PerformanceUnderperforming
	}

	if in.CPLCents != nil && *in.CPLCents < cplUnderperform && in.LeadsCount >= 1 {
		return PerformanceHealthy
	}

	return PerformanceLearning
}
