package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adgate/adgate-api/internal/database"
	"github.com/adgate/adgate-api/internal/models"
)

// UsageService appends one usage row per completed authenticated request.
// Writes are best-effort: they happen off the response path and a failed
// insert is logged and dropped, never retried. A row written for request N is
// not guaranteed to be visible to the rate-limit count of request N+1.
type UsageService struct {
	db     *database.DB
	logger zerolog.Logger
}

func NewUsageService(db *database.DB, logger zerolog.Logger) *UsageService {
	return &UsageService{db: db, logger: logger}
}

// Record inserts a single usage row synchronously. Callers on the request
// path should use RecordAsync instead.
func (s *UsageService) Record(ctx context.Context, keyID uuid.UUID, endpoint, method string, statusCode int, latency time.Duration) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO api_usage (api_key_id, endpoint, method, status_code, latency_ms)
		VALUES ($1, $2, $3, $4, $5)
	`, keyID, endpoint, method, statusCode, latency.Milliseconds())
	return err
}

// RecordAsync fires the insert without blocking the caller. At-most-once.
func (s *UsageService) RecordAsync(keyID uuid.UUID, endpoint, method string, statusCode int, latency time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Record(ctx, keyID, endpoint, method, statusCode, latency); err != nil {
			s.logger.Warn().Err(err).
				Str("endpoint", endpoint).
				Msg("dropping usage record")
		}
	}()
}

// Stats aggregates a key's usage rows since the given time.
func (s *UsageService) Stats(ctx context.Context, keyID uuid.UUID, since time.Time) (*models.UsageStats, error) {
	var stats models.UsageStats
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status_code >= 400),
			COALESCE(AVG(latency_ms), 0)
		FROM api_usage
		WHERE api_key_id = $1 AND created_at >= $2
	`, keyID, since).Scan(&stats.TotalRequests, &stats.ErrorCount, &stats.AvgLatencyMs)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
