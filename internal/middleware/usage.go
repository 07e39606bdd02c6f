package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/adgate/adgate-api/internal/models"
)

type usageEntryKey struct{}

// usageEntry is allocated per request by WithUsageTracking and filled in by
// the gateway once a key is authenticated. Requests rejected before
// authentication leave it unmarked and are never recorded.
type usageEntry struct {
	apiKeyID uuid.UUID
	marked   bool
}

// UsageRecorder appends one usage row per admitted request.
type UsageRecorder interface {
	RecordAsync(keyID uuid.UUID, endpoint, method string, statusCode int, latency time.Duration)
}

// MarkAuthenticated tags the current request's usage entry with the key that
// was admitted. No-op when the request did not pass through WithUsageTracking.
func MarkAuthenticated(ctx context.Context, key *models.APIKey) {
	if entry, ok := ctx.Value(usageEntryKey{}).(*usageEntry); ok && key != nil {
		entry.apiKeyID = key.ID
		entry.marked = true
	}
}

// statusWriter captures the status code the handler chain writes. Drift does
// not expose the response status after the fact, so the capture happens at
// the net/http layer outside the router.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming handlers working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// WithUsageTracking wraps the router so every authenticated request is logged
// with its final status code and latency. Recording is fire-and-forget and
// happens after the response is written; it never delays or fails a request.
func WithUsageTracking(recorder UsageRecorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := &usageEntry{}
		r = r.WithContext(context.WithValue(r.Context(), usageEntryKey{}, entry))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(sw, r)

		if entry.marked {
			recorder.RecordAsync(entry.apiKeyID, r.URL.Path, r.Method, sw.status, time.Since(start))
		}
	})
}
