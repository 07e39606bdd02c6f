// Package meta wraps the Meta Graph API. One client operation is one HTTP
// call that creates, mutates or deletes a single external resource.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adgate/adgate-api/internal/config"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(cfg config.MetaConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Result is the outcome of a single Graph API call. When the upstream body is
// not parseable JSON it is wrapped into a synthetic error object; the client
// only returns a Go error for transport-level failures.
type Result struct {
	Ok   bool
	Data map[string]any
	Raw  string
}

// ID returns the created resource id, or "" when the call did not yield one.
func (r Result) ID() string {
	if id, ok := r.Data["id"].(string); ok {
		return id
	}
	return ""
}

// ErrorJSON returns the upstream error payload unmodified, so callers can
// surface Meta's own diagnostics without interpreting them.
func (r Result) ErrorJSON() json.RawMessage {
	if errObj, ok := r.Data["error"]; ok {
		if raw, err := json.Marshal(errObj); err == nil {
			return raw
		}
	}
	raw, _ := json.Marshal(map[string]string{"message": r.Raw})
	return raw
}

// ErrorMessage extracts the upstream error message for logs.
func (r Result) ErrorMessage() string {
	if errObj, ok := r.Data["error"].(map[string]any); ok {
		if msg, ok := errObj["message"].(string); ok {
			return msg
		}
	}
	return r.Raw
}

// errorCode extracts Meta's numeric error code, 0 when absent.
func (r Result) errorCode() int {
	if errObj, ok := r.Data["error"].(map[string]any); ok {
		if code, ok := errObj["code"].(float64); ok {
			return int(code)
		}
	}
	return 0
}

// OAuthError reports whether the call failed because Meta rejected the
// access token.
func (r Result) OAuthError() bool {
	return r.errorCode() == oauthErrorCode
}

// Post sends a form-encoded POST. Params may be nil.
func (c *Client) Post(ctx context.Context, path, accessToken string, params url.Values) (Result, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/"+strings.TrimLeft(path, "/"),
		strings.NewReader(params.Encode()))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

// SetStatus mutates a resource's status field (ACTIVE, PAUSED).
func (c *Client) SetStatus(ctx context.Context, resourceID, accessToken, status string) (Result, error) {
	params := url.Values{}
	params.Set("status", status)
	return c.Post(ctx, resourceID, accessToken, params)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path, accessToken string) (Result, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/") + "?access_token=" + url.QueryEscape(accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return Result{}, err
	}
	return c.do(req)
}

// Get reads a resource or edge.
func (c *Client) Get(ctx context.Context, path, accessToken string, params url.Values) (Result, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", accessToken)

	u := c.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (Result, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("meta api request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read meta api response: %w", err)
	}

	result := Result{Raw: string(body)}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Malformed upstream bodies become a synthetic error object
		// instead of a parse failure.
		result.Data = map[string]any{
			"error": map[string]any{"message": "unparseable response from meta api"},
		}
		return result, nil
	}
	result.Data = parsed

	_, hasErr := parsed["error"]
	result.Ok = resp.StatusCode >= 200 && resp.StatusCode < 300 && !hasErr

	return result, nil
}

// NormalizeAdAccountID accepts an ad account id with or without the act_
// prefix and returns the Graph API path form.
func NormalizeAdAccountID(id string) string {
	return "act_" + strings.TrimPrefix(strings.TrimSpace(id), "act_")
}
