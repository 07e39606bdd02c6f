package dto

import "encoding/json"

// Machine-readable error codes. Clients branch on these, not on messages.
const (
	ErrCodeValidation        = "validation_error"
	ErrCodeMissingAPIKey     = "missing_api_key"
	ErrCodeInvalidAPIKey     = "invalid_api_key"
	ErrCodeRevokedAPIKey     = "revoked_api_key"
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeMetaAPI           = "meta_api_error"
	ErrCodeMetaTokenExpired  = "meta_token_expired"
	ErrCodeMissingToken      = "missing_token"
	ErrCodeNotFound          = "not_found"
	ErrCodeInternal          = "internal_error"
)

// ErrorBody is the uniform error payload: {"error":{...}}.
type ErrorBody struct {
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	RetryAfter *int            `json:"retry_after,omitempty"`
	Details    string          `json:"details,omitempty"`
	Step       string          `json:"step,omitempty"`
	MetaError  json.RawMessage `json:"meta_error,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Code: code, Message: message}}
}

func NewRateLimitError(retryAfter int) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:       ErrCodeRateLimitExceeded,
		Message:    "rate limit exceeded",
		RetryAfter: &retryAfter,
	}}
}

func NewInternalError(message, details string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:    ErrCodeInternal,
		Message: message,
		Details: details,
	}}
}

func NewMetaError(step string, metaError json.RawMessage) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:      ErrCodeMetaAPI,
		Message:   "meta api call failed at step " + step,
		Step:      step,
		MetaError: metaError,
	}}
}
