package core

import (
	"fmt"
)

// Error is the canonical error shape surfaced to API callers.
type Error struct {
	Type           ErrorType `json:"type"`
	Message        string    `json:"message"`
	Param          string    `json:"param,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	UpstreamStatus int       `json:"upstream_status,omitempty"`
	UpstreamBody   string    `json:"upstream_body,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.UpstreamStatus != 0 {
		return fmt.Sprintf("%s: %s (upstream status %d)", e.Type, e.Message, e.UpstreamStatus)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrConfiguration  ErrorType = "configuration_error"
	ErrUpstream       ErrorType = "upstream_error"
	ErrRecapParse     ErrorType = "recap_parse_error"
	ErrSynthesis      ErrorType = "synthesis_error"
	ErrAPI            ErrorType = "api_error"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{
		Type:    ErrInvalidRequest,
		Message: message,
	}
}

// NewConfigurationError reports a missing or unusable credential.
// Param names the credential that was expected.
func NewConfigurationError(message, param string) *Error {
	return &Error{
		Type:    ErrConfiguration,
		Message: message,
		Param:   param,
	}
}

// NewUpstreamError reports a non-success response from a provider.
// The upstream status and body text are preserved for the caller.
func NewUpstreamError(provider string, status int, body string) *Error {
	return &Error{
		Type:           ErrUpstream,
		Message:        fmt.Sprintf("%s request failed", provider),
		Param:          provider,
		UpstreamStatus: status,
		UpstreamBody:   body,
	}
}

// NewTransportError reports a transport-level failure reaching a provider.
func NewTransportError(provider string, underlying error) *Error {
	return &Error{
		Type:    ErrUpstream,
		Message: fmt.Sprintf("%s: %v", provider, underlying),
		Param:   provider,
	}
}

// NewRecapParseError reports model output without a recognizable JSON object.
func NewRecapParseError(message string) *Error {
	return &Error{
		Type:    ErrRecapParse,
		Message: message,
	}
}

// NewSynthesisError reports a text-to-speech failure.
func NewSynthesisError(message string) *Error {
	return &Error{
		Type:    ErrSynthesis,
		Message: message,
	}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{
		Type:    ErrAPI,
		Message: message,
	}
}
