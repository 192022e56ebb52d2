// Package apierror maps internal errors to the JSON error envelope and
// HTTP status the gateway returns.
package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/foun-chat/foun/pkg/core"
)

// Envelope is the wire shape of every error response.
type Envelope struct {
	Error *core.Error `json:"error"`
}

// FromError translates any error into the canonical error plus the HTTP
// status to send. Upstream errors propagate the provider's status when
// one was captured.
func FromError(err error, requestID string) (*core.Error, int) {
	if err == nil {
		return nil, http.StatusOK
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &core.Error{
			Type:      core.ErrAPI,
			Message:   "request timeout",
			RequestID: requestID,
		}, http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return &core.Error{
			Type:      core.ErrAPI,
			Message:   "request cancelled",
			RequestID: requestID,
		}, http.StatusRequestTimeout
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) && coreErr != nil {
		out := *coreErr
		out.RequestID = requestID
		return &out, statusFor(&out)
	}

	// Unknown errors stay opaque.
	return &core.Error{
		Type:      core.ErrAPI,
		Message:   "internal error",
		RequestID: requestID,
	}, http.StatusInternalServerError
}

func statusFor(e *core.Error) int {
	switch e.Type {
	case core.ErrInvalidRequest:
		return http.StatusBadRequest
	case core.ErrConfiguration:
		return http.StatusUnauthorized
	case core.ErrUpstream:
		if e.UpstreamStatus >= 400 {
			return e.UpstreamStatus
		}
		return http.StatusBadGateway
	case core.ErrRecapParse, core.ErrSynthesis:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Write sends err as a JSON error envelope on w.
func Write(w http.ResponseWriter, err error, requestID string) {
	coreErr, status := FromError(err, requestID)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: coreErr})
}
