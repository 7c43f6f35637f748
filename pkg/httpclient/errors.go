package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ErrServerStatus marks a 5xx answer from a downstream service.
var ErrServerStatus = errors.New("downstream server error")

// downstreamError accepts both the storefront envelope
// {"error":{"code","message"}} and the flat {"code","message","details"}
// body returned by PostgREST-style data services.
type downstreamError struct {
	Envelope *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (d downstreamError) codeAndMessage() (string, string, bool) {
	if d.Envelope != nil {
		return d.Envelope.Code, d.Envelope.Message, true
	}
	if d.Code != "" || d.Message != "" {
		return d.Code, d.Message, true
	}
	return "", "", false
}

// ParseResponseError consumes and closes a non-2xx response body and
// translates it into an AppError where the status has a storefront meaning.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var parsed downstreamError
	if json.Unmarshal(body, &parsed) == nil {
		if code, msg, ok := parsed.codeAndMessage(); ok {
			return mapDownstreamError(resp.StatusCode, code, msg, serviceName)
		}
	}
	return mapDownstreamError(resp.StatusCode, "", string(body), serviceName)
}

// Postgres error codes surfaced by the data service.
const (
	pgUniqueViolation = "23505"
	pgForeignKey      = "23503"
	pgrstNoRows       = "PGRST116"
)

func mapDownstreamError(status int, code, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case code == pgrstNoRows || status == http.StatusNotFound:
		return &apperrors.AppError{Code: "NOT_FOUND", Message: qualified, Status: http.StatusNotFound, Err: apperrors.ErrNotFound}
	case code == pgUniqueViolation:
		return &apperrors.AppError{Code: "ALREADY_EXISTS", Message: qualified, Status: http.StatusConflict, Err: apperrors.ErrAlreadyExists}
	case code == pgForeignKey, status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s status %d (%s): %s", ErrServerStatus, serviceName, status, code, message)
	default:
		return &apperrors.AppError{Code: "DOWNSTREAM_ERROR", Message: qualified, Status: status}
	}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
