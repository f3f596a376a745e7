package searcherr

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/beeper/medsearch/pkg/shared/httputil"
)

// ContainsAnyPattern checks if the lowercased error message contains any of the given patterns.
func ContainsAnyPattern(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func statusCode(err error) int {
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

// IsAuthError checks if the error is an authentication error (missing credential, 401 or 403).
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthRequired) {
		return true
	}
	if code := statusCode(err); code != 0 {
		return code == http.StatusUnauthorized || code == http.StatusForbidden
	}
	return ContainsAnyPattern(err, []string{
		"unauthorized",
		"forbidden",
		"invalid api key",
		"authentication",
	})
}

// IsRateLimitError checks if the error is a rate limit (429) error
func IsRateLimitError(err error) bool {
	if code := statusCode(err); code != 0 {
		return code == http.StatusTooManyRequests
	}
	return ContainsAnyPattern(err, []string{
		"rate limit",
		"rate_limit",
		"too many requests",
		"quota exceeded",
	})
}

// IsServerError checks if the error is a server-side (5xx) error
func IsServerError(err error) bool {
	if code := statusCode(err); code != 0 {
		return code >= 500
	}
	return ContainsAnyPattern(err, []string{
		"internal server error",
		"bad gateway",
		"service unavailable",
		"server error",
	})
}

// IsTimeoutError checks if the error is a timeout error
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if code := statusCode(err); code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout {
		return true
	}
	return ContainsAnyPattern(err, []string{
		"timeout",
		"timed out",
		"deadline exceeded",
		"etimedout",
	})
}

// UserMessage turns an error into a short message suitable for display.
func UserMessage(err error) string {
	if err == nil {
		return "Something went wrong."
	}
	var allFailed *AllProvidersFailedError
	if errors.As(err, &allFailed) {
		return allFailed.Error()
	}
	switch {
	case errors.Is(err, ErrNoProvidersEnabled):
		return "No search providers are enabled. Check your configuration."
	case IsAuthError(err):
		return "Authentication failed. Sign in again and retry."
	case IsRateLimitError(err):
		return "You're sending searches too quickly. Wait a moment, then try again."
	case IsTimeoutError(err):
		return "The search timed out. Try again."
	case IsServerError(err):
		return "The search service returned an error. Try again later."
	}
	msg := err.Error()
	if len(msg) > 600 {
		msg = msg[:600] + "..."
	}
	return msg
}
