package searcherr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoProvidersEnabled is returned before any network call when provider
	// resolution yields an empty set.
	ErrNoProvidersEnabled = errors.New("no providers enabled")
	// ErrAuthRequired is returned when no session credential is available.
	ErrAuthRequired = errors.New("authentication required")
)

// TimeoutError reports a single provider attempt that exceeded its budget.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request timed out after %dms", e.Provider, e.Timeout.Milliseconds())
}

// ParseError wraps a malformed provider payload.
type ParseError struct {
	Provider string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ProviderFailure pairs a provider id with the error it produced.
type ProviderFailure struct {
	Provider string
	Err      error
}

// AllProvidersFailedError is returned by fan-out searches when no provider
// produced a usable response.
type AllProvidersFailedError struct {
	Failures []ProviderFailure
}

func (e *AllProvidersFailedError) Error() string {
	var auth, rateLimit, server int
	for _, f := range e.Failures {
		switch {
		case IsAuthError(f.Err):
			auth++
		case IsRateLimitError(f.Err):
			rateLimit++
		case IsServerError(f.Err):
			server++
		}
	}
	var sb strings.Builder
	sb.WriteString("All search providers failed")
	var parts []string
	if auth > 0 {
		parts = append(parts, fmt.Sprintf("%d auth", auth))
	}
	if rateLimit > 0 {
		parts = append(parts, fmt.Sprintf("%d rate limit", rateLimit))
	}
	if server > 0 {
		parts = append(parts, fmt.Sprintf("%d server errors", server))
	}
	if len(parts) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString(")")
	}
	if len(e.Failures) > 0 {
		first := e.Failures[0]
		msg := "unknown error"
		if first.Err != nil {
			msg = first.Err.Error()
		}
		fmt.Fprintf(&sb, ": %s: %s", first.Provider, msg)
		if len(e.Failures) > 1 {
			fmt.Fprintf(&sb, " (and %d more)", len(e.Failures)-1)
		}
	}
	return sb.String()
}

// Unwrap exposes every provider error to errors.Is and errors.As.
func (e *AllProvidersFailedError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Err != nil {
			out = append(out, f.Err)
		}
	}
	return out
}
