package searcherr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/beeper/medsearch/pkg/shared/httputil"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		auth      bool
		rateLimit bool
		server    bool
		timeout   bool
	}{
		{name: "nil", err: nil},
		{name: "missing credential", err: fmt.Errorf("exa: %w", ErrAuthRequired), auth: true},
		{name: "401", err: &httputil.StatusError{Code: 401, Status: "Unauthorized"}, auth: true},
		{name: "403", err: &httputil.StatusError{Code: 403, Status: "Forbidden"}, auth: true},
		{name: "429", err: &httputil.StatusError{Code: 429, Status: "Too Many Requests"}, rateLimit: true},
		{name: "502", err: &httputil.StatusError{Code: 502, Status: "Bad Gateway"}, server: true},
		{name: "504", err: &httputil.StatusError{Code: 504, Status: "Gateway Timeout"}, server: true, timeout: true},
		{name: "timeout error", err: &TimeoutError{Provider: "brave", Timeout: 8 * time.Second}, timeout: true},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), timeout: true},
		{name: "message rate limit", err: errors.New("Rate limit reached for requests"), rateLimit: true},
		{name: "plain", err: errors.New("connection refused")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAuthError(tc.err); got != tc.auth {
				t.Fatalf("IsAuthError=%v, want %v", got, tc.auth)
			}
			if got := IsRateLimitError(tc.err); got != tc.rateLimit {
				t.Fatalf("IsRateLimitError=%v, want %v", got, tc.rateLimit)
			}
			if got := IsServerError(tc.err); got != tc.server {
				t.Fatalf("IsServerError=%v, want %v", got, tc.server)
			}
			if got := IsTimeoutError(tc.err); got != tc.timeout {
				t.Fatalf("IsTimeoutError=%v, want %v", got, tc.timeout)
			}
		})
	}
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &TimeoutError{Provider: "perplexity", Timeout: 30 * time.Second}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timed out in %q", err.Error())
	}
	if !strings.Contains(err.Error(), "30000ms") {
		t.Fatalf("expected budget in %q", err.Error())
	}
}

func TestAllProvidersFailedError(t *testing.T) {
	err := &AllProvidersFailedError{Failures: []ProviderFailure{
		{Provider: "brave", Err: &httputil.StatusError{Code: 401, Status: "Unauthorized"}},
		{Provider: "exa", Err: &httputil.StatusError{Code: 429, Status: "Too Many Requests"}},
		{Provider: "perplexity", Err: &httputil.StatusError{Code: 503, Status: "Service Unavailable"}},
		{Provider: "clinicaltrials", Err: ErrAuthRequired},
	}}
	msg := err.Error()
	for _, want := range []string{
		"All search providers failed",
		"2 auth",
		"1 rate limit",
		"1 server errors",
		"brave: http 401 Unauthorized",
		"and 3 more",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected errors.Is to reach wrapped auth error")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(fmt.Errorf("search: %w", ErrNoProvidersEnabled)); !strings.Contains(got, "No search providers") {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := UserMessage(&TimeoutError{Provider: "exa", Timeout: time.Second}); got != "The search timed out. Try again." {
		t.Fatalf("unexpected message: %q", got)
	}
}
