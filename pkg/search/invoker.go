package search

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/beeper/medsearch/pkg/searcherr"
	"github.com/beeper/medsearch/pkg/shared/httputil"
)

// Invoker calls one provider endpoint with a per-attempt timeout and retries.
type Invoker struct {
	client      *httputil.Client
	baseURL     string
	credentials CredentialProvider
	queries     QueryBuilder
	retry       RetryPolicy
	observer    Observer
	now         func() time.Time
	log         zerolog.Logger
}

// CallProviderWithRetry makes up to provider.RetryCount+1 attempts and
// returns the first success, or the last error once attempts run out.
// Missing credentials fail immediately. An error envelope from the provider
// is a completed call and comes back as an error-status response.
func (inv *Invoker) CallProviderWithRetry(ctx context.Context, provider Provider, q SearchQuery) (*SearchResponse, error) {
	log := loggerFromContext(ctx, &inv.log).With().Str("provider", string(provider.ID)).Logger()
	policy := inv.retry.WithMaxRetries(provider.RetryCount)
	return Retry(ctx, policy, func(attempt int) (*SearchResponse, error) {
		start := time.Now()
		resp, err := inv.callOnce(ctx, provider, q)
		inv.observer.ProviderAttempt(provider.ID, attempt, time.Since(start), err)
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempt).Msg("Provider attempt failed")
		}
		return resp, err
	}, func(attempt int, err error, wait time.Duration) {
		log.Warn().Err(err).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying provider call")
	})
}

func (inv *Invoker) callOnce(ctx context.Context, provider Provider, q SearchQuery) (*SearchResponse, error) {
	token, err := inv.sessionToken(ctx)
	if err != nil {
		return nil, Permanent(err)
	}
	endpoint := resolveEndpoint(inv.baseURL, provider.Endpoint)
	if endpoint == "" {
		return nil, Permanent(errors.New("base_url is empty"))
	}
	body := inv.queries.Request(q, provider.ID)
	headers := httputil.MergeHeaders(provider.Headers, httputil.BearerAuthHeaders(token))

	attemptCtx, cancel := withTimeout(ctx, provider.Timeout)
	defer cancel()
	start := time.Now()
	data, _, err := inv.client.PostJSON(attemptCtx, endpoint, headers, body)
	if err != nil {
		return nil, timeoutError(ctx, attemptCtx, provider, err)
	}
	resp, err := normalizeResponse(decodeInput{provider: provider, query: q, now: inv.clock()}, data)
	if err != nil {
		return nil, err
	}
	resp.TookMs = time.Since(start).Milliseconds()
	return resp, nil
}

func (inv *Invoker) sessionToken(ctx context.Context) (string, error) {
	if inv.credentials == nil {
		return "", searcherr.ErrAuthRequired
	}
	token, err := inv.credentials.SessionToken(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(token) == "" {
		return "", searcherr.ErrAuthRequired
	}
	return token, nil
}

func (inv *Invoker) clock() time.Time {
	if inv.now == nil {
		return time.Now()
	}
	return inv.now()
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// timeoutError reports an attempt that hit its own deadline as a TimeoutError.
// Cancellation of the parent context is passed through unchanged.
func timeoutError(parent, attempt context.Context, provider Provider, err error) error {
	if parent.Err() == nil && errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return &searcherr.TimeoutError{Provider: string(provider.ID), Timeout: provider.Timeout}
	}
	return err
}

func resolveEndpoint(baseURL, path string) string {
	path = strings.TrimSpace(path)
	if parsed, err := url.Parse(path); err == nil && parsed.IsAbs() {
		return path
	}
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return ""
	}
	if path == "" {
		return trimmed
	}
	return strings.TrimRight(trimmed, "/") + "/" + strings.TrimLeft(path, "/")
}
