package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/beeper/medsearch/pkg/searcherr"
	"github.com/beeper/medsearch/pkg/shared/httputil"
)

// Orchestrator resolves providers for a query, invokes them and aggregates
// the outcome. It holds no per-call state.
type Orchestrator struct {
	registry   *Registry
	invoker    *Invoker
	baseURL    string
	simplePath string
	strategy   string
	maxResults int
	observer   Observer
	log        zerolog.Logger
}

type options struct {
	httpClient  *http.Client
	credentials CredentialProvider
	retry       *RetryPolicy
	registry    *Registry
	observer    Observer
	logger      *zerolog.Logger
	now         func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*options)

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

func WithCredentials(credentials CredentialProvider) Option {
	return func(o *options) { o.credentials = credentials }
}

func WithRetryPolicy(policy RetryPolicy) Option {
	return func(o *options) { o.retry = &policy }
}

// WithRegistry replaces the providers built from the config.
func WithRegistry(registry *Registry) Option {
	return func(o *options) { o.registry = registry }
}

func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.logger = &log }
}

// WithClock sets the time source used for recency hints and trial freshness.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds an orchestrator from cfg.
func New(cfg *Config, opts ...Option) *Orchestrator {
	cfg = cfg.WithDefaults()
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	registry := o.registry
	if registry == nil {
		registry = NewRegistry(cfg.Providers()...)
	}
	credentials := o.credentials
	if credentials == nil {
		credentials = StaticToken(cfg.SessionToken)
	}
	retry := cfg.Retry.Policy()
	if o.retry != nil {
		retry = *o.retry
	}
	observer := o.observer
	if observer == nil {
		observer = NopObserver{}
	}
	log := zerolog.Nop()
	if o.logger != nil {
		log = *o.logger
	}
	now := o.now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		registry: registry,
		invoker: &Invoker{
			client:      httputil.NewClient(o.httpClient),
			baseURL:     cfg.BaseURL,
			credentials: credentials,
			queries:     NewQueryBuilder(now),
			retry:       retry,
			observer:    observer,
			now:         now,
			log:         log,
		},
		baseURL:    cfg.BaseURL,
		simplePath: cfg.SimpleSearchPath,
		strategy:   cfg.SequentialStrategy,
		maxResults: cfg.MaxResults,
		observer:   observer,
		log:        log,
	}
}

// Registry returns the provider registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Invoker returns the provider invoker.
func (o *Orchestrator) Invoker() *Invoker {
	return o.invoker
}

// resolve reports an empty provider set before validating the query, so
// ErrNoProvidersEnabled wins for any query.
func (o *Orchestrator) resolve(q SearchQuery) ([]Provider, error) {
	providers := o.registry.EnabledProviders(q.Providers)
	if len(providers) == 0 {
		return nil, searcherr.ErrNoProvidersEnabled
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return providers, nil
}

// Search runs the sequential mode. With the default "simple" strategy it
// makes one call to the consolidated search endpoint, attributed to brave
// (or the first resolved provider), and returns that call's error unchanged.
// The "failover" strategy tries each resolved provider in priority order.
func (o *Orchestrator) Search(ctx context.Context, q SearchQuery) (*AggregatedSearchResponse, error) {
	providers, err := o.resolve(q)
	if err != nil {
		return nil, err
	}
	requestID := xid.New().String()
	log := loggerFromContext(ctx, &o.log).With().
		Str("request_id", requestID).
		Str("mode", ModeSequential).
		Logger()
	start := time.Now()

	var resp *SearchResponse
	var failures []ProviderFailure
	if o.strategy == StrategyFailover {
		resp, failures, err = o.failover(ctx, providers, q)
	} else {
		resp, err = o.simpleSearch(ctx, simpleSearchProvider(providers), q)
	}
	took := time.Since(start)
	if err != nil {
		o.observer.SearchCompleted(ModeSequential, took, 0, max(len(failures), 1))
		log.Warn().Err(err).Msg("Sequential search failed")
		return nil, err
	}
	out := o.assemble(requestID, q, []*SearchResponse{resp}, failures, took)
	o.observer.SearchCompleted(ModeSequential, took, out.SuccessfulProviders, len(out.FailedProviders))
	log.Debug().
		Int("results", out.TotalCount).
		Int64("took_ms", out.TookMs).
		Msg("Sequential search finished")
	return out, nil
}

func simpleSearchProvider(providers []Provider) Provider {
	for _, p := range providers {
		if p.ID == ProviderBrave {
			return p
		}
	}
	return providers[0]
}

func (o *Orchestrator) simpleSearch(ctx context.Context, provider Provider, q SearchQuery) (*SearchResponse, error) {
	token, err := o.invoker.sessionToken(ctx)
	if err != nil {
		return nil, err
	}
	endpoint, err := url.Parse(resolveEndpoint(o.baseURL, o.simplePath))
	if err != nil {
		return nil, err
	}
	values := endpoint.Query()
	values.Set("q", o.invoker.queries.Build(q, provider.ID))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	endpoint.RawQuery = values.Encode()

	attemptCtx, cancel := withTimeout(ctx, provider.Timeout)
	defer cancel()
	start := time.Now()
	data, _, err := o.invoker.client.GetJSON(attemptCtx, endpoint.String(),
		httputil.MergeHeaders(provider.Headers, httputil.BearerAuthHeaders(token)))
	o.observer.ProviderAttempt(provider.ID, 0, time.Since(start), err)
	if err != nil {
		return nil, timeoutError(ctx, attemptCtx, provider, err)
	}
	resp, err := normalizeResponse(decodeInput{provider: provider, query: q, now: o.invoker.clock()}, data)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusError {
		return nil, errors.New(resp.Error)
	}
	resp.TookMs = time.Since(start).Milliseconds()
	return resp, nil
}

func (o *Orchestrator) failover(ctx context.Context, providers []Provider, q SearchQuery) (*SearchResponse, []ProviderFailure, error) {
	var failures []ProviderFailure
	var lastErr error
	for _, provider := range providers {
		resp, err := o.invoker.CallProviderWithRetry(ctx, provider, q)
		if err == nil && resp != nil && resp.Status == StatusError {
			err = errors.New(resp.Error)
		}
		if err == nil && resp == nil {
			err = fmt.Errorf("provider %s returned empty response", provider.ID)
		}
		if err != nil {
			lastErr = err
			failures = append(failures, ProviderFailure{Provider: provider.ID, Error: err.Error()})
			continue
		}
		return resp, failures, nil
	}
	return nil, failures, lastErr
}

type providerOutcome struct {
	provider Provider
	resp     *SearchResponse
	err      error
}

// ParallelSearch invokes every resolved provider concurrently and aggregates
// the successful responses. A failing provider never cancels the others.
// When none succeed it returns an *searcherr.AllProvidersFailedError.
func (o *Orchestrator) ParallelSearch(ctx context.Context, q SearchQuery) (*AggregatedSearchResponse, error) {
	providers, err := o.resolve(q)
	if err != nil {
		return nil, err
	}
	requestID := xid.New().String()
	log := loggerFromContext(ctx, &o.log).With().
		Str("request_id", requestID).
		Str("mode", ModeParallel).
		Logger()
	start := time.Now()

	outcomes := make([]providerOutcome, len(providers))
	var group errgroup.Group
	for i, provider := range providers {
		group.Go(func() error {
			resp, err := o.invoker.CallProviderWithRetry(ctx, provider, q)
			outcomes[i] = providerOutcome{provider: provider, resp: resp, err: err}
			return nil
		})
	}
	_ = group.Wait()

	var successes []*SearchResponse
	var failures []ProviderFailure
	var failureErrs []searcherr.ProviderFailure
	for _, outcome := range outcomes {
		err := outcome.err
		if err == nil && outcome.resp == nil {
			err = fmt.Errorf("provider %s returned empty response", outcome.provider.ID)
		}
		if err == nil && outcome.resp.Status == StatusError {
			err = errors.New(outcome.resp.Error)
		}
		if err != nil {
			log.Warn().Err(err).Str("provider", string(outcome.provider.ID)).Msg("Provider failed")
			failures = append(failures, ProviderFailure{Provider: outcome.provider.ID, Error: err.Error()})
			failureErrs = append(failureErrs, searcherr.ProviderFailure{Provider: string(outcome.provider.ID), Err: err})
			continue
		}
		successes = append(successes, outcome.resp)
	}
	took := time.Since(start)
	o.observer.SearchCompleted(ModeParallel, took, len(successes), len(failures))

	if len(successes) == 0 {
		err := &searcherr.AllProvidersFailedError{Failures: failureErrs}
		log.Error().Err(err).Msg("Parallel search failed")
		return nil, err
	}
	out := o.assemble(requestID, q, successes, failures, took)
	log.Debug().
		Int("results", out.TotalCount).
		Int("succeeded", out.SuccessfulProviders).
		Int("failed", len(out.FailedProviders)).
		Int64("took_ms", out.TookMs).
		Msg("Parallel search finished")
	return out, nil
}

func (o *Orchestrator) assemble(requestID string, q SearchQuery, successes []*SearchResponse, failures []ProviderFailure, took time.Duration) *AggregatedSearchResponse {
	results := NewAggregator(o.registry.Weights(), o.maxResults).Aggregate(successes, &q)
	out := &AggregatedSearchResponse{
		RequestID:           requestID,
		Results:             results,
		TotalCount:          len(results),
		TookMs:              took.Milliseconds(),
		Providers:           make([]ProviderID, 0, len(successes)),
		Query:               q.Query,
		SuccessfulProviders: len(successes),
		FailedProviders:     failures,
	}
	if out.FailedProviders == nil {
		out.FailedProviders = []ProviderFailure{}
	}
	for _, resp := range successes {
		out.Providers = append(out.Providers, resp.Provider)
		if out.Summary == "" && resp.Summary != "" {
			out.Summary = resp.Summary
			out.EvidenceLevel = resp.EvidenceLevel
			out.KeyFindings = resp.KeyFindings
		}
	}
	return out
}
