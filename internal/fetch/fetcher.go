// Package fetch downloads a job listing page and asks the model to pull the
// job description out of its visible text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"resumegap/internal/ai"
	"resumegap/internal/config"
	"resumegap/internal/errors"
	"resumegap/internal/observability"
)

// OperationJobDescription names the generation call in AI metrics and spans.
const OperationJobDescription = "extract_job_description"

// Fetcher retrieves job listings over HTTP.
type Fetcher struct {
	client  *http.Client
	gen     ai.GenerationClient
	prompts ai.PromptSource
	cfg     config.FetchConfig
	obs     *observability.ObservabilityManager
	logger  *errors.Logger
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithPrompts sets where the job description template is read from.
func WithPrompts(src ai.PromptSource) Option {
	return func(f *Fetcher) { f.prompts = src }
}

// WithMetrics records the job description generation alongside the
// pipeline's other model calls.
func WithMetrics(om *observability.ObservabilityManager) Option {
	return func(f *Fetcher) { f.obs = om }
}

// New creates a Fetcher. The default client traces outgoing requests and is
// bounded by cfg.Timeout.
func New(cfg config.FetchConfig, gen ai.GenerationClient, logger *errors.Logger, opts ...Option) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}
	f := &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		gen:    gen,
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchJobDescription downloads rawURL, strips markup and returns the model's
// extraction of the job description. Every failure, including a failed
// generation, is reported as a fetch error.
func (f *Fetcher) FetchJobDescription(ctx context.Context, rawURL string) (*ai.Generation, error) {
	ctx, span := otel.Tracer("resumegap.fetch").Start(ctx, "fetch.job_description")
	defer span.End()
	span.SetAttributes(attribute.String("job.url", rawURL))

	gen, err := f.fetch(ctx, rawURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		f.logger.LogError(err, "Failed to fetch job description", "url", rawURL)
		return nil, err
	}
	span.SetAttributes(attribute.Int("output.length", len(gen.Content)))
	return gen, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*ai.Generation, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.NewFetchError(errors.ErrCodeInvalidRequest,
			"Job listing URL must be an absolute http(s) URL", err).WithContext("url", rawURL)
	}

	page, err := f.download(ctx, u.String())
	if err != nil {
		return nil, err
	}

	text, err := VisibleText(page)
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeFetchFailed, "Failed to parse job listing page", err)
	}
	if text == "" {
		return nil, errors.NewFetchError(errors.ErrCodeFetchFailed, "Job listing page has no visible text", nil)
	}
	f.logger.Debug("Fetched job listing", "url", u.String(), "text_length", len(text))

	prompts := ai.ResolvePrompts(f.prompts)
	gen, err := ai.TrackedGenerate(ctx, f.obs, OperationJobDescription, f.gen, prompts.BuildJobDescription(text))
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeFetchFailed, "Failed to extract job description", err)
	}
	return gen, nil
}

func (f *Fetcher) download(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeFetchFailed, "Failed to build request", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeFetchFailed, "Failed to download job listing", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewFetchError(errors.ErrCodeFetchStatus,
			fmt.Sprintf("Job listing returned status %d", resp.StatusCode), nil).
			WithContext("status", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.cfg.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.cfg.MaxBodyBytes)
	}
	page, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeFetchFailed, "Failed to read job listing", err)
	}
	return page, nil
}
