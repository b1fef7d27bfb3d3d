package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Business and infrastructure metric types accepted by RecordBusinessMetric.
const (
	MetricResumeAnalyzed        = "resume_analyzed"
	MetricJobDescriptionFetched = "job_description_fetched"
	MetricDocumentExtracted     = "document_extracted"
	MetricRateLimitHit          = "rate_limit_hit"
	MetricTempCleanupFailed     = "temp_cleanup_failed"
)

// Metrics holds all custom instruments. Zero-value instruments are skipped.
type Metrics struct {
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	ResumesAnalyzed        metric.Int64Counter
	JobDescriptionsFetched metric.Int64Counter
	DocumentsExtracted     metric.Int64Counter

	RateLimitHits       metric.Int64Counter
	TempCleanupFailures metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"resumegap_ai_processing_duration_seconds",
		metric.WithDescription("Time spent waiting on text generation"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	if m.AIRequestCount, err = meter.Int64Counter(
		"resumegap_ai_requests_total",
		metric.WithDescription("Total number of generation requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	if m.AIErrorCount, err = meter.Int64Counter(
		"resumegap_ai_errors_total",
		metric.WithDescription("Total number of failed generation requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	if m.AITokenUsage, err = meter.Int64Histogram(
		"resumegap_ai_token_usage",
		metric.WithDescription("Token usage per generation request"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.ResumesAnalyzed, "resumegap_resumes_analyzed_total", "Total number of pipeline runs"},
		{&m.JobDescriptionsFetched, "resumegap_job_descriptions_fetched_total", "Total number of job listing fetches"},
		{&m.DocumentsExtracted, "resumegap_documents_extracted_total", "Total number of resume extractions"},
		{&m.RateLimitHits, "resumegap_rate_limit_hits_total", "Total number of rate limited requests"},
		{&m.TempCleanupFailures, "resumegap_temp_cleanup_failures_total", "Temporary files left behind after all delete attempts"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
	}

	return m, nil
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// TrackAIOperation runs fn inside an "ai.<operation>" span and records its
// duration, outcome and token usage. With metrics off fn still runs.
func (om *ObservabilityManager) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	ctx, span := om.Tracer("resumegap.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	m := om.Metrics()
	if m.AIProcessingTime != nil && om.aiMetricsEnabled() {
		m.recordAIMetrics(ctx, om, operation, err, duration, result, span)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (om *ObservabilityManager) aiMetricsEnabled() bool {
	cm := om.customMetrics()
	return cm == nil || cm.AIOperations.Enabled
}

func (m *Metrics) recordAIMetrics(ctx context.Context, om *ObservabilityManager, operation string, err error, duration float64, result *AIOperationResult, span oteltrace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	cm := om.customMetrics()

	if cm == nil || cm.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
	}
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	if result != nil && result.TokenUsage != nil {
		if cm == nil || cm.AIOperations.TrackTokenUsage {
			m.recordTokenMetrics(ctx, result.TokenUsage, attrs)
		}
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
		)
	}
	span.SetAttributes(attrs...)
}

func (m *Metrics) recordTokenMetrics(ctx context.Context, usage *TokenUsage, attrs []attribute.KeyValue) {
	for _, tt := range []struct {
		kind  string
		value int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		tokenAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
		tokenAttrs = append(tokenAttrs, attrs...)
		tokenAttrs = append(tokenAttrs, attribute.String("token_type", tt.kind))
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
	}
}

// RecordBusinessMetric increments the counter for metricType. Unknown types
// and disabled metric groups are ignored.
func (om *ObservabilityManager) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	m := om.Metrics()
	cm := om.customMetrics()
	business := cm == nil || cm.BusinessMetrics.Enabled

	var counter metric.Int64Counter
	switch metricType {
	case MetricResumeAnalyzed:
		if business {
			counter = m.ResumesAnalyzed
		}
	case MetricJobDescriptionFetched:
		if business {
			counter = m.JobDescriptionsFetched
		}
	case MetricDocumentExtracted:
		if business {
			counter = m.DocumentsExtracted
		}
	case MetricRateLimitHit:
		if cm == nil || (cm.Infrastructure.Enabled && cm.Infrastructure.TrackRateLimits) {
			counter = m.RateLimitHits
		}
	case MetricTempCleanupFailed:
		if cm == nil || (cm.Infrastructure.Enabled && cm.Infrastructure.TrackTempCleanups) {
			counter = m.TempCleanupFailures
		}
	}
	if counter == nil {
		return
	}

	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
