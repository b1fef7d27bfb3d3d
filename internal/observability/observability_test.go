package observability

import (
	"context"
	stderrors "errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"resumegap/internal/config"
)

func newTestManager(t *testing.T, full *config.Config) (*ObservabilityManager, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	om, err := NewObservabilityManager(ObservabilityConfig{
		ServiceName:    "resumegap-test",
		ServiceVersion: "test",
		Enabled:        true,
		SampleRate:     1.0,
	}, full, WithMetricReader(reader))
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })
	return om, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func counterTotal(t *testing.T, data map[string]metricdata.Aggregation, name string) int64 {
	t.Helper()
	agg, ok := data[name]
	if !ok {
		return 0
	}
	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestTrackAIOperation(t *testing.T) {
	om, reader := newTestManager(t, nil)

	err := om.TrackAIOperation(context.Background(), "extract_requirements", func(ctx context.Context) *AIOperationResult {
		return &AIOperationResult{TokenUsage: &TokenUsage{InputTokens: 10, OutputTokens: 4, TotalTokens: 14}}
	})
	require.NoError(t, err)

	boom := stderrors.New("model overloaded")
	err = om.TrackAIOperation(context.Background(), "analyze_gaps", func(ctx context.Context) *AIOperationResult {
		return &AIOperationResult{Error: boom}
	})
	assert.ErrorIs(t, err, boom)

	data := collect(t, reader)
	assert.Equal(t, int64(2), counterTotal(t, data, "resumegap_ai_requests_total"))
	assert.Equal(t, int64(1), counterTotal(t, data, "resumegap_ai_errors_total"))

	tokens, ok := data["resumegap_ai_token_usage"].(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Len(t, tokens.DataPoints, 3, "one point per token type")

	_, ok = data["resumegap_ai_processing_duration_seconds"].(metricdata.Histogram[float64])
	assert.True(t, ok)
}

func TestTrackAIOperationWithoutManager(t *testing.T) {
	var om *ObservabilityManager
	ran := false
	err := om.TrackAIOperation(context.Background(), "rewrite_resume", func(ctx context.Context) *AIOperationResult {
		ran = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, ran)

	om.RecordBusinessMetric(context.Background(), MetricResumeAnalyzed, true)
	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestDisabledManagerRecordsNothing(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "off"}, nil)
	require.NoError(t, err)

	assert.Nil(t, om.Metrics().ResumesAnalyzed)
	om.RecordBusinessMetric(context.Background(), MetricResumeAnalyzed, true)

	_, span := om.Tracer("x").Start(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestRecordBusinessMetric(t *testing.T) {
	om, reader := newTestManager(t, nil)
	ctx := context.Background()

	om.RecordBusinessMetric(ctx, MetricResumeAnalyzed, true)
	om.RecordBusinessMetric(ctx, MetricResumeAnalyzed, false, attribute.String("failure", "fetch"))
	om.RecordBusinessMetric(ctx, MetricJobDescriptionFetched, true)
	om.RecordBusinessMetric(ctx, MetricDocumentExtracted, true, attribute.String("file_type", "pdf"))
	om.RecordBusinessMetric(ctx, MetricTempCleanupFailed, false)
	om.RecordBusinessMetric(ctx, "unknown", true)

	data := collect(t, reader)
	assert.Equal(t, int64(2), counterTotal(t, data, "resumegap_resumes_analyzed_total"))
	assert.Equal(t, int64(1), counterTotal(t, data, "resumegap_job_descriptions_fetched_total"))
	assert.Equal(t, int64(1), counterTotal(t, data, "resumegap_documents_extracted_total"))
	assert.Equal(t, int64(1), counterTotal(t, data, "resumegap_temp_cleanup_failures_total"))
}

func TestRecordBusinessMetricHonoursConfig(t *testing.T) {
	full := &config.Config{}
	full.Observability.CustomMetrics.BusinessMetrics.Enabled = false
	full.Observability.CustomMetrics.Infrastructure.Enabled = true
	full.Observability.CustomMetrics.Infrastructure.TrackRateLimits = false
	full.Observability.CustomMetrics.Infrastructure.TrackTempCleanups = true

	om, reader := newTestManager(t, full)
	ctx := context.Background()

	om.RecordBusinessMetric(ctx, MetricResumeAnalyzed, true)
	om.RecordBusinessMetric(ctx, MetricRateLimitHit, false)
	om.RecordBusinessMetric(ctx, MetricTempCleanupFailed, false)

	data := collect(t, reader)
	assert.Zero(t, counterTotal(t, data, "resumegap_resumes_analyzed_total"))
	assert.Zero(t, counterTotal(t, data, "resumegap_rate_limit_hits_total"))
	assert.Equal(t, int64(1), counterTotal(t, data, "resumegap_temp_cleanup_failures_total"))
}

func TestPrometheusExporter(t *testing.T) {
	reader, handler, err := SetupPrometheusExporter(PrometheusConfig{Enabled: true, Endpoint: "/metrics"})
	require.NoError(t, err)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := newMetrics(mp.Meter("resumegap-test"))
	require.NoError(t, err)
	metrics.ResumesAnalyzed.Add(context.Background(), 3)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "resumegap_resumes_analyzed")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.Enabled = true
	cfg.Observability.ServiceName = "resumegap"
	cfg.Observability.SampleRate = 1.0
	cfg.Observability.Tracing.Enabled = true
	cfg.Observability.Tracing.SampleRate = 0.25
	cfg.Observability.Console.Enabled = true
	cfg.Observability.Prometheus.Port = "9191"
	cfg.Observability.Metrics.CollectionInterval = time.Second

	obs := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", obs.ServiceVersion)
	assert.Equal(t, 0.25, obs.SampleRate)
	assert.True(t, obs.ConsoleOutput)
	assert.Equal(t, "9191", obs.Prometheus.Port)

	fallback := GetObservabilityConfig(nil, "dev")
	assert.False(t, fallback.Enabled)
	assert.Equal(t, "resumegap", fallback.ServiceName)
}
