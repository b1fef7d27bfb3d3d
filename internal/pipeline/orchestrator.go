// Package pipeline runs a resume through extraction, job listing retrieval
// and the generation stages that produce the highlighted rewrite.
package pipeline

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"resumegap/internal/ai"
	"resumegap/internal/errors"
	"resumegap/internal/observability"
	"resumegap/internal/types"
)

// DocumentExtractor turns an uploaded file into text.
type DocumentExtractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (*types.ExtractionResult, error)
}

// JobFetcher retrieves a job description from a listing URL.
type JobFetcher interface {
	FetchJobDescription(ctx context.Context, url string) (*ai.Generation, error)
}

// Orchestrator threads a PipelineState through ordered stages.
type Orchestrator struct {
	client    ai.GenerationClient
	extractor DocumentExtractor
	fetcher   JobFetcher
	logger    *errors.Logger

	stages  []Stage
	prompts ai.PromptSource
	obs     *observability.ObservabilityManager
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStages replaces the default stage list.
func WithStages(stages ...Stage) Option {
	return func(o *Orchestrator) { o.stages = stages }
}

// WithPrompts sets where prompt templates are read from. It is consulted on
// every run so reloaded templates apply to the next request.
func WithPrompts(src ai.PromptSource) Option {
	return func(o *Orchestrator) { o.prompts = src }
}

// WithMetrics records stage timings and outcomes.
func WithMetrics(om *observability.ObservabilityManager) Option {
	return func(o *Orchestrator) { o.obs = om }
}

// New builds an Orchestrator running DefaultStages unless overridden.
func New(client ai.GenerationClient, extractor DocumentExtractor, fetcher JobFetcher, logger *errors.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:    client,
		extractor: extractor,
		fetcher:   fetcher,
		logger:    logger,
		stages:    DefaultStages(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run analyses one resume against one job listing. It never returns an error:
// failures are reported through AnalysisResult.Error with a fixed message.
func (o *Orchestrator) Run(ctx context.Context, fileName string, data []byte, jobURL string) types.AnalysisResult {
	state, err := o.Analyze(ctx, fileName, data, jobURL)
	if err != nil {
		return types.AnalysisResult{Error: errors.UserMessage(err)}
	}
	return types.AnalysisResult{UpdatedResume: state.UpdatedResume}
}

// Analyze is Run with the full final state and the typed error exposed.
func (o *Orchestrator) Analyze(ctx context.Context, fileName string, data []byte, jobURL string) (types.PipelineState, error) {
	start := time.Now()
	state, err := o.analyze(ctx, fileName, data, jobURL)

	failure := ""
	if err != nil {
		failure = failureKind(err)
		o.logger.LogError(err, "Resume analysis failed", "file", fileName, "job_url", jobURL, "failure", failure)
	} else {
		o.logger.Info("Resume analysis completed",
			"file", fileName,
			"file_type", state.FileType,
			"duration_ms", time.Since(start).Milliseconds())
	}
	o.obs.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, err == nil,
		attribute.String("file_type", state.FileType),
		attribute.String("failure", failure))
	return state, err
}

func (o *Orchestrator) analyze(ctx context.Context, fileName string, data []byte, jobURL string) (types.PipelineState, error) {
	var state types.PipelineState

	doc, err := o.extractor.Extract(ctx, fileName, data)
	if doc != nil {
		state.FileType = doc.FileType
	}
	o.obs.RecordBusinessMetric(ctx, observability.MetricDocumentExtracted, err == nil,
		attribute.String("file_type", state.FileType))
	if err != nil {
		return state, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return state, errors.NewExtractionError(errors.ErrCodeEmptyDocument, "document contains no text", nil)
	}
	state.ResumeText = doc.Text
	state.Formatting = doc.Formatting

	job, err := o.fetcher.FetchJobDescription(ctx, jobURL)
	if err == nil && (job == nil || strings.TrimSpace(job.Content) == "") {
		err = errors.NewFetchError(errors.ErrCodeFetchFailed, "job description is empty", nil)
	}
	o.obs.RecordBusinessMetric(ctx, observability.MetricJobDescriptionFetched, err == nil)
	if err != nil {
		if !errors.IsType(err, errors.ErrorTypeFetch) {
			err = errors.NewFetchError(errors.ErrCodeFetchFailed, "failed to fetch job description", err)
		}
		return state, err
	}
	state.JobDescription = job.Content

	return o.RunStages(ctx, state)
}

// RunStages applies every stage in order, stopping at the first failure.
// Stage errors come back as generation errors tagged with the stage name.
func (o *Orchestrator) RunStages(ctx context.Context, state types.PipelineState) (types.PipelineState, error) {
	for _, stage := range o.stages {
		if err := ctx.Err(); err != nil {
			return state, stageError(stage.Name, err)
		}

		o.logger.Debug("Running stage", "stage", stage.Name)
		next, err := stage.Run(ctx, o, state)
		if err != nil {
			return state, stageError(stage.Name, err)
		}
		state = next
	}
	return state, nil
}

// Generate calls the generation client for a stage and records the call.
func (o *Orchestrator) Generate(ctx context.Context, stage, prompt string) (string, error) {
	gen, err := ai.TrackedGenerate(ctx, o.obs, stage, o.client, prompt)
	if err != nil {
		return "", err
	}
	return gen.Content, nil
}

// Prompts returns the templates in effect for this run.
func (o *Orchestrator) Prompts() ai.Prompts {
	return ai.ResolvePrompts(o.prompts)
}

// Stages returns the stage names in execution order.
func (o *Orchestrator) Stages() []string {
	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.Name
	}
	return names
}

func stageError(stage string, err error) error {
	return errors.NewGenerationError(errors.ErrCodeGenerationFailed, "stage "+stage+" failed", err).
		WithContext("stage", stage)
}

func failureKind(err error) string {
	switch {
	case errors.IsType(err, errors.ErrorTypeExtraction):
		return "extraction"
	case errors.IsType(err, errors.ErrorTypeFetch):
		return "fetch"
	default:
		return "generation"
	}
}

