package pipeline

import (
	"context"

	"resumegap/internal/diff"
	"resumegap/internal/types"
)

// Stage is one step of the analysis. Run receives the state produced by the
// previous stage and returns the state for the next one.
type Stage struct {
	Name string
	Run  func(ctx context.Context, o *Orchestrator, state types.PipelineState) (types.PipelineState, error)
}

// Stage names, also used as metric and span operation names.
const (
	StageExtractRequirements = "extract_requirements"
	StageAnalyzeGaps         = "analyze_gaps"
	StageRewriteResume       = "rewrite_resume"
)

// ExtractRequirements distils the job description into requirements.
var ExtractRequirements = Stage{
	Name: StageExtractRequirements,
	Run: func(ctx context.Context, o *Orchestrator, state types.PipelineState) (types.PipelineState, error) {
		out, err := o.Generate(ctx, StageExtractRequirements, o.Prompts().BuildRequirements(state.JobDescription))
		if err != nil {
			return state, err
		}
		state.ExtractedRequirements = out
		return state, nil
	},
}

// AnalyzeGaps compares the resume with the extracted requirements.
var AnalyzeGaps = Stage{
	Name: StageAnalyzeGaps,
	Run: func(ctx context.Context, o *Orchestrator, state types.PipelineState) (types.PipelineState, error) {
		out, err := o.Generate(ctx, StageAnalyzeGaps, o.Prompts().BuildGaps(state.ResumeText, state.ExtractedRequirements))
		if err != nil {
			return state, err
		}
		state.ResumeGaps = out
		return state, nil
	},
}

// RewriteResume asks for a revised resume and marks what it added.
var RewriteResume = Stage{
	Name: StageRewriteResume,
	Run: func(ctx context.Context, o *Orchestrator, state types.PipelineState) (types.PipelineState, error) {
		out, err := o.Generate(ctx, StageRewriteResume, o.Prompts().BuildRewrite(state.ResumeText, state.ResumeGaps))
		if err != nil {
			return state, err
		}
		state.UpdatedResume = diff.Highlight(state.ResumeText, out)
		return state, nil
	},
}

// DefaultStages returns the standard stage order.
func DefaultStages() []Stage {
	return []Stage{ExtractRequirements, AnalyzeGaps, RewriteResume}
}
