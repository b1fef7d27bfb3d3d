package formatters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumegap/internal/types"
)

func TestFormatAnalysisResult(t *testing.T) {
	ok := types.AnalysisResult{UpdatedResume: "Built web apps using **Go**"}
	failed := types.AnalysisResult{Error: "Error fetching job description."}

	tests := []struct {
		name     string
		data     types.AnalysisResult
		format   string
		contains []string
		excludes []string
	}{
		{"text success", ok, "text", []string{"=== UPDATED RESUME ===", "using **Go**"}, []string{"ERROR"}},
		{"text failure", failed, "text", []string{"ERROR: Error fetching job description."}, []string{"UPDATED RESUME"}},
		{"markdown success", ok, "markdown", []string{"# Updated Resume", "using **Go**"}, nil},
		{"markdown failure", failed, "markdown", []string{"> **Error:** Error fetching job description."}, []string{"# Updated Resume"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := GlobalRegistry.Format(tt.data, tt.format)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestFormatJSONKeepsWireShape(t *testing.T) {
	out, err := GlobalRegistry.Format(types.AnalysisResult{Error: "Unsupported file type or extraction error."}, "json")
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, map[string]string{"error": "Unsupported file type or extraction error."}, decoded)
}

func TestFormatPipelineStateSkipsEmptySections(t *testing.T) {
	state := types.PipelineState{
		JobDescription:        "Senior Go Engineer",
		ExtractedRequirements: "- Go",
		UpdatedResume:         "**Go** developer",
		FileType:              "pdf",
	}

	text, err := GlobalRegistry.Format(state, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "=== EXTRACTED REQUIREMENTS ===\n- Go")
	assert.NotContains(t, text, "RESUME GAPS")

	md, err := GlobalRegistry.Format(state, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "**Source format:** pdf")
	assert.Contains(t, md, "## Updated Resume\n\n**Go** developer")
}

func TestFormatExtractionResult(t *testing.T) {
	result := &types.ExtractionResult{
		FileName: "resume.docx",
		FileType: "docx",
		Text:     "Jane Doe\nGo | Kubernetes",
		Formatting: []types.FormattingSegment{
			{Text: "Jane Doe", Bold: types.Ptr(true), FontSize: types.Ptr(14.0)},
			{Text: "Go | Kubernetes"},
		},
	}

	text, err := GlobalRegistry.Format(result, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "=== resume.docx (docx) ===")
	assert.Contains(t, text, `1. "Jane Doe" [bold=true size=14]`)
	assert.Contains(t, text, `2. "Go | Kubernetes" [unstyled]`)

	md, err := GlobalRegistry.Format(*result, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "| 1 | Jane Doe | yes | - | 14pt |")
	assert.Contains(t, md, `| 2 | Go \| Kubernetes | - | - | - |`)

	empty, err := GlobalRegistry.Format(types.ExtractionResult{FileName: "blank.pdf", FileType: "pdf"}, "markdown")
	require.NoError(t, err)
	assert.Contains(t, empty, "No formatted segments.")
}

func TestFormatHighlightResult(t *testing.T) {
	result := types.HighlightResult{Highlighted: "using **Go**", Insertions: 1, Deletions: 1}

	text, err := GlobalRegistry.Format(result, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "Insertions: 1, Deletions: 1")

	md, err := GlobalRegistry.Format(result, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# Highlighted Changes")
	assert.Contains(t, md, "using **Go**")
}

func TestFormatUnknown(t *testing.T) {
	_, err := GlobalRegistry.Format(types.AnalysisResult{}, "yaml")
	assert.Error(t, err)

	_, err = GlobalRegistry.Format(struct{ A int }{1}, "text")
	assert.Error(t, err)

	assert.Equal(t, []string{"json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
}

func TestFormatterTypeMismatch(t *testing.T) {
	_, err := (&AnalysisTextFormatter{}).Format(types.HighlightResult{})
	assert.Error(t, err)
	_, err = (&ExtractionTextFormatter{}).Format((*types.ExtractionResult)(nil))
	assert.Error(t, err)
}
