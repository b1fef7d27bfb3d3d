package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resumegap/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "PipelineState", &StateTextFormatter{})
	registry.RegisterFormatter("markdown", "PipelineState", &StateMarkdownFormatter{})
	registry.RegisterFormatter("text", "ExtractionResult", &ExtractionTextFormatter{})
	registry.RegisterFormatter("markdown", "ExtractionResult", &ExtractionMarkdownFormatter{})
	registry.RegisterFormatter("text", "HighlightResult", &HighlightTextFormatter{})
	registry.RegisterFormatter("markdown", "HighlightResult", &HighlightTextFormatter{markdown: true})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted.
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult:
		return "AnalysisResult"
	case types.PipelineState:
		return "PipelineState"
	case types.ExtractionResult, *types.ExtractionResult:
		return "ExtractionResult"
	case types.HighlightResult:
		return "HighlightResult"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter prints the highlighted resume or the error line.
type AnalysisTextFormatter struct{}

func (f *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}
	if result.Failed() {
		return "ERROR: " + result.Error + "\n", nil
	}

	var output strings.Builder
	output.WriteString("=== UPDATED RESUME ===\n\n")
	output.WriteString(result.UpdatedResume)
	output.WriteString("\n")
	return output.String(), nil
}

func (f *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

type AnalysisMarkdownFormatter struct{}

func (f *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}
	if result.Failed() {
		return "> **Error:** " + result.Error + "\n", nil
	}

	var output strings.Builder
	output.WriteString("# Updated Resume\n\n")
	output.WriteString("Additions are shown in **bold**.\n\n")
	output.WriteString(result.UpdatedResume)
	output.WriteString("\n")
	return output.String(), nil
}

func (f *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// StateTextFormatter prints every intermediate product of a run.
type StateTextFormatter struct{}

func (f *StateTextFormatter) Format(data any) (string, error) {
	state, ok := data.(types.PipelineState)
	if !ok {
		return "", fmt.Errorf("expected PipelineState, got %T", data)
	}

	var output strings.Builder
	for _, section := range stateSections(state) {
		output.WriteString(fmt.Sprintf("=== %s ===\n", strings.ToUpper(section.title)))
		output.WriteString(section.body)
		output.WriteString("\n\n")
	}
	return output.String(), nil
}

func (f *StateTextFormatter) SupportedType() string {
	return "PipelineState"
}

type StateMarkdownFormatter struct{}

func (f *StateMarkdownFormatter) Format(data any) (string, error) {
	state, ok := data.(types.PipelineState)
	if !ok {
		return "", fmt.Errorf("expected PipelineState, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Resume Gap Analysis\n\n")
	if state.FileType != "" {
		output.WriteString(fmt.Sprintf("**Source format:** %s\n\n", state.FileType))
	}
	for _, section := range stateSections(state) {
		output.WriteString(fmt.Sprintf("## %s\n\n", section.title))
		output.WriteString(section.body)
		output.WriteString("\n\n")
	}
	return output.String(), nil
}

func (f *StateMarkdownFormatter) SupportedType() string {
	return "PipelineState"
}

type section struct {
	title string
	body  string
}

// stateSections lists the non-empty parts of a state in pipeline order.
func stateSections(state types.PipelineState) []section {
	all := []section{
		{"Job Description", state.JobDescription},
		{"Extracted Requirements", state.ExtractedRequirements},
		{"Resume Gaps", state.ResumeGaps},
		{"Updated Resume", state.UpdatedResume},
	}
	out := all[:0]
	for _, s := range all {
		if strings.TrimSpace(s.body) != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExtractionTextFormatter prints the text followed by one line per segment.
type ExtractionTextFormatter struct{}

func (f *ExtractionTextFormatter) Format(data any) (string, error) {
	result, err := asExtraction(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("=== %s (%s) ===\n\n", result.FileName, result.FileType))
	output.WriteString(result.Text)
	output.WriteString("\n\n")
	output.WriteString(fmt.Sprintf("=== FORMATTING (%d segments) ===\n", len(result.Formatting)))
	for i, seg := range result.Formatting {
		output.WriteString(fmt.Sprintf("%d. %q %s\n", i+1, seg.Text, describeSegment(seg)))
	}
	return output.String(), nil
}

func (f *ExtractionTextFormatter) SupportedType() string {
	return "ExtractionResult"
}

type ExtractionMarkdownFormatter struct{}

func (f *ExtractionMarkdownFormatter) Format(data any) (string, error) {
	result, err := asExtraction(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# %s\n\n", result.FileName))
	output.WriteString(fmt.Sprintf("**Format:** %s\n\n", result.FileType))
	output.WriteString("## Text\n\n```\n")
	output.WriteString(result.Text)
	output.WriteString("\n```\n\n")
	output.WriteString("## Formatting\n\n")
	if len(result.Formatting) == 0 {
		output.WriteString("No formatted segments.\n")
		return output.String(), nil
	}
	output.WriteString("| # | Text | Bold | Italic | Size |\n")
	output.WriteString("|---|------|------|--------|------|\n")
	for i, seg := range result.Formatting {
		output.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1,
			strings.ReplaceAll(seg.Text, "|", `\|`),
			boolCell(seg.Bold),
			boolCell(seg.Italic),
			sizeCell(seg.FontSize)))
	}
	return output.String(), nil
}

func (f *ExtractionMarkdownFormatter) SupportedType() string {
	return "ExtractionResult"
}

func asExtraction(data any) (types.ExtractionResult, error) {
	switch v := data.(type) {
	case types.ExtractionResult:
		return v, nil
	case *types.ExtractionResult:
		if v != nil {
			return *v, nil
		}
	}
	return types.ExtractionResult{}, fmt.Errorf("expected ExtractionResult, got %T", data)
}

func describeSegment(seg types.FormattingSegment) string {
	var attrs []string
	if seg.Bold != nil {
		attrs = append(attrs, fmt.Sprintf("bold=%t", *seg.Bold))
	}
	if seg.Italic != nil {
		attrs = append(attrs, fmt.Sprintf("italic=%t", *seg.Italic))
	}
	if seg.FontSize != nil {
		attrs = append(attrs, fmt.Sprintf("size=%g", *seg.FontSize))
	}
	if len(attrs) == 0 {
		return "[unstyled]"
	}
	return "[" + strings.Join(attrs, " ") + "]"
}

func boolCell(b *bool) string {
	if b == nil {
		return "-"
	}
	if *b {
		return "yes"
	}
	return "no"
}

func sizeCell(size *float64) string {
	if size == nil {
		return "-"
	}
	return fmt.Sprintf("%gpt", *size)
}

// HighlightTextFormatter prints the marked-up text with change counts.
type HighlightTextFormatter struct {
	markdown bool
}

func (f *HighlightTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.HighlightResult)
	if !ok {
		return "", fmt.Errorf("expected HighlightResult, got %T", data)
	}

	var output strings.Builder
	if f.markdown {
		output.WriteString("# Highlighted Changes\n\n")
		output.WriteString(fmt.Sprintf("**Insertions:** %d  \n**Deletions:** %d\n\n", result.Insertions, result.Deletions))
	} else {
		output.WriteString("=== HIGHLIGHTED CHANGES ===\n")
		output.WriteString(fmt.Sprintf("Insertions: %d, Deletions: %d\n\n", result.Insertions, result.Deletions))
	}
	output.WriteString(result.Highlighted)
	output.WriteString("\n")
	return output.String(), nil
}

func (f *HighlightTextFormatter) SupportedType() string {
	return "HighlightResult"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
