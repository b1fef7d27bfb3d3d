package types

// FormattingSegment is a run of text with optional typographic attributes.
// A nil attribute means the source document did not specify it.
type FormattingSegment struct {
	Text     string   `json:"text"`
	Bold     *bool    `json:"bold,omitempty"`
	Italic   *bool    `json:"italic,omitempty"`
	FontSize *float64 `json:"font_size,omitempty"`
}

// PipelineState is threaded through every analysis stage. Each stage writes
// only the field it produces and carries the rest forward unchanged.
type PipelineState struct {
	ResumeText            string              `json:"resume_text"`
	JobDescription        string              `json:"job_description"`
	ExtractedRequirements string              `json:"extracted_requirements,omitempty"`
	ResumeGaps            string              `json:"resume_gaps,omitempty"`
	UpdatedResume         string              `json:"updated_resume,omitempty"`
	Formatting            []FormattingSegment `json:"formatting,omitempty"`
	FileType              string              `json:"file_type,omitempty"`
}

// AnalysisResult is the outcome of a pipeline run. Exactly one field is set.
type AnalysisResult struct {
	UpdatedResume string `json:"updated_resume,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Failed reports whether the run ended with a user-visible error.
func (r AnalysisResult) Failed() bool {
	return r.Error != ""
}

// ExtractionResult is the text and formatting pulled out of a single document.
type ExtractionResult struct {
	FileName   string              `json:"file_name"`
	FileType   string              `json:"file_type"`
	Text       string              `json:"text"`
	Formatting []FormattingSegment `json:"formatting"`
}

// HighlightResult pairs an original and rewritten text with the marked-up result.
type HighlightResult struct {
	Original    string `json:"original"`
	Updated     string `json:"updated"`
	Highlighted string `json:"highlighted"`
	Insertions  int    `json:"insertions"`
	Deletions   int    `json:"deletions"`
}

// Ptr returns a pointer to v. Handy for optional segment attributes.
func Ptr[T any](v T) *T {
	return &v
}
