package extract

import (
	"fmt"
	"slices"
	"strings"

	"resumegap/internal/types"
)

// Extractor pulls plain text and formatting segments out of a document on disk.
type Extractor interface {
	Extract(path string) (string, []types.FormattingSegment, error)
	SupportedFormats() []string
}

// Registry maps a lowercase file type to the extractor that handles it.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry returns a registry with the docx, pptx and pdf extractors.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	for _, e := range []Extractor{&DOCXExtractor{}, &PPTXExtractor{}, &PDFExtractor{}} {
		r.Register(e)
	}
	return r
}

// Register adds e under every format it reports, replacing earlier entries.
func (r *Registry) Register(e Extractor) {
	for _, format := range e.SupportedFormats() {
		r.extractors[strings.ToLower(format)] = e
	}
}

func (r *Registry) Get(format string) (Extractor, error) {
	e, ok := r.extractors[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("no extractor for format: %s", format)
	}
	return e, nil
}

// Formats lists the registered file types in sorted order.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.extractors))
	for f := range r.extractors {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return formats
}
