package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"resumegap/internal/types"
)

// PDFExtractor reads text spans page by page. A span is a run of glyphs that
// share font, size and baseline.
type PDFExtractor struct{}

func (e *PDFExtractor) SupportedFormats() []string { return []string{"pdf"} }

func (e *PDFExtractor) Extract(path string) (string, []types.FormattingSegment, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var (
		text     strings.Builder
		segments []types.FormattingSegment
	)

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		spans, err := pageSpans(page)
		if err != nil {
			return "", nil, fmt.Errorf("reading page %d: %w", i, err)
		}
		for _, span := range spans {
			text.WriteString(span.Text)
			text.WriteString(" ")
			segments = append(segments, span)
		}
		text.WriteString("\n")
	}

	return text.String(), segments, nil
}

// pageSpans groups the glyphs of a page content stream into spans.
func pageSpans(page pdf.Page) (spans []types.FormattingSegment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()

	glyphs := page.Content().Text
	return groupSpans(glyphs), nil
}

func groupSpans(glyphs []pdf.Text) []types.FormattingSegment {
	var (
		spans   []types.FormattingSegment
		current strings.Builder
		last    pdf.Text
		started bool
	)

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			spans = append(spans, types.FormattingSegment{
				Text:     s,
				FontSize: types.Ptr(last.FontSize),
			})
		}
		current.Reset()
	}

	for _, g := range glyphs {
		if started && !pdf.IsSameSentence(last, g) {
			flush()
		}
		current.WriteString(g.S)
		last = g
		started = true
	}
	if started {
		flush()
	}

	return spans
}
