package extract

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"resumegap/internal/types"
)

// DOCXExtractor reads top-level body paragraphs of a Word document.
type DOCXExtractor struct{}

func (e *DOCXExtractor) SupportedFormats() []string { return []string{"docx"} }

func (e *DOCXExtractor) Extract(path string) (string, []types.FormattingSegment, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer doc.Close()

	return parseDocumentXML(doc.Editable().GetContent())
}

type docxRun struct {
	bold   bool
	italic bool
	size   *float64
}

type docxParagraph struct {
	text   strings.Builder
	runs   int
	bold   bool
	italic bool
	size   *float64
}

func (p *docxParagraph) addRun(r docxRun) {
	if p.runs == 0 {
		p.size = r.size
	}
	p.runs++
	p.bold = p.bold || r.bold
	p.italic = p.italic || r.italic
}

// parseDocumentXML walks word/document.xml. Every top-level paragraph adds
// its text plus a newline; paragraphs with at least one run also produce a
// segment. Paragraphs nested in tables or text boxes are skipped.
func parseDocumentXML(content string) (string, []types.FormattingSegment, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var (
		text     strings.Builder
		segments []types.FormattingSegment
		stack    []string
		para     *docxParagraph
		run      *docxRun
		inText   bool
	)

	parent := func(n int) string {
		if len(stack) < n {
			return ""
		}
		return stack[len(stack)-n]
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("parsing document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			direct := para != nil && countOf(stack, "p") == 1
			switch {
			case name == "p" && parent(1) == "body":
				para = &docxParagraph{}
			case !direct:
			case name == "r":
				run = &docxRun{}
			case run != nil && parent(1) == "rPr" && parent(2) == "r":
				switch name {
				case "b":
					run.bold = onOffValue(t.Attr)
				case "i":
					run.italic = onOffValue(t.Attr)
				case "sz":
					if v, ok := attrValue(t.Attr, "val"); ok {
						if halfPoints, err := strconv.ParseFloat(v, 64); err == nil {
							run.size = types.Ptr(halfPoints / 2)
						}
					}
				}
			case run != nil && parent(1) == "r":
				switch name {
				case "t":
					inText = true
				case "tab":
					para.text.WriteString("\t")
				case "br", "cr":
					para.text.WriteString("\n")
				}
			}
			stack = append(stack, name)

		case xml.CharData:
			if inText && para != nil {
				para.text.Write(t)
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch {
			case t.Name.Local == "t":
				inText = false
			case t.Name.Local == "r" && run != nil && countOf(stack, "p") == 1:
				para.addRun(*run)
				run = nil
			case t.Name.Local == "p" && para != nil && parent(1) == "body":
				paraText := para.text.String()
				text.WriteString(paraText)
				text.WriteString("\n")
				if para.runs > 0 {
					segments = append(segments, types.FormattingSegment{
						Text:     paraText,
						Bold:     types.Ptr(para.bold),
						Italic:   types.Ptr(para.italic),
						FontSize: para.size,
					})
				}
				para = nil
			}
		}
	}

	return text.String(), segments, nil
}

func countOf(stack []string, name string) int {
	n := 0
	for _, s := range stack {
		if s == name {
			n++
		}
	}
	return n
}

func attrValue(attrs []xml.Attr, local string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// onOffValue reads a WordprocessingML toggle such as <w:b/> or <w:b w:val="0"/>.
func onOffValue(attrs []xml.Attr) bool {
	v, ok := attrValue(attrs, "val")
	if !ok {
		return true
	}
	switch strings.ToLower(v) {
	case "false", "0", "off", "none":
		return false
	}
	return true
}
