package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"resumegap/internal/types"
)

// PPTXExtractor reads the text of every top-level shape, slide by slide.
type PPTXExtractor struct{}

func (e *PPTXExtractor) SupportedFormats() []string { return []string{"pptx"} }

func (e *PPTXExtractor) Extract(filePath string) (string, []types.FormattingSegment, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("opening PPTX: %w", err)
	}
	defer r.Close()

	fileIndex := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileIndex[f.Name] = f
	}

	var (
		text     strings.Builder
		segments []types.FormattingSegment
	)
	for _, name := range slideOrder(fileIndex) {
		data, err := readZipFile(fileIndex[name])
		if err != nil {
			return "", nil, fmt.Errorf("reading %s: %w", name, err)
		}
		shapes, err := parseSlideShapes(data)
		if err != nil {
			return "", nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		for _, shape := range shapes {
			text.WriteString(shape)
			text.WriteString("\n")
			segments = append(segments, types.FormattingSegment{Text: shape})
		}
	}

	return text.String(), segments, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// slideOrder returns slide part names in presentation order. The slide id
// list in presentation.xml is authoritative; numeric file order is the
// fallback when it cannot be read.
func slideOrder(fileIndex map[string]*zip.File) []string {
	if ordered := slidesFromPresentation(fileIndex); len(ordered) > 0 {
		return ordered
	}

	nums := make([]int, 0)
	byNum := make(map[int]string)
	for name := range fileIndex {
		if num := slideNumber(name); num > 0 {
			nums = append(nums, num)
			byNum[num] = name
		}
	}
	sort.Ints(nums)

	names := make([]string, 0, len(nums))
	for _, n := range nums {
		names = append(names, byNum[n])
	}
	return names
}

func slideNumber(name string) int {
	if !strings.HasPrefix(name, "ppt/slides/slide") || !strings.HasSuffix(name, ".xml") {
		return 0
	}
	num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml"))
	if err != nil {
		return 0
	}
	return num
}

type presentationXML struct {
	SlideIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func slidesFromPresentation(fileIndex map[string]*zip.File) []string {
	presFile, relsFile := fileIndex["ppt/presentation.xml"], fileIndex["ppt/_rels/presentation.xml.rels"]
	if presFile == nil || relsFile == nil {
		return nil
	}

	presData, err := readZipFile(presFile)
	if err != nil {
		return nil
	}
	relsData, err := readZipFile(relsFile)
	if err != nil {
		return nil
	}

	var pres presentationXML
	var rels relationshipsXML
	if xml.Unmarshal(presData, &pres) != nil || xml.Unmarshal(relsData, &rels) != nil {
		return nil
	}

	targets := make(map[string]string, len(rels.Rels))
	for _, rel := range rels.Rels {
		targets[rel.ID] = rel.Target
	}

	var names []string
	for _, id := range pres.SlideIDs {
		target, ok := targets[id.RID]
		if !ok {
			continue
		}
		name := path.Clean(path.Join("ppt", target))
		if strings.HasPrefix(target, "/") {
			name = strings.TrimPrefix(target, "/")
		}
		if fileIndex[name] != nil {
			names = append(names, name)
		}
	}
	return names
}

// parseSlideShapes returns the text of each top-level shape that has a text
// body, in document order. Empty placeholders yield "". Paragraphs are
// joined with "\n".
func parseSlideShapes(data []byte) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	var (
		shapes     []string
		stack      []string
		paragraphs []string
		current    strings.Builder
		inShape    bool
		hasBody    bool
		inBody     bool
		inText     bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			top := ""
			if len(stack) > 0 {
				top = stack[len(stack)-1]
			}
			switch {
			case name == "sp" && top == "spTree":
				inShape = true
				hasBody = false
				paragraphs = paragraphs[:0]
			case inShape && name == "txBody":
				inBody = true
				hasBody = true
			case inBody && name == "p":
				current.Reset()
			case inBody && name == "t":
				inText = true
			case inBody && name == "br":
				current.WriteString("\n")
			}
			stack = append(stack, name)

		case xml.CharData:
			if inText {
				current.Write(t)
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			top := ""
			if len(stack) > 0 {
				top = stack[len(stack)-1]
			}
			switch {
			case t.Name.Local == "t":
				inText = false
			case inBody && t.Name.Local == "p" && top == "txBody":
				paragraphs = append(paragraphs, current.String())
			case inShape && t.Name.Local == "txBody":
				inBody = false
			case t.Name.Local == "sp" && top == "spTree":
				inShape = false
				if hasBody {
					shapes = append(shapes, strings.Join(paragraphs, "\n"))
				}
			}
		}
	}

	return shapes, nil
}
