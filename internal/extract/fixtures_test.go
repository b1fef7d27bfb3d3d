package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// docxBytes builds a minimal Word package around the given body XML.
func docxBytes(t *testing.T, body string) []byte {
	t.Helper()
	return zipBytes(t, map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`</Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document ` + wordNS + `><w:body>` + body + `<w:sectPr/></w:body></w:document>`,
	})
}

// pptxBytes builds a presentation with one slide per entry; each entry is the
// list of shape paragraphs on that slide. Slides are listed in reverse file
// order in presentation.xml to prove the id list wins.
func pptxBytes(t *testing.T, slides ...[][]string) []byte {
	t.Helper()
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
	}

	var ids, rels strings.Builder
	for i, shapes := range slides {
		fileNum := len(slides) - i
		rid := fmt.Sprintf("rId%d", i+10)
		ids.WriteString(fmt.Sprintf(`<p:sldId id="%d" r:id="%s"/>`, 256+i, rid))
		rels.WriteString(fmt.Sprintf(`<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, rid, fileNum))
		files[fmt.Sprintf("ppt/slides/slide%d.xml", fileNum)] = slideXML(shapes)
	}

	files["ppt/presentation.xml"] = `<?xml version="1.0"?>` +
		`<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
		`<p:sldIdLst>` + ids.String() + `</p:sldIdLst></p:presentation>`
	files["ppt/_rels/presentation.xml.rels"] = `<?xml version="1.0"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		rels.String() + `</Relationships>`

	return zipBytes(t, files)
}

func slideXML(shapes [][]string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
		`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/></p:nvGrpSpPr>`)
	for i, paragraphs := range shapes {
		sb.WriteString(fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Shape %d"/></p:nvSpPr><p:txBody><a:bodyPr/>`, i+2, i))
		for _, para := range paragraphs {
			sb.WriteString(`<a:p><a:r><a:t>` + para + `</a:t></a:r></a:p>`)
		}
		sb.WriteString(`</p:txBody></p:sp>`)
	}
	// Neither a picture nor a shape without a text body contributes.
	sb.WriteString(`<p:pic><p:nvPicPr><p:cNvPr id="99" name="Logo"/></p:nvPicPr></p:pic>`)
	sb.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="98" name="Divider"/></p:nvSpPr><p:spPr/></p:sp>`)
	sb.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return sb.String()
}

type pdfLine struct {
	text string
	size int
}

// pdfBytes assembles a PDF with one page per entry, computing the xref table
// by hand. An empty call yields a document with no pages.
func pdfBytes(t *testing.T, pages ...[]pdfLine) []byte {
	t.Helper()

	var objects []string
	fontObj := 3
	objects = append(objects, "") // 1 catalog
	objects = append(objects, "") // 2 pages
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, lines := range pages {
		var content strings.Builder
		y := 720
		for _, line := range lines {
			content.WriteString(fmt.Sprintf("BT /F1 %d Tf 72 %d Td (%s) Tj ET\n", line.size, y, line.text))
			y -= 30
		}
		stream := content.String()
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
		contentObj := len(objects)
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontObj, contentObj))
		kids = append(kids, fmt.Sprintf("%d 0 R", len(objects)))
	}

	objects[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		buf.WriteString(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", i+1, obj))
	}

	xrefOffset := buf.Len()
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", len(objects)+1))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefOffset))

	return buf.Bytes()
}
