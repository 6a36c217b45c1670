package textextract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/foxseedlab/mensetsu/internal/textextract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": docxRels,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_PlainText(t *testing.T) {
	e := NewDocumentExtractor()

	text, mime, err := e.Extract("cv.txt", "", []byte("  Experience\nGo developer  "))
	require.NoError(t, err)
	assert.Equal(t, textextract.MimePlainText, mime)
	assert.Equal(t, "Experience\nGo developer", text)
}

func TestExtract_EmptyPlainText(t *testing.T) {
	_, _, err := NewDocumentExtractor().Extract("cv.txt", "text/plain", []byte("   "))
	assert.True(t, errors.Is(err, textextract.ErrNoText))
}

func TestExtract_Docx(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Education</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>B.Sc Computer Science &amp; Maths</w:t></w:r></w:p>`)

	text, mime, err := NewDocumentExtractor().Extract("resume.docx", "application/octet-stream", data)
	require.NoError(t, err)
	assert.Equal(t, textextract.MimeDOCX, mime)
	assert.Equal(t, "Education\nB.Sc Computer Science & Maths", text)
}

func TestExtract_EmptyDocx(t *testing.T) {
	data := buildDocx(t, `<w:p><w:r><w:t></w:t></w:r></w:p>`)

	_, _, err := NewDocumentExtractor().Extract("resume.docx", "", data)
	assert.True(t, errors.Is(err, textextract.ErrNoText))
}

func TestExtract_InvalidPDF(t *testing.T) {
	_, mime, err := NewDocumentExtractor().Extract("resume.pdf", "", []byte("not a pdf"))
	assert.Equal(t, textextract.MimePDF, mime)
	assert.Error(t, err)
}

func TestExtract_UnsupportedTypes(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		mimeType string
	}{
		{name: "legacy word", filename: "resume.doc", mimeType: textextract.MimeDOC},
		{name: "image", filename: "resume.png", mimeType: "image/png"},
		{name: "unknown", filename: "resume", mimeType: ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := NewDocumentExtractor().Extract(c.filename, c.mimeType, []byte("data"))
			assert.True(t, errors.Is(err, textextract.ErrUnsupportedType))
		})
	}
}

func TestDetectMime(t *testing.T) {
	assert.Equal(t, textextract.MimePDF, detectMime("CV.PDF", "application/octet-stream"))
	assert.Equal(t, textextract.MimePDF, detectMime("upload", "application/pdf; charset=binary"))
	assert.Equal(t, textextract.MimePlainText, detectMime("notes.md", ""))
}

func TestDocxPlainText(t *testing.T) {
	got := docxPlainText(`<w:p><w:r><w:t>Skills</w:t><w:tab/><w:t>Go</w:t></w:r></w:p><w:p></w:p><w:p></w:p><w:p></w:p><w:p><w:r><w:t>SQL</w:t></w:r></w:p>`)
	assert.Equal(t, "Skills\tGo\n\nSQL", got)
}
