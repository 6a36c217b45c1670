package textextract

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/foxseedlab/mensetsu/internal/textextract"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const minPDFTextRunes = 20

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTab          = regexp.MustCompile(`<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]*>`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
)

type DocumentExtractor struct{}

func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

func (e *DocumentExtractor) Extract(filename, mimeType string, data []byte) (string, string, error) {
	mime := detectMime(filename, mimeType)
	switch mime {
	case textextract.MimePlainText:
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", mime, textextract.ErrNoText
		}
		return text, mime, nil
	case textextract.MimePDF:
		text, err := extractPDFText(data)
		return text, mime, err
	case textextract.MimeDOCX:
		text, err := extractDocxText(data)
		return text, mime, err
	default:
		return "", mime, fmt.Errorf("%w: %s", textextract.ErrUnsupportedType, describeType(filename, mimeType))
	}
}

// detectMime trusts the extension over a generic upload content type since
// browsers often send application/octet-stream.
func detectMime(filename, mimeType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return textextract.MimePDF
	case ".docx":
		return textextract.MimeDOCX
	case ".doc":
		return textextract.MimeDOC
	case ".txt", ".md":
		return textextract.MimePlainText
	}
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime
}

func describeType(filename, mimeType string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	if mimeType != "" {
		return mimeType
	}
	return "unknown"
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if len([]rune(text)) < minPDFTextRunes {
		return "", fmt.Errorf("%w: the PDF looks scanned or image-only, please upload a text-based PDF", textextract.ErrNoText)
	}
	return text, nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	text := docxPlainText(doc.Editable().GetContent())
	if text == "" {
		return "", fmt.Errorf("%w: the document is empty", textextract.ErrNoText)
	}
	return text, nil
}

func docxPlainText(content string) string {
	s := docxParagraphEnd.ReplaceAllString(content, "\n")
	s = docxTab.ReplaceAllString(s, "\t")
	s = xmlTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
