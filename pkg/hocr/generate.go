package hocr

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/sverrir/lineforge/pkg/grouping"
)

//go:embed templates/hocr.tmpl
var templateFS embed.FS

// FromPageResult renders a grouped page as an hOCR document. Width and
// height give the page extent in pixels for the ocr_page bbox; grouping
// artifacts do not carry page dimensions, so the caller supplies them from
// the originating token artifact.
func FromPageResult(docID string, result grouping.PageResult, width, height int) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/hocr.tmpl")
	if err != nil {
		return "", fmt.Errorf("parsing hOCR template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildDocView(docID, result, width, height)); err != nil {
		return "", fmt.Errorf("rendering hOCR template: %w", err)
	}
	return buf.String(), nil
}
