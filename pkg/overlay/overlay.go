// Package overlay renders grouping results as visual audit PDFs.
//
// Each page of the output shows the source page image (when available) with
// the grouping geometry drawn on top: token, line, block, and region
// bounding boxes each live on their own named PDF layer so a reviewer can
// toggle them independently and judge whether the assembled structure
// matches the printed page.
package overlay

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"

	"github.com/sverrir/lineforge/pkg/grouping"
)

// Page pairs one grouped page with its source image. Width and height give
// the page extent in pixels; PDF user units are mapped 1:1 to pixels. Image
// may be nil, in which case the geometry is drawn on a blank page.
type Page struct {
	Image  []byte
	Result grouping.PageResult
	Width  int
	Height int
}

// Build renders an audit PDF for the given pages.
func Build(pages []Page, cfg Config) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages provided")
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont(cfg.Font.Name, cfg.Font.Style, cfg.Font.Size)

	for i, page := range pages {
		if page.Width <= 0 || page.Height <= 0 {
			return nil, fmt.Errorf("page %d has no usable dimensions", page.Result.PageNum)
		}
		w, h := float64(page.Width), float64(page.Height)
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		if len(page.Image) > 0 {
			imageType, err := detectImageType(page.Image)
			if err != nil {
				return nil, fmt.Errorf("page %d image: %w", page.Result.PageNum, err)
			}
			opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
			name := fmt.Sprintf("img%d", i)
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(page.Image))
			pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
		}

		if cfg.DrawTokens {
			drawTokenLayer(pdf, page.Result, cfg)
		}
		if cfg.DrawLines {
			drawLineLayer(pdf, page.Result, cfg)
		}
		if cfg.DrawBlocks {
			drawBlockLayer(pdf, page.Result, cfg)
		}
		if cfg.DrawRegions && len(page.Result.Regions) > 0 {
			drawRegionLayer(pdf, page.Result, cfg)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generating audit PDF: %w", err)
	}
	return buf.Bytes(), nil
}
