package overlay

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"codeberg.org/go-pdf/fpdf"

	"github.com/sverrir/lineforge/pkg/geom"
	"github.com/sverrir/lineforge/pkg/grouping"
)

func drawTokenLayer(pdf *fpdf.Fpdf, result grouping.PageResult, cfg Config) {
	layer := pdf.AddLayer(fmt.Sprintf("Tokens (Page %d)", result.PageNum), true)
	pdf.BeginLayer(layer)
	setStroke(pdf, cfg.TokenColor, 0.5)
	for _, line := range result.Lines {
		for _, token := range line.Tokens {
			drawBox(pdf, token.BBox)
		}
	}
	pdf.EndLayer()
}

func drawLineLayer(pdf *fpdf.Fpdf, result grouping.PageResult, cfg Config) {
	layer := pdf.AddLayer(fmt.Sprintf("Lines (Page %d)", result.PageNum), true)
	pdf.BeginLayer(layer)
	setStroke(pdf, cfg.LineColor, 0.8)
	for _, line := range result.Lines {
		drawBox(pdf, line.BBox)
		if cfg.Labels {
			drawLabel(pdf, line.BBox, line.LineID, cfg)
		}
	}
	pdf.EndLayer()
}

func drawBlockLayer(pdf *fpdf.Fpdf, result grouping.PageResult, cfg Config) {
	layer := pdf.AddLayer(fmt.Sprintf("Blocks (Page %d)", result.PageNum), true)
	pdf.BeginLayer(layer)
	setStroke(pdf, cfg.BlockColor, 1.2)
	for _, block := range result.Blocks {
		drawBox(pdf, block.BBox)
		if cfg.Labels {
			drawLabel(pdf, block.BBox, block.BlockID, cfg)
		}
	}
	pdf.EndLayer()
}

func drawRegionLayer(pdf *fpdf.Fpdf, result grouping.PageResult, cfg Config) {
	layer := pdf.AddLayer(fmt.Sprintf("Regions (Page %d)", result.PageNum), true)
	pdf.BeginLayer(layer)
	setStroke(pdf, cfg.RegionColor, 1.5)
	for _, region := range result.Regions {
		drawBox(pdf, region.BBox)
		if cfg.Labels {
			drawLabel(pdf, region.BBox, fmt.Sprintf("%s %s", region.RegionID, region.Type), cfg)
		}
	}
	pdf.EndLayer()
}

func setStroke(pdf *fpdf.Fpdf, c RGB, width float64) {
	pdf.SetDrawColor(c.R, c.G, c.B)
	pdf.SetTextColor(c.R, c.G, c.B)
	pdf.SetLineWidth(width)
}

func drawBox(pdf *fpdf.Fpdf, b geom.BBox) {
	pdf.Rect(float64(b.X0), float64(b.Y0), float64(b.Width()), float64(b.Height()), "D")
}

// drawLabel puts the element id just above the box's top-left corner, or
// inside it when the box sits at the page edge.
func drawLabel(pdf *fpdf.Fpdf, b geom.BBox, text string, cfg Config) {
	x := float64(b.X0)
	y := float64(b.Y0) - 2
	if y < cfg.Font.Size {
		y = float64(b.Y0) + cfg.Font.Size
	}
	pdf.Text(x, y, text)
}

// detectImageType sniffs whether the data is PNG, JPEG, etc.
func detectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image config: %w", err)
	}
	return strings.ToUpper(format), nil
}
