// lineforge is a command-line tool for grouping OCR tokens into lines,
// blocks, and regions.
//
// It consumes an OCR document ledger (an index of per-page token artifacts),
// writes one grouping artifact per page plus a document ledger, and can
// optionally render a visual audit PDF with the grouped geometry drawn over
// the source pages. Outputs are canonical JSON: running the tool twice over
// the same inputs produces byte-identical artifacts.
//
// Configuration:
//
// Grouping parameters can be overridden with a YAML configuration file:
//
//	confidence_floor: 0.5
//	line_y_tol_k: 0.5
//	block_gap_k: 1.5
//	block_overlap_threshold: 0.1
//	emit_regions: true
//
// Usage:
//
//	lineforge -ledger ocr/doc.ledger.json -out-dir grouped [options]
//
// Required flags:
//
//	-ledger string   Path to the OCR document ledger (under -root)
//	-out-dir string  Directory for per-page grouping artifacts (under -root)
//
// Options:
//
//	-out-doc string  Path to save the document-level grouping ledger
//	-root string     Repository root all paths must resolve under (default ".")
//	-config string   Path to a YAML file with grouping parameter overrides
//	-workers int     Max pages grouped concurrently (default 4)
//	-overlay string  Path to save a visual audit PDF
//	-pdf string      Source PDF to render as overlay backgrounds
//	-v               Verbose logging
//
// The tool exits non-zero when the document result is not ok.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sverrir/lineforge/pkg/docgroup"
	"github.com/sverrir/lineforge/pkg/grouping"
	"github.com/sverrir/lineforge/pkg/overlay"
	"github.com/sverrir/lineforge/pkg/render"
	"github.com/sverrir/lineforge/pkg/tokenio"
)

type yamlConfig struct {
	ConfidenceFloor       *float64 `yaml:"confidence_floor"`
	DropWhitespaceTokens  *bool    `yaml:"drop_whitespace_tokens"`
	RepairBBoxes          *bool    `yaml:"repair_bboxes"`
	LineYTolK             *float64 `yaml:"line_y_tol_k"`
	MinLineYTolPx         *int     `yaml:"min_line_y_tol_px"`
	BlockGapK             *float64 `yaml:"block_gap_k"`
	MinBlockGapPx         *int     `yaml:"min_block_gap_px"`
	BlockOverlapThreshold *float64 `yaml:"block_overlap_threshold"`
	IncludeTextFields     *bool    `yaml:"include_text_fields"`
	EmitRegions           *bool    `yaml:"emit_regions"`
}

// loadConfig reads a YAML file and applies its overrides on top of the
// defaults. Absent keys keep their default values.
func loadConfig(path string) (grouping.Config, error) {
	cfg := grouping.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return cfg, err
	}
	if yc.ConfidenceFloor != nil {
		cfg.ConfidenceFloor = *yc.ConfidenceFloor
	}
	if yc.DropWhitespaceTokens != nil {
		cfg.DropWhitespaceTokens = *yc.DropWhitespaceTokens
	}
	if yc.RepairBBoxes != nil {
		cfg.RepairBBoxes = *yc.RepairBBoxes
	}
	if yc.LineYTolK != nil {
		cfg.LineYTolK = *yc.LineYTolK
	}
	if yc.MinLineYTolPx != nil {
		cfg.MinLineYTolPx = *yc.MinLineYTolPx
	}
	if yc.BlockGapK != nil {
		cfg.BlockGapK = *yc.BlockGapK
	}
	if yc.MinBlockGapPx != nil {
		cfg.MinBlockGapPx = *yc.MinBlockGapPx
	}
	if yc.BlockOverlapThreshold != nil {
		cfg.BlockOverlapThreshold = *yc.BlockOverlapThreshold
	}
	if yc.IncludeTextFields != nil {
		cfg.IncludeTextFields = *yc.IncludeTextFields
	}
	if yc.EmitRegions != nil {
		cfg.EmitRegions = *yc.EmitRegions
	}
	return cfg, cfg.Validate()
}

func main() {
	ledgerPath := flag.String("ledger", "", "Path to the OCR document ledger (required)")
	outDir := flag.String("out-dir", "", "Directory for per-page grouping artifacts (required)")
	outDoc := flag.String("out-doc", "", "Path to save the document-level grouping ledger")
	root := flag.String("root", ".", "Repository root all paths must resolve under")
	configPath := flag.String("config", "", "Path to a YAML file with grouping parameter overrides")
	workers := flag.Int("workers", 4, "Max pages grouped concurrently")
	overlayPath := flag.String("overlay", "", "Path to save a visual audit PDF")
	pdfPath := flag.String("pdf", "", "Source PDF to render as overlay backgrounds")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *ledgerPath == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "Error: -ledger and -out-dir flags are required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	runner := docgroup.Runner{
		RepoRoot: *root,
		Config:   cfg,
		Workers:  *workers,
		Logger:   log,
	}
	result := runner.Run(*ledgerPath, *outDir, *outDoc)

	for _, e := range result.Errors {
		log.WithField("code", e.Code).Error(e.Message)
	}

	if *overlayPath != "" {
		if err := writeOverlay(*overlayPath, *pdfPath, *root, *workers, result, log); err != nil {
			log.Fatalf("Failed to write audit overlay: %v", err)
		}
		log.WithField("path", *overlayPath).Info("audit overlay saved")
	}

	if !result.OK {
		os.Exit(1)
	}
}

// writeOverlay assembles the audit PDF from the artifacts the run just
// wrote. Page dimensions come from the token artifacts; backgrounds come
// from rendering the source PDF when one is given.
func writeOverlay(outPath, pdfPath, root string, workers int, result docgroup.DocResult, log *logrus.Logger) error {
	var images []render.PageImage
	if pdfPath != "" {
		pdfData, err := os.ReadFile(pdfPath)
		if err != nil {
			return fmt.Errorf("reading source PDF: %w", err)
		}
		images, err = render.PDFPages(pdfData, workers)
		if err != nil {
			return fmt.Errorf("rendering source PDF: %w", err)
		}
	}
	imagesByPage := make(map[int]render.PageImage, len(images))
	for _, img := range images {
		imagesByPage[img.PageNum] = img
	}

	var pages []overlay.Page
	for _, ref := range result.Pages {
		if !ref.OK {
			log.WithField("page_num", ref.PageNum).Debug("skipping failed page in overlay")
			continue
		}

		data, err := os.ReadFile(filepath.Join(root, ref.GroupOutRelpath))
		if err != nil {
			return fmt.Errorf("reading grouping artifact for page %d: %w", ref.PageNum, err)
		}
		var pageResult grouping.PageResult
		if err := json.Unmarshal(data, &pageResult); err != nil {
			return fmt.Errorf("parsing grouping artifact for page %d: %w", ref.PageNum, err)
		}

		page := overlay.Page{Result: pageResult}
		if img, ok := imagesByPage[ref.PageNum]; ok {
			page.Image = img.JPEG
			page.Width = img.Width
			page.Height = img.Height
		} else {
			artifact, err := tokenio.ReadFile(filepath.Join(root, ref.SourceOCRRelpath))
			if err != nil {
				return fmt.Errorf("reading token artifact for page %d: %w", ref.PageNum, err)
			}
			matches := tokenio.FindPage(artifact, ref.PageNum)
			if len(matches) != 1 {
				return fmt.Errorf("page %d not found in token artifact", ref.PageNum)
			}
			page.Width = matches[0].Width
			page.Height = matches[0].Height
		}
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		return fmt.Errorf("no successful pages to draw")
	}

	out, err := overlay.Build(pages, overlay.DefaultConfig())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, out, 0o644)
}
