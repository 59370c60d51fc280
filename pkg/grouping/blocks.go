package grouping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sverrir/lineforge/pkg/geom"
)

// BlockStats are the derived statistics of one block-assembly pass.
// MedianLineGapPx is diagnostic only; using it as the clustering threshold
// would collapse on sparse pages, so the threshold scales off line height.
type BlockStats struct {
	MedianLineHeightPx int
	MedianLineGapPx    int
	GapThresholdPx     int
	OverlapThreshold   float64
}

// sortLinesSweep orders lines by (y0, x0, line_id), the canonical line
// ordering rule.
func sortLinesSweep(lines []Line) {
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.BBox.Y0 != b.BBox.Y0 {
			return a.BBox.Y0 < b.BBox.Y0
		}
		if a.BBox.X0 != b.BBox.X0 {
			return a.BBox.X0 < b.BBox.X0
		}
		return a.LineID < b.LineID
	})
}

// AssembleBlocks clusters a page's ordered lines into blocks.
//
// A sweep in canonical line order extends the current block while the
// candidate line stays within the gap threshold of the block-so-far bbox AND
// keeps enough horizontal overlap with it. Both checks are required:
// a height-scaled gap alone misclassifies side-by-side columns as one block,
// and overlap alone merges widely separated single-column text when gaps are
// small relative to font size. Block identifiers are assigned only after the
// final (bbox.y0, bbox.x0, first line id) ordering is known.
func AssembleBlocks(pageNum int, lines []Line, cfg Config) ([]Block, BlockStats) {
	if len(lines) == 0 {
		return []Block{}, BlockStats{OverlapThreshold: cfg.BlockOverlapThreshold}
	}

	ordered := make([]Line, len(lines))
	copy(ordered, lines)
	sortLinesSweep(ordered)

	heights := make([]int, 0, len(ordered))
	for _, l := range ordered {
		h := l.BBox.Height()
		if h < 1 {
			h = 1
		}
		heights = append(heights, h)
	}
	medianHeight := medianInt(heights)

	var gaps []int
	for i := 1; i < len(ordered); i++ {
		gap := ordered[i].BBox.Y0 - ordered[i-1].BBox.Y1
		if gap < 0 {
			gap = 0
		}
		gaps = append(gaps, gap)
	}
	medianGap := 0
	if len(gaps) > 0 {
		medianGap = medianInt(gaps)
	}

	gapThreshold := int(cfg.BlockGapK * float64(medianHeight))
	if gapThreshold < cfg.MinBlockGapPx {
		gapThreshold = cfg.MinBlockGapPx
	}

	var groups [][]Line
	current := []Line{ordered[0]}
	currentBBox := ordered[0].BBox
	for _, ln := range ordered[1:] {
		gap := ln.BBox.Y0 - currentBBox.Y1
		overlap := currentBBox.OverlapRatioX(ln.BBox)
		if gap > gapThreshold || overlap < cfg.BlockOverlapThreshold {
			groups = append(groups, current)
			current = []Line{ln}
			currentBBox = ln.BBox
		} else {
			current = append(current, ln)
			currentBBox = currentBBox.Union(ln.BBox)
		}
	}
	groups = append(groups, current)

	type blockRec struct {
		bbox     geom.BBox
		lines    []Line
		tiebreak string // first member line id in canonical order
	}

	recs := make([]blockRec, 0, len(groups))
	for _, g := range groups {
		members := make([]Line, len(g))
		copy(members, g)
		sortLinesSweep(members)

		boxes := make([]geom.BBox, 0, len(members))
		for _, l := range members {
			boxes = append(boxes, l.BBox)
		}
		recs = append(recs, blockRec{bbox: geom.UnionAll(boxes), lines: members, tiebreak: members[0].LineID})
	}

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.bbox.Y0 != b.bbox.Y0 {
			return a.bbox.Y0 < b.bbox.Y0
		}
		if a.bbox.X0 != b.bbox.X0 {
			return a.bbox.X0 < b.bbox.X0
		}
		return a.tiebreak < b.tiebreak
	})

	blocks := make([]Block, 0, len(recs))
	for i, r := range recs {
		lineIDs := make([]string, 0, len(r.lines))
		texts := make([]string, 0, len(r.lines))
		for _, l := range r.lines {
			lineIDs = append(lineIDs, l.LineID)
			texts = append(texts, l.Text)
		}
		text := ""
		if cfg.IncludeTextFields {
			text = strings.Join(texts, "\n")
		}
		blocks = append(blocks, Block{
			BlockID: fmt.Sprintf("p%03d_b%04d", pageNum, i),
			PageNum: pageNum,
			BBox:    r.bbox,
			LineIDs: lineIDs,
			Text:    text,
		})
	}

	return blocks, BlockStats{
		MedianLineHeightPx: medianHeight,
		MedianLineGapPx:    medianGap,
		GapThresholdPx:     gapThreshold,
		OverlapThreshold:   cfg.BlockOverlapThreshold,
	}
}
