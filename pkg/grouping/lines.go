package grouping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sverrir/lineforge/pkg/geom"
	"github.com/sverrir/lineforge/pkg/tokenio"
)

// LineStats are the derived statistics of one line-assembly pass.
type LineStats struct {
	MedianTokenHeightPx int
	LineYTolPx          int
	RefinedBins         int
}

// medianInt returns the integer median of values: the middle element for odd
// counts, the floored mean of the two middle elements for even counts, and 1
// for an empty slice so downstream tolerances never collapse to zero.
func medianInt(values []int) int {
	if len(values) == 0 {
		return 1
	}
	s := make([]int, len(values))
	copy(s, values)
	sort.Ints(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// lineYTolPx derives the vertical binning tolerance from a median token
// height. The pixel floor keeps zero-height tokens from forcing every token
// into its own line.
func lineYTolPx(cfg Config, medianTokenHeightPx int) int {
	k := cfg.LineYTolK
	if k < 0 {
		k = 0
	}
	tol := int(k * float64(medianTokenHeightPx))
	if tol < cfg.MinLineYTolPx {
		tol = cfg.MinLineYTolPx
	}
	return tol
}

// tokenHeight returns the bbox height clamped to at least 1.
func tokenHeight(t tokenio.Token) int {
	h := t.BBox.Height()
	if h < 1 {
		h = 1
	}
	return h
}

// sortTokensSweep orders tokens by (y0, x0, token_id), the canonical sweep
// order for binning.
func sortTokensSweep(tokens []tokenio.Token) {
	sort.Slice(tokens, func(i, j int) bool {
		a, b := tokens[i], tokens[j]
		if a.BBox.Y0 != b.BBox.Y0 {
			return a.BBox.Y0 < b.BBox.Y0
		}
		if a.BBox.X0 != b.BBox.X0 {
			return a.BBox.X0 < b.BBox.X0
		}
		return a.TokenID < b.TokenID
	})
}

// sortTokensInLine orders line members by (x0, y0, token_id).
func sortTokensInLine(tokens []tokenio.Token) {
	sort.Slice(tokens, func(i, j int) bool {
		a, b := tokens[i], tokens[j]
		if a.BBox.X0 != b.BBox.X0 {
			return a.BBox.X0 < b.BBox.X0
		}
		if a.BBox.Y0 != b.BBox.Y0 {
			return a.BBox.Y0 < b.BBox.Y0
		}
		return a.TokenID < b.TokenID
	})
}

// lineBin is a candidate line during the greedy sweep. The reference y0 is
// taken from the bin's seed token and never updated, which keeps assignment
// independent of accumulation order.
type lineBin struct {
	refY0  int
	tokens []tokenio.Token
}

// binTokens greedily assigns each token (already in sweep order) to the
// first bin whose reference y0 is within tol, opening a new bin otherwise.
func binTokens(tokens []tokenio.Token, tol int) []lineBin {
	var bins []lineBin
	for _, t := range tokens {
		placed := false
		for i := range bins {
			d := t.BBox.Y0 - bins[i].refY0
			if d < 0 {
				d = -d
			}
			if d <= tol {
				bins[i].tokens = append(bins[i].tokens, t)
				placed = true
				break
			}
		}
		if !placed {
			bins = append(bins, lineBin{refY0: t.BBox.Y0, tokens: []tokenio.Token{t}})
		}
	}
	return bins
}

// AssembleLines clusters a page's used tokens into lines.
//
// Pass one bins tokens by y0 with a page-global tolerance. Because a
// generous tolerance can merge two visually distinct baselines into one bin
// on pages with mixed font sizes, pass two re-splits every bin with a
// bin-local median height and tolerance. Line identifiers are assigned only
// after the final (bbox.y0, bbox.x0, min member token id) ordering is known.
func AssembleLines(pageNum int, tokens []tokenio.Token, cfg Config) ([]Line, LineStats) {
	sweep := make([]tokenio.Token, len(tokens))
	copy(sweep, tokens)
	sortTokensSweep(sweep)

	heights := make([]int, 0, len(sweep))
	for _, t := range sweep {
		heights = append(heights, tokenHeight(t))
	}
	medianHeight := medianInt(heights)
	tol := lineYTolPx(cfg, medianHeight)

	coarse := binTokens(sweep, tol)

	// Refinement pass: re-split each bin with its own median height.
	var refined []lineBin
	for _, bin := range coarse {
		binHeights := make([]int, 0, len(bin.tokens))
		for _, t := range bin.tokens {
			binHeights = append(binHeights, tokenHeight(t))
		}
		binTol := lineYTolPx(cfg, medianInt(binHeights))

		local := make([]tokenio.Token, len(bin.tokens))
		copy(local, bin.tokens)
		sortTokensSweep(local)
		refined = append(refined, binTokens(local, binTol)...)
	}

	type lineRec struct {
		bbox     geom.BBox
		tokens   []tokenio.Token
		text     string
		tiebreak string // min member token id
	}

	recs := make([]lineRec, 0, len(refined))
	for _, bin := range refined {
		members := make([]tokenio.Token, len(bin.tokens))
		copy(members, bin.tokens)
		sortTokensInLine(members)

		boxes := make([]geom.BBox, 0, len(members))
		minID := members[0].TokenID
		texts := make([]string, 0, len(members))
		for _, t := range members {
			boxes = append(boxes, t.BBox)
			if t.TokenID < minID {
				minID = t.TokenID
			}
			texts = append(texts, t.Text)
		}

		text := ""
		if cfg.IncludeTextFields {
			text = strings.Join(texts, " ")
		}
		recs = append(recs, lineRec{bbox: geom.UnionAll(boxes), tokens: members, text: text, tiebreak: minID})
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

	lines := make([]Line, 0, len(recs))
	for i, r := range recs {
		lines = append(lines, Line{
			LineID:  fmt.Sprintf("p%03d_l%04d", pageNum, i),
			PageNum: pageNum,
			BBox:    r.bbox,
			Tokens:  r.tokens,
			Text:    r.text,
		})
	}

	return lines, LineStats{
		MedianTokenHeightPx: medianHeight,
		LineYTolPx:          tol,
		RefinedBins:         len(refined),
	}
}
