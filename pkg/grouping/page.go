package grouping

import "github.com/sverrir/lineforge/pkg/tokenio"

// buildMeta assembles the closed audit envelope. Both the success and
// failure paths go through here so the artifact shape never diverges.
func buildMeta(cfg Config, derived Derived, counts Counts, dropped []DroppedToken, warnings []Warning) PageMeta {
	if dropped == nil {
		dropped = []DroppedToken{}
	}
	if warnings == nil {
		warnings = []Warning{}
	}
	counts.DroppedTokensCount = len(dropped)
	counts.WarningsCount = len(warnings)
	return PageMeta{
		Mode:          "page",
		Algorithm:     Algorithm,
		Version:       Version,
		Params:        cfg.Params(),
		Derived:       derived,
		Counts:        counts,
		DroppedTokens: dropped,
		Warnings:      warnings,
	}
}

// GroupPage runs the full grouping pipeline for one page: preprocessing,
// line assembly, block assembly, and (when enabled) region inference. It is
// a pure function of its inputs; writing the result anywhere is the
// caller's concern.
func GroupPage(pageNum int, sourceRelpath string, tokens []tokenio.Token, cfg Config) PageResult {
	used, dropped, warnings := PreprocessTokens(tokens, cfg)

	var (
		lines   []Line
		blocks  []Block
		derived Derived
	)
	if len(used) == 0 {
		lines = []Line{}
		blocks = []Block{}
		derived = ZeroDerived(cfg)
	} else {
		var lineStats LineStats
		var blockStats BlockStats
		lines, lineStats = AssembleLines(pageNum, used, cfg)
		blocks, blockStats = AssembleBlocks(pageNum, lines, cfg)
		derived = Derived{
			MedianTokenHeightPx: lineStats.MedianTokenHeightPx,
			LineYTolPx:          lineStats.LineYTolPx,
			RefinedBins:         lineStats.RefinedBins,
			MedianLineHeightPx:  blockStats.MedianLineHeightPx,
			MedianLineGapPx:     blockStats.MedianLineGapPx,
			GapThresholdPx:      blockStats.GapThresholdPx,
			OverlapThreshold:    blockStats.OverlapThreshold,
		}
	}

	regions := []Region{}
	if cfg.EmitRegions {
		regions = InferRegions(pageNum, blocks)
	}

	counts := Counts{
		TokensIn:   len(tokens),
		TokensUsed: len(used),
		Lines:      len(lines),
		Blocks:     len(blocks),
		Regions:    len(regions),
	}

	return PageResult{
		OK:               true,
		PageNum:          pageNum,
		SourceOCRRelpath: sourceRelpath,
		Lines:            lines,
		Blocks:           blocks,
		Regions:          regions,
		Errors:           []Error{},
		Meta:             buildMeta(cfg, derived, counts, dropped, warnings),
	}
}

// FailedPage builds the deterministic failure envelope for a page that
// could not be grouped. The result has the same field shape as a success:
// empty entity lists, zeroed derived statistics, and the specific errors.
func FailedPage(pageNum int, sourceRelpath string, cfg Config, tokensIn int, errs []Error) PageResult {
	counts := Counts{TokensIn: tokensIn}
	return PageResult{
		OK:               false,
		PageNum:          pageNum,
		SourceOCRRelpath: sourceRelpath,
		Lines:            []Line{},
		Blocks:           []Block{},
		Regions:          []Region{},
		Errors:           errs,
		Meta:             buildMeta(cfg, ZeroDerived(cfg), counts, nil, nil),
	}
}
