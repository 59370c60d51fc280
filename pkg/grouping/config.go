package grouping

import "fmt"

// Config holds the grouping parameters. All thresholds are explicit
// constants or derived from per-page median geometry; none depend on time,
// randomness, or input order.
type Config struct {
	ConfidenceFloor      float64 // Drop tokens below this confidence when > 0
	DropWhitespaceTokens bool    // Drop tokens whose text trims to empty
	RepairBBoxes         bool    // Swap reversed bbox coordinates instead of dropping

	// line_y_tol_px = max(MinLineYTolPx, int(LineYTolK * median_token_height_px))
	LineYTolK     float64
	MinLineYTolPx int

	// gap_threshold_px = max(MinBlockGapPx, int(BlockGapK * median_line_height_px))
	BlockGapK             float64
	MinBlockGapPx         int
	BlockOverlapThreshold float64 // Minimum horizontal overlap ratio within a block

	IncludeTextFields bool // Emit joined text on lines and blocks
	EmitRegions       bool // Run the region classifier
}

// DefaultConfig returns the conservative defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceFloor:       0,
		DropWhitespaceTokens:  true,
		RepairBBoxes:          true,
		LineYTolK:             0.5,
		MinLineYTolPx:         2,
		BlockGapK:             1.5,
		MinBlockGapPx:         2,
		BlockOverlapThreshold: 0.1,
		IncludeTextFields:     true,
		EmitRegions:           false,
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return fmt.Errorf("confidence floor must be within [0, 1], got %v", c.ConfidenceFloor)
	}
	if c.LineYTolK <= 0 {
		return fmt.Errorf("line y tolerance factor must be > 0, got %v", c.LineYTolK)
	}
	if c.BlockGapK <= 0 {
		return fmt.Errorf("block gap factor must be > 0, got %v", c.BlockGapK)
	}
	if c.BlockOverlapThreshold < 0 || c.BlockOverlapThreshold > 1 {
		return fmt.Errorf("block overlap threshold must be within [0, 1], got %v", c.BlockOverlapThreshold)
	}
	if c.MinLineYTolPx < 0 {
		return fmt.Errorf("minimum line y tolerance must be >= 0, got %d", c.MinLineYTolPx)
	}
	if c.MinBlockGapPx < 0 {
		return fmt.Errorf("minimum block gap must be >= 0, got %d", c.MinBlockGapPx)
	}
	return nil
}

// Params is the full parameter echo recorded in every audit envelope.
type Params struct {
	ConfidenceFloor       float64 `json:"confidence_floor"`
	DropWhitespaceTokens  bool    `json:"drop_whitespace_tokens"`
	RepairBBoxes          bool    `json:"repair_bboxes"`
	LineYTolK             float64 `json:"line_y_tol_k"`
	MinLineYTolPx         int     `json:"min_line_y_tol_px"`
	BlockGapK             float64 `json:"block_gap_k"`
	MinBlockGapPx         int     `json:"min_block_gap_px"`
	BlockOverlapThreshold float64 `json:"block_overlap_threshold"`
	IncludeTextFields     bool    `json:"include_text_fields"`
	EmitRegions           bool    `json:"emit_regions"`
}

// Params returns the audit echo of c.
func (c Config) Params() Params {
	return Params{
		ConfidenceFloor:       c.ConfidenceFloor,
		DropWhitespaceTokens:  c.DropWhitespaceTokens,
		RepairBBoxes:          c.RepairBBoxes,
		LineYTolK:             c.LineYTolK,
		MinLineYTolPx:         c.MinLineYTolPx,
		BlockGapK:             c.BlockGapK,
		MinBlockGapPx:         c.MinBlockGapPx,
		BlockOverlapThreshold: c.BlockOverlapThreshold,
		IncludeTextFields:     c.IncludeTextFields,
		EmitRegions:           c.EmitRegions,
	}
}

// ZeroDerived returns the deterministic neutral statistics used on failure
// and no-signal pages. The configured overlap threshold stays visible even
// when clustering never ran.
func ZeroDerived(c Config) Derived {
	return Derived{OverlapThreshold: c.BlockOverlapThreshold}
}
