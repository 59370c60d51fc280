package grouping

import (
	"github.com/sverrir/lineforge/pkg/geom"
	"github.com/sverrir/lineforge/pkg/tokenio"
)

// Line is an ordered cluster of tokens judged to share a text baseline.
// Immutable once constructed; owned by the page that produced it.
type Line struct {
	LineID  string          `json:"line_id"` // p{page:03d}_l{index:04d}
	PageNum int             `json:"page_num"`
	BBox    geom.BBox       `json:"bbox"`
	Tokens  []tokenio.Token `json:"tokens"`
	Text    string          `json:"text"` // member texts joined with single spaces
}

// Block is an ordered cluster of lines forming one contiguous
// paragraph-like region.
type Block struct {
	BlockID string    `json:"block_id"` // p{page:03d}_b{index:04d}
	PageNum int       `json:"page_num"`
	BBox    geom.BBox `json:"bbox"`
	LineIDs []string  `json:"line_ids"`
	Text    string    `json:"text"` // member line texts joined with newlines
}

// RegionType is a coarse semantic-free classification of blocks by page
// position and size.
type RegionType string

const (
	RegionTitleBlock RegionType = "title_block"
	RegionTableLike  RegionType = "table_like"
	RegionNote       RegionType = "note"
	RegionAnnotation RegionType = "annotation"
	RegionUnknown    RegionType = "unknown"
)

// Region groups one or more blocks under a RegionType.
type Region struct {
	RegionID string     `json:"region_id"` // p{page:03d}_r{index:04d}
	PageNum  int        `json:"page_num"`
	Type     RegionType `json:"region_type"`
	BlockIDs []string   `json:"block_ids"`
	BBox     geom.BBox  `json:"bbox"`
}

// Error is a stable-coded error record carried on the wire. Detail is a
// closed struct rather than an open map so success and failure artifacts
// cannot silently diverge in shape.
type Error struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Detail  *ErrorDetail `json:"detail,omitempty"`
}

// ErrorDetail holds the structured payload of an Error. Only the fields
// relevant to the code are populated.
type ErrorDetail struct {
	Path              string `json:"path,omitempty"`
	Resolved          string `json:"resolved,omitempty"`
	RepoRoot          string `json:"repo_root,omitempty"`
	LedgerPageNum     int    `json:"ledger_page_num,omitempty"`
	AvailablePageNums []int  `json:"available_page_nums,omitempty"`
	MatchCount        int    `json:"match_count,omitempty"`
	InvalidCount      int    `json:"invalid_count,omitempty"`
	FailedPages       []int  `json:"failed_pages,omitempty"`
	FailedCount       int    `json:"failed_count,omitempty"`
	EntryIndex        *int   `json:"entry_index,omitempty"`
	Reason            string `json:"reason,omitempty"`
	Cause             string `json:"cause,omitempty"`
}

// DroppedToken records one token excluded during preprocessing.
type DroppedToken struct {
	TokenID string `json:"token_id"`
	Reason  string `json:"reason"`
}

// Warning records a non-fatal repair performed during preprocessing.
type Warning struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Detail  WarningDetail `json:"detail"`
}

// WarningDetail carries the before/after geometry of a repair.
type WarningDetail struct {
	TokenID string    `json:"token_id"`
	Before  geom.BBox `json:"before"`
	After   geom.BBox `json:"after"`
}

// Derived holds the page-adaptive statistics computed while clustering.
// Failure paths emit deterministic zero values (see ZeroDerived).
type Derived struct {
	MedianTokenHeightPx int     `json:"median_token_height_px"`
	LineYTolPx          int     `json:"line_y_tol_px"`
	RefinedBins         int     `json:"refined_bins"`
	MedianLineHeightPx  int     `json:"median_line_height_px"`
	MedianLineGapPx     int     `json:"median_line_gap_px"`
	GapThresholdPx      int     `json:"gap_threshold_px"`
	OverlapThreshold    float64 `json:"overlap_threshold"`
}

// Counts summarizes a page's grouping outcome.
type Counts struct {
	TokensIn           int `json:"tokens_in"`
	TokensUsed         int `json:"tokens_used"`
	Lines              int `json:"lines"`
	Blocks             int `json:"blocks"`
	Regions            int `json:"regions"`
	DroppedTokensCount int `json:"dropped_tokens_count"`
	WarningsCount      int `json:"warnings_count"`
}

// PageMeta is the closed, versioned audit envelope attached to every page
// result. Its shape is identical on success and failure.
type PageMeta struct {
	Mode          string         `json:"mode"`
	Algorithm     string         `json:"algorithm"`
	Version       string         `json:"version"`
	Params        Params         `json:"params"`
	Derived       Derived        `json:"derived"`
	Counts        Counts         `json:"counts"`
	DroppedTokens []DroppedToken `json:"dropped_tokens"`
	Warnings      []Warning      `json:"warnings"`
}

// PageResult is the complete grouping outcome for one page.
type PageResult struct {
	OK               bool     `json:"ok"`
	PageNum          int      `json:"page_num"`
	SourceOCRRelpath string   `json:"source_ocr_relpath"`
	Lines            []Line   `json:"lines"`
	Blocks           []Block  `json:"blocks"`
	Regions          []Region `json:"regions"`
	Errors           []Error  `json:"errors"`
	Meta             PageMeta `json:"meta"`
}
