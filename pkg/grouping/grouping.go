// Package grouping implements the deterministic spatial grouping engine:
// OCR tokens are clustered into lines, lines into blocks, and blocks
// optionally into coarse regions, using page-adaptive thresholds derived
// from the page's own median geometry.
//
// The engine is geometry-only. Recognized text is carried through untouched
// and never influences clustering. There is no randomness, no wall-clock
// input, and no dependence on input iteration order: the same token set
// always produces the same identifiers, the same ordering, and the same
// audit logs.
//
// The central invariant is ordering-before-naming: line, block, and region
// identifiers are assigned only after the entity's final sort position among
// its siblings is fixed. Reordering the raw input token list must not change
// any assigned identifier.
//
// Key entry points:
//
// - PreprocessTokens: filters and repairs a page's token set, producing the
//   audited "used" set plus deterministic drop and warning logs
// - AssembleLines: token -> line clustering with adaptive vertical tolerance
// - AssembleBlocks: line -> block clustering with adaptive gap and overlap
//   thresholds
// - InferRegions: optional geometry-only region classification
// - GroupPage: composes the above for one page and builds the audit envelope
package grouping

// Algorithm identity constants recorded in every page envelope so an auditor
// can tell which clusterer produced an artifact.
const (
	Algorithm = "lines_blocks"
	Version   = "lines_blocks_v1"
)
