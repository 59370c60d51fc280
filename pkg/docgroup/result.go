package docgroup

import (
	"encoding/json"

	"github.com/sverrir/lineforge/pkg/grouping"
)

// LedgerEntry is one validated page reference from the OCR document ledger.
type LedgerEntry struct {
	PageNum            int
	OCROutRelpath      string
	SourceImageRelpath string
}

// rawLedger and rawLedgerEntry mirror the ledger wire shape with pointer
// fields so that missing and mistyped keys are distinguishable from zero
// values. Unknown keys are tolerated and ignored.
type rawLedger struct {
	DocID *string         `json:"doc_id"`
	Pages json.RawMessage `json:"pages"`
}

type rawLedgerEntry struct {
	PageNum            *int    `json:"page_num"`
	OCROutRelpath      *string `json:"ocr_out_relpath"`
	SourceImageRelpath string  `json:"source_image_relpath"`
}

// PageRef is the per-page record in the document ledger output. It points at
// the page artifact rather than inlining it; the artifact on disk is the
// authoritative per-page result.
type PageRef struct {
	PageNum          int              `json:"page_num"`
	SourceOCRRelpath string           `json:"source_ocr_relpath"`
	GroupOutRelpath  string           `json:"group_out_relpath"`
	OK               bool             `json:"ok"`
	Errors           []grouping.Error `json:"errors"`
}

// DocMeta identifies the algorithm revision that produced a document result.
type DocMeta struct {
	Mode      string `json:"mode"`
	Algorithm string `json:"algorithm"`
	Version   string `json:"version"`
}

func docMeta() DocMeta {
	return DocMeta{Mode: "doc", Algorithm: grouping.Algorithm, Version: grouping.Version}
}

// DocResult is the document-mode outcome. OK is true only when every page
// grouped successfully and all artifacts were written.
type DocResult struct {
	DocID               string           `json:"doc_id"`
	OK                  bool             `json:"ok"`
	SourceLedgerRelpath string           `json:"source_ocr_doc_ledger_relpath"`
	Pages               []PageRef        `json:"pages"`
	Errors              []grouping.Error `json:"errors"`
	Meta                DocMeta          `json:"meta"`
}
