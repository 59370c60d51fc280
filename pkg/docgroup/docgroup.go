// Package docgroup orchestrates grouping across a whole document.
//
// It consumes an OCR document ledger (an index of per-page token artifacts),
// validates it strictly, fans out to the page grouping engine, and emits one
// grouping artifact per page plus a document-level ledger summarizing the
// per-page outcomes.
//
// The orchestrator is a state machine with terminal states only:
//
//	LoadLedger -> ValidateLedger -> {Refuse | ProcessPages -> Aggregate}
//
// A malformed ledger refuses the entire document and writes nothing: it
// signals an upstream contract violation, not a per-page data issue. Once
// validation passes, page-level failures are isolated - the failing page
// still gets a well-formed artifact with ok=false and the rest of the
// document proceeds. Nothing is retried: grouping is a pure function of its
// inputs, so retrying without changing the input is pointless.
//
// Every path the orchestrator touches must resolve under a single repository
// root; anything escaping the root is rejected with a dedicated error code.
package docgroup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sverrir/lineforge/pkg/canonjson"
	"github.com/sverrir/lineforge/pkg/grouping"
	"github.com/sverrir/lineforge/pkg/tokenio"
)

// Stable error codes. Ledger-level codes are fatal to the whole document;
// page-level codes are isolated to one page.
const (
	CodeLedgerNotUnderRepo  = "OCR_DOC_LEDGER_NOT_UNDER_REPO"
	CodeLedgerMissing       = "OCR_DOC_LEDGER_MISSING"
	CodeLedgerInvalidJSON   = "OCR_DOC_LEDGER_INVALID_JSON"
	CodeLedgerBadShape      = "OCR_DOC_LEDGER_BAD_SHAPE"
	CodeLedgerInvalidPages  = "OCR_DOC_LEDGER_INVALID_PAGES"
	CodeOutDirNotUnderRepo  = "GROUP_OUT_DIR_NOT_UNDER_REPO"
	CodeOutDocNotUnderRepo  = "GROUP_OUT_DOC_NOT_UNDER_REPO"
	CodeRelpathOutsideRepo  = "GROUP_OCR_RELPATH_OUTSIDE_REPO"
	CodeSourceOCRMissing    = "GROUP_SOURCE_OCR_MISSING"
	CodeOCRInvalidJSON      = "GROUP_OCR_INVALID_JSON"
	CodeOCRBadShape         = "GROUP_OCR_BAD_SHAPE"
	CodePageNumMismatch     = "GROUP_OCR_PAGE_NUM_MISMATCH"
	CodePageNumAmbiguous    = "GROUP_OCR_PAGE_NUM_AMBIGUOUS"
	CodeSomePagesFailed     = "GROUP_SOME_PAGES_FAILED"
	CodeArtifactWriteFailed = "GROUP_ARTIFACT_WRITE_FAILED"
)

// Runner executes document-mode grouping. The zero value is not usable;
// RepoRoot is required and Config should come from grouping.DefaultConfig
// unless explicitly overridden.
type Runner struct {
	RepoRoot string          // repository root every path must resolve under
	Config   grouping.Config // grouping parameters applied to every page
	Workers  int             // max concurrent pages; <= 1 means sequential
	Logger   *logrus.Logger  // nil means logrus standard logger
}

func (r Runner) logger() *logrus.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logrus.StandardLogger()
}

// Run loads and validates the ledger at ledgerPath, groups every referenced
// page, writes one artifact per page under outDir/<doc_id>/, and returns the
// document result. When outDocPath is non-empty the document ledger is also
// written there as canonical JSON.
func (r Runner) Run(ledgerPath, outDir, outDocPath string) DocResult {
	log := r.logger()

	root, err := filepath.Abs(r.RepoRoot)
	if err != nil {
		return refuse("", ledgerPath, grouping.Error{
			Code:    CodeLedgerNotUnderRepo,
			Message: "repository root could not be resolved",
			Detail:  &grouping.ErrorDetail{Path: r.RepoRoot, Cause: err.Error()},
		})
	}

	ledgerAbs, ledgerRel, ok := resolveUnderRoot(root, ledgerPath)
	if !ok {
		return refuse("", ledgerPath, grouping.Error{
			Code:    CodeLedgerNotUnderRepo,
			Message: "ledger must be under the repository root for auditable relpaths",
			Detail:  &grouping.ErrorDetail{Path: ledgerPath, Resolved: ledgerAbs, RepoRoot: root},
		})
	}

	outDirAbs, _, ok := resolveUnderRoot(root, outDir)
	if !ok {
		return refuse("", ledgerRel, grouping.Error{
			Code:    CodeOutDirNotUnderRepo,
			Message: "output directory must be under the repository root",
			Detail:  &grouping.ErrorDetail{Path: outDir, Resolved: outDirAbs, RepoRoot: root},
		})
	}

	var outDocAbs string
	if outDocPath != "" {
		var okDoc bool
		outDocAbs, _, okDoc = resolveUnderRoot(root, outDocPath)
		if !okDoc {
			return refuse("", ledgerRel, grouping.Error{
				Code:    CodeOutDocNotUnderRepo,
				Message: "document ledger output must be under the repository root",
				Detail:  &grouping.ErrorDetail{Path: outDocPath, Resolved: outDocAbs, RepoRoot: root},
			})
		}
	}

	docID, entries, refusal := loadLedger(ledgerAbs, ledgerRel)
	if refusal != nil {
		log.WithFields(logrus.Fields{"ledger": ledgerRel, "code": refusal.Code}).Warn("refusing document")
		return refuse(docID, ledgerRel, *refusal)
	}

	// Ledger order is not trusted; pages are processed and reported in
	// ascending page-number order.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].PageNum < entries[j].PageNum })

	refs := make([]PageRef, len(entries))
	var g errgroup.Group
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, entry := range entries {
		g.Go(func() error {
			refs[i] = r.processPage(root, outDirAbs, docID, entry)
			log.WithFields(logrus.Fields{
				"doc_id":   docID,
				"page_num": entry.PageNum,
				"ok":       refs[i].OK,
			}).Info("page grouped")
			return nil
		})
	}
	g.Wait()

	docErrors := []grouping.Error{}
	var failedPages []int
	for _, ref := range refs {
		if !ref.OK {
			failedPages = append(failedPages, ref.PageNum)
		}
	}
	docOK := len(failedPages) == 0
	if !docOK {
		docErrors = append(docErrors, grouping.Error{
			Code:    CodeSomePagesFailed,
			Message: "one or more pages failed grouping in document mode",
			Detail:  &grouping.ErrorDetail{FailedPages: failedPages, FailedCount: len(failedPages)},
		})
	}

	result := DocResult{
		DocID:               docID,
		OK:                  docOK,
		SourceLedgerRelpath: ledgerRel,
		Pages:               refs,
		Errors:              docErrors,
		Meta:                docMeta(),
	}

	if outDocAbs != "" {
		if err := canonjson.WriteFile(outDocAbs, result); err != nil {
			log.WithError(err).Error("failed to write document ledger")
			result.OK = false
			result.Errors = append(result.Errors, grouping.Error{
				Code:    CodeArtifactWriteFailed,
				Message: "failed to write the document ledger",
				Detail:  &grouping.ErrorDetail{Path: outDocPath, Cause: err.Error()},
			})
		}
	}

	log.WithFields(logrus.Fields{"doc_id": docID, "ok": result.OK, "pages": len(refs)}).Info("document grouped")
	return result
}

// processPage runs grouping for one ledger entry and writes a page artifact,
// failure envelopes included. Failures never escape the page: even a
// filesystem write problem is recorded on the returned ref so sibling page
// outcomes survive it.
func (r Runner) processPage(root, outDirAbs, docID string, entry LedgerEntry) PageRef {
	outFile := filepath.Join(outDirAbs, docID, fmt.Sprintf("page_%03d.group.json", entry.PageNum))
	outRel, relErr := filepath.Rel(root, outFile)
	if relErr != nil {
		outRel = outFile
	}
	outRel = filepath.ToSlash(outRel)

	ref := func(ok bool, errs []grouping.Error) PageRef {
		return PageRef{
			PageNum:          entry.PageNum,
			SourceOCRRelpath: entry.OCROutRelpath,
			GroupOutRelpath:  outRel,
			OK:               ok,
			Errors:           errs,
		}
	}
	writeOut := func(result grouping.PageResult) PageRef {
		if err := canonjson.WriteFile(outFile, result); err != nil {
			errs := append(result.Errors, grouping.Error{
				Code:    CodeArtifactWriteFailed,
				Message: "failed to write the page artifact",
				Detail:  &grouping.ErrorDetail{Path: outRel, Cause: err.Error()},
			})
			return ref(false, errs)
		}
		return ref(result.OK, result.Errors)
	}
	fail := func(tokensIn int, pageErr grouping.Error) PageRef {
		return writeOut(grouping.FailedPage(entry.PageNum, entry.OCROutRelpath, r.Config, tokensIn, []grouping.Error{pageErr}))
	}

	srcAbs, _, ok := resolveUnderRoot(root, entry.OCROutRelpath)
	if !ok {
		return fail(0, grouping.Error{
			Code:    CodeRelpathOutsideRepo,
			Message: "token artifact path must resolve under the repository root",
			Detail:  &grouping.ErrorDetail{Path: entry.OCROutRelpath, Resolved: srcAbs, RepoRoot: root},
		})
	}

	data, err := os.ReadFile(srcAbs)
	if err != nil {
		if os.IsNotExist(err) {
			return fail(0, grouping.Error{
				Code:    CodeSourceOCRMissing,
				Message: "expected token artifact missing on disk",
				Detail:  &grouping.ErrorDetail{Path: entry.OCROutRelpath, Resolved: srcAbs},
			})
		}
		return fail(0, grouping.Error{
			Code:    CodeSourceOCRMissing,
			Message: "token artifact could not be read",
			Detail:  &grouping.ErrorDetail{Path: entry.OCROutRelpath, Resolved: srcAbs, Cause: err.Error()},
		})
	}

	artifact, err := tokenio.Decode(data)
	if err != nil {
		code := CodeOCRBadShape
		message := "token artifact has invalid structure"
		if errors.Is(err, tokenio.ErrInvalidJSON) {
			code = CodeOCRInvalidJSON
			message = "token artifact is not valid JSON"
		}
		return fail(0, grouping.Error{
			Code:    code,
			Message: message,
			Detail:  &grouping.ErrorDetail{Path: entry.OCROutRelpath, Cause: err.Error()},
		})
	}

	matches := tokenio.FindPage(artifact, entry.PageNum)
	if len(matches) == 0 {
		available := tokenio.PageNums(artifact)
		sort.Ints(available)
		return fail(0, grouping.Error{
			Code:    CodePageNumMismatch,
			Message: "token artifact contains no page entry matching the ledger page number",
			Detail:  &grouping.ErrorDetail{LedgerPageNum: entry.PageNum, AvailablePageNums: available},
		})
	}
	if len(matches) > 1 {
		return fail(0, grouping.Error{
			Code:    CodePageNumAmbiguous,
			Message: "token artifact contains multiple page entries matching the ledger page number",
			Detail:  &grouping.ErrorDetail{LedgerPageNum: entry.PageNum, MatchCount: len(matches)},
		})
	}

	return writeOut(grouping.GroupPage(entry.PageNum, entry.OCROutRelpath, matches[0].Tokens, r.Config))
}

// refuse builds a document result for a fatal ledger-level failure.
// Nothing is written to disk on this path.
func refuse(docID, ledgerRel string, err grouping.Error) DocResult {
	return DocResult{
		DocID:               docID,
		OK:                  false,
		SourceLedgerRelpath: ledgerRel,
		Pages:               []PageRef{},
		Errors:              []grouping.Error{err},
		Meta:                docMeta(),
	}
}

// loadLedger reads, parses, and strictly validates the document ledger.
// Any single invalid page entry refuses the entire document.
func loadLedger(ledgerAbs, ledgerRel string) (string, []LedgerEntry, *grouping.Error) {
	data, err := os.ReadFile(ledgerAbs)
	if err != nil {
		return "", nil, &grouping.Error{
			Code:    CodeLedgerMissing,
			Message: "OCR document ledger not found",
			Detail:  &grouping.ErrorDetail{Path: ledgerRel, Resolved: ledgerAbs},
		}
	}

	var raw rawLedger
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, &grouping.Error{
			Code:    CodeLedgerInvalidJSON,
			Message: "failed to parse OCR document ledger JSON",
			Detail:  &grouping.ErrorDetail{Path: ledgerRel, Cause: err.Error()},
		}
	}

	if raw.DocID == nil || *raw.DocID == "" || raw.Pages == nil {
		docID := ""
		if raw.DocID != nil {
			docID = *raw.DocID
		}
		return docID, nil, &grouping.Error{
			Code:    CodeLedgerBadShape,
			Message: "OCR document ledger missing required fields (doc_id, pages[])",
			Detail:  &grouping.ErrorDetail{Path: ledgerRel},
		}
	}

	var rawEntries []rawLedgerEntry
	if err := json.Unmarshal(raw.Pages, &rawEntries); err != nil {
		return *raw.DocID, nil, &grouping.Error{
			Code:    CodeLedgerBadShape,
			Message: "OCR document ledger pages[] is not a list",
			Detail:  &grouping.ErrorDetail{Path: ledgerRel},
		}
	}

	entries := make([]LedgerEntry, 0, len(rawEntries))
	invalidCount := 0
	var firstInvalid *grouping.ErrorDetail
	// Each page owns exactly one output artifact, so a page number may
	// appear at most once in the ledger.
	seen := make(map[int]bool, len(rawEntries))
	for i, re := range rawEntries {
		reason := ""
		switch {
		case re.PageNum == nil || *re.PageNum < 1:
			reason = "page_num must be an integer >= 1"
		case re.OCROutRelpath == nil || *re.OCROutRelpath == "":
			reason = "ocr_out_relpath must be a non-empty string"
		case seen[*re.PageNum]:
			reason = "page_num duplicates an earlier entry"
		}
		if reason != "" {
			invalidCount++
			if firstInvalid == nil {
				idx := i
				firstInvalid = &grouping.ErrorDetail{EntryIndex: &idx, Reason: reason}
			}
			continue
		}
		seen[*re.PageNum] = true
		entries = append(entries, LedgerEntry{
			PageNum:            *re.PageNum,
			OCROutRelpath:      *re.OCROutRelpath,
			SourceImageRelpath: re.SourceImageRelpath,
		})
	}

	if invalidCount > 0 {
		detail := firstInvalid
		detail.InvalidCount = invalidCount
		return *raw.DocID, nil, &grouping.Error{
			Code:    CodeLedgerInvalidPages,
			Message: "OCR document ledger contains invalid page entries; refusing to run in document mode",
			Detail:  detail,
		}
	}
	return *raw.DocID, entries, nil
}
