package docgroup

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sverrir/lineforge/pkg/canonjson"
	"github.com/sverrir/lineforge/pkg/geom"
	"github.com/sverrir/lineforge/pkg/grouping"
	"github.com/sverrir/lineforge/pkg/tokenio"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newRunner(root string) Runner {
	return Runner{
		RepoRoot: root,
		Config:   grouping.DefaultConfig(),
		Workers:  2,
		Logger:   quietLogger(),
	}
}

func rowTokens() []tokenio.Token {
	return []tokenio.Token{
		{TokenID: "t1", Text: "alpha", BBox: geom.BBox{X0: 10, Y0: 10, X1: 20, Y1: 30}},
		{TokenID: "t2", Text: "beta", BBox: geom.BBox{X0: 30, Y0: 10, X1: 40, Y1: 30}},
	}
}

// writeTokenArtifact drops a single-page token artifact at relpath under root.
func writeTokenArtifact(t *testing.T, root, relpath string, pageNum int) {
	t.Helper()
	artifact := tokenio.Artifact{
		DocID: "doc1",
		Pages: []tokenio.Page{{PageNum: pageNum, Width: 1000, Height: 1000, Tokens: rowTokens()}},
	}
	require.NoError(t, canonjson.WriteFile(filepath.Join(root, relpath), artifact))
}

func writeLedger(t *testing.T, root, relpath string, v any) {
	t.Helper()
	require.NoError(t, canonjson.WriteFile(filepath.Join(root, relpath), v))
}

type ledgerDoc struct {
	DocID string           `json:"doc_id"`
	Pages []ledgerDocEntry `json:"pages"`
}

type ledgerDocEntry struct {
	PageNum       int    `json:"page_num"`
	OCROutRelpath string `json:"ocr_out_relpath"`
}

func TestRunHappyPath(t *testing.T) {
	root := t.TempDir()
	writeTokenArtifact(t, root, "ocr/page_001.ocr.json", 1)
	writeTokenArtifact(t, root, "ocr/page_002.ocr.json", 2)
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{
			{PageNum: 2, OCROutRelpath: "ocr/page_002.ocr.json"},
			{PageNum: 1, OCROutRelpath: "ocr/page_001.ocr.json"},
		},
	})

	result := newRunner(root).Run("ocr/doc.ledger.json", "grouped", "grouped/doc1.group.doc.json")

	assert.True(t, result.OK)
	assert.Equal(t, "doc1", result.DocID)
	assert.Equal(t, "ocr/doc.ledger.json", result.SourceLedgerRelpath)
	assert.Empty(t, result.Errors)

	// Refs come back in page-number order regardless of ledger order.
	require.Len(t, result.Pages, 2)
	assert.Equal(t, 1, result.Pages[0].PageNum)
	assert.Equal(t, 2, result.Pages[1].PageNum)
	assert.Equal(t, "grouped/doc1/page_001.group.json", result.Pages[0].GroupOutRelpath)
	assert.True(t, result.Pages[0].OK)

	// Page artifacts and the document ledger exist on disk.
	for _, rel := range []string{
		"grouped/doc1/page_001.group.json",
		"grouped/doc1/page_002.group.json",
		"grouped/doc1.group.doc.json",
	} {
		_, err := os.Stat(filepath.Join(root, rel))
		assert.NoError(t, err, rel)
	}
}

func TestRunIdempotentBytes(t *testing.T) {
	root := t.TempDir()
	writeTokenArtifact(t, root, "ocr/page_001.ocr.json", 1)
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{{PageNum: 1, OCROutRelpath: "ocr/page_001.ocr.json"}},
	})
	runner := newRunner(root)

	runner.Run("ocr/doc.ledger.json", "grouped", "grouped/doc1.group.doc.json")
	first, err := os.ReadFile(filepath.Join(root, "grouped/doc1/page_001.group.json"))
	require.NoError(t, err)
	firstDoc, err := os.ReadFile(filepath.Join(root, "grouped/doc1.group.doc.json"))
	require.NoError(t, err)

	runner.Run("ocr/doc.ledger.json", "grouped", "grouped/doc1.group.doc.json")
	second, err := os.ReadFile(filepath.Join(root, "grouped/doc1/page_001.group.json"))
	require.NoError(t, err)
	secondDoc, err := os.ReadFile(filepath.Join(root, "grouped/doc1.group.doc.json"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstDoc, secondDoc)
}

func TestRunTraversalRejectedPerPage(t *testing.T) {
	root := t.TempDir()
	writeTokenArtifact(t, root, "ocr/page_001.ocr.json", 1)
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{
			{PageNum: 1, OCROutRelpath: "ocr/page_001.ocr.json"},
			{PageNum: 2, OCROutRelpath: "../secrets.json"},
		},
	})

	result := newRunner(root).Run("ocr/doc.ledger.json", "grouped", "")

	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeSomePagesFailed, result.Errors[0].Code)
	assert.Equal(t, []int{2}, result.Errors[0].Detail.FailedPages)

	// The clean page succeeds; the traversal page fails but still gets a
	// well-formed failure artifact.
	assert.True(t, result.Pages[0].OK)
	assert.False(t, result.Pages[1].OK)
	require.Len(t, result.Pages[1].Errors, 1)
	assert.Equal(t, CodeRelpathOutsideRepo, result.Pages[1].Errors[0].Code)

	data, err := os.ReadFile(filepath.Join(root, "grouped/doc1/page_002.group.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), CodeRelpathOutsideRepo)
}

func TestRunPageNumMismatch(t *testing.T) {
	root := t.TempDir()
	writeTokenArtifact(t, root, "ocr/page_001.ocr.json", 2)
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{{PageNum: 1, OCROutRelpath: "ocr/page_001.ocr.json"}},
	})

	result := newRunner(root).Run("ocr/doc.ledger.json", "grouped", "")

	assert.False(t, result.OK)
	require.Len(t, result.Pages, 1)
	require.Len(t, result.Pages[0].Errors, 1)
	err := result.Pages[0].Errors[0]
	assert.Equal(t, CodePageNumMismatch, err.Code)
	assert.Equal(t, 1, err.Detail.LedgerPageNum)
	assert.Equal(t, []int{2}, err.Detail.AvailablePageNums)
}

func TestRunPageNumAmbiguous(t *testing.T) {
	root := t.TempDir()
	artifact := tokenio.Artifact{
		DocID: "doc1",
		Pages: []tokenio.Page{
			{PageNum: 1, Width: 100, Height: 100, Tokens: rowTokens()},
			{PageNum: 1, Width: 100, Height: 100, Tokens: rowTokens()},
		},
	}
	require.NoError(t, canonjson.WriteFile(filepath.Join(root, "ocr/page_001.ocr.json"), artifact))
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{{PageNum: 1, OCROutRelpath: "ocr/page_001.ocr.json"}},
	})

	result := newRunner(root).Run("ocr/doc.ledger.json", "grouped", "")

	require.Len(t, result.Pages, 1)
	require.Len(t, result.Pages[0].Errors, 1)
	assert.Equal(t, CodePageNumAmbiguous, result.Pages[0].Errors[0].Code)
	assert.Equal(t, 2, result.Pages[0].Errors[0].Detail.MatchCount)
}

func TestRunSourceMissingIsolatedToPage(t *testing.T) {
	root := t.TempDir()
	writeTokenArtifact(t, root, "ocr/page_001.ocr.json", 1)
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{
			{PageNum: 1, OCROutRelpath: "ocr/page_001.ocr.json"},
			{PageNum: 2, OCROutRelpath: "ocr/page_002.ocr.json"},
		},
	})

	result := newRunner(root).Run("ocr/doc.ledger.json", "grouped", "")

	assert.False(t, result.OK)
	assert.True(t, result.Pages[0].OK)
	require.Len(t, result.Pages[1].Errors, 1)
	assert.Equal(t, CodeSourceOCRMissing, result.Pages[1].Errors[0].Code)
}

func TestRunSourceInvalidJSON(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ocr"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ocr/page_001.ocr.json"), []byte("{not json"), 0o644))
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{{PageNum: 1, OCROutRelpath: "ocr/page_001.ocr.json"}},
	})

	result := newRunner(root).Run("ocr/doc.ledger.json", "grouped", "")

	require.Len(t, result.Pages, 1)
	require.Len(t, result.Pages[0].Errors, 1)
	assert.Equal(t, CodeOCRInvalidJSON, result.Pages[0].Errors[0].Code)
}

func TestRunLedgerMissingRefusesWithoutOutput(t *testing.T) {
	root := t.TempDir()

	result := newRunner(root).Run("ocr/doc.ledger.json", "grouped", "grouped/out.json")

	assert.False(t, result.OK)
	assert.Empty(t, result.Pages)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeLedgerMissing, result.Errors[0].Code)
	_, err := os.Stat(filepath.Join(root, "grouped"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunLedgerInvalidPagesRefusesWholeDocument(t *testing.T) {
	root := t.TempDir()
	writeTokenArtifact(t, root, "ocr/page_001.ocr.json", 1)
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{
			{PageNum: 1, OCROutRelpath: "ocr/page_001.ocr.json"},
			{PageNum: 0, OCROutRelpath: "ocr/page_000.ocr.json"},
		},
	})

	result := newRunner(root).Run("ocr/doc.ledger.json", "grouped", "")

	assert.False(t, result.OK)
	assert.Empty(t, result.Pages)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeLedgerInvalidPages, result.Errors[0].Code)
	assert.Equal(t, 1, result.Errors[0].Detail.InvalidCount)
	require.NotNil(t, result.Errors[0].Detail.EntryIndex)
	assert.Equal(t, 1, *result.Errors[0].Detail.EntryIndex)

	// No page artifact was written, not even for the valid entry.
	_, err := os.Stat(filepath.Join(root, "grouped"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunLedgerDuplicatePageNumsRefused(t *testing.T) {
	root := t.TempDir()
	writeTokenArtifact(t, root, "ocr/page_001a.ocr.json", 1)
	writeTokenArtifact(t, root, "ocr/page_001b.ocr.json", 1)
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{
			{PageNum: 1, OCROutRelpath: "ocr/page_001a.ocr.json"},
			{PageNum: 1, OCROutRelpath: "ocr/page_001b.ocr.json"},
		},
	})
	runner := newRunner(root)

	result := runner.Run("ocr/doc.ledger.json", "grouped", "")

	// Two entries claiming the same page would race for one output file;
	// the whole document is refused before anything is written.
	assert.False(t, result.OK)
	assert.Empty(t, result.Pages)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeLedgerInvalidPages, result.Errors[0].Code)
	assert.Equal(t, 1, result.Errors[0].Detail.InvalidCount)
	require.NotNil(t, result.Errors[0].Detail.EntryIndex)
	assert.Equal(t, 1, *result.Errors[0].Detail.EntryIndex)
	assert.Equal(t, "page_num duplicates an earlier entry", result.Errors[0].Detail.Reason)

	_, err := os.Stat(filepath.Join(root, "grouped"))
	assert.True(t, os.IsNotExist(err))

	a, err := canonjson.Marshal(result)
	require.NoError(t, err)
	b, err := canonjson.Marshal(runner.Run("ocr/doc.ledger.json", "grouped", ""))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunPageWriteFailureKeepsSiblingRefs(t *testing.T) {
	root := t.TempDir()
	writeTokenArtifact(t, root, "ocr/page_001.ocr.json", 1)
	writeTokenArtifact(t, root, "ocr/page_002.ocr.json", 2)
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{
			{PageNum: 1, OCROutRelpath: "ocr/page_001.ocr.json"},
			{PageNum: 2, OCROutRelpath: "ocr/page_002.ocr.json"},
		},
	})
	// A regular file where the per-document output directory belongs makes
	// every page artifact write fail.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "grouped"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "grouped/doc1"), []byte("in the way"), 0o644))

	result := newRunner(root).Run("ocr/doc.ledger.json", "grouped", "")

	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeSomePagesFailed, result.Errors[0].Code)
	assert.Equal(t, []int{1, 2}, result.Errors[0].Detail.FailedPages)

	// Every computed page outcome survives the write failure.
	require.Len(t, result.Pages, 2)
	for _, ref := range result.Pages {
		assert.False(t, ref.OK)
		require.NotEmpty(t, ref.Errors)
		last := ref.Errors[len(ref.Errors)-1]
		assert.Equal(t, CodeArtifactWriteFailed, last.Code)
		assert.Equal(t, ref.GroupOutRelpath, last.Detail.Path)
	}
	assert.Equal(t, 1, result.Pages[0].PageNum)
	assert.Equal(t, 2, result.Pages[1].PageNum)
}

func TestRunLedgerBadShape(t *testing.T) {
	root := t.TempDir()
	writeLedger(t, root, "ocr/doc.ledger.json", map[string]any{"pages": []any{}})

	result := newRunner(root).Run("ocr/doc.ledger.json", "grouped", "")

	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeLedgerBadShape, result.Errors[0].Code)
}

func TestRunLedgerOutsideRootRefused(t *testing.T) {
	root := t.TempDir()

	result := newRunner(root).Run("../elsewhere/doc.ledger.json", "grouped", "")

	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeLedgerNotUnderRepo, result.Errors[0].Code)
}

func TestRunOutDirOutsideRootRefused(t *testing.T) {
	root := t.TempDir()
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{DocID: "doc1", Pages: []ledgerDocEntry{}})

	result := newRunner(root).Run("ocr/doc.ledger.json", "../grouped", "")

	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeOutDirNotUnderRepo, result.Errors[0].Code)
}

func TestRunDocLedgerDeterministicAcrossRuns(t *testing.T) {
	root := t.TempDir()
	writeTokenArtifact(t, root, "ocr/page_001.ocr.json", 1)
	writeTokenArtifact(t, root, "ocr/page_002.ocr.json", 2)
	writeTokenArtifact(t, root, "ocr/page_003.ocr.json", 3)
	writeLedger(t, root, "ocr/doc.ledger.json", ledgerDoc{
		DocID: "doc1",
		Pages: []ledgerDocEntry{
			{PageNum: 3, OCROutRelpath: "ocr/page_003.ocr.json"},
			{PageNum: 1, OCROutRelpath: "ocr/page_001.ocr.json"},
			{PageNum: 2, OCROutRelpath: "ocr/page_002.ocr.json"},
		},
	})
	runner := newRunner(root)

	a, err := canonjson.Marshal(runner.Run("ocr/doc.ledger.json", "grouped", ""))
	require.NoError(t, err)
	b, err := canonjson.Marshal(runner.Run("ocr/doc.ledger.json", "grouped", ""))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
