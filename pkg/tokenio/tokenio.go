// Package tokenio defines the token artifact contract: the JSON shape the
// upstream OCR stage produces and the grouping stage consumes.
//
// A token artifact carries one or more pages, each with a flat list of
// recognized tokens (text + absolute pixel bbox + optional confidence).
// Reading is strict: structural problems surface as typed errors at this
// boundary instead of leaking loosely-shaped data into the core.
package tokenio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sverrir/lineforge/pkg/canonjson"
	"github.com/sverrir/lineforge/pkg/geom"
)

// Token is one OCR-recognized unit. TokenID is opaque and caller-supplied;
// the grouping engine uses it only as a deterministic tie-break key.
// Confidence, when present, is in [0, 1] and is only ever compared against
// a threshold.
type Token struct {
	TokenID    string    `json:"token_id"`
	Text       string    `json:"text"`
	BBox       geom.BBox `json:"bbox"`
	Confidence *float64  `json:"confidence"`
}

// Page is one page's token set.
type Page struct {
	PageNum int     `json:"page_num"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	Tokens  []Token `json:"tokens"`
}

// Artifact is the top-level token artifact.
type Artifact struct {
	DocID string `json:"doc_id,omitempty"`
	Pages []Page `json:"pages"`
}

// Structural errors reported by Decode. Callers translate these into their
// own stable error codes.
var (
	ErrInvalidJSON  = errors.New("tokenio: invalid JSON")
	ErrMissingPages = errors.New("tokenio: artifact missing pages[]")
	ErrBadTokenRow  = errors.New("tokenio: token row missing required fields (token_id, text, bbox)")
)

// Raw decode targets use pointers so that a missing field is distinguishable
// from a zero value.
type rawBBox struct {
	X0 *int `json:"x0"`
	Y0 *int `json:"y0"`
	X1 *int `json:"x1"`
	Y1 *int `json:"y1"`
}

type rawToken struct {
	TokenID    *string  `json:"token_id"`
	Text       *string  `json:"text"`
	BBox       *rawBBox `json:"bbox"`
	Confidence *float64 `json:"confidence"`
}

type rawPage struct {
	PageNum *int       `json:"page_num"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Tokens  []rawToken `json:"tokens"`
}

type rawArtifact struct {
	DocID string          `json:"doc_id"`
	Pages json.RawMessage `json:"pages"`
}

// Decode parses and validates a token artifact.
func Decode(data []byte) (Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if len(raw.Pages) == 0 {
		return Artifact{}, ErrMissingPages
	}
	var rawPages []rawPage
	if err := json.Unmarshal(raw.Pages, &rawPages); err != nil {
		return Artifact{}, ErrMissingPages
	}

	out := Artifact{DocID: raw.DocID, Pages: make([]Page, 0, len(rawPages))}
	for _, rp := range rawPages {
		if rp.PageNum == nil {
			return Artifact{}, ErrMissingPages
		}
		page := Page{PageNum: *rp.PageNum, Width: rp.Width, Height: rp.Height}
		if rp.Tokens == nil {
			return Artifact{}, fmt.Errorf("%w: page %d has no tokens[]", ErrBadTokenRow, *rp.PageNum)
		}
		page.Tokens = make([]Token, 0, len(rp.Tokens))
		for _, rt := range rp.Tokens {
			if rt.TokenID == nil || rt.Text == nil || rt.BBox == nil ||
				rt.BBox.X0 == nil || rt.BBox.Y0 == nil || rt.BBox.X1 == nil || rt.BBox.Y1 == nil {
				return Artifact{}, ErrBadTokenRow
			}
			page.Tokens = append(page.Tokens, Token{
				TokenID:    *rt.TokenID,
				Text:       *rt.Text,
				BBox:       geom.BBox{X0: *rt.BBox.X0, Y0: *rt.BBox.Y0, X1: *rt.BBox.X1, Y1: *rt.BBox.Y1},
				Confidence: rt.Confidence,
			})
		}
		out.Pages = append(out.Pages, page)
	}
	return out, nil
}

// ReadFile loads and decodes a token artifact from disk.
func ReadFile(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, err
	}
	return Decode(data)
}

// WriteFile stores the artifact as canonical JSON.
func WriteFile(path string, a Artifact) error {
	return canonjson.WriteFile(path, a)
}

// FindPage returns the pages in a whose page number equals pageNum.
// The grouping stage requires exactly one match; zero or several matches
// are contract violations the caller reports.
func FindPage(a Artifact, pageNum int) []Page {
	var matches []Page
	for _, p := range a.Pages {
		if p.PageNum == pageNum {
			matches = append(matches, p)
		}
	}
	return matches
}

// PageNums lists the page numbers present in a, in artifact order.
func PageNums(a Artifact) []int {
	nums := make([]int, 0, len(a.Pages))
	for _, p := range a.Pages {
		nums = append(nums, p.PageNum)
	}
	return nums
}
