package hocr

import (
	"fmt"
	"math"

	"github.com/sverrir/lineforge/pkg/geom"
	"github.com/sverrir/lineforge/pkg/grouping"
	"github.com/sverrir/lineforge/pkg/tokenio"
)

// View structures handed to the hOCR template. They carry pre-rendered
// title attributes so the template stays purely structural.

type docView struct {
	Title  string
	System string
	Pages  []pageView
}

type pageView struct {
	ID     string
	Title  string
	Blocks []blockView
}

type blockView struct {
	ID    string
	Title string
	Lines []lineView
}

type lineView struct {
	ID    string
	Title string
	Words []wordView
}

type wordView struct {
	ID    string
	Title string
	Text  string
}

func bboxTitle(b geom.BBox) string {
	return fmt.Sprintf("bbox %d %d %d %d", b.X0, b.Y0, b.X1, b.Y1)
}

func wordTitle(t tokenio.Token) string {
	title := bboxTitle(t.BBox)
	if t.Confidence != nil {
		title += fmt.Sprintf("; x_wconf %d", int(math.Round(*t.Confidence*100)))
	}
	return title
}

// buildDocView maps a grouped page onto the hOCR hierarchy: blocks become
// ocr_carea, lines ocr_line, tokens ocrx_word. Grouping ids double as hOCR
// element ids since both are unique within a page.
func buildDocView(docID string, result grouping.PageResult, width, height int) docView {
	linesByID := make(map[string]grouping.Line, len(result.Lines))
	for _, l := range result.Lines {
		linesByID[l.LineID] = l
	}

	page := pageView{
		ID: fmt.Sprintf("page_%d", result.PageNum),
		Title: fmt.Sprintf("image \"%s\"; bbox 0 0 %d %d; ppageno %d",
			docID, width, height, result.PageNum-1),
		Blocks: []blockView{},
	}

	for _, b := range result.Blocks {
		bv := blockView{ID: b.BlockID, Title: bboxTitle(b.BBox), Lines: []lineView{}}
		for _, lineID := range b.LineIDs {
			l, ok := linesByID[lineID]
			if !ok {
				continue
			}
			lv := lineView{ID: l.LineID, Title: bboxTitle(l.BBox), Words: []wordView{}}
			for _, t := range l.Tokens {
				lv.Words = append(lv.Words, wordView{ID: t.TokenID, Title: wordTitle(t), Text: t.Text})
			}
			bv.Lines = append(bv.Lines, lv)
		}
		page.Blocks = append(page.Blocks, bv)
	}

	return docView{Title: docID, System: "lineforge", Pages: []pageView{page}}
}
