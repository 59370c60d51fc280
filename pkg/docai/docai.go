// Package docai adapts Google Document AI OCR output to the token artifact
// contract.
//
// Document AI returns a hierarchical Document proto with its own guesses
// about blocks, paragraphs, and lines. Only the token layer survives the
// conversion: grouping derives its own structure from token geometry, so
// carrying the provider's hierarchy forward would just invite disagreement
// between the two.
//
// ProcessDocument calls the Document AI API; TokensFromProto converts a
// response (live or replayed from a protojson dump) into a token artifact.
package docai

import (
	"fmt"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/sverrir/lineforge/pkg/geom"
	"github.com/sverrir/lineforge/pkg/tokenio"
)

// TokensFromProto flattens a Document AI response into a token artifact.
//
// Token ids are assigned per page in proto order as p%03d_t%06d. Bounding
// boxes come from the layout's bounding poly: pixel vertices when present,
// otherwise normalized vertices scaled by the page dimension and rounded to
// the nearest pixel. Confidences are Document AI's 0..1 layout confidences,
// carried through unchanged.
func TokensFromProto(doc *documentaipb.Document, docID string) tokenio.Artifact {
	artifact := tokenio.Artifact{DocID: docID, Pages: []tokenio.Page{}}
	if doc == nil {
		return artifact
	}

	for i, page := range doc.Pages {
		pageNum := int(page.PageNumber)
		if pageNum < 1 {
			pageNum = i + 1
		}

		out := tokenio.Page{PageNum: pageNum, Tokens: []tokenio.Token{}}
		if dim := page.Dimension; dim != nil {
			out.Width = int(dim.Width + 0.5)
			out.Height = int(dim.Height + 0.5)
		}

		for j, token := range page.Tokens {
			t := tokenio.Token{
				TokenID: fmt.Sprintf("p%03d_t%06d", pageNum, j),
				Text:    tokenText(token, doc.Text),
			}
			if bbox, ok := pixelBBox(token.Layout, page.Dimension); ok {
				t.BBox = bbox
			}
			if token.Layout != nil {
				conf := float64(token.Layout.Confidence)
				t.Confidence = &conf
			}
			out.Tokens = append(out.Tokens, t)
		}
		artifact.Pages = append(artifact.Pages, out)
	}
	return artifact
}

// tokenText extracts a token's text from the document text via its anchor,
// trimming the trailing whitespace that Document AI folds into tokens with a
// detected break.
func tokenText(token *documentaipb.Document_Page_Token, fullText string) string {
	text := textFromLayout(token.Layout, fullText)
	if token.DetectedBreak != nil &&
		token.DetectedBreak.Type != documentaipb.Document_Page_Token_DetectedBreak_TYPE_UNSPECIFIED {
		text = strings.TrimRight(text, " \n\r\t")
	}
	return text
}

// pixelBBox converts a layout's bounding poly to integer pixel coordinates.
// Pixel vertices win over normalized ones; normalized vertices are scaled by
// the page dimension with half-up rounding.
func pixelBBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) (geom.BBox, bool) {
	if layout == nil || layout.BoundingPoly == nil {
		return geom.BBox{}, false
	}
	poly := layout.BoundingPoly

	if len(poly.Vertices) >= 4 {
		return geom.BBox{
			X0: int(poly.Vertices[0].X),
			Y0: int(poly.Vertices[0].Y),
			X1: int(poly.Vertices[2].X),
			Y1: int(poly.Vertices[2].Y),
		}, true
	}

	if len(poly.NormalizedVertices) >= 4 && dim != nil {
		return geom.BBox{
			X0: int(poly.NormalizedVertices[0].X*dim.Width + 0.5),
			Y0: int(poly.NormalizedVertices[0].Y*dim.Height + 0.5),
			X1: int(poly.NormalizedVertices[2].X*dim.Width + 0.5),
			Y1: int(poly.NormalizedVertices[2].Y*dim.Height + 0.5),
		}, true
	}

	return geom.BBox{}, false
}
