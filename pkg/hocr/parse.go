package hocr

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/sverrir/lineforge/pkg/tokenio"
)

// ParseTokens converts raw hOCR data into a token artifact for docID.
//
// Word ids are assigned in document order as p%03d_t%06d so that repeated
// parses of the same bytes yield identical artifacts. hOCR confidences
// (x_wconf, 0..100) are rescaled to the artifact's 0..1 range; words without
// a confidence stay unset rather than defaulting to zero.
func ParseTokens(data []byte, docID string) (tokenio.Artifact, error) {
	artifact := tokenio.Artifact{DocID: docID, Pages: []tokenio.Page{}}

	decoded, err := decodeCharset(data)
	if err != nil {
		return artifact, err
	}

	doc, err := html.Parse(strings.NewReader(string(decoded)))
	if err != nil {
		return artifact, fmt.Errorf("parsing hOCR html: %w", err)
	}

	var pageNodes []*html.Node
	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.Contains(attrVal(n, "class"), "ocr_page") {
			pageNodes = append(pageNodes, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(doc)

	if len(pageNodes) == 0 {
		return artifact, fmt.Errorf("no ocr_page elements found in hOCR data")
	}

	for i, node := range pageNodes {
		artifact.Pages = append(artifact.Pages, parsePage(node, i+1))
	}
	return artifact, nil
}

// decodeCharset sniffs the charset= declaration and transcodes legacy
// Latin-1 output to UTF-8. Anything else is passed through as-is; the HTML
// parser tolerates stray bytes.
func decodeCharset(data []byte) ([]byte, error) {
	content := string(data)
	idx := strings.Index(content, "charset=")
	if idx < 0 {
		return data, nil
	}
	rest := content[idx+len("charset="):]
	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == '"' || r == ';' || r == '\'' || r == '>' || r == ' '
	})
	if len(fields) == 0 {
		return data, nil
	}
	enc := strings.ToLower(fields[0])
	if enc == "utf-8" || enc == "utf8" {
		return data, nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s hOCR: %w", enc, err)
	}
	return decoded, nil
}

// parsePage flattens one ocr_page element into a token page. fallbackNum is
// used when the page title carries no ppageno (Tesseract's ppageno is
// zero-based, so it is bumped by one when present).
func parsePage(n *html.Node, fallbackNum int) tokenio.Page {
	page := tokenio.Page{PageNum: fallbackNum, Tokens: []tokenio.Token{}}

	props := parseTitle(attrVal(n, "title"))
	if bbox, ok := bboxFromProps(props); ok {
		page.Width = bbox.X1
		page.Height = bbox.Y1
	}
	if num, ok := intProp(props, "ppageno"); ok {
		page.PageNum = num + 1
	}

	var words []*html.Node
	var findWords func(*html.Node)
	findWords = func(node *html.Node) {
		if node.Type == html.ElementNode && strings.Contains(attrVal(node, "class"), "ocrx_word") {
			words = append(words, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			findWords(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findWords(c)
	}

	for i, w := range words {
		props := parseTitle(attrVal(w, "title"))
		token := tokenio.Token{
			TokenID: fmt.Sprintf("p%03d_t%06d", page.PageNum, i),
			Text:    textContent(w),
		}
		if bbox, ok := bboxFromProps(props); ok {
			token.BBox = bbox
		}
		if conf, ok := floatProp(props, "x_wconf"); ok {
			scaled := conf / 100
			token.Confidence = &scaled
		}
		page.Tokens = append(page.Tokens, token)
	}
	return page
}
