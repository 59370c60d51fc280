package hocr

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/sverrir/lineforge/pkg/geom"
)

// parseTitle breaks an hOCR title attribute into its properties.
// Example input: "bbox 100 200 300 400; x_wconf 95".
func parseTitle(title string) map[string][]string {
	props := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(strings.TrimSpace(part))
		if len(items) > 0 {
			props[items[0]] = items[1:]
		}
	}
	return props
}

// bboxFromProps extracts an integer bounding box from parsed title
// properties. Fractional coordinates are truncated toward zero, matching
// how raster coordinates are interpreted everywhere else.
func bboxFromProps(props map[string][]string) (geom.BBox, bool) {
	vals, ok := props["bbox"]
	if !ok || len(vals) < 4 {
		return geom.BBox{}, false
	}
	coords := make([]int, 4)
	for i, v := range vals[:4] {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return geom.BBox{}, false
		}
		coords[i] = int(f)
	}
	return geom.BBox{X0: coords[0], Y0: coords[1], X1: coords[2], Y1: coords[3]}, true
}

func intProp(props map[string][]string, key string) (int, bool) {
	vals, ok := props[key]
	if !ok || len(vals) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

func floatProp(props map[string][]string, key string) (float64, bool) {
	vals, ok := props[key]
	if !ok || len(vals) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(vals[0], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// attrVal returns the value of the named attribute, or "".
func attrVal(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// textContent gathers all text under a node, whitespace-trimmed.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text += textContent(c)
	}
	return strings.TrimSpace(text)
}
