package overlay

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sverrir/lineforge/pkg/geom"
	"github.com/sverrir/lineforge/pkg/grouping"
	"github.com/sverrir/lineforge/pkg/tokenio"
)

func groupedPage(t *testing.T) grouping.PageResult {
	t.Helper()
	tokens := []tokenio.Token{
		{TokenID: "t1", Text: "alpha", BBox: geom.BBox{X0: 10, Y0: 10, X1: 20, Y1: 30}},
		{TokenID: "t2", Text: "beta", BBox: geom.BBox{X0: 30, Y0: 10, X1: 40, Y1: 30}},
	}
	result := grouping.GroupPage(1, "src.json", tokens, grouping.DefaultConfig())
	require.True(t, result.OK)
	return result
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestBuildWithoutImage(t *testing.T) {
	out, err := Build([]Page{{Result: groupedPage(t), Width: 200, Height: 200}}, DefaultConfig())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestBuildWithImage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DrawTokens = true

	out, err := Build([]Page{{
		Image:  testPNG(t, 200, 200),
		Result: groupedPage(t),
		Width:  200,
		Height: 200,
	}}, cfg)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestBuildNoPages(t *testing.T) {
	_, err := Build(nil, DefaultConfig())
	assert.Error(t, err)
}

func TestBuildBadDimensions(t *testing.T) {
	_, err := Build([]Page{{Result: groupedPage(t)}}, DefaultConfig())
	assert.Error(t, err)
}
