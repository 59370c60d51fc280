package docai

import (
	"path/filepath"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/sverrir/lineforge/pkg/geom"
)

func anchoredLayout(start, end int32, conf float32, verts ...*documentaipb.Vertex) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
				{StartIndex: int64(start), EndIndex: int64(end)},
			},
		},
		Confidence:   conf,
		BoundingPoly: &documentaipb.BoundingPoly{Vertices: verts},
	}
}

func rectVertices(x0, y0, x1, y1 int32) []*documentaipb.Vertex {
	return []*documentaipb.Vertex{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}
}

func sampleDocument() *documentaipb.Document {
	return &documentaipb.Document{
		Text: "Hello world\n",
		Pages: []*documentaipb.Document_Page{
			{
				PageNumber: 1,
				Dimension:  &documentaipb.Document_Page_Dimension{Width: 1000, Height: 1400},
				Tokens: []*documentaipb.Document_Page_Token{
					{
						Layout: anchoredLayout(0, 6, 0.97, rectVertices(48, 44, 120, 100)...),
						DetectedBreak: &documentaipb.Document_Page_Token_DetectedBreak{
							Type: documentaipb.Document_Page_Token_DetectedBreak_SPACE,
						},
					},
					{
						Layout: anchoredLayout(6, 12, 0.91, rectVertices(130, 44, 220, 100)...),
						DetectedBreak: &documentaipb.Document_Page_Token_DetectedBreak{
							Type: documentaipb.Document_Page_Token_DetectedBreak_WIDE_SPACE,
						},
					},
				},
			},
		},
	}
}

func TestTokensFromProto(t *testing.T) {
	artifact := TokensFromProto(sampleDocument(), "doc1")

	assert.Equal(t, "doc1", artifact.DocID)
	require.Len(t, artifact.Pages, 1)
	page := artifact.Pages[0]
	assert.Equal(t, 1, page.PageNum)
	assert.Equal(t, 1000, page.Width)
	assert.Equal(t, 1400, page.Height)

	require.Len(t, page.Tokens, 2)
	first := page.Tokens[0]
	assert.Equal(t, "p001_t000000", first.TokenID)
	// The detected break's trailing space is trimmed off.
	assert.Equal(t, "Hello", first.Text)
	assert.Equal(t, geom.BBox{X0: 48, Y0: 44, X1: 120, Y1: 100}, first.BBox)
	require.NotNil(t, first.Confidence)
	assert.InDelta(t, 0.97, *first.Confidence, 1e-6)

	second := page.Tokens[1]
	assert.Equal(t, "p001_t000001", second.TokenID)
	assert.Equal(t, "world", second.Text)
}

func TestTokensFromProtoNormalizedVertices(t *testing.T) {
	doc := &documentaipb.Document{
		Text: "hi",
		Pages: []*documentaipb.Document_Page{
			{
				PageNumber: 1,
				Dimension:  &documentaipb.Document_Page_Dimension{Width: 1000, Height: 2000},
				Tokens: []*documentaipb.Document_Page_Token{
					{
						Layout: &documentaipb.Document_Page_Layout{
							TextAnchor: &documentaipb.Document_TextAnchor{
								TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
									{StartIndex: 0, EndIndex: 2},
								},
							},
							BoundingPoly: &documentaipb.BoundingPoly{
								NormalizedVertices: []*documentaipb.NormalizedVertex{
									{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.1}, {X: 0.2, Y: 0.2}, {X: 0.1, Y: 0.2},
								},
							},
						},
					},
				},
			},
		},
	}

	artifact := TokensFromProto(doc, "doc1")

	require.Len(t, artifact.Pages, 1)
	require.Len(t, artifact.Pages[0].Tokens, 1)
	assert.Equal(t, geom.BBox{X0: 100, Y0: 200, X1: 200, Y1: 400}, artifact.Pages[0].Tokens[0].BBox)
}

func TestTokensFromProtoNilDocument(t *testing.T) {
	artifact := TokensFromProto(nil, "doc1")

	assert.Equal(t, "doc1", artifact.DocID)
	assert.Empty(t, artifact.Pages)
}

func TestDumpAndLoadProtoJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dumps", "doc1.docai.json")
	doc := sampleDocument()

	require.NoError(t, DumpProtoJSON(path, doc))

	loaded, err := LoadProtoJSON(path)
	require.NoError(t, err)
	assert.True(t, proto.Equal(doc, loaded))
}

func TestTextFromLayoutClampsIndices(t *testing.T) {
	layout := &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
				{StartIndex: 0, EndIndex: 99},
			},
		},
	}

	assert.Equal(t, "short", textFromLayout(layout, "short"))
	assert.Equal(t, "", textFromLayout(nil, "short"))
}
