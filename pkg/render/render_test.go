package render

import (
	"bytes"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPagePDF(t *testing.T) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Text(72, 72, "first page")
	pdf.AddPage()
	pdf.Text(72, 72, "second page")

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestPDFPages(t *testing.T) {
	images, err := PDFPages(twoPagePDF(t), 2)

	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, 1, images[0].PageNum)
	assert.Equal(t, 2, images[1].PageNum)
	for _, img := range images {
		assert.NotEmpty(t, img.JPEG)
		assert.Greater(t, img.Width, 0)
		assert.Greater(t, img.Height, 0)
	}
}

func TestPDFPagesInvalidData(t *testing.T) {
	_, err := PDFPages([]byte("not a pdf"), 1)
	assert.Error(t, err)
}

func TestPDFPagesSequentialMatchesConcurrent(t *testing.T) {
	data := twoPagePDF(t)

	seq, err := PDFPages(data, 1)
	require.NoError(t, err)
	par, err := PDFPages(data, 4)
	require.NoError(t, err)

	require.Equal(t, len(seq), len(par))
	for i := range seq {
		assert.Equal(t, seq[i].PageNum, par[i].PageNum)
		assert.Equal(t, seq[i].JPEG, par[i].JPEG)
	}
}
