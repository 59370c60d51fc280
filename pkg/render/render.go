// Package render rasterizes PDF pages so they can serve as audit overlay
// backgrounds. It wraps go-fitz (MuPDF bindings); rendering is CPU-bound, so
// pages are encoded concurrently while document access itself stays
// serialized behind a mutex, which go-fitz requires.
package render

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"sort"
	"sync"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"
)

const jpegQuality = 90

// PageImage is one rasterized page, JPEG-encoded.
type PageImage struct {
	PageNum int // 1-based
	JPEG    []byte
	Width   int
	Height  int
}

// PDFPages renders every page of a PDF to JPEG. workers bounds the number of
// concurrent encoders; values below 1 mean sequential. Results come back
// sorted by page number.
func PDFPages(pdfData []byte, workers int) ([]PageImage, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	images := make([]PageImage, total)
	var mu sync.Mutex
	var g errgroup.Group
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := 0; i < total; i++ {
		g.Go(func() error {
			mu.Lock()
			img, err := doc.Image(i)
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("rendering page %d: %w", i+1, err)
			}

			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
				return fmt.Errorf("encoding page %d: %w", i+1, err)
			}

			bounds := img.Bounds()
			images[i] = PageImage{
				PageNum: i + 1,
				JPEG:    buf.Bytes(),
				Width:   bounds.Dx(),
				Height:  bounds.Dy(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(images, func(a, b int) bool { return images[a].PageNum < images[b].PageNum })
	return images, nil
}
