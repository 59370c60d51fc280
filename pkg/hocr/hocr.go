// Package hocr bridges the hOCR HTML format and the token artifact contract.
//
// ParseTokens flattens an hOCR document (the HTML-based OCR interchange
// format produced by Tesseract and friends) into per-page token sets: only
// the ocrx_word leaves matter for grouping, so the area/paragraph/line
// hierarchy the producer guessed is discarded. Grouping rebuilds its own.
//
// FromPageResult goes the other way: it renders a grouped page back into
// hOCR, mapping blocks to ocr_carea, lines to ocr_line, and tokens to
// ocrx_word, so downstream hOCR consumers can ingest grouping output.
package hocr
