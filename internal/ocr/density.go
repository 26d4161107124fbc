package ocr

import "strings"

// A scanned PDF yields little or no text layer. Below these thresholds
// the page images get OCRed instead.
const (
	minTextLength  = 100
	minTextPerPage = 50
)

// NeedsOCR reports whether a PDF's text layer is too thin to parse.
func NeedsOCR(text string, pages int) bool {
	length := len(strings.TrimSpace(text))
	if length < minTextLength {
		return true
	}
	if pages < 1 {
		pages = 1
	}
	return length/pages < minTextPerPage
}
