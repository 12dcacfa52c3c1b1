package ocr

import (
	"context"
	"fmt"
	"strings"
)

// PageText is the recognized text of a single page.
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
	OCR  bool   `json:"ocr"`
}

// Result holds the per-page text of a document in page order.
type Result struct {
	Path  string     `json:"path"`
	Pages []PageText `json:"pages"`
}

// Combined joins all pages into a single string with page markers.
func (r *Result) Combined() string {
	sections := make([]string, len(r.Pages))
	for i, p := range r.Pages {
		sections[i] = fmt.Sprintf("--- Page %d ---\n%s", p.Page, strings.TrimSpace(p.Text))
	}
	return strings.Join(sections, "\n\n")
}

// OCRPages reports how many pages needed optical recognition.
func (r *Result) OCRPages() int {
	n := 0
	for _, p := range r.Pages {
		if p.OCR {
			n++
		}
	}
	return n
}

// Recognizer extracts text from a PDF, preferring the embedded text layer
// and falling back to OCR for scanned pages. Standalone raster images are
// recognized as a single page.
type Recognizer interface {
	RecognizeFile(ctx context.Context, path string, forceOCR bool) (*Result, error)
	RecognizeImage(ctx context.Context, path string) (*Result, error)
}
