package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svetozar-Technologies/LocalPDF/internal/config"
)

func TestResultCombined(t *testing.T) {
	res := &Result{
		Pages: []PageText{
			{Page: 1, Text: "Hello world.\n"},
			{Page: 2, Text: "  Second page  ", OCR: true},
		},
	}

	want := "--- Page 1 ---\nHello world.\n\n--- Page 2 ---\nSecond page"
	assert.Equal(t, want, res.Combined())
}

func TestResultCombinedEmpty(t *testing.T) {
	res := &Result{}
	assert.Equal(t, "", res.Combined())
}

func TestResultOCRPages(t *testing.T) {
	res := &Result{
		Pages: []PageText{
			{Page: 1},
			{Page: 2, OCR: true},
			{Page: 3, OCR: true},
		},
	}
	assert.Equal(t, 2, res.OCRPages())
}

func TestRecognizeFileRejectsBadInput(t *testing.T) {
	e := New(config.OCRConfig{Language: "eng", DPI: 300}, nil)

	_, err := e.RecognizeFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), false)
	assert.ErrorContains(t, err, "file not found")
}

func TestRecognizeImageRejectsBadInput(t *testing.T) {
	e := New(config.OCRConfig{Language: "eng", DPI: 300}, nil)

	_, err := e.RecognizeImage(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "file not found")

	doc := filepath.Join(t.TempDir(), "scan.docx")
	require.NoError(t, os.WriteFile(doc, []byte("x"), 0o644))
	_, err = e.RecognizeImage(context.Background(), doc)
	assert.ErrorContains(t, err, "unsupported image format")
}
