package converter

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svetozar-Technologies/LocalPDF/internal/config"
)

func testConverter() *Converter {
	return NewConverter(config.RenderConfig{DPI: 150, Format: "png", JPEGQuality: 90}, nil)
}

func TestPageFileName(t *testing.T) {
	assert.Equal(t, "scan_page_001.png", pageFileName("scan", 1, "png"))
	assert.Equal(t, "scan_page_042.jpg", pageFileName("scan", 42, "jpeg"))
	assert.Equal(t, "scan_page_007.jpg", pageFileName("scan", 7, "jpg"))
	assert.Equal(t, "report_page_123.png", pageFileName("report", 123, "PNG"))
}

func TestToImagesRejectsBadInput(t *testing.T) {
	c := testConverter()
	dir := t.TempDir()

	_, err := c.ToImages(context.Background(), filepath.Join(dir, "missing.pdf"), dir, "")
	assert.ErrorContains(t, err, "file not found")

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0644))
	_, err = c.ToImages(context.Background(), txt, dir, "")
	assert.ErrorContains(t, err, "not a PDF file")
}

func TestFromImagesValidatesInputs(t *testing.T) {
	c := testConverter()
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pdf")

	err := c.FromImages(context.Background(), nil, out)
	assert.ErrorContains(t, err, "no input images")

	err = c.FromImages(context.Background(), []string{filepath.Join(dir, "missing.jpg")}, out)
	assert.ErrorContains(t, err, "file not found")

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0644))
	err = c.FromImages(context.Background(), []string{txt}, out)
	assert.ErrorContains(t, err, "unsupported image type")
}

func TestOrientationOfDefaultsToUpright(t *testing.T) {
	dir := t.TempDir()

	// PNGs carry no EXIF block, so the default applies.
	png := filepath.Join(dir, "flat.png")
	require.NoError(t, imaging.Save(imaging.New(4, 4, color.White), png))
	assert.Equal(t, 1, orientationOf(png))

	assert.Equal(t, 1, orientationOf(filepath.Join(dir, "missing.jpg")))
}

func TestUprightCopiesPassesUntaggedFilesThrough(t *testing.T) {
	c := testConverter()
	dir := t.TempDir()

	jpg := filepath.Join(dir, "plain.jpg")
	require.NoError(t, imaging.Save(imaging.New(4, 4, color.White), jpg, imaging.JPEGQuality(90)))

	files, cleanup, err := c.uprightCopies(context.Background(), []string{jpg})
	if cleanup != nil {
		defer cleanup()
	}
	require.NoError(t, err)
	assert.Equal(t, []string{jpg}, files)
}
