package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rwcarlsen/goexif/exif"
)

// Images are centered on A4 pages and scaled to fit inside an 18pt margin.
const importSpec = "form:A4, pos:c, scale:0.94 rel"

var importExts = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff", ".webp"}

// FromImages builds a PDF with one page per input image, in the given
// order. Camera JPEGs with an EXIF orientation are rotated upright first.
func (c *Converter) FromImages(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no input images given")
	}
	for _, in := range inputs {
		if err := checkInputImage(in); err != nil {
			return err
		}
	}
	if dir := filepath.Dir(output); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	files, cleanup, err := c.uprightCopies(ctx, inputs)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return err
	}

	imp, err := api.Import(importSpec, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to build import settings: %w", err)
	}

	c.log.Infof("Building %s from %d images", output, len(files))
	if err := api.ImportImagesFile(files, output, imp, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("failed to import images: %w", err)
	}
	return nil
}

// uprightCopies replaces EXIF-rotated inputs with upright temp copies so
// the imported pages match what a viewer shows. Untagged files pass
// through untouched.
func (c *Converter) uprightCopies(ctx context.Context, inputs []string) ([]string, func(), error) {
	files := slices.Clone(inputs)

	var tmpDir string
	cleanup := func() {
		if tmpDir != "" {
			os.RemoveAll(tmpDir)
		}
	}

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return files, cleanup, err
		}
		if orientationOf(in) <= 1 {
			continue
		}

		if tmpDir == "" {
			var err error
			tmpDir, err = os.MkdirTemp("", "localpdf-import-")
			if err != nil {
				return files, cleanup, fmt.Errorf("failed to create temp directory: %w", err)
			}
		}

		img, err := imaging.Open(in, imaging.AutoOrientation(true))
		if err != nil {
			return files, cleanup, fmt.Errorf("failed to open image %s: %w", in, err)
		}

		upright := filepath.Join(tmpDir, fmt.Sprintf("%03d_%s", i, filepath.Base(in)))
		if err := imaging.Save(img, upright, imaging.JPEGQuality(c.cfg.JPEGQuality)); err != nil {
			return files, cleanup, fmt.Errorf("failed to save upright copy of %s: %w", in, err)
		}

		c.log.Debugf("Normalized orientation of %s", in)
		files[i] = upright
	}
	return files, cleanup, nil
}

// orientationOf reads the EXIF orientation tag, defaulting to 1 (upright)
// for files without usable EXIF data.
func orientationOf(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 1
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

func checkInputImage(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("not a file: %s", path)
	}
	if !slices.Contains(importExts, strings.ToLower(filepath.Ext(path))) {
		return fmt.Errorf("unsupported image type: %s", path)
	}
	return nil
}
