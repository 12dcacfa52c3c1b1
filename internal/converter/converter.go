package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/sirupsen/logrus"

	"github.com/Svetozar-Technologies/LocalPDF/internal/config"
	"github.com/Svetozar-Technologies/LocalPDF/internal/pdfops"
)

// Converter renders PDF pages to image files and builds PDFs from images.
type Converter struct {
	cfg config.RenderConfig
	log *logrus.Logger
}

func NewConverter(cfg config.RenderConfig, log *logrus.Logger) *Converter {
	if log == nil {
		log = logrus.New()
	}
	return &Converter{cfg: cfg, log: log}
}

// ToImages renders the selected pages of a PDF into outDir, one image
// file per page. An empty page expression renders the whole document.
// It returns the paths of the written files in page order.
func (c *Converter) ToImages(ctx context.Context, input, outDir, pages string) ([]string, error) {
	if err := checkInputPDF(input); err != nil {
		return nil, err
	}

	doc, err := fitz.New(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("PDF has no pages: %s", input)
	}

	var list []int
	if strings.TrimSpace(pages) == "" {
		list = make([]int, total)
		for i := range list {
			list[i] = i + 1
		}
	} else {
		list, err = pdfops.ParseRanges(pages, total)
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	c.log.Infof("Rendering %d pages of %s at %d DPI", len(list), input, c.cfg.DPI)

	written := make([]string, 0, len(list))
	for _, page := range list {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		img, err := doc.ImageDPI(page-1, float64(c.cfg.DPI))
		if err != nil {
			return written, fmt.Errorf("failed to render page %d: %w", page, err)
		}

		path := filepath.Join(outDir, pageFileName(base, page, c.cfg.Format))
		if err := imaging.Save(img, path, imaging.JPEGQuality(c.cfg.JPEGQuality)); err != nil {
			return written, fmt.Errorf("failed to save page %d: %w", page, err)
		}

		c.log.Debugf("Wrote %s", path)
		written = append(written, path)
	}

	c.log.Infof("Rendered %d pages into %s", len(written), outDir)
	return written, nil
}

// pageFileName builds the per-page output name, zero-padding the page
// number so directory listings sort in page order.
func pageFileName(base string, page int, format string) string {
	ext := strings.ToLower(format)
	if ext == "jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s_page_%03d.%s", base, page, ext)
}

func checkInputPDF(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("not a PDF file: %s", path)
	}
	return nil
}
