package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"

	"github.com/Svetozar-Technologies/LocalPDF/internal/config"
)

// Pages whose embedded text layer is shorter than this are treated as
// scanned and run through OCR.
const embeddedTextMinRunes = 16

type engine struct {
	cfg config.OCRConfig
	log *logrus.Logger
}

// New returns a Recognizer backed by the document text layer and
// Tesseract.
func New(cfg config.OCRConfig, log *logrus.Logger) Recognizer {
	if log == nil {
		log = logrus.New()
	}
	return &engine{cfg: cfg, log: log}
}

func (e *engine) RecognizeFile(ctx context.Context, path string, forceOCR bool) (*Result, error) {
	if err := checkPDF(path); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("PDF has no pages: %s", path)
	}

	// The Tesseract client is expensive, so it is created on the first
	// page that actually needs it.
	var client *gosseract.Client
	defer func() {
		if client != nil {
			client.Close()
		}
	}()

	e.log.Infof("Extracting text from %s (%d pages)", path, total)

	res := &Result{Path: path, Pages: make([]PageText, 0, total)}
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page := i + 1

		if !forceOCR {
			if text, err := doc.Text(i); err == nil && len([]rune(strings.TrimSpace(text))) >= embeddedTextMinRunes {
				res.Pages = append(res.Pages, PageText{Page: page, Text: text})
				continue
			}
		}

		if client == nil {
			client, err = e.newClient()
			if err != nil {
				return res, err
			}
		}

		text, err := e.recognizePage(doc, client, i)
		if err != nil {
			return res, fmt.Errorf("OCR failed on page %d: %w", page, err)
		}
		e.log.Debugf("OCR on page %d yielded %d characters", page, len(text))
		res.Pages = append(res.Pages, PageText{Page: page, Text: text, OCR: true})
	}

	e.log.Infof("Extracted text from %d pages (%d via OCR)", len(res.Pages), res.OCRPages())
	return res, nil
}

// RecognizeImage runs OCR over a standalone raster image.
func (e *engine) RecognizeImage(ctx context.Context, path string) (*Result, error) {
	if err := checkImage(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := e.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	e.log.Infof("Running OCR on %s", path)
	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed on %s: %w", path, err)
	}
	return &Result{Path: path, Pages: []PageText{{Page: 1, Text: text, OCR: true}}}, nil
}

func (e *engine) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	langs := strings.Split(e.cfg.Language, "+")
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language %q: %w", e.cfg.Language, err)
	}
	// Rendered bitmaps carry no DPI metadata, so Tesseract must be told.
	if err := client.SetVariable("user_defined_dpi", strconv.Itoa(e.cfg.DPI)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR dpi: %w", err)
	}
	return client, nil
}

func (e *engine) recognizePage(doc *fitz.Document, client *gosseract.Client, index int) (string, error) {
	img, err := doc.ImageDPI(index, float64(e.cfg.DPI))
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode page bitmap: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to load page bitmap: %w", err)
	}
	return client.Text()
}

func checkPDF(path string) error {
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

func checkImage(path string) error {
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
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp":
		return nil
	}
	return fmt.Errorf("unsupported image format: %s", path)
}
