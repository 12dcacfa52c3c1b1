package pdfinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Svetozar-Technologies/LocalPDF/internal/document"
)

// Report summarizes one PDF file for the info command and the web API.
type Report struct {
	Path          string `json:"path"`
	FileSize      int64  `json:"file_size"`
	FileSizeHuman string `json:"file_size_human"`
	PageCount     int    `json:"page_count"`
	ImageCount    int    `json:"image_count"`
	ImageBytes    int64  `json:"image_bytes"`
	Encrypted     bool   `json:"encrypted"`
	Version       string `json:"version,omitempty"`
	Title         string `json:"title,omitempty"`
	Author        string `json:"author,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Creator       string `json:"creator,omitempty"`
	Producer      string `json:"producer,omitempty"`
}

// Inspect opens path and assembles its report. Encrypted files yield a
// report with Encrypted set instead of an error, since that is an answer the
// caller asked for, not a failure.
func Inspect(store document.Store, path string) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", document.ErrNotFound, path)
		}
		return nil, err
	}

	rep := &Report{
		Path:          path,
		FileSize:      info.Size(),
		FileSizeHuman: FormatFileSize(info.Size()),
	}

	doc, err := store.Open(path)
	if err != nil {
		if errors.Is(err, document.ErrEncrypted) {
			rep.Encrypted = true
			return rep, nil
		}
		return nil, err
	}

	rep.PageCount = doc.PageCount()
	images, err := doc.Images()
	if err == nil {
		rep.ImageCount = len(images)
		for _, img := range images {
			rep.ImageBytes += int64(img.RawLength)
		}
	}
	if s, ok := doc.(document.Summarizer); ok {
		sum := s.Summary()
		rep.Version = sum.Version
		rep.Title = sum.Title
		rep.Author = sum.Author
		rep.Subject = sum.Subject
		rep.Creator = sum.Creator
		rep.Producer = sum.Producer
	}
	return rep, nil
}

// FormatFileSize returns a human-readable size like "2.35 MB".
func FormatFileSize(bytes int64) string {
	size := float64(bytes)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			if unit == "B" {
				return fmt.Sprintf("%d %s", bytes, unit)
			}
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f TB", size)
}

// CompressedOutputPath derives an output name next to the input by appending
// suffix before the extension, adding a counter while the name is taken.
func CompressedOutputPath(inputPath, suffix string) string {
	dir := filepath.Dir(inputPath)
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)
	if ext == "" {
		ext = ".pdf"
	}

	candidate := filepath.Join(dir, base+suffix+ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s%s_%d%s", base, suffix, n, ext))
	}
}
