package compressor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Svetozar-Technologies/LocalPDF/internal/statistics"
)

// BatchParams defines a directory-wide compression run.
type BatchParams struct {
	InputDir string
	// OutputDir defaults to a "compressed" subfolder of InputDir.
	OutputDir   string
	TargetBytes int64
	// Progress receives overall progress across all files.
	Progress ProgressFunc
	// OnResult is called after each file finishes, in order.
	OnResult func(*CompressionResult)
}

// BatchResult aggregates per-file outcomes of a directory run.
type BatchResult struct {
	OutputDir string
	Results   []*CompressionResult
	Stats     *statistics.Statistics
}

// CompressBatch compresses every PDF directly inside params.InputDir toward
// the same target. Files are processed sequentially; a failing file is
// recorded and the batch moves on.
func (e *Engine) CompressBatch(ctx context.Context, params BatchParams) (*BatchResult, error) {
	if params.TargetBytes <= 0 {
		return nil, fmt.Errorf("target size must be positive, got %d", params.TargetBytes)
	}
	outDir := params.OutputDir
	if outDir == "" {
		outDir = filepath.Join(params.InputDir, "compressed")
	}

	entries, err := os.ReadDir(params.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	stats := statistics.NewStatistics()
	br := &BatchResult{OutputDir: outDir, Stats: stats}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(params.InputDir, entry.Name()))
		stats.IncrementFilesFound()
	}
	sort.Strings(files)
	if len(files) == 0 {
		stats.Finalize()
		return br, nil
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	e.log.Infof("Batch compressing %d files from %s toward %d bytes each",
		len(files), params.InputDir, params.TargetBytes)

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			stats.Finalize()
			return br, err
		}

		name := filepath.Base(path)
		fileIndex := i
		res, err := e.CompressToTarget(ctx, CompressionParams{
			InputPath:   path,
			OutputPath:  uniqueOutputPath(outDir, name),
			TargetBytes: params.TargetBytes,
			Progress: func(percent int, message string) {
				if params.Progress != nil {
					overall := (fileIndex*100 + percent) / len(files)
					params.Progress(overall, fmt.Sprintf("%s: %s", name, message))
				}
			},
		})
		br.Results = append(br.Results, res)
		if res.Status == StatusCancelled {
			stats.Finalize()
			return br, err
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			e.log.Warnf("Batch: %s failed: %v", name, err)
		}
		recordResult(stats, res)
		if params.OnResult != nil {
			params.OnResult(res)
		}
	}

	stats.Finalize()
	if params.Progress != nil {
		params.Progress(100, "Batch complete")
	}
	e.log.Infof("Batch finished: %d files processed, %d bytes saved",
		stats.GetTotalFilesProcessed(), stats.GetBytesSaved())
	return br, nil
}

func recordResult(stats *statistics.Statistics, res *CompressionResult) {
	stats.IncrementFilesProcessed()
	stats.IncrementStatus(res.Status.String())
	stats.AddImagesRecoded(int64(res.ImagesRecoded))
	stats.AddImagesSkipped(int64(res.ImagesSkipped))
	stats.AddBytesOriginal(res.OriginalSize)

	switch res.Status {
	case StatusSuccess, StatusLosslessSufficient:
		stats.IncrementFilesCompressed()
		stats.AddBytesCompressed(res.CompressedSize)
	case StatusAlreadySmall:
		stats.IncrementFilesAlreadySmall()
		stats.AddBytesCompressed(res.OriginalSize)
	case StatusTextOnly:
		stats.IncrementFilesTextOnly()
	case StatusUnreachable:
		stats.IncrementFilesUnreachable()
	case StatusFailed:
		stats.IncrementFilesFailed()
		stats.AddError(res.InputPath, "compress", res.Message)
	}
}

// uniqueOutputPath appends (1), (2), ... before the extension until the name
// is free in dir, so batch runs never overwrite earlier outputs.
func uniqueOutputPath(dir, name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s(%d)%s", base, n, ext))
	}
}
