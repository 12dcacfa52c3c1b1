package compressor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Svetozar-Technologies/LocalPDF/internal/config"
	"github.com/Svetozar-Technologies/LocalPDF/internal/document"
	"github.com/Svetozar-Technologies/LocalPDF/internal/imagecodec"
	"github.com/Svetozar-Technologies/LocalPDF/internal/logger"
)

// Engine drives the target-size state machine: validate, lossless optimize,
// inventory, quality search, scale search, minimum-achievable report. It is
// synchronous and single-threaded; each run owns its baseline and buffers.
type Engine struct {
	store document.Store
	codec imagecodec.Codec
	cfg   config.CompressionConfig
	log   *logrus.Logger
}

// NewEngine creates an Engine. cfg is expected to be validated.
func NewEngine(store document.Store, codec imagecodec.Codec, cfg config.CompressionConfig, log *logrus.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{store: store, codec: codec, cfg: cfg, log: log}
}

// progressReporter clamps reported percentages so the caller always sees a
// non-decreasing sequence, whatever order the phases fire in.
type progressReporter struct {
	fn   ProgressFunc
	last int
}

func (p *progressReporter) report(percent int, message string) {
	if percent < p.last {
		percent = p.last
	}
	p.last = percent
	if p.fn != nil {
		p.fn(percent, message)
	}
}

// CompressToTarget implements Compressor.
func (e *Engine) CompressToTarget(ctx context.Context, params CompressionParams) (*CompressionResult, error) {
	res := &CompressionResult{
		Status:      StatusFailed,
		InputPath:   params.InputPath,
		TargetBytes: params.TargetBytes,
		Scale:       1.0,
		StartedAt:   time.Now(),
	}
	prog := &progressReporter{fn: params.Progress}

	fail := func(err error) (*CompressionResult, error) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.Status = StatusCancelled
			res.Message = "compression cancelled"
		} else {
			res.Status = StatusFailed
			res.Message = err.Error()
			e.log.Errorf("Compression of %s failed: %v", params.InputPath, err)
		}
		res.FinishedAt = time.Now()
		return res, err
	}

	if params.TargetBytes <= 0 {
		return fail(fmt.Errorf("target size must be positive, got %d", params.TargetBytes))
	}
	if params.OutputPath == "" {
		return fail(errors.New("output path is required"))
	}

	prog.report(0, "Validating input")
	info, err := os.Stat(params.InputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fail(fmt.Errorf("%w: %s", document.ErrNotFound, params.InputPath))
		}
		return fail(err)
	}
	res.OriginalSize = info.Size()

	doc, err := e.store.Open(params.InputPath)
	if err != nil {
		return fail(err)
	}
	res.PageCount = doc.PageCount()
	prog.report(5, "Input validated")
	e.log.Infof("Compressing %s (%d pages, %d bytes) toward %d bytes",
		params.InputPath, res.PageCount, res.OriginalSize, params.TargetBytes)

	if res.OriginalSize <= params.TargetBytes {
		res.Status = StatusAlreadySmall
		res.CompressedSize = res.OriginalSize
		res.Message = "file already within target size"
		return e.done(res, prog, "Already small enough")
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	prog.report(8, "Optimizing document structure")
	doc.StripMetadata()
	var buf bytes.Buffer
	if err := doc.Save(&buf, document.SaveOptions{StructuralCompaction: true, RecompressPayloads: true}); err != nil {
		return fail(fmt.Errorf("lossless optimization: %w", err))
	}
	baseline := buf.Bytes()
	res.LosslessSize = int64(len(baseline))
	prog.report(15, "Document structure optimized")
	e.log.Debugf("Lossless baseline: %d bytes", res.LosslessSize)

	if res.LosslessSize <= params.TargetBytes {
		if err := writeAtomic(params.OutputPath, baseline); err != nil {
			return fail(err)
		}
		res.Status = StatusLosslessSufficient
		res.OutputPath = params.OutputPath
		res.CompressedSize = res.LosslessSize
		res.PercentageSaved = saved(res.OriginalSize, res.CompressedSize)
		res.Message = "structural optimization met the target"
		return e.done(res, prog, "Done")
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	prog.report(18, "Scanning embedded images")
	bdoc, err := e.store.OpenBytes(baseline)
	if err != nil {
		return fail(fmt.Errorf("reopen baseline: %w", err))
	}
	inv, err := buildInventory(bdoc, e.cfg.MinImageBytes)
	if err != nil {
		return fail(err)
	}
	res.ImagesTotal = inv.total
	prog.report(20, fmt.Sprintf("Found %d recompressible images", len(inv.parents)))

	if len(inv.parents) == 0 {
		res.Status = StatusTextOnly
		res.CompressedSize = res.LosslessSize
		res.Images = inv.skips
		res.ImagesSkipped = len(inv.skips)
		res.Message = fmt.Sprintf("no recompressible images; text and vector content set the floor at %d bytes", res.LosslessSize)
		return e.done(res, prog, "No images to compress")
	}

	qOut, err := e.searchQuality(ctx, baseline, params.TargetBytes, prog)
	if err != nil {
		return fail(err)
	}
	res.Iterations += qOut.iterations
	if qOut.found {
		return e.finish(res, params, qOut, prog)
	}
	e.log.Infof("Quality search exhausted after %d trials, reducing resolution", qOut.iterations)

	sOut, err := e.searchScale(ctx, baseline, params.TargetBytes, prog)
	if err != nil {
		return fail(err)
	}
	res.Iterations += sOut.iterations
	if sOut.found {
		return e.finish(res, params, sOut, prog)
	}

	// Target unreachable. One more re-encode at the most aggressive
	// settings tells the caller exactly how low this document can go.
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	prog.report(95, "Computing minimum achievable size")
	tr, err := e.reencodeTrial(ctx, baseline, e.cfg.MinQuality, e.cfg.MinScale)
	if err != nil {
		return fail(err)
	}
	res.Iterations++
	minSize := tr.size()
	if res.LosslessSize < minSize {
		minSize = res.LosslessSize
	}
	res.Status = StatusUnreachable
	res.MinimumBytes = minSize
	res.Quality = e.cfg.MinQuality
	res.Scale = e.cfg.MinScale
	res.Images = tr.records
	res.ImagesRecoded = tr.recoded
	res.ImagesSkipped = tr.skipped
	res.Message = fmt.Sprintf("target of %d bytes not reachable; minimum achievable is %d bytes",
		params.TargetBytes, minSize)
	return e.done(res, prog, "Target not reachable")
}

// finish writes the winning trial and fills the success fields.
func (e *Engine) finish(res *CompressionResult, params CompressionParams, out *searchOutcome, prog *progressReporter) (*CompressionResult, error) {
	prog.report(95, "Writing output")
	if err := writeAtomic(params.OutputPath, out.trial.data); err != nil {
		res.Status = StatusFailed
		res.Message = err.Error()
		res.FinishedAt = time.Now()
		return res, err
	}
	res.Status = StatusSuccess
	res.OutputPath = params.OutputPath
	res.CompressedSize = out.trial.size()
	res.PercentageSaved = saved(res.OriginalSize, res.CompressedSize)
	res.Quality = out.quality
	res.Scale = out.scale
	res.Images = out.trial.records
	res.ImagesRecoded = out.trial.recoded
	res.ImagesSkipped = out.trial.skipped
	if out.scale < 1.0 {
		res.Message = fmt.Sprintf("compressed at quality %d, scale %.2f", out.quality, out.scale)
	} else {
		res.Message = fmt.Sprintf("compressed at quality %d", out.quality)
	}
	return e.done(res, prog, "Done")
}

func (e *Engine) done(res *CompressionResult, prog *progressReporter, message string) (*CompressionResult, error) {
	res.FinishedAt = time.Now()
	prog.report(100, message)
	e.log.Infof("Compression of %s finished: %s (%s)", res.InputPath, res.Status, res.Message)
	return res, nil
}

func saved(original, compressed int64) float64 {
	if original <= 0 {
		return 0
	}
	return float64(original-compressed) * 100 / float64(original)
}

// writeAtomic writes data through a temp file and rename so a partially
// written output is never observable at the destination path.
func writeAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write tmp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
