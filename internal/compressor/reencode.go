package compressor

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/Svetozar-Technologies/LocalPDF/internal/document"
)

// trialResult is one (quality, scale) re-encode of the baseline.
type trialResult struct {
	data    []byte
	records []ImageRecord
	recoded int
	skipped int
}

func (t *trialResult) size() int64 {
	return int64(len(t.data))
}

// reencodeTrial re-opens the baseline, re-encodes every eligible image at
// the given quality and scale, and saves the result. Trials never chain:
// each starts from the same baseline bytes, so quality and scale apply
// independently rather than cumulatively.
func (e *Engine) reencodeTrial(ctx context.Context, baseline []byte, quality int, scale float64) (*trialResult, error) {
	doc, err := e.store.OpenBytes(baseline)
	if err != nil {
		return nil, fmt.Errorf("reopen baseline: %w", err)
	}
	inv, err := buildInventory(doc, e.cfg.MinImageBytes)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}

	tr := &trialResult{records: append([]ImageRecord(nil), inv.skips...)}
	for _, parent := range inv.parents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr.records = append(tr.records, e.reencodeImage(doc, parent, quality, scale)...)
	}
	for _, rec := range tr.records {
		if rec.Action == ImageRecoded {
			tr.recoded++
		} else {
			tr.skipped++
		}
	}

	var buf bytes.Buffer
	// Payload recompression stays off: the fresh JPEG streams must be
	// written byte for byte, not wrapped in a second compression layer.
	opts := document.SaveOptions{StructuralCompaction: true, RecompressPayloads: false}
	if err := doc.Save(&buf, opts); err != nil {
		return nil, fmt.Errorf("save trial: %w", err)
	}
	tr.data = buf.Bytes()
	return tr, nil
}

// reencodeImage processes one parent image and, when present, its soft mask.
// Any per-image failure skips the image and leaves the object untouched so
// one malformed image cannot abort the run.
func (e *Engine) reencodeImage(doc document.Document, info document.ImageInfo, quality int, scale float64) []ImageRecord {
	skip := func(format string, args ...interface{}) []ImageRecord {
		reason := fmt.Sprintf(format, args...)
		e.log.Debugf("Skipping image object %d: %s", info.ID, reason)
		return []ImageRecord{{
			ID:            int(info.ID),
			Action:        ImageSkipped,
			Reason:        reason,
			OriginalBytes: info.RawLength,
		}}
	}

	parentRep, err := e.encodeReplacement(doc, info.ID, quality, scale, false)
	if err != nil {
		return skip("%v", err)
	}

	// The soft mask is re-encoded in lockstep at the same quality and
	// scale. If it cannot be processed the parent is skipped too, so the
	// pair is either replaced together or left alone together.
	var maskInfo *document.ImageStream
	var maskRep *document.ImageReplacement
	if info.SoftMask != 0 {
		maskInfo, err = doc.ExtractImage(info.SoftMask)
		if err != nil {
			return skip("soft mask: %v", err)
		}
		maskRep, err = e.encodeReplacement(doc, info.SoftMask, quality, scale, true)
		if err != nil {
			return skip("soft mask: %v", err)
		}
	}

	if err := doc.ReplaceImageStream(info.ID, *parentRep); err != nil {
		return skip("replace stream: %v", err)
	}
	records := []ImageRecord{{
		ID:            int(info.ID),
		Action:        ImageRecoded,
		OriginalBytes: info.RawLength,
		NewBytes:      len(parentRep.Data),
	}}

	if maskRep != nil {
		if err := doc.ReplaceImageStream(info.SoftMask, *maskRep); err != nil {
			e.log.Warnf("Image object %d: soft mask %d not replaced: %v", info.ID, info.SoftMask, err)
			return records
		}
		records = append(records, ImageRecord{
			ID:            int(info.SoftMask),
			Action:        ImageRecoded,
			OriginalBytes: len(maskInfo.Data),
			NewBytes:      len(maskRep.Data),
		})
	}
	return records
}

// encodeReplacement extracts, decodes, normalizes, optionally resamples and
// re-encodes one image object, returning the replacement payload without
// applying it.
func (e *Engine) encodeReplacement(doc document.Document, id document.ObjectID, quality int, scale float64, forceGray bool) (*document.ImageReplacement, error) {
	stream, err := doc.ExtractImage(id)
	if err != nil {
		return nil, err
	}

	img, err := e.codec.Decode(stream)
	if err != nil {
		return nil, err
	}
	img, mode := e.codec.Normalize(img, stream.Inverted)

	if scale < 1.0 {
		b := img.Bounds()
		img = e.codec.Resample(img, scaledDim(b.Dx(), scale), scaledDim(b.Dy(), scale))
	}
	if forceGray && mode != document.ModeGray {
		img = e.codec.ToGray(img)
		mode = document.ModeGray
	}

	data, err := e.codec.EncodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &document.ImageReplacement{
		Data:             data,
		Width:            b.Dx(),
		Height:           b.Dy(),
		Mode:             mode,
		BitsPerComponent: 8,
	}, nil
}

// scaledDim never collapses a dimension to zero.
func scaledDim(d int, scale float64) int {
	s := int(math.Round(float64(d) * scale))
	if s < 1 {
		return 1
	}
	return s
}
