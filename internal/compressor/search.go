package compressor

import (
	"context"
	"fmt"
)

// scaleStep is the fixed increment the scale search uses to move its bounds;
// scale is continuous, so a midpoint-derived step would never terminate.
const scaleStep = 0.05

// searchOutcome carries the best-so-far trial of one search. Only the best
// candidate's bytes are retained; losing trials contribute just their size.
type searchOutcome struct {
	trial      *trialResult
	quality    int
	scale      float64
	iterations int
	found      bool
}

// searchQuality binary-searches the integer quality range for the highest
// quality whose full-scale re-encode fits the target. A fit moves the search
// up (higher quality is preferable while it still fits), a miss moves it
// down. Stops on range exhaustion, on a best-so-far within tolerance, or on
// the iteration budget.
func (e *Engine) searchQuality(ctx context.Context, baseline []byte, target int64, prog *progressReporter) (*searchOutcome, error) {
	lo, hi := e.cfg.MinQuality, e.cfg.MaxQuality
	out := &searchOutcome{scale: 1.0}

	for out.iterations < e.cfg.MaxIterations && lo <= hi {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mid := (lo + hi) / 2
		prog.report(20+out.iterations*50/e.cfg.MaxIterations, fmt.Sprintf("Trying quality %d", mid))

		tr, err := e.reencodeTrial(ctx, baseline, mid, 1.0)
		if err != nil {
			return nil, err
		}
		out.iterations++
		e.log.Debugf("Quality trial %d: %d bytes (target %d)", mid, tr.size(), target)

		if tr.size() <= target {
			out.trial = tr
			out.quality = mid
			out.found = true
			if target-tr.size() <= e.cfg.ToleranceBytes {
				break
			}
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return out, nil
}

// searchScale runs only after quality search failed at minimum quality.
// Every trial re-encodes at minimum quality; the search narrows the scale
// range by fixed steps around the midpoint trial. The iteration budget is
// deliberately smaller than the quality search's.
func (e *Engine) searchScale(ctx context.Context, baseline []byte, target int64, prog *progressReporter) (*searchOutcome, error) {
	lo, hi := e.cfg.MinScale, e.cfg.MaxScale
	budget := e.cfg.MaxIterations
	if budget > 8 {
		budget = 8
	}
	out := &searchOutcome{quality: e.cfg.MinQuality}

	for out.iterations < budget && lo <= hi+1e-9 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mid := (lo + hi) / 2
		prog.report(70+out.iterations*25/budget, fmt.Sprintf("Trying scale %.0f%%", mid*100))

		tr, err := e.reencodeTrial(ctx, baseline, e.cfg.MinQuality, mid)
		if err != nil {
			return nil, err
		}
		out.iterations++
		e.log.Debugf("Scale trial %.2f: %d bytes (target %d)", mid, tr.size(), target)

		if tr.size() <= target {
			out.trial = tr
			out.scale = mid
			out.found = true
			if target-tr.size() <= e.cfg.ToleranceBytes {
				break
			}
			lo = mid + scaleStep
		} else {
			hi = mid - scaleStep
		}
	}
	return out, nil
}
