package render

import (
	"math"
	"time"
)

const (
	// perfSampleMillis is the minimum wall time spent per measurement.
	perfSampleMillis = 50

	// minEffectWidth is the lowest offscreen width worth rendering at.
	minEffectWidth = 320
)

// MeasureFrameTime loads the given spec at size x size and renders it in
// a tight loop for at least perfSampleMillis, returning the average
// per-frame milliseconds. The preset epoch is unloaded afterwards; the
// caller is expected to run a real Load next. This is expensive and
// meant to run at most once per preset load.
func (p *Pipeline) MeasureFrameTime(spec LoadSpec, size int) (float64, error) {
	probeSpec := spec
	probeSpec.FBWidth = size
	probeSpec.FBHeight = size
	probeSpec.Mask = TimeMask{}
	if err := p.Load(probeSpec); err != nil {
		return 0, err
	}
	defer p.UnloadPreset()

	iterations := -1
	var start, end time.Time
	for {
		p.RenderFrame(Frame{})
		p.dev.Finish()
		iterations++
		if iterations == 0 {
			// The first pass warms caches; timing starts after it.
			start = p.now()
			continue
		}
		end = p.now()
		if end.Sub(start) >= perfSampleMillis*time.Millisecond {
			break
		}
	}
	return float64(end.Sub(start).Milliseconds()) / float64(iterations), nil
}

// AdaptiveResolution fits frame_time = A + B*pixels through two timed
// samples and solves for the offscreen size that meets targetFPS,
// preserving the display aspect with a floor of minEffectWidth and a cap
// at the display size. Returning the display size means "no downscaling".
func AdaptiveResolution(t1, t2 float64, size1, size2, displayW, displayH int, targetFPS float64) (int, int) {
	if displayW <= 0 || displayH <= 0 {
		return displayW, displayH
	}
	b := (t2 - t1) / float64(size2*size2-size1*size1)
	if b <= 0 || targetFPS <= 0 {
		return displayW, displayH
	}
	a := t2 - float64(size2*size2)*b
	pixels := (1000.0/targetFPS - a) / b
	if pixels <= 0 {
		pixels = float64(minEffectWidth * minEffectWidth)
	}

	w := int(math.Sqrt(pixels * float64(displayW) / float64(displayH)))
	if w >= displayW {
		return displayW, displayH
	}
	if w < minEffectWidth {
		w = minEffectWidth
		if w > displayW {
			return displayW, displayH
		}
	}
	h := w * displayH / displayW
	if h <= 0 {
		h = 1
	}
	return w, h
}
