package render

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/meonBot/visualization.matrix/internal/glx"
)

func TestMeasureFrameTimeAverages(t *testing.T) {
	dev := glx.NewFake()
	// A clock that advances 10ms per observation: every timed iteration
	// costs 10ms, so the loop runs until 50ms have accumulated.
	clock := time.Unix(0, 0)
	p := NewPipeline(PipelineConfig{
		Device: dev,
		Log:    log.New(&bytes.Buffer{}, "", 0),
		Now: func() time.Time {
			clock = clock.Add(10 * time.Millisecond)
			return clock
		},
	})
	if err := p.Start(1920, 1080, 44100); err != nil {
		t.Fatal(err)
	}

	avg, err := p.MeasureFrameTime(directSpec(), 256)
	if err != nil {
		t.Fatalf("MeasureFrameTime: %v", err)
	}
	if avg <= 0 {
		t.Fatalf("avg=%f want positive", avg)
	}
	if p.Ready() {
		t.Fatal("probe must unload its temporary epoch")
	}
	if dev.FinishCount == 0 {
		t.Fatal("probe must synchronize each iteration")
	}
}

func TestAdaptiveResolutionSolvesForTarget(t *testing.T) {
	// 256^2 px -> 10ms, 512^2 px -> 25ms: B = 15/196608, A ≈ 5ms.
	w, h := AdaptiveResolution(10, 25, 256, 512, 1920, 1080, 40)

	if w >= 1920 {
		t.Fatalf("expected downscaling, got %dx%d", w, h)
	}
	if w < minEffectWidth {
		t.Fatalf("width=%d below floor %d", w, minEffectWidth)
	}
	// Aspect preserved.
	wantH := w * 1080 / 1920
	if h != wantH {
		t.Fatalf("height=%d want=%d", h, wantH)
	}
	// The fitted pixel count must roughly meet the 25ms budget:
	// A + B*pixels <= budget, with integer truncation slack.
	b := 15.0 / (512.0*512.0 - 256.0*256.0)
	a := 25.0 - 512.0*512.0*b
	if predicted := a + b*float64(w*h); predicted > 25.1 {
		t.Fatalf("solved resolution misses budget: %f ms", predicted)
	}
}

func TestAdaptiveResolutionFastGPUKeepsDisplaySize(t *testing.T) {
	// Both samples instant: any resolution meets the budget.
	w, h := AdaptiveResolution(0.1, 0.2, 256, 512, 1280, 720, 40)
	if w != 1280 || h != 720 {
		t.Fatalf("got %dx%d want display size", w, h)
	}
}

func TestAdaptiveResolutionFloorsTinyResults(t *testing.T) {
	// Brutally slow shader: the fit asks for almost nothing; the floor
	// applies.
	w, h := AdaptiveResolution(100, 400, 256, 512, 1920, 1080, 40)
	if w != minEffectWidth {
		t.Fatalf("width=%d want floor %d", w, minEffectWidth)
	}
	if h != minEffectWidth*1080/1920 {
		t.Fatalf("height=%d want aspect-preserving", h)
	}
}

func TestAdaptiveResolutionDegenerateFitKeepsDisplay(t *testing.T) {
	// t2 <= t1 means the fit has no positive slope; keep full size.
	w, h := AdaptiveResolution(20, 20, 256, 512, 800, 600, 40)
	if w != 800 || h != 600 {
		t.Fatalf("got %dx%d want display size", w, h)
	}
}
