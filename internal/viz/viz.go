// Package viz is the host-facing surface of the visualizer: audio
// delivery, per-frame rendering, the preset control surface, and album
// art updates. It assumes the host never overlaps calls into it; hosts
// that cannot guarantee that must serialize access externally.
package viz

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/meonBot/visualization.matrix/internal/assets"
	"github.com/meonBot/visualization.matrix/internal/config"
	"github.com/meonBot/visualization.matrix/internal/dsp"
	"github.com/meonBot/visualization.matrix/internal/glx"
	"github.com/meonBot/visualization.matrix/internal/preset"
	"github.com/meonBot/visualization.matrix/internal/render"
)

// Shader asset names resolved through the assets library.
const (
	effectVertexShader  = "main.vert.glsl"
	displayVertexShader = "display.vert.glsl"
	displayFragShader   = "display.frag.glsl"
	calibrationShader   = "calibration.frag.glsl"
)

// Config assembles a Visualizer.
type Config struct {
	Device   glx.Device
	Assets   assets.Library
	Settings *config.Settings
	Catalog  preset.Catalog
	Log      *log.Logger

	// Now overrides the wall clock in tests.
	Now func() time.Time

	// Prober overrides the timer precision probe. Nil runs the GPU
	// calibration render; FixedPrecision(0) disables masking entirely.
	Prober render.PrecisionProber

	Rand *rand.Rand
}

// Visualizer glues the audio pipeline, the preset manager and the render
// pipeline together.
type Visualizer struct {
	dev      glx.Device
	assets   assets.Library
	settings *config.Settings
	catalog  preset.Catalog
	log      *log.Logger
	rng      *rand.Rand
	prober   render.PrecisionProber

	ring     *dsp.Ring
	analyzer *dsp.Analyzer
	manager  *preset.Manager
	pipeline *render.Pipeline

	initialized bool
	displayW    int
	displayH    int
}

// New wires the visualizer; nothing touches the GPU until Start.
func New(cfg Config) (*Visualizer, error) {
	if cfg.Device == nil {
		return nil, fmt.Errorf("viz: a graphics device is required")
	}
	if cfg.Assets == nil {
		return nil, fmt.Errorf("viz: an asset library is required")
	}
	if cfg.Settings == nil {
		cfg.Settings = config.Defaults()
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "[viz] ", log.LstdFlags)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Catalog.Len() == 0 {
		cfg.Catalog = preset.Default()
	}

	v := &Visualizer{
		dev:      cfg.Device,
		assets:   cfg.Assets,
		settings: cfg.Settings,
		catalog:  cfg.Catalog,
		log:      cfg.Log,
		rng:      cfg.Rand,
		prober:   cfg.Prober,
		ring:     dsp.NewRing(),
		analyzer: dsp.NewAnalyzer(),
	}
	v.manager = preset.NewManager(preset.ManagerConfig{
		Device:   cfg.Device,
		Assets:   cfg.Assets,
		Settings: cfg.Settings,
		Catalog:  cfg.Catalog,
		Log:      cfg.Log,
	})
	v.pipeline = render.NewPipeline(render.PipelineConfig{
		Device: cfg.Device,
		Log:    cfg.Log,
		Now:    cfg.Now,
	})
	return v, nil
}

// Start prepares shared GPU state and launches the persisted preset (or
// the pinned override shader).
func (v *Visualizer) Start(sampleRate, displayW, displayH int) error {
	if err := v.pipeline.Start(displayW, displayH, float32(sampleRate)); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	v.displayW = displayW
	v.displayH = displayH
	v.initialized = true

	v.launch(v.manager.ActivePreset())
	return nil
}

// Stop tears everything down; safe to call repeatedly.
func (v *Visualizer) Stop() {
	v.initialized = false
	v.manager.UnloadTextures()
	v.pipeline.Stop()
}

// Resize tracks display size changes between preset loads.
func (v *Visualizer) Resize(displayW, displayH int) {
	v.displayW = displayW
	v.displayH = displayH
	v.pipeline.Resize(displayW, displayH)
}

// DeliverAudio folds a host audio chunk into the waveform ring and
// refreshes the audio texture payload. Must complete before the host
// regains control; never called concurrently with RenderFrame.
func (v *Visualizer) DeliverAudio(samples []float32, channels int) {
	if !v.initialized {
		return
	}
	v.ring.Write(samples, channels)
	v.analyzer.Analyze(v.ring.Samples())
}

// RenderFrame draws one frame. A failed preset load leaves this a no-op
// until the next successful launch.
func (v *Visualizer) RenderFrame() {
	if !v.initialized || !v.pipeline.Ready() {
		return
	}
	v.pipeline.RenderFrame(render.Frame{
		Channels:      v.manager.ChannelTextures(v.pipeline.TargetTexture()),
		AudioChannels: v.manager.AudioChannels(),
		AudioPayload:  v.analyzer.Payload(),
		AudioDirty:    v.analyzer.TakeDirty(),
	})
}

// NextPreset advances through the catalog; a no-op in override mode.
func (v *Visualizer) NextPreset() {
	if v.manager.Override() {
		return
	}
	v.launch(v.catalog.Next(v.manager.ActivePreset()))
}

// PreviousPreset steps back through the catalog; a no-op in override
// mode.
func (v *Visualizer) PreviousPreset() {
	if v.manager.Override() {
		return
	}
	v.launch(v.catalog.Previous(v.manager.ActivePreset()))
}

// SelectPreset jumps to a catalog index; a no-op in override mode.
func (v *Visualizer) SelectPreset(index int) {
	if v.manager.Override() {
		return
	}
	v.launch(v.catalog.Normalize(index))
}

// RandomPreset picks any catalog entry; a no-op in override mode.
func (v *Visualizer) RandomPreset() {
	if v.manager.Override() || v.catalog.Len() == 0 {
		return
	}
	v.launch(v.rng.Intn(v.catalog.Len()))
}

// ListPresets returns the catalog names in order; empty in override
// mode.
func (v *Visualizer) ListPresets() []string { return v.manager.Presets() }

// ActivePresetIndex returns the running preset's index, -1 in override
// mode.
func (v *Visualizer) ActivePresetIndex() int { return v.manager.ActivePreset() }

// PrecisionBits exposes the active timer mask width for diagnostics.
func (v *Visualizer) PrecisionBits() int { return v.pipeline.PrecisionBits() }

// SetAlbumArt loads the cached thumbnail for the given album-art path
// into channel 3. Failure leaves the channel untouched.
func (v *Visualizer) SetAlbumArt(path string) error {
	return v.manager.SetAlbumArt(path)
}

// launch runs the full preset load: precision probe, resource
// resolution, optional frame-budget probe, then the pipeline reload.
// Any failure leaves the pipeline non-rendering for subsequent frames.
func (v *Visualizer) launch(index int) {
	effectVertex, err := v.assets.ShaderSource(effectVertexShader)
	if err != nil {
		v.log.Printf("launch: %v", err)
		v.pipeline.UnloadPreset()
		return
	}
	displayVertex, err := v.assets.ShaderSource(displayVertexShader)
	if err != nil {
		v.log.Printf("launch: %v", err)
		v.pipeline.UnloadPreset()
		return
	}
	displayFrag, err := v.assets.ShaderSource(displayFragShader)
	if err != nil {
		v.log.Printf("launch: %v", err)
		v.pipeline.UnloadPreset()
		return
	}

	mask := v.measureMask(effectVertex)

	if err := v.manager.Launch(index, v.analyzer.Payload()); err != nil {
		v.log.Printf("launch preset %d: %v", index, err)
		v.pipeline.UnloadPreset()
		return
	}

	spec := render.LoadSpec{
		EffectVertex:    effectVertex,
		EffectFragment:  v.manager.FragmentSource(),
		DisplayVertex:   displayVertex,
		DisplayFragment: displayFrag,
		FBWidth:         v.displayW,
		FBHeight:        v.displayH,
		Mask:            mask,
	}

	if v.settings.AdaptiveResolution {
		spec.FBWidth, spec.FBHeight = v.probeResolution(spec)
	}

	if err := v.pipeline.Load(spec); err != nil {
		v.log.Printf("launch preset %d: %v", index, err)
	}
}

func (v *Visualizer) measureMask(effectVertex string) render.TimeMask {
	if v.settings.DisableTimeMask {
		return render.TimeMask{}
	}
	if v.prober != nil {
		bits, err := v.prober.MeasureBits()
		if err != nil {
			v.log.Printf("precision probe: %v", err)
			return render.NewTimeMask(minFallbackBits)
		}
		return render.NewTimeMask(bits)
	}
	calibration, err := v.assets.ShaderSource(calibrationShader)
	if err != nil {
		v.log.Printf("calibration shader: %v", err)
		return render.NewTimeMask(minFallbackBits)
	}
	bits, err := v.pipeline.MeasurePrecisionBits(effectVertex, calibration)
	if err != nil {
		v.log.Printf("precision probe: %v", err)
		return render.NewTimeMask(minFallbackBits)
	}
	return render.NewTimeMask(bits)
}

// minFallbackBits keeps masking on its floor when the probe itself
// fails.
const minFallbackBits = 13

// probeResolution times the effect at two candidate sizes and solves
// for the offscreen resolution meeting the configured frame rate.
func (v *Visualizer) probeResolution(spec render.LoadSpec) (int, int) {
	const size1, size2 = 256, 512
	t1, err := v.pipeline.MeasureFrameTime(spec, size1)
	if err != nil {
		v.log.Printf("performance probe: %v", err)
		return v.displayW, v.displayH
	}
	t2, err := v.pipeline.MeasureFrameTime(spec, size2)
	if err != nil {
		v.log.Printf("performance probe: %v", err)
		return v.displayW, v.displayH
	}
	w, h := render.AdaptiveResolution(t1, t2, size1, size2, v.displayW, v.displayH, v.settings.TargetFPS)
	v.log.Printf("performance probe: %.1fms@%d %.1fms@%d -> %dx%d", t1, size1, t2, size2, w, h)
	return w, h
}
