// Package render executes the two-pass draw: the preset effect into an
// optional offscreen target sized to the adaptive resolution, then a
// tonemap/blit pass to the real framebuffer. It also hosts the timer
// precision probe and the frame-budget probe that feed preset loads.
package render

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/meonBot/visualization.matrix/internal/dsp"
	"github.com/meonBot/visualization.matrix/internal/glx"
	"github.com/meonBot/visualization.matrix/internal/shader"
)

// Mode is the per-preset draw strategy, chosen once at load.
type Mode int

const (
	// DirectToDisplay renders the effect straight to the display
	// framebuffer; the common case when no downscaling is in effect.
	DirectToDisplay Mode = iota
	// EffectThenDisplay renders into the offscreen target first and
	// blits it through the display program.
	EffectThenDisplay
)

// quadVertices spans the whole viewport as a triangle fan.
var quadVertices = []float32{
	-1.0, 1.0, 1.0, 1.0,
	1.0, 1.0, 1.0, 1.0,
	1.0, -1.0, 1.0, 1.0,
	-1.0, -1.0, 1.0, 1.0,
}

// PipelineConfig wires a Pipeline to its device and clock.
type PipelineConfig struct {
	Device glx.Device
	Log    *log.Logger
	// Now is the wall clock; overridable in tests.
	Now func() time.Time
}

// Pipeline owns the quad geometry, the compiled programs and the
// offscreen target of the active preset epoch.
type Pipeline struct {
	dev glx.Device
	log *log.Logger
	now func() time.Time

	quad    glx.Buffer
	effect  *shader.Effect
	display *shader.Display
	target  *Target
	mode    Mode
	mask    TimeMask

	initialMillis int64
	displayW      int
	displayH      int
	sampleRate    float32
}

// NewPipeline builds an idle pipeline; Start uploads the shared quad.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "[render] ", log.LstdFlags)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{dev: cfg.Device, log: cfg.Log, now: cfg.Now}
}

// Start uploads the quad and records the display geometry.
func (p *Pipeline) Start(displayW, displayH int, sampleRate float32) error {
	quad, err := p.dev.NewBuffer(quadVertices)
	if err != nil {
		return fmt.Errorf("quad buffer: %w", err)
	}
	p.quad = quad
	p.displayW = displayW
	p.displayH = displayH
	p.sampleRate = sampleRate
	return nil
}

// Resize updates the display geometry. The offscreen target keeps its
// size until the next preset load re-runs the probes.
func (p *Pipeline) Resize(displayW, displayH int) {
	p.displayW = displayW
	p.displayH = displayH
}

// LoadSpec carries everything a preset load resolves for the pipeline.
type LoadSpec struct {
	EffectVertex    string
	EffectFragment  string
	DisplayVertex   string
	DisplayFragment string

	// FBWidth/FBHeight select the effect resolution. Zero or equal to
	// the display size renders directly to the display.
	FBWidth  int
	FBHeight int

	Mask TimeMask
}

// Load replaces the active preset epoch. On shader failure the previous
// epoch is already gone and the pipeline stays non-rendering until the
// next successful load; RenderFrame then draws nothing rather than
// crashing.
func (p *Pipeline) Load(spec LoadSpec) error {
	p.UnloadPreset()

	effect, err := shader.NewEffect(p.dev, spec.EffectVertex, spec.EffectFragment)
	if err != nil {
		p.log.Printf("effect shader: %v", err)
		return err
	}

	if spec.FBWidth <= 0 || spec.FBHeight <= 0 ||
		(spec.FBWidth == p.displayW && spec.FBHeight == p.displayH) {
		p.mode = DirectToDisplay
	} else {
		display, err := shader.NewDisplay(p.dev, spec.DisplayVertex, spec.DisplayFragment)
		if err != nil {
			p.log.Printf("display shader: %v", err)
			effect.Release(p.dev)
			return err
		}
		target, err := newTarget(p.dev, spec.FBWidth, spec.FBHeight)
		if err != nil {
			p.log.Printf("offscreen target: %v", err)
			display.Release(p.dev)
			effect.Release(p.dev)
			return err
		}
		p.display = display
		p.target = target
		p.mode = EffectThenDisplay
	}

	p.effect = effect
	p.mask = spec.Mask
	p.initialMillis = p.now().UnixMilli()
	return nil
}

// Ready reports whether a preset is loaded and renderable.
func (p *Pipeline) Ready() bool { return p.effect != nil }

// Mode returns the active draw strategy.
func (p *Pipeline) Mode() Mode { return p.mode }

// PrecisionBits exposes the active mask width (0 = unmasked).
func (p *Pipeline) PrecisionBits() int { return p.mask.Bits }

// TargetTexture is the previous effect-pass output, used for feedback
// channels; zero in direct mode.
func (p *Pipeline) TargetTexture() glx.Texture {
	if p.target == nil {
		return 0
	}
	return p.target.Texture
}

// Frame is the per-frame input to RenderFrame.
type Frame struct {
	Channels      [4]glx.Texture
	AudioChannels [4]bool
	AudioPayload  []byte
	AudioDirty    bool
}

// RenderFrame runs the effect pass and, when an offscreen target is in
// use, the display pass. All textures and the program are unbound
// afterwards so unrelated host draws are unaffected.
func (p *Pipeline) RenderFrame(f Frame) {
	if p.effect == nil {
		return
	}

	w, h := p.displayW, p.displayH
	fb := glx.Framebuffer(0)
	if p.mode == EffectThenDisplay {
		w, h = p.target.Width, p.target.Height
		fb = p.target.Framebuffer
	}

	p.dev.UseProgram(p.effect.Handle)

	if f.AudioDirty {
		for i, isAudio := range f.AudioChannels {
			if isAudio && f.Channels[i] != 0 {
				p.dev.BindTextureUnit(i, f.Channels[i])
				p.dev.UpdateTexture(f.Channels[i], glx.FormatRed, dsp.Bands, 2, f.AudioPayload)
			}
		}
	}

	elapsed := p.mask.Apply(p.now().UnixMilli() - p.initialMillis)
	t := float32(elapsed) / 1000.0
	channelTime := []float32{t, t, t, t}

	p.dev.Uniform3f(p.effect.Resolution, float32(w), float32(h), 0)
	p.dev.Uniform1f(p.effect.GlobalTime, t)
	p.dev.Uniform1f(p.effect.SampleRate, p.sampleRate)
	p.dev.Uniform1fv(p.effect.ChannelTime, channelTime)
	p.dev.Uniform2f(p.effect.Scale, float32(p.displayW)/float32(w), float32(p.displayH)/float32(h))

	year, month, day, seconds := dateParts(p.now())
	p.dev.Uniform4f(p.effect.Date, year, month, day, seconds)

	for i, tex := range f.Channels {
		p.dev.BindTextureUnit(i, tex)
		p.dev.Uniform1i(p.effect.Channels[i], int32(i))
	}

	p.dev.BindFramebuffer(fb)
	p.dev.Viewport(w, h)
	p.dev.DrawQuad(p.quad, p.effect.Vertex)
	p.unbindAll()

	if p.mode == EffectThenDisplay {
		p.dev.UseProgram(p.display.Handle)
		p.dev.BindTextureUnit(0, p.target.Texture)
		p.dev.Uniform1i(p.display.Texture, 0)
		p.dev.BindFramebuffer(0)
		p.dev.Viewport(p.displayW, p.displayH)
		p.dev.DrawQuad(p.quad, p.display.Vertex)
		p.unbindAll()
	}
}

func (p *Pipeline) unbindAll() {
	for i := 0; i < 4; i++ {
		p.dev.BindTextureUnit(i, 0)
	}
	p.dev.UseProgram(0)
}

// dateParts decomposes the wall clock for the iDate uniform. The month
// is zero-based, matching what preset shaders were written against.
func dateParts(now time.Time) (year, month, day, seconds float32) {
	year = float32(now.Year())
	month = float32(int(now.Month()) - 1)
	day = float32(now.Day())
	seconds = float32(now.Hour()*3600 + now.Minute()*60 + now.Second())
	return
}

// MeasurePrecisionBits renders the calibration shader into a small fixed
// target, reads it back, and counts resolvable timer bits along the
// center scanline. The readback blocks until the GPU finished.
func (p *Pipeline) MeasurePrecisionBits(vertexSrc, calibrationFragment string) (int, error) {
	const w, h = 32, 260

	effect, err := shader.NewEffect(p.dev, vertexSrc, calibrationFragment)
	if err != nil {
		return 0, fmt.Errorf("calibration shader: %w", err)
	}
	defer effect.Release(p.dev)

	target, err := newTarget(p.dev, w, h)
	if err != nil {
		return 0, err
	}
	defer target.release(p.dev)

	// Feed the raw millisecond clock so every candidate bit is
	// exercised; float32 truncates it exactly the way iGlobalTime does.
	ms := p.now().UnixMilli() & ((1 << 24) - 1)
	t := float32(ms) / 1000.0

	p.dev.UseProgram(effect.Handle)
	p.dev.Uniform3f(effect.Resolution, w, h, 0)
	p.dev.Uniform1f(effect.GlobalTime, t)
	p.dev.BindFramebuffer(target.Framebuffer)
	p.dev.Viewport(w, h)
	p.dev.DrawQuad(p.quad, effect.Vertex)
	p.dev.Finish()

	pixels, err := p.dev.ReadPixels(w, h)
	p.dev.BindFramebuffer(0)
	p.dev.UseProgram(0)
	if err != nil {
		return 0, fmt.Errorf("calibration readback: %w", err)
	}
	return countTransitions(pixels, w, h), nil
}

// UnloadPreset releases the active epoch's programs and target; safe to
// call repeatedly.
func (p *Pipeline) UnloadPreset() {
	if p.effect != nil {
		p.effect.Release(p.dev)
		p.effect = nil
	}
	if p.display != nil {
		p.display.Release(p.dev)
		p.display = nil
	}
	if p.target != nil {
		p.target.release(p.dev)
		p.target = nil
	}
	p.mode = DirectToDisplay
}

// Stop releases everything including the shared quad; safe to call
// repeatedly.
func (p *Pipeline) Stop() {
	p.UnloadPreset()
	if p.quad != 0 {
		p.dev.DeleteBuffer(p.quad)
		p.quad = 0
	}
}
