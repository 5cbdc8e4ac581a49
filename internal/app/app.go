// Package app hosts the standalone visualizer binary: it owns the SDL
// window, the capture stream, the keyboard and web control surfaces,
// and the single goroutine that feeds the visualizer.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/meonBot/visualization.matrix/internal/assets"
	"github.com/meonBot/visualization.matrix/internal/audio"
	"github.com/meonBot/visualization.matrix/internal/config"
	"github.com/meonBot/visualization.matrix/internal/viz"
	"github.com/meonBot/visualization.matrix/internal/web"
)

// Config configures the application runtime.
type Config struct {
	DeviceName    string
	Width         int
	Height        int
	FPS           float64
	DisableAudio  bool
	WebPort       int
	SettingsPath  string
	ResourcesDir  string
	ThumbnailsDir string
	ProfilePath   string
	Log           *log.Logger
}

type inputEvent struct {
	kind  inputKind
	index int
}

type inputKind int

const (
	inputNext inputKind = iota
	inputPrevious
	inputRandom
	inputSelect
	inputQuit
)

// fakeSampleRate drives the synthetic generator when audio is disabled.
const fakeSampleRate = 44100

// App ties the window, the audio source and the visualizer together.
// Everything that touches the visualizer runs on the Run goroutine;
// the control surfaces only enqueue closures onto commands.
type App struct {
	cfg      Config
	log      *log.Logger
	window   *sdlWindow
	v        *viz.Visualizer
	settings *config.Settings
	capture  *audio.Capture
	fake     *fakeGenerator
	server   *web.Server
	prof     *profiler

	commands    chan func()
	inputEvents chan inputEvent
	presetNames []string

	statusMu sync.RWMutex
	status   web.Status
}

// New builds the application: window and GL context first, then the
// audio source, then the visualizer itself.
func New(cfg Config) (*App, error) {
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 720
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stdout, "", log.LstdFlags)
	}

	settings, err := config.Load(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}
	if cfg.FPS > 0 {
		settings.TargetFPS = cfg.FPS
	}

	window, err := openWindow("visualization.matrix", cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		log:      cfg.Log,
		window:   window,
		settings: settings,
		commands: make(chan func(), 16),
	}

	sampleRate := float64(fakeSampleRate)
	if cfg.DisableAudio {
		a.fake = newFakeGenerator(sampleRate)
		a.log.Println("audio disabled, using synthetic generator")
	} else {
		if err := audio.Initialize(); err != nil {
			window.Close()
			return nil, fmt.Errorf("audio init: %w", err)
		}
		capture, err := audio.NewCapture(audio.Config{DeviceName: cfg.DeviceName})
		if err != nil {
			audio.Terminate()
			window.Close()
			return nil, fmt.Errorf("audio capture: %w", err)
		}
		a.capture = capture
		sampleRate = capture.SampleRate()
		a.log.Printf("audio capture on %q @ %.0f Hz", capture.DeviceName(), sampleRate)
	}

	v, err := viz.New(viz.Config{
		Device:   window.Device(),
		Assets:   assets.NewDir(cfg.ResourcesDir, cfg.ThumbnailsDir),
		Settings: settings,
		Log:      cfg.Log,
	})
	if err != nil {
		a.closeAudio()
		window.Close()
		return nil, err
	}
	a.v = v

	w, h := window.Size()
	if err := v.Start(int(sampleRate), w, h); err != nil {
		a.closeAudio()
		window.Close()
		return nil, err
	}
	a.presetNames = v.ListPresets()

	a.prof = newProfiler(cfg.ProfilePath, cfg.Log)
	if cfg.WebPort > 0 {
		a.server = web.NewServer(a, cfg.Log)
		go func() {
			if err := a.server.Start(cfg.WebPort); err != nil {
				a.log.Printf("web server: %v", err)
			}
		}()
	}
	return a, nil
}

// Run drives the frame loop until the context is canceled, the window
// is closed, or quit is pressed.
func (a *App) Run(ctx context.Context) error {
	frameDuration := time.Duration(float64(time.Second) / a.settings.TargetFPS)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	a.startInputListener(inputCtx)

	var chunks <-chan audio.Chunk
	if a.capture != nil {
		chunks = a.capture.Chunks()
	}
	framesPerTick := int(float64(fakeSampleRate) / a.settings.TargetFPS)

	last := time.Now()
	fps := a.settings.TargetFPS
	width, height := a.window.Size()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case evt, ok := <-a.inputEvents:
			if !ok {
				a.inputEvents = nil
				continue
			}
			switch evt.kind {
			case inputNext:
				a.v.NextPreset()
			case inputPrevious:
				a.v.PreviousPreset()
			case inputRandom:
				a.v.RandomPreset()
			case inputSelect:
				a.v.SelectPreset(evt.index)
			case inputQuit:
				return nil
			}

		case cmd := <-a.commands:
			cmd()

		case chunk := <-chunks:
			a.v.DeliverAudio(chunk.Samples, chunk.Channels)

		case <-ticker.C:
			quit, resized, w, h := a.window.PollEvents()
			if quit {
				return nil
			}
			if resized {
				width, height = w, h
				a.v.Resize(width, height)
			}

			a.prof.beginFrame()
			if a.fake != nil {
				chunk := a.fake.Next(framesPerTick)
				a.v.DeliverAudio(chunk.Samples, chunk.Channels)
				a.prof.mark("audio")
			}
			a.v.RenderFrame()
			a.prof.mark("render")
			a.window.Swap()
			a.prof.mark("present")
			a.prof.endFrame()

			now := time.Now()
			if delta := now.Sub(last).Seconds(); delta > 0 {
				fps = 0.9*fps + 0.1/delta
			}
			last = now
			a.publishStatus(fps, width, height)
		}
	}
}

// Close releases everything Run used; safe after a failed Run.
func (a *App) Close() {
	if a.server != nil {
		a.server.Close()
	}
	a.closeAudio()
	a.v.Stop()
	a.window.Close()
	_ = a.prof.Close()
}

func (a *App) closeAudio() {
	if a.capture != nil {
		if err := a.capture.Close(); err != nil {
			a.log.Printf("close capture: %v", err)
		}
		if dropped := a.capture.Dropped(); dropped > 0 {
			a.log.Printf("dropped %d audio chunks", dropped)
		}
		a.capture = nil
		audio.Terminate()
	}
}

func (a *App) publishStatus(fps float64, w, h int) {
	status := web.Status{
		ActivePreset:  a.v.ActivePresetIndex(),
		Override:      a.v.ActivePresetIndex() < 0,
		FPS:           fps,
		PrecisionBits: a.v.PrecisionBits(),
		Width:         w,
		Height:        h,
	}
	if status.ActivePreset >= 0 && status.ActivePreset < len(a.presetNames) {
		status.PresetName = a.presetNames[status.ActivePreset]
	}
	a.statusMu.Lock()
	a.status = status
	a.statusMu.Unlock()
}

// enqueue schedules a visualizer call onto the Run goroutine. Commands
// are dropped when the loop is saturated; the next one will land.
func (a *App) enqueue(cmd func()) {
	select {
	case a.commands <- cmd:
	default:
	}
}

// Status implements web.Controller.
func (a *App) Status() web.Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

// Presets implements web.Controller.
func (a *App) Presets() []string { return a.presetNames }

// NextPreset implements web.Controller.
func (a *App) NextPreset() { a.enqueue(a.v.NextPreset) }

// PreviousPreset implements web.Controller.
func (a *App) PreviousPreset() { a.enqueue(a.v.PreviousPreset) }

// RandomPreset implements web.Controller.
func (a *App) RandomPreset() { a.enqueue(a.v.RandomPreset) }

// SelectPreset implements web.Controller.
func (a *App) SelectPreset(index int) {
	a.enqueue(func() { a.v.SelectPreset(index) })
}

// SetAlbumArt implements web.Controller.
func (a *App) SetAlbumArt(path string) {
	a.enqueue(func() {
		if err := a.v.SetAlbumArt(path); err != nil {
			a.log.Printf("album art: %v", err)
		}
	})
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		return
	}

	events := make(chan inputEvent, 16)
	a.inputEvents = events

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() { _ = keyboard.Close() })
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() { _ = keyboard.Close() })
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			switch {
			case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q' || char == 'Q':
				events <- inputEvent{kind: inputQuit}
				return
			case char == 'n' || char == 'N':
				events <- inputEvent{kind: inputNext}
			case char == 'p' || char == 'P':
				events <- inputEvent{kind: inputPrevious}
			case char == 'r' || char == 'R':
				events <- inputEvent{kind: inputRandom}
			case char >= '1' && char <= '9':
				events <- inputEvent{kind: inputSelect, index: int(char - '1')}
			}
		}
	}()
}
