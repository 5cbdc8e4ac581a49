//go:build gl

package app

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/meonBot/visualization.matrix/internal/glx"
)

// sdlWindow owns the SDL window, its GL context and the glx device.
type sdlWindow struct {
	win    *sdl.Window
	ctx    sdl.GLContext
	device *glx.OpenGL
}

func openWindow(title string, width, height int) (*sdlWindow, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("init SDL: %w", err)
	}

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 2)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)

	win, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height),
		sdl.WINDOW_OPENGL|sdl.WINDOW_RESIZABLE|sdl.WINDOW_ALLOW_HIGHDPI)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("create window: %w", err)
	}

	ctx, err := win.GLCreateContext()
	if err != nil {
		win.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("create GL context: %w", err)
	}

	device, err := glx.Open()
	if err != nil {
		sdl.GLDeleteContext(ctx)
		win.Destroy()
		sdl.Quit()
		return nil, err
	}

	return &sdlWindow{win: win, ctx: ctx, device: device}, nil
}

func (w *sdlWindow) Device() glx.Device { return w.device }

func (w *sdlWindow) Size() (int, int) {
	dw, dh := w.win.GLGetDrawableSize()
	return int(dw), int(dh)
}

func (w *sdlWindow) Swap() { w.win.GLSwap() }

// PollEvents drains the SDL event queue. It reports a pending close
// request and the new drawable size after a resize, if any.
func (w *sdlWindow) PollEvents() (quit bool, resized bool, width, height int) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				resized = true
				width, height = w.Size()
			}
		}
	}
	return quit, resized, width, height
}

func (w *sdlWindow) Close() {
	w.device.Close()
	sdl.GLDeleteContext(w.ctx)
	w.win.Destroy()
	sdl.Quit()
}
