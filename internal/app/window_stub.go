//go:build !gl

package app

import (
	"errors"

	"github.com/meonBot/visualization.matrix/internal/glx"
)

type sdlWindow struct{}

func openWindow(title string, width, height int) (*sdlWindow, error) {
	return nil, errors.New("OpenGL backend not enabled; rebuild with -tags gl")
}

func (w *sdlWindow) Device() glx.Device { return nil }

func (w *sdlWindow) Size() (int, int) { return 0, 0 }

func (w *sdlWindow) Swap() {}

func (w *sdlWindow) PollEvents() (bool, bool, int, int) { return true, false, 0, 0 }

func (w *sdlWindow) Close() {}
