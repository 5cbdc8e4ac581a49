package render

import (
	"fmt"

	"github.com/meonBot/visualization.matrix/internal/glx"
)

// Target is one epoch's offscreen render bundle: a color texture and the
// framebuffer wrapping it, sized to the adaptive effect resolution.
type Target struct {
	Texture     glx.Texture
	Framebuffer glx.Framebuffer
	Width       int
	Height      int
}

func newTarget(dev glx.Device, w, h int) (*Target, error) {
	tex, err := dev.NewTexture(glx.FormatRGBA, w, h, nil, glx.FilterLinear, glx.WrapClampToEdge)
	if err != nil {
		return nil, fmt.Errorf("target texture: %w", err)
	}
	fb, err := dev.NewFramebuffer(tex)
	if err != nil {
		dev.DeleteTexture(tex)
		return nil, fmt.Errorf("target framebuffer: %w", err)
	}
	return &Target{Texture: tex, Framebuffer: fb, Width: w, Height: h}, nil
}

// release tears the bundle down; safe to call repeatedly.
func (t *Target) release(dev glx.Device) {
	if t == nil {
		return
	}
	if t.Framebuffer != 0 {
		dev.DeleteFramebuffer(t.Framebuffer)
		t.Framebuffer = 0
	}
	if t.Texture != 0 {
		dev.DeleteTexture(t.Texture)
		t.Texture = 0
	}
}
