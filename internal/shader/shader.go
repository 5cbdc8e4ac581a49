// Package shader wraps raw ShaderToy-style fragment sources with the
// fixed uniform header and mainImage footer, compiles them, and resolves
// the uniform locations the render pipeline binds every frame.
package shader

import (
	"fmt"

	"github.com/meonBot/visualization.matrix/internal/glx"
)

// Header declares the standard ShaderToy uniform block. Preset fragment
// files only provide mainImage and may rely on these names.
const Header = `#version 150

#extension GL_OES_standard_derivatives : enable

uniform vec3 iResolution;
uniform float iGlobalTime;
uniform float iChannelTime[4];
uniform vec4 iMouse;
uniform vec4 iDate;
uniform float iSampleRate;
uniform vec3 iChannelResolution[4];
uniform sampler2D iChannel0;
uniform sampler2D iChannel1;
uniform sampler2D iChannel2;
uniform sampler2D iChannel3;

out vec4 FragColor;

#define iTime iGlobalTime

#ifndef texture2D
#define texture2D texture
#endif
`

// Footer invokes the preset's mainImage entry point and forces full
// opacity.
const Footer = `
void main(void)
{
  vec4 color = vec4(0.0, 0.0, 0.0, 1.0);
  mainImage(color, gl_FragCoord.xy);
  color.w = 1.0;
  FragColor = color;
}
`

// WrapFragment sandwiches an opaque preset fragment between Header and
// Footer.
func WrapFragment(src string) string {
	return Header + src + Footer
}

// Effect is a compiled preset program plus every uniform the effect pass
// binds.
type Effect struct {
	Handle      glx.Program
	Resolution  glx.Uniform
	GlobalTime  glx.Uniform
	ChannelTime glx.Uniform
	Date        glx.Uniform
	SampleRate  glx.Uniform
	Scale       glx.Uniform
	Channels    [4]glx.Uniform
	Vertex      int32
}

// NewEffect compiles the wrapped fragment against the shared vertex
// shader and resolves uniform locations.
func NewEffect(dev glx.Device, vertexSrc, fragmentSrc string) (*Effect, error) {
	p, err := dev.NewProgram(vertexSrc, WrapFragment(fragmentSrc))
	if err != nil {
		return nil, fmt.Errorf("effect program: %w", err)
	}
	e := &Effect{
		Handle:      p,
		Resolution:  dev.UniformLocation(p, "iResolution"),
		GlobalTime:  dev.UniformLocation(p, "iGlobalTime"),
		ChannelTime: dev.UniformLocation(p, "iChannelTime"),
		Date:        dev.UniformLocation(p, "iDate"),
		SampleRate:  dev.UniformLocation(p, "iSampleRate"),
		Scale:       dev.UniformLocation(p, "uScale"),
		Vertex:      dev.AttribLocation(p, "vertex"),
	}
	for i := 0; i < 4; i++ {
		e.Channels[i] = dev.UniformLocation(p, fmt.Sprintf("iChannel%d", i))
	}
	return e, nil
}

// Release deletes the program; safe to call repeatedly.
func (e *Effect) Release(dev glx.Device) {
	if e == nil || e.Handle == 0 {
		return
	}
	dev.DeleteProgram(e.Handle)
	e.Handle = 0
}

// Display is the tonemap/blit program used by the second pass.
type Display struct {
	Handle  glx.Program
	Texture glx.Uniform
	Vertex  int32
}

// NewDisplay compiles the display pass from its own vertex/fragment pair
// (no header/footer wrapping; this pair is not preset-provided).
func NewDisplay(dev glx.Device, vertexSrc, fragmentSrc string) (*Display, error) {
	p, err := dev.NewProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("display program: %w", err)
	}
	return &Display{
		Handle:  p,
		Texture: dev.UniformLocation(p, "uTexture"),
		Vertex:  dev.AttribLocation(p, "vertex"),
	}, nil
}

// Release deletes the program; safe to call repeatedly.
func (s *Display) Release(dev glx.Device) {
	if s == nil || s.Handle == 0 {
		return
	}
	dev.DeleteProgram(s.Handle)
	s.Handle = 0
}
