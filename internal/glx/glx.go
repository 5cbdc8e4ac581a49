// Package glx is the narrow slice of OpenGL this project touches. The
// real backend (opengl.go, build tag "gl") forwards to go-gl; the Fake
// records calls so the render pipeline and preset manager are testable
// without a graphics context. All methods must be called on the thread
// owning the context.
package glx

import "errors"

// Handle types. Zero always means "no resource".
type (
	Texture     uint32
	Program     uint32
	Framebuffer uint32
	Buffer      uint32
)

// Uniform is a resolved uniform location; -1 means the shader does not
// declare it, and setting it is a silent no-op (matching GL semantics).
type Uniform int32

// Filter selects texture sampling.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

// Wrap selects texture addressing outside [0,1].
type Wrap int

const (
	WrapClampToEdge Wrap = iota
	WrapRepeat
)

// Format selects the texel layout of uploaded pixel data.
type Format int

const (
	FormatRed Format = iota
	FormatRGBA
)

// ErrUnavailable is returned by backends that were compiled out.
var ErrUnavailable = errors.New("glx: OpenGL backend not enabled; rebuild with -tags gl")

// Device is the graphics surface the renderer draws through.
type Device interface {
	// Resource lifecycle.
	NewBuffer(data []float32) (Buffer, error)
	DeleteBuffer(Buffer)
	NewTexture(format Format, w, h int, pixels []byte, filter Filter, wrap Wrap) (Texture, error)
	UpdateTexture(t Texture, format Format, w, h int, pixels []byte)
	DeleteTexture(Texture)
	NewProgram(vertexSrc, fragmentSrc string) (Program, error)
	DeleteProgram(Program)
	NewFramebuffer(color Texture) (Framebuffer, error)
	DeleteFramebuffer(Framebuffer)

	// Introspection.
	UniformLocation(p Program, name string) Uniform
	AttribLocation(p Program, name string) int32

	// Per-draw state. Program/Framebuffer/Texture zero mean unbind, or
	// for framebuffers the real display target.
	UseProgram(Program)
	BindFramebuffer(Framebuffer)
	Viewport(w, h int)
	Uniform1f(Uniform, float32)
	Uniform2f(u Uniform, x, y float32)
	Uniform3f(u Uniform, x, y, z float32)
	Uniform4f(u Uniform, x, y, z, w float32)
	Uniform1fv(u Uniform, v []float32)
	Uniform1i(u Uniform, v int32)
	BindTextureUnit(unit int, t Texture)

	// DrawQuad draws 4 vec4 vertices from b as a triangle fan through
	// the given vertex attribute.
	DrawQuad(b Buffer, attrib int32)

	// ReadPixels returns the RGBA bytes of the bound framebuffer; it is
	// a hard synchronization point.
	ReadPixels(w, h int) ([]byte, error)

	// Finish blocks until all prior GPU work completed.
	Finish()
}
