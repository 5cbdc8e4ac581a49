package glx

import (
	"errors"
	"fmt"
)

// Fake is an in-memory Device used by tests. It hands out sequential
// handles, remembers live resources so teardown can be asserted, and can
// be told to fail program compilation or to answer ReadPixels with a
// canned frame.
type Fake struct {
	next uint32

	Buffers      map[Buffer][]float32
	Textures     map[Texture]FakeTexture
	Programs     map[Program]FakeProgram
	Framebuffers map[Framebuffer]Texture

	// FailProgram makes every NewProgram call fail when set.
	FailProgram bool

	// Pixels is returned by ReadPixels when non-nil.
	Pixels []byte

	// Calls records the imperative state calls in order, for tests that
	// assert the draw sequence.
	Calls []string

	BoundProgram     Program
	BoundFramebuffer Framebuffer
	BoundUnits       map[int]Texture

	DrawCount   int
	UploadCount int
	FinishCount int
	ViewportW   int
	ViewportH   int
}

// FakeTexture captures creation arguments for assertions.
type FakeTexture struct {
	Format Format
	W, H   int
	Filter Filter
	Wrap   Wrap
	Pixels []byte
}

// FakeProgram keeps sources so tests can check wrapping.
type FakeProgram struct {
	Vertex   string
	Fragment string
}

// NewFake returns an empty fake device.
func NewFake() *Fake {
	return &Fake{
		next:         1,
		Buffers:      map[Buffer][]float32{},
		Textures:     map[Texture]FakeTexture{},
		Programs:     map[Program]FakeProgram{},
		Framebuffers: map[Framebuffer]Texture{},
		BoundUnits:   map[int]Texture{},
	}
}

func (f *Fake) id() uint32 {
	id := f.next
	f.next++
	return id
}

func (f *Fake) call(format string, args ...interface{}) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *Fake) NewBuffer(data []float32) (Buffer, error) {
	b := Buffer(f.id())
	f.Buffers[b] = append([]float32(nil), data...)
	return b, nil
}

func (f *Fake) DeleteBuffer(b Buffer) { delete(f.Buffers, b) }

func (f *Fake) NewTexture(format Format, w, h int, pixels []byte, filter Filter, wrap Wrap) (Texture, error) {
	t := Texture(f.id())
	f.Textures[t] = FakeTexture{Format: format, W: w, H: h, Filter: filter, Wrap: wrap, Pixels: append([]byte(nil), pixels...)}
	return t, nil
}

func (f *Fake) UpdateTexture(t Texture, format Format, w, h int, pixels []byte) {
	if tex, ok := f.Textures[t]; ok {
		tex.Format = format
		tex.W = w
		tex.H = h
		tex.Pixels = append([]byte(nil), pixels...)
		f.Textures[t] = tex
	}
	f.UploadCount++
	f.call("upload tex=%d %dx%d", t, w, h)
}

func (f *Fake) DeleteTexture(t Texture) { delete(f.Textures, t) }

func (f *Fake) NewProgram(vertexSrc, fragmentSrc string) (Program, error) {
	if f.FailProgram {
		return 0, errors.New("fake: program compilation failed")
	}
	p := Program(f.id())
	f.Programs[p] = FakeProgram{Vertex: vertexSrc, Fragment: fragmentSrc}
	return p, nil
}

func (f *Fake) DeleteProgram(p Program) { delete(f.Programs, p) }

func (f *Fake) NewFramebuffer(color Texture) (Framebuffer, error) {
	fb := Framebuffer(f.id())
	f.Framebuffers[fb] = color
	return fb, nil
}

func (f *Fake) DeleteFramebuffer(fb Framebuffer) { delete(f.Framebuffers, fb) }

// Uniform locations are synthesized from the name length so that lookups
// are deterministic without parsing GLSL.
func (f *Fake) UniformLocation(p Program, name string) Uniform { return Uniform(len(name)) }

func (f *Fake) AttribLocation(p Program, name string) int32 { return 0 }

func (f *Fake) UseProgram(p Program) {
	f.BoundProgram = p
	f.call("use program=%d", p)
}

func (f *Fake) BindFramebuffer(fb Framebuffer) {
	f.BoundFramebuffer = fb
	f.call("bind fb=%d", fb)
}

func (f *Fake) Viewport(w, h int) {
	f.ViewportW = w
	f.ViewportH = h
}

func (f *Fake) Uniform1f(u Uniform, v float32)          { f.call("u1f %d=%g", u, v) }
func (f *Fake) Uniform2f(u Uniform, x, y float32)       { f.call("u2f %d=%g,%g", u, x, y) }
func (f *Fake) Uniform3f(u Uniform, x, y, z float32)    { f.call("u3f %d=%g,%g,%g", u, x, y, z) }
func (f *Fake) Uniform4f(u Uniform, x, y, z, w float32) { f.call("u4f %d=%g,%g,%g,%g", u, x, y, z, w) }
func (f *Fake) Uniform1fv(u Uniform, v []float32)       { f.call("u1fv %d len=%d", u, len(v)) }
func (f *Fake) Uniform1i(u Uniform, v int32)            { f.call("u1i %d=%d", u, v) }

func (f *Fake) BindTextureUnit(unit int, t Texture) {
	f.BoundUnits[unit] = t
	f.call("bind unit=%d tex=%d", unit, t)
}

func (f *Fake) DrawQuad(b Buffer, attrib int32) {
	f.DrawCount++
	f.call("draw buffer=%d", b)
}

func (f *Fake) ReadPixels(w, h int) ([]byte, error) {
	if f.Pixels != nil {
		return f.Pixels, nil
	}
	return make([]byte, w*h*4), nil
}

func (f *Fake) Finish() { f.FinishCount++ }
