//go:build gl

package glx

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// OpenGL is the go-gl backed Device. The caller must have made a GL
// context current before Open and before any later call.
type OpenGL struct {
	vao uint32
}

// Open initializes the go-gl bindings against the current context.
func Open() (*OpenGL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initialize OpenGL: %w", err)
	}
	d := &OpenGL{}
	// Core profiles refuse to draw without a bound VAO.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	return d, nil
}

// Supported reports whether the OpenGL backend was compiled in.
func Supported() bool { return true }

// Close releases the backend's own objects.
func (d *OpenGL) Close() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

func (d *OpenGL) NewBuffer(data []float32) (Buffer, error) {
	var b uint32
	gl.GenBuffers(1, &b)
	gl.BindBuffer(gl.ARRAY_BUFFER, b)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return Buffer(b), nil
}

func (d *OpenGL) DeleteBuffer(b Buffer) {
	if b != 0 {
		u := uint32(b)
		gl.DeleteBuffers(1, &u)
	}
}

func glFormat(f Format) int32 {
	if f == FormatRed {
		return gl.RED
	}
	return gl.RGBA
}

func glFilter(f Filter) int32 {
	if f == FilterNearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func glWrap(w Wrap) int32 {
	if w == WrapRepeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func (d *OpenGL) NewTexture(format Format, w, h int, pixels []byte, filter Filter, wrap Wrap) (Texture, error) {
	var t uint32
	gl.GenTextures(1, &t)
	gl.BindTexture(gl.TEXTURE_2D, t)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(filter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(filter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(wrap))
	format32 := glFormat(format)
	if pixels != nil {
		gl.TexImage2D(gl.TEXTURE_2D, 0, format32, int32(w), int32(h), 0, uint32(format32), gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, format32, int32(w), int32(h), 0, uint32(format32), gl.UNSIGNED_BYTE, nil)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return Texture(t), nil
}

func (d *OpenGL) UpdateTexture(t Texture, format Format, w, h int, pixels []byte) {
	if t == 0 {
		return
	}
	format32 := glFormat(format)
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.TexImage2D(gl.TEXTURE_2D, 0, format32, int32(w), int32(h), 0, uint32(format32), gl.UNSIGNED_BYTE, gl.Ptr(pixels))
}

func (d *OpenGL) DeleteTexture(t Texture) {
	if t != 0 {
		u := uint32(t)
		gl.DeleteTextures(1, &u)
	}
}

func (d *OpenGL) NewProgram(vertexSrc, fragmentSrc string) (Program, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, fmt.Errorf("fragment shader: %w", err)
	}

	p := gl.CreateProgram()
	gl.AttachShader(p, vs)
	gl.AttachShader(p, fs)
	gl.LinkProgram(p)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(p, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		logText := programLog(p)
		gl.DeleteProgram(p)
		return 0, fmt.Errorf("link program: %s", logText)
	}
	return Program(p), nil
}

func compileShader(src string, kind uint32) (uint32, error) {
	s := gl.CreateShader(kind)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(s, 1, csrc, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLen)
		logText := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(s, logLen, nil, gl.Str(logText))
		gl.DeleteShader(s)
		return 0, fmt.Errorf("compile: %s", strings.TrimRight(logText, "\x00"))
	}
	return s, nil
}

func programLog(p uint32) string {
	var logLen int32
	gl.GetProgramiv(p, gl.INFO_LOG_LENGTH, &logLen)
	logText := strings.Repeat("\x00", int(logLen+1))
	gl.GetProgramInfoLog(p, logLen, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (d *OpenGL) DeleteProgram(p Program) {
	if p != 0 {
		gl.DeleteProgram(uint32(p))
	}
}

func (d *OpenGL) NewFramebuffer(color Texture) (Framebuffer, error) {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(color), 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fb)
		return 0, fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return Framebuffer(fb), nil
}

func (d *OpenGL) DeleteFramebuffer(fb Framebuffer) {
	if fb != 0 {
		u := uint32(fb)
		gl.DeleteFramebuffers(1, &u)
	}
}

func (d *OpenGL) UniformLocation(p Program, name string) Uniform {
	return Uniform(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

func (d *OpenGL) AttribLocation(p Program, name string) int32 {
	return gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *OpenGL) UseProgram(p Program) { gl.UseProgram(uint32(p)) }

func (d *OpenGL) BindFramebuffer(fb Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
}

func (d *OpenGL) Viewport(w, h int) { gl.Viewport(0, 0, int32(w), int32(h)) }

func (d *OpenGL) Uniform1f(u Uniform, v float32) {
	if u >= 0 {
		gl.Uniform1f(int32(u), v)
	}
}

func (d *OpenGL) Uniform2f(u Uniform, x, y float32) {
	if u >= 0 {
		gl.Uniform2f(int32(u), x, y)
	}
}

func (d *OpenGL) Uniform3f(u Uniform, x, y, z float32) {
	if u >= 0 {
		gl.Uniform3f(int32(u), x, y, z)
	}
}

func (d *OpenGL) Uniform4f(u Uniform, x, y, z, w float32) {
	if u >= 0 {
		gl.Uniform4f(int32(u), x, y, z, w)
	}
}

func (d *OpenGL) Uniform1fv(u Uniform, v []float32) {
	if u >= 0 && len(v) > 0 {
		gl.Uniform1fv(int32(u), int32(len(v)), &v[0])
	}
}

func (d *OpenGL) Uniform1i(u Uniform, v int32) {
	if u >= 0 {
		gl.Uniform1i(int32(u), v)
	}
}

func (d *OpenGL) BindTextureUnit(unit int, t Texture) {
	gl.ActiveTexture(uint32(gl.TEXTURE0 + unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *OpenGL) DrawQuad(b Buffer, attrib int32) {
	if attrib < 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.VertexAttribPointer(uint32(attrib), 4, gl.FLOAT, false, 16, nil)
	gl.EnableVertexAttribArray(uint32(attrib))
	gl.DrawArrays(gl.TRIANGLE_FAN, 0, 4)
	gl.DisableVertexAttribArray(uint32(attrib))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (d *OpenGL) ReadPixels(w, h int) ([]byte, error) {
	buf := make([]byte, w*h*4)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(buf))
	return buf, nil
}

func (d *OpenGL) Finish() { gl.Finish() }
