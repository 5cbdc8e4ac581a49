//go:build !gl

package glx

// Open reports that this binary was built without OpenGL support. Build
// with -tags gl on a machine with GL headers to enable rendering.
func Open() (*OpenGL, error) {
	return nil, ErrUnavailable
}

// OpenGL is unusable in builds without the gl tag; Open always fails
// before a value exists.
type OpenGL struct{}

func (d *OpenGL) Close() {}

// Supported reports whether the OpenGL backend was compiled in.
func Supported() bool { return false }
