// Package assets abstracts the on-disk shader/text/image providers the
// preset manager depends on. Sources are opaque byte blobs; images come
// back as raw RGBA pixel buffers so the GPU layers never touch decoding.
package assets

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
)

// RGBA is a decoded image ready for texture upload.
type RGBA struct {
	Pix    []byte
	Width  int
	Height int
}

// Library resolves shader sources and images by the paths the catalog and
// settings use. The special://thumbnails/ prefix addresses the host's
// album-art cache.
type Library interface {
	// ShaderSource returns the text of a shader file under the shader
	// resource root.
	ShaderSource(name string) (string, error)

	// Image decodes the referenced image into RGBA pixels.
	Image(path string) (*RGBA, error)

	// Exists reports whether the path resolves to a readable file.
	Exists(path string) bool
}

const thumbnailPrefix = "special://thumbnails/"

// Dir serves assets from a resource directory, with thumbnails translated
// to a separate cache root.
type Dir struct {
	Root       string
	Thumbnails string
}

// NewDir points a Library at a resource tree. thumbnails may be empty
// when no album-art cache exists.
func NewDir(root, thumbnails string) *Dir {
	return &Dir{Root: root, Thumbnails: thumbnails}
}

func (d *Dir) resolve(path string) string {
	if strings.HasPrefix(path, thumbnailPrefix) {
		return filepath.Join(d.Thumbnails, filepath.FromSlash(strings.TrimPrefix(path, thumbnailPrefix)))
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(d.Root, filepath.FromSlash(path))
}

func (d *Dir) ShaderSource(name string) (string, error) {
	resolved := d.resolve(name)
	if !filepath.IsAbs(name) {
		resolved = d.resolve(filepath.Join("shaders", name))
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read shader %s: %w", name, err)
	}
	return string(data), nil
}

func (d *Dir) Image(path string) (*RGBA, error) {
	f, err := os.Open(d.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return toRGBA(img), nil
}

func (d *Dir) Exists(path string) bool {
	info, err := os.Stat(d.resolve(path))
	return err == nil && !info.IsDir()
}

func toRGBA(img image.Image) *RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &RGBA{Pix: rgba.Pix, Width: b.Dx(), Height: b.Dy()}
}
