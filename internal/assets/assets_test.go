package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func TestDirShaderSource(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "shaders"), 0o755); err != nil {
		t.Fatal(err)
	}
	src := "void mainImage(out vec4 c, vec2 f) {}"
	if err := os.WriteFile(filepath.Join(root, "shaders", "demo.frag.glsl"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	lib := NewDir(root, "")
	got, err := lib.ShaderSource("demo.frag.glsl")
	if err != nil {
		t.Fatalf("ShaderSource: %v", err)
	}
	if got != src {
		t.Fatalf("source=%q want=%q", got, src)
	}

	if _, err := lib.ShaderSource("missing.glsl"); err == nil {
		t.Fatal("expected error for missing shader")
	}
}

func TestDirImageDecodesToRGBA(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "logo.png"), color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	lib := NewDir(root, "")
	img, err := lib.Image("logo.png")
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("size=%dx%d want=2x2", img.Width, img.Height)
	}
	if len(img.Pix) != 2*2*4 {
		t.Fatalf("pix len=%d want=16", len(img.Pix))
	}
	if img.Pix[0] != 255 || img.Pix[1] != 0 || img.Pix[2] != 0 || img.Pix[3] != 255 {
		t.Fatalf("first pixel=%v want opaque red", img.Pix[:4])
	}
}

func TestDirTranslatesThumbnailPaths(t *testing.T) {
	thumbs := t.TempDir()
	if err := os.MkdirAll(filepath.Join(thumbs, "a"), 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(thumbs, "a", "a1b2c3d4.png"), color.NRGBA{B: 255, A: 255})

	lib := NewDir(t.TempDir(), thumbs)
	if !lib.Exists("special://thumbnails/a/a1b2c3d4.png") {
		t.Fatal("thumbnail should resolve through the cache root")
	}
	if lib.Exists("special://thumbnails/a/a1b2c3d4.jpg") {
		t.Fatal("missing extension must not exist")
	}
	if _, err := lib.Image("special://thumbnails/a/a1b2c3d4.png"); err != nil {
		t.Fatalf("Image through special path: %v", err)
	}
}

func TestDirImageFailsOnGarbage(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "broken.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	lib := NewDir(root, "")
	if _, err := lib.Image("broken.png"); err == nil {
		t.Fatal("expected decode error")
	}
}
