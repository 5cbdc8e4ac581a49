package preset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"strings"
	"testing"

	"github.com/meonBot/visualization.matrix/internal/assets"
	"github.com/meonBot/visualization.matrix/internal/config"
	"github.com/meonBot/visualization.matrix/internal/dsp"
	"github.com/meonBot/visualization.matrix/internal/glx"
)

// memLibrary is an in-memory assets.Library for tests.
type memLibrary struct {
	shaders map[string]string
	images  map[string]*assets.RGBA
}

func newMemLibrary() *memLibrary {
	return &memLibrary{shaders: map[string]string{}, images: map[string]*assets.RGBA{}}
}

func (l *memLibrary) ShaderSource(name string) (string, error) {
	src, ok := l.shaders[name]
	if !ok {
		return "", fmt.Errorf("shader %s: %w", name, errors.New("not found"))
	}
	return src, nil
}

func (l *memLibrary) Image(path string) (*assets.RGBA, error) {
	img, ok := l.images[path]
	if !ok {
		return nil, fmt.Errorf("image %s not found", path)
	}
	return img, nil
}

func (l *memLibrary) Exists(path string) bool {
	_, sOK := l.shaders[path]
	_, iOK := l.images[path]
	return sOK || iOK
}

func solidRGBA(w, h int) *assets.RGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	return &assets.RGBA{Pix: img.Pix, Width: w, Height: h}
}

func testManager(t *testing.T, s *config.Settings) (*Manager, *glx.Fake, *memLibrary) {
	t.Helper()
	dev := glx.NewFake()
	lib := newMemLibrary()
	lib.shaders["matrix.frag.glsl"] = "void mainImage(out vec4 c, vec2 f) { c = vec4(0.0); }"
	lib.shaders["album.frag.glsl"] = "void mainImage(out vec4 c, vec2 f) { c = vec4(1.0); }"
	lib.images["textures/logo.png"] = solidRGBA(4, 4)
	lib.images["textures/noise.png"] = solidRGBA(8, 8)
	lib.images["textures/album.png"] = solidRGBA(2, 2)
	if s == nil {
		s = config.Defaults()
	}
	m := NewManager(ManagerConfig{
		Device:   dev,
		Assets:   lib,
		Settings: s,
		Catalog:  Default(),
		Log:      log.New(&bytes.Buffer{}, "", 0),
	})
	return m, dev, lib
}

func seed() []byte { return make([]byte, dsp.BufferSize) }

func TestLaunchBuildsChannelTextures(t *testing.T) {
	m, dev, _ := testManager(t, nil)
	if err := m.Launch(0, seed()); err != nil {
		t.Fatalf("Launch: %v", err)
	}

	if m.FragmentSource() == "" {
		t.Fatal("fragment source should be resolved")
	}

	set := m.ChannelTextures(0)
	if set[0] == 0 || set[1] == 0 || set[2] == 0 {
		t.Fatalf("channels 0..2 should be bound, got %v", set)
	}
	if set[3] != 0 {
		t.Fatalf("channel 3 of the first preset must stay unbound, got %d", set[3])
	}

	audioTex := dev.Textures[set[0]]
	if audioTex.Format != glx.FormatRed || audioTex.W != dsp.Bands || audioTex.H != 2 {
		t.Fatalf("audio texture = %+v, want RED %dx2", audioTex, dsp.Bands)
	}
	noiseTex := dev.Textures[set[2]]
	if noiseTex.Wrap != glx.WrapRepeat {
		t.Fatal("noise texture must repeat")
	}
	logoTex := dev.Textures[set[1]]
	if logoTex.Wrap != glx.WrapClampToEdge {
		t.Fatal("logo texture must clamp to edge")
	}

	flags := m.AudioChannels()
	if !flags[0] || flags[1] || flags[2] || flags[3] {
		t.Fatalf("audio flags=%v want only channel 0", flags)
	}
}

func TestRelaunchTearsDownPreviousEpoch(t *testing.T) {
	m, dev, _ := testManager(t, nil)
	if err := m.Launch(0, seed()); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	first := len(dev.Textures)

	if err := m.Launch(1, seed()); err != nil {
		t.Fatalf("relaunch: %v", err)
	}
	// Four textures now (audio, logo, noise, album); the earlier three
	// are gone.
	if len(dev.Textures) != 4 {
		t.Fatalf("live textures=%d want=4 (first epoch had %d)", len(dev.Textures), first)
	}
	if m.ActivePreset() != 1 {
		t.Fatalf("ActivePreset=%d want=1", m.ActivePreset())
	}
}

func TestLaunchPersistsPresetIndex(t *testing.T) {
	s := config.Defaults()
	m, _, _ := testManager(t, s)
	if err := m.Launch(1, seed()); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if s.LastPresetIndex != 1 {
		t.Fatalf("LastPresetIndex=%d want=1", s.LastPresetIndex)
	}
}

func TestLaunchMissingShaderDegrades(t *testing.T) {
	m, _, lib := testManager(t, nil)
	delete(lib.shaders, "matrix.frag.glsl")

	if err := m.Launch(0, seed()); err == nil {
		t.Fatal("expected launch failure for missing shader")
	}
	if m.FragmentSource() != "" {
		t.Fatal("failed launch must leave no fragment source")
	}
}

func TestLaunchMissingImageLeavesChannelUnbound(t *testing.T) {
	m, _, lib := testManager(t, nil)
	delete(lib.images, "textures/logo.png")

	if err := m.Launch(0, seed()); err != nil {
		t.Fatalf("missing image must not fail the launch: %v", err)
	}
	set := m.ChannelTextures(0)
	if set[1] != 0 {
		t.Fatal("channel 1 should be unbound after decode failure")
	}
	if set[2] == 0 {
		t.Fatal("other channels should still load")
	}
}

func TestOverrideModeDisablesCatalog(t *testing.T) {
	s := config.Defaults()
	s.OwnShader = true
	s.Shader = "custom.frag.glsl"
	s.Channels[0].Audio = true
	m, dev, lib := testManager(t, s)
	lib.shaders["custom.frag.glsl"] = "void mainImage(out vec4 c, vec2 f) {}"

	if !m.Override() {
		t.Fatal("override mode expected")
	}
	if m.ActivePreset() != -1 {
		t.Fatalf("ActivePreset=%d want=-1 in override mode", m.ActivePreset())
	}
	if m.Presets() != nil {
		t.Fatal("Presets must be empty in override mode")
	}

	if err := m.Launch(0, seed()); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	set := m.ChannelTextures(0)
	if set[0] == 0 {
		t.Fatal("audio-flagged override channel should be bound")
	}
	if tex := dev.Textures[set[0]]; tex.Format != glx.FormatRed {
		t.Fatal("override audio channel must use the audio texture format")
	}
}

func TestOverrideChannelZeroAlwaysAudio(t *testing.T) {
	s := config.Defaults()
	s.OwnShader = true
	s.Shader = "custom.frag.glsl"
	// No channel flags set at all: channel 0 must still carry audio.
	m, dev, lib := testManager(t, s)
	lib.shaders["custom.frag.glsl"] = "void mainImage(out vec4 c, vec2 f) {}"

	if err := m.Launch(0, seed()); err != nil {
		t.Fatalf("Launch: %v", err)
	}

	set := m.ChannelTextures(0)
	if set[0] == 0 {
		t.Fatal("channel 0 should be bound without an explicit audio flag")
	}
	if tex := dev.Textures[set[0]]; tex.Format != glx.FormatRed || tex.W != dsp.Bands || tex.H != 2 {
		t.Fatalf("channel 0 texture = %+v, want RED %dx2", tex, dsp.Bands)
	}
	flags := m.AudioChannels()
	if !flags[0] {
		t.Fatal("channel 0 must be flagged for live audio re-upload")
	}

	// An explicit texture on channel 0 does not displace the audio feed.
	s.Channels[0].Texture = "textures/logo.png"
	if err := m.Launch(0, seed()); err != nil {
		t.Fatalf("relaunch: %v", err)
	}
	if tex := dev.Textures[m.ChannelTextures(0)[0]]; tex.Format != glx.FormatRed {
		t.Fatal("channel 0 must stay the audio texture despite a texture setting")
	}
}

func TestThumbnailPath(t *testing.T) {
	p := ThumbnailPath("smb://music/Artist/cover.jpg")
	if !strings.HasPrefix(p, "special://thumbnails/") {
		t.Fatalf("prefix missing: %s", p)
	}
	rest := strings.TrimPrefix(p, "special://thumbnails/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		t.Fatalf("want two-level path, got %s", p)
	}
	if len(parts[0]) != 1 || !strings.HasPrefix(parts[1], parts[0]) {
		t.Fatalf("first level must be the hash's first hex char: %s", p)
	}
	if len(parts[1]) != 8 {
		t.Fatalf("hash must be 8 hex chars, got %q", parts[1])
	}
	// Lookup is case-insensitive on the source path.
	if p != ThumbnailPath("SMB://Music/ARTIST/cover.JPG") {
		t.Fatal("hash must be computed over the lowercased path")
	}
}

func TestSetAlbumArt(t *testing.T) {
	m, dev, lib := testManager(t, nil)
	if err := m.Launch(1, seed()); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	before := m.ChannelTextures(0)[3]

	// Neither extension cached: failure, channel keeps its texture.
	if err := m.SetAlbumArt("nowhere.flac"); err == nil {
		t.Fatal("expected lookup miss")
	}
	if got := m.ChannelTextures(0)[3]; got != before {
		t.Fatalf("channel 3 changed on miss: %d -> %d", before, got)
	}

	// Cache the png variant and retry.
	lib.images[ThumbnailPath("nowhere.flac")+".png"] = solidRGBA(3, 3)
	if err := m.SetAlbumArt("nowhere.flac"); err != nil {
		t.Fatalf("SetAlbumArt: %v", err)
	}
	after := m.ChannelTextures(0)[3]
	if after == before || after == 0 {
		t.Fatal("channel 3 should hold the new thumbnail texture")
	}
	if _, live := dev.Textures[before]; live {
		t.Fatal("previous album texture should be released")
	}
}

func TestUnloadTexturesIsIdempotent(t *testing.T) {
	m, dev, _ := testManager(t, nil)
	if err := m.Launch(0, seed()); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	m.UnloadTextures()
	m.UnloadTextures()
	if len(dev.Textures) != 0 {
		t.Fatalf("textures leaked: %v", dev.Textures)
	}
	for i, tex := range m.ChannelTextures(0) {
		if tex != 0 {
			t.Fatalf("channel %d handle=%d want=0", i, tex)
		}
	}
}
