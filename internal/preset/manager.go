package preset

import (
	"fmt"
	"hash/crc32"
	"log"
	"os"
	"strings"

	"github.com/meonBot/visualization.matrix/internal/assets"
	"github.com/meonBot/visualization.matrix/internal/config"
	"github.com/meonBot/visualization.matrix/internal/dsp"
	"github.com/meonBot/visualization.matrix/internal/glx"
)

// ManagerConfig wires a Manager to its collaborators.
type ManagerConfig struct {
	Device   glx.Device
	Assets   assets.Library
	Settings *config.Settings
	Catalog  Catalog
	Log      *log.Logger
}

// Manager owns the active shader source and the four channel textures.
// Every (re)load tears the previous epoch's textures down before the new
// ones are created; teardown is idempotent.
type Manager struct {
	dev      glx.Device
	assets   assets.Library
	settings *config.Settings
	catalog  Catalog
	log      *log.Logger

	current  int
	override bool

	channels [4]Channel
	textures [4]glx.Texture
	fragment string
}

// NewManager builds a Manager. In override mode (a pinned custom shader)
// the catalog is ignored and every preset operation is a no-op.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "[preset] ", log.LstdFlags)
	}
	m := &Manager{
		dev:      cfg.Device,
		assets:   cfg.Assets,
		settings: cfg.Settings,
		catalog:  cfg.Catalog,
		log:      cfg.Log,
		override: cfg.Settings != nil && cfg.Settings.OwnShader,
		current:  -1,
	}
	if !m.override && cfg.Settings != nil {
		m.current = m.catalog.Normalize(cfg.Settings.LastPresetIndex)
	}
	return m
}

// Override reports whether a pinned custom shader is configured.
func (m *Manager) Override() bool { return m.override }

// ActivePreset returns the catalog index of the running preset, or -1 in
// override mode.
func (m *Manager) ActivePreset() int {
	if m.override {
		return -1
	}
	return m.current
}

// Presets lists the catalog names; empty in override mode.
func (m *Manager) Presets() []string {
	if m.override {
		return nil
	}
	return m.catalog.Names()
}

// FragmentSource is the resolved fragment shader of the active epoch, or
// "" when the last load failed.
func (m *Manager) FragmentSource() string { return m.fragment }

// Launch resolves the shader source and channel bindings for the given
// catalog index (ignored in override mode), rebuilds the channel
// textures, and persists the index. audioSeed provides the initial audio
// texture contents.
func (m *Manager) Launch(index int, audioSeed []byte) error {
	var shaderRef string
	if m.override {
		shaderRef = m.settings.Shader
		for i := range m.channels {
			m.channels[i] = overrideChannel(m.settings.Channels[i])
		}
		// Channel 0 carries the live audio texture no matter what the
		// override channel settings say.
		m.channels[0] = Channel{Kind: ChannelAudio}
	} else {
		index = m.catalog.Normalize(index)
		p := m.catalog.Presets[index]
		shaderRef = p.Shader
		m.channels = p.Channels
		m.current = index
		if err := m.settings.SetLastPreset(index); err != nil {
			m.log.Printf("persist preset index: %v", err)
		}
	}

	m.UnloadTextures()
	m.fragment = ""

	src, err := m.assets.ShaderSource(shaderRef)
	if err != nil {
		m.log.Printf("load shader %s: %v", shaderRef, err)
		return fmt.Errorf("launch: %w", err)
	}
	m.fragment = src

	for i, ch := range m.channels {
		switch ch.Kind {
		case ChannelAudio:
			tex, err := m.dev.NewTexture(glx.FormatRed, dsp.Bands, 2, audioSeed, glx.FilterLinear, glx.WrapClampToEdge)
			if err != nil {
				m.log.Printf("audio texture: %v", err)
				continue
			}
			m.textures[i] = tex
		case ChannelTexture:
			tex, err := m.loadImageTexture(ch.Asset, ch.Wrap)
			if err != nil {
				// Degrade: the channel stays unbound, the preset
				// still renders.
				m.log.Printf("channel %d texture %s: %v", i, ch.Asset, err)
				continue
			}
			m.textures[i] = tex
		}
	}
	return nil
}

func overrideChannel(s config.ChannelSetting) Channel {
	if s.Audio {
		return Channel{Kind: ChannelAudio}
	}
	if s.Texture != "" {
		return Channel{Kind: ChannelTexture, Asset: s.Texture, Wrap: glx.WrapRepeat}
	}
	return Channel{Kind: ChannelNone}
}

func (m *Manager) loadImageTexture(path string, wrap glx.Wrap) (glx.Texture, error) {
	img, err := m.assets.Image(path)
	if err != nil {
		return 0, err
	}
	return m.dev.NewTexture(glx.FormatRGBA, img.Width, img.Height, img.Pix, glx.FilterLinear, wrap)
}

// ChannelTextures assembles the per-frame texture set, substituting the
// current feedback target for feedback-bound channels.
func (m *Manager) ChannelTextures(feedback glx.Texture) [4]glx.Texture {
	set := m.textures
	for i, ch := range m.channels {
		if ch.Kind == ChannelFeedback {
			set[i] = feedback
		}
	}
	return set
}

// AudioChannels flags the channels that carry the live audio texture and
// need re-upload when the payload is dirty.
func (m *Manager) AudioChannels() [4]bool {
	var audio [4]bool
	for i, ch := range m.channels {
		audio[i] = ch.Kind == ChannelAudio
	}
	return audio
}

// SetAlbumArt derives the two-level hashed thumbnail path for the given
// album-art path and loads whichever of .png/.jpg exists into channel 3.
// On any failure channel 3 keeps its prior texture.
func (m *Manager) SetAlbumArt(path string) error {
	thumb := ThumbnailPath(path)

	var found string
	for _, ext := range []string{".png", ".jpg"} {
		if m.assets.Exists(thumb + ext) {
			found = thumb + ext
			break
		}
	}
	if found == "" {
		return fmt.Errorf("no thumbnail for %s", path)
	}

	tex, err := m.loadImageTexture(found, glx.WrapClampToEdge)
	if err != nil {
		return fmt.Errorf("album art %s: %w", found, err)
	}
	if m.textures[3] != 0 {
		m.dev.DeleteTexture(m.textures[3])
	}
	m.textures[3] = tex
	m.channels[3] = Channel{Kind: ChannelTexture, Asset: found, Wrap: glx.WrapClampToEdge}
	return nil
}

// ThumbnailPath maps an album-art path to its cached thumbnail location:
// special://thumbnails/<first hex char>/<crc32 of the lowercased path>.
func ThumbnailPath(path string) string {
	sum := crc32.ChecksumIEEE([]byte(strings.ToLower(path)))
	hashed := fmt.Sprintf("%08x", sum)
	return "special://thumbnails/" + hashed[:1] + "/" + hashed
}

// UnloadTextures releases every channel texture; safe to call repeatedly.
func (m *Manager) UnloadTextures() {
	for i, tex := range m.textures {
		if tex != 0 {
			m.dev.DeleteTexture(tex)
			m.textures[i] = 0
		}
	}
}
