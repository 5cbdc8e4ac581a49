// Package preset resolves which shader program and which channel
// textures are active, and owns their GPU lifecycles across reloads.
package preset

import "github.com/meonBot/visualization.matrix/internal/glx"

// ChannelKind says where a channel texture comes from.
type ChannelKind int

const (
	// ChannelNone leaves the channel unbound.
	ChannelNone ChannelKind = iota
	// ChannelAudio binds the live 512x2 audio texture.
	ChannelAudio
	// ChannelTexture binds a static decoded image asset.
	ChannelTexture
	// ChannelFeedback binds the previous effect-pass render target.
	ChannelFeedback
)

// Channel is one of the four texture bindings of a preset.
type Channel struct {
	Kind  ChannelKind
	Asset string
	Wrap  glx.Wrap
}

// Preset is an immutable descriptor of a selectable visualization.
type Preset struct {
	Name     string
	Shader   string
	Channels [4]Channel
}

// Catalog is the static preset table, injected at startup and never
// mutated at runtime.
type Catalog struct {
	Presets []Preset
}

// Default returns the built-in catalog. Channel 0 is always the live
// audio texture; logo-style assets clamp, tileable noise repeats.
func Default() Catalog {
	return Catalog{Presets: []Preset{
		{
			Name:   "Matrix",
			Shader: "matrix.frag.glsl",
			Channels: [4]Channel{
				{Kind: ChannelAudio},
				{Kind: ChannelTexture, Asset: "textures/logo.png", Wrap: glx.WrapClampToEdge},
				{Kind: ChannelTexture, Asset: "textures/noise.png", Wrap: glx.WrapRepeat},
				{Kind: ChannelNone},
			},
		},
		{
			Name:   "Album",
			Shader: "album.frag.glsl",
			Channels: [4]Channel{
				{Kind: ChannelAudio},
				{Kind: ChannelTexture, Asset: "textures/logo.png", Wrap: glx.WrapClampToEdge},
				{Kind: ChannelTexture, Asset: "textures/noise.png", Wrap: glx.WrapRepeat},
				{Kind: ChannelTexture, Asset: "textures/album.png", Wrap: glx.WrapRepeat},
			},
		},
	}}
}

// Names lists the presets in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c.Presets))
	for i, p := range c.Presets {
		names[i] = p.Name
	}
	return names
}

// Len returns the preset count.
func (c Catalog) Len() int { return len(c.Presets) }

// Normalize folds any index, including negatives, into [0, len).
func (c Catalog) Normalize(index int) int {
	n := len(c.Presets)
	if n == 0 {
		return 0
	}
	return ((index % n) + n) % n
}

// Next returns the index after i, wrapping to 0.
func (c Catalog) Next(i int) int { return c.Normalize(i + 1) }

// Previous returns the index before i. A plain signed modulo would go
// negative when wrapping past zero, so the result is normalized.
func (c Catalog) Previous(i int) int { return c.Normalize(i - 1) }
