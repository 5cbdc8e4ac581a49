// Package config holds the host-owned settings read at start and preset
// load: the pinned-shader override, per-channel texture bindings, and the
// persisted last preset index.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ChannelSetting describes one override channel: a texture path and/or
// the live-audio flag.
type ChannelSetting struct {
	Texture string `json:"texture,omitempty"`
	Audio   bool   `json:"sound,omitempty"`
}

// Settings is the persisted host configuration.
type Settings struct {
	// OwnShader pins a custom fragment shader; every preset operation
	// becomes a no-op while it is set.
	OwnShader bool   `json:"ownshader"`
	Shader    string `json:"shader,omitempty"`

	Channels [4]ChannelSetting `json:"channels"`

	LastPresetIndex int `json:"lastpresetidx"`

	// DisableTimeMask skips the precision probe and passes the raw
	// millisecond timer to shaders (bits=0 mode).
	DisableTimeMask bool `json:"notimemask,omitempty"`

	// AdaptiveResolution enables the frame-budget probe at preset load.
	AdaptiveResolution bool    `json:"adaptiveres,omitempty"`
	TargetFPS          float64 `json:"targetfps,omitempty"`

	path string
}

// Defaults returns settings for a fresh install.
func Defaults() *Settings {
	return &Settings{TargetFPS: 40}
}

// Load reads settings from path; a missing file yields defaults bound to
// that path so the first Save creates it.
func Load(path string) (*Settings, error) {
	s := Defaults()
	s.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.TargetFPS <= 0 {
		s.TargetFPS = 40
	}
	return s, nil
}

// Save writes the settings back to the path they were loaded from.
// Settings that were never bound to a file are kept in memory only.
func (s *Settings) Save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("settings dir: %w", err)
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}

// SetLastPreset records and persists the preset index so the next run
// resumes on the same preset.
func (s *Settings) SetLastPreset(index int) error {
	s.LastPresetIndex = index
	return s.Save()
}
