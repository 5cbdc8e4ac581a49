package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.OwnShader {
		t.Fatal("fresh settings must not pin a shader")
	}
	if s.LastPresetIndex != 0 {
		t.Fatalf("LastPresetIndex=%d want=0", s.LastPresetIndex)
	}
	if s.TargetFPS != 40 {
		t.Fatalf("TargetFPS=%v want=40", s.TargetFPS)
	}
}

func TestSetLastPresetRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetLastPreset(1); err != nil {
		t.Fatalf("SetLastPreset: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.LastPresetIndex != 1 {
		t.Fatalf("LastPresetIndex=%d want=1", reloaded.LastPresetIndex)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestUnboundSettingsSaveIsNoop(t *testing.T) {
	s := Defaults()
	if err := s.SetLastPreset(3); err != nil {
		t.Fatalf("in-memory save should succeed: %v", err)
	}
	if s.LastPresetIndex != 3 {
		t.Fatalf("LastPresetIndex=%d want=3", s.LastPresetIndex)
	}
}
