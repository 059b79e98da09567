package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/emu"
)

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Scale != 3 || c.SampleRate != 48000 || c.Palette != emu.DefaultPalette {
		t.Fatalf("defaults got %+v", c)
	}
	if c.Keys.A != "Z" || c.Keys.Select != "ShiftRight" {
		t.Fatalf("default keys got %+v", c.Keys)
	}
	if c.SaveInterval != 5*time.Second {
		t.Fatalf("save interval got %v", c.SaveInterval)
	}
}

func TestLoad_YAMLOverridesAndDefaultsRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gbcycle.yaml")
	yml := `
scale: 4
palette: green
volume: 0.5
save_interval: 30s
keys:
  a: K
  b: J
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Scale != 4 || c.Palette != "green" || c.Volume != 0.5 {
		t.Fatalf("overrides got %+v", c)
	}
	if c.SaveInterval != 30*time.Second {
		t.Fatalf("save interval got %v", c.SaveInterval)
	}
	if c.Keys.A != "K" || c.Keys.B != "J" || c.Keys.Start != "Enter" {
		t.Fatalf("keys got %+v", c.Keys)
	}
}

func TestLoad_AutoPaletteAccepted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	os.WriteFile(path, []byte("palette: auto\n"), 0o644)
	if _, err := Load(path); err != nil {
		t.Fatalf("auto palette rejected: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	os.WriteFile(path, []byte("scale: 40\npalette: neon\n"), 0o644)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !errors.Is(err, emu.ErrUnknownPalette) {
		t.Fatalf("error %v should wrap ErrUnknownPalette", err)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	os.WriteFile(path, []byte("scale: [1, 2\n"), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v want ErrNotExist", err)
	}
}

func TestLoad_ExplicitZeroVolume(t *testing.T) {
	dir := t.TempDir()
	silent := filepath.Join(dir, "silent.yaml")
	os.WriteFile(silent, []byte("volume: 0\n"), 0o644)
	c, err := Load(silent)
	if err != nil {
		t.Fatal(err)
	}
	if c.Volume != 0 || c.Mute {
		t.Fatalf("volume 0 got volume=%v mute=%v", c.Volume, c.Mute)
	}

	unset := filepath.Join(dir, "unset.yaml")
	os.WriteFile(unset, []byte("scale: 2\n"), 0o644)
	if c, err = Load(unset); err != nil {
		t.Fatal(err)
	}
	if c.Volume != defaultVolume {
		t.Fatalf("missing volume got %v want %v", c.Volume, defaultVolume)
	}
}

func TestOverride(t *testing.T) {
	c := Default()
	if err := c.Override("green", 5); err != nil {
		t.Fatalf("valid override: %v", err)
	}
	if c.Palette != "green" || c.Scale != 5 {
		t.Fatalf("override got palette %q scale %d", c.Palette, c.Scale)
	}
	if err := c.Override("", 0); err != nil || c.Scale != 5 {
		t.Fatalf("empty override changed scale to %d: %v", c.Scale, err)
	}
	if err := c.Override("", 50); err == nil {
		t.Fatalf("scale 50 passed validation")
	}
	c = Default()
	if err := c.Override("neon", 0); !errors.Is(err, emu.ErrUnknownPalette) {
		t.Fatalf("unknown palette error got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	want := Default()
	want.Scale = 2
	want.Keys.Start = "Space"
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("round trip got %+v want %+v", got, want)
	}
}
