// Package config holds front-end settings. They can be loaded from a YAML
// file and are completed with defaults afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/emu"
)

// Keys maps each Game Boy button to a host key name (ebiten spelling, e.g.
// "ArrowUp", "Z", "Enter").
type Keys struct {
	Up     string `yaml:"up"`
	Down   string `yaml:"down"`
	Left   string `yaml:"left"`
	Right  string `yaml:"right"`
	A      string `yaml:"a"`
	B      string `yaml:"b"`
	Start  string `yaml:"start"`
	Select string `yaml:"select"`
}

// Config contains window, audio, input and persistence settings.
type Config struct {
	Title      string  `yaml:"title"`
	Scale      int     `yaml:"scale"`   // integer upscaling factor
	Palette    string  `yaml:"palette"` // shade palette name or "auto"
	SampleRate int     `yaml:"sample_rate"`
	Volume     float64 `yaml:"volume"` // 0..1, 0 is silent
	Mute       bool    `yaml:"mute"`
	// AudioLowLatency halves the player buffer.
	AudioLowLatency bool `yaml:"audio_low_latency"`
	// FastForward is the number of frames run per tick while Tab is held.
	FastForward   int           `yaml:"fast_forward"`
	SaveInterval  time.Duration `yaml:"save_interval"` // battery flush period
	ScreenshotDir string        `yaml:"screenshot_dir"`
	Keys          Keys          `yaml:"keys"`
}

const defaultVolume = 0.8

// Default returns a fully populated configuration.
func Default() Config {
	c := Config{Volume: defaultVolume}
	c.Defaults()
	return c
}

// Defaults fills missing fields with reasonable defaults. Volume is left
// alone since zero is a valid setting; Load starts from Default instead.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbcycle"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.Palette == "" {
		c.Palette = emu.DefaultPalette
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 48000
	}
	if c.FastForward <= 0 {
		c.FastForward = 5
	}
	if c.SaveInterval <= 0 {
		c.SaveInterval = 5 * time.Second
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "."
	}
	k := &c.Keys
	setDefault(&k.Up, "ArrowUp")
	setDefault(&k.Down, "ArrowDown")
	setDefault(&k.Left, "ArrowLeft")
	setDefault(&k.Right, "ArrowRight")
	setDefault(&k.A, "Z")
	setDefault(&k.B, "X")
	setDefault(&k.Start, "Enter")
	setDefault(&k.Select, "ShiftRight")
}

func setDefault(s *string, v string) {
	if *s == "" {
		*s = v
	}
}

// Validate rejects values the front-end cannot honour.
func (c *Config) Validate() error {
	var errs []error
	if c.Scale < 1 || c.Scale > 10 {
		errs = append(errs, fmt.Errorf("scale %d out of range 1..10", c.Scale))
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate %d out of range 8000..192000", c.SampleRate))
	}
	if c.Volume < 0 || c.Volume > 1 {
		errs = append(errs, fmt.Errorf("volume %.2f out of range 0..1", c.Volume))
	}
	if !knownPalette(c.Palette) {
		errs = append(errs, fmt.Errorf("palette %q: %w", c.Palette, emu.ErrUnknownPalette))
	}
	return errors.Join(errs...)
}

func knownPalette(name string) bool {
	for _, n := range emu.PaletteNames() {
		if n == name {
			return true
		}
	}
	return false
}

// Override applies command-line values on top of a loaded configuration and
// validates the result. Empty or zero arguments leave the field unchanged.
func (c *Config) Override(palette string, scale int) error {
	if palette != "" {
		c.Palette = palette
	}
	if scale != 0 {
		c.Scale = scale
	}
	return c.Validate()
}

// Load reads a YAML file over the defaults, so keys missing from the file
// keep their default values. An empty path yields the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("config %s: %w", path, err)
		}
	}
	c.Defaults()
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Save writes c as YAML.
func Save(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
