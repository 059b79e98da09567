package emu

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/apu"
)

// Config contains settings that affect emulation behavior.
type Config struct {
	// Logger receives cartridge, reset and breakpoint events. Nil discards.
	Logger logrus.FieldLogger
	// SampleRate is the audio output rate in Hz; 0 means apu.DefaultSampleRate.
	SampleRate int
	// Palette names an entry in Palettes, or PaletteAuto to choose one from
	// the cartridge title.
	Palette string
	// Trace logs every instruction at debug level.
	Trace bool
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.Logger = l
	}
	if c.SampleRate <= 0 {
		c.SampleRate = apu.DefaultSampleRate
	}
	if c.Palette == "" {
		c.Palette = DefaultPalette
	}
}
