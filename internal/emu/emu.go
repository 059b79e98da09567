// Package emu ties the CPU and the bus into a Machine that runs one
// instruction at a time and drives every other component by the same
// number of T-cycles.
package emu

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/apu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/bus"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/cart"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/joypad"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/ppu"
)

// FrameCycles is the length of one video frame in T-cycles (154 lines of 456 dots).
const FrameCycles = 70224

var ErrNoCartridge = errors.New("no cartridge loaded")

type Machine struct {
	cfg Config
	log logrus.FieldLogger

	bus  *bus.Bus
	cpu  *cpu.CPU
	boot []byte

	palette string

	breakpoints map[uint16]struct{}
	resumeAt    uint16
	resuming    bool

	cycles uint64

	sink   apu.Sink
	serial io.Writer
}

func New(cfg Config) *Machine {
	cfg.applyDefaults()
	return &Machine{
		cfg:         cfg,
		log:         cfg.Logger,
		breakpoints: make(map[uint16]struct{}),
	}
}

// LoadCartridge builds a fresh bus and CPU around rom. A 256-byte boot ROM
// starts execution at 0x0000; otherwise the machine begins in the post-boot
// state at 0x0100.
func (m *Machine) LoadCartridge(rom, boot []byte) error {
	c, err := cart.New(rom)
	if err != nil {
		return fmt.Errorf("load cartridge: %w", err)
	}
	h := c.Header()
	name, shades, err := resolvePalette(m.cfg.Palette, h)
	if err != nil {
		return err
	}

	log := m.log.WithFields(logrus.Fields{
		"title":   h.Title,
		"type":    h.CartTypeStr,
		"rom_kib": h.ROMSizeBytes / 1024,
		"ram":     c.RAMSize(),
		"battery": c.HasBattery(),
		"palette": name,
	})
	if !h.Supported() {
		log.Warn("unsupported cartridge type, running as ROM only")
	}
	if !cart.HeaderChecksumOK(rom) {
		log.Warn("header checksum mismatch")
	}
	log.Info("cartridge loaded")

	m.boot = nil
	switch {
	case len(boot) == bus.BootROMSize:
		m.boot = append([]byte(nil), boot...)
	case len(boot) != 0:
		m.log.WithField("size", len(boot)).Warn("ignoring boot ROM of unexpected size")
	}

	m.bus = bus.New(c, m.cfg.SampleRate)
	m.bus.SetBootROM(m.boot)
	m.bus.SetSerialWriter(m.serial)
	m.bus.APU().SetSink(m.sink)
	m.bus.PPU().SetShades(shades)
	m.palette = name
	m.cpu = cpu.New(m.bus)
	m.Reset()
	return nil
}

// Reset reinitialises every component between two ticks. Cartridge RAM is
// kept; breakpoints stay armed.
func (m *Machine) Reset() {
	if m.bus == nil {
		return
	}
	m.bus.Reset()
	if m.boot != nil {
		m.cpu.ResetForBoot()
	} else {
		m.cpu.Reset()
	}
	m.cycles = 0
	m.resuming = false
	m.log.WithField("boot_rom", m.boot != nil).Info("machine reset")
}

// Loaded reports whether a cartridge is inserted.
func (m *Machine) Loaded() bool { return m.bus != nil }

// Step runs one CPU instruction (or interrupt dispatch, or halted idle) and
// advances the rest of the machine by the same number of T-cycles. An armed
// breakpoint at PC stops before the fetch; the next call runs past it.
func (m *Machine) Step() (int, error) {
	if m.bus == nil {
		return 0, ErrNoCartridge
	}
	pc := m.cpu.PC
	idle := m.cpu.Halted() || m.cpu.Stopped()
	if _, ok := m.breakpoints[pc]; ok && !idle && !(m.resuming && m.resumeAt == pc) {
		m.resuming, m.resumeAt = true, pc
		m.log.WithField("pc", fmt.Sprintf("%04X", pc)).Info("breakpoint hit")
		return 0, &BreakpointError{PC: pc}
	}
	m.resuming = false

	if m.cfg.Trace {
		text, _ := cpu.Disassemble(peeker{m}, pc)
		m.log.WithFields(logrus.Fields{
			"pc": fmt.Sprintf("%04X", pc),
			"af": fmt.Sprintf("%04X", m.cpu.AF()),
			"sp": fmt.Sprintf("%04X", m.cpu.SP),
		}).Debug(text)
	}

	cycles, err := m.cpu.Step()
	if err != nil {
		m.log.WithError(err).Error("execution stopped")
		return 0, fmt.Errorf("step: %w", err)
	}
	m.bus.Cycle(cycles)
	m.cycles += uint64(cycles)
	return cycles, nil
}

// StepFrame runs until the PPU publishes a frame. With the LCD off no frame
// is ever published, so the call returns after one frame's worth of cycles.
func (m *Machine) StepFrame() error {
	if m.bus == nil {
		return ErrNoCartridge
	}
	p := m.bus.PPU()
	spent := 0
	for {
		n, err := m.Step()
		if err != nil {
			return err
		}
		spent += n
		if p.FrameReady() {
			return nil
		}
		if spent >= 2*FrameCycles || (spent >= FrameCycles && p.LCDOff()) {
			return nil
		}
	}
}

// Frame is the last published RGBA frame, 160x144x4 bytes.
func (m *Machine) Frame() []byte {
	if m.bus == nil {
		return make([]byte, ppu.Width*ppu.Height*4)
	}
	return m.bus.PPU().Frame()
}

func (m *Machine) SetButtons(b joypad.Buttons) {
	if m.bus != nil {
		m.bus.Joypad().SetButtons(b)
	}
}

// SetAudioSink attaches the audio consumer; it survives cartridge loads.
func (m *Machine) SetAudioSink(s apu.Sink) {
	m.sink = s
	if m.bus != nil {
		m.bus.APU().SetSink(s)
	}
}

// FlushAudio pushes buffered samples to the sink now.
func (m *Machine) FlushAudio() {
	if m.bus != nil {
		m.bus.APU().Flush()
	}
}

// SetSerialWriter receives bytes written out of the serial port. Test ROMs
// report results this way.
func (m *Machine) SetSerialWriter(w io.Writer) {
	m.serial = w
	if m.bus != nil {
		m.bus.SetSerialWriter(w)
	}
}

// SetPalette switches the DMG shade palette by name.
func (m *Machine) SetPalette(name string) error {
	var h *cart.Header
	if m.bus != nil {
		h = m.bus.Cart().Header()
	}
	resolved, shades, err := resolvePalette(name, h)
	if err != nil {
		return err
	}
	m.cfg.Palette = name
	m.palette = resolved
	if m.bus != nil {
		m.bus.PPU().SetShades(shades)
	}
	return nil
}

// Palette is the name of the palette in use.
func (m *Machine) Palette() string { return m.palette }

func (m *Machine) Header() *cart.Header {
	if m.bus == nil {
		return nil
	}
	return m.bus.Cart().Header()
}

// HasBattery reports whether the cartridge RAM should be persisted.
func (m *Machine) HasBattery() bool {
	return m.bus != nil && m.bus.Cart().HasBattery()
}

// RAM returns a copy of the external cartridge RAM.
func (m *Machine) RAM() []byte {
	if m.bus == nil {
		return nil
	}
	return m.bus.Cart().RAM()
}

// SetRAM loads a save dump into cartridge RAM and clears the dirty flag.
func (m *Machine) SetRAM(data []byte) {
	if m.bus != nil {
		m.bus.Cart().SetRAM(data)
	}
}

func (m *Machine) RAMDirty() bool {
	return m.bus != nil && m.bus.Cart().Dirty()
}

// ConsumeRAMDirty reports and clears the dirty flag.
func (m *Machine) ConsumeRAMDirty() bool {
	return m.bus != nil && m.bus.Cart().ConsumeDirty()
}

// Cycles is the number of T-cycles run since the last reset.
func (m *Machine) Cycles() uint64 { return m.cycles }
