package cart

import "fmt"

// MBC translates CPU addresses into ROM and external RAM bytes through its
// bank-select registers. Addresses are CPU addresses.
type MBC interface {
	// Read returns a ROM byte for 0x0000-0x7FFF.
	Read(addr uint16) byte
	// Write handles bank and control register writes in 0x0000-0x7FFF.
	Write(addr uint16, value byte)
	// ReadRAM returns an external RAM (or RTC) byte for 0xA000-0xBFFF.
	ReadRAM(addr uint16) byte
	// WriteRAM stores into external RAM (or RTC) for 0xA000-0xBFFF.
	WriteRAM(addr uint16, value byte)
	// Reset returns the bank registers to their power-on values.
	Reset()
}

// Cartridge owns the ROM image, the external RAM and the MBC selected by the
// header. It is built once per ROM and lives for the rest of the process.
type Cartridge struct {
	header *Header
	mem    *storage
	mbc    MBC
}

// New parses the header and builds the matching MBC. The ROM is padded or
// truncated to the size coded at 0x0148.
func New(rom []byte) (*Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, fmt.Errorf("cartridge: %w", err)
	}
	// The 0x0149 code is ignored when the type byte has no RAM.
	ramSize := 0
	switch {
	case h.Kind == KindMBC2:
		ramSize = mbc2RAMSize
	case h.HasRAM:
		ramSize = h.RAMSizeBytes
	}
	mem := newStorage(sizeROM(rom, h.ROMSizeBytes), ramSize)
	c := &Cartridge{header: h, mem: mem}
	switch h.Kind {
	case KindMBC1:
		c.mbc = newMBC1(mem)
	case KindMBC2:
		c.mbc = newMBC2(mem)
	case KindMBC3:
		c.mbc = newMBC3(mem)
	case KindMBC5:
		c.mbc = newMBC5(mem)
	default:
		c.mbc = newROMOnly(mem)
	}
	return c, nil
}

// Read serves ROM (0x0000-0x7FFF) and external RAM (0xA000-0xBFFF).
func (c *Cartridge) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		return c.mbc.Read(addr)
	case addr >= 0xA000 && addr < 0xC000:
		return c.mbc.ReadRAM(addr)
	}
	return 0xFF
}

// Write routes MBC register writes and external RAM writes.
func (c *Cartridge) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		c.mbc.Write(addr, value)
	case addr >= 0xA000 && addr < 0xC000:
		c.mbc.WriteRAM(addr, value)
	}
}

func (c *Cartridge) Header() *Header { return c.header }
func (c *Cartridge) MBC() MBC        { return c.mbc }
func (c *Cartridge) Reset()          { c.mbc.Reset() }

// HasBattery reports whether external RAM survives power-off on real hardware.
func (c *Cartridge) HasBattery() bool { return c.header.Battery && len(c.mem.ram) > 0 }

// RAMSize is the length of the flat RAM dump returned by RAM.
func (c *Cartridge) RAMSize() int { return len(c.mem.ram) }

// RAM returns a copy of external RAM.
func (c *Cartridge) RAM() []byte {
	if len(c.mem.ram) == 0 {
		return nil
	}
	out := make([]byte, len(c.mem.ram))
	copy(out, c.mem.ram)
	return out
}

// SetRAM loads a RAM dump. Shorter dumps fill a prefix; longer ones are cut.
func (c *Cartridge) SetRAM(data []byte) {
	copy(c.mem.ram, data)
	c.mem.dirty = false
}

// Dirty reports whether RAM changed since the last ConsumeDirty.
func (c *Cartridge) Dirty() bool { return c.mem.dirty }

// ConsumeDirty returns the dirty flag and clears it.
func (c *Cartridge) ConsumeDirty() bool {
	d := c.mem.dirty
	c.mem.dirty = false
	return d
}
