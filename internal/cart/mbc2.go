package cart

const mbc2RAMSize = 512

// MBC2 has a 4-bit ROM bank register and 512 half-bytes of on-chip RAM.
// Address bit 8 picks the register written in 0000-3FFF: clear for RAM
// enable, set for ROM bank.
type MBC2 struct {
	mem *storage

	ramEnabled bool
	romBank    byte // 1..15
}

func newMBC2(mem *storage) *MBC2 {
	m := &MBC2{mem: mem}
	m.Reset()
	return m
}

// NewMBC2 builds a standalone MBC2 over rom with its built-in RAM.
func NewMBC2(rom []byte) *MBC2 { return newMBC2(newStorage(rom, mbc2RAMSize)) }

func (m *MBC2) Reset() {
	m.ramEnabled = false
	m.romBank = 1
}

func (m *MBC2) Read(addr uint16) byte {
	if addr < 0x4000 {
		return m.mem.romAt(0, addr)
	}
	return m.mem.romAt(int(m.romBank), addr)
}

func (m *MBC2) Write(addr uint16, value byte) {
	if addr >= 0x4000 {
		return
	}
	if addr&0x0100 == 0 {
		m.ramEnabled = value&0x0F == 0x0A
		return
	}
	m.romBank = value & 0x0F
	if m.romBank == 0 {
		m.romBank = 1
	}
}

// ReadRAM mirrors the 512 entries across A000-BFFF; the upper nibble is open bus.
func (m *MBC2) ReadRAM(addr uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	return m.mem.ramAt(0, addr&0x01FF) | 0xF0
}

func (m *MBC2) WriteRAM(addr uint16, value byte) {
	if m.ramEnabled {
		m.mem.setRAM(0, addr&0x01FF, value&0x0F)
	}
}
