package cart

// MBC5 supports up to 8 MiB of ROM through a 9-bit bank and 128 KiB of RAM.
// Unlike MBC1 it does not remap bank 0 in the switchable slot.
type MBC5 struct {
	mem *storage

	romBank    uint16 // 9 bits
	ramBank    byte   // 0..15
	ramEnabled bool
}

func newMBC5(mem *storage) *MBC5 {
	m := &MBC5{mem: mem}
	m.Reset()
	return m
}

// NewMBC5 builds a standalone MBC5 over rom with ramSize bytes of RAM.
func NewMBC5(rom []byte, ramSize int) *MBC5 { return newMBC5(newStorage(rom, ramSize)) }

func (m *MBC5) Reset() {
	m.romBank = 1
	m.ramBank = 0
	m.ramEnabled = false
}

func (m *MBC5) Read(addr uint16) byte {
	if addr < 0x4000 {
		return m.mem.romAt(0, addr)
	}
	return m.mem.romAt(int(m.romBank), addr)
}

func (m *MBC5) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x3000:
		m.romBank = m.romBank&0x100 | uint16(value)
	case addr < 0x4000:
		m.romBank = m.romBank&0x0FF | uint16(value&0x01)<<8
	case addr < 0x6000:
		m.ramBank = value & 0x0F
	}
}

func (m *MBC5) ReadRAM(addr uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	return m.mem.ramAt(int(m.ramBank), addr)
}

func (m *MBC5) WriteRAM(addr uint16, value byte) {
	if m.ramEnabled {
		m.mem.setRAM(int(m.ramBank), addr, value)
	}
}
