package cart

// MBC1 banks up to 2 MiB of ROM and 32 KiB of RAM.
//
//	0000-1FFF  RAM enable (0x0A in the low nibble)
//	2000-3FFF  ROM bank, low 5 bits (0 selects 1)
//	4000-5FFF  upper 2 bits: ROM bank bits 5-6 or RAM bank
//	6000-7FFF  banking mode
type MBC1 struct {
	mem *storage

	ramEnabled bool
	bankLow    byte // 1..31
	bankHigh   byte // 0..3
	mode       byte // 0: simple, 1: upper bits also bank 0000-3FFF and RAM
}

func newMBC1(mem *storage) *MBC1 {
	m := &MBC1{mem: mem}
	m.Reset()
	return m
}

// NewMBC1 builds a standalone MBC1 over rom with ramSize bytes of RAM.
func NewMBC1(rom []byte, ramSize int) *MBC1 { return newMBC1(newStorage(rom, ramSize)) }

func (m *MBC1) Reset() {
	m.ramEnabled = false
	m.bankLow = 1
	m.bankHigh = 0
	m.mode = 0
}

// ROMBank is the bank mapped at 4000-7FFF. It is never 0.
func (m *MBC1) ROMBank() int { return int(m.bankHigh)<<5 | int(m.bankLow) }

func (m *MBC1) ramBank() int {
	if m.mode == 1 && len(m.mem.ram) > ramBankSize {
		return int(m.bankHigh)
	}
	return 0
}

func (m *MBC1) Read(addr uint16) byte {
	if addr < 0x4000 {
		bank := 0
		if m.mode == 1 {
			bank = int(m.bankHigh) << 5
		}
		return m.mem.romAt(bank, addr)
	}
	return m.mem.romAt(m.ROMBank(), addr)
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		m.bankLow = value & 0x1F
		if m.bankLow == 0 {
			m.bankLow = 1
		}
	case addr < 0x6000:
		m.bankHigh = value & 0x03
	case addr < 0x8000:
		m.mode = value & 0x01
	}
}

func (m *MBC1) ReadRAM(addr uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	return m.mem.ramAt(m.ramBank(), addr)
}

func (m *MBC1) WriteRAM(addr uint16, value byte) {
	if m.ramEnabled {
		m.mem.setRAM(m.ramBank(), addr, value)
	}
}
