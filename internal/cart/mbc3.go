package cart

// MBC3 banks up to 2 MiB of ROM and 32 KiB of RAM and carries a real-time clock.
//
//	0000-1FFF  RAM and RTC enable
//	2000-3FFF  ROM bank, 7 bits (0 selects 1)
//	4000-5FFF  RAM bank 0-3, or RTC register 08-0C
//	6000-7FFF  latch clock on a 0 then 1 write
type MBC3 struct {
	mem *storage

	ramEnabled bool
	romBank    byte
	sel        byte
	latchPrev  byte
	clock      rtc
}

func newMBC3(mem *storage) *MBC3 {
	m := &MBC3{mem: mem}
	m.clock.last = nowUnix()
	m.Reset()
	return m
}

// NewMBC3 builds a standalone MBC3 over rom with ramSize bytes of RAM.
func NewMBC3(rom []byte, ramSize int) *MBC3 { return newMBC3(newStorage(rom, ramSize)) }

// Reset clears the bank registers. The clock keeps running.
func (m *MBC3) Reset() {
	m.ramEnabled = false
	m.romBank = 1
	m.sel = 0
	m.latchPrev = 0xFF
}

func (m *MBC3) ROMBank() int { return int(m.romBank) }

func (m *MBC3) Read(addr uint16) byte {
	if addr < 0x4000 {
		return m.mem.romAt(0, addr)
	}
	return m.mem.romAt(int(m.romBank), addr)
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		m.romBank = value & 0x7F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case addr < 0x6000:
		m.sel = value & 0x0F
	case addr < 0x8000:
		if m.latchPrev == 0x00 && value == 0x01 {
			m.clock.latch()
		}
		m.latchPrev = value
	}
}

func (m *MBC3) ReadRAM(addr uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	switch {
	case m.sel <= 0x03:
		return m.mem.ramAt(int(m.sel), addr)
	case m.sel >= rtcSeconds && m.sel <= rtcDayHigh:
		return m.clock.latched[m.sel-rtcSeconds]
	}
	return 0xFF
}

func (m *MBC3) WriteRAM(addr uint16, value byte) {
	if !m.ramEnabled {
		return
	}
	switch {
	case m.sel <= 0x03:
		m.mem.setRAM(int(m.sel), addr, value)
	case m.sel >= rtcSeconds && m.sel <= rtcDayHigh:
		m.clock.set(m.sel, value)
	}
}
