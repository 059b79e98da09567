package cart

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// storage is the ROM image and external RAM shared by a Cartridge and its MBC.
// Every offset is wrapped by the real buffer length so undersized images
// never index out of range.
type storage struct {
	rom   []byte
	ram   []byte
	dirty bool
}

func newStorage(rom []byte, ramSize int) *storage {
	s := &storage{rom: rom}
	if ramSize > 0 {
		s.ram = make([]byte, ramSize)
	}
	return s
}

func (s *storage) romAt(bank int, addr uint16) byte {
	if len(s.rom) == 0 {
		return 0xFF
	}
	off := bank*romBankSize + int(addr&0x3FFF)
	return s.rom[off%len(s.rom)]
}

func (s *storage) ramOffset(bank int, addr uint16) int {
	return (bank*ramBankSize + int(addr&0x1FFF)) % len(s.ram)
}

func (s *storage) ramAt(bank int, addr uint16) byte {
	if len(s.ram) == 0 {
		return 0xFF
	}
	return s.ram[s.ramOffset(bank, addr)]
}

func (s *storage) setRAM(bank int, addr uint16, v byte) {
	if len(s.ram) == 0 {
		return
	}
	off := s.ramOffset(bank, addr)
	if s.ram[off] != v {
		s.ram[off] = v
		s.dirty = true
	}
}

// sizeROM copies rom into a buffer of the declared size, padding with 0xFF or
// truncating. An unknown size code rounds the image up to whole banks.
func sizeROM(rom []byte, declared int) []byte {
	if declared <= 0 {
		declared = (len(rom) + romBankSize - 1) / romBankSize * romBankSize
		if declared < 2*romBankSize {
			declared = 2 * romBankSize
		}
	}
	out := make([]byte, declared)
	n := copy(out, rom)
	for i := n; i < len(out); i++ {
		out[i] = 0xFF
	}
	return out
}
