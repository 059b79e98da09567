package cart

// ROMOnly is a cartridge without a bank controller. Types 0x08/0x09 carry up
// to 8 KiB of RAM that is always enabled.
type ROMOnly struct {
	mem *storage
}

func newROMOnly(mem *storage) *ROMOnly { return &ROMOnly{mem: mem} }

// NewROMOnly wraps a bare image without RAM.
func NewROMOnly(rom []byte) *ROMOnly { return newROMOnly(newStorage(rom, 0)) }

func (c *ROMOnly) Read(addr uint16) byte {
	if addr < 0x4000 {
		return c.mem.romAt(0, addr)
	}
	return c.mem.romAt(1, addr)
}

func (c *ROMOnly) Write(addr uint16, value byte) {}

func (c *ROMOnly) ReadRAM(addr uint16) byte { return c.mem.ramAt(0, addr) }

func (c *ROMOnly) WriteRAM(addr uint16, value byte) { c.mem.setRAM(0, addr, value) }

func (c *ROMOnly) Reset() {}
