// Package interrupt holds the interrupt-flag bit layout shared by the CPU,
// the bus and every component that can request an interrupt.
package interrupt

// Interrupt request bits as they appear in IF (0xFF0F) and IE (0xFFFF).
const (
	VBlank  byte = 1 << 0
	LCDStat byte = 1 << 1
	Timer   byte = 1 << 2
	Serial  byte = 1 << 3
	Joypad  byte = 1 << 4

	// Mask covers the five implemented request lines.
	Mask byte = 0x1F
)

// Highest returns the bit index of the highest-priority request in pending.
// Priority follows bit order: VBlank first, Joypad last.
func Highest(pending byte) (int, bool) {
	pending &= Mask
	for bit := 0; bit < 5; bit++ {
		if pending&(1<<bit) != 0 {
			return bit, true
		}
	}
	return 0, false
}

// Vector is the fixed service address for an interrupt bit.
func Vector(bit int) uint16 { return 0x0040 + uint16(bit)*8 }
