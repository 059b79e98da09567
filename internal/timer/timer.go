// Package timer implements the DIV/TIMA/TMA/TAC block. TIMA counts falling
// edges of one divider bit, gated by the TAC enable bit, and every T-cycle is
// stepped individually so no edge is skipped.
package timer

import "github.com/FabianRolfMatthiasNoll/gbcycle/internal/interrupt"

// Register addresses.
const (
	DIV  uint16 = 0xFF04
	TIMA uint16 = 0xFF05
	TMA  uint16 = 0xFF06
	TAC  uint16 = 0xFF07
)

// postBootDivider is the internal counter value left by the DMG boot ROM.
const postBootDivider = 0xABCC

// tacBits maps TAC clock select to the divider bit whose falling edge clocks TIMA.
var tacBits = [4]uint16{1 << 9, 1 << 3, 1 << 5, 1 << 7}

type Timer struct {
	div  uint16
	tima byte
	tma  byte
	tac  byte

	irq byte
}

func New() *Timer {
	t := &Timer{}
	t.Reset()
	return t
}

// Reset restores the post-boot state.
func (t *Timer) Reset() {
	*t = Timer{div: postBootDivider}
}

// signal is the AND of the enable bit and the selected divider bit; TIMA
// increments on its 1->0 transitions.
func (t *Timer) signal() bool {
	return t.tac&0x04 != 0 && t.div&tacBits[t.tac&0x03] != 0
}

func (t *Timer) increment() {
	t.tima++
	if t.tima == 0 {
		t.tima = t.tma
		t.irq |= interrupt.Timer
	}
}

// Cycle advances the divider by n T-cycles one step at a time.
func (t *Timer) Cycle(n int) {
	for i := 0; i < n; i++ {
		before := t.signal()
		t.div++
		if before && !t.signal() {
			t.increment()
		}
	}
}

func (t *Timer) Read(addr uint16) byte {
	switch addr {
	case DIV:
		return byte(t.div >> 8)
	case TIMA:
		return t.tima
	case TMA:
		return t.tma
	case TAC:
		return t.tac | 0xF8
	}
	return 0xFF
}

func (t *Timer) Write(addr uint16, v byte) {
	switch addr {
	case DIV:
		before := t.signal()
		t.div = 0
		if before {
			t.increment()
		}
	case TIMA:
		t.tima = v
	case TMA:
		t.tma = v
	case TAC:
		before := t.signal()
		t.tac = v & 0x07
		if before && !t.signal() {
			t.increment()
		}
	}
}

// PendingInterrupts returns the interrupt bits raised since the last call.
func (t *Timer) PendingInterrupts() byte {
	v := t.irq
	t.irq = 0
	return v
}

// Divider exposes the full 16-bit internal counter.
func (t *Timer) Divider() uint16 { return t.div }
