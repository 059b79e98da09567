// Package joypad models the P1 register (0xFF00). Lines are active-low: a
// pressed button reads as 0 on whichever nibble is selected.
package joypad

import "github.com/FabianRolfMatthiasNoll/gbcycle/internal/interrupt"

// Buttons is one input snapshot from the host.
type Buttons struct {
	Right, Left, Up, Down bool
	A, B, Select, Start   bool
}

// P1 select bits; 0 selects the group.
const (
	selectDPad    byte = 1 << 4
	selectButtons byte = 1 << 5
)

type Joypad struct {
	sel     byte // bits 4-5 as last written
	buttons Buttons
	irq     byte
}

func New() *Joypad {
	j := &Joypad{}
	j.Reset()
	return j
}

// Reset deselects both groups and releases every button.
func (j *Joypad) Reset() {
	j.sel = selectDPad | selectButtons
	j.buttons = Buttons{}
	j.irq = 0
}

func bit(pressed bool, n uint) byte {
	if pressed {
		return 0
	}
	return 1 << n
}

func (j *Joypad) lines() byte {
	v := byte(0x0F)
	b := j.buttons
	if j.sel&selectDPad == 0 {
		v &= bit(b.Right, 0) | bit(b.Left, 1) | bit(b.Up, 2) | bit(b.Down, 3) | 0xF0
	}
	if j.sel&selectButtons == 0 {
		v &= bit(b.A, 0) | bit(b.B, 1) | bit(b.Select, 2) | bit(b.Start, 3) | 0xF0
	}
	return v & 0x0F
}

// Read returns P1; bits 6-7 are unused and read as 1.
func (j *Joypad) Read() byte {
	return 0xC0 | j.sel | j.lines()
}

func (j *Joypad) Write(v byte) {
	before := j.lines()
	j.sel = v & (selectDPad | selectButtons)
	j.raiseOnFall(before)
}

// SetButtons latches a new snapshot and requests the joypad interrupt when a
// visible line goes from high to low.
func (j *Joypad) SetButtons(b Buttons) {
	before := j.lines()
	j.buttons = b
	j.raiseOnFall(before)
}

func (j *Joypad) Buttons() Buttons { return j.buttons }

func (j *Joypad) raiseOnFall(before byte) {
	if before&^j.lines() != 0 {
		j.irq |= interrupt.Joypad
	}
}

// PendingInterrupts returns the interrupt bits raised since the last call.
func (j *Joypad) PendingInterrupts() byte {
	v := j.irq
	j.irq = 0
	return v
}
