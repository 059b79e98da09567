// Package cpu implements the SM83 core: a register file, table-driven
// decode of the primary and 0xCB-prefixed opcode sets, interrupt dispatch
// and the HALT/STOP low-power states.
package cpu

import (
	"errors"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/interrupt"
)

const (
	regIF = 0xFF0F
	regIE = 0xFFFF

	// interruptCycles is the cost of dispatching to an interrupt vector.
	interruptCycles = 20
)

// ErrUnknownOpcode is wrapped by every DecodeError.
var ErrUnknownOpcode = errors.New("unknown opcode")

// DecodeError reports an opcode byte with no entry in the primary table.
type DecodeError struct {
	PC     uint16
	Opcode byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cpu: unknown opcode %#02x at %#04x", e.Opcode, e.PC)
}

func (e *DecodeError) Unwrap() error { return ErrUnknownOpcode }

// Memory is the CPU's view of the address space. IE and IF are read and
// written through it like any other location.
type Memory interface {
	Read8(addr uint16) byte
	Write8(addr uint16, v byte)
}

type CPU struct {
	Registers

	mem Memory

	ime     bool
	eiDelay bool // EI enables IME after the following instruction
	halted  bool
	stopped bool
	haltBug bool // next opcode fetch does not advance PC
}

// New creates a CPU in the post-boot state.
func New(mem Memory) *CPU {
	c := &CPU{mem: mem}
	c.Reset()
	return c
}

// Reset loads the DMG post-boot registers and clears IME and the low-power
// states.
func (c *CPU) Reset() {
	c.Registers = postBoot
	c.ime = false
	c.eiDelay = false
	c.halted = false
	c.stopped = false
	c.haltBug = false
}

// ResetForBoot zeroes the registers so execution starts at 0x0000 inside a
// boot ROM.
func (c *CPU) ResetForBoot() {
	c.Reset()
	c.Registers = Registers{}
}

func (c *CPU) IME() bool     { return c.ime }
func (c *CPU) Halted() bool  { return c.halted }
func (c *CPU) Stopped() bool { return c.stopped }

func (c *CPU) read8(addr uint16) byte     { return c.mem.Read8(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.mem.Write8(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | hi<<8
}

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.write8(c.SP, byte(v))
	c.write8(c.SP+1, byte(v>>8))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.read8(c.SP))
	hi := uint16(c.read8(c.SP + 1))
	c.SP += 2
	return lo | hi<<8
}

// pending is IE & IF restricted to the five sources.
func (c *CPU) pending() byte {
	return c.read8(regIE) & c.read8(regIF) & interrupt.Mask
}

// Step executes one instruction, or dispatches one interrupt, or idles
// for 4 T-cycles while halted, and returns the T-cycles consumed.
func (c *CPU) Step() (int, error) {
	pending := c.pending()
	if c.halted || c.stopped {
		if pending == 0 {
			return 4, nil
		}
		c.halted, c.stopped = false, false
	}

	if c.ime && pending != 0 {
		return c.dispatch(pending), nil
	}

	enableIME := c.eiDelay
	c.eiDelay = false

	pc := c.PC
	var op byte
	if c.haltBug {
		op = c.read8(c.PC)
		c.haltBug = false
	} else {
		op = c.fetch8()
	}

	in := Primary[op]
	if in == nil {
		return 0, &DecodeError{PC: pc, Opcode: op}
	}
	if in.Kind == KindPREFIX {
		in = Extended[c.fetch8()]
	}
	cycles := c.execute(in)

	if enableIME && in.Kind != KindDI {
		c.ime = true
	}
	return cycles, nil
}

// dispatch services the highest-priority pending interrupt: IME is cleared,
// the IF bit acknowledged, PC pushed and the vector loaded.
func (c *CPU) dispatch(pending byte) int {
	bit, _ := interrupt.Highest(pending)
	c.ime = false
	c.eiDelay = false
	c.write8(regIF, c.read8(regIF)&^(1<<bit)&interrupt.Mask)
	c.push16(c.PC)
	c.PC = interrupt.Vector(bit)
	return interruptCycles
}

func (c *CPU) condition(cc Cond) bool {
	switch cc {
	case CondNZ:
		return !c.Flag(FlagZ)
	case CondZ:
		return c.Flag(FlagZ)
	case CondNC:
		return !c.Flag(FlagC)
	case CondC:
		return c.Flag(FlagC)
	}
	return true
}
