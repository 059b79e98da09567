package emu

import (
	"errors"
	"fmt"
	"sort"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/apu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/timer"
)

var ErrBreakpoint = errors.New("breakpoint")

// BreakpointError is returned by Step when execution reaches an armed PC.
type BreakpointError struct {
	PC uint16
}

func (e *BreakpointError) Error() string { return fmt.Sprintf("breakpoint at %04X", e.PC) }
func (e *BreakpointError) Unwrap() error { return ErrBreakpoint }

func (m *Machine) AddBreakpoint(pc uint16)    { m.breakpoints[pc] = struct{}{} }
func (m *Machine) RemoveBreakpoint(pc uint16) { delete(m.breakpoints, pc) }
func (m *Machine) ClearBreakpoints()          { m.breakpoints = make(map[uint16]struct{}) }

// Breakpoints returns the armed addresses in ascending order.
func (m *Machine) Breakpoints() []uint16 {
	out := make([]uint16, 0, len(m.breakpoints))
	for pc := range m.breakpoints {
		out = append(out, pc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DebugState is a read-only copy of the machine for debuggers.
type DebugState struct {
	CPU    cpu.Registers `json:"cpu"`
	IME    bool          `json:"ime"`
	Halted bool          `json:"halted"`
	IE     byte          `json:"ie"`
	IF     byte          `json:"if"`

	PPU  ppu.Registers `json:"ppu"`
	JOYP byte          `json:"joyp"`

	DIV     byte   `json:"div"`
	TIMA    byte   `json:"tima"`
	TMA     byte   `json:"tma"`
	TAC     byte   `json:"tac"`
	Divider uint16 `json:"divider"`

	SoundOn bool                `json:"sound_on"`
	APU     [4]apu.ChannelState `json:"apu"`

	Cycles uint64 `json:"cycles"`
	Frames uint64 `json:"frames"`

	// Next is the disassembly of the instruction at PC.
	Next string `json:"next"`
}

func (m *Machine) Snapshot() (DebugState, error) {
	if m.bus == nil {
		return DebugState{}, ErrNoCartridge
	}
	ie, flags := m.bus.Interrupts()
	next, _ := cpu.Disassemble(peeker{m}, m.cpu.PC)
	t := m.bus.Timer()
	snd := m.bus.APU()
	return DebugState{
		CPU:     m.cpu.Registers,
		IME:     m.cpu.IME(),
		Halted:  m.cpu.Halted(),
		IE:      ie,
		IF:      0xE0 | flags,
		PPU:     m.bus.PPU().Registers(),
		JOYP:    m.bus.Joypad().Read(),
		DIV:     t.Read(timer.DIV),
		TIMA:    t.Read(timer.TIMA),
		TMA:     t.Read(timer.TMA),
		TAC:     t.Read(timer.TAC),
		Divider: t.Divider(),
		SoundOn: snd.Powered(),
		APU:     snd.Channels(),
		Cycles:  m.cycles,
		Frames:  m.bus.PPU().Frames(),
		Next:    next,
	}, nil
}

// Memory returns a copy of the 64 KiB address space as the CPU would see
// it with PPU access gating ignored.
func (m *Machine) Memory() []byte {
	out := make([]byte, 0x10000)
	if m.bus == nil {
		for i := range out {
			out[i] = 0xFF
		}
		return out
	}
	for i := range out {
		out[i] = m.bus.Peek(uint16(i))
	}
	return out
}

// Disassemble formats n instructions starting at pc.
func (m *Machine) Disassemble(pc uint16, n int) []string {
	if m.bus == nil {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		text, size := cpu.Disassemble(peeker{m}, pc)
		out = append(out, fmt.Sprintf("%04X  %s", pc, text))
		pc += uint16(size)
	}
	return out
}

// peeker gives the disassembler side-effect-free, ungated reads.
type peeker struct{ m *Machine }

func (p peeker) Read8(addr uint16) byte { return p.m.bus.Peek(addr) }
func (p peeker) Write8(uint16, byte)    {}
