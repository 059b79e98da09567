// Package bus routes the CPU's 16-bit address space to the cartridge, the
// video and audio units, the timer, the joypad and the internal RAMs, and
// collects the interrupt requests those components raise.
package bus

import (
	"io"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/apu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/cart"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/interrupt"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/joypad"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/timer"
)

const (
	regJOYP = 0xFF00
	regSB   = 0xFF01
	regSC   = 0xFF02
	regIF   = 0xFF0F
	regDMA  = 0xFF46
	regBoot = 0xFF50
	regIE   = 0xFFFF

	// BootROMSize is the length of the DMG boot program mapped at 0x0000.
	BootROMSize = 0x100
)

type Bus struct {
	cart   *cart.Cartridge
	ppu    *ppu.PPU
	apu    *apu.APU
	timer  *timer.Timer
	joypad *joypad.Joypad

	wram [0x2000]byte // 8KB internal RAM, echoed at E000-FDFF
	hram [0x7F]byte

	ie  byte
	ifr byte
	dma byte

	sb, sc    byte
	serialOut io.Writer

	boot   []byte
	bootOn bool
}

// New builds a bus around c. A nil cartridge reads as an empty slot (0xFF).
// sampleRate is passed to the audio unit.
func New(c *cart.Cartridge, sampleRate int) *Bus {
	b := &Bus{
		cart:   c,
		ppu:    ppu.New(),
		apu:    apu.New(sampleRate),
		timer:  timer.New(),
		joypad: joypad.New(),
	}
	b.Reset()
	return b
}

func (b *Bus) Cart() *cart.Cartridge  { return b.cart }
func (b *Bus) PPU() *ppu.PPU          { return b.ppu }
func (b *Bus) APU() *apu.APU          { return b.apu }
func (b *Bus) Timer() *timer.Timer    { return b.timer }
func (b *Bus) Joypad() *joypad.Joypad { return b.joypad }

// SetSerialWriter receives every byte shifted out of the serial port.
func (b *Bus) SetSerialWriter(w io.Writer) { b.serialOut = w }

// SetBootROM overlays a 256-byte boot program on 0x0000-0x00FF until the
// program writes to 0xFF50. Any other length removes the overlay.
func (b *Bus) SetBootROM(rom []byte) {
	if len(rom) != BootROMSize {
		b.boot, b.bootOn = nil, false
		return
	}
	b.boot = append([]byte(nil), rom...)
	b.bootOn = true
}

// BootROMActive reports whether the boot overlay is still mapped.
func (b *Bus) BootROMActive() bool { return b.bootOn }

// Reset puts every owned component back to its post-boot state in one go.
// The cartridge keeps its RAM; the boot overlay is re-armed if present.
func (b *Bus) Reset() {
	if b.cart != nil {
		b.cart.Reset()
	}
	b.ppu.Reset()
	b.apu.Reset()
	b.timer.Reset()
	b.joypad.Reset()
	b.wram = [0x2000]byte{}
	b.hram = [0x7F]byte{}
	b.ie = 0
	b.ifr = interrupt.VBlank
	b.dma = 0xFF
	b.sb, b.sc = 0, 0
	b.bootOn = b.boot != nil
}

// Cycle advances the clocked components by t T-cycles and latches the
// interrupt requests they raised into IF.
func (b *Bus) Cycle(t int) {
	b.timer.Cycle(t)
	b.ppu.Cycle(t)
	b.apu.Cycle(t)
	b.ifr |= b.timer.PendingInterrupts() | b.ppu.PendingInterrupts() | b.joypad.PendingInterrupts()
	b.ifr &= interrupt.Mask
}

// Interrupts returns IE and IF.
func (b *Bus) Interrupts() (ie, flags byte) { return b.ie, b.ifr }

func (b *Bus) Read8(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootOn && addr < BootROMSize {
			return b.boot[addr]
		}
		return b.cartRead(addr)
	case addr < 0xA000:
		return b.ppu.Read(addr)
	case addr < 0xC000:
		return b.cartRead(addr)
	case addr < 0xE000:
		return b.wram[addr-0xC000]
	case addr < 0xFE00:
		return b.wram[addr-0xE000]
	case addr < 0xFEA0:
		return b.ppu.Read(addr)
	case addr < 0xFF00:
		return 0xFF
	case addr >= 0xFF80 && addr < 0xFFFF:
		return b.hram[addr-0xFF80]
	case addr == regIE:
		return b.ie
	}
	return b.readIO(addr)
}

func (b *Bus) readIO(addr uint16) byte {
	switch {
	case addr == regJOYP:
		return b.joypad.Read()
	case addr == regSB:
		return b.sb
	case addr == regSC:
		return 0x7E | b.sc
	case addr >= timer.DIV && addr <= timer.TAC:
		return b.timer.Read(addr)
	case addr == regIF:
		return 0xE0 | b.ifr
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return b.apu.Read(addr)
	case addr == regDMA:
		return b.dma
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return b.ppu.Read(addr)
	}
	return 0xFF
}

func (b *Bus) Write8(addr uint16, v byte) {
	switch {
	case addr < 0x8000:
		b.cartWrite(addr, v)
	case addr < 0xA000:
		b.ppu.Write(addr, v)
	case addr < 0xC000:
		b.cartWrite(addr, v)
	case addr < 0xE000:
		b.wram[addr-0xC000] = v
	case addr < 0xFE00:
		b.wram[addr-0xE000] = v
	case addr < 0xFEA0:
		b.ppu.Write(addr, v)
	case addr < 0xFF00:
		// unusable
	case addr >= 0xFF80 && addr < 0xFFFF:
		b.hram[addr-0xFF80] = v
	case addr == regIE:
		b.ie = v
	default:
		b.writeIO(addr, v)
	}
}

func (b *Bus) writeIO(addr uint16, v byte) {
	switch {
	case addr == regJOYP:
		b.joypad.Write(v)
		b.ifr |= b.joypad.PendingInterrupts()
	case addr == regSB:
		b.sb = v
	case addr == regSC:
		b.writeSC(v)
	case addr >= timer.DIV && addr <= timer.TAC:
		b.timer.Write(addr, v)
		b.ifr |= b.timer.PendingInterrupts()
	case addr == regIF:
		b.ifr = v & interrupt.Mask
	case addr >= 0xFF10 && addr <= 0xFF3F:
		b.apu.Write(addr, v)
	case addr == regDMA:
		b.runDMA(v)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		b.ppu.Write(addr, v)
		b.ifr |= b.ppu.PendingInterrupts()
	case addr == regBoot:
		if v != 0 {
			b.bootOn = false
		}
	}
}

// writeSC completes an internally clocked transfer at once: the outgoing
// byte goes to the serial writer, no partner answers (SB reads 0xFF) and
// the serial interrupt is requested.
func (b *Bus) writeSC(v byte) {
	b.sc = v & 0x81
	if v&0x81 != 0x81 {
		return
	}
	if b.serialOut != nil {
		b.serialOut.Write([]byte{b.sb})
	}
	b.sb = 0xFF
	b.sc &^= 0x80
	b.ifr |= interrupt.Serial
}

// runDMA copies 160 bytes from page v into OAM in one bus operation.
func (b *Bus) runDMA(v byte) {
	b.dma = v
	src := uint16(v) << 8
	for i := uint16(0); i < 0xA0; i++ {
		b.ppu.WriteOAMDirect(int(i), b.Peek(src+i))
	}
}

// Peek reads like Read8 but ignores PPU access gating. It is used by DMA
// and by debuggers.
func (b *Bus) Peek(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr < 0xA000:
		return b.ppu.PeekVRAM(addr)
	case addr >= 0xFE00 && addr < 0xFEA0:
		return b.ppu.PeekOAM(addr)
	}
	return b.Read8(addr)
}

// Read16 and Write16 are little-endian: low byte at addr.
func (b *Bus) Read16(addr uint16) uint16 {
	return uint16(b.Read8(addr)) | uint16(b.Read8(addr+1))<<8
}

func (b *Bus) Write16(addr uint16, v uint16) {
	b.Write8(addr, byte(v))
	b.Write8(addr+1, byte(v>>8))
}

func (b *Bus) cartRead(addr uint16) byte {
	if b.cart == nil {
		return 0xFF
	}
	return b.cart.Read(addr)
}

func (b *Bus) cartWrite(addr uint16, v byte) {
	if b.cart != nil {
		b.cart.Write(addr, v)
	}
}
