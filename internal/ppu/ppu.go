// Package ppu implements the DMG picture processing unit: the per-line mode
// state machine, CPU-visible VRAM/OAM/register access and a scanline renderer
// that draws each line in bulk when the line enters HBlank.
package ppu

import "github.com/FabianRolfMatthiasNoll/gbcycle/internal/interrupt"

const (
	Width  = 160
	Height = 144

	dotsPerLine  = 456
	oamScanDots  = 80
	hblankStart  = oamScanDots + 172
	visibleLines = Height
	totalLines   = 154
)

// Mode is the two-bit value reported in STAT.
type Mode byte

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModeTransfer
)

// LCDC bits.
const (
	lcdcBGEnable   = 1 << 0
	lcdcOBJEnable  = 1 << 1
	lcdcOBJTall    = 1 << 2
	lcdcBGMap      = 1 << 3
	lcdcTileData   = 1 << 4
	lcdcWinEnable  = 1 << 5
	lcdcWinMap     = 1 << 6
	lcdcDisplayOn  = 1 << 7
	statCoincident = 1 << 2
	statHBlankIRQ  = 1 << 3
	statVBlankIRQ  = 1 << 4
	statOAMIRQ     = 1 << 5
	statLYCIRQ     = 1 << 6
)

// vram implements VRAMReader over the 8 KiB video memory.
type vram [0x2000]byte

func (v *vram) Read(addr uint16) byte { return v[addr&0x1FFF] }

type PPU struct {
	vram vram
	oam  [0xA0]byte

	lcdc byte // FF40
	stat byte // FF41: enables bits 3-6, coincidence bit 2, mode bits 0-1
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	dot     int
	winLine int // internal window line counter, advances only on lines that draw the window

	back       [Width * Height * 4]byte
	front      [Width * Height * 4]byte
	colorIndex [Width * Height]byte
	frameReady bool
	frames     uint64

	shades [4]Shade
	irq    byte
}

func New() *PPU {
	p := &PPU{shades: DefaultShades}
	p.Reset()
	return p
}

// Reset restores the post-boot register state (LCD on, BGP=FC) and blanks
// both frame buffers. VRAM and OAM are cleared.
func (p *PPU) Reset() {
	shades := p.shades
	*p = PPU{shades: shades}
	p.lcdc = 0x91
	p.bgp = 0xFC
	p.obp0 = 0xFF
	p.obp1 = 0xFF
	p.setMode(ModeOAMScan)
	p.compareLYC()
	p.blank()
	p.irq = 0
	p.frameReady = false
	p.frames = 0
}

// SetShades replaces the RGB values used for the four DMG shades.
func (p *PPU) SetShades(s [4]Shade) { p.shades = s }

func (p *PPU) Mode() Mode { return Mode(p.stat & 0x03) }
func (p *PPU) LY() byte   { return p.ly }
func (p *PPU) Dot() int   { return p.dot }

// Frames counts frames published since reset.
func (p *PPU) Frames() uint64 { return p.frames }

func (p *PPU) enabled() bool { return p.lcdc&lcdcDisplayOn != 0 }

// LCDOff reports whether LCDC bit 7 is clear; the PPU is then frozen.
func (p *PPU) LCDOff() bool { return !p.enabled() }

func (p *PPU) vramBlocked() bool { return p.Mode() == ModeTransfer }

func (p *PPU) oamBlocked() bool {
	m := p.Mode()
	return m == ModeOAMScan || m == ModeTransfer
}

// Read serves VRAM, OAM and the LCD registers from the CPU side. VRAM reads
// return 0xFF during pixel transfer and OAM reads during OAM scan and
// transfer.
func (p *PPU) Read(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.vramBlocked() {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if p.oamBlocked() {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	}
	switch addr {
	case 0xFF40:
		return p.lcdc
	case 0xFF41:
		return 0x80 | p.stat
	case 0xFF42:
		return p.scy
	case 0xFF43:
		return p.scx
	case 0xFF44:
		return p.ly
	case 0xFF45:
		return p.lyc
	case 0xFF47:
		return p.bgp
	case 0xFF48:
		return p.obp0
	case 0xFF49:
		return p.obp1
	case 0xFF4A:
		return p.wy
	case 0xFF4B:
		return p.wx
	}
	return 0xFF
}

func (p *PPU) Write(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if !p.vramBlocked() {
			p.vram[addr-0x8000] = value
		}
		return
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if !p.oamBlocked() {
			p.oam[addr-0xFE00] = value
		}
		return
	}
	switch addr {
	case 0xFF40:
		p.writeLCDC(value)
	case 0xFF41:
		p.stat = p.stat&0x07 | value&0x78
	case 0xFF42:
		p.scy = value
	case 0xFF43:
		p.scx = value
	case 0xFF45:
		p.lyc = value
		if p.enabled() {
			p.compareLYC()
		}
	case 0xFF47:
		p.bgp = value
	case 0xFF48:
		p.obp0 = value
	case 0xFF49:
		p.obp1 = value
	case 0xFF4A:
		p.wy = value
	case 0xFF4B:
		p.wx = value
	}
}

func (p *PPU) writeLCDC(value byte) {
	wasOn := p.enabled()
	p.lcdc = value
	switch {
	case wasOn && !p.enabled():
		p.ly = 0
		p.dot = 0
		p.winLine = 0
		p.stat &^= 0x03 | statCoincident
		p.blank()
	case !wasOn && p.enabled():
		p.ly = 0
		p.dot = 0
		p.winLine = 0
		p.setMode(ModeOAMScan)
		p.compareLYC()
	}
}

// WriteOAMDirect stores an OAM byte regardless of mode; used by OAM DMA.
func (p *PPU) WriteOAMDirect(i int, value byte) {
	if i >= 0 && i < len(p.oam) {
		p.oam[i] = value
	}
}

// PeekVRAM and PeekOAM read without mode gating, for debuggers.
func (p *PPU) PeekVRAM(addr uint16) byte { return p.vram[addr&0x1FFF] }
func (p *PPU) PeekOAM(addr uint16) byte {
	i := int(addr) - 0xFE00
	if i < 0 || i >= len(p.oam) {
		return 0xFF
	}
	return p.oam[i]
}

// Cycle advances the PPU by n dots. Nothing happens while the LCD is off.
func (p *PPU) Cycle(n int) {
	if !p.enabled() {
		return
	}
	for i := 0; i < n; i++ {
		p.step()
	}
}

func (p *PPU) step() {
	p.dot++
	if p.dot == dotsPerLine {
		p.dot = 0
		p.nextLine()
		return
	}
	if int(p.ly) >= visibleLines {
		return
	}
	switch p.dot {
	case oamScanDots:
		p.setMode(ModeTransfer)
	case hblankStart:
		p.renderLine()
		p.setMode(ModeHBlank)
	}
}

func (p *PPU) nextLine() {
	p.ly++
	if int(p.ly) == totalLines {
		p.ly = 0
		p.winLine = 0
	}
	p.compareLYC()
	switch {
	case int(p.ly) == visibleLines:
		p.setMode(ModeVBlank)
		p.irq |= interrupt.VBlank
		p.publish()
	case int(p.ly) < visibleLines:
		p.setMode(ModeOAMScan)
	}
}

// setMode updates STAT and raises the STAT interrupt when the new mode's
// source is enabled.
func (p *PPU) setMode(m Mode) {
	p.stat = p.stat&^0x03 | byte(m)
	var src byte
	switch m {
	case ModeHBlank:
		src = statHBlankIRQ
	case ModeVBlank:
		src = statVBlankIRQ
	case ModeOAMScan:
		src = statOAMIRQ
	}
	if p.stat&src != 0 {
		p.irq |= interrupt.LCDStat
	}
}

func (p *PPU) compareLYC() {
	if p.ly != p.lyc {
		p.stat &^= statCoincident
		return
	}
	p.stat |= statCoincident
	if p.stat&statLYCIRQ != 0 {
		p.irq |= interrupt.LCDStat
	}
}

// PendingInterrupts returns the interrupt bits raised since the last call.
func (p *PPU) PendingInterrupts() byte {
	v := p.irq
	p.irq = 0
	return v
}

func (p *PPU) publish() {
	p.front = p.back
	p.frameReady = true
	p.frames++
}

// blank fills both buffers with shade 0 and publishes the blank frame.
func (p *PPU) blank() {
	s := p.shades[0]
	for i := 0; i < len(p.back); i += 4 {
		p.back[i], p.back[i+1], p.back[i+2], p.back[i+3] = s.R, s.G, s.B, 0xFF
	}
	clear(p.colorIndex[:])
	p.publish()
}

// Frame returns the last published RGBA frame. The slice aliases internal
// storage and is rewritten at the next VBlank.
func (p *PPU) Frame() []byte { return p.front[:] }

// FrameReady reports whether a new frame was published since the last call.
func (p *PPU) FrameReady() bool {
	r := p.frameReady
	p.frameReady = false
	return r
}

// Registers is a copy of the LCD registers for debuggers.
type Registers struct {
	LCDC, STAT, SCY, SCX, LY, LYC byte
	BGP, OBP0, OBP1, WY, WX       byte
	Dot                           int
	WindowLine                    int
}

func (p *PPU) Registers() Registers {
	return Registers{
		LCDC: p.lcdc, STAT: 0x80 | p.stat, SCY: p.scy, SCX: p.scx, LY: p.ly, LYC: p.lyc,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1, WY: p.wy, WX: p.wx,
		Dot: p.dot, WindowLine: p.winLine,
	}
}
