package ppu

// Shade is one of the four RGB values a DMG color number maps to.
type Shade struct{ R, G, B byte }

// DefaultShades is a neutral gray ramp, lightest first.
var DefaultShades = [4]Shade{
	{0xFF, 0xFF, 0xFF},
	{0xC0, 0xC0, 0xC0},
	{0x60, 0x60, 0x60},
	{0x00, 0x00, 0x00},
}

// applyPalette maps a 2-bit color index through BGP/OBP0/OBP1.
func applyPalette(pal, ci byte) byte { return (pal >> (ci * 2)) & 0x03 }

func (p *PPU) setPixel(x, y int, shade byte) {
	s := p.shades[shade&0x03]
	i := (y*Width + x) * 4
	p.back[i], p.back[i+1], p.back[i+2], p.back[i+3] = s.R, s.G, s.B, 0xFF
}
