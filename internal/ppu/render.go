package ppu

// renderLine draws line ly into the back buffer using the registers as they
// stand at the HBlank transition. Mid-line register writes are not observed.
func (p *PPU) renderLine() {
	y := int(p.ly)
	var ci [Width]byte
	if p.lcdc&lcdcBGEnable != 0 {
		p.renderBackground(y, &ci)
	}
	for x := 0; x < Width; x++ {
		p.setPixel(x, y, applyPalette(p.bgp, ci[x]))
	}
	copy(p.colorIndex[y*Width:], ci[:])

	if p.lcdc&lcdcOBJEnable == 0 {
		return
	}
	sprites := collectSprites(&p.oam, y, p.lcdc&lcdcOBJTall != 0)
	shade, drawn := composeSprites(&p.vram, sprites, y, &ci, p.lcdc&lcdcOBJTall != 0, p.obp0, p.obp1)
	for x := 0; x < Width; x++ {
		if drawn[x] {
			p.setPixel(x, y, shade[x])
		}
	}
}

// renderBackground fills ci with background color indices, switching to the
// window from WX-7 onward when the window covers this line.
func (p *PPU) renderBackground(y int, ci *[Width]byte) {
	f := tileFetcher{mem: &p.vram, unsigned: p.lcdc&lcdcTileData != 0}
	bgMap, winMap := uint16(0x9800), uint16(0x9800)
	if p.lcdc&lcdcBGMap != 0 {
		bgMap = 0x9C00
	}
	if p.lcdc&lcdcWinMap != 0 {
		winMap = 0x9C00
	}
	winX := int(p.wx) - 7
	window := p.lcdc&lcdcWinEnable != 0 && y >= int(p.wy) && p.wx <= 166

	var q fifo
	bgY := byte(y) + p.scy
	row := mapRow(bgMap, bgY)
	col := uint16(p.scx >> 3)
	f.fetch(&q, row+col, bgY&7)
	for i := 0; i < int(p.scx&7); i++ {
		q.Pop()
	}
	x := 0
	for ; x < Width; x++ {
		if window && x >= winX {
			break
		}
		if q.Len() == 0 {
			col = (col + 1) & 31
			f.fetch(&q, row+col, bgY&7)
		}
		ci[x], _ = q.Pop()
	}
	if !window || x >= Width {
		return
	}

	q.Clear()
	wy := byte(p.winLine)
	row = mapRow(winMap, wy)
	col = 0
	f.fetch(&q, row, wy&7)
	for i := winX; i < 0; i++ {
		q.Pop()
	}
	for ; x < Width; x++ {
		if q.Len() == 0 {
			col = (col + 1) & 31
			f.fetch(&q, row+col, wy&7)
		}
		ci[x], _ = q.Pop()
	}
	p.winLine++
}
