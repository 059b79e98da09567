package ppu

const maxSpritesPerLine = 10

// Sprite is one OAM entry in screen coordinates.
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	OAMIndex int
}

// Attribute bits.
const (
	attrPalette  = 1 << 4
	attrXFlip    = 1 << 5
	attrYFlip    = 1 << 6
	attrBehindBG = 1 << 7
)

// collectSprites scans OAM in order and keeps the first ten entries that
// overlap line y.
func collectSprites(oam *[0xA0]byte, y int, tall bool) []Sprite {
	height := 8
	if tall {
		height = 16
	}
	out := make([]Sprite, 0, maxSpritesPerLine)
	for i := 0; i < 40 && len(out) < maxSpritesPerLine; i++ {
		e := oam[i*4 : i*4+4]
		sy := int(e[0]) - 16
		if y < sy || y >= sy+height {
			continue
		}
		out = append(out, Sprite{X: int(e[1]) - 8, Y: sy, Tile: e[2], Attr: e[3], OAMIndex: i})
	}
	return out
}

// composeSprites draws sprites in reverse collection order so entries found
// earlier in OAM end up on top. A pixel is skipped when its color index is 0,
// or when the sprite asks to sit behind the background and bgci is nonzero.
func composeSprites(mem VRAMReader, sprites []Sprite, y int, bgci *[Width]byte, tall bool, obp0, obp1 byte) (shade [Width]byte, drawn [Width]bool) {
	height := 8
	if tall {
		height = 16
	}
	for i := len(sprites) - 1; i >= 0; i-- {
		s := sprites[i]
		row := y - s.Y
		if s.Attr&attrYFlip != 0 {
			row = height - 1 - row
		}
		tile := s.Tile
		if tall {
			tile &^= 1
		}
		addr := 0x8000 + uint16(tile)*16 + uint16(row)*2
		pixels := decodeRow(mem.Read(addr), mem.Read(addr+1))
		pal := obp0
		if s.Attr&attrPalette != 0 {
			pal = obp1
		}
		for col := 0; col < 8; col++ {
			x := s.X + col
			if x < 0 || x >= Width {
				continue
			}
			src := col
			if s.Attr&attrXFlip != 0 {
				src = 7 - col
			}
			ci := pixels[src]
			if ci == 0 {
				continue
			}
			if s.Attr&attrBehindBG != 0 && bgci[x] != 0 {
				continue
			}
			shade[x] = applyPalette(pal, ci)
			drawn[x] = true
		}
	}
	return shade, drawn
}
