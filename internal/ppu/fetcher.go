package ppu

// VRAMReader provides read-only access to video memory for the tile fetcher
// and sprite compositor.
type VRAMReader interface {
	Read(addr uint16) byte
}

// fifo is a ring buffer of 2-bit color indices.
type fifo struct {
	buf  [16]byte
	head int
	size int
}

func (q *fifo) Clear()   { q.head, q.size = 0, 0 }
func (q *fifo) Len() int { return q.size }

func (q *fifo) Push(ci byte) bool {
	if q.size == len(q.buf) {
		return false
	}
	q.buf[(q.head+q.size)%len(q.buf)] = ci & 0x03
	q.size++
	return true
}

func (q *fifo) Pop() (byte, bool) {
	if q.size == 0 {
		return 0, false
	}
	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

// tileFetcher resolves map entries to tile rows and feeds them to a fifo.
type tileFetcher struct {
	mem      VRAMReader
	unsigned bool // LCDC bit 4: 0x8000 addressing, else signed around 0x9000
}

// rowAddr returns the address of the low bitplane byte for row fineY of tile.
func (f tileFetcher) rowAddr(tile, fineY byte) uint16 {
	if f.unsigned {
		return 0x8000 + uint16(tile)*16 + uint16(fineY&7)*2
	}
	return uint16(0x9000+int(int8(tile))*16) + uint16(fineY&7)*2
}

// decodeRow expands two bitplane bytes into eight color indices, leftmost first.
func decodeRow(lo, hi byte) [8]byte {
	var out [8]byte
	for px := 0; px < 8; px++ {
		bit := 7 - byte(px)
		out[px] = (hi>>bit)&1<<1 | (lo>>bit)&1
	}
	return out
}

// fetch pushes the eight pixels of the tile referenced at mapAddr.
func (f tileFetcher) fetch(q *fifo, mapAddr uint16, fineY byte) {
	addr := f.rowAddr(f.mem.Read(mapAddr), fineY)
	for _, ci := range decodeRow(f.mem.Read(addr), f.mem.Read(addr+1)) {
		q.Push(ci)
	}
}

// mapRow returns the first map address of the 32-tile row covering line y.
func mapRow(base uint16, y byte) uint16 { return base + uint16(y>>3)*32 }
