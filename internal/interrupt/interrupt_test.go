package interrupt

import "testing"

func TestHighestPriority(t *testing.T) {
	cases := []struct {
		pending byte
		bit     int
		ok      bool
	}{
		{0x00, 0, false},
		{0xE0, 0, false}, // unused upper bits
		{Joypad, 4, true},
		{Timer | Serial, 2, true},
		{VBlank | Joypad, 0, true},
		{LCDStat | Timer, 1, true},
	}
	for _, c := range cases {
		bit, ok := Highest(c.pending)
		if ok != c.ok || (ok && bit != c.bit) {
			t.Errorf("Highest(%02X) = %d,%v want %d,%v", c.pending, bit, ok, c.bit, c.ok)
		}
	}
}

func TestVectors(t *testing.T) {
	want := []uint16{0x40, 0x48, 0x50, 0x58, 0x60}
	for bit, v := range want {
		if got := Vector(bit); got != v {
			t.Errorf("Vector(%d) = %04X want %04X", bit, got, v)
		}
	}
}
