package apu

import "testing"

// triggerWave sets up channel 3 with 0xF0 in the first wave byte: nibble 0
// is 15 (full positive) and nibble 1 is 0 (full negative).
func triggerWave(t *testing.T, volCode byte) *APU {
	t.Helper()
	a := New(48000)
	a.Write(0xFF30, 0xF0)
	a.Write(0xFF1A, 0x80)
	a.Write(0xFF1C, volCode<<5)
	a.Write(0xFF1E, 0x80)
	if !a.ch3.on {
		t.Fatalf("wave channel did not start")
	}
	return a
}

func TestWave_VolumeShift(t *testing.T) {
	cases := []struct {
		code byte
		want float32
	}{
		{0, 0},
		{1, 1},
		{2, 0.5},
		{3, 0.25},
	}
	for _, tc := range cases {
		a := triggerWave(t, tc.code)
		if got := a.ch3.output(); got != tc.want {
			t.Fatalf("code %d nibble 15 got %v want %v", tc.code, got, tc.want)
		}
		a.ch3.step(a.ch3.period())
		if got := a.ch3.output(); got != -tc.want {
			t.Fatalf("code %d nibble 0 got %v want %v", tc.code, got, -tc.want)
		}
	}
}

func TestWave_DACGatesOutput(t *testing.T) {
	a := triggerWave(t, 1)
	a.Write(0xFF1A, 0x00)
	if a.ch3.on {
		t.Fatalf("DAC off left the channel enabled")
	}
	if got := a.ch3.output(); got != 0 {
		t.Fatalf("output with DAC off got %v", got)
	}

	// the enable flag alone is not enough
	a.ch3.on = true
	if got := a.ch3.output(); got != 0 {
		t.Fatalf("output with DAC bit clear got %v", got)
	}
}

func TestWave_NibbleOrder(t *testing.T) {
	var c wave
	for i := range c.ram {
		hi, lo := byte(2*i)&0x0F, byte(2*i+1)&0x0F
		c.ram[i] = hi<<4 | lo
	}
	c.timer = c.period()
	for step := 0; step < 40; step++ {
		if got, want := c.sample(), byte(c.pos)&0x0F; got != want {
			t.Fatalf("pos %d sample got %d want %d", c.pos, got, want)
		}
		if c.pos != step%32 {
			t.Fatalf("step %d pos got %d", step, c.pos)
		}
		c.step(c.period())
	}
}

func newNoise(narrow bool) *noise {
	n := &noise{dac: true, narrow: narrow}
	n.trigger()
	return n
}

func TestNoise_WideLFSR(t *testing.T) {
	n := newNoise(false)
	if n.lfsr != 0x7FFF {
		t.Fatalf("trigger seed got %04X", n.lfsr)
	}
	n.step(n.period())
	if n.lfsr != 0x3FFF {
		t.Fatalf("first shift got %04X want 3FFF", n.lfsr)
	}
	steps := 1
	for n.lfsr != 0x7FFF {
		n.step(n.period())
		steps++
		if steps > 1<<15 {
			t.Fatalf("no repeat within 32768 steps")
		}
	}
	if steps != 32767 {
		t.Fatalf("15-bit period got %d want 32767", steps)
	}
}

func TestNoise_NarrowLFSR(t *testing.T) {
	n := newNoise(true)
	n.step(n.period())
	if n.lfsr != 0x3FBF {
		t.Fatalf("first shift got %04X want 3FBF", n.lfsr)
	}
	seed := n.lfsr & 0x7F
	steps := 0
	for {
		n.step(n.period())
		steps++
		if n.lfsr&0x7F == seed {
			break
		}
		if steps > 128 {
			t.Fatalf("no repeat within 128 steps")
		}
	}
	if steps != 127 {
		t.Fatalf("7-bit period got %d want 127", steps)
	}
}
