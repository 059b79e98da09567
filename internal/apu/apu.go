// Package apu implements the DMG audio unit: two pulse channels (the first
// with a frequency sweep), a wave channel and a noise channel, clocked by an
// 8192 T-cycle frame sequencer and box-filtered down to a host sample rate.
package apu

// CPU frequency in Hz (DMG)
const cpuHz = 4194304

const (
	frameSeqPeriod = cpuHz / 512

	// DefaultSampleRate is used when New is given a non-positive rate.
	DefaultSampleRate = 48000

	// headroom scales each channel so four full-volume channels sum to 1.
	headroom = 0.25

	regBase = 0xFF10
	regEnd  = 0xFF3F
	nr52    = 0xFF26
)

// readMasks are ORed into register reads: write-only and unused bits read as 1.
var readMasks = [0x30]byte{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // unused, NR21-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // unused, NR41-NR44
	0x00, 0x00, 0x70, // NR50, NR51, NR52
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // FF27-FF2F
}

// APU owns its register file; channel state is derived from writes to it.
type APU struct {
	power bool
	regs  [0x30]byte

	ch1 pulse
	ch2 pulse
	ch3 wave
	ch4 noise

	fsCounter int
	fsPhase   int

	out output
}

func New(sampleRate int) *APU {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	a := &APU{}
	a.out.init(sampleRate)
	a.Reset()
	return a
}

// Reset powers the unit on with the register values the boot ROM leaves.
// Wave RAM and the attached sink survive.
func (a *APU) Reset() {
	ram := a.ch3.ram
	out := a.out
	*a = APU{out: out}
	a.out.reset()
	a.ch3.ram = ram
	a.power = true
	for _, r := range []struct {
		addr uint16
		v    byte
	}{
		{0xFF10, 0x80}, {0xFF11, 0xBF}, {0xFF12, 0xF3}, {0xFF14, 0x3F},
		{0xFF16, 0x3F}, {0xFF17, 0x00}, {0xFF19, 0x3F},
		{0xFF1A, 0x7F}, {0xFF1B, 0xFF}, {0xFF1C, 0x9F}, {0xFF1E, 0x3F},
		{0xFF20, 0xFF}, {0xFF21, 0x00}, {0xFF22, 0x00}, {0xFF23, 0x3F},
		{0xFF24, 0x77}, {0xFF25, 0xF3},
	} {
		a.Write(r.addr, r.v)
	}
}

func (a *APU) Read(addr uint16) byte {
	if addr < regBase || addr > regEnd {
		return 0xFF
	}
	if addr >= 0xFF30 {
		return a.ch3.ram[addr-0xFF30]
	}
	if addr == nr52 {
		v := byte(0x70)
		if a.power {
			v |= 0x80
		}
		for i, on := range []bool{a.ch1.on, a.ch2.on, a.ch3.on, a.ch4.on} {
			if on {
				v |= 1 << i
			}
		}
		return v
	}
	i := addr - regBase
	return a.regs[i] | readMasks[i]
}

func (a *APU) Write(addr uint16, v byte) {
	switch {
	case addr < regBase || addr > regEnd:
		return
	case addr >= 0xFF30:
		a.ch3.ram[addr-0xFF30] = v
		return
	case addr == nr52:
		a.setPower(v&0x80 != 0)
		return
	case addr > nr52:
		return
	}
	if !a.power {
		a.writeLengthOnly(addr, v)
		return
	}
	a.regs[addr-regBase] = v
	switch addr {
	case 0xFF10:
		a.ch1.sweepPeriod = v >> 4 & 0x07
		a.ch1.sweepDown = v&0x08 != 0
		a.ch1.sweepShift = v & 0x07
	case 0xFF11:
		a.ch1.duty = v >> 6
		a.ch1.length.counter = 64 - int(v&0x3F)
	case 0xFF12:
		a.ch1.env.load(v)
		a.ch1.dac = v&0xF8 != 0
		a.ch1.on = a.ch1.on && a.ch1.dac
	case 0xFF13:
		a.ch1.freq = a.ch1.freq&0x700 | uint16(v)
	case 0xFF14:
		a.ch1.freq = a.ch1.freq&0x0FF | uint16(v&0x07)<<8
		a.ch1.length.enabled = v&0x40 != 0
		if v&0x80 != 0 {
			a.ch1.trigger(true)
		}
	case 0xFF16:
		a.ch2.duty = v >> 6
		a.ch2.length.counter = 64 - int(v&0x3F)
	case 0xFF17:
		a.ch2.env.load(v)
		a.ch2.dac = v&0xF8 != 0
		a.ch2.on = a.ch2.on && a.ch2.dac
	case 0xFF18:
		a.ch2.freq = a.ch2.freq&0x700 | uint16(v)
	case 0xFF19:
		a.ch2.freq = a.ch2.freq&0x0FF | uint16(v&0x07)<<8
		a.ch2.length.enabled = v&0x40 != 0
		if v&0x80 != 0 {
			a.ch2.trigger(false)
		}
	case 0xFF1A:
		a.ch3.dac = v&0x80 != 0
		a.ch3.on = a.ch3.on && a.ch3.dac
	case 0xFF1B:
		a.ch3.length.counter = 256 - int(v)
	case 0xFF1C:
		a.ch3.volCode = v >> 5 & 0x03
	case 0xFF1D:
		a.ch3.freq = a.ch3.freq&0x700 | uint16(v)
	case 0xFF1E:
		a.ch3.freq = a.ch3.freq&0x0FF | uint16(v&0x07)<<8
		a.ch3.length.enabled = v&0x40 != 0
		if v&0x80 != 0 {
			a.ch3.trigger()
		}
	case 0xFF20:
		a.ch4.length.counter = 64 - int(v&0x3F)
	case 0xFF21:
		a.ch4.env.load(v)
		a.ch4.dac = v&0xF8 != 0
		a.ch4.on = a.ch4.on && a.ch4.dac
	case 0xFF22:
		a.ch4.shift = v >> 4
		a.ch4.narrow = v&0x08 != 0
		a.ch4.divSel = v & 0x07
	case 0xFF23:
		a.ch4.length.enabled = v&0x40 != 0
		if v&0x80 != 0 {
			a.ch4.trigger()
		}
	}
}

// writeLengthOnly handles writes while powered off: only the length
// counters accept data and the register file keeps reading zero.
func (a *APU) writeLengthOnly(addr uint16, v byte) {
	switch addr {
	case 0xFF11:
		a.ch1.length.counter = 64 - int(v&0x3F)
	case 0xFF16:
		a.ch2.length.counter = 64 - int(v&0x3F)
	case 0xFF1B:
		a.ch3.length.counter = 256 - int(v)
	case 0xFF20:
		a.ch4.length.counter = 64 - int(v&0x3F)
	}
}

func (a *APU) setPower(on bool) {
	switch {
	case a.power && !on:
		a.regs = [0x30]byte{}
		a.ch1, a.ch2, a.ch4 = pulse{}, pulse{}, noise{}
		a.ch3 = wave{ram: a.ch3.ram}
	case !a.power && on:
		a.fsPhase = 0
		a.fsCounter = 0
	}
	a.power = on
}

// Powered reports the NR52 master switch.
func (a *APU) Powered() bool { return a.power }

// Cycle advances channel timers and the frame sequencer by t T-cycles and
// feeds the resampler.
func (a *APU) Cycle(t int) {
	for t > 0 {
		n := t
		if n > 4 {
			n = 4
		}
		t -= n
		if a.power {
			a.stepChannels(n)
			a.fsCounter += n
			for a.fsCounter >= frameSeqPeriod {
				a.fsCounter -= frameSeqPeriod
				a.sequencerStep()
			}
		}
		l, r := a.mix()
		a.out.accumulate(l, r, n)
	}
}

func (a *APU) stepChannels(n int) {
	if a.ch1.on {
		a.ch1.step(n)
	}
	if a.ch2.on {
		a.ch2.step(n)
	}
	if a.ch3.on {
		a.ch3.step(n)
	}
	if a.ch4.on {
		a.ch4.step(n)
	}
}

// sequencerStep runs the current phase: length on even phases, sweep on 2
// and 6, envelopes on 7.
func (a *APU) sequencerStep() {
	if a.fsPhase%2 == 0 {
		a.clockLength()
	}
	if a.fsPhase == 2 || a.fsPhase == 6 {
		a.ch1.clockSweep()
	}
	if a.fsPhase == 7 {
		a.ch1.env.clock()
		a.ch2.env.clock()
		a.ch4.env.clock()
	}
	a.fsPhase = (a.fsPhase + 1) & 7
}

func (a *APU) clockLength() {
	if a.ch1.length.clock() {
		a.ch1.on = false
	}
	if a.ch2.length.clock() {
		a.ch2.on = false
	}
	if a.ch3.length.clock() {
		a.ch3.on = false
	}
	if a.ch4.length.clock() {
		a.ch4.on = false
	}
}

// ChannelState is a debugger view of one channel. Volume is the NR32 code
// for channel 3 and Frequency the noise period for channel 4.
type ChannelState struct {
	Enabled   bool   `json:"enabled"`
	Volume    byte   `json:"volume"`
	Frequency uint16 `json:"frequency"`
	Length    int    `json:"length"`
}

func (a *APU) Channels() [4]ChannelState {
	return [4]ChannelState{
		{a.ch1.on, a.ch1.env.volume, a.ch1.freq, a.ch1.length.counter},
		{a.ch2.on, a.ch2.env.volume, a.ch2.freq, a.ch2.length.counter},
		{a.ch3.on, a.ch3.volCode, a.ch3.freq, a.ch3.length.counter},
		{a.ch4.on, a.ch4.env.volume, uint16(a.ch4.period()), a.ch4.length.counter},
	}
}
