package apu

var dutyTable = [4][8]byte{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{1, 0, 0, 0, 0, 0, 0, 1}, // 25%
	{1, 0, 0, 0, 0, 1, 1, 1}, // 50%
	{0, 1, 1, 1, 1, 1, 1, 0}, // 75%
}

var noiseDivisors = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// lengthCounter silences a channel after 64 (256 for the wave channel)
// frame-sequencer length clocks once enabled.
type lengthCounter struct {
	counter int
	enabled bool
}

// clock reports whether the counter just expired.
func (l *lengthCounter) clock() bool {
	if !l.enabled || l.counter == 0 {
		return false
	}
	l.counter--
	return l.counter == 0
}

type envelope struct {
	initial byte
	up      bool
	period  byte
	volume  byte
	timer   byte
}

func (e *envelope) load(v byte) {
	e.initial = v >> 4
	e.up = v&0x08 != 0
	e.period = v & 0x07
}

func (e *envelope) trigger() {
	e.volume = e.initial
	e.timer = e.period
}

func (e *envelope) clock() {
	if e.period == 0 {
		return
	}
	if e.timer > 0 {
		e.timer--
	}
	if e.timer != 0 {
		return
	}
	e.timer = e.period
	switch {
	case e.up && e.volume < 15:
		e.volume++
	case !e.up && e.volume > 0:
		e.volume--
	}
}

// bipolar maps a high/low waveform level to +-volume/15.
func bipolar(high bool, volume byte) float32 {
	amp := float32(volume) / 15
	if high {
		return amp
	}
	return -amp
}

// pulse is channels 1 and 2. Only channel 1 uses the sweep unit.
type pulse struct {
	on     bool
	dac    bool
	duty   byte
	freq   uint16
	timer  int
	phase  int
	length lengthCounter
	env    envelope

	sweepPeriod byte
	sweepDown   bool
	sweepShift  byte
	sweepTimer  byte
	sweepOn     bool
	shadow      uint16
}

func (c *pulse) period() int { return (2048 - int(c.freq)) * 4 }

func (c *pulse) step(t int) {
	c.timer -= t
	for c.timer <= 0 {
		c.timer += c.period()
		c.phase = (c.phase + 1) & 7
	}
}

func (c *pulse) output() float32 {
	if !c.on {
		return 0
	}
	return bipolar(dutyTable[c.duty][c.phase] != 0, c.env.volume)
}

func (c *pulse) trigger(sweep bool) {
	c.on = c.dac
	if c.length.counter == 0 {
		c.length.counter = 64
	}
	c.timer = c.period()
	c.env.trigger()
	if !sweep {
		return
	}
	c.shadow = c.freq
	c.reloadSweepTimer()
	c.sweepOn = c.sweepPeriod != 0 || c.sweepShift != 0
	if c.sweepShift != 0 && c.sweepTarget() > 2047 {
		c.on = false
	}
}

func (c *pulse) reloadSweepTimer() {
	c.sweepTimer = c.sweepPeriod
	if c.sweepTimer == 0 {
		c.sweepTimer = 8
	}
}

// sweepTarget is the next frequency computed from the shadow register.
func (c *pulse) sweepTarget() int {
	delta := int(c.shadow >> c.sweepShift)
	if c.sweepDown {
		return int(c.shadow) - delta
	}
	return int(c.shadow) + delta
}

// clockSweep runs on frame-sequencer phases 2 and 6. An overflow past 2047
// disables the channel; a successful update is checked a second time.
func (c *pulse) clockSweep() {
	if c.sweepTimer > 0 {
		c.sweepTimer--
	}
	if c.sweepTimer != 0 {
		return
	}
	c.reloadSweepTimer()
	if !c.sweepOn || c.sweepPeriod == 0 {
		return
	}
	next := c.sweepTarget()
	if next > 2047 {
		c.on = false
		return
	}
	if c.sweepShift == 0 {
		return
	}
	c.shadow = uint16(next)
	c.freq = uint16(next)
	if c.sweepTarget() > 2047 {
		c.on = false
	}
}

type wave struct {
	on      bool
	dac     bool
	volCode byte // 0 mute, 1 100%, 2 50%, 3 25%
	freq    uint16
	timer   int
	pos     int
	length  lengthCounter
	ram     [16]byte
}

func (c *wave) period() int { return (2048 - int(c.freq)) * 2 }

func (c *wave) step(t int) {
	c.timer -= t
	for c.timer <= 0 {
		c.timer += c.period()
		c.pos = (c.pos + 1) & 31
	}
}

func (c *wave) sample() byte {
	b := c.ram[c.pos>>1]
	if c.pos&1 == 0 {
		return b >> 4
	}
	return b & 0x0F
}

var waveGain = [4]float32{0, 1, 0.5, 0.25}

func (c *wave) output() float32 {
	if !c.on || !c.dac {
		return 0
	}
	return (float32(c.sample())/7.5 - 1) * waveGain[c.volCode]
}

func (c *wave) trigger() {
	c.on = c.dac
	if c.length.counter == 0 {
		c.length.counter = 256
	}
	c.timer = c.period()
	c.pos = 0
}

type noise struct {
	on     bool
	dac    bool
	shift  byte
	narrow bool // 7-bit LFSR
	divSel byte
	timer  int
	lfsr   uint16
	length lengthCounter
	env    envelope
}

func (c *noise) period() int { return noiseDivisors[c.divSel] << c.shift }

func (c *noise) step(t int) {
	c.timer -= t
	for c.timer <= 0 {
		c.timer += c.period()
		x := (c.lfsr ^ c.lfsr>>1) & 1
		c.lfsr = c.lfsr>>1 | x<<14
		if c.narrow {
			c.lfsr = c.lfsr&^(1<<6) | x<<6
		}
	}
}

func (c *noise) output() float32 {
	if !c.on {
		return 0
	}
	return bipolar(c.lfsr&1 == 0, c.env.volume)
}

func (c *noise) trigger() {
	c.on = c.dac
	if c.length.counter == 0 {
		c.length.counter = 64
	}
	c.timer = c.period()
	c.lfsr = 0x7FFF
	c.env.trigger()
}
