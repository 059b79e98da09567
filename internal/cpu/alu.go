package cpu

// 8-bit arithmetic. Carry and half-carry are computed on widened operands,
// never from the wrapped result.

func add8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := uint16(0)
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + ci
	res = byte(r)
	z = res == 0
	h = uint16(a&0x0F)+uint16(b&0x0F)+ci > 0x0F
	cy = r > 0xFF
	return
}

func sub8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := int16(0)
	if carryIn {
		ci = 1
	}
	r := int16(a) - int16(b) - ci
	res = byte(r)
	z = res == 0
	n = true
	h = int16(a&0x0F)-int16(b&0x0F)-ci < 0
	cy = r < 0
	return
}

// alu applies one of the eight accumulator operations. CP leaves A alone.
func (c *CPU) alu(k Kind, v byte) {
	var (
		res           byte
		z, n, h, cy   bool
		carry         = c.Flag(FlagC)
		discardResult bool
	)
	switch k {
	case KindADD:
		res, z, n, h, cy = add8(c.A, v, false)
	case KindADC:
		res, z, n, h, cy = add8(c.A, v, carry)
	case KindSUB:
		res, z, n, h, cy = sub8(c.A, v, false)
	case KindSBC:
		res, z, n, h, cy = sub8(c.A, v, carry)
	case KindCP:
		res, z, n, h, cy = sub8(c.A, v, false)
		discardResult = true
	case KindAND:
		res = c.A & v
		z, h = res == 0, true
	case KindXOR:
		res = c.A ^ v
		z = res == 0
	case KindOR:
		res = c.A | v
		z = res == 0
	}
	c.setZNHC(z, n, h, cy)
	if !discardResult {
		c.A = res
	}
}

func (c *CPU) inc8(v byte) byte {
	r := v + 1
	c.setZNHC(r == 0, false, v&0x0F == 0x0F, c.Flag(FlagC))
	return r
}

func (c *CPU) dec8(v byte) byte {
	r := v - 1
	c.setZNHC(r == 0, true, v&0x0F == 0x00, c.Flag(FlagC))
	return r
}

// addHL is ADD HL,rr: Z is preserved, H is the carry out of bit 11.
func (c *CPU) addHL(v uint16) {
	hl := c.HL()
	r := uint32(hl) + uint32(v)
	c.setZNHC(c.Flag(FlagZ), false, (hl&0x0FFF)+(v&0x0FFF) > 0x0FFF, r > 0xFFFF)
	c.SetHL(uint16(r))
}

// spOffset is SP+e8 as used by ADD SP,e8 and LD HL,SP+e8. H and C come from
// the unsigned low-byte addition.
func (c *CPU) spOffset(e byte) uint16 {
	sp := c.SP
	c.setZNHC(false, false, (sp&0x0F)+uint16(e&0x0F) > 0x0F, (sp&0xFF)+uint16(e) > 0xFF)
	return sp + uint16(int8(e))
}

func (c *CPU) daa() {
	a := c.A
	carry := c.Flag(FlagC)
	var adj byte
	if c.Flag(FlagH) || (!c.Flag(FlagN) && a&0x0F > 0x09) {
		adj |= 0x06
	}
	if carry || (!c.Flag(FlagN) && a > 0x99) {
		adj |= 0x60
		carry = true
	}
	if c.Flag(FlagN) {
		a -= adj
	} else {
		a += adj
	}
	c.A = a
	c.setZNHC(a == 0, c.Flag(FlagN), false, carry)
}

// shift runs one of the CB rotate/shift/swap operations on v.
func (c *CPU) shift(k Kind, v byte) byte {
	var r byte
	var out bool
	carry := byte(0)
	if c.Flag(FlagC) {
		carry = 1
	}
	switch k {
	case KindRLC:
		r, out = v<<1|v>>7, v&0x80 != 0
	case KindRRC:
		r, out = v>>1|v<<7, v&0x01 != 0
	case KindRL:
		r, out = v<<1|carry, v&0x80 != 0
	case KindRR:
		r, out = v>>1|carry<<7, v&0x01 != 0
	case KindSLA:
		r, out = v<<1, v&0x80 != 0
	case KindSRA:
		r, out = v>>1|v&0x80, v&0x01 != 0
	case KindSWAP:
		r = v<<4 | v>>4
	case KindSRL:
		r, out = v>>1, v&0x01 != 0
	}
	c.setZNHC(r == 0, false, false, out)
	return r
}

var accumulatorForms = map[Kind]Kind{KindRLCA: KindRLC, KindRRCA: KindRRC, KindRLA: KindRL, KindRRA: KindRR}

// accumulatorRotate is RLCA/RRCA/RLA/RRA: the CB form on A with Z cleared.
func (c *CPU) accumulatorRotate(k Kind) {
	c.A = c.shift(accumulatorForms[k], c.A)
	c.setFlag(FlagZ, false)
}
