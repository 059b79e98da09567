package cpu

// load reads an 8-bit operand. Immediates and address operands consume
// bytes from the instruction stream; (HL+)/(HL-) adjust HL.
func (c *CPU) load(o Operand) byte {
	switch o {
	case OpA:
		return c.A
	case OpB:
		return c.B
	case OpC:
		return c.C
	case OpD:
		return c.D
	case OpE:
		return c.E
	case OpH:
		return c.H
	case OpL:
		return c.L
	case OpD8, OpE8:
		return c.fetch8()
	}
	return c.read8(c.address(o))
}

func (c *CPU) store(o Operand, v byte) {
	switch o {
	case OpA:
		c.A = v
	case OpB:
		c.B = v
	case OpC:
		c.C = v
	case OpD:
		c.D = v
	case OpE:
		c.E = v
	case OpH:
		c.H = v
	case OpL:
		c.L = v
	default:
		c.write8(c.address(o), v)
	}
}

// address resolves a memory operand to its effective address.
func (c *CPU) address(o Operand) uint16 {
	switch o {
	case OpHLInd:
		return c.HL()
	case OpBCInd:
		return c.BC()
	case OpDEInd:
		return c.DE()
	case OpHLInc:
		hl := c.HL()
		c.SetHL(hl + 1)
		return hl
	case OpHLDec:
		hl := c.HL()
		c.SetHL(hl - 1)
		return hl
	case OpCInd:
		return 0xFF00 | uint16(c.C)
	case OpA8Ind:
		return 0xFF00 | uint16(c.fetch8())
	case OpA16Ind:
		return c.fetch16()
	}
	panic("cpu: operand " + o.String() + " is not a memory reference")
}

func (c *CPU) load16(o Operand) uint16 {
	switch o {
	case OpAF:
		return c.AF()
	case OpBC:
		return c.BC()
	case OpDE:
		return c.DE()
	case OpHL:
		return c.HL()
	case OpSP:
		return c.SP
	case OpD16, OpA16:
		return c.fetch16()
	}
	panic("cpu: operand " + o.String() + " is not 16-bit")
}

func (c *CPU) store16(o Operand, v uint16) {
	switch o {
	case OpAF:
		c.SetAF(v)
	case OpBC:
		c.SetBC(v)
	case OpDE:
		c.SetDE(v)
	case OpHL:
		c.SetHL(v)
	case OpSP:
		c.SP = v
	case OpA16Ind:
		addr := c.fetch16()
		c.write8(addr, byte(v))
		c.write8(addr+1, byte(v>>8))
	default:
		panic("cpu: cannot store 16 bits to " + o.String())
	}
}

// execute runs a decoded instruction whose opcode bytes have been fetched
// and returns its T-cycle cost.
func (c *CPU) execute(in *Instruction) int {
	switch in.Kind {
	case KindNOP:
	case KindLD:
		c.store(in.Dst, c.load(in.Src))
	case KindLD16:
		c.store16(in.Dst, c.load16(in.Src))
	case KindPUSH:
		c.push16(c.load16(in.Src))
	case KindPOP:
		c.store16(in.Dst, c.pop16())

	case KindADD, KindADC, KindSUB, KindSBC, KindAND, KindXOR, KindOR, KindCP:
		c.alu(in.Kind, c.load(in.Src))
	case KindINC:
		c.readModifyWrite(in.Dst, c.inc8)
	case KindDEC:
		c.readModifyWrite(in.Dst, c.dec8)

	// 16-bit INC/DEC wrap and leave flags alone.
	case KindINC16:
		c.store16(in.Dst, c.load16(in.Dst)+1)
	case KindDEC16:
		c.store16(in.Dst, c.load16(in.Dst)-1)
	case KindADD16:
		c.addHL(c.load16(in.Src))
	case KindADDSP:
		c.SP = c.spOffset(c.fetch8())
	case KindLDHLSP:
		c.SetHL(c.spOffset(c.fetch8()))

	case KindRLCA, KindRRCA, KindRLA, KindRRA:
		c.accumulatorRotate(in.Kind)
	case KindDAA:
		c.daa()
	case KindCPL:
		c.A = ^c.A
		c.setFlag(FlagN, true)
		c.setFlag(FlagH, true)
	case KindSCF:
		c.setZNHC(c.Flag(FlagZ), false, false, true)
	case KindCCF:
		c.setZNHC(c.Flag(FlagZ), false, false, !c.Flag(FlagC))

	case KindJP:
		target := c.load16(in.Src)
		if !c.condition(in.Cond) {
			return in.Cycles
		}
		c.PC = target
		return c.taken(in)
	case KindJR:
		e := int8(c.fetch8())
		if !c.condition(in.Cond) {
			return in.Cycles
		}
		c.PC = uint16(int(c.PC) + int(e))
		return c.taken(in)
	case KindCALL:
		target := c.fetch16()
		if !c.condition(in.Cond) {
			return in.Cycles
		}
		c.push16(c.PC)
		c.PC = target
		return c.taken(in)
	case KindRET:
		if !c.condition(in.Cond) {
			return in.Cycles
		}
		c.PC = c.pop16()
		return c.taken(in)
	case KindRETI:
		c.PC = c.pop16()
		c.ime = true
	case KindRST:
		c.push16(c.PC)
		c.PC = uint16(in.Bit)

	case KindHALT:
		if !c.ime && c.pending() != 0 {
			c.haltBug = true
		} else {
			c.halted = true
		}
	case KindSTOP:
		c.fetch8()
		c.stopped = true
	case KindDI:
		c.ime = false
	case KindEI:
		c.eiDelay = true

	case KindRLC, KindRRC, KindRL, KindRR, KindSLA, KindSRA, KindSWAP, KindSRL:
		c.readModifyWrite(in.Dst, func(v byte) byte { return c.shift(in.Kind, v) })
	case KindBIT:
		v := c.load(in.Dst)
		c.setZNHC(v&(1<<in.Bit) == 0, false, true, c.Flag(FlagC))
	case KindRES:
		c.readModifyWrite(in.Dst, func(v byte) byte { return v &^ (1 << in.Bit) })
	case KindSET:
		c.readModifyWrite(in.Dst, func(v byte) byte { return v | 1<<in.Bit })
	}
	return in.Cycles
}

// readModifyWrite applies f to an 8-bit operand, reading (HL) only once.
func (c *CPU) readModifyWrite(o Operand, f func(byte) byte) {
	if o == OpHLInd {
		addr := c.HL()
		c.write8(addr, f(c.read8(addr)))
		return
	}
	c.store(o, f(c.load(o)))
}

// taken is the cost of a conditional branch that was followed; unconditional
// forms carry a single cost.
func (c *CPU) taken(in *Instruction) int {
	if in.Taken != 0 {
		return in.Taken
	}
	return in.Cycles
}
