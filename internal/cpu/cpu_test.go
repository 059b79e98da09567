package cpu

import (
	"errors"
	"testing"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/interrupt"
)

type flatMem [0x10000]byte

func (m *flatMem) Read8(addr uint16) byte     { return m[addr] }
func (m *flatMem) Write8(addr uint16, v byte) { m[addr] = v }

// newCPU places code at 0x0100, where execution starts after boot.
func newCPU(code ...byte) (*CPU, *flatMem) {
	m := &flatMem{}
	copy(m[0x0100:], code)
	return New(m), m
}

func mustStep(t *testing.T, c *CPU) int {
	t.Helper()
	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	return cycles
}

func TestCPU_PostBootState(t *testing.T) {
	c, _ := newCPU()
	if c.A != 0x01 || c.F != 0xB0 || c.SP != 0xFFFE || c.PC != 0x0100 {
		t.Fatalf("post-boot A=%02x F=%02x SP=%04x PC=%04x", c.A, c.F, c.SP, c.PC)
	}
	if c.BC() != 0x0013 || c.DE() != 0x00D8 || c.HL() != 0x014D {
		t.Fatalf("post-boot BC=%04x DE=%04x HL=%04x", c.BC(), c.DE(), c.HL())
	}
	if c.IME() || c.Halted() {
		t.Fatalf("IME/HALT set after reset")
	}
}

func TestCPU_NopAndPC(t *testing.T) {
	c, _ := newCPU(0x00)
	if cycles := mustStep(t, c); cycles != 4 {
		t.Fatalf("NOP cycles got %d want 4", cycles)
	}
	if c.PC != 0x0101 {
		t.Fatalf("PC after NOP got %#04x want 0x0101", c.PC)
	}
}

func TestDecodeTables(t *testing.T) {
	illegal := map[byte]bool{0xD3: true, 0xDB: true, 0xDD: true, 0xE3: true, 0xE4: true, 0xEB: true, 0xEC: true, 0xED: true, 0xF4: true, 0xFC: true, 0xFD: true}
	for op := 0; op < 256; op++ {
		in := Primary[op]
		if illegal[byte(op)] {
			if in != nil {
				t.Fatalf("opcode %02x should be illegal", op)
			}
			continue
		}
		if in == nil {
			t.Fatalf("opcode %02x missing from primary table", op)
		}
		if in.Opcode != byte(op) || in.Cycles == 0 || in.Length == 0 {
			t.Fatalf("opcode %02x entry %+v", op, *in)
		}
		if Extended[op] == nil || Extended[op].Length != 2 {
			t.Fatalf("extended opcode %02x missing", op)
		}
	}
	for op, length := range map[byte]int{0x01: 3, 0x06: 2, 0x08: 3, 0x10: 2, 0x18: 2, 0x36: 2, 0xC3: 3, 0xCD: 3, 0xE0: 2, 0xE8: 2, 0xEA: 3, 0xF8: 2, 0xCB: 1} {
		if got := Primary[op].Length; got != length {
			t.Fatalf("opcode %02x length got %d want %d", op, got, length)
		}
	}
}

func TestCPU_UnknownOpcodeIsFatal(t *testing.T) {
	c, _ := newCPU(0x00, 0xD3)
	mustStep(t, c)
	_, err := c.Step()
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("err got %v want ErrUnknownOpcode", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.PC != 0x0101 || de.Opcode != 0xD3 {
		t.Fatalf("decode error got %+v", de)
	}
}

func TestADD_FlagsExhaustive(t *testing.T) {
	c, _ := newCPU()
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			c.A = byte(a)
			c.alu(KindADD, byte(b))
			wantZ := (a+b)%256 == 0
			wantH := (a&0xF)+(b&0xF) > 0xF
			wantC := a+b > 0xFF
			if c.A != byte(a+b) || c.Flag(FlagZ) != wantZ || c.Flag(FlagH) != wantH || c.Flag(FlagC) != wantC || c.Flag(FlagN) {
				t.Fatalf("ADD %02x+%02x got A=%02x F=%02x", a, b, c.A, c.F)
			}
		}
	}
}

func TestSUB_FlagsExhaustive(t *testing.T) {
	c, _ := newCPU()
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			for _, carry := range []bool{false, true} {
				ci := 0
				if carry {
					ci = 1
				}
				c.A = byte(a)
				c.setZNHC(false, false, false, carry)
				c.alu(KindSBC, byte(b))
				wantH := (a&0xF)-(b&0xF)-ci < 0
				wantC := a-b-ci < 0
				if c.A != byte(a-b-ci) || c.Flag(FlagZ) != (c.A == 0) || c.Flag(FlagH) != wantH || c.Flag(FlagC) != wantC || !c.Flag(FlagN) {
					t.Fatalf("SBC %02x-%02x-%d got A=%02x F=%02x", a, b, ci, c.A, c.F)
				}
			}
		}
	}
}

func TestLogicFlags(t *testing.T) {
	c, _ := newCPU()
	c.A = 0xF0
	c.alu(KindAND, 0x0F)
	if c.A != 0 || c.F != FlagZ|FlagH {
		t.Fatalf("AND got A=%02x F=%02x", c.A, c.F)
	}
	c.A = 0xF0
	c.setZNHC(false, true, true, true)
	c.alu(KindOR, 0x0F)
	if c.A != 0xFF || c.F != 0 {
		t.Fatalf("OR got A=%02x F=%02x", c.A, c.F)
	}
	c.alu(KindXOR, 0xFF)
	if c.A != 0 || c.F != FlagZ {
		t.Fatalf("XOR got A=%02x F=%02x", c.A, c.F)
	}
	c.A = 0x10
	c.alu(KindCP, 0x10)
	if c.A != 0x10 || c.F != FlagZ|FlagN {
		t.Fatalf("CP got A=%02x F=%02x", c.A, c.F)
	}
}

func TestCPU_INC_B_Flags(t *testing.T) {
	c, _ := newCPU(0x04, 0x04) // INC B twice
	c.B = 0x0F
	c.F = FlagC
	mustStep(t, c)
	if c.B != 0x10 || !c.Flag(FlagH) || !c.Flag(FlagC) {
		t.Fatalf("INC B got B=%02x F=%02x", c.B, c.F)
	}
	c.B = 0xFF
	mustStep(t, c)
	if c.B != 0x00 || !c.Flag(FlagZ) {
		t.Fatalf("INC B to 0 should set Z flag, B=%02x, F=%02x", c.B, c.F)
	}
}

func TestCPU_16BitIncDecWrapWithoutFlags(t *testing.T) {
	c, _ := newCPU(0x03, 0x1B, 0x33) // INC BC; DEC DE; INC SP
	c.SetBC(0xFFFF)
	c.SetDE(0x0000)
	c.SP = 0xFFFF
	c.F = 0xA0
	for i := 0; i < 3; i++ {
		if cycles := mustStep(t, c); cycles != 8 {
			t.Fatalf("16-bit inc/dec cycles got %d", cycles)
		}
	}
	if c.BC() != 0 || c.DE() != 0xFFFF || c.SP != 0 || c.F != 0xA0 {
		t.Fatalf("BC=%04x DE=%04x SP=%04x F=%02x", c.BC(), c.DE(), c.SP, c.F)
	}
}

func TestCPU_ADD_HL(t *testing.T) {
	c, _ := newCPU(0x09) // ADD HL,BC
	c.SetHL(0x8FFF)
	c.SetBC(0x8001)
	c.F = FlagZ
	mustStep(t, c)
	if c.HL() != 0x1000 || c.F != FlagZ|FlagH|FlagC {
		t.Fatalf("ADD HL got HL=%04x F=%02x", c.HL(), c.F)
	}
}

func TestCPU_SPOffset(t *testing.T) {
	c, _ := newCPU(0xE8, 0xFF, 0xF8, 0x02) // ADD SP,-1; LD HL,SP+2
	c.SP = 0x0001
	if cycles := mustStep(t, c); cycles != 16 {
		t.Fatalf("ADD SP cycles got %d", cycles)
	}
	if c.SP != 0x0000 || c.F != FlagH|FlagC {
		t.Fatalf("ADD SP got SP=%04x F=%02x", c.SP, c.F)
	}
	mustStep(t, c)
	if c.HL() != 0x0002 || c.F != 0 {
		t.Fatalf("LD HL,SP+2 got HL=%04x F=%02x", c.HL(), c.F)
	}
}

func TestCPU_PushPopAFMasksFlags(t *testing.T) {
	c, m := newCPU(0xC5, 0xF1) // PUSH BC; POP AF
	c.SetBC(0x12FF)
	mustStep(t, c)
	if m[0xFFFC] != 0xFF || m[0xFFFD] != 0x12 {
		t.Fatalf("stack bytes %02x %02x", m[0xFFFC], m[0xFFFD])
	}
	mustStep(t, c)
	if c.A != 0x12 || c.F != 0xF0 || c.AF() != 0x12F0 || c.SP != 0xFFFE {
		t.Fatalf("POP AF got A=%02x F=%02x SP=%04x", c.A, c.F, c.SP)
	}
}

func TestCPU_LoadsAndIndirect(t *testing.T) {
	c, m := newCPU(
		0x21, 0x00, 0xC0, // LD HL,C000
		0x36, 0x5A, // LD (HL),5A
		0x2A,             // LD A,(HL+)
		0xEA, 0x10, 0xC0, // LD (C010),A
		0xE0, 0x80, // LDH (FF80),A
		0x0E, 0x81, // LD C,81
		0xE2,             // LD (C),A
		0xFA, 0x10, 0xC0, // LD A,(C010)
		0x08, 0x20, 0xC0, // LD (C020),SP
	)
	want := []int{12, 12, 8, 16, 12, 8, 8, 16, 20}
	for i, w := range want {
		if got := mustStep(t, c); got != w {
			t.Fatalf("step %d cycles got %d want %d", i, got, w)
		}
	}
	if m[0xC000] != 0x5A || m[0xC010] != 0x5A || m[0xFF80] != 0x5A || m[0xFF81] != 0x5A {
		t.Fatalf("memory %02x %02x %02x %02x", m[0xC000], m[0xC010], m[0xFF80], m[0xFF81])
	}
	if c.HL() != 0xC001 || c.A != 0x5A {
		t.Fatalf("HL=%04x A=%02x", c.HL(), c.A)
	}
	if m[0xC020] != 0xFE || m[0xC021] != 0xFF {
		t.Fatalf("LD (a16),SP wrote %02x %02x", m[0xC020], m[0xC021])
	}
}

func TestCPU_ConditionalCycles(t *testing.T) {
	c, _ := newCPU(0x20, 0x02, 0x00, 0x00, 0x20, 0xFE) // JR NZ,+2; NOP; NOP; JR NZ,-2
	c.F = FlagZ
	if got := mustStep(t, c); got != 8 || c.PC != 0x0102 {
		t.Fatalf("JR NZ not taken cycles=%d PC=%04x", got, c.PC)
	}
	c.PC = 0x0104
	c.F = 0
	if got := mustStep(t, c); got != 12 || c.PC != 0x0104 {
		t.Fatalf("JR NZ taken cycles=%d PC=%04x", got, c.PC)
	}
}

func TestCPU_CallRet(t *testing.T) {
	c, m := newCPU(0xCD, 0x10, 0x01) // CALL 0110
	m[0x0110] = 0xC8                 // RET Z
	m[0x0111] = 0xC9                 // RET
	if got := mustStep(t, c); got != 24 || c.PC != 0x0110 || c.SP != 0xFFFC {
		t.Fatalf("CALL cycles=%d PC=%04x SP=%04x", got, c.PC, c.SP)
	}
	c.F = 0
	if got := mustStep(t, c); got != 8 || c.PC != 0x0111 {
		t.Fatalf("RET Z not taken cycles=%d PC=%04x", got, c.PC)
	}
	if got := mustStep(t, c); got != 16 || c.PC != 0x0103 || c.SP != 0xFFFE {
		t.Fatalf("RET cycles=%d PC=%04x SP=%04x", got, c.PC, c.SP)
	}
}

func TestCPU_RST(t *testing.T) {
	c, m := newCPU(0xFF)
	mustStep(t, c)
	if c.PC != 0x0038 || m[0xFFFC] != 0x01 || m[0xFFFD] != 0x01 {
		t.Fatalf("RST 38 PC=%04x stack=%02x%02x", c.PC, m[0xFFFD], m[0xFFFC])
	}
}

func TestCPU_DAA(t *testing.T) {
	c, _ := newCPU(0x3E, 0x15, 0xC6, 0x27, 0x27, 0xD6, 0x08, 0x27) // LD A,15; ADD 27; DAA; SUB 08; DAA
	for i := 0; i < 3; i++ {
		mustStep(t, c)
	}
	if c.A != 0x42 {
		t.Fatalf("DAA after add got %02x want 42", c.A)
	}
	mustStep(t, c)
	mustStep(t, c)
	if c.A != 0x34 || c.Flag(FlagC) {
		t.Fatalf("DAA after sub got %02x F=%02x want 34", c.A, c.F)
	}
}

func TestCPU_CBOps(t *testing.T) {
	c, m := newCPU(
		0xCB, 0x7C, // BIT 7,H
		0xCB, 0x37, // SWAP A
		0xCB, 0xC6, // SET 0,(HL)
		0xCB, 0x86, // RES 0,(HL)
		0xCB, 0x46, // BIT 0,(HL)
		0xCB, 0x11, // RL C
	)
	c.H = 0x80
	c.A = 0xF1
	c.SetHL(0xC000)
	c.H = 0xC0
	c.C = 0x80
	c.F = 0
	want := []int{8, 8, 16, 16, 12, 8}
	for i, w := range want {
		if got := mustStep(t, c); got != w {
			t.Fatalf("CB step %d cycles got %d want %d", i, got, w)
		}
		switch i {
		case 0:
			if c.Flag(FlagZ) || !c.Flag(FlagH) {
				t.Fatalf("BIT 7,H F=%02x", c.F)
			}
		case 1:
			if c.A != 0x1F || c.F != 0 {
				t.Fatalf("SWAP got %02x F=%02x", c.A, c.F)
			}
		case 2:
			if m[0xC000] != 0x01 {
				t.Fatalf("SET 0,(HL) got %02x", m[0xC000])
			}
		case 4:
			if m[0xC000] != 0x00 || !c.Flag(FlagZ) {
				t.Fatalf("RES/BIT on (HL) mem=%02x F=%02x", m[0xC000], c.F)
			}
		case 5:
			if c.C != 0x00 || c.F != FlagZ|FlagC {
				t.Fatalf("RL C got %02x F=%02x", c.C, c.F)
			}
		}
	}
}

func TestCPU_AccumulatorRotateClearsZ(t *testing.T) {
	c, _ := newCPU(0x17) // RLA
	c.A = 0x80
	c.F = 0
	mustStep(t, c)
	if c.A != 0 || c.F != FlagC {
		t.Fatalf("RLA got A=%02x F=%02x", c.A, c.F)
	}
}

func TestCPU_InterruptDispatch(t *testing.T) {
	c, m := newCPU(0x00)
	c.ime = true
	m[regIE] = interrupt.LCDStat | interrupt.Timer
	m[regIF] = interrupt.Timer | interrupt.LCDStat | interrupt.VBlank
	if got := mustStep(t, c); got != 20 {
		t.Fatalf("dispatch cycles got %d want 20", got)
	}
	if c.PC != 0x0048 || c.IME() || c.SP != 0xFFFC {
		t.Fatalf("after dispatch PC=%04x IME=%v SP=%04x", c.PC, c.IME(), c.SP)
	}
	if m[regIF] != interrupt.Timer|interrupt.VBlank {
		t.Fatalf("IF after dispatch got %02x", m[regIF])
	}
	if m[0xFFFC] != 0x00 || m[0xFFFD] != 0x01 {
		t.Fatalf("pushed PC %02x%02x want 0100", m[0xFFFD], m[0xFFFC])
	}
}

func TestCPU_EIDelaysOneInstruction(t *testing.T) {
	c, m := newCPU(0xFB, 0x00, 0x00) // EI; NOP; NOP
	m[regIE] = interrupt.VBlank
	m[regIF] = interrupt.VBlank
	mustStep(t, c) // EI
	if c.IME() {
		t.Fatalf("IME set immediately after EI")
	}
	mustStep(t, c) // NOP runs before the interrupt
	if c.PC != 0x0102 || !c.IME() {
		t.Fatalf("after NOP PC=%04x IME=%v", c.PC, c.IME())
	}
	mustStep(t, c)
	if c.PC != 0x0040 {
		t.Fatalf("interrupt not taken, PC=%04x", c.PC)
	}
}

func TestCPU_EIThenDIKeepsIMEOff(t *testing.T) {
	c, _ := newCPU(0xFB, 0xF3, 0x00)
	mustStep(t, c)
	mustStep(t, c)
	mustStep(t, c)
	if c.IME() {
		t.Fatalf("EI;DI left IME on")
	}
}

func TestCPU_HaltWaitsForInterrupt(t *testing.T) {
	c, m := newCPU(0x76, 0x3C) // HALT; INC A
	m[regIE] = interrupt.Timer
	mustStep(t, c)
	if !c.Halted() {
		t.Fatalf("HALT did not halt")
	}
	for i := 0; i < 3; i++ {
		if got := mustStep(t, c); got != 4 || c.PC != 0x0101 {
			t.Fatalf("halted step cycles=%d PC=%04x", got, c.PC)
		}
	}
	m[regIF] = interrupt.Timer // IME off: wake without servicing
	mustStep(t, c)
	if c.Halted() || c.A != 0x02 || c.PC != 0x0102 {
		t.Fatalf("after wake halted=%v A=%02x PC=%04x", c.Halted(), c.A, c.PC)
	}
}

func TestCPU_HaltWithIMEServicesInterrupt(t *testing.T) {
	c, m := newCPU(0xFB, 0x76, 0x00) // EI; HALT
	m[regIE] = interrupt.Joypad
	mustStep(t, c)
	mustStep(t, c)
	if !c.Halted() {
		t.Fatalf("not halted")
	}
	m[regIF] = interrupt.Joypad
	if got := mustStep(t, c); got != 20 || c.PC != 0x0060 {
		t.Fatalf("wake dispatch cycles=%d PC=%04x", got, c.PC)
	}
	if m[0xFFFC] != 0x02 || m[0xFFFD] != 0x01 {
		t.Fatalf("return address %02x%02x want 0102", m[0xFFFD], m[0xFFFC])
	}
}

func TestCPU_HaltBugRepeatsNextByte(t *testing.T) {
	c, m := newCPU(0x76, 0x3C, 0x00) // HALT; INC A; NOP
	m[regIE] = interrupt.Serial
	m[regIF] = interrupt.Serial
	mustStep(t, c)
	if c.Halted() {
		t.Fatalf("HALT with pending interrupt and IME off should not halt")
	}
	mustStep(t, c)
	if c.PC != 0x0101 || c.A != 0x02 {
		t.Fatalf("first INC A PC=%04x A=%02x", c.PC, c.A)
	}
	mustStep(t, c)
	if c.PC != 0x0102 || c.A != 0x03 {
		t.Fatalf("repeated INC A PC=%04x A=%02x", c.PC, c.A)
	}
}

func TestCPU_StopIdlesUntilInterrupt(t *testing.T) {
	c, m := newCPU(0x10, 0x00, 0x3C)
	m[regIE] = interrupt.Joypad
	mustStep(t, c)
	if !c.Stopped() || c.PC != 0x0102 {
		t.Fatalf("STOP state=%v PC=%04x", c.Stopped(), c.PC)
	}
	mustStep(t, c)
	if c.A != 0x01 {
		t.Fatalf("executed while stopped")
	}
	m[regIF] = interrupt.Joypad
	mustStep(t, c)
	if c.Stopped() || c.A != 0x02 {
		t.Fatalf("did not resume after joypad interrupt")
	}
}

func TestDisassemble(t *testing.T) {
	m := &flatMem{}
	cases := []struct {
		code []byte
		want string
		n    int
	}{
		{[]byte{0x3E, 0x12}, "LD A,$12", 2},
		{[]byte{0x20, 0xFE}, "JR NZ,$0100", 2},
		{[]byte{0xC3, 0x50, 0x01}, "JP $0150", 3},
		{[]byte{0xEA, 0x00, 0xC0}, "LD ($C000),A", 3},
		{[]byte{0xF0, 0x44}, "LD A,($FF44)", 2},
		{[]byte{0xCB, 0x7C}, "BIT 7,H", 2},
		{[]byte{0xCB, 0x37}, "SWAP A", 2},
		{[]byte{0xF8, 0xFE}, "LD HL,SP-$02", 2},
		{[]byte{0xEF}, "RST $28", 1},
		{[]byte{0x22}, "LD (HL+),A", 1},
		{[]byte{0xD3}, "DB $D3", 1},
		{[]byte{0x76}, "HALT", 1},
	}
	for _, tc := range cases {
		copy(m[0x0100:], tc.code)
		got, n := Disassemble(m, 0x0100)
		if got != tc.want || n != tc.n {
			t.Fatalf("% X: got %q/%d want %q/%d", tc.code, got, n, tc.want, tc.n)
		}
	}
}
