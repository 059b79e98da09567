package cpu

// Kind identifies an instruction form; operands and condition ride along in
// the Instruction.
type Kind uint8

const (
	KindNOP Kind = iota
	KindLD
	KindLD16
	KindPUSH
	KindPOP
	KindADD
	KindADC
	KindSUB
	KindSBC
	KindAND
	KindXOR
	KindOR
	KindCP
	KindINC
	KindDEC
	KindADD16
	KindINC16
	KindDEC16
	KindADDSP
	KindLDHLSP
	KindRLCA
	KindRRCA
	KindRLA
	KindRRA
	KindDAA
	KindCPL
	KindSCF
	KindCCF
	KindJP
	KindJR
	KindCALL
	KindRET
	KindRETI
	KindRST
	KindHALT
	KindSTOP
	KindDI
	KindEI
	KindPREFIX
	KindRLC
	KindRRC
	KindRL
	KindRR
	KindSLA
	KindSRA
	KindSWAP
	KindSRL
	KindBIT
	KindRES
	KindSET
)

var kindNames = [...]string{
	"NOP", "LD", "LD", "PUSH", "POP", "ADD", "ADC", "SUB", "SBC", "AND", "XOR", "OR", "CP",
	"INC", "DEC", "ADD", "INC", "DEC", "ADD", "LD", "RLCA", "RRCA", "RLA", "RRA", "DAA",
	"CPL", "SCF", "CCF", "JP", "JR", "CALL", "RET", "RETI", "RST", "HALT", "STOP", "DI",
	"EI", "PREFIX", "RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL", "BIT", "RES", "SET",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "???"
}

// Operand names a register, memory reference or immediate.
type Operand uint8

const (
	OpNone Operand = iota
	OpB
	OpC
	OpD
	OpE
	OpH
	OpL
	OpHLInd // (HL)
	OpA

	OpBCInd  // (BC)
	OpDEInd  // (DE)
	OpHLInc  // (HL+)
	OpHLDec  // (HL-)
	OpCInd   // (FF00+C)
	OpA8Ind  // (FF00+a8)
	OpA16Ind // (a16)

	OpAF
	OpBC
	OpDE
	OpHL
	OpSP

	OpD8
	OpD16
	OpE8 // signed 8-bit offset
	OpA16
)

var operandNames = [...]string{
	"", "B", "C", "D", "E", "H", "L", "(HL)", "A",
	"(BC)", "(DE)", "(HL+)", "(HL-)", "(C)", "(a8)", "(a16)",
	"AF", "BC", "DE", "HL", "SP",
	"d8", "d16", "e8", "a16",
}

func (o Operand) String() string {
	if int(o) < len(operandNames) {
		return operandNames[o]
	}
	return "?"
}

// immediateSize is the number of operand bytes o pulls from the stream.
func (o Operand) immediateSize() int {
	switch o {
	case OpD8, OpE8, OpA8Ind:
		return 1
	case OpD16, OpA16, OpA16Ind:
		return 2
	}
	return 0
}

type Cond uint8

const (
	CondAlways Cond = iota
	CondNZ
	CondZ
	CondNC
	CondC
)

func (c Cond) String() string {
	return [...]string{"", "NZ", "Z", "NC", "C"}[c]
}

// Instruction is one decoded opcode. Cycles is the cost in T-cycles, or the
// not-taken cost for conditional control flow, whose taken cost is Taken.
// For BIT/RES/SET, Bit is the bit index; for RST it is the vector.
type Instruction struct {
	Opcode byte
	Kind   Kind
	Dst    Operand
	Src    Operand
	Cond   Cond
	Bit    byte
	Length int
	Cycles int
	Taken  int
}

// Primary is indexed by the first opcode byte, Extended by the byte that
// follows the 0xCB prefix. Nil entries in Primary are illegal opcodes.
var (
	Primary  [256]*Instruction
	Extended [256]*Instruction
)

// r8 is the register encoding used in bits 0-2 and 3-5 of most opcodes.
var r8 = [8]Operand{OpB, OpC, OpD, OpE, OpH, OpL, OpHLInd, OpA}

var (
	rp     = [4]Operand{OpBC, OpDE, OpHL, OpSP}
	rpPush = [4]Operand{OpBC, OpDE, OpHL, OpAF}
	conds  = [4]Cond{CondNZ, CondZ, CondNC, CondC}
	aluOps = [8]Kind{KindADD, KindADC, KindSUB, KindSBC, KindAND, KindXOR, KindOR, KindCP}
	cbOps  = [8]Kind{KindRLC, KindRRC, KindRL, KindRR, KindSLA, KindSRA, KindSWAP, KindSRL}
)

func define(op byte, in Instruction) {
	in.Opcode = op
	in.Length = 1 + in.Dst.immediateSize() + in.Src.immediateSize()
	Primary[op] = &in
}

// cost returns base for register operands and mem for (HL).
func cost(o Operand, base, mem int) int {
	if o == OpHLInd {
		return mem
	}
	return base
}

func init() {
	buildPrimary()
	buildExtended()
}

func buildPrimary() {
	define(0x00, Instruction{Kind: KindNOP, Cycles: 4})
	define(0x08, Instruction{Kind: KindLD16, Dst: OpA16Ind, Src: OpSP, Cycles: 20})
	define(0x10, Instruction{Kind: KindSTOP, Src: OpD8, Cycles: 4})
	define(0x18, Instruction{Kind: KindJR, Src: OpE8, Cycles: 12})
	for i, cc := range conds {
		define(0x20+byte(i)<<3, Instruction{Kind: KindJR, Cond: cc, Src: OpE8, Cycles: 8, Taken: 12})
		define(0xC0+byte(i)<<3, Instruction{Kind: KindRET, Cond: cc, Cycles: 8, Taken: 20})
		define(0xC2+byte(i)<<3, Instruction{Kind: KindJP, Cond: cc, Src: OpA16, Cycles: 12, Taken: 16})
		define(0xC4+byte(i)<<3, Instruction{Kind: KindCALL, Cond: cc, Src: OpA16, Cycles: 12, Taken: 24})
	}

	for i, r := range rp {
		base := byte(i) << 4
		define(0x01+base, Instruction{Kind: KindLD16, Dst: r, Src: OpD16, Cycles: 12})
		define(0x03+base, Instruction{Kind: KindINC16, Dst: r, Cycles: 8})
		define(0x09+base, Instruction{Kind: KindADD16, Dst: OpHL, Src: r, Cycles: 8})
		define(0x0B+base, Instruction{Kind: KindDEC16, Dst: r, Cycles: 8})
		define(0xC1+base, Instruction{Kind: KindPOP, Dst: rpPush[i], Cycles: 12})
		define(0xC5+base, Instruction{Kind: KindPUSH, Src: rpPush[i], Cycles: 16})
	}

	indirect := [4]Operand{OpBCInd, OpDEInd, OpHLInc, OpHLDec}
	for i, m := range indirect {
		base := byte(i) << 4
		define(0x02+base, Instruction{Kind: KindLD, Dst: m, Src: OpA, Cycles: 8})
		define(0x0A+base, Instruction{Kind: KindLD, Dst: OpA, Src: m, Cycles: 8})
	}

	for i, r := range r8 {
		y := byte(i) << 3
		define(0x04+y, Instruction{Kind: KindINC, Dst: r, Cycles: cost(r, 4, 12)})
		define(0x05+y, Instruction{Kind: KindDEC, Dst: r, Cycles: cost(r, 4, 12)})
		define(0x06+y, Instruction{Kind: KindLD, Dst: r, Src: OpD8, Cycles: cost(r, 8, 12)})
	}

	for i, k := range [8]Kind{KindRLCA, KindRRCA, KindRLA, KindRRA, KindDAA, KindCPL, KindSCF, KindCCF} {
		define(0x07+byte(i)<<3, Instruction{Kind: k, Cycles: 4})
	}

	for d, dst := range r8 {
		for s, src := range r8 {
			op := 0x40 | byte(d)<<3 | byte(s)
			if op == 0x76 {
				continue
			}
			cyc := 4
			if dst == OpHLInd || src == OpHLInd {
				cyc = 8
			}
			define(op, Instruction{Kind: KindLD, Dst: dst, Src: src, Cycles: cyc})
		}
	}
	define(0x76, Instruction{Kind: KindHALT, Cycles: 4})

	for i, k := range aluOps {
		for s, src := range r8 {
			define(0x80|byte(i)<<3|byte(s), Instruction{Kind: k, Dst: OpA, Src: src, Cycles: cost(src, 4, 8)})
		}
		define(0xC6+byte(i)<<3, Instruction{Kind: k, Dst: OpA, Src: OpD8, Cycles: 8})
	}

	for i := 0; i < 8; i++ {
		define(0xC7+byte(i)<<3, Instruction{Kind: KindRST, Bit: byte(i) << 3, Cycles: 16})
	}

	define(0xC3, Instruction{Kind: KindJP, Src: OpA16, Cycles: 16})
	define(0xC9, Instruction{Kind: KindRET, Cycles: 16})
	define(0xCB, Instruction{Kind: KindPREFIX, Cycles: 4})
	define(0xCD, Instruction{Kind: KindCALL, Src: OpA16, Cycles: 24})
	define(0xD9, Instruction{Kind: KindRETI, Cycles: 16})
	define(0xE0, Instruction{Kind: KindLD, Dst: OpA8Ind, Src: OpA, Cycles: 12})
	define(0xE2, Instruction{Kind: KindLD, Dst: OpCInd, Src: OpA, Cycles: 8})
	define(0xE8, Instruction{Kind: KindADDSP, Dst: OpSP, Src: OpE8, Cycles: 16})
	define(0xE9, Instruction{Kind: KindJP, Src: OpHL, Cycles: 4})
	define(0xEA, Instruction{Kind: KindLD, Dst: OpA16Ind, Src: OpA, Cycles: 16})
	define(0xF0, Instruction{Kind: KindLD, Dst: OpA, Src: OpA8Ind, Cycles: 12})
	define(0xF2, Instruction{Kind: KindLD, Dst: OpA, Src: OpCInd, Cycles: 8})
	define(0xF3, Instruction{Kind: KindDI, Cycles: 4})
	define(0xF8, Instruction{Kind: KindLDHLSP, Dst: OpHL, Src: OpE8, Cycles: 12})
	define(0xF9, Instruction{Kind: KindLD16, Dst: OpSP, Src: OpHL, Cycles: 8})
	define(0xFA, Instruction{Kind: KindLD, Dst: OpA, Src: OpA16Ind, Cycles: 16})
	define(0xFB, Instruction{Kind: KindEI, Cycles: 4})
}

func buildExtended() {
	for op := 0; op < 256; op++ {
		r := r8[op&7]
		y := byte(op>>3) & 7
		in := Instruction{Opcode: byte(op), Dst: r, Length: 2}
		switch op >> 6 {
		case 0:
			in.Kind = cbOps[y]
			in.Cycles = cost(r, 8, 16)
		case 1:
			in.Kind, in.Bit = KindBIT, y
			in.Cycles = cost(r, 8, 12)
		case 2:
			in.Kind, in.Bit = KindRES, y
			in.Cycles = cost(r, 8, 16)
		case 3:
			in.Kind, in.Bit = KindSET, y
			in.Cycles = cost(r, 8, 16)
		}
		Extended[op] = &in
	}
}
