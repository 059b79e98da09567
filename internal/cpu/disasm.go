package cpu

import (
	"fmt"
	"strings"
)

// Disassemble formats the instruction at pc and returns it with its length
// in bytes. Illegal opcodes come back as a DB directive of length 1.
func Disassemble(mem Memory, pc uint16) (string, int) {
	op := mem.Read8(pc)
	in := Primary[op]
	if in == nil {
		return fmt.Sprintf("DB $%02X", op), 1
	}
	if in.Kind == KindPREFIX {
		in = Extended[mem.Read8(pc+1)]
		return formatExtended(in), 2
	}

	var args []string
	next := pc + 1
	for _, o := range []Operand{in.Dst, in.Src} {
		if o == OpNone {
			continue
		}
		args = append(args, formatOperand(mem, o, next, pc+uint16(in.Length)))
		next += uint16(o.immediateSize())
	}
	if in.Cond != CondAlways {
		args = append([]string{in.Cond.String()}, args...)
	}
	if in.Kind == KindRST {
		args = []string{fmt.Sprintf("$%02X", in.Bit)}
	}
	switch in.Kind {
	case KindLDHLSP:
		args = []string{"HL", "SP" + signed(int8(mem.Read8(pc+1)))}
	case KindADDSP:
		args = []string{"SP", signed(int8(mem.Read8(pc + 1)))}
	}
	if in.Kind == KindSTOP {
		args = nil
	}
	if len(args) == 0 {
		return in.Kind.String(), in.Length
	}
	return in.Kind.String() + " " + strings.Join(args, ","), in.Length
}

func formatExtended(in *Instruction) string {
	switch in.Kind {
	case KindBIT, KindRES, KindSET:
		return fmt.Sprintf("%s %d,%s", in.Kind, in.Bit, in.Dst)
	}
	return fmt.Sprintf("%s %s", in.Kind, in.Dst)
}

// formatOperand renders o; at is where its immediate bytes start and end is
// the address after the instruction (the base for relative jumps).
func formatOperand(mem Memory, o Operand, at, end uint16) string {
	imm16 := func() uint16 { return uint16(mem.Read8(at)) | uint16(mem.Read8(at+1))<<8 }
	switch o {
	case OpD8:
		return fmt.Sprintf("$%02X", mem.Read8(at))
	case OpD16, OpA16:
		return fmt.Sprintf("$%04X", imm16())
	case OpA16Ind:
		return fmt.Sprintf("($%04X)", imm16())
	case OpA8Ind:
		return fmt.Sprintf("($FF%02X)", mem.Read8(at))
	case OpE8:
		e := int8(mem.Read8(at))
		return fmt.Sprintf("$%04X", uint16(int(end)+int(e)))
	}
	return o.String()
}

func signed(e int8) string {
	if e < 0 {
		return fmt.Sprintf("-$%02X", -int(e))
	}
	return fmt.Sprintf("+$%02X", e)
}
