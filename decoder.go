package chip8

import (
	"fmt"
)

// ErrDecodeFault the program counter points outside of memory
type ErrDecodeFault struct {
	Pc uint16
}

func (err ErrDecodeFault) Error() string {
	return fmt.Sprintf("decode fault: PC=%03X is outside the memory bounds", err.Pc)
}

type ErrOpCodeUnknown struct {
	OpCode uint16
	Pc     uint16
}

func (err ErrOpCodeUnknown) Error() string {
	return fmt.Sprintf("unknown opcode=%04X at PC=%03X", err.OpCode, err.Pc)
}

// Instruction a decoded opcode
type Instruction struct {
	OpCode uint16
	Kind   Kind

	X   byte
	Y   byte
	N   byte
	KK  byte
	NNN uint16
}

// Fetch reads the big-endian opcode at pc
func Fetch(mem *Memory, pc uint16) (uint16, error) {
	if int(pc)+1 >= MemorySize {
		return 0, ErrDecodeFault{Pc: pc}
	}

	var opCode uint16
	opCode |= uint16(mem[pc+0]) << 8
	opCode |= uint16(mem[pc+1]) << 0

	return opCode, nil
}

// Decode splits the opcode into its fields and finds its kind.
// The fields are always filled, even for unknown opcodes.
func Decode(opCode uint16) (Instruction, error) {
	kind, ok := Lookup(opCode)
	ins := Instruction{
		OpCode: opCode,
		Kind:   kind,
		X:      byte((opCode & 0x0F00) >> 8),
		Y:      byte((opCode & 0x00F0) >> 4),
		N:      byte(opCode & 0x000F),
		KK:     byte(opCode & 0x00FF),
		NNN:    opCode & 0x0FFF,
	}
	if !ok {
		return ins, ErrOpCodeUnknown{OpCode: opCode}
	}

	return ins, nil
}

// String disassembles the instruction
func (ins Instruction) String() string {
	name := ins.Kind.Mnemonic()

	switch ins.Kind {
	case KindCls, KindRet:
		return name
	case KindJp, KindCall:
		return fmt.Sprintf("%s 0x%03X", name, ins.NNN)
	case KindSeByte, KindSneByte, KindLdByte, KindAddByte, KindRnd:
		return fmt.Sprintf("%s V%X, 0x%02X", name, ins.X, ins.KK)
	case KindSeReg, KindSneReg, KindLdReg, KindOr, KindAnd, KindXor, KindAddReg, KindSub, KindSubn:
		return fmt.Sprintf("%s V%X, V%X", name, ins.X, ins.Y)
	case KindShr, KindShl:
		return fmt.Sprintf("%s V%X", name, ins.X)
	case KindLdI:
		return fmt.Sprintf("%s I, 0x%03X", name, ins.NNN)
	case KindJpV0:
		return fmt.Sprintf("%s V0, 0x%03X", name, ins.NNN)
	case KindDrw:
		return fmt.Sprintf("%s V%X, V%X, %d", name, ins.X, ins.Y, ins.N)
	case KindSkp, KindSknp:
		return fmt.Sprintf("%s V%X", name, ins.X)
	case KindLdVxDt:
		return fmt.Sprintf("%s V%X, DT", name, ins.X)
	case KindLdVxK:
		return fmt.Sprintf("%s V%X, K", name, ins.X)
	case KindLdDtVx:
		return fmt.Sprintf("%s DT, V%X", name, ins.X)
	case KindLdStVx:
		return fmt.Sprintf("%s ST, V%X", name, ins.X)
	case KindAddI:
		return fmt.Sprintf("%s I, V%X", name, ins.X)
	case KindLdF:
		return fmt.Sprintf("%s F, V%X", name, ins.X)
	case KindLdB:
		return fmt.Sprintf("%s B, V%X", name, ins.X)
	case KindLdIVx:
		return fmt.Sprintf("%s [I], V%X", name, ins.X)
	case KindLdVxI:
		return fmt.Sprintf("%s V%X, [I]", name, ins.X)
	}

	return fmt.Sprintf("DW 0x%04X", ins.OpCode)
}
