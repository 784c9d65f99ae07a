package chip8

// Kind identifies an instruction of the CHIP-8 set
type Kind byte

const (
	KindUnknown Kind = iota
	KindCls          // 00E0
	KindRet          // 00EE
	KindJp           // 1nnn
	KindCall         // 2nnn
	KindSeByte       // 3xkk
	KindSneByte      // 4xkk
	KindSeReg        // 5xy0
	KindLdByte       // 6xkk
	KindAddByte      // 7xkk
	KindLdReg        // 8xy0
	KindOr           // 8xy1
	KindAnd          // 8xy2
	KindXor          // 8xy3
	KindAddReg       // 8xy4
	KindSub          // 8xy5
	KindShr          // 8xy6
	KindSubn         // 8xy7
	KindShl          // 8xyE
	KindSneReg       // 9xy0
	KindLdI          // Annn
	KindJpV0         // Bnnn
	KindRnd          // Cxkk
	KindDrw          // Dxyn
	KindSkp          // Ex9E
	KindSknp         // ExA1
	KindLdVxDt       // Fx07
	KindLdVxK        // Fx0A
	KindLdDtVx       // Fx15
	KindLdStVx       // Fx18
	KindAddI         // Fx1E
	KindLdF          // Fx29
	KindLdB          // Fx33
	KindLdIVx        // Fx55
	KindLdVxI        // Fx65
)

type opcodeEntry struct {
	Mask  uint16
	Value uint16
	Kind  Kind
	Name  string
}

// opcodeTable is matched in order, the first entry with opCode&Mask == Value wins.
// Exact matches come before the masked families.
var opcodeTable = []opcodeEntry{
	{Mask: 0xFFFF, Value: 0x00E0, Kind: KindCls, Name: "CLS"},
	{Mask: 0xFFFF, Value: 0x00EE, Kind: KindRet, Name: "RET"},
	{Mask: 0xF000, Value: 0x1000, Kind: KindJp, Name: "JP"},
	{Mask: 0xF000, Value: 0x2000, Kind: KindCall, Name: "CALL"},
	{Mask: 0xF000, Value: 0x3000, Kind: KindSeByte, Name: "SE"},
	{Mask: 0xF000, Value: 0x4000, Kind: KindSneByte, Name: "SNE"},
	{Mask: 0xF00F, Value: 0x5000, Kind: KindSeReg, Name: "SE"},
	{Mask: 0xF000, Value: 0x6000, Kind: KindLdByte, Name: "LD"},
	{Mask: 0xF000, Value: 0x7000, Kind: KindAddByte, Name: "ADD"},
	{Mask: 0xF00F, Value: 0x8000, Kind: KindLdReg, Name: "LD"},
	{Mask: 0xF00F, Value: 0x8001, Kind: KindOr, Name: "OR"},
	{Mask: 0xF00F, Value: 0x8002, Kind: KindAnd, Name: "AND"},
	{Mask: 0xF00F, Value: 0x8003, Kind: KindXor, Name: "XOR"},
	{Mask: 0xF00F, Value: 0x8004, Kind: KindAddReg, Name: "ADD"},
	{Mask: 0xF00F, Value: 0x8005, Kind: KindSub, Name: "SUB"},
	{Mask: 0xF00F, Value: 0x8006, Kind: KindShr, Name: "SHR"},
	{Mask: 0xF00F, Value: 0x8007, Kind: KindSubn, Name: "SUBN"},
	{Mask: 0xF00F, Value: 0x800E, Kind: KindShl, Name: "SHL"},
	{Mask: 0xF00F, Value: 0x9000, Kind: KindSneReg, Name: "SNE"},
	{Mask: 0xF000, Value: 0xA000, Kind: KindLdI, Name: "LD"},
	{Mask: 0xF000, Value: 0xB000, Kind: KindJpV0, Name: "JP"},
	{Mask: 0xF000, Value: 0xC000, Kind: KindRnd, Name: "RND"},
	{Mask: 0xF000, Value: 0xD000, Kind: KindDrw, Name: "DRW"},
	{Mask: 0xF0FF, Value: 0xE09E, Kind: KindSkp, Name: "SKP"},
	{Mask: 0xF0FF, Value: 0xE0A1, Kind: KindSknp, Name: "SKNP"},
	{Mask: 0xF0FF, Value: 0xF007, Kind: KindLdVxDt, Name: "LD"},
	{Mask: 0xF0FF, Value: 0xF00A, Kind: KindLdVxK, Name: "LD"},
	{Mask: 0xF0FF, Value: 0xF015, Kind: KindLdDtVx, Name: "LD"},
	{Mask: 0xF0FF, Value: 0xF018, Kind: KindLdStVx, Name: "LD"},
	{Mask: 0xF0FF, Value: 0xF01E, Kind: KindAddI, Name: "ADD"},
	{Mask: 0xF0FF, Value: 0xF029, Kind: KindLdF, Name: "LD"},
	{Mask: 0xF0FF, Value: 0xF033, Kind: KindLdB, Name: "LD"},
	{Mask: 0xF0FF, Value: 0xF055, Kind: KindLdIVx, Name: "LD"},
	{Mask: 0xF0FF, Value: 0xF065, Kind: KindLdVxI, Name: "LD"},
}

// Lookup finds the instruction kind of an opcode
func Lookup(opCode uint16) (Kind, bool) {
	for _, e := range opcodeTable {
		if opCode&e.Mask == e.Value {
			return e.Kind, true
		}
	}

	return KindUnknown, false
}

// Mnemonic returns the assembler name of the instruction, without operands
func (k Kind) Mnemonic() string {
	for _, e := range opcodeTable {
		if e.Kind == k {
			return e.Name
		}
	}

	return "???"
}
