package chip8

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProgramDoesNotFitIntoMemory = errors.New("the program does not fit into memory")

const (
	MemorySize = 4096

	StartOfProgram  = 0x200
	FontBaseAddress = 0x050
	GlyphSize       = 5

	// MaxProgramWords is the amount of 16-bit words that fit between the start of program and the end of memory
	MaxProgramWords = (MemorySize - StartOfProgram) / 2

	addressMask = MemorySize - 1
)

type Memory [MemorySize]byte

// Font is the hexadecimal digit set, 16 glyphs of 5 bytes each
type Font [16 * GlyphSize]byte

var DefaultFont = Font{
	// 0
	0xF0, 0x90, 0x90, 0x90, 0xF0,
	// 1
	0x20, 0x60, 0x20, 0x20, 0x70,
	// 2
	0xF0, 0x10, 0xF0, 0x80, 0xF0,
	// 3
	0xF0, 0x10, 0xF0, 0x10, 0xF0,
	// 4
	0x90, 0x90, 0xF0, 0x10, 0x10,
	// 5
	0xF0, 0x80, 0xF0, 0x10, 0xF0,
	// 6
	0xF0, 0x80, 0xF0, 0x90, 0xF0,
	// 7
	0xF0, 0x10, 0x20, 0x40, 0x40,
	// 8
	0xF0, 0x90, 0xF0, 0x90, 0xF0,
	// 9
	0xF0, 0x90, 0xF0, 0x10, 0xF0,
	// A
	0xF0, 0x90, 0xF0, 0x90, 0x90,
	// B
	0xE0, 0x90, 0xE0, 0x90, 0xE0,
	// C
	0xF0, 0x80, 0x80, 0x80, 0xF0,
	// D
	0xE0, 0x90, 0x90, 0x90, 0xE0,
	// E
	0xF0, 0x80, 0xF0, 0x80, 0xF0,
	// F
	0xF0, 0x80, 0xF0, 0x80, 0x80,
}

// NewMemory creates an empty memory of 4096 bytes
func NewMemory() *Memory {
	return &Memory{}
}

func (mem Memory) Clone() *Memory {
	m := NewMemory()

	copy(m[:], mem[:])

	return m
}

func (mem Memory) String() string {
	sb := strings.Builder{}

	sb.WriteString("[ ")
	for _, b := range mem[:StartOfProgram] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]\n")
	sb.WriteString("[ ")
	for _, b := range mem[StartOfProgram:] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]")

	return sb.String()
}

func (mem Memory) IsEqual(other Memory) bool {
	return mem == other
}

// Read returns the byte at addr. Addresses wrap around the 4K space.
func (mem *Memory) Read(addr uint16) byte {
	return mem[addr&addressMask]
}

// Write stores b at addr. Addresses wrap around the 4K space.
func (mem *Memory) Write(addr uint16, b byte) {
	mem[addr&addressMask] = b
}

// LoadFont copies the glyph table at FontBaseAddress
func (mem *Memory) LoadFont(font Font) {
	copy(mem[FontBaseAddress:], font[:])
}

// LoadProgram writes every word high byte first starting at StartOfProgram
func (mem *Memory) LoadProgram(program []uint16) error {
	if len(program) > MaxProgramWords {
		return ErrProgramDoesNotFitIntoMemory
	}

	for i, word := range program {
		mem[StartOfProgram+i*2+0] = byte(word >> 8)
		mem[StartOfProgram+i*2+1] = byte(word & 0x00FF)
	}

	return nil
}
