package chip8

import (
	"encoding/binary"
	"fmt"
	"os"
)

// ByteOrder tells PackRom how the raw bytes of a ROM are paired into instruction words
type ByteOrder byte

const (
	// BigEndian is the order ROM files are distributed in
	BigEndian ByteOrder = iota
	// Swapped is an alias of BigEndian for ROMs uploaded from a browser, which hands them over as
	// little-endian words. Swapping those words back gives the same instruction words as BigEndian.
	Swapped
)

// PackRom pairs the bytes of a raw ROM image into 16-bit instruction words.
// A trailing odd byte is padded with zero.
func PackRom(rom []byte, order ByteOrder) []uint16 {
	buf := rom
	if len(buf)%2 != 0 {
		buf = make([]byte, len(rom)+1)
		copy(buf, rom)
	}

	words := make([]uint16, len(buf)/2)
	for i := range words {
		pair := buf[i*2 : i*2+2]
		switch order {
		case Swapped:
			w := binary.LittleEndian.Uint16(pair)
			words[i] = w<<8 | w>>8
		default:
			words[i] = binary.BigEndian.Uint16(pair)
		}
	}

	return words
}

// ReadRom reads the ROM at path and packs it into instruction words
func ReadRom(path string, order ByteOrder) ([]uint16, error) {
	rom, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom %s: %w", path, err)
	}

	return PackRom(rom, order), nil
}
