package sdl

import (
	"image/color"
	"testing"

	"github.com/guslan/chip8"
	"github.com/retroenv/retrogolib/assert"
)

func TestFill(t *testing.T) {
	var screen chip8.Screen
	screen[0][1] = true
	screen[31][63] = true

	palette := [2]color.RGBA{{1, 2, 3, 4}, {5, 6, 7, 8}}
	buffer := make([]byte, chip8.ScreenWidth*chip8.ScreenHeight*4)
	fill(buffer, screen, palette)

	assert.Equal(t, []byte{1, 2, 3, 4}, buffer[0:4])
	assert.Equal(t, []byte{5, 6, 7, 8}, buffer[4:8])
	assert.Equal(t, []byte{5, 6, 7, 8}, buffer[len(buffer)-4:])
	assert.Equal(t, []byte{1, 2, 3, 4}, buffer[len(buffer)-8:len(buffer)-4])
}
