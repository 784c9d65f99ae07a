package chip8

import (
	"bytes"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestFramebufferSetWraps(t *testing.T) {
	fb := Framebuffer{}
	fb.Set(-1, -1, true)
	fb.Set(64+3, 32+2, true)

	assert.True(t, fb.At(63, 31))
	assert.True(t, fb.At(3, 2))
	assert.Equal(t, 2, fb.Snapshot().Lit())

	assert.True(t, fb.TakeDirty())
	assert.False(t, fb.TakeDirty())

	fb.Clear()
	assert.Equal(t, 0, fb.Snapshot().Lit())
	assert.True(t, fb.IsDirty())
}

func TestDrawSpriteCollision(t *testing.T) {
	fb := Framebuffer{}

	assert.False(t, fb.DrawSprite(10, 10, []byte{0b10100000}))
	assert.True(t, fb.At(10, 10))
	assert.False(t, fb.At(11, 10))
	assert.True(t, fb.At(12, 10))

	// touches a lit pixel and a dark one
	assert.True(t, fb.DrawSprite(12, 10, []byte{0b11000000}))
	assert.False(t, fb.At(12, 10))
	assert.True(t, fb.At(13, 10))
}

func TestScreenPack(t *testing.T) {
	s := Screen{}
	s[0][0] = true
	s[0][9] = true
	s[31][63] = true

	packed := s.Pack()
	assert.Equal(t, PackedScreenSize, len(packed))
	assert.Equal(t, byte(0b10000000), packed[0])
	assert.Equal(t, byte(0b01000000), packed[1])
	assert.Equal(t, byte(0b00000001), packed[PackedScreenSize-1])
}

func TestTerminalDisplay(t *testing.T) {
	out := &bytes.Buffer{}
	d := NewTerminalDisplayWithOutput(out)
	d.OnChar, d.OffChar = "#", "."

	s := Screen{}
	s[0][1] = true
	assert.NoError(t, d.Render(s))

	lines := strings.Split(strings.TrimPrefix(out.String(), "\x1b[1H"), "\n")
	assert.Equal(t, ScreenHeight+1, len(lines))
	assert.Equal(t, ".#"+strings.Repeat(".", ScreenWidth-2)+"|", lines[0])
}
