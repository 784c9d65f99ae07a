package chip8

const (
	ScreenWidth  = 64
	ScreenHeight = 32

	// PackedScreenSize is the size in bytes of a packed screen, 1 bit per pixel
	PackedScreenSize = ScreenWidth * ScreenHeight / 8
)

// Screen is a read-only copy of the framebuffer, indexed [y][x]
type Screen [ScreenHeight][ScreenWidth]bool

// At reports the pixel at x, y. Coordinates wrap.
func (s Screen) At(x, y int) bool {
	return s[wrap(y, ScreenHeight)][wrap(x, ScreenWidth)]
}

// Pack packs the screen 1 bit per pixel, row-major, most significant bit first
func (s Screen) Pack() []byte {
	buf := make([]byte, PackedScreenSize)
	for y := range s {
		for x, lit := range s[y] {
			if lit {
				t := y*ScreenWidth + x
				buf[t/8] |= 0b10000000 >> (t % 8)
			}
		}
	}

	return buf
}

// Lit counts the lit pixels
func (s Screen) Lit() int {
	n := 0
	for y := range s {
		for _, lit := range s[y] {
			if lit {
				n++
			}
		}
	}

	return n
}

// Framebuffer 64x32 monochrome display memory.
// Only the clear screen and draw instructions mutate it.
type Framebuffer struct {
	pixels Screen
	dirty  bool
}

func wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}

	return v
}

func (fb *Framebuffer) At(x, y int) bool {
	return fb.pixels.At(x, y)
}

func (fb *Framebuffer) Set(x, y int, lit bool) {
	fb.pixels[wrap(y, ScreenHeight)][wrap(x, ScreenWidth)] = lit
	fb.dirty = true
}

func (fb *Framebuffer) Clear() {
	fb.pixels = Screen{}
	fb.dirty = true
}

// DrawSprite XORs every row of the sprite onto the framebuffer with its origin at x, y.
// Each row is 8 pixels wide, most significant bit leftmost. Pixels past the edges wrap around.
// Returns whether any lit pixel was turned off.
func (fb *Framebuffer) DrawSprite(x, y int, rows []byte) bool {
	collision := false
	for row, bits := range rows {
		for col := 0; col < 8; col++ {
			if bits&(0b10000000>>col) == 0 {
				continue
			}

			px := wrap(x+col, ScreenWidth)
			py := wrap(y+row, ScreenHeight)
			if fb.pixels[py][px] {
				collision = true
			}
			fb.pixels[py][px] = !fb.pixels[py][px]
		}
	}
	fb.dirty = true

	return collision
}

// Snapshot returns a copy of the current pixels
func (fb *Framebuffer) Snapshot() Screen {
	return fb.pixels
}

func (fb *Framebuffer) IsDirty() bool {
	return fb.dirty
}

// TakeDirty reports whether the framebuffer changed since the last call and resets the flag
func (fb *Framebuffer) TakeDirty() bool {
	d := fb.dirty
	fb.dirty = false

	return d
}
