// Package sdl renders the CHIP-8 screen in an SDL window and reads the keypad from it.
//
// SDL must only be used from the main thread. Every call goes through mainthread.Call,
// so the program has to be started with mainthread.Run.
package sdl

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	"github.com/faiface/mainthread"
	"github.com/guslan/chip8"
	"github.com/veandco/go-sdl2/sdl"
)

const DefaultZoom = 10

// DefaultPalette off and on pixels
var DefaultPalette = [2]color.RGBA{
	{0x10, 0x14, 0x10, 0xff},
	{0x9b, 0xbc, 0x0f, 0xff},
}

type Window struct {
	title   string
	zoom    int32
	palette [2]color.RGBA
	logger  *slog.Logger

	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	// RGBA32 texture buffer
	buffer []byte

	scancodes map[sdl.Scancode]chip8.Key

	mu     sync.Mutex
	keys   chip8.KeypadState
	closed bool
}

type WindowConfig struct {
	Title   string
	Zoom    int32
	Palette [2]color.RGBA
	Layout  chip8.KeyboardLayout
	Logger  *slog.Logger
}
type WindowConfigCb func(config *WindowConfig)

func NewWindow(configs ...WindowConfigCb) *Window {
	config := &WindowConfig{
		Title:   "chip8",
		Zoom:    DefaultZoom,
		Palette: DefaultPalette,
		Layout:  chip8.DefaultKeyboardLayout,
		Logger:  slog.Default(),
	}
	for _, cb := range configs {
		cb(config)
	}

	return &Window{
		title:     config.Title,
		zoom:      config.Zoom,
		palette:   config.Palette,
		logger:    config.Logger,
		buffer:    make([]byte, chip8.ScreenWidth*chip8.ScreenHeight*4),
		scancodes: scancodes(config.Layout),
	}
}

// scancodes maps the layout to physical keys. Layout runes are keycodes of a US keyboard.
func scancodes(layout chip8.KeyboardLayout) map[sdl.Scancode]chip8.Key {
	codes := map[sdl.Scancode]chip8.Key{}
	for r, k := range chip8.LookupMap(layout) {
		codes[sdl.GetScancodeFromKey(sdl.Keycode(r))] = k
	}

	return codes
}

// Boot implements chip8.Display and chip8.Keyboard. The window is created once.
func (w *Window) Boot() error {
	var err error
	mainthread.Call(func() {
		err = w.boot()
	})

	return err
}

func (w *Window) boot() error {
	if w.window != nil {
		return nil
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("initializing SDL: %w", err)
	}

	window, err := sdl.CreateWindow(w.title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		chip8.ScreenWidth*w.zoom, chip8.ScreenHeight*w.zoom,
		sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		return fmt.Errorf("creating renderer: %w", err)
	}

	// the renderer stretches the texture to the window
	texture, err := renderer.CreateTexture(
		uint32(sdl.PIXELFORMAT_RGBA32),
		sdl.TEXTUREACCESS_STREAMING,
		chip8.ScreenWidth, chip8.ScreenHeight)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		return fmt.Errorf("creating texture: %w", err)
	}

	w.window, w.renderer, w.texture = window, renderer, texture
	w.logger.Info("SDL window created", slog.Int("zoom", int(w.zoom)))

	return nil
}

// Close frees all resources created by SDL
func (w *Window) Close() {
	mainthread.Call(func() {
		if w.window == nil {
			return
		}
		w.texture.Destroy()
		w.renderer.Destroy()
		w.window.Destroy()
		w.window = nil
		sdl.Quit()
	})
}

// Render implements chip8.Display.
func (w *Window) Render(screen chip8.Screen) error {
	fill(w.buffer, screen, w.palette)

	var err error
	mainthread.Call(func() {
		if w.window == nil {
			return
		}
		if err = w.texture.Update(nil, w.buffer, chip8.ScreenWidth*4); err != nil {
			return
		}
		if err = w.renderer.Copy(w.texture, nil, nil); err != nil {
			return
		}
		w.renderer.Present()
	})

	return err
}

// fill writes the screen into an RGBA32 buffer
func fill(buffer []byte, screen chip8.Screen, palette [2]color.RGBA) {
	offset := 0
	for y := range screen {
		for _, lit := range screen[y] {
			c := palette[0]
			if lit {
				c = palette[1]
			}
			buffer[offset+0] = c.R
			buffer[offset+1] = c.G
			buffer[offset+2] = c.B
			buffer[offset+3] = c.A
			offset += 4
		}
	}
}

// PollEvents drains the SDL event queue and refreshes the keypad.
// It returns false once the window was closed.
func (w *Window) PollEvents() bool {
	mainthread.Call(func() {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			if _, ok := event.(*sdl.QuitEvent); ok {
				w.mu.Lock()
				w.closed = true
				w.mu.Unlock()
			}
		}

		var keys chip8.KeypadState
		state := sdl.GetKeyboardState()
		for code, k := range w.scancodes {
			if int(code) < len(state) && state[code] != 0 {
				keys[k] = true
			}
		}

		w.mu.Lock()
		w.keys = keys
		w.mu.Unlock()
	})

	w.mu.Lock()
	defer w.mu.Unlock()

	return !w.closed
}

// State implements chip8.Keyboard. It reports the keys seen by the last PollEvents.
func (w *Window) State() chip8.KeypadState {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.keys
}
