// Package tty reads the CHIP-8 keypad from a terminal.
//
// Terminals only report key presses, a key is held for a fixed duration after its last press.
package tty

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/guslan/chip8"
	"github.com/pkg/term"
)

// DefaultHold how long a key stays pressed after the terminal reported it. Key repeat refreshes it.
const DefaultHold = 150 * time.Millisecond

// QuitRune stops the keyboard, Ctrl+C in cbreak mode
const QuitRune = 0x03

type Keyboard struct {
	mu        sync.Mutex
	pressedAt [chip8.KeyCount]time.Time

	lookup map[rune]chip8.Key
	hold   time.Duration
	now    func() time.Time
	logger *slog.Logger
	onQuit func()

	open func() (io.ReadCloser, error)
	in   io.ReadCloser
	done chan struct{}
}

type KeyboardConfig struct {
	Layout chip8.KeyboardLayout
	Hold   time.Duration
	// Device is the terminal to read from
	Device string
	Logger *slog.Logger
	// OnQuit is called when QuitRune is read
	OnQuit func()
}
type KeyboardConfigCb func(config *KeyboardConfig)

// NewKeyboard reads from the terminal device in raw mode
func NewKeyboard(configs ...KeyboardConfigCb) *Keyboard {
	config := newConfig(configs)

	kb := newKeyboard(config)
	kb.open = func() (io.ReadCloser, error) {
		return openTerminal(config.Device)
	}

	return kb
}

// NewReaderKeyboard reads key presses from r
func NewReaderKeyboard(r io.Reader, configs ...KeyboardConfigCb) *Keyboard {
	kb := newKeyboard(newConfig(configs))
	kb.open = func() (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	}

	return kb
}

func newConfig(configs []KeyboardConfigCb) *KeyboardConfig {
	config := &KeyboardConfig{
		Layout: chip8.DefaultKeyboardLayout,
		Hold:   DefaultHold,
		Device: "/dev/tty",
		Logger: slog.Default(),
		OnQuit: func() {},
	}
	for _, cb := range configs {
		cb(config)
	}

	return config
}

func newKeyboard(config *KeyboardConfig) *Keyboard {
	return &Keyboard{
		lookup: chip8.LookupMap(config.Layout),
		hold:   config.Hold,
		now:    time.Now,
		logger: config.Logger,
		onQuit: config.OnQuit,
		done:   make(chan struct{}),
	}
}

// terminal restores the previous terminal mode on Close
type terminal struct {
	*term.Term
}

func (t terminal) Close() error {
	if err := t.Term.Restore(); err != nil {
		t.Term.Close()
		return err
	}

	return t.Term.Close()
}

func openTerminal(device string) (io.ReadCloser, error) {
	t, err := term.Open(device, term.CBreakMode)
	if err != nil {
		return nil, err
	}

	return terminal{Term: t}, nil
}

// Boot implements chip8.Keyboard. It starts reading key presses.
// If the keyboard was already booted, this method is a noop
func (kb *Keyboard) Boot() error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if kb.in != nil {
		return nil
	}

	in, err := kb.open()
	if err != nil {
		return err
	}
	kb.in = in

	go kb.read(in)

	return nil
}

// Close stops reading and restores the terminal
func (kb *Keyboard) Close() error {
	kb.mu.Lock()
	in := kb.in
	kb.mu.Unlock()

	if in == nil {
		return nil
	}

	return in.Close()
}

// Done is closed once the reader stopped
func (kb *Keyboard) Done() <-chan struct{} {
	return kb.done
}

func (kb *Keyboard) read(in io.Reader) {
	defer close(kb.done)

	buf := make([]byte, 16)
	for {
		n, err := in.Read(buf)
		for _, b := range buf[:n] {
			if b == QuitRune {
				kb.logger.Info("quit requested from the terminal")
				kb.onQuit()
				continue
			}
			kb.press(rune(b))
		}

		if err != nil {
			if err != io.EOF {
				kb.logger.Warn("error reading the terminal", slog.Any("error", err))
			}
			return
		}
	}
}

func (kb *Keyboard) press(r rune) {
	k, ok := kb.lookup[r]
	if !ok {
		return
	}

	kb.mu.Lock()
	kb.pressedAt[k] = kb.now()
	kb.mu.Unlock()
}

// State implements chip8.Keyboard.
func (kb *Keyboard) State() chip8.KeypadState {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	var state chip8.KeypadState
	now := kb.now()
	for k, at := range kb.pressedAt {
		state[k] = !at.IsZero() && now.Sub(at) < kb.hold
	}

	return state
}
