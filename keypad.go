package chip8

import (
	"sync"
	"unicode"
)

// Key is a logical key of the hex keypad, 0x0 to 0xF
type Key byte

const KeyCount = 16

// KeypadState pressed state of every logical key
type KeypadState [KeyCount]bool

// Merge returns the keys pressed in any of the states
func (ks KeypadState) Merge(other KeypadState) KeypadState {
	for k := range ks {
		ks[k] = ks[k] || other[k]
	}

	return ks
}

// KeyboardLayout maps every logical key to the physical key that drives it
type KeyboardLayout [KeyCount]rune

// DefaultKeyboardLayout places the hex keypad on the left of a QWERTY keyboard:
//
//	1 2 3 C        1 2 3 4
//	4 5 6 D   <-   Q W E R
//	7 8 9 E        A S D F
//	A 0 B F        Z X C V
var DefaultKeyboardLayout = KeyboardLayout{
	'x', '1', '2', '3',
	'q', 'w', 'e', 'a',
	's', 'd', 'z', 'c',
	'4', 'r', 'f', 'v',
}

// LookupMap inverts the layout, lower-case physical key to logical key
func LookupMap(layout KeyboardLayout) map[rune]Key {
	m := make(map[rune]Key, KeyCount)
	for k, r := range layout {
		m[unicode.ToLower(r)] = Key(k)
	}

	return m
}

// Keyboard abstraction for the host keyboard
type Keyboard interface {
	// Boot initializes the component
	Boot() error
	// State returns the logical keys currently held down
	State() KeypadState
}

// InMemoryKeyboard is a keyboard driven by Press and Release.
// It is safe to use from several goroutines.
type InMemoryKeyboard struct {
	mu    sync.RWMutex
	state KeypadState
}

func NewInMemoryKeyboard() *InMemoryKeyboard {
	return &InMemoryKeyboard{}
}

// Boot implements Keyboard.
func (kb *InMemoryKeyboard) Boot() error {
	return nil
}

// State implements Keyboard.
func (kb *InMemoryKeyboard) State() KeypadState {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	return kb.state
}

func (kb *InMemoryKeyboard) Press(k Key) {
	kb.set(k, true)
}

func (kb *InMemoryKeyboard) Release(k Key) {
	kb.set(k, false)
}

func (kb *InMemoryKeyboard) set(k Key, pressed bool) {
	if k >= KeyCount {
		return
	}

	kb.mu.Lock()
	kb.state[k] = pressed
	kb.mu.Unlock()
}

// SyncKeys latches the host key state for this tick.
// Virtual keys set with SetKey are merged in. A key that goes from released to pressed completes
// a pending LD Vx, K: the key is stored in the target register and the PC moves past the instruction.
// Keys are scanned from 0x0 to 0xF and the first rising edge wins.
func (m *Machine) SyncKeys(host KeypadState) {
	m.syncKeys(host)
}

// syncKeys reports whether a key wait was resolved
func (m *Machine) syncKeys(host KeypadState) bool {
	m.hostKeys = host

	return m.latchKeys()
}

// SetKey presses or releases a logical key independently of the host keyboard.
// The change is observed by the next SyncKeys.
func (m *Machine) SetKey(k Key, pressed bool) {
	if k >= KeyCount {
		return
	}

	m.virtualKeys[k] = pressed
}

func (m *Machine) latchKeys() bool {
	current := m.hostKeys.Merge(m.virtualKeys)
	previous := m.keypad
	m.keypad = current

	w, waiting := m.state.(WaitingForKey)
	if !waiting {
		return false
	}

	for k := range current {
		if !previous[k] && current[k] {
			m.v[w.Register] = byte(k)
			m.state = Running{}
			m.pc += 2
			m.logger.Debug("key wait resolved", "key", k, "register", w.Register)
			return true
		}
	}

	return false
}
