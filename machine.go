package chip8

import (
	"log/slog"
)

const (
	RegisterCount = 16
	// StackSize maximum depth of nested subroutine calls
	StackSize = 0x30
	// FlagRegister is VF, overwritten by the arithmetic and draw instructions
	FlagRegister = 0xF
)

// FaultCounters counts the faults raised by Step since the last reset
type FaultCounters struct {
	Decode         uint
	UnknownOpCode  uint
	StackOverflow  uint
	StackUnderflow uint
}

// Total sum of every fault
func (fc FaultCounters) Total() uint {
	return fc.Decode + fc.UnknownOpCode + fc.StackOverflow + fc.StackUnderflow
}

// Machine holds the whole state of a CHIP-8 virtual machine.
// It is not safe for concurrent use; Console serializes access for hosts that need it.
type Machine struct {
	memory *Memory
	// V 8-bit registers
	v [RegisterCount]byte
	// I 16-bit index register
	i uint16
	// Program counter
	pc    uint16
	stack []uint16
	// Delay timer register
	dt byte
	// Sound timer register
	st byte

	keypad      KeypadState
	hostKeys    KeypadState
	virtualKeys KeypadState

	state  ExecutionState
	screen Framebuffer

	font   Font
	random RandomSource
	logger *slog.Logger
	tracer Tracer

	faults FaultCounters
	cycles uint

	// Hooks that run before every step
	beforeStepHooks []Hook
	// Hooks that run after every executed step
	afterStepHooks []Hook
	// Hooks that run after a fault
	faultHooks []FaultHook
}

type MachineConfig struct {
	Font   Font
	Random RandomSource
	Logger *slog.Logger
	// Tracer receives one event per executed instruction, nil disables tracing
	Tracer Tracer
}
type MachineConfigCb func(config *MachineConfig)

// NewMachine creates a machine in its canonical state with the font loaded
func NewMachine(configs ...MachineConfigCb) *Machine {
	config := &MachineConfig{
		Font:   DefaultFont,
		Random: NewCryptoRandom(),
		Logger: slog.Default(),
		Tracer: nil,
	}
	for _, cb := range configs {
		cb(config)
	}

	m := &Machine{
		font:   config.Font,
		random: config.Random,
		logger: config.Logger,
		tracer: config.Tracer,

		beforeStepHooks: make([]Hook, 0),
		afterStepHooks:  make([]Hook, 0),
		faultHooks:      make([]FaultHook, 0),
	}
	m.Reset()

	return m
}

// Reset discards every mutation and reloads the font.
// The program is not preserved, it has to be loaded again.
func (m *Machine) Reset() {
	m.memory = NewMemory()
	m.memory.LoadFont(m.font)

	m.v = [RegisterCount]byte{}
	m.i = 0
	m.pc = StartOfProgram
	m.stack = make([]uint16, 0, StackSize)
	m.dt = 0
	m.st = 0

	m.keypad = KeypadState{}
	m.hostKeys = KeypadState{}
	m.virtualKeys = KeypadState{}

	m.state = Running{}
	m.screen = Framebuffer{}
	m.screen.dirty = true

	m.faults = FaultCounters{}
	m.cycles = 0
}

// LoadProgram writes the program at the start-of-program address.
// The rest of the state is left alone; call Reset first for a clean boot.
func (m *Machine) LoadProgram(program []uint16) error {
	return m.memory.LoadProgram(program)
}

// LoadRom resets the machine and loads a raw big-endian ROM image
func (m *Machine) LoadRom(rom []byte) error {
	m.Reset()
	return m.LoadProgram(PackRom(rom, BigEndian))
}

// Memory returns a copy of the memory
func (m *Machine) Memory() Memory {
	return *m.memory
}

func (m *Machine) Registers() [RegisterCount]byte {
	return m.v
}

// Register returns the value of Vx
func (m *Machine) Register(x byte) byte {
	return m.v[x&0xF]
}

// Stack returns a copy of the return addresses, oldest first
func (m *Machine) Stack() []uint16 {
	s := make([]uint16, len(m.stack))
	copy(s, m.stack)

	return s
}

func (m *Machine) PC() uint16 {
	return m.pc
}

func (m *Machine) Index() uint16 {
	return m.i
}

func (m *Machine) DelayTimer() byte {
	return m.dt
}

func (m *Machine) SoundTimer() byte {
	return m.st
}

func (m *Machine) IsSoundTimerActive() bool {
	return m.st > 0
}

// Keypad returns the key state latched by the last SyncKeys
func (m *Machine) Keypad() KeypadState {
	return m.keypad
}

func (m *Machine) State() ExecutionState {
	return m.state
}

func (m *Machine) IsWaitingForKey() bool {
	_, waiting := m.state.(WaitingForKey)
	return waiting
}

func (m *Machine) Screen() Screen {
	return m.screen.Snapshot()
}

// TakeScreenDirty reports whether the screen changed since the last call
func (m *Machine) TakeScreenDirty() bool {
	return m.screen.TakeDirty()
}

func (m *Machine) Faults() FaultCounters {
	return m.faults
}

// Cycles number of instructions executed since the last reset
func (m *Machine) Cycles() uint {
	return m.cycles
}

func (m *Machine) Logger() *slog.Logger {
	return m.logger
}
