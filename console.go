package chip8

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrConsoleIsNotBooted = errors.New("the console has not been booted properly")

const (
	DefaultSpeed uint = 500
	MaxSpeed     uint = 700
	MinSpeed     uint = 5
)

// Console drives a machine from two independent clocks: instructions run at the console speed
// while the timers count down at TimerHz. The screen is rendered on the timer clock when it changed.
// Every method is safe to call from any goroutine.
type Console struct {
	mu sync.Mutex

	machine  *Machine
	display  Display
	keyboard Keyboard
	logger   *slog.Logger

	program []uint16

	speedInHz       uint
	speedCh         chan uint
	haltAfterFaults uint

	isBooted  bool
	isPaused  bool
	isHalted  bool
	lastError error
}

type ConsoleConfig struct {
	Speed uint
	// HaltAfterFaults pauses the console once that many faults happened, 0 never halts
	HaltAfterFaults uint
	StartPaused     bool
	Logger          *slog.Logger
	Machine         []MachineConfigCb
}
type ConsoleConfigCb func(config *ConsoleConfig)

func NewConsole(display Display, keyboard Keyboard, configs ...ConsoleConfigCb) *Console {
	config := &ConsoleConfig{
		Speed:           DefaultSpeed,
		HaltAfterFaults: 0,
		StartPaused:     false,
		Logger:          slog.Default(),
	}
	for _, cb := range configs {
		cb(config)
	}

	machineConfigs := append([]MachineConfigCb{func(mc *MachineConfig) {
		mc.Logger = config.Logger
	}}, config.Machine...)

	return &Console{
		machine:  NewMachine(machineConfigs...),
		display:  display,
		keyboard: keyboard,
		logger:   config.Logger,

		speedInHz:       clampSpeed(config.Speed),
		speedCh:         make(chan uint, 1),
		haltAfterFaults: config.HaltAfterFaults,

		isPaused: config.StartPaused,
	}
}

func clampSpeed(inHz uint) uint {
	return min(max(inHz, MinSpeed), MaxSpeed)
}

// Boot initializes all the components
// If the console was already booted, this method is a noop
func (c *Console) Boot() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isBooted {
		return nil
	}

	if err := c.display.Boot(); err != nil {
		return err
	}

	if err := c.keyboard.Boot(); err != nil {
		return err
	}

	c.isBooted = true

	return nil
}

func (c *Console) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return !c.isPaused
}

// IsHalted reports whether the console stopped itself after too many faults
func (c *Console) IsHalted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.isHalted
}

func (c *Console) Start() {
	c.mu.Lock()
	c.isPaused = false
	c.isHalted = false
	c.mu.Unlock()
}

func (c *Console) Stop() {
	c.mu.Lock()
	c.isPaused = true
	c.mu.Unlock()
}

func (c *Console) SpeedInHz() uint {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.speedInHz
}

// SetSpeedInHz changes the instruction clock, clamped to [MinSpeed, MaxSpeed]
func (c *Console) SetSpeedInHz(inHz uint) {
	inHz = clampSpeed(inHz)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.speedInHz == inHz {
		return
	}
	c.speedInHz = inHz

	// only the latest speed matters, Run reads it without the lock
	select {
	case <-c.speedCh:
	default:
	}
	select {
	case c.speedCh <- inHz:
	default:
	}
}

// LoadRom resets the machine and loads a raw big-endian ROM
func (c *Console) LoadRom(rom []byte) error {
	return c.LoadProgram(PackRom(rom, BigEndian))
}

// LoadProgram resets the machine and loads the program. Reset loads it again.
func (c *Console) LoadProgram(program []uint16) error {
	if len(program) > MaxProgramWords {
		return ErrProgramDoesNotFitIntoMemory
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.machine.Reset()
	if err := c.machine.LoadProgram(program); err != nil {
		return err
	}
	c.program = program
	c.lastError = nil
	c.isHalted = false

	return c.render()
}

// Reset restores the machine to its boot state with the last loaded program
func (c *Console) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.machine.Reset()
	if err := c.machine.LoadProgram(c.program); err != nil {
		return err
	}
	c.lastError = nil
	c.isHalted = false

	return c.render()
}

// SetKey presses or releases a virtual key
func (c *Console) SetKey(k Key, pressed bool) {
	c.mu.Lock()
	c.machine.SetKey(k, pressed)
	c.mu.Unlock()
}

func (c *Console) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.machine.Snapshot()
}

// WithMachine runs fn with exclusive access to the machine
func (c *Console) WithMachine(fn func(m *Machine)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn(c.machine)
}

// LastError returns the last fault raised by the machine
func (c *Console) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastError
}

// StepOnce runs a single instruction bypassing the pause state
func (c *Console) StepOnce() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isBooted {
		return ErrConsoleIsNotBooted
	}

	err := c.step()
	if rerr := c.renderIfDirty(); rerr != nil {
		return rerr
	}

	return err
}

// Run drives the console until the context is done
func (c *Console) Run(ctx context.Context) error {
	c.mu.Lock()
	booted := c.isBooted
	speed := c.speedInHz
	c.mu.Unlock()

	if !booted {
		return ErrConsoleIsNotBooted
	}

	instructions := time.NewTicker(time.Second / time.Duration(speed))
	defer instructions.Stop()
	timers := time.NewTicker(time.Second / TimerHz)
	defer timers.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case s := <-c.speedCh:
			instructions.Reset(time.Second / time.Duration(s))

		case <-instructions.C:
			c.cycle()

		case <-timers.C:
			// render errors are logged, a lost frame does not stop the console
			_ = c.frame()
		}
	}
}

func (c *Console) cycle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isPaused {
		return
	}

	if err := c.step(); err != nil && c.haltAfterFaults > 0 && c.machine.Faults().Total() >= c.haltAfterFaults {
		c.isPaused = true
		c.isHalted = true
		c.logger.Error("halting after too many faults", slog.Uint64("faults", uint64(c.machine.Faults().Total())), slog.Any("error", err))
	}
}

func (c *Console) step() error {
	// the instruction after a resolved key wait runs on the next cycle
	if c.machine.syncKeys(c.keyboard.State()) {
		return nil
	}
	err := c.machine.Step()
	if err != nil {
		c.lastError = err
	}

	return err
}

func (c *Console) frame() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isPaused {
		c.machine.AdvanceTimers()
	}

	return c.renderIfDirty()
}

func (c *Console) renderIfDirty() error {
	if !c.machine.TakeScreenDirty() {
		return nil
	}

	return c.render()
}

func (c *Console) render() error {
	c.machine.TakeScreenDirty()
	if err := c.display.Render(c.machine.Screen()); err != nil {
		c.logger.Error("error rendering the screen", slog.Any("error", err))
		return err
	}

	return nil
}
