package chip8

// TimerHz the rate at which the delay and sound timers count down
const TimerHz = 60

// AdvanceTimers counts both timers down by one, stopping at zero.
// It is driven by its own clock, independently of how many instructions run.
func (m *Machine) AdvanceTimers() {
	if m.dt > 0 {
		m.dt--
	}
	if m.st > 0 {
		m.st--
	}
}
