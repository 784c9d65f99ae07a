package chip8

// Tick runs one host tick: the timers advance, the host keys are latched and,
// unless the machine waits for a key, one instruction is executed.
// The tick that resolves a key wait executes nothing, the PC moves past LD Vx, K only.
func (m *Machine) Tick(host KeypadState) error {
	m.AdvanceTimers()
	if m.syncKeys(host) {
		return nil
	}

	return m.Step()
}
