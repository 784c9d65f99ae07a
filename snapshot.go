package chip8

// Snapshot is a copy of the observable state of the machine, detached from it
type Snapshot struct {
	// OpCode at the program counter, zero when the PC is out of bounds
	OpCode uint16
	Pc     uint16
	I      uint16
	V      [RegisterCount]byte
	Stack  []uint16
	Dt     byte
	St     byte
	Keypad KeypadState
	State  ExecutionState
	Faults FaultCounters
	Cycles uint
	Screen Screen
}

func (m *Machine) Snapshot() Snapshot {
	opCode, _ := Fetch(m.memory, m.pc)

	return Snapshot{
		OpCode: opCode,
		Pc:     m.pc,
		I:      m.i,
		V:      m.v,
		Stack:  m.Stack(),
		Dt:     m.dt,
		St:     m.st,
		Keypad: m.keypad,
		State:  m.state,
		Faults: m.faults,
		Cycles: m.cycles,
		Screen: m.screen.Snapshot(),
	}
}
