package chip8

import "fmt"

// ExecutionState tells whether the machine executes instructions or waits for a key press.
// It is either Running or WaitingForKey.
type ExecutionState interface {
	fmt.Stringer
	isExecutionState()
}

// Running is the normal state of the machine
type Running struct{}

// WaitingForKey is entered by LD Vx, K. Execution is suspended until a key is pressed,
// whose value is stored in Register.
type WaitingForKey struct {
	Register byte
}

func (Running) isExecutionState()       {}
func (WaitingForKey) isExecutionState() {}

func (Running) String() string {
	return "running"
}

func (w WaitingForKey) String() string {
	return fmt.Sprintf("waiting for key into V%X", w.Register)
}
