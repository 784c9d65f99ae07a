package chip8

import (
	"context"
	"fmt"
	"log/slog"
)

type Hook func(m *Machine)

// FaultHook receives every fault raised by Step
type FaultHook func(m *Machine, err error)

// TraceEvent describes one decoded instruction
type TraceEvent struct {
	Pc       uint16
	OpCode   uint16
	Mnemonic string
}

// Tracer observes every instruction the machine decodes
type Tracer func(ev TraceEvent)

// SlogTracer logs every instruction at debug level
func SlogTracer(logger *slog.Logger) Tracer {
	return func(ev TraceEvent) {
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		logger.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%03X", ev.Pc),
			"opcode", fmt.Sprintf("0x%04X", ev.OpCode),
			"instr", ev.Mnemonic,
		)
	}
}

// AddBeforeStepHook adds a hook that will run before every step of the machine
func (m *Machine) AddBeforeStepHook(h Hook) int {
	m.beforeStepHooks = append(m.beforeStepHooks, h)

	return len(m.beforeStepHooks)
}

// AddAfterStepHook adds a hook that will run after every instruction executed without a fault
func (m *Machine) AddAfterStepHook(h Hook) int {
	m.afterStepHooks = append(m.afterStepHooks, h)

	return len(m.afterStepHooks)
}

// AddFaultHook adds a hook that will run after every fault
func (m *Machine) AddFaultHook(h FaultHook) int {
	m.faultHooks = append(m.faultHooks, h)

	return len(m.faultHooks)
}

// SetTracer replaces the tracer, nil disables tracing
func (m *Machine) SetTracer(t Tracer) {
	m.tracer = t
}

func (m *Machine) runHooks(hooks []Hook) {
	for _, h := range hooks {
		h(m)
	}
}

func (m *Machine) runFaultHooks(err error) {
	for _, h := range m.faultHooks {
		h(m, err)
	}
}

func (m *Machine) trace(pc uint16, ins Instruction) {
	if m.tracer == nil {
		return
	}

	m.tracer(TraceEvent{
		Pc:       pc,
		OpCode:   ins.OpCode,
		Mnemonic: ins.String(),
	})
}
