package chip8

import (
	"errors"
	"fmt"
	"log/slog"
)

var ErrStackUnderflow = errors.New("stack underflow: try to pop an empty stack")
var ErrStackOverflow = errors.New("stack overflow: try to push to a full stack")

// Step executes the instruction at the program counter.
// While the machine waits for a key it does nothing.
//
// Faults never stop the machine. They are logged, counted, handed to the fault hooks and returned
// so the host can decide what to do:
//   - ErrDecodeFault: the PC is left unchanged and nothing runs
//   - ErrOpCodeUnknown: the PC moves to the next instruction
//   - ErrStackOverflow, ErrStackUnderflow: the instruction is rejected and the PC is left unchanged
func (m *Machine) Step() error {
	switch m.state.(type) {
	case WaitingForKey:
		return nil
	case Running:
	}

	m.runHooks(m.beforeStepHooks)

	pc := m.pc
	opCode, err := Fetch(m.memory, pc)
	if err != nil {
		m.faults.Decode++
		return m.fault(err)
	}

	ins, err := Decode(opCode)
	m.trace(pc, ins)
	if err != nil {
		m.faults.UnknownOpCode++
		m.pc += 2
		return m.fault(ErrOpCodeUnknown{OpCode: opCode, Pc: pc})
	}

	if err := m.execute(ins); err != nil {
		return m.fault(fmt.Errorf("%s at PC=%03X: %w", ins, pc, err))
	}

	m.cycles++
	m.runHooks(m.afterStepHooks)

	return nil
}

func (m *Machine) fault(err error) error {
	m.logger.Warn("fault", slog.String("pc", fmt.Sprintf("0x%03X", m.pc)), slog.Any("error", err))
	m.runFaultHooks(err)

	return err
}

// next moves to the following instruction, or skips it
func (m *Machine) next(skip bool) {
	if skip {
		m.pc += 4
	} else {
		m.pc += 2
	}
}

func (m *Machine) execute(ins Instruction) error {
	x, y := ins.X, ins.Y

	switch ins.Kind {
	case KindCls:
		// CLS :: Clear the display.
		m.screen.Clear()
		m.next(false)

	case KindRet:
		// RET :: Return from a subroutine.
		if len(m.stack) == 0 {
			m.faults.StackUnderflow++
			return ErrStackUnderflow
		}
		top := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		m.pc = top + 2

	case KindJp:
		// JP addr :: Jump to location nnn.
		m.pc = ins.NNN

	case KindCall:
		// CALL addr :: Call subroutine at nnn.
		if len(m.stack) >= StackSize {
			m.faults.StackOverflow++
			return ErrStackOverflow
		}
		m.stack = append(m.stack, m.pc&0x0FFF)
		m.pc = ins.NNN

	case KindSeByte:
		// SE Vx, byte :: Skip next instruction if Vx = kk.
		m.next(m.v[x] == ins.KK)

	case KindSneByte:
		// SNE Vx, byte :: Skip next instruction if Vx != kk.
		m.next(m.v[x] != ins.KK)

	case KindSeReg:
		// SE Vx, Vy :: Skip next instruction if Vx = Vy.
		m.next(m.v[x] == m.v[y])

	case KindSneReg:
		// SNE Vx, Vy :: Skip next instruction if Vx != Vy.
		m.next(m.v[x] != m.v[y])

	case KindLdByte:
		// LD Vx, byte :: Set Vx = kk.
		m.v[x] = ins.KK
		m.next(false)

	case KindAddByte:
		// ADD Vx, byte :: Set Vx = Vx + kk. VF is untouched.
		m.v[x] += ins.KK
		m.next(false)

	case KindLdReg, KindOr, KindAnd, KindXor, KindAddReg, KindSub, KindShr, KindSubn, KindShl:
		m.alu(ins)
		m.next(false)

	case KindLdI:
		// LD I, addr :: Set I = nnn.
		m.i = ins.NNN
		m.next(false)

	case KindJpV0:
		// JP V0, addr :: Jump to location nnn + V0.
		m.pc = ins.NNN + uint16(m.v[0])

	case KindRnd:
		// RND Vx, byte :: Set Vx = random byte AND kk.
		m.v[x] = m.random.Byte() & ins.KK
		m.next(false)

	case KindDrw:
		// DRW Vx, Vy, nibble :: Display n-byte sprite starting at memory location I at (Vx, Vy), set VF = collision.
		// The interpreter reads n bytes from memory, starting at the address stored in I. These bytes are then
		// displayed as sprites on screen at coordinates (Vx, Vy). Sprites are XORed onto the existing screen.
		// If this causes any pixels to be erased, VF is set to 1, otherwise it is set to 0. If the sprite is
		// positioned so part of it is outside the coordinates of the display, it wraps around to the opposite side of
		// the screen.
		rows := make([]byte, ins.N)
		for r := range rows {
			rows[r] = m.memory.Read(m.i + uint16(r))
		}
		collision := m.screen.DrawSprite(int(m.v[x]), int(m.v[y]), rows)
		m.v[FlagRegister] = bool2byte(collision)
		m.next(false)

	case KindSkp:
		// SKP Vx :: Skip next instruction if key with the value of Vx is pressed.
		m.next(m.isPressed(m.v[x]))

	case KindSknp:
		// SKNP Vx :: Skip next instruction if key with the value of Vx is not pressed.
		m.next(!m.isPressed(m.v[x]))

	case KindLdVxDt:
		// LD Vx, DT :: Set Vx = delay timer value.
		m.v[x] = m.dt
		m.next(false)

	case KindLdVxK:
		// LD Vx, K :: Wait for a key press, store the value of the key in Vx.
		// The PC stays here, the key latch moves it once a key goes down.
		m.state = WaitingForKey{Register: x}

	case KindLdDtVx:
		// LD DT, Vx :: Set delay timer = Vx.
		m.dt = m.v[x]
		m.next(false)

	case KindLdStVx:
		// LD ST, Vx :: Set sound timer = Vx.
		m.st = m.v[x]
		m.next(false)

	case KindAddI:
		// ADD I, Vx :: Set I = I + Vx.
		m.i += uint16(m.v[x])
		m.next(false)

	case KindLdF:
		// LD F, Vx :: Set I = location of sprite for digit Vx.
		m.i = FontBaseAddress + GlyphSize*uint16(m.v[x])
		m.next(false)

	case KindLdB:
		// LD B, Vx :: Store BCD representation of Vx in memory locations I, I+1, and I+2.
		v := m.v[x]
		m.memory.Write(m.i+0, v/100)
		m.memory.Write(m.i+1, (v/10)%10)
		m.memory.Write(m.i+2, v%10)
		m.next(false)

	case KindLdIVx:
		// LD [I], Vx :: Store registers V0 through Vx in memory starting at location I.
		for r := byte(0); r <= x; r++ {
			m.memory.Write(m.i+uint16(r), m.v[r])
		}
		m.next(false)

	case KindLdVxI:
		// LD Vx, [I] :: Read registers V0 through Vx from memory starting at location I.
		for r := byte(0); r <= x; r++ {
			m.v[r] = m.memory.Read(m.i + uint16(r))
		}
		m.next(false)

	default:
		return ErrOpCodeUnknown{OpCode: ins.OpCode, Pc: m.pc}
	}

	return nil
}

// alu runs the inter-register operations. The flag is written last so that VF as a destination
// holds the flag.
func (m *Machine) alu(ins Instruction) {
	x, y := ins.X, ins.Y

	switch ins.Kind {
	case KindLdReg:
		// LD Vx, Vy :: Set Vx = Vy.
		m.v[x] = m.v[y]

	case KindOr:
		// OR Vx, Vy :: Set Vx = Vx OR Vy.
		m.v[x] |= m.v[y]

	case KindAnd:
		// AND Vx, Vy :: Set Vx = Vx AND Vy.
		m.v[x] &= m.v[y]

	case KindXor:
		// XOR Vx, Vy :: Set Vx = Vx XOR Vy.
		m.v[x] ^= m.v[y]

	case KindAddReg:
		// ADD Vx, Vy :: Set Vx = Vx + Vy, set VF = carry.
		r := uint16(m.v[x]) + uint16(m.v[y])
		m.v[x] = byte(r & 0x00FF)
		m.v[FlagRegister] = byte(r >> 8)

	case KindSub:
		// SUB Vx, Vy :: Set Vx = Vx - Vy, set VF = NOT borrow.
		carry := m.v[x] >= m.v[y]
		m.v[x] = m.v[x] - m.v[y]
		m.v[FlagRegister] = bool2byte(carry)

	case KindShr:
		// SHR Vx {, Vy} :: Set Vx = Vx SHR 1.
		carry := m.v[x] & 0b00000001
		m.v[x] = m.v[x] >> 1
		m.v[FlagRegister] = carry

	case KindSubn:
		// SUBN Vx, Vy :: Set Vx = Vy - Vx, set VF = NOT borrow.
		carry := m.v[y] >= m.v[x]
		m.v[x] = m.v[y] - m.v[x]
		m.v[FlagRegister] = bool2byte(carry)

	case KindShl:
		// SHL Vx {, Vy} :: Set Vx = Vx SHL 1.
		carry := (m.v[x] & 0b10000000) >> 7
		m.v[x] = m.v[x] << 1
		m.v[FlagRegister] = carry
	}
}

func (m *Machine) isPressed(k byte) bool {
	if k >= KeyCount {
		return false
	}

	return m.keypad[k]
}

func bool2byte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
