package chip8_test

import (
	"errors"
	"testing"

	"github.com/guslan/chip8"
	"github.com/retroenv/retrogolib/assert"
)

func runNSteps(t *testing.T, program []uint16, n int, configs ...chip8.MachineConfigCb) *chip8.Machine {
	t.Helper()

	m := chip8.NewMachine(configs...)
	assert.NoError(t, m.LoadProgram(program))

	for i := 0; i < n; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf(`Step() %d returned an error %v`, i, err)
		}
	}

	return m
}

func assertVxEq(t *testing.T, msg string, m *chip8.Machine, x, kk byte) {
	t.Helper()

	if m.Register(x) != kk {
		t.Fatalf(`%s: m.V[%x] = %x, expected %x`, msg, x, m.Register(x), kk)
	}
}

// TestProgramLoading clears the screen and jumps to itself
func TestProgramLoading(t *testing.T) {
	m := chip8.NewMachine()
	assert.NoError(t, m.LoadProgram([]uint16{0x00E0, 0x1200}))

	assert.NoError(t, m.Step())
	assert.Equal(t, uint16(0x202), m.PC())
	assert.Equal(t, 0, m.Screen().Lit())

	assert.NoError(t, m.Step())
	assert.Equal(t, uint16(0x200), m.PC())

	assert.NoError(t, m.Step())
	assert.Equal(t, uint16(0x202), m.PC())
}

// TestConstantSetInstructions
func TestConstantSetInstructions(t *testing.T) {
	program := []uint16{
		// set v0 to 128
		0x6080,
		// set v1 to 16
		0x6110,
		// set v2 to 1
		0x6201,
		// add to v2 4
		0x7204,
	}
	m := runNSteps(t, program, 4)

	assertVxEq(t, "LD V0", m, 0x0, 128)
	assertVxEq(t, "LD V1", m, 0x1, 16)
	assertVxEq(t, "ADD V2", m, 0x2, 5)
}

func TestLoadEveryRegister(t *testing.T) {
	for x := uint16(0); x < chip8.RegisterCount; x++ {
		for _, kk := range []uint16{0x00, 0x01, 0x7F, 0x80, 0xFF} {
			m := runNSteps(t, []uint16{0x6000 | x<<8 | kk}, 1)
			assertVxEq(t, "LD Vx, byte", m, byte(x), byte(kk))
		}
	}
}

func TestAddByteWrapsWithoutFlag(t *testing.T) {
	m := runNSteps(t, []uint16{0x60FF, 0x7002}, 2)

	assertVxEq(t, "ADD V0, 2", m, 0x0, 0x01)
	assertVxEq(t, "VF untouched", m, 0xF, 0x00)
}

// TestSimpleSkips every skip moves past the following LD when its condition holds
func TestSimpleSkips(t *testing.T) {
	program := []uint16{
		// set v0 to 128
		0x6080,
		// set v1 to 16
		0x6110,
		// set v2 to 128
		0x6280,

		// if v0 == 128, do not set v3 to 1
		0x3080,
		0x6301,

		// if v0 == 16, do not set vA to 1
		0x3010,
		0x6A01,

		// if v0 != 128, do not set v4 to 1
		0x4080,
		0x6401,

		// if v0 != 16, do not set vB to 1
		0x4010,
		0x6B01,

		// if v0 == v1, do not set v5 to 1
		0x5010,
		0x6501,

		// if v0 == v2, do not set v6 to 1
		0x5020,
		0x6601,

		// if v0 != v1, do not set v7 to 1
		0x9010,
		0x6701,

		// if v0 != v2, do not set v8 to 1
		0x9020,
		0x6801,
	}
	m := runNSteps(t, program, 15)

	assertVxEq(t, "SE Vx kk true", m, 0x3, 0x0)
	assertVxEq(t, "SE Vx kk false", m, 0xA, 0x1)
	assertVxEq(t, "SNE Vx kk true", m, 0xB, 0x0)
	assertVxEq(t, "SNE Vx kk false", m, 0x4, 0x1)
	assertVxEq(t, "SE Vx V2 true", m, 0x6, 0x0)
	assertVxEq(t, "SE Vx V1 false", m, 0x5, 0x1)
	assertVxEq(t, "SNE Vx V1 true", m, 0x7, 0x0)
	assertVxEq(t, "SNE Vx V2 false", m, 0x8, 0x1)
	assert.Equal(t, uint16(0x200+2*len(program)), m.PC())
}

func TestArithmeticFlags(t *testing.T) {
	tests := []struct {
		name   string
		op     uint16
		vx, vy byte
		result byte
		flag   byte
	}{
		{"LD", 0x8120, 0x00, 0x80, 0x80, 0},
		{"OR", 0x8121, 0xF0, 0x0F, 0xFF, 0},
		{"AND", 0x8122, 0xF0, 0x0F, 0x00, 0},
		{"XOR", 0x8123, 0xFF, 0x0F, 0xF0, 0},

		{"ADD carry", 0x8124, 0xFF, 0x01, 0x00, 1},
		{"ADD carry 0x80", 0x8124, 0x80, 0x80, 0x00, 1},
		{"ADD no carry", 0x8124, 0x01, 0x01, 0x02, 0},
		{"ADD zero", 0x8124, 0x00, 0x00, 0x00, 0},

		{"SUB borrow", 0x8125, 0x00, 0x01, 0xFF, 0},
		{"SUB equal", 0x8125, 0x01, 0x01, 0x00, 1},
		{"SUB no borrow", 0x8125, 0xFF, 0x80, 0x7F, 1},
		{"SUB borrow 0x80", 0x8125, 0x80, 0xFF, 0x81, 0},

		{"SHR 0x00", 0x8126, 0x00, 0x00, 0x00, 0},
		{"SHR 0x01", 0x8126, 0x01, 0x00, 0x00, 1},
		{"SHR 0x80", 0x8126, 0x80, 0x00, 0x40, 0},
		{"SHR 0xFF", 0x8126, 0xFF, 0x00, 0x7F, 1},

		{"SUBN borrow", 0x8127, 0x01, 0x00, 0xFF, 0},
		{"SUBN no borrow", 0x8127, 0x01, 0xFF, 0xFE, 1},
		{"SUBN equal", 0x8127, 0x80, 0x80, 0x00, 1},

		{"SHL 0x00", 0x812E, 0x00, 0x00, 0x00, 0},
		{"SHL 0x01", 0x812E, 0x01, 0x00, 0x02, 0},
		{"SHL 0x80", 0x812E, 0x80, 0x00, 0x00, 1},
		{"SHL 0xFF", 0x812E, 0xFF, 0x00, 0xFE, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := []uint16{
				0x6100 | uint16(tt.vx),
				0x6200 | uint16(tt.vy),
				tt.op,
			}
			m := runNSteps(t, program, len(program))

			assert.Equal(t, tt.result, m.Register(0x1))
			assert.Equal(t, tt.flag, m.Register(0xF))
			assert.Equal(t, uint16(0x206), m.PC())
		})
	}
}

// TestFlagAsDestination when VF is the destination it ends up holding the flag
func TestFlagAsDestination(t *testing.T) {
	m := runNSteps(t, []uint16{0x6FFF, 0x6101, 0x8F14}, 3)

	assertVxEq(t, "ADD VF, V1", m, 0xF, 1)
}

func TestDrawCollision(t *testing.T) {
	program := []uint16{
		// I = glyph 0
		0x6000,
		0xF029,
		0x6A00,
		0x6B00,
		0xDAB5,
		0xDAB5,
	}
	m := runNSteps(t, program, 5)

	assertVxEq(t, "first draw", m, 0xF, 0)
	assert.Equal(t, 14, m.Screen().Lit())
	assert.True(t, m.Screen().At(0, 0))
	assert.False(t, m.Screen().At(1, 1))

	assert.NoError(t, m.Step())
	assertVxEq(t, "second draw", m, 0xF, 1)
	assert.Equal(t, 0, m.Screen().Lit())
}

func TestDrawWrapsAround(t *testing.T) {
	program := []uint16{
		0x60FF,
		0x61FF,
		// store two full rows at 0x300
		0xA300,
		0xF155,
		0x6A3F,
		0x6B1F,
		0xDAB2,
	}
	m := runNSteps(t, program, len(program))
	screen := m.Screen()

	assertVxEq(t, "no collision", m, 0xF, 0)
	assert.Equal(t, 16, screen.Lit())
	assert.True(t, screen[31][63])
	assert.True(t, screen[31][0])
	assert.True(t, screen[0][63])
	assert.True(t, screen[0][0])
	assert.True(t, screen[0][6])
	assert.False(t, screen[0][7])
	assert.False(t, screen[1][0])
}

func TestDrawOriginWraps(t *testing.T) {
	// origin (64+2, 32+1) lands on (2, 1)
	program := []uint16{
		0x6000,
		0xF029,
		0x6A42,
		0x6B21,
		0xDAB1,
	}
	m := runNSteps(t, program, len(program))

	assert.True(t, m.Screen().At(2, 1))
	assert.True(t, m.Screen().At(5, 1))
	assert.False(t, m.Screen().At(6, 1))
}

func TestBinaryCodedDecimal(t *testing.T) {
	m := runNSteps(t, []uint16{0x60C3, 0xA300, 0xF033}, 3)
	mem := m.Memory()

	assert.Equal(t, []byte{1, 9, 5}, mem[0x300:0x303])
	assert.Equal(t, uint16(0x300), m.Index())
}

func TestStoreAndLoadRegisters(t *testing.T) {
	program := []uint16{
		0x6011,
		0x6122,
		0x6233,
		0xA400,
		0xF255,
		0x6000,
		0x6100,
		0x6200,
		0xF165,
	}
	m := runNSteps(t, program, len(program))
	mem := m.Memory()

	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x00}, mem[0x400:0x404])
	assertVxEq(t, "V0 loaded", m, 0x0, 0x11)
	assertVxEq(t, "V1 loaded", m, 0x1, 0x22)
	assertVxEq(t, "V2 not loaded", m, 0x2, 0x00)
	assert.Equal(t, uint16(0x400), m.Index())
}

func TestIndexInstructions(t *testing.T) {
	m := runNSteps(t, []uint16{0xA123, 0x6010, 0xF01E}, 3)
	assert.Equal(t, uint16(0x133), m.Index())

	m = runNSteps(t, []uint16{0x6A0A, 0xFA29}, 2)
	assert.Equal(t, uint16(chip8.FontBaseAddress+5*0xA), m.Index())
}

func TestJumps(t *testing.T) {
	m := runNSteps(t, []uint16{0x1ABC}, 1)
	assert.Equal(t, uint16(0xABC), m.PC())

	m = runNSteps(t, []uint16{0x6004, 0xB300}, 2)
	assert.Equal(t, uint16(0x304), m.PC())
}

func TestCallAndReturn(t *testing.T) {
	program := []uint16{
		// 0x200
		0x2206,
		// 0x202
		0x1202,
		// 0x204
		0x0000,
		// 0x206
		0x00EE,
	}
	m := runNSteps(t, program, 1)
	assert.Equal(t, uint16(0x206), m.PC())
	assert.Equal(t, []uint16{0x200}, m.Stack())

	assert.NoError(t, m.Step())
	assert.Equal(t, uint16(0x202), m.PC())
	assert.Equal(t, 0, len(m.Stack()))
}

func TestStackOverflow(t *testing.T) {
	// call itself forever
	m := runNSteps(t, []uint16{0x2200}, chip8.StackSize)
	assert.Equal(t, chip8.StackSize, len(m.Stack()))

	err := m.Step()
	assert.True(t, errors.Is(err, chip8.ErrStackOverflow))
	assert.Equal(t, chip8.StackSize, len(m.Stack()))
	assert.Equal(t, uint16(0x200), m.PC())
	assert.Equal(t, uint(1), m.Faults().StackOverflow)
}

func TestStackUnderflow(t *testing.T) {
	m := chip8.NewMachine()
	assert.NoError(t, m.LoadProgram([]uint16{0x00EE}))

	var hooked error
	m.AddFaultHook(func(m *chip8.Machine, err error) {
		hooked = err
	})

	err := m.Step()
	assert.True(t, errors.Is(err, chip8.ErrStackUnderflow))
	assert.True(t, errors.Is(hooked, chip8.ErrStackUnderflow))
	assert.Equal(t, uint16(0x200), m.PC())
	assert.Equal(t, uint(1), m.Faults().StackUnderflow)

	// the machine keeps going and keeps failing on the same return
	err = m.Step()
	assert.True(t, errors.Is(err, chip8.ErrStackUnderflow))
	assert.Equal(t, uint(2), m.Faults().Total())
}

func TestUnknownOpCode(t *testing.T) {
	m := chip8.NewMachine()
	assert.NoError(t, m.LoadProgram([]uint16{0x5001, 0x6042}))

	err := m.Step()
	var unknown chip8.ErrOpCodeUnknown
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, uint16(0x5001), unknown.OpCode)
	assert.Equal(t, uint16(0x200), unknown.Pc)
	assert.Equal(t, uint16(0x202), m.PC())
	assert.Equal(t, uint(1), m.Faults().UnknownOpCode)

	assert.NoError(t, m.Step())
	assertVxEq(t, "runs after unknown opcode", m, 0x0, 0x42)
}

func TestDecodeFault(t *testing.T) {
	m := runNSteps(t, []uint16{0x1FFF}, 1)

	err := m.Step()
	var fault chip8.ErrDecodeFault
	assert.True(t, errors.As(err, &fault))
	assert.Equal(t, uint16(0xFFF), fault.Pc)
	assert.Equal(t, uint16(0xFFF), m.PC())
	assert.Equal(t, uint(1), m.Faults().Decode)
}

func TestRandom(t *testing.T) {
	m := runNSteps(t, []uint16{0xC00F, 0xC1F0}, 2, func(config *chip8.MachineConfig) {
		config.Random = chip8.FixedRandom(0xAB)
	})

	assertVxEq(t, "RND V0, 0x0F", m, 0x0, 0x0B)
	assertVxEq(t, "RND V1, 0xF0", m, 0x1, 0xA0)
}

func TestSeededRandomIsReproducible(t *testing.T) {
	program := []uint16{0xC0FF, 0xC1FF, 0xC2FF}
	seeded := func(config *chip8.MachineConfig) {
		config.Random = chip8.NewSeededRandom(42)
	}

	a := runNSteps(t, program, 3, seeded)
	b := runNSteps(t, program, 3, seeded)

	assert.Equal(t, a.Registers(), b.Registers())
}

func TestTimersAreIndependentOfSteps(t *testing.T) {
	m := runNSteps(t, []uint16{0x603C, 0xF015, 0x6105, 0xF118, 0xF207}, 5)

	assert.Equal(t, byte(60), m.DelayTimer())
	assert.Equal(t, byte(5), m.SoundTimer())
	assertVxEq(t, "LD V2, DT", m, 0x2, 60)

	for i := 0; i < 5; i++ {
		m.AdvanceTimers()
	}
	assert.Equal(t, byte(55), m.DelayTimer())
	assert.Equal(t, byte(0), m.SoundTimer())
	assert.False(t, m.IsSoundTimerActive())

	for i := 0; i < 100; i++ {
		m.AdvanceTimers()
	}
	assert.Equal(t, byte(0), m.DelayTimer())
}

func TestExecutesWhileDelayTimerRuns(t *testing.T) {
	m := runNSteps(t, []uint16{0x60FF, 0xF015, 0x6101}, 3)

	assert.Equal(t, byte(0xFF), m.DelayTimer())
	assertVxEq(t, "ran with active delay", m, 0x1, 1)
}

func TestWaitForKey(t *testing.T) {
	m := runNSteps(t, []uint16{0xF30A, 0x6101}, 1)
	assert.True(t, m.IsWaitingForKey())
	assert.Equal(t, chip8.ExecutionState(chip8.WaitingForKey{Register: 3}), m.State())

	for i := 0; i < 3; i++ {
		m.SyncKeys(chip8.KeypadState{})
		assert.NoError(t, m.Step())
	}
	assert.Equal(t, uint16(0x200), m.PC())
	assertVxEq(t, "still waiting", m, 0x3, 0)
	assertVxEq(t, "nothing ran", m, 0x1, 0)

	keys := chip8.KeypadState{}
	keys[0x7] = true
	m.SyncKeys(keys)
	assert.False(t, m.IsWaitingForKey())
	assertVxEq(t, "key stored", m, 0x3, 0x7)
	assert.Equal(t, uint16(0x202), m.PC())

	assert.NoError(t, m.Step())
	assertVxEq(t, "runs again", m, 0x1, 1)
}

func TestTickResolvingKeyWaitExecutesNothing(t *testing.T) {
	m := chip8.NewMachine()
	assert.NoError(t, m.LoadProgram([]uint16{0xF10A, 0x6105, 0x1204}))

	assert.NoError(t, m.Tick(chip8.KeypadState{}))
	assert.True(t, m.IsWaitingForKey())

	keys := chip8.KeypadState{}
	keys[0xB] = true
	assert.NoError(t, m.Tick(keys))
	assert.Equal(t, uint16(0x202), m.PC())
	assertVxEq(t, "key kept on the edge tick", m, 0x1, 0xB)

	assert.NoError(t, m.Tick(keys))
	assert.Equal(t, uint16(0x204), m.PC())
	assertVxEq(t, "next instruction on the following tick", m, 0x1, 0x05)
}

func TestWaitForKeyNeedsRisingEdge(t *testing.T) {
	held := chip8.KeypadState{}
	held[0x2] = true

	m := chip8.NewMachine()
	assert.NoError(t, m.LoadProgram([]uint16{0xF00A}))
	m.SyncKeys(held)
	assert.NoError(t, m.Step())

	m.SyncKeys(held)
	assert.True(t, m.IsWaitingForKey())

	held[0x9] = true
	held[0xC] = true
	m.SyncKeys(held)
	assertVxEq(t, "lowest new key wins", m, 0x0, 0x9)
	assert.Equal(t, uint16(0x202), m.PC())
}

func TestVirtualKeyResolvesWait(t *testing.T) {
	m := runNSteps(t, []uint16{0xF50A}, 1)

	m.SetKey(0xA, true)
	m.SyncKeys(chip8.KeypadState{})

	assertVxEq(t, "virtual key", m, 0x5, 0xA)
	assert.True(t, m.Keypad()[0xA])

	m.SetKey(0xA, false)
	m.SyncKeys(chip8.KeypadState{})
	assert.False(t, m.Keypad()[0xA])
}

func TestSkipOnKey(t *testing.T) {
	m := chip8.NewMachine()
	assert.NoError(t, m.LoadProgram([]uint16{0x6004, 0xE09E, 0x6101, 0xE0A1, 0x6201}))

	keys := chip8.KeypadState{}
	keys[0x4] = true
	for i := 0; i < 4; i++ {
		assert.NoError(t, m.Tick(keys))
	}

	assertVxEq(t, "SKP skipped", m, 0x1, 0)
	assertVxEq(t, "SKNP did not skip", m, 0x2, 1)
}

func TestReset(t *testing.T) {
	m := runNSteps(t, []uint16{0x6042, 0xA300, 0x6000, 0xF029, 0xD005, 0x2300, 0x60FF}, 6)
	m.SetKey(0x1, true)
	m.SyncKeys(chip8.KeypadState{})

	m.Reset()

	assert.Equal(t, uint16(chip8.StartOfProgram), m.PC())
	assert.Equal(t, uint16(0), m.Index())
	assert.Equal(t, [chip8.RegisterCount]byte{}, m.Registers())
	assert.Equal(t, 0, len(m.Stack()))
	assert.Equal(t, byte(0), m.DelayTimer())
	assert.Equal(t, byte(0), m.SoundTimer())
	assert.Equal(t, chip8.KeypadState{}, m.Keypad())
	assert.Equal(t, chip8.Screen{}, m.Screen())
	assert.Equal(t, chip8.ExecutionState(chip8.Running{}), m.State())
	assert.Equal(t, uint(0), m.Faults().Total())

	mem := m.Memory()
	assert.Equal(t, chip8.DefaultFont[:], mem[chip8.FontBaseAddress:chip8.FontBaseAddress+len(chip8.DefaultFont)])
	assert.Equal(t, byte(0), mem[chip8.StartOfProgram])
}

func TestTrace(t *testing.T) {
	events := make([]chip8.TraceEvent, 0)
	runNSteps(t, []uint16{0x612A, 0xD125}, 2, func(config *chip8.MachineConfig) {
		config.Tracer = func(ev chip8.TraceEvent) {
			events = append(events, ev)
		}
	})

	assert.Equal(t, 2, len(events))
	assert.Equal(t, chip8.TraceEvent{Pc: 0x200, OpCode: 0x612A, Mnemonic: "LD V1, 0x2A"}, events[0])
	assert.Equal(t, "DRW V1, V2, 5", events[1].Mnemonic)
}

func TestHooks(t *testing.T) {
	m := chip8.NewMachine()
	assert.NoError(t, m.LoadProgram([]uint16{0x6001, 0x00EE}))

	before, after := 0, 0
	m.AddBeforeStepHook(func(m *chip8.Machine) { before++ })
	m.AddAfterStepHook(func(m *chip8.Machine) { after++ })

	assert.NoError(t, m.Step())
	assert.True(t, m.Step() != nil)

	assert.Equal(t, 2, before)
	assert.Equal(t, 1, after)
	assert.Equal(t, uint(1), m.Cycles())
}
