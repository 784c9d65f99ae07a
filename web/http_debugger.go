package web

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/guslan/chip8"
)

// waitingNone marks a running machine in the debugger frame
const waitingNone = 0xFF

// HttpDebugger streams a snapshot of the machine after every executed instruction
type HttpDebugger struct {
	console *chip8.Console
	logger  *slog.Logger

	mu      sync.Mutex
	clients map[chan chip8.Snapshot]struct{}
}

// NewHttpDebugger creates a new debugger and registers its hooks on the machine.
// Every client keeps only its latest snapshot while it does not keep up.
func NewHttpDebugger(console *chip8.Console, logger *slog.Logger) *HttpDebugger {
	deb := &HttpDebugger{
		console: console,
		logger:  logger,
		clients: map[chan chip8.Snapshot]struct{}{},
	}

	console.WithMachine(func(m *chip8.Machine) {
		m.AddAfterStepHook(deb.afterStep)
		m.AddFaultHook(func(m *chip8.Machine, err error) {
			deb.afterStep(m)
		})
	})

	return deb
}

func (d *HttpDebugger) subscribe() chan chip8.Snapshot {
	ch := make(chan chip8.Snapshot, 1)

	d.mu.Lock()
	d.clients[ch] = struct{}{}
	d.mu.Unlock()

	return ch
}

func (d *HttpDebugger) unsubscribe(ch chan chip8.Snapshot) {
	d.mu.Lock()
	delete(d.clients, ch)
	d.mu.Unlock()
}

// afterStep runs under the console lock, it never blocks
func (d *HttpDebugger) afterStep(m *chip8.Machine) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.clients) == 0 {
		return
	}

	snap := m.Snapshot()
	for ch := range d.clients {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (d *HttpDebugger) serveWs(w http.ResponseWriter, r *http.Request) {
	d.logger.Info("Connecting to debugger")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn("upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	send := d.subscribe()
	defer d.unsubscribe(send)

	// reads only to notice the client leaving
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteMessage(websocket.BinaryMessage, formatAsEvent(d.console.Snapshot())); err != nil {
		return
	}

	for {
		select {
		case snap := <-send:
			if err := conn.WriteMessage(websocket.BinaryMessage, formatAsEvent(snap)); err != nil {
				d.logger.Error("Error writing debugger message", slog.Any("error", err))
				return
			}

		case <-gone:
			d.logger.Info("Disconnecting from debugger")
			return
		}
	}
}

// clientCount is the number of connected debugger clients
func (d *HttpDebugger) clientCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.clients)
}

// formatAsEvent encodes the snapshot, 16-bit values big-endian:
//
//	opcode(2) pc(2) v0..vF(16) i(2) sp(1) stack(48*2) dt(1) st(1) width(1) height(1) wait(1) faults(2)
//
// wait is the destination register of a pending key wait or 0xFF.
func formatAsEvent(snap chip8.Snapshot) []byte {
	buf := make([]byte, 0, 128)

	buf = append(buf, byte((snap.OpCode&0xFF00)>>8))
	buf = append(buf, byte((snap.OpCode&0x00FF)>>0))

	buf = append(buf, byte((snap.Pc&0xFF00)>>8))
	buf = append(buf, byte((snap.Pc&0x00FF)>>0))
	buf = append(buf, snap.V[:]...)
	buf = append(buf, byte((snap.I&0xFF00)>>8))
	buf = append(buf, byte((snap.I&0x00FF)>>0))
	buf = append(buf, byte(len(snap.Stack)))
	for i := 0; i < chip8.StackSize; i++ {
		var b uint16
		if i < len(snap.Stack) {
			b = snap.Stack[i]
		}
		buf = append(buf, byte((b&0xFF00)>>8))
		buf = append(buf, byte((b&0x00FF)>>0))
	}
	buf = append(buf, snap.Dt)
	buf = append(buf, snap.St)
	buf = append(buf, byte(chip8.ScreenWidth))
	buf = append(buf, byte(chip8.ScreenHeight))

	switch s := snap.State.(type) {
	case chip8.WaitingForKey:
		buf = append(buf, s.Register)
	default:
		buf = append(buf, waitingNone)
	}

	faults := min(snap.Faults.Total(), 0xFFFF)
	buf = append(buf, byte(faults>>8), byte(faults))

	return buf
}
