package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/guslan/chip8"
)

var upgrader = websocket.Upgrader{} // use default options

// Boot implements Display.
func (server *Server) Boot() error {
	return nil
}

func (server *Server) setWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	server.socket = conn
	server.wsMutex.Unlock()
}

func (server *Server) unsetWs(conn *websocket.Conn) {
	server.wsMutex.Lock()
	if server.socket == conn {
		server.socket = nil
	}
	server.wsMutex.Unlock()
}

// Render implements Display. The screen is sent packed, 1 bit per pixel.
func (server *Server) Render(screen chip8.Screen) error {
	// a websocket supports a single writer
	server.wsMutex.Lock()
	defer server.wsMutex.Unlock()

	if server.socket == nil {
		return nil
	}

	return server.socket.WriteMessage(websocket.BinaryMessage, screen.Pack())
}

func (server *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		server.logger.Warn("upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	server.logger.Info("Connecting to display")
	server.setWs(conn)
	defer server.unsetWs(conn)

	// the first frame is the current screen
	screen := server.console.Snapshot().Screen
	server.wsMutex.Lock()
	err = conn.WriteMessage(websocket.BinaryMessage, screen.Pack())
	server.wsMutex.Unlock()
	if err != nil {
		return
	}

	// reads only to notice the client leaving
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			server.logger.Info("Disconnecting from display")
			return
		}
	}
}
