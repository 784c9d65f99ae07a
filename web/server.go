package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/chip8"
)

type Server struct {
	console  *chip8.Console
	debugger *HttpDebugger
	mux      *http.ServeMux
	logger   *slog.Logger

	socket  *websocket.Conn
	wsMutex sync.Mutex
}

type ServerConfig struct {
	UseDebugger bool
	// StaticDir is served at /
	StaticDir string
	Speed     uint
	Logger    *slog.Logger
	Console   []chip8.ConsoleConfigCb
	// Display replaces the websocket display
	Display chip8.Display
	// Keyboard is the host keyboard, virtual keys from /key are merged with it
	Keyboard chip8.Keyboard
}
type ServerConfigCb func(config *ServerConfig)

func NewServer(configs ...ServerConfigCb) *Server {
	config := &ServerConfig{
		UseDebugger: false,
		StaticDir:   "./static",
		Speed:       chip8.DefaultSpeed,
		Logger:      slog.Default(),
		Keyboard:    chip8.NewInMemoryKeyboard(),
	}
	for _, cb := range configs {
		cb(config)
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  config.Logger,
		wsMutex: sync.Mutex{},
	}

	consoleConfigs := append([]chip8.ConsoleConfigCb{func(cc *chip8.ConsoleConfig) {
		cc.Speed = config.Speed
		cc.Logger = config.Logger
		cc.StartPaused = true
	}}, config.Console...)
	var display chip8.Display = s
	if config.Display != nil {
		display = config.Display
	}
	s.console = chip8.NewConsole(display, config.Keyboard, consoleConfigs...)

	if config.UseDebugger {
		s.debugger = NewHttpDebugger(s.console, config.Logger)
		s.mux.HandleFunc("/debugger", s.debugger.serveWs)
	}

	s.routes(config.StaticDir)

	return s
}

func (server *Server) Console() *chip8.Console {
	return server.console
}

// Handler returns the handler serving every endpoint
func (server *Server) Handler() http.Handler {
	return server.mux
}

// LoadRom loads the program into memory and sets the PC to the start-of-program address
func (server *Server) LoadRom(rom []byte) error {
	return server.console.LoadRom(rom)
}

// Listen boots the console and serves until the context is done
func (server *Server) Listen(ctx context.Context, port int) error {
	if err := server.console.Boot(); err != nil {
		return fmt.Errorf("booting console: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := server.console.Run(ctx); err != nil {
			server.logger.Error("console stopped", slog.Any("error", err))
		}
		cancel()
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           server.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	}()

	server.logger.Info("Listening on port", slog.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (server *Server) routes(staticDir string) {
	server.mux.Handle("/", http.FileServer(http.Dir(staticDir)))

	server.mux.HandleFunc("/start", server.control("Starting", func() error {
		server.console.Start()
		return nil
	}))
	server.mux.HandleFunc("/stop", server.control("Stopping", func() error {
		server.console.Stop()
		return nil
	}))
	server.mux.HandleFunc("/reset", server.control("Stopping and resetting", func() error {
		server.console.Stop()
		return server.console.Reset()
	}))
	server.mux.HandleFunc("/step", server.control("Single step", server.console.StepOnce))
	server.mux.HandleFunc("/key", server.handleKey)
	server.mux.HandleFunc("/speed", server.handleSpeed)
	server.mux.HandleFunc("/display", server.handleDisplay)
}

func setControlHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Type")

	w.Header().Set("Cache-Control", "no-cache")
}

// control wraps an action without parameters. Machine faults are reported but are not request errors.
func (server *Server) control(msg string, action func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setControlHeaders(w)

		server.logger.Info(msg)
		if err := action(); err != nil {
			server.logger.Warn(msg+" failed", slog.Any("error", err))
			if errors.Is(err, chip8.ErrConsoleIsNotBooted) {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("X-Chip8-Fault", err.Error())
		}
	}
}

// handleKey presses or releases a virtual key: /key?key=A&pressed=true
func (server *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	setControlHeaders(w)

	k, err := strconv.ParseUint(r.FormValue("key"), 16, 8)
	if err != nil || k >= chip8.KeyCount {
		http.Error(w, "key must be a hex digit", http.StatusBadRequest)
		return
	}
	pressed, err := strconv.ParseBool(r.FormValue("pressed"))
	if err != nil {
		http.Error(w, "pressed must be a boolean", http.StatusBadRequest)
		return
	}

	server.console.SetKey(chip8.Key(k), pressed)
}

// handleSpeed changes the instruction clock: /speed?hz=60
func (server *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	setControlHeaders(w)

	hz, err := strconv.ParseUint(r.FormValue("hz"), 10, 32)
	if err != nil {
		http.Error(w, "hz must be a positive number", http.StatusBadRequest)
		return
	}

	server.console.SetSpeedInHz(uint(hz))
	fmt.Fprintf(w, "%d", server.console.SpeedInHz())
}
