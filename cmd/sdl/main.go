package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/faiface/mainthread"
	"github.com/guslan/chip8"
	"github.com/guslan/chip8/sdl"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
}

func main() {
	mainthread.Run(run)
}

func run() {
	speed := flag.Uint("speed", chip8.DefaultSpeed, fmt.Sprintf("The speed of the CPU in Hz. It has to be in the range [%d, %d].", chip8.MinSpeed, chip8.MaxSpeed))
	zoom := flag.Int("zoom", sdl.DefaultZoom, "Size in pixels of a CHIP-8 pixel.")
	haltAfter := flag.Uint("halt-after", 0, "Halt the console after that many faults, 0 never halts.")
	flag.Parse()

	if flag.NArg() < 1 {
		slog.Error("must provide the path to a rom as an argument")
		os.Exit(1)
	}

	rom, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		slog.Error("Error reading the rom", slog.Any("error", err))
		os.Exit(1)
	}

	window := sdl.NewWindow(func(config *sdl.WindowConfig) {
		config.Zoom = int32(*zoom)
	})
	defer window.Close()

	console := chip8.NewConsole(window, window, func(config *chip8.ConsoleConfig) {
		config.Speed = *speed
		config.HaltAfterFaults = *haltAfter
	})
	if err := console.Boot(); err != nil {
		slog.Error("Error booting the console", slog.Any("error", err))
		os.Exit(1)
	}
	if err := console.LoadRom(rom); err != nil {
		slog.Error("Error loading the rom", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := console.Run(ctx); err != nil {
			slog.Error("console stopped", slog.Any("error", err))
		}
		cancel()
	}()

	// the event pump runs at the timer rate
	events := time.NewTicker(time.Second / chip8.TimerHz)
	defer events.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-events.C:
			if !window.PollEvents() {
				slog.Info("window closed")
				return
			}
		}
	}
}
