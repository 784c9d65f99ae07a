/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/tty"
	"github.com/guslan/chip8/web"
)

func main() {
	portPtr := flag.Int("port", 9999, "specify the port of the debugger")
	debugPtr := flag.Bool("debug", false, "serve the debugger on the port")
	noTermPtr := flag.Bool("noterm", false, "turn off the terminal display of the emulator")
	speedPtr := flag.Uint("speed", chip8.DefaultSpeed, "speed in instructions per second")
	haltAfterPtr := flag.Uint("halt-after", 0, "halt after that many faults, 0 never halts")
	seedPtr := flag.Uint64("seed", 0, "seed of the random number generator, 0 uses a random seed")

	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalln("must provide the path to a rom as an argument")
	}

	program, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}

	// the terminal belongs to the display, logs go to stderr
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var d chip8.Display
	if *noTermPtr {
		d = chip8.NewDummyDisplay()
	} else {
		d = chip8.NewTerminalDisplay()
	}

	kb := tty.NewKeyboard(func(config *tty.KeyboardConfig) {
		config.OnQuit = cancel
	})
	defer kb.Close()

	consoleConfig := func(config *chip8.ConsoleConfig) {
		config.Speed = *speedPtr
		config.HaltAfterFaults = *haltAfterPtr
		if *seedPtr != 0 {
			config.Machine = append(config.Machine, func(mc *chip8.MachineConfig) {
				mc.Random = chip8.NewSeededRandom(*seedPtr)
			})
		}
	}

	if *debugPtr {
		// the server drives the console, the terminal stays the display and keyboard
		server := web.NewServer(func(config *web.ServerConfig) {
			config.UseDebugger = true
			config.Speed = *speedPtr
			config.Console = []chip8.ConsoleConfigCb{consoleConfig, func(config *chip8.ConsoleConfig) {
				config.StartPaused = false
			}}
			config.Display = d
			config.Keyboard = kb
		})
		if err := server.LoadRom(program); err != nil {
			log.Fatalln(err)
		}

		if err := server.Listen(ctx, *portPtr); err != nil {
			log.Fatalln(err)
		}
		return
	}

	console := chip8.NewConsole(d, kb, consoleConfig)
	if err := console.Boot(); err != nil {
		log.Fatalln(err)
	}
	if err := console.LoadRom(program); err != nil {
		log.Fatalln(err)
	}

	if err := console.Run(ctx); err != nil {
		log.Fatalln(err)
	}
}
