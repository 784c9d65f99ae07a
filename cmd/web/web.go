/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/web"
)

func main() {
	port := flag.Int("port", 9999, "The port of the server")
	speed := flag.Uint("speed", chip8.DefaultSpeed, "Speed in cycles per second")
	static := flag.String("static", "./static", "Directory served at /")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalln("must provide the path to a rom as an argument")
	}

	program, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	server := web.NewServer(func(config *web.ServerConfig) {
		config.UseDebugger = true
		config.Speed = *speed
		config.StaticDir = *static
	})

	if err := server.LoadRom(program); err != nil {
		log.Fatalln(err)
	}
	if err := server.Listen(ctx, *port); err != nil {
		log.Fatalln(err)
	}
}
