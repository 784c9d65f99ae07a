package gui

import (
	"github.com/guslan/chip8"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var ScreenBgColor = rl.Gold
var ScreenPixelColor = rl.Yellow

// Boot implements chip8.Display.
func (app *App) Boot() error {
	return nil
}

// Render implements chip8.Display. The screen is drawn by the UI loop.
func (app *App) Render(screen chip8.Screen) error {
	app.screenMu.Lock()
	app.screen = screen
	app.screenMu.Unlock()

	return nil
}
