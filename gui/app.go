package gui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"unicode"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/chip8"
)

const (
	ToolbarGap       = 5
	ToolbarBtnWidth  = 80
	ToolbarBtnHeight = 40
	ToolbarHeight    = 50
	ToolbarBtnOffset = ToolbarBtnWidth + ToolbarGap

	ScreenPixelSize = 15
	ScreenPositionX = 0
	ScreenPositionY = ToolbarHeight + 1

	PanelWidth     = 220
	PanelGap       = 10
	KeypadBtnSize  = 45
	KeypadBtnGap   = 5
	RegistersFont  = 16
	RegistersLineH = 20

	MessageBarGap   = 5
	MessageBarHeigh = 30
)

var MessageBarBgColor = rl.DarkGray
var MessageBarInfoColor = rl.SkyBlue
var MessageBarSuccessColor = rl.Lime
var MessageBarWarningColor = rl.Gold
var MessageBarErrorColor = rl.Red
var PanelTextColor = rl.RayWhite

type MessageType byte

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

// keypadGrid is the layout of the COSMAC VIP hex keypad
var keypadGrid = [4][4]chip8.Key{
	{0x1, 0x2, 0x3, 0xC},
	{0x4, 0x5, 0x6, 0xD},
	{0x7, 0x8, 0x9, 0xE},
	{0xA, 0x0, 0xB, 0xF},
}

type App struct {
	console  *chip8.Console
	keyboard *chip8.InMemoryKeyboard
	logger   *slog.Logger

	// Speed factor
	// Speed in Hz is speedFactor+1 * 5
	speedFactor float32

	screenMu sync.Mutex
	screen   chip8.Screen

	keyCodes map[int32]chip8.Key
	// keys held with the mouse on the virtual keypad
	virtualKeys chip8.KeypadState

	// Window width and height
	winW, winH int

	// Toolbar
	startBtn, stopBtn, stepBtn, restBtn bool

	loadedProgramPath string

	lastMessage      string
	lastMessageColor rl.Color
}

type AppConfig struct {
	Speed           uint
	HaltAfterFaults uint
	Layout          chip8.KeyboardLayout
	Logger          *slog.Logger
}
type AppConfigCb func(config *AppConfig)

func speedFactorToHz(s float32) uint {
	return uint((s + 1) * 5)
}

func hzToSpeedFactor(hz uint) float32 {
	return float32(hz)/5 - 1
}

func NewApp(configs ...AppConfigCb) *App {
	config := &AppConfig{
		Speed:  chip8.DefaultSpeed,
		Layout: chip8.DefaultKeyboardLayout,
		Logger: slog.Default(),
	}
	for _, cb := range configs {
		cb(config)
	}

	app := &App{
		keyboard:    chip8.NewInMemoryKeyboard(),
		logger:      config.Logger,
		speedFactor: hzToSpeedFactor(config.Speed),
		keyCodes:    keyCodes(config.Layout),
	}

	app.console = chip8.NewConsole(app, app.keyboard, func(cc *chip8.ConsoleConfig) {
		cc.Speed = config.Speed
		cc.HaltAfterFaults = config.HaltAfterFaults
		cc.StartPaused = true
		cc.Logger = config.Logger
	})

	app.updateWindowSize()

	return app
}

// keyCodes maps the layout to raylib keys, which are the upper case ASCII codes
func keyCodes(layout chip8.KeyboardLayout) map[int32]chip8.Key {
	codes := map[int32]chip8.Key{}
	for r, k := range chip8.LookupMap(layout) {
		codes[int32(unicode.ToUpper(r))] = k
	}

	return codes
}

func (app *App) Console() *chip8.Console {
	return app.console
}

// Run initializes the console and the UI loop
func (app *App) Run(autostart bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.console.Boot(); err != nil {
		app.logger.Error("Error booting the console", slog.Any("error", err))
		return
	}

	go func() {
		app.logger.Info("starting the console loop on pause")
		if err := app.console.Run(ctx); err != nil {
			app.logger.Error("Error running the console", slog.Any("error", err))
		}
	}()

	if autostart && app.hasProgramLoaded() {
		app.console.Start()
	}

	rl.InitWindow(int32(app.winW), int32(app.winH), "chip8")
	defer rl.CloseWindow()

	gui.LoadStyleDefault()
	rl.SetTargetFPS(chip8.TimerHz)
	for !rl.WindowShouldClose() {
		rl.BeginDrawing()

		rl.ClearBackground(rl.Black)

		app.handleFileLoad()
		app.handleActions()
		app.handleKeyPress()
		app.updateSpeed()
		app.reportHalt()

		app.drawMessageBar()
		app.drawScreen()
		app.drawPanel()
		app.drawToolbar()

		rl.EndDrawing()
	}
}

func (app *App) Load(path string) {
	program, err := os.ReadFile(path)
	if err != nil {
		app.logger.Error("Error loading program", slog.String("path", path), slog.Any("error", err))
		app.showMessage(err.Error(), MessageError)
		return
	}

	if err = app.console.LoadRom(program); err != nil {
		app.logger.Error("Error loading program", slog.String("path", path), slog.Any("error", err))
		app.showMessage(err.Error(), MessageError)
		return
	}

	app.loadedProgramPath = path
	app.logger.Info("Program loaded", slog.String("path", path))
	app.showMessage(fmt.Sprintf("Program '%s' loaded", app.loadedProgramPath), MessageInfo)
}

func (app *App) updateWindowSize() {
	app.winW = chip8.ScreenWidth*ScreenPixelSize + PanelWidth
	app.winH = chip8.ScreenHeight*ScreenPixelSize + ToolbarHeight + MessageBarHeigh
	app.logger.Info("Updating window size", slog.Int("width", app.winW), slog.Int("height", app.winH))
}

func (app *App) handleFileLoad() {
	if rl.IsFileDropped() {
		files := rl.LoadDroppedFiles()
		defer rl.UnloadDroppedFiles()

		app.logger.Info("Files were dropped", "files", strings.Join(files, ","))
		if len(files) > 0 {
			app.Load(files[0])
		}
	}
}

func (app *App) hasProgramLoaded() bool {
	return len(app.loadedProgramPath) > 0
}

func (app *App) handleActions() {
	if app.startBtn {
		if app.hasProgramLoaded() {
			app.console.Start()
			app.logger.Info("Starting the console")
		} else {
			app.showMessage("There is no program loaded", MessageError)
		}
	}
	if app.stopBtn {
		app.console.Stop()
		app.logger.Info("Stopping the console")
	}
	if app.restBtn {
		if err := app.console.Reset(); err != nil {
			app.showMessage(err.Error(), MessageError)
		}
		app.logger.Info("Resetting the program to the beginning")
	}
	if app.stepBtn {
		if err := app.console.StepOnce(); err != nil {
			app.showMessage(err.Error(), MessageWarning)
		}
		app.logger.Info("Running a single instruction")
	}
}

func (app *App) handleKeyPress() {
	for code, key := range app.keyCodes {
		if rl.IsKeyDown(code) {
			app.keyboard.Press(key)
		} else {
			app.keyboard.Release(key)
		}
	}
}

func (app *App) updateSpeed() {
	app.console.SetSpeedInHz(speedFactorToHz(app.speedFactor))
}

func (app *App) reportHalt() {
	if app.console.IsHalted() && app.lastMessageColor != MessageBarErrorColor {
		app.showMessage(fmt.Sprintf("Halted: %v", app.console.LastError()), MessageError)
	}
}

const (
	MinSpeed = float32(chip8.MinSpeed/5) - 1
	MaxSpeed = float32(chip8.MaxSpeed/5) - 1
)

func (app *App) drawToolbar() {
	rl.DrawRectangle(0, 0, int32(rl.GetScreenWidth()), ToolbarHeight, rl.Gray)

	app.startBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*0, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_PLAY, "Start"),
	)
	app.stopBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*1, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_STOP, "Stop"),
	)
	app.stepBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*2, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_NEXT, "Step"),
	)
	app.restBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*3, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_ROTATE, "Reset"),
	)

	status := "Stopped"
	if app.console.IsRunning() {
		status = "Running"
	}
	gui.Label(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*4, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		status,
	)

	gui.Label(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, 26, 50, 20),
		fmt.Sprintf("%d Hz", speedFactorToHz(app.speedFactor)),
	)

	if gui.Button(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150+50, 26, 50, 20),
		gui.IconText(gui.ICON_ROTATE, ""),
	) {
		app.speedFactor = hzToSpeedFactor(chip8.DefaultSpeed)
	}

	app.speedFactor = gui.Slider(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, ToolbarGap, 100, 20),
		"5 Hz", "700 Hz",
		app.speedFactor,
		MinSpeed,
		MaxSpeed,
	)
}

func (app *App) drawScreen() {
	app.screenMu.Lock()
	screen := app.screen
	app.screenMu.Unlock()

	for y := range screen {
		for x, lit := range screen[y] {
			color := ScreenBgColor
			if lit {
				color = ScreenPixelColor
			}
			rl.DrawRectangle(
				ScreenPositionX+ScreenPixelSize*int32(x),
				ScreenPositionY+ScreenPixelSize*int32(y),
				ScreenPixelSize,
				ScreenPixelSize,
				color)
		}
	}
}

// drawPanel draws the virtual keypad and the registers next to the screen
func (app *App) drawPanel() {
	left := float32(chip8.ScreenWidth*ScreenPixelSize + PanelGap)
	top := float32(ScreenPositionY + PanelGap)

	mouse := rl.GetMousePosition()
	held := rl.IsMouseButtonDown(rl.MouseButtonLeft)

	for row, keys := range keypadGrid {
		for col, k := range keys {
			bounds := rl.NewRectangle(
				left+float32(col*(KeypadBtnSize+KeypadBtnGap)),
				top+float32(row*(KeypadBtnSize+KeypadBtnGap)),
				KeypadBtnSize,
				KeypadBtnSize,
			)
			gui.Button(bounds, fmt.Sprintf("%X", k))

			pressed := held && rl.CheckCollisionPointRec(mouse, bounds)
			if pressed != app.virtualKeys[k] {
				app.virtualKeys[k] = pressed
				app.console.SetKey(k, pressed)
			}
		}
	}

	y := int32(top) + 4*(KeypadBtnSize+KeypadBtnGap) + PanelGap
	for _, line := range formatRegisters(app.console.Snapshot()) {
		rl.DrawText(line, int32(left), y, RegistersFont, PanelTextColor)
		y += RegistersLineH
	}
}

// formatRegisters lays out the machine registers as text lines
func formatRegisters(snap chip8.Snapshot) []string {
	lines := []string{
		fmt.Sprintf("PC %03X  OP %04X", snap.Pc, snap.OpCode),
		fmt.Sprintf("I  %03X  SP %02d", snap.I, len(snap.Stack)),
		fmt.Sprintf("DT %02X    ST %02X", snap.Dt, snap.St),
	}
	for r := 0; r < chip8.RegisterCount; r += 4 {
		lines = append(lines, fmt.Sprintf("V%X %02X V%X %02X V%X %02X V%X %02X",
			r, snap.V[r], r+1, snap.V[r+1], r+2, snap.V[r+2], r+3, snap.V[r+3]))
	}
	if w, ok := snap.State.(chip8.WaitingForKey); ok {
		lines = append(lines, fmt.Sprintf("waiting key > V%X", w.Register))
	}
	lines = append(lines, fmt.Sprintf("faults %d", snap.Faults.Total()))

	return lines
}

func (app *App) showMessage(msg string, mType MessageType) {
	app.lastMessage = msg
	switch mType {
	case MessageInfo:
		app.lastMessageColor = MessageBarInfoColor

	case MessageSuccess:
		app.lastMessageColor = MessageBarSuccessColor

	case MessageWarning:
		app.lastMessageColor = MessageBarWarningColor

	case MessageError:
		app.lastMessageColor = MessageBarErrorColor
	}
}

func (app *App) drawMessageBar() {
	rl.DrawRectangle(
		0,
		int32(app.winH)-MessageBarHeigh,
		int32(app.winW),
		MessageBarHeigh,
		MessageBarBgColor,
	)

	rl.DrawText(
		app.lastMessage,
		MessageBarGap,
		int32(app.winH)-MessageBarHeigh+MessageBarGap,
		16,
		app.lastMessageColor,
	)
}
