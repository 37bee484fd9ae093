//go:build stm32f4

package main

import (
	"machine"

	"tinygo.org/x/drivers/hd44780i2c"
	"tinygo.org/x/drivers/keypad4x4"

	"servostation/console"
	"servostation/core"
)

const (
	consoleBaud = 115200
	lcdAddress  = 0x27
)

// Keypad wiring, rows then columns
var (
	keypadRows = [4]machine.Pin{machine.PB0, machine.PB1, machine.PB2, machine.PB3}
	keypadCols = [4]machine.Pin{machine.PB4, machine.PB5, machine.PB6, machine.PB7}
)

// lcdDisplay adapts the HD44780 I2C backpack to console.Display
type lcdDisplay struct {
	dev hd44780i2c.Device
}

func newLCD() (*lcdDisplay, error) {
	if err := machine.I2C0.Configure(machine.I2CConfig{Frequency: 100e3}); err != nil {
		return nil, err
	}
	d := &lcdDisplay{dev: hd44780i2c.New(machine.I2C0, lcdAddress)}
	if err := d.dev.Configure(hd44780i2c.Config{Width: 16, Height: 2}); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *lcdDisplay) Clear() { d.dev.ClearDisplay() }

func (d *lcdDisplay) SetCursor(row, col uint8) { d.dev.SetCursor(col, row) }

func (d *lcdDisplay) Print(s string) { d.dev.Print([]byte(s)) }

// keyLegend maps the driver's key index to the printed legend
var keyLegend = [16]byte{
	'1', '2', '3', 'A',
	'4', '5', '6', 'B',
	'7', '8', '9', 'C',
	'*', '0', '#', 'D',
}

// matrixKeypad adapts the 4x4 matrix driver to console.Keypad
type matrixKeypad struct {
	dev keypad4x4.Device
}

func newKeypad() *matrixKeypad {
	dev := keypad4x4.NewDevice(
		keypadRows[3], keypadRows[2], keypadRows[1], keypadRows[0],
		keypadCols[3], keypadCols[2], keypadCols[1], keypadCols[0],
	)
	dev.Configure()
	return &matrixKeypad{dev: dev}
}

func (k *matrixKeypad) Key() byte {
	key := k.dev.GetKey()
	if key == keypad4x4.NoKeyPressed || int(key) >= len(keyLegend) {
		return 0
	}
	return keyLegend[key]
}

func main() {
	board = newBoard()
	registerInterrupts()

	board.Ticks.Init()
	if err := board.UART.Init(consoleBaud); err != nil {
		return
	}
	out := board.UART.Stdout()
	core.SetDebugWriter(func(s string) {
		out.Write([]byte(s + "\r\n"))
	})
	core.SetEventClock(board.Ticks.Ticks)

	if err := board.Servos.ConfigurePins(); err != nil {
		core.DebugPrintln("servo pins: " + err.Error())
	}

	// A missing LCD leaves the station usable from the console
	var display console.Display
	lcd, err := newLCD()
	if err != nil {
		out.Write([]byte("LCD not found: " + err.Error() + "\r\n"))
	} else {
		display = lcd
	}

	station := console.NewStation(board.Servos, board.Ticks, board.UART, display, newKeypad())
	station.Start()

	for {
		station.Poll()
		waitForInterrupt()
	}
}
