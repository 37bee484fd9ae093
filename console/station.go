// Package console is the station's command and input loop. It reads text
// commands from the UART, angle entries from the keypad, drives the servo
// engine and keeps the LCD current. It runs only in main-line context.
package console

import (
	"errors"
	"io"

	"servostation/core"
)

// Display is a character LCD
type Display interface {
	Clear()
	SetCursor(row, col uint8)
	Print(s string)
}

// Keypad reports the key currently held as its ASCII legend, or 0 when
// no key is down
type Keypad interface {
	Key() byte
}

const (
	NoChannel      = -1
	MaxEntryDigits = 3

	KeyScanTicks = 20  // keypad sample period, also the debounce window
	DisplayTicks = 100 // LCD refresh period

	lineBufSize = 32
)

var errBadChannel = errors.New("channel must be 1 or 2")

// Station owns the interactive state: which channel the keypad steers and
// the angle being typed
type Station struct {
	servos *core.ServoEngine
	ticks  *core.TickCounter
	uart   *core.UART
	out    io.Writer
	lcd    Display
	keys   Keypad

	commands *Registry
	sched    core.Scheduler
	keyTimer core.Timer
	lcdTimer core.Timer

	active   int8
	entry    [MaxEntryDigits]byte
	entryLen int
	lastKey  byte
	dirty    bool
	line     [lineBufSize]byte
}

// NewStation creates a station. lcd and keys may be nil on boards without
// them.
func NewStation(servos *core.ServoEngine, ticks *core.TickCounter, uart *core.UART, lcd Display, keys Keypad) *Station {
	s := &Station{
		servos:   servos,
		ticks:    ticks,
		uart:     uart,
		out:      uart.Stdout(),
		lcd:      lcd,
		keys:     keys,
		commands: NewRegistry(),
		active:   NoChannel,
		dirty:    true,
	}
	s.registerCommands()
	return s
}

func (s *Station) registerCommands() {
	s.commands.Register("enable", "enable <1|2>: arm a servo and steer it from the keypad", s.cmdEnable)
	s.commands.Register("disable", "disable <1|2>: disarm a servo", s.cmdDisable)
	s.commands.Register("angle", "angle <0-180>: set the steered servo", s.cmdAngle)
	s.commands.Register("status", "show both servos", s.cmdStatus)
	s.commands.Register("events", "dump the event log", s.cmdEvents)
	s.commands.Register("help", "list commands", s.cmdHelp)
}

// Commands returns the station's command registry
func (s *Station) Commands() *Registry {
	return s.commands
}

// Active returns the channel steered by the keypad, or NoChannel
func (s *Station) Active() int {
	return int(s.active)
}

// Entry returns the digits typed so far
func (s *Station) Entry() string {
	return string(s.entry[:s.entryLen])
}

// Start prints the banner and schedules keypad scanning and LCD refresh
func (s *Station) Start() {
	now := s.ticks.Ticks()

	s.keyTimer.WakeTime = now + KeyScanTicks
	s.keyTimer.Handler = s.scanKeypad
	s.sched.ScheduleTimer(&s.keyTimer)

	s.lcdTimer.WakeTime = now + DisplayTicks
	s.lcdTimer.Handler = s.refreshTimer
	s.sched.ScheduleTimer(&s.lcdTimer)

	s.print("Servo station ready\r\n")
	s.Refresh()
}

// Poll runs due scheduled work and, when the UART holds input, reads and
// handles one line. Reading blocks until the line is terminated.
func (s *Station) Poll() {
	s.sched.Dispatch(s.ticks.Ticks())

	if s.uart.Buffered() == 0 {
		return
	}
	n, err := s.uart.Read(core.Stdin, s.line[:])
	if err != nil || n == 0 {
		return
	}
	s.HandleLine(string(s.line[:n]))
}

// HandleLine runs one text command. Anything that is not a known command
// with valid arguments prints "Invalid command" and releases the keypad.
func (s *Station) HandleLine(line string) {
	err := s.commands.Dispatch(line)
	if err != nil {
		core.RecordEvent(core.EvtCommand, 0, 0, 0)
		s.active = NoChannel
		s.dirty = true
		s.print("Invalid command\r\n")
		return
	}
	core.RecordEvent(core.EvtCommand, 0, 1, 0)
}

func parseChannel(args string) (uint8, error) {
	if len(args) != 1 || args[0] < '1' || args[0] > '0'+core.ServoChannels {
		return 0, errBadChannel
	}
	return args[0] - '1', nil
}

func (s *Station) cmdEnable(args string) error {
	ch, err := parseChannel(args)
	if err != nil {
		return err
	}
	if err := s.servos.Enable(ch, true); err != nil {
		return err
	}
	s.active = int8(ch)
	s.dirty = true
	s.print("Servo " + core.Itoa(int(ch)+1) + " enabled\r\n")
	return nil
}

func (s *Station) cmdDisable(args string) error {
	ch, err := parseChannel(args)
	if err != nil {
		return err
	}
	if err := s.servos.Enable(ch, false); err != nil {
		return err
	}
	s.active = NoChannel
	s.dirty = true
	s.print("Servo " + core.Itoa(int(ch)+1) + " disabled\r\n")
	return nil
}

func (s *Station) cmdAngle(args string) error {
	angle, ok := core.ParseDecimal(args)
	if !ok {
		return core.ErrInvalidAngle
	}
	s.applyAngle(angle)
	return nil
}

func (s *Station) cmdStatus(string) error {
	for ch := uint8(0); ch < core.ServoChannels; ch++ {
		sc, _ := s.servos.Channel(ch)
		angle, _ := s.servos.Angle(ch)
		state := "off"
		if sc.Enabled {
			state = "on"
		}
		s.print("Servo " + core.Itoa(int(ch)+1) + ": " + state +
			" angle " + core.Itoa(int(angle)) +
			" pulse " + core.Itoa(int(sc.HighTick)) + "/" + core.Itoa(int(sc.LowTick)) + "\r\n")
	}
	return nil
}

func (s *Station) cmdEvents(string) error {
	core.DumpEvents()
	return nil
}

func (s *Station) cmdHelp(string) error {
	s.print(s.commands.Help())
	return nil
}

// HandleKey processes one keypad press: digits build the entry, '#'
// applies it to the active channel and '*' discards it. Other keys are
// ignored.
func (s *Station) HandleKey(key byte) {
	switch {
	case key >= '0' && key <= '9':
		if s.entryLen == MaxEntryDigits {
			s.clearEntry()
			s.print("Invalid angle\r\n")
			return
		}
		s.entry[s.entryLen] = key
		s.entryLen++
		s.dirty = true
	case key == '#':
		if s.entryLen == 0 {
			return
		}
		angle, _ := core.ParseDecimal(s.Entry())
		s.clearEntry()
		s.applyAngle(angle)
	case key == '*':
		s.clearEntry()
	}
}

func (s *Station) clearEntry() {
	s.entryLen = 0
	s.dirty = true
}

// applyAngle validates an angle and sets it on the active channel. A
// rejected angle keeps the previous state.
func (s *Station) applyAngle(angle uint32) {
	if angle > core.MaxAngle {
		s.print("Invalid angle\r\n")
		return
	}
	if s.active == NoChannel {
		s.print("No servo enabled\r\n")
		return
	}
	ch := uint8(s.active)
	if err := s.servos.Set(ch, uint8(angle)); err != nil {
		s.print("Invalid angle\r\n")
		return
	}
	s.dirty = true
	s.print("Servo " + core.Itoa(int(ch)+1) + " angle " + core.Itoa(int(angle)) + "\r\n")
}

// scanKeypad samples the keypad. A key counts once when it first reads
// down; holding it or bouncing within a sample period does not repeat.
func (s *Station) scanKeypad(t *core.Timer) uint8 {
	t.WakeTime += KeyScanTicks
	if s.keys == nil {
		return core.SF_RESCHEDULE
	}
	key := s.keys.Key()
	if key != 0 && key != s.lastKey {
		s.HandleKey(key)
	}
	s.lastKey = key
	return core.SF_RESCHEDULE
}

func (s *Station) refreshTimer(t *core.Timer) uint8 {
	t.WakeTime += DisplayTicks
	if s.dirty {
		s.Refresh()
	}
	return core.SF_RESCHEDULE
}

// Refresh redraws the LCD: the steered servo on the first row and the
// pending entry on the second
func (s *Station) Refresh() {
	s.dirty = false
	if s.lcd == nil {
		return
	}
	s.lcd.Clear()
	s.lcd.SetCursor(0, 0)
	if s.active == NoChannel {
		s.lcd.Print("No servo")
	} else {
		angle, _ := s.servos.Angle(uint8(s.active))
		s.lcd.Print("Servo " + core.Itoa(int(s.active)+1) + " " + core.Itoa(int(angle)) + "deg")
	}
	s.lcd.SetCursor(1, 0)
	s.lcd.Print("> " + s.Entry())
}

func (s *Station) print(msg string) {
	_, _ = io.WriteString(s.out, msg)
}
