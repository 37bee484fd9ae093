package main

import (
	"io"
	"time"

	"github.com/golang/glog"

	"servostation/config"
	"servostation/console"
	"servostation/core"
)

const (
	// StepDuration is one servo timer tick
	StepDuration = 100 * time.Microsecond

	// StepsPerTick is the number of servo ticks per SysTick interrupt
	StepsPerTick = 10

	asciiEOT = 4
)

// pulseMeter measures the high time of a servo output in steps
type pulseMeter struct {
	high    uint32
	last    uint32
	pulses  uint32
	wasHigh bool
}

func (m *pulseMeter) sample(level bool) {
	switch {
	case level:
		m.high++
	case m.wasHigh:
		m.last = m.high
		m.pulses++
		m.high = 0
	}
	m.wasHigh = level
}

// simulator runs the station firmware on a MemBoard. Everything happens on
// the goroutine that calls Step; input arrives through a channel.
type simulator struct {
	board   *core.MemBoard
	station *console.Station
	out     io.Writer
	input   <-chan byte

	script   []byte
	steps    uint64
	meters   [core.ServoChannels]pulseMeter
	report   uint64
	realtime bool
	start    time.Time
	inputEOF bool
}

func newSimulator(cfg config.SimConfig, input <-chan byte, out io.Writer) (*simulator, error) {
	b := core.NewMemBoard()
	s := &simulator{
		board:    b,
		out:      out,
		input:    input,
		report:   uint64(cfg.ReportMs) * StepsPerTick,
		realtime: !cfg.Fast,
		start:    time.Now(),
	}
	for _, line := range cfg.Startup {
		s.script = append(s.script, line...)
		s.script = append(s.script, '\r')
	}

	b.Line.OnTransmit = func(c byte) {
		_, _ = s.out.Write([]byte{c})
	}
	b.UART.Idle = s.Step
	b.Ticks.Idle = s.Step

	core.SetEventClock(b.Ticks.Ticks)
	core.SetDebugWriter(func(msg string) {
		_, _ = io.WriteString(b.UART.Stdout(), msg+"\r\n")
	})

	b.Ticks.Init()
	if err := b.UART.Init(config.DefaultBaud); err != nil {
		return nil, err
	}
	if err := b.Servos.ConfigurePins(); err != nil {
		return nil, err
	}
	s.station = console.NewStation(b.Servos, b.Ticks, b.UART, nil, nil)
	return s, nil
}

// Step advances simulated time by one servo tick
func (s *simulator) Step() {
	s.steps++
	s.board.TimerTick()
	for ch := uint8(0); ch < core.ServoChannels; ch++ {
		s.meters[ch].sample(s.board.GPIO.Level(core.DefaultServoPins[ch]))
	}
	s.board.GPIO.ClearEdges()

	if s.steps%StepsPerTick == 0 {
		s.board.Ticks.Handle()
	}
	s.feedInput()
	s.board.ServiceUART()

	if s.report > 0 && s.steps%s.report == 0 {
		s.reportPulses()
	}
	if s.realtime {
		s.pace()
	}
}

// feedInput delivers at most one byte per step, scripted lines first
func (s *simulator) feedInput() {
	if len(s.script) > 0 {
		s.board.Line.Inject(s.script[:1])
		s.script = s.script[1:]
		return
	}
	if s.inputEOF {
		return
	}
	select {
	case c, ok := <-s.input:
		if !ok {
			// EOT ends a read blocked on a partial line
			s.inputEOF = true
			s.board.Line.Inject([]byte{asciiEOT})
			return
		}
		if c == '\n' {
			c = '\r'
		}
		s.board.Line.Inject([]byte{c})
	default:
	}
}

func (s *simulator) reportPulses() {
	for ch := uint8(0); ch < core.ServoChannels; ch++ {
		sc, _ := s.board.Servos.Channel(ch)
		if !sc.Enabled {
			glog.V(1).Infof("servo %d: off", ch+1)
			continue
		}
		m := &s.meters[ch]
		glog.Infof("servo %d: pulse %d.%d ms, %d pulses", ch+1, m.last/10, m.last%10, m.pulses)
	}
}

// pace sleeps so simulated time does not run ahead of the wall clock
func (s *simulator) pace() {
	if s.steps%(StepsPerTick*10) != 0 {
		return
	}
	ahead := time.Duration(s.steps)*StepDuration - time.Since(s.start)
	if ahead > 0 {
		time.Sleep(ahead)
	}
}

// Done reports whether the input has ended and everything was handled
func (s *simulator) Done() bool {
	return s.inputEOF && len(s.script) == 0 &&
		s.board.UART.Buffered() == 0 && s.board.Line.RxWaiting() == 0 &&
		s.board.UART.Pending() == 0
}

// Run starts the station and steps it until the input ends or maxSteps
// have elapsed (0 means no limit)
func (s *simulator) Run(maxSteps uint64) {
	s.station.Start()
	for maxSteps == 0 || s.steps < maxSteps {
		s.Step()
		s.station.Poll()
		if s.Done() {
			return
		}
	}
}
