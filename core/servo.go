// Software PWM for hobby servos.
// Each channel owns a dedicated timer ticking every 0.1 ms; the timer
// interrupt walks a two-state (HIGH/LOW) machine and toggles the pin when
// the tick count of the current phase is reached.
package core

const (
	ServoChannels = 2

	// 16 MHz / 100 = 160 kHz counter, update every 16 counts = 10 kHz.
	// Faster timer clocks scale the prescaler; see SetTimerClock.
	ServoPrescaler = 100
	ServoReload    = 16

	ServoPeriodTicks = 200 // 20 ms at 0.1 ms per tick
	ServoMinTicks    = 6   // 0.6 ms at 0 degrees
	ServoMaxTicks    = 24  // 2.4 ms at 180 degrees
	MaxAngle         = 180
)

// ServoChannel is the PWM state of one output pin
type ServoChannel struct {
	HighTick    uint16 // Ticks the output stays asserted
	LowTick     uint16 // Ticks the output stays deasserted
	CurrentTick uint16 // Progress within the current phase
	IsHigh      bool
	Enabled     bool

	Pin   GPIOPin
	Timer TimerID
}

// ServoEngine drives the servo channels. Main-line code calls Enable and
// Set; each channel's timer interrupt calls HandleTimer. No two interrupts
// touch the same channel.
type ServoEngine struct {
	channels  [ServoChannels]ServoChannel
	angles    [ServoChannels]uint8
	timers    *TimerBank
	gpio      GPIODriver
	prescaler uint32
}

// DefaultServoPins are PA0 and PA1
var DefaultServoPins = [ServoChannels]GPIOPin{Pin(GPIO_A, 0), Pin(GPIO_A, 1)}

// DefaultServoTimers drive channel 0 from TIM2 and channel 1 from TIM5.
// Boards whose runtime claims TIM2 pass their own assignment.
var DefaultServoTimers = [ServoChannels]TimerID{2, 5}

// NewServoEngine creates an engine with both channels disabled and low
func NewServoEngine(timers *TimerBank, gpio GPIODriver, pins [ServoChannels]GPIOPin, tims [ServoChannels]TimerID) *ServoEngine {
	e := &ServoEngine{timers: timers, gpio: gpio, prescaler: ServoPrescaler}
	for i := range e.channels {
		e.channels[i] = ServoChannel{
			LowTick: ServoPeriodTicks,
			Pin:     pins[i],
			Timer:   tims[i],
		}
	}
	return e
}

// SetTimerClock rescales the channel timers for a timer kernel clock of
// hz, keeping the 0.1 ms tick. Takes effect the next time a channel is armed.
func (e *ServoEngine) SetTimerClock(hz uint32) {
	e.prescaler = ServoPrescalerFor(hz)
}

// Prescaler returns the prescaler programmed when a channel is armed
func (e *ServoEngine) Prescaler() uint32 {
	return e.prescaler
}

// ConfigurePins sets both servo pins as outputs, driven low
func (e *ServoEngine) ConfigurePins() error {
	for i := range e.channels {
		pin := e.channels[i].Pin
		if err := e.gpio.ConfigureOutput(pin); err != nil {
			return err
		}
		if err := e.gpio.SetPin(pin, false); err != nil {
			return err
		}
	}
	return nil
}

// AngleToTicks maps 0..180 degrees linearly onto 6..24 ticks.
// Integer division truncates exactly like the float form 6 + 0.1*angle.
func AngleToTicks(angle uint8) uint16 {
	return ServoMinTicks + uint16(angle)/10
}

// Enable arms or disarms a channel. Arming starts the channel timer and
// begins a high phase immediately; disarming stops the timer and forces
// the pin low.
func (e *ServoEngine) Enable(channel uint8, on bool) error {
	if channel >= ServoChannels {
		return ErrInvalidChannel
	}
	sc := &e.channels[channel]

	if on {
		sc.Enabled = true
		e.timers.Init(sc.Timer, e.prescaler, ServoReload)
		if !sc.IsHigh {
			_ = e.gpio.SetPin(sc.Pin, true)
			sc.IsHigh = true
			sc.CurrentTick = 0
		}
		RecordEvent(EvtServoEnable, channel, uint32(sc.HighTick), uint32(sc.LowTick))
		return nil
	}

	e.timers.Disable(sc.Timer)
	sc.Enabled = false
	_ = e.gpio.SetPin(sc.Pin, false)
	sc.IsHigh = false
	sc.CurrentTick = 0
	RecordEvent(EvtServoDisable, channel, 0, 0)
	return nil
}

// Set changes the target angle of a channel. The new pulse width takes
// effect at the next phase transition; a phase already in flight is not
// shortened or stretched.
func (e *ServoEngine) Set(channel, angle uint8) error {
	if channel >= ServoChannels {
		return ErrInvalidChannel
	}
	if angle > MaxAngle {
		return ErrInvalidAngle
	}
	sc := &e.channels[channel]
	high := AngleToTicks(angle)

	// HighTick and LowTick must change together with respect to the
	// channel's timer interrupt.
	state := disableInterrupts()
	sc.HighTick = high
	sc.LowTick = ServoPeriodTicks - high
	e.angles[channel] = angle
	restoreInterrupts(state)

	RecordEvent(EvtServoSet, channel, uint32(angle), uint32(high))
	return nil
}

// HandleTimer is the update interrupt handler for a servo timer.
// It advances the owning channel by one tick and clears the interrupt
// flag as its last step.
func (e *ServoEngine) HandleTimer(id TimerID) {
	if !e.timers.Pending(id) {
		return
	}
	for i := range e.channels {
		sc := &e.channels[i]
		if sc.Timer != id {
			continue
		}
		if sc.Enabled {
			e.step(sc)
		}
		break
	}
	e.timers.ClearInterrupt(id)
}

func (e *ServoEngine) step(sc *ServoChannel) {
	sc.CurrentTick++
	if sc.IsHigh {
		if sc.CurrentTick >= sc.HighTick {
			_ = e.gpio.SetPin(sc.Pin, false)
			sc.IsHigh = false
			sc.CurrentTick = 0
		}
		return
	}
	if sc.CurrentTick >= sc.LowTick {
		_ = e.gpio.SetPin(sc.Pin, true)
		sc.IsHigh = true
		sc.CurrentTick = 0
	}
}

// Channel returns a snapshot of a channel's state
func (e *ServoEngine) Channel(channel uint8) (ServoChannel, error) {
	if channel >= ServoChannels {
		return ServoChannel{}, ErrInvalidChannel
	}
	state := disableInterrupts()
	sc := e.channels[channel]
	restoreInterrupts(state)
	return sc, nil
}

// Angle returns the last angle accepted by Set for a channel
func (e *ServoEngine) Angle(channel uint8) (uint8, error) {
	if channel >= ServoChannels {
		return 0, ErrInvalidChannel
	}
	return e.angles[channel], nil
}
