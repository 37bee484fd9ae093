package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAngleToTicksBoundaries(t *testing.T) {
	assert.Equal(t, uint16(6), AngleToTicks(0))
	assert.Equal(t, uint16(6), AngleToTicks(9))
	assert.Equal(t, uint16(7), AngleToTicks(10))
	assert.Equal(t, uint16(15), AngleToTicks(90))
	assert.Equal(t, uint16(23), AngleToTicks(179))
	assert.Equal(t, uint16(24), AngleToTicks(180))
}

func TestAngleToTicksMatchesFloatTruncation(t *testing.T) {
	for a := 0; a <= MaxAngle; a++ {
		want := uint16(6 + 0.1*float64(a))
		assert.Equal(t, want, AngleToTicks(uint8(a)), "angle %d", a)
	}
}

func TestServoSetKeepsPeriod(t *testing.T) {
	b := NewMemBoard()
	prev := uint16(0)
	for ch := uint8(0); ch < ServoChannels; ch++ {
		for a := 0; a <= MaxAngle; a++ {
			require.NoError(t, b.Servos.Set(ch, uint8(a)))
			sc, err := b.Servos.Channel(ch)
			require.NoError(t, err)
			assert.Equal(t, uint16(ServoPeriodTicks), sc.HighTick+sc.LowTick)
			if a > 0 {
				assert.GreaterOrEqual(t, sc.HighTick, prev, "high ticks are monotonic in angle")
			}
			prev = sc.HighTick
		}
	}
}

func TestServoSetScenario(t *testing.T) {
	b := NewMemBoard()
	require.NoError(t, b.Servos.Enable(0, true))

	require.NoError(t, b.Servos.Set(0, 0))
	sc, _ := b.Servos.Channel(0)
	assert.Equal(t, uint16(ServoMinTicks), sc.HighTick)
	assert.Equal(t, uint16(ServoPeriodTicks-ServoMinTicks), sc.LowTick)

	require.NoError(t, b.Servos.Set(0, 180))
	sc, _ = b.Servos.Channel(0)
	assert.Equal(t, uint16(ServoMaxTicks), sc.HighTick)
	assert.Equal(t, uint16(ServoPeriodTicks-ServoMaxTicks), sc.LowTick)

	angle, err := b.Servos.Angle(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(180), angle)
}

func TestServoRejectsInvalidArguments(t *testing.T) {
	b := NewMemBoard()
	require.NoError(t, b.Servos.Set(1, 90))
	before0, _ := b.Servos.Channel(0)
	before1, _ := b.Servos.Channel(1)

	assert.ErrorIs(t, b.Servos.Set(2, 90), ErrInvalidChannel)
	assert.ErrorIs(t, b.Servos.Set(1, 181), ErrInvalidAngle)
	assert.ErrorIs(t, b.Servos.Set(0, 255), ErrInvalidAngle)
	assert.ErrorIs(t, b.Servos.Enable(2, true), ErrInvalidChannel)
	_, err := b.Servos.Channel(2)
	assert.ErrorIs(t, err, ErrInvalidChannel)

	after0, _ := b.Servos.Channel(0)
	after1, _ := b.Servos.Channel(1)
	assert.Equal(t, before0, after0)
	assert.Equal(t, before1, after1)
	assert.Equal(t, uint32(0), b.Clock.ENR.Get(), "no timer was started")
}

func TestServoDefaults(t *testing.T) {
	b := NewMemBoard()
	for ch := uint8(0); ch < ServoChannels; ch++ {
		sc, err := b.Servos.Channel(ch)
		require.NoError(t, err)
		assert.False(t, sc.Enabled)
		assert.False(t, sc.IsHigh)
		assert.Equal(t, uint16(0), sc.HighTick)
		assert.Equal(t, uint16(ServoPeriodTicks), sc.LowTick)
	}
}

func TestServoEnableStartsTimerAndDrivesHigh(t *testing.T) {
	b := NewMemBoard()
	require.NoError(t, b.Servos.ConfigurePins())

	require.NoError(t, b.Servos.Enable(1, true))

	tim := b.Timers.Registers(5)
	assert.True(t, b.Timers.Running(5))
	assert.Equal(t, uint32(ServoPrescaler-1), tim.PSC.Get())
	assert.Equal(t, uint32(ServoReload-1), tim.ARR.Get())
	assert.True(t, b.GPIO.Level(DefaultServoPins[1]))
	assert.False(t, b.Timers.Running(2), "channel 0 timer untouched")

	sc, _ := b.Servos.Channel(1)
	assert.True(t, sc.Enabled)
	assert.True(t, sc.IsHigh)
	assert.Equal(t, uint16(0), sc.CurrentTick)
}

func TestServoTimerClockRescalesPrescaler(t *testing.T) {
	b := NewMemBoard()
	b.Servos.SetTimerClock(84000000)
	assert.Equal(t, uint32(525), b.Servos.Prescaler())

	require.NoError(t, b.Servos.Enable(0, true))
	tim := b.Timers.Registers(2)
	assert.Equal(t, uint32(524), tim.PSC.Get())
	assert.Equal(t, uint32(ServoReload-1), tim.ARR.Get(), "reload keeps the tick length")
}

func TestServoAlternateTimers(t *testing.T) {
	b := NewMemBoard()
	e := NewServoEngine(b.Timers, b.GPIO, DefaultServoPins, [ServoChannels]TimerID{4, 5})

	require.NoError(t, e.Set(0, 90))
	require.NoError(t, e.Enable(0, true))
	assert.True(t, b.Timers.Running(4))
	assert.False(t, b.Timers.Running(2))
	assert.True(t, b.NVIC.Enabled(30), "TIM4 line routed")

	b.Timers.Registers(4).SR.SetBits(TIM_SR_UIF)
	e.HandleTimer(4)
	assert.False(t, b.Timers.Pending(4))
	sc, _ := e.Channel(0)
	assert.Equal(t, uint16(1), sc.CurrentTick)
}

func TestServoDisableForcesLow(t *testing.T) {
	b := NewMemBoard()
	require.NoError(t, b.Servos.Set(0, 90))
	require.NoError(t, b.Servos.Enable(0, true))
	for i := 0; i < 3; i++ {
		b.TimerTick()
	}

	require.NoError(t, b.Servos.Enable(0, false))

	assert.False(t, b.Timers.Running(2))
	assert.False(t, b.Clock.Enabled(PeriphTIM2))
	assert.False(t, b.GPIO.Level(DefaultServoPins[0]))
	sc, _ := b.Servos.Channel(0)
	assert.False(t, sc.Enabled)
	assert.False(t, sc.IsHigh)
	assert.Equal(t, uint16(0), sc.CurrentTick)
	assert.Equal(t, uint16(15), sc.HighTick, "disable keeps the target pulse")
}

func TestServoWaveformFirstTwentyTicks(t *testing.T) {
	b := NewMemBoard()
	pin := DefaultServoPins[0]
	require.NoError(t, b.Servos.Set(0, 0))
	require.NoError(t, b.Servos.Enable(0, true))

	sc, _ := b.Servos.Channel(0)
	require.Equal(t, uint16(6), sc.HighTick)
	require.Equal(t, uint16(194), sc.LowTick)

	for tick := 1; tick <= 20; tick++ {
		// Level held during tick period n, before its update interrupt
		level := b.GPIO.Level(pin)
		if tick <= 6 {
			assert.True(t, level, "tick %d should be high", tick)
		} else {
			assert.False(t, level, "tick %d should be low", tick)
		}
		b.TimerTick()
	}

	sc, _ = b.Servos.Channel(0)
	assert.False(t, sc.IsHigh)
	assert.Equal(t, uint16(14), sc.CurrentTick)
}

func TestServoFullPeriod(t *testing.T) {
	b := NewMemBoard()
	pin := DefaultServoPins[1]
	require.NoError(t, b.Servos.Set(1, 180))
	require.NoError(t, b.Servos.Enable(1, true))

	high := 0
	for i := 0; i < 3*ServoPeriodTicks; i++ {
		if b.GPIO.Level(pin) {
			high++
		}
		b.TimerTick()
	}
	assert.Equal(t, 3*ServoMaxTicks, high)
}

func TestServoSetAppliesAtNextPhase(t *testing.T) {
	b := NewMemBoard()
	pin := DefaultServoPins[0]
	require.NoError(t, b.Servos.Set(0, 0))
	require.NoError(t, b.Servos.Enable(0, true))

	// Two ticks into a 6-tick high phase, ask for the longest pulse.
	b.TimerTick()
	b.TimerTick()
	require.NoError(t, b.Servos.Set(0, 180))

	sc, _ := b.Servos.Channel(0)
	assert.True(t, sc.IsHigh, "set does not touch the phase")
	assert.Equal(t, uint16(2), sc.CurrentTick, "set does not touch the counter")

	// The current phase now runs to the new threshold, then the low phase
	// uses the new low count.
	ticks := 2
	for b.GPIO.Level(pin) {
		b.TimerTick()
		ticks++
	}
	assert.Equal(t, ServoMaxTicks, ticks)

	low := 0
	for !b.GPIO.Level(pin) {
		b.TimerTick()
		low++
	}
	assert.Equal(t, ServoPeriodTicks-ServoMaxTicks, low)
}

func TestServoHandlerIgnoresDisabledChannel(t *testing.T) {
	b := NewMemBoard()
	require.NoError(t, b.Servos.Set(0, 90))

	b.Timers.Init(2, ServoPrescaler, ServoReload)
	b.Timers.Registers(2).SR.SetBits(TIM_SR_UIF)
	b.Servos.HandleTimer(2)

	sc, _ := b.Servos.Channel(0)
	assert.Equal(t, uint16(0), sc.CurrentTick)
	assert.False(t, b.Timers.Pending(2), "flag is cleared even when idle")
}

func TestServoHandlerWithoutFlag(t *testing.T) {
	b := NewMemBoard()
	require.NoError(t, b.Servos.Enable(0, true))

	b.Servos.HandleTimer(2)

	sc, _ := b.Servos.Channel(0)
	assert.Equal(t, uint16(0), sc.CurrentTick, "spurious entry does nothing")
}

func TestServoChannelsIndependent(t *testing.T) {
	b := NewMemBoard()
	require.NoError(t, b.Servos.Set(0, 0))
	require.NoError(t, b.Servos.Set(1, 180))
	require.NoError(t, b.Servos.Enable(0, true))
	require.NoError(t, b.Servos.Enable(1, true))

	for i := 0; i < 10; i++ {
		b.TimerTick()
	}
	assert.False(t, b.GPIO.Level(DefaultServoPins[0]))
	assert.True(t, b.GPIO.Level(DefaultServoPins[1]))
}

func TestServoEventsRecorded(t *testing.T) {
	ClearEvents()
	b := NewMemBoard()
	require.NoError(t, b.Servos.Enable(0, true))
	require.NoError(t, b.Servos.Set(0, 90))
	require.NoError(t, b.Servos.Enable(0, false))

	evts := Events()
	require.Len(t, evts, 3)
	assert.Equal(t, uint8(EvtServoEnable), evts[0].Kind)
	assert.Equal(t, uint8(EvtServoSet), evts[1].Kind)
	assert.Equal(t, uint32(90), evts[1].Value1)
	assert.Equal(t, uint32(15), evts[1].Value2)
	assert.Equal(t, uint8(EvtServoDisable), evts[2].Kind)
}
