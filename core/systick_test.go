package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSysTickInit(t *testing.T) {
	regs := NewMemSysTickRegisters()
	regs.VAL.Set(1234)
	tc := NewTickCounter(regs, CoreClockHz)

	tc.Init()

	assert.Equal(t, uint32(15999), regs.LOAD.Get())
	assert.Equal(t, uint32(0), regs.VAL.Get())
	assert.Equal(t, uint32(SYST_CSR_ENABLE|SYST_CSR_TICKINT|SYST_CSR_CLKSOURCE), regs.CTRL.Get())
}

func TestTickCounterCountsInterrupts(t *testing.T) {
	tc := NewTickCounter(NewMemSysTickRegisters(), CoreClockHz)
	assert.Equal(t, uint32(0), tc.Ticks())

	for i := 0; i < 1000; i++ {
		tc.Handle()
	}
	assert.Equal(t, uint32(1000), tc.Ticks())
}

func TestTickCounterWraps(t *testing.T) {
	tc := NewTickCounter(NewMemSysTickRegisters(), CoreClockHz)
	tc.ticks = math.MaxUint32

	tc.Handle()
	assert.Equal(t, uint32(0), tc.Ticks())
}

func TestTickDelayWaitsForTicks(t *testing.T) {
	tc := NewTickCounter(NewMemSysTickRegisters(), CoreClockHz)
	for i := 0; i < 7; i++ {
		tc.Handle()
	}

	spins := 0
	tc.Idle = func() {
		spins++
		tc.Handle()
	}
	tc.Delay(25)

	assert.GreaterOrEqual(t, tc.Ticks(), uint32(7+25))
	assert.Equal(t, 25, spins)
}

func TestTickDelayAcrossWrap(t *testing.T) {
	tc := NewTickCounter(NewMemSysTickRegisters(), CoreClockHz)
	tc.ticks = math.MaxUint32 - 2
	tc.Idle = tc.Handle

	tc.Delay(10)
	assert.Equal(t, uint32(7), tc.Ticks())
}

func TestTickDelayZero(t *testing.T) {
	tc := NewTickCounter(NewMemSysTickRegisters(), CoreClockHz)
	tc.Idle = func() { require.Fail(t, "Delay(0) must not spin") }
	tc.Delay(0)
}
