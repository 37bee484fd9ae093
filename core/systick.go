package core

import "sync/atomic"

// SysTick control bits
const (
	SYST_CSR_ENABLE    = 1 << 0
	SYST_CSR_TICKINT   = 1 << 1
	SYST_CSR_CLKSOURCE = 1 << 2 // processor clock
)

// TickRateHz is the nominal SysTick interrupt rate (1 ms per tick)
const TickRateHz = 1000

// SysTickRegisters is the Cortex-M SysTick register block
type SysTickRegisters struct {
	CTRL Register32 // Control and status
	LOAD Register32 // Reload value
	VAL  Register32 // Current value
}

// NewMemSysTickRegisters returns a SysTick block backed by memory
func NewMemSysTickRegisters() *SysTickRegisters {
	return &SysTickRegisters{CTRL: &Reg32{}, LOAD: &Reg32{}, VAL: &Reg32{}}
}

// TickCounter is the millisecond counter advanced by the SysTick interrupt.
// It wraps on overflow.
type TickCounter struct {
	regs    *SysTickRegisters
	clockHz uint32
	ticks   uint32

	// Idle is called on every iteration of Delay's busy-wait
	Idle func()
}

// NewTickCounter creates a counter for a SysTick clocked at clockHz
func NewTickCounter(regs *SysTickRegisters, clockHz uint32) *TickCounter {
	return &TickCounter{regs: regs, clockHz: clockHz}
}

// Init programs SysTick for a 1 ms interrupt period
func (t *TickCounter) Init() {
	t.regs.CTRL.Set(0)
	t.regs.LOAD.Set(t.clockHz/TickRateHz - 1)
	t.regs.VAL.Set(0)
	t.regs.CTRL.Set(SYST_CSR_ENABLE | SYST_CSR_TICKINT | SYST_CSR_CLKSOURCE)
}

// Handle is the SysTick interrupt handler
func (t *TickCounter) Handle() {
	atomic.AddUint32(&t.ticks, 1)
}

// Ticks returns the current counter value
func (t *TickCounter) Ticks() uint32 {
	return atomic.LoadUint32(&t.ticks)
}

// Delay spins until at least ticks milliseconds have elapsed. It cannot be
// cut short and never returns if interrupts are masked.
func (t *TickCounter) Delay(ticks uint32) {
	start := t.Ticks()
	for t.Ticks()-start < ticks {
		if t.Idle != nil {
			t.Idle()
		}
	}
}
