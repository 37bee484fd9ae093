package core

// TimerID names a general purpose timer unit (TIM2..TIM5)
type TimerID uint8

const (
	MinTimerID TimerID = 2
	MaxTimerID TimerID = 5
	TimerCount         = int(MaxTimerID) + 1
)

// Timer register bits
const (
	TIM_CR1_CEN  = 1 << 0 // Counter enable
	TIM_DIER_UIE = 1 << 0 // Update interrupt enable
	TIM_SR_UIF   = 1 << 0 // Update interrupt flag
)

// IRQ lines of TIM2..TIM5 on STM32F401
var timerIRQ = [TimerCount]uint8{2: 28, 3: 29, 4: 30, 5: 50}

var timerPeriph = [TimerCount]Peripheral{
	2: PeriphTIM2,
	3: PeriphTIM3,
	4: PeriphTIM4,
	5: PeriphTIM5,
}

// TimerRegisters is the subset of a TIM2..TIM5 register block the firmware touches
type TimerRegisters struct {
	CR1  Register32 // 0x00 Control Register 1
	DIER Register32 // 0x0C DMA/Interrupt Enable
	SR   Register32 // 0x10 Status Register
	CNT  Register32 // 0x24 Counter
	PSC  Register32 // 0x28 Prescaler
	ARR  Register32 // 0x2C Auto-Reload
}

// TimerBank owns the periodic timer units usable by the firmware.
// Ids outside 2..5 are ignored by every operation.
type TimerBank struct {
	regs  [TimerCount]*TimerRegisters
	clock ClockControl
	irq   InterruptController
}

// NewTimerBank creates a bank. regs is indexed by timer id; slots 0 and 1 are unused.
func NewTimerBank(regs [TimerCount]*TimerRegisters, clock ClockControl, irq InterruptController) *TimerBank {
	return &TimerBank{regs: regs, clock: clock, irq: irq}
}

func (b *TimerBank) lookup(id TimerID) *TimerRegisters {
	if id < MinTimerID || id > MaxTimerID {
		return nil
	}
	return b.regs[id]
}

// Registers returns the register block of a timer, or nil for an invalid id
func (b *TimerBank) Registers(id TimerID) *TimerRegisters {
	return b.lookup(id)
}

// IRQ returns the interrupt line of a timer
func (b *TimerBank) IRQ(id TimerID) (uint8, bool) {
	if b.lookup(id) == nil {
		return 0, false
	}
	return timerIRQ[id], true
}

// Init starts a timer so that it raises an update interrupt every period
// counts of clock/prescaler. The hardware counts from zero, hence the -1 on
// both PSC and ARR.
func (b *TimerBank) Init(id TimerID, prescaler, period uint32) {
	tim := b.lookup(id)
	if tim == nil {
		return
	}

	b.clock.Enable(timerPeriph[id])
	b.irq.SetIRQ(timerIRQ[id], true)

	tim.PSC.Set(prescaler - 1)
	tim.ARR.Set(period - 1)

	tim.DIER.SetBits(TIM_DIER_UIE)
	tim.CR1.SetBits(TIM_CR1_CEN)
}

// Disable stops the counter and gates the timer clock.
// NVIC routing and any pending flag are left as they are; Init always
// re-enables the clock before anything else.
func (b *TimerBank) Disable(id TimerID) {
	tim := b.lookup(id)
	if tim == nil {
		return
	}
	tim.CR1.ClearBits(TIM_CR1_CEN)
	b.clock.Disable(timerPeriph[id])
}

// Pending reports whether the update interrupt flag is set
func (b *TimerBank) Pending(id TimerID) bool {
	tim := b.lookup(id)
	if tim == nil {
		return false
	}
	return tim.SR.HasBits(TIM_SR_UIF)
}

// ClearInterrupt clears the update interrupt flag. Handlers must call it
// once, after their state changes, or the interrupt fires again immediately.
func (b *TimerBank) ClearInterrupt(id TimerID) {
	tim := b.lookup(id)
	if tim == nil {
		return
	}
	tim.SR.ClearBits(TIM_SR_UIF)
}

// Running reports whether the counter of a timer is enabled
func (b *TimerBank) Running(id TimerID) bool {
	tim := b.lookup(id)
	if tim == nil {
		return false
	}
	return tim.CR1.HasBits(TIM_CR1_CEN)
}
