package core

// CoreClockHz is the HSI clock the chip leaves reset on
const CoreClockHz = 16000000

// MemBoard is the whole station wired to in-memory peripherals. Tests and
// the simulator drive interrupts by hand through it.
type MemBoard struct {
	Clocks  ClockTree
	Clock   *APB1Clock
	NVIC    *MemNVIC
	GPIO    *MemGPIO
	Timers  *TimerBank
	Line    *UARTLine
	UART    *UART
	SysTick *SysTickRegisters
	Ticks   *TickCounter
	Servos  *ServoEngine
}

// NewMemBoard builds a board with every peripheral in memory
func NewMemBoard() *MemBoard {
	b := &MemBoard{
		Clocks:  DefaultClockTree,
		Clock:   NewMemClock(),
		NVIC:    &MemNVIC{},
		GPIO:    NewMemGPIO(),
		Line:    NewUARTLine(),
		SysTick: NewMemSysTickRegisters(),
	}
	b.Timers = NewMemTimerBank(b.Clock, b.NVIC)
	b.UART = NewUART(UARTConfig{
		Regs:    b.Line.Registers(),
		Clock:   b.Clock,
		IRQ:     b.NVIC,
		GPIO:    b.GPIO,
		Periph:  PeriphUSART2,
		IRQLine: USART2_IRQ,
		TxPin:   DefaultUARTTx,
		RxPin:   DefaultUARTRx,
		AltFunc: AF7_USART1_2,
		ClockHz: b.Clocks.PCLK1,
	})
	b.Ticks = NewTickCounter(b.SysTick, b.Clocks.HCLK)
	b.Servos = NewServoEngine(b.Timers, b.GPIO, DefaultServoPins, DefaultServoTimers)
	b.Servos.SetTimerClock(b.Clocks.TIMCLK1)
	return b
}

// TimerTick simulates one update event on every running timer: the flag
// is raised and the servo handler runs.
func (b *MemBoard) TimerTick() {
	for id := MinTimerID; id <= MaxTimerID; id++ {
		if !b.Timers.Running(id) {
			continue
		}
		b.Timers.Registers(id).SR.SetBits(TIM_SR_UIF)
		if irq, ok := b.Timers.IRQ(id); ok {
			b.NVIC.Raise(irq)
		}
		b.Servos.HandleTimer(id)
		if irq, ok := b.Timers.IRQ(id); ok {
			b.NVIC.ClearPending(irq)
		}
	}
}

// ServiceUART runs the USART handler while the line requests an interrupt
// and the NVIC line is enabled
func (b *MemBoard) ServiceUART() {
	if !b.NVIC.Enabled(USART2_IRQ) {
		return
	}
	for i := 0; i < 64 && b.Line.InterruptPending(); i++ {
		b.NVIC.Raise(USART2_IRQ)
		b.UART.HandleInterrupt()
		if b.Line.RxWaiting() == 0 && !b.UART.cfg.Regs.CR1.HasBits(USART_CR1_TXEIE) {
			return
		}
	}
}
