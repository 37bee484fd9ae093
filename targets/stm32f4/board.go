//go:build stm32f4

package main

import (
	"device/arm"
	"device/stm32"
	"machine"
	"runtime/interrupt"

	"servostation/core"
)

// Board is the station bound to the STM32F401 peripherals
type Board struct {
	Clocks core.ClockTree
	Timers *core.TimerBank
	UART   *core.UART
	Ticks  *core.TickCounter
	Servos *core.ServoEngine
	GPIO   *STMGPIODriver
}

var board *Board

// servoTimers avoids TIM2 and TIM3, which TinyGo's stm32 runtimes take for
// their tick and sleep timers.
var servoTimers = [core.ServoChannels]core.TimerID{4, 5}

// liveClocks reads the clock tree the runtime left behind. initCLK moves
// the core onto the PLL and divides APB1 before main runs.
func liveClocks() core.ClockTree {
	ppre1 := (stm32.RCC.CFGR.Get() & stm32.RCC_CFGR_PPRE1_Msk) >> stm32.RCC_CFGR_PPRE1_Pos
	return core.NewClockTree(machine.CPUFrequency(), core.APBDivisor(ppre1))
}

func nvic() *core.NVIC {
	n := &core.NVIC{}
	for i := range n.ISER {
		n.ISER[i] = &arm.NVIC.ISER[i]
		n.ICER[i] = &arm.NVIC.ICER[i]
		n.ICPR[i] = &arm.NVIC.ICPR[i]
	}
	return n
}

// timerRegs binds TIM4 and TIM5 only. TIM2 and TIM3 stay unbound so the
// bank treats them as no-ops instead of touching the runtime's timer.
func timerRegs() [core.TimerCount]*core.TimerRegisters {
	var regs [core.TimerCount]*core.TimerRegisters
	regs[4] = &core.TimerRegisters{
		CR1: &stm32.TIM4.CR1, DIER: &stm32.TIM4.DIER, SR: &stm32.TIM4.SR,
		CNT: &stm32.TIM4.CNT, PSC: &stm32.TIM4.PSC, ARR: &stm32.TIM4.ARR,
	}
	regs[5] = &core.TimerRegisters{
		CR1: &stm32.TIM5.CR1, DIER: &stm32.TIM5.DIER, SR: &stm32.TIM5.SR,
		CNT: &stm32.TIM5.CNT, PSC: &stm32.TIM5.PSC, ARR: &stm32.TIM5.ARR,
	}
	return regs
}

// newBoard binds the core to the chip. Nothing is started here.
func newBoard() *Board {
	clock := &core.APB1Clock{ENR: &stm32.RCC.APB1ENR}
	irq := nvic()
	gpio := NewSTMGPIODriver()
	clocks := liveClocks()

	b := &Board{GPIO: gpio, Clocks: clocks}
	b.Timers = core.NewTimerBank(timerRegs(), clock, irq)
	b.UART = core.NewUART(core.UARTConfig{
		Regs: &core.UARTRegisters{
			SR:  &stm32.USART2.SR,
			DR:  &stm32.USART2.DR,
			BRR: &stm32.USART2.BRR,
			CR1: &stm32.USART2.CR1,
		},
		Clock:   clock,
		IRQ:     irq,
		GPIO:    gpio,
		Periph:  core.PeriphUSART2,
		IRQLine: core.USART2_IRQ,
		TxPin:   core.DefaultUARTTx,
		RxPin:   core.DefaultUARTRx,
		AltFunc: core.AF7_USART1_2,
		ClockHz: clocks.PCLK1,
	})
	b.Ticks = core.NewTickCounter(&core.SysTickRegisters{
		CTRL: &arm.SYST.SYST_CSR,
		LOAD: &arm.SYST.SYST_RVR,
		VAL:  &arm.SYST.SYST_CVR,
	}, clocks.HCLK)
	b.Servos = core.NewServoEngine(b.Timers, gpio, core.DefaultServoPins, servoTimers)
	b.Servos.SetTimerClock(clocks.TIMCLK1)

	// Busy-waits sleep until the next interrupt
	b.UART.Idle = waitForInterrupt
	b.Ticks.Idle = waitForInterrupt
	return b
}

func waitForInterrupt() {
	arm.Asm("wfi")
}

// registerInterrupts installs the handlers. The lines are enabled in the
// NVIC by the core when each peripheral starts.
func registerInterrupts() {
	interrupt.New(stm32.IRQ_TIM4, func(interrupt.Interrupt) {
		board.Servos.HandleTimer(4)
	})
	interrupt.New(stm32.IRQ_TIM5, func(interrupt.Interrupt) {
		board.Servos.HandleTimer(5)
	})
	interrupt.New(stm32.IRQ_USART2, func(interrupt.Interrupt) {
		board.UART.HandleInterrupt()
	})
}

//export SysTick_Handler
func sysTickHandler() {
	board.Ticks.Handle()
}
