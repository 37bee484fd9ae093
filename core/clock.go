package core

// ServoTickHz is the servo timer update rate (0.1 ms per tick)
const ServoTickHz = 10000

// ClockTree holds the bus clocks every divider in the station is derived
// from. TinyGo's runtime reprograms the PLL before main, so the board
// builds this from the live clock configuration rather than assuming HSI.
type ClockTree struct {
	HCLK    uint32 // Core and AHB clock; SysTick reference
	PCLK1   uint32 // APB1 peripheral clock; USART2 baud reference
	TIMCLK1 uint32 // APB1 timer kernel clock; TIM2..TIM5 reference
}

// DefaultClockTree is the reset configuration: 16 MHz HSI, no bus division
var DefaultClockTree = NewClockTree(CoreClockHz, 1)

// NewClockTree derives the APB1 clocks from the core clock and the APB1
// divisor. Timers on a divided APB bus run at twice the bus clock.
func NewClockTree(hclk, apb1Div uint32) ClockTree {
	if apb1Div == 0 {
		apb1Div = 1
	}
	pclk := hclk / apb1Div
	tim := pclk
	if apb1Div > 1 {
		tim = 2 * pclk
	}
	return ClockTree{HCLK: hclk, PCLK1: pclk, TIMCLK1: tim}
}

// APBDivisor decodes a 3-bit PPREx field of RCC_CFGR: 0xx is /1,
// 100 through 111 are /2, /4, /8 and /16.
func APBDivisor(ppre uint32) uint32 {
	ppre &= 0x7
	if ppre < 0x4 {
		return 1
	}
	return 2 << (ppre - 0x4)
}

// ServoPrescalerFor returns the prescaler that makes ServoReload timer
// counts last one servo tick. Never less than 1.
func ServoPrescalerFor(timerHz uint32) uint32 {
	p := timerHz / (ServoTickHz * ServoReload)
	if p == 0 {
		return 1
	}
	return p
}
