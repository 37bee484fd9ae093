package core

// GPIOPort identifies a GPIO bank (A, B, C, ...)
type GPIOPort uint8

const (
	GPIO_A GPIOPort = iota
	GPIO_B
	GPIO_C
	GPIO_D
)

// GPIOPin identifies a hardware GPIO pin number.
// Pins are numbered port*16 + pin, the same scheme TinyGo uses on STM32.
type GPIOPin uint32

// Pin builds a GPIOPin from a port and pin index
func Pin(port GPIOPort, n uint8) GPIOPin {
	return GPIOPin(uint32(port)*16 + uint32(n&0xF))
}

// Port returns the bank of a pin
func (p GPIOPin) Port() GPIOPort { return GPIOPort(p / 16) }

// Index returns the pin index within its bank
func (p GPIOPin) Index() uint8 { return uint8(p % 16) }

// AltFunc is an alternate function selector (AF0..AF15)
type AltFunc uint8

const AF7_USART1_2 AltFunc = 7

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle pin muxing; the core only
// toggles and reads pins that were configured through it.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a push-pull digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// ConfigureAlternate hands a pin to a peripheral function
	ConfigureAlternate(pin GPIOPin, af AltFunc) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)
}
