//go:build stm32f4

package main

import (
	"machine"

	"servostation/core"
)

// STMGPIODriver implements the GPIODriver interface for STM32F4.
// TinyGo numbers STM32 pins port*16+pin, the same as core.GPIOPin.
type STMGPIODriver struct {
	// Track configured pins to prevent conflicts
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewSTMGPIODriver creates a new STM32F4 GPIO driver
func NewSTMGPIODriver() *STMGPIODriver {
	return &STMGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a pin as a push-pull output
func (d *STMGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configuredPins[pin] = machinePin
	return nil
}

func (d *STMGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.configuredPins[pin] = machinePin
	return nil
}

// ConfigureAlternate hands a pin to a peripheral. Reconfiguring is
// allowed since the UART claims its pins on every Init.
func (d *STMGPIODriver) ConfigureAlternate(pin core.GPIOPin, af core.AltFunc) error {
	machinePin := machine.Pin(pin)
	machinePin.ConfigureAltFunc(machine.PinConfig{Mode: machine.PinModeUARTTX}, uint8(af))
	d.configuredPins[pin] = machinePin
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *STMGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		machinePin = d.configuredPins[pin]
	}
	machinePin.Set(value)
	return nil
}

// GetPin reads the current pin state
func (d *STMGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return false, nil
	}
	return machinePin.Get(), nil
}
