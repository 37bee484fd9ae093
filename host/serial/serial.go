package serial

import (
	"io"

	"servostation/config"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards data not yet read or written
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (the station's USART runs at 115200)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the station's default line settings
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        config.DefaultBaud,
		ReadTimeout: config.DefaultReadTimeoutMs,
	}
}

// FromConfig converts the YAML serial section
func FromConfig(cfg config.SerialConfig) *Config {
	return &Config{
		Device:      cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeoutMs,
	}
}
