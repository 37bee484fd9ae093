package config

import (
	"fmt"

	"servostation/core"
)

// Validate checks configuration correctness.
// It does not mutate the configuration.
func Validate(cfg *Config) error {
	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial: baud must be positive, got %d", cfg.Serial.Baud)
	}
	// USARTDIV below 16 cannot be programmed with 16x oversampling
	if core.BaudDivisor(core.CoreClockHz, uint32(cfg.Serial.Baud)) < 16 {
		return fmt.Errorf("serial: baud %d is too fast for a %d Hz bus clock",
			cfg.Serial.Baud, core.CoreClockHz)
	}
	if cfg.Serial.ReadTimeoutMs < 0 {
		return fmt.Errorf("serial: read_timeout_ms must not be negative")
	}
	if cfg.Sim.ReportMs < 0 {
		return fmt.Errorf("sim: report_ms must not be negative")
	}

	if err := validateLines("console.startup", cfg.Console.Startup); err != nil {
		return err
	}
	return validateLines("sim.startup", cfg.Sim.Startup)
}

// validateLines rejects lines the station could not take in one read
func validateLines(field string, lines []string) error {
	for i, line := range lines {
		if len(line)+1 > MaxLineLength {
			return fmt.Errorf("%s[%d]: line longer than %d bytes", field, i, MaxLineLength-1)
		}
		for j := 0; j < len(line); j++ {
			c := line[j]
			if c < 0x20 || c > 0x7E {
				return fmt.Errorf("%s[%d]: must contain printable ASCII only", field, i)
			}
		}
	}
	return nil
}
