//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved PRIMASK value
type State = interrupt.State

// disableInterrupts masks interrupts and returns the previous state
func disableInterrupts() State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state State) {
	interrupt.Restore(state)
}

// interruptsCanRun reports whether a pending interrupt would be taken:
// the caller is not itself a handler and PRIMASK is clear.
func interruptsCanRun() bool {
	if interrupt.In() {
		return false
	}
	state := interrupt.Disable()
	interrupt.Restore(state)
	return state == 0
}
