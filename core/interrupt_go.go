//go:build !tinygo

package core

import "sync/atomic"

// State is the mask depth saved by disableInterrupts on regular Go
type State int32

// maskDepth counts nested critical sections. Host code delivers interrupts
// from its Idle hooks, so the depth only tells those hooks whether an
// interrupt would be taken.
var maskDepth int32

// disableInterrupts enters a critical section and returns the previous depth
func disableInterrupts() State {
	return State(atomic.AddInt32(&maskDepth, 1) - 1)
}

// restoreInterrupts returns to the depth saved by disableInterrupts
func restoreInterrupts(state State) {
	atomic.StoreInt32(&maskDepth, int32(state))
}

// interruptsCanRun reports whether no critical section is open
func interruptsCanRun() bool {
	return atomic.LoadInt32(&maskDepth) == 0
}
