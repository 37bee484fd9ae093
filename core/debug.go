package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a firmware event for post-mortem analysis
type Event struct {
	Kind    uint8  // Event kind code
	Channel uint8  // Servo channel or UART line
	Tick    uint32 // Tick counter at the event
	Value1  uint32 // Kind-dependent value
	Value2  uint32 // Kind-dependent value
}

// Event kind codes
const (
	EvtServoEnable  = 1 // Servo channel armed
	EvtServoDisable = 2 // Servo channel disarmed
	EvtServoSet     = 3 // New angle accepted (v1=angle, v2=high ticks)
	EvtRxOverrun    = 4 // UART RX byte dropped (v1=total drops)
	EvtCommand      = 5 // Console command dispatched (v1=ok)
	EvtTxDrop       = 6 // UART TX bytes dropped on a full ring (v1=total drops)
)

const (
	EventRingSize = 32 // Keep the last 32 events
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]Event
	eventRingHead uint8

	// eventClock stamps recorded events; set by SetEventClock
	eventClock func() uint32
)

// SetDebugWriter sets the platform-specific debug output function.
// The board points it at the UART, the simulator at glog.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetEventClock sets the time source used to stamp events
func SetEventClock(clock func() uint32) {
	eventClock = clock
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// RecordEvent stores an event in the ring. Safe to call from interrupt
// handlers: no allocation, no blocking. The slot claim and the stamp happen
// with interrupts masked, so an event recorded by a preempting handler
// never lands in the same slot and ring order matches tick order.
func RecordEvent(kind, channel uint8, value1, value2 uint32) {
	state := disableInterrupts()
	var tick uint32
	if eventClock != nil {
		tick = eventClock()
	}
	idx := eventRingHead
	eventRingHead = (idx + 1) % EventRingSize
	eventRing[idx] = Event{
		Kind:    kind,
		Channel: channel,
		Tick:    tick,
		Value1:  value1,
		Value2:  value2,
	}
	restoreInterrupts(state)
}

// Events returns the recorded events, oldest first
func Events() []Event {
	state := disableInterrupts()
	ring, start := eventRing, eventRingHead
	restoreInterrupts(state)

	out := make([]Event, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := ring[(start+i)%EventRingSize]
		if evt.Kind == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func eventName(kind uint8) string {
	switch kind {
	case EvtServoEnable:
		return "SERVO_ON"
	case EvtServoDisable:
		return "SERVO_OFF"
	case EvtServoSet:
		return "SERVO_SET"
	case EvtRxOverrun:
		return "RX_OVERRUN"
	case EvtCommand:
		return "COMMAND"
	case EvtTxDrop:
		return "TX_DROP"
	default:
		return "UNKNOWN"
	}
}

// DumpEvents writes the event ring through the debug writer regardless of
// whether debug output is enabled
func DumpEvents() {
	debugPrintln("[EVT] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVT] " + eventName(evt.Kind) +
			" ch=" + itoa(int(evt.Channel)) +
			" tick=" + utoa(evt.Tick) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVT] === End Dump ===")
}

// ClearEvents clears the event ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
